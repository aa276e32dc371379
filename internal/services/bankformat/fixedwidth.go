package bankformat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed-width layout constants. The 280-char line is a bank contract;
// every offset below is fixed by it.
const (
	fwLineLength = 280
	fwDateLayout = "20060102" // AAAAMMJJ

	fwRecHeader = "11"
	fwRecDetail = "22"
	fwRecFooter = "19"

	fwCurrency = "788" // TND numeric currency code

	fwOffDate        = 9
	fwOffRecCode     = 21
	fwOffMontant     = 28
	fwOffCount       = 43 // header and footer
	fwOffRibEmetteur = 43 // detail
	fwOffRibBenef    = 63
	fwOffNom         = 83
	fwOffReference   = 113
	fwOffSociete     = 133
	fwOffFiller      = 168

	fwMontantLen = 15
	fwCountLen   = 10
)

// ErrNotFixedWidth means the input does not look like a generated
// fixed-width file.
var ErrNotFixedWidth = errors.New("input is not a fixed-width virement file")

func fixedWidthLayout() LayoutSpec {
	return LayoutSpec{
		Type:         LayoutFixed,
		LineLength:   fwLineLength,
		DateLayout:   fwDateLayout,
		AmountFormat: AmountMillimes,
		Header: []FieldSpec{
			{Name: "sens", Length: 1},
			{Name: "code_valeur", Length: 2},
			{Name: "nature_remettant", Length: 1},
			{Name: "code_remettant", Length: 2},
			{Name: "code_centre", Length: 3, Left: true, Pad: ' '},
			{Name: "date_operation", Length: 8},
			{Name: "numero_lot", Length: 4, Pad: '0'},
			{Name: "code_enregistrement", Length: 2},
			{Name: "code_devise", Length: 3},
			{Name: "rang", Length: 2, Pad: '0'},
			{Name: "montant_total", Length: 15, Pad: '0'},
			{Name: "nombre_virements", Length: 10, Pad: '0'},
			{Name: "zone_libre", Length: 227, Left: true, Pad: ' '},
		},
		Detail: []FieldSpec{
			{Name: "sens", Length: 1},
			{Name: "code_valeur", Length: 2},
			{Name: "nature_remettant", Length: 1},
			{Name: "code_remettant", Length: 2},
			{Name: "code_centre", Length: 3, Left: true, Pad: ' '},
			{Name: "date_operation", Length: 8},
			{Name: "numero_lot", Length: 4, Pad: '0'},
			{Name: "code_enregistrement", Length: 2},
			{Name: "code_devise", Length: 3},
			{Name: "rang", Length: 2, Pad: '0'},
			{Name: "montant", Length: 15, Pad: '0'},
			{Name: "rib_emetteur", Length: 20},
			{Name: "rib_beneficiaire", Length: 20},
			{Name: "nom_beneficiaire", Length: 30, Left: true, Pad: ' '},
			{Name: "reference", Length: 20, Left: true, Pad: ' '},
			{Name: "societe", Length: 35, Left: true, Pad: ' '},
			{Name: "zone_libre", Length: 112, Left: true, Pad: ' '},
		},
		Footer: []FieldSpec{
			{Name: "sens", Length: 1},
			{Name: "code_valeur", Length: 2},
			{Name: "nature_remettant", Length: 1},
			{Name: "code_remettant", Length: 2},
			{Name: "code_centre", Length: 3, Left: true, Pad: ' '},
			{Name: "date_operation", Length: 8},
			{Name: "numero_lot", Length: 4, Pad: '0'},
			{Name: "code_enregistrement", Length: 2},
			{Name: "code_devise", Length: 3},
			{Name: "rang", Length: 2, Pad: '0'},
			{Name: "montant_total", Length: 15, Pad: '0'},
			{Name: "nombre_virements", Length: 10, Pad: '0'},
			{Name: "zone_libre", Length: 227, Left: true, Pad: ' '},
		},
	}
}

// fwPrefix builds the 28-char line prefix shared by all record types.
func fwPrefix(bankCode, dateStr, recCode, rang string) string {
	var b strings.Builder
	b.WriteString("1")      // sens
	b.WriteString("10")     // code valeur
	b.WriteString("1")      // nature remettant
	b.WriteString(bankCode) // code remettant
	b.WriteString("   ")    // code centre
	b.WriteString(dateStr)
	b.WriteString("0001") // numero lot
	b.WriteString(recCode)
	b.WriteString(fwCurrency)
	b.WriteString(rang)
	return b.String()
}

func encodeFixedWidth(b Batch) (string, error) {
	if !ValidRib(b.DonneurRIB) {
		return "", fmt.Errorf("RIB donneur d'ordre must be exactly 20 digits")
	}
	if len(b.Virements) > 999 {
		return "", fmt.Errorf("too many virements in one batch (max 999)")
	}

	bankCode := b.DonneurRIB[:2]
	dateStr := b.DateCreation.Format(fwDateLayout)

	details := make([]string, 0, len(b.Virements))
	for i, v := range b.Virements {
		if !ValidRib(v.RIB) {
			return "", fmt.Errorf("RIB bénéficiaire invalide pour %s %s", v.Nom, v.Prenom)
		}
		rang := padNum(strconv.Itoa(i+1), 3)[1:] // sequence, last 2 digits

		var line strings.Builder
		line.WriteString(fwPrefix(bankCode, dateStr, fwRecDetail, rang))
		line.WriteString(padNum(strconv.FormatInt(millimes(v.Montant), 10), fwMontantLen))
		line.WriteString(b.DonneurRIB)
		line.WriteString(v.RIB)
		line.WriteString(padText(sanitizeText(v.Nom+" "+v.Prenom), 30))
		line.WriteString(padText(sanitizeText("MAT"+v.Matricule), 20))
		societe := v.Societe
		if societe == "" {
			societe = b.DonneurNom
		}
		line.WriteString(padText(sanitizeText(societe), 35))
		line.WriteString(strings.Repeat(" ", fwLineLength-fwOffFiller))

		s := line.String()
		if len(s) != fwLineLength {
			return "", fmt.Errorf("detail line %d is %d chars, expected %d", i+1, len(s), fwLineLength)
		}
		details = append(details, s)
	}

	// Footer totals are recomputed from the encoded detail lines so a
	// header/detail mismatch stays detectable downstream.
	var footerTotal int64
	for _, d := range details {
		n, err := strconv.ParseInt(strings.TrimLeft(d[fwOffMontant:fwOffMontant+fwMontantLen], "0 "), 10, 64)
		if err != nil {
			if strings.Trim(d[fwOffMontant:fwOffMontant+fwMontantLen], "0 ") == "" {
				n = 0
			} else {
				return "", fmt.Errorf("re-reading encoded amount: %w", err)
			}
		}
		footerTotal += n
	}

	var batchTotal int64
	for _, v := range b.Virements {
		batchTotal += millimes(v.Montant)
	}

	header := fwTotalsLine(bankCode, dateStr, fwRecHeader, batchTotal, len(details))
	footer := fwTotalsLine(bankCode, dateStr, fwRecFooter, footerTotal, len(details))

	lines := make([]string, 0, len(details)+2)
	lines = append(lines, header)
	lines = append(lines, details...)
	lines = append(lines, footer)
	return strings.Join(lines, "\n"), nil
}

func fwTotalsLine(bankCode, dateStr, recCode string, totalMillimes int64, count int) string {
	var line strings.Builder
	line.WriteString(fwPrefix(bankCode, dateStr, recCode, "00"))
	line.WriteString(padNum(strconv.FormatInt(totalMillimes, 10), fwMontantLen))
	line.WriteString(padNum(strconv.Itoa(count), fwCountLen))
	line.WriteString(strings.Repeat(" ", fwLineLength-fwOffCount-fwCountLen))
	return line.String()
}

// DecodedRecord is one parsed line of a fixed-width file.
type DecodedRecord struct {
	Line    int             `json:"line"`
	Type    string          `json:"type"` // HEADER, DETAIL, FOOTER
	Date    string          `json:"date"`
	Montant decimal.Decimal `json:"montant"`

	// Detail fields.
	RibEmetteur     string `json:"rib_emetteur,omitempty"`
	RibBeneficiaire string `json:"rib_beneficiaire,omitempty"`
	NomComplet      string `json:"nom_complet,omitempty"`
	Nom             string `json:"nom,omitempty"`
	Prenom          string `json:"prenom,omitempty"`
	// A single full-name field cannot always be re-split into first and
	// last name; when the split is a guess this flag is set and callers
	// must not treat Nom/Prenom as authoritative.
	AmbiguousSplit bool   `json:"ambiguous_split,omitempty"`
	Matricule      string `json:"matricule,omitempty"`
	Societe        string `json:"societe,omitempty"`

	// Header/footer field.
	Count int `json:"count,omitempty"`
}

// DecodeLineError reports one line that failed positional extraction.
type DecodeLineError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// DecodeResult carries parsed records alongside per-line errors; a bad
// line never aborts the rest of the decode.
type DecodeResult struct {
	Records []DecodedRecord   `json:"records"`
	Errors  []DecodeLineError `json:"errors"`
}

// IsFixedWidth reports whether content looks like a generated
// fixed-width file: the first line carries the literal sens+code-valeur
// prefix and is long enough to hold the totals fields.
func IsFixedWidth(content string) bool {
	line, _, _ := strings.Cut(content, "\n")
	line = strings.TrimRight(line, "\r")
	return strings.HasPrefix(line, "110") && len(line) >= fwOffCount+3
}

// Decode parses a fixed-width file back into records. It is the
// left-inverse of encodeFixedWidth up to the name-split ambiguity.
func Decode(content string) (*DecodeResult, error) {
	if !IsFixedWidth(content) {
		return nil, ErrNotFixedWidth
	}

	res := &DecodeResult{}
	for i, raw := range strings.Split(content, "\n") {
		lineNum := i + 1
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := decodeLine(line, lineNum)
		if err != nil {
			res.Errors = append(res.Errors, DecodeLineError{Line: lineNum, Reason: err.Error()})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func decodeLine(line string, lineNum int) (DecodedRecord, error) {
	if len(line) < fwOffMontant+fwMontantLen {
		return DecodedRecord{}, fmt.Errorf("line too short (%d chars)", len(line))
	}

	recCode := line[fwOffRecCode : fwOffRecCode+2]
	montantStr := strings.TrimLeft(line[fwOffMontant:fwOffMontant+fwMontantLen], "0")
	var montant int64
	if montantStr != "" {
		n, err := strconv.ParseInt(montantStr, 10, 64)
		if err != nil {
			return DecodedRecord{}, fmt.Errorf("unparseable amount %q", montantStr)
		}
		montant = n
	}

	rec := DecodedRecord{
		Line:    lineNum,
		Date:    line[fwOffDate : fwOffDate+8],
		Montant: fromMillimes(montant),
	}

	switch recCode {
	case fwRecHeader, fwRecFooter:
		rec.Type = "HEADER"
		if recCode == fwRecFooter {
			rec.Type = "FOOTER"
		}
		if len(line) < fwOffCount+fwCountLen {
			return DecodedRecord{}, fmt.Errorf("totals line too short (%d chars)", len(line))
		}
		countStr := strings.TrimLeft(line[fwOffCount:fwOffCount+fwCountLen], "0")
		if countStr != "" {
			n, err := strconv.Atoi(countStr)
			if err != nil {
				return DecodedRecord{}, fmt.Errorf("unparseable count %q", countStr)
			}
			rec.Count = n
		}
	case fwRecDetail:
		rec.Type = "DETAIL"
		if len(line) < fwOffFiller {
			return DecodedRecord{}, fmt.Errorf("detail line too short (%d chars)", len(line))
		}
		rec.RibEmetteur = line[fwOffRibEmetteur : fwOffRibEmetteur+20]
		rec.RibBeneficiaire = line[fwOffRibBenef : fwOffRibBenef+20]
		rec.NomComplet = strings.TrimRight(line[fwOffNom:fwOffNom+30], " ")
		rec.Nom, rec.Prenom, rec.AmbiguousSplit = splitNomComplet(rec.NomComplet)
		rec.Matricule = strings.TrimPrefix(
			strings.TrimRight(line[fwOffReference:fwOffReference+20], " "), "MAT")
		rec.Societe = strings.TrimRight(line[fwOffSociete:fwOffSociete+35], " ")
		if !ValidRib(rec.RibBeneficiaire) {
			return DecodedRecord{}, fmt.Errorf("invalid beneficiary RIB %q", rec.RibBeneficiaire)
		}
	default:
		return DecodedRecord{}, fmt.Errorf("unknown record code %q", recCode)
	}

	return rec, nil
}

// splitNomComplet re-splits an encoded full name. Only a clean two-token
// name splits unambiguously.
func splitNomComplet(full string) (nom, prenom string, ambiguous bool) {
	parts := strings.Fields(full)
	if len(parts) == 2 {
		return parts[0], parts[1], false
	}
	return strings.TrimSpace(full), "", true
}
