package bankformat

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Pipe-delimited family (Banque Populaire). Free-text fields are
// truncated to their declared maximum but never padded; amounts are
// plain decimal strings with three fractional digits; dates are DDMMYYYY.
func encodePipe(p Profile, b Batch) (string, error) {
	if !ValidRib(b.DonneurRIB) {
		return "", fmt.Errorf("RIB donneur d'ordre must be exactly 20 digits")
	}
	dateStr := b.DateCreation.Format(p.Layout.DateLayout)

	lines := make([]string, 0, len(b.Virements)+2)
	lines = append(lines, strings.Join([]string{
		"01",
		truncate(b.Reference, 16),
		dateStr,
		b.DonneurRIB,
		truncate(b.DonneurNom, 35),
		"TND",
		padNum(fmt.Sprintf("%d", len(b.Virements)), 5),
	}, p.Layout.Separator))

	var encodedAmounts []string
	for i, v := range b.Virements {
		if !ValidRib(v.RIB) {
			return "", fmt.Errorf("RIB bénéficiaire invalide pour %s %s", v.Nom, v.Prenom)
		}
		amt := v.Montant.StringFixed(3)
		encodedAmounts = append(encodedAmounts, amt)
		lines = append(lines, strings.Join([]string{
			"02",
			padNum(fmt.Sprintf("%d", i+1), 5),
			v.RIB,
			truncate(v.Nom+" "+v.Prenom, 35),
			amt,
			"TND",
			truncate("REMB MAT:"+v.Matricule, 140),
			dateStr,
		}, p.Layout.Separator))
	}

	count, total := sumEncoded(encodedAmounts)
	lines = append(lines, strings.Join([]string{
		"03",
		padNum(fmt.Sprintf("%d", count), 5),
		total.StringFixed(3),
		"TND",
	}, p.Layout.Separator))

	return strings.Join(lines, "\n"), nil
}

// Semicolon-delimited family (STB). A named column row precedes the
// header/detail/footer triplet; fields containing the separator or
// whitespace are double-quoted; dates are DD/MM/YYYY.
func encodeSemicolon(p Profile, b Batch) (string, error) {
	if !ValidRib(b.DonneurRIB) {
		return "", fmt.Errorf("RIB donneur d'ordre must be exactly 20 digits")
	}
	sep := p.Layout.Separator
	dateStr := b.DateCreation.Format(p.Layout.DateLayout)

	lines := make([]string, 0, len(b.Virements)+4)
	lines = append(lines, strings.Join([]string{
		"TYPE_ENREG", "REF_LOT", "DATE_CREATION", "RIB_EMETTEUR", "NOM_EMETTEUR",
		"NB_OPERATIONS", "MONTANT_TOTAL", "DEVISE",
	}, sep))

	details := make([]string, 0, len(b.Virements))
	var encodedAmounts []string
	for i, v := range b.Virements {
		if !ValidRib(v.RIB) {
			return "", fmt.Errorf("RIB bénéficiaire invalide pour %s %s", v.Nom, v.Prenom)
		}
		amt := v.Montant.StringFixed(3)
		encodedAmounts = append(encodedAmounts, amt)
		details = append(details, strings.Join([]string{
			"DETAIL",
			fmt.Sprintf("%d", i+1),
			v.RIB,
			quoteIfNeeded(v.Nom+" "+v.Prenom, sep),
			amt,
			"TND",
			quoteIfNeeded("REMBOURSEMENT SOINS MAT:"+v.Matricule, sep),
			dateStr,
			v.Matricule,
		}, sep))
	}

	count, total := sumEncoded(encodedAmounts)

	lines = append(lines, strings.Join([]string{
		"HEADER",
		b.Reference,
		dateStr,
		b.DonneurRIB,
		quoteIfNeeded(b.DonneurNom, sep),
		fmt.Sprintf("%d", count),
		total.StringFixed(3),
		"TND",
	}, sep))
	lines = append(lines, strings.Join([]string{
		"TYPE_ENREG", "NUM_ORDRE", "RIB_BENEFICIAIRE", "NOM_BENEFICIAIRE",
		"MONTANT", "DEVISE", "MOTIF_VIREMENT", "DATE_VALEUR", "MATRICULE",
	}, sep))
	lines = append(lines, details...)
	lines = append(lines, strings.Join([]string{
		"FOOTER",
		fmt.Sprintf("%d", count),
		total.StringFixed(3),
		"TND",
		quoteIfNeeded("LOT "+b.Reference, sep),
		dateStr,
	}, sep))

	return strings.Join(lines, "\n"), nil
}

// sumEncoded re-reads the amount strings exactly as written to the
// detail lines, so footer totals come from the output rather than the
// batch and a mismatch stays detectable downstream.
func sumEncoded(amounts []string) (int, decimal.Decimal) {
	total := decimal.Zero
	count := 0
	for _, s := range amounts {
		amt, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		total = total.Add(amt)
		count++
	}
	return count, total
}

// quoteIfNeeded wraps a field in double quotes when it contains the
// separator or any whitespace.
func quoteIfNeeded(s, sep string) string {
	if strings.Contains(s, sep) || strings.ContainsAny(s, " \t") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
