// Package bankformat holds the catalogue of bank output formats and the
// codec that encodes validated batches into them (and decodes fixed-width
// files back into records).
package bankformat

import (
	"fmt"
	"strings"
)

// Family is the layout family a profile belongs to. Encoding switches
// exhaustively over this tag; adding a family means adding a case.
type Family int

const (
	FamilyFixedWidth Family = iota
	FamilyPipe
	FamilySemicolon
)

// Layout types as exposed in profile specs.
const (
	LayoutFixed     = "FIXED"
	LayoutDelimited = "DELIMITED"
)

// Amount encodings.
const (
	AmountMillimes = "MILLIMES" // integer minor units, value x 1000
	AmountDecimal3 = "DECIMAL3" // decimal string with 3 fractional digits
)

// FieldSpec describes one positional or delimited field.
type FieldSpec struct {
	Name   string
	Length int
	Pad    byte // '0' or ' '
	Left   bool // left-justified (text); numeric fields are right-justified
}

// LayoutSpec is the full description of a profile's line layouts.
type LayoutSpec struct {
	Type         string
	Separator    string // delimited layouts only
	LineLength   int    // fixed layouts only
	DateLayout   string // Go time layout for encoded dates
	AmountFormat string
	Header       []FieldSpec
	Detail       []FieldSpec
	Footer       []FieldSpec
}

// Profile is one bank's output format.
type Profile struct {
	ID       string
	Banque   string
	BankCode string
	Family   Family
	Layout   LayoutSpec
}

// Registry is an immutable catalogue of profiles, built at startup.
type Registry struct {
	profiles []Profile
	byID     map[string]Profile
}

// NewRegistry returns the registry with the supported bank profiles.
func NewRegistry() *Registry {
	profiles := []Profile{
		{
			ID:       "BTK_COMAR",
			Banque:   "BTK",
			BankCode: "10",
			Family:   FamilyFixedWidth,
			Layout:   fixedWidthLayout(),
		},
		{
			ID:       "BTK_ASTREE",
			Banque:   "BTK",
			BankCode: "10",
			Family:   FamilyFixedWidth,
			Layout:   fixedWidthLayout(),
		},
		{
			ID:       "ATTIJARI",
			Banque:   "Attijari Bank",
			BankCode: "04",
			Family:   FamilyFixedWidth,
			Layout:   fixedWidthLayout(),
		},
		{
			ID:       "BANQUE_POPULAIRE",
			Banque:   "Banque Populaire",
			BankCode: "12",
			Family:   FamilyPipe,
			Layout: LayoutSpec{
				Type:         LayoutDelimited,
				Separator:    "|",
				DateLayout:   "02012006",
				AmountFormat: AmountDecimal3,
				Header:       pipeHeaderFields(),
				Detail:       pipeDetailFields(),
				Footer:       pipeFooterFields(),
			},
		},
		{
			ID:       "STB",
			Banque:   "Société Tunisienne de Banque",
			BankCode: "05",
			Family:   FamilySemicolon,
			Layout: LayoutSpec{
				Type:         LayoutDelimited,
				Separator:    ";",
				DateLayout:   "02/01/2006",
				AmountFormat: AmountDecimal3,
				Header:       stbHeaderFields(),
				Detail:       stbDetailFields(),
				Footer:       stbFooterFields(),
			},
		},
	}

	byID := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return &Registry{profiles: profiles, byID: byID}
}

// ListProfiles returns the catalogue in declaration order.
func (r *Registry) ListProfiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// GetProfile looks a profile up by id.
func (r *Registry) GetProfile(id string) (Profile, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// ProfileForDonneur selects the profile for an originator. Attijari is
// auto-detected from a RIB starting with its bank code, matching the
// bank's own routing rule.
func (r *Registry) ProfileForDonneur(formatType, rib string) Profile {
	if strings.HasPrefix(rib, "04") {
		return r.byID["ATTIJARI"]
	}
	if p, ok := r.byID[formatType]; ok {
		return p
	}
	return r.byID["BTK_COMAR"]
}

// ValidateSpec checks a layout spec for structural completeness.
// It returns the full list of problems rather than the first one.
func ValidateSpec(layoutType string, spec LayoutSpec) []string {
	var errs []string

	switch layoutType {
	case LayoutFixed, LayoutDelimited:
	default:
		errs = append(errs, fmt.Sprintf("unknown layout type %q", layoutType))
	}

	if len(spec.Header) == 0 {
		errs = append(errs, "header field spec is required")
	}
	if len(spec.Detail) == 0 {
		errs = append(errs, "detail field spec is required")
	}
	if spec.DateLayout == "" {
		errs = append(errs, "date layout is required")
	}
	if spec.AmountFormat != AmountMillimes && spec.AmountFormat != AmountDecimal3 {
		errs = append(errs, fmt.Sprintf("unknown amount format %q", spec.AmountFormat))
	}

	if layoutType == LayoutFixed {
		if spec.LineLength <= 0 {
			errs = append(errs, "fixed layouts require an exact total line length")
		} else {
			for _, section := range []struct {
				name   string
				fields []FieldSpec
			}{{"header", spec.Header}, {"detail", spec.Detail}} {
				total := 0
				for _, f := range section.fields {
					total += f.Length
				}
				if total != spec.LineLength {
					errs = append(errs, fmt.Sprintf(
						"%s fields total %d chars, expected %d", section.name, total, spec.LineLength))
				}
			}
		}
	}
	if layoutType == LayoutDelimited && spec.Separator == "" {
		errs = append(errs, "delimited layouts require a field separator")
	}

	return errs
}

func pipeHeaderFields() []FieldSpec {
	return []FieldSpec{
		{Name: "code_enreg", Length: 2},
		{Name: "reference", Length: 16, Left: true},
		{Name: "date", Length: 8},
		{Name: "rib_emetteur", Length: 20},
		{Name: "nom_emetteur", Length: 35, Left: true},
		{Name: "devise", Length: 3},
		{Name: "nb_virements", Length: 5, Pad: '0'},
	}
}

func pipeDetailFields() []FieldSpec {
	return []FieldSpec{
		{Name: "code_enreg", Length: 2},
		{Name: "numero_ordre", Length: 5, Pad: '0'},
		{Name: "rib_beneficiaire", Length: 20},
		{Name: "nom_beneficiaire", Length: 35, Left: true},
		{Name: "montant", Length: 15},
		{Name: "devise", Length: 3},
		{Name: "motif", Length: 140, Left: true},
		{Name: "date_valeur", Length: 8},
	}
}

func pipeFooterFields() []FieldSpec {
	return []FieldSpec{
		{Name: "code_enreg", Length: 2},
		{Name: "nb_operations", Length: 5, Pad: '0'},
		{Name: "montant_total", Length: 15},
		{Name: "devise", Length: 3},
	}
}

func stbHeaderFields() []FieldSpec {
	return []FieldSpec{
		{Name: "TYPE_ENREG", Length: 6},
		{Name: "REF_LOT", Length: 20, Left: true},
		{Name: "DATE_CREATION", Length: 10},
		{Name: "RIB_EMETTEUR", Length: 20},
		{Name: "NOM_EMETTEUR", Length: 70, Left: true},
		{Name: "NB_OPERATIONS", Length: 6},
		{Name: "MONTANT_TOTAL", Length: 15},
		{Name: "DEVISE", Length: 3},
	}
}

func stbDetailFields() []FieldSpec {
	return []FieldSpec{
		{Name: "TYPE_ENREG", Length: 6},
		{Name: "NUM_ORDRE", Length: 6},
		{Name: "RIB_BENEFICIAIRE", Length: 20},
		{Name: "NOM_BENEFICIAIRE", Length: 70, Left: true},
		{Name: "MONTANT", Length: 15},
		{Name: "DEVISE", Length: 3},
		{Name: "MOTIF_VIREMENT", Length: 140, Left: true},
		{Name: "DATE_VALEUR", Length: 10},
		{Name: "MATRICULE", Length: 20, Left: true},
	}
}

func stbFooterFields() []FieldSpec {
	return []FieldSpec{
		{Name: "TYPE_ENREG", Length: 6},
		{Name: "NB_OPERATIONS", Length: 6},
		{Name: "MONTANT_TOTAL", Length: 15},
		{Name: "DEVISE", Length: 3},
		{Name: "REF_LOT", Length: 20, Left: true},
		{Name: "DATE_VALEUR", Length: 10},
	}
}
