package bankformat

import (
	"strings"
	"testing"
)

func TestProfileForDonneur(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name       string
		formatType string
		rib        string
		want       string
	}{
		{"attijari rib wins over declared format", "BTK_COMAR", "04125896325874125896", "ATTIJARI"},
		{"declared format", "BANQUE_POPULAIRE", "12034056007812345678", "BANQUE_POPULAIRE"},
		{"declared semicolon format", "STB", "05034056007812345678", "STB"},
		{"unknown format falls back", "SWIFT_MT101", "10006035001234567890", "BTK_COMAR"},
		{"empty format falls back", "", "10006035001234567890", "BTK_COMAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.ProfileForDonneur(tt.formatType, tt.rib); got.ID != tt.want {
				t.Errorf("got %s, want %s", got.ID, tt.want)
			}
		})
	}
}

func TestListProfilesIsACopy(t *testing.T) {
	reg := NewRegistry()
	list := reg.ListProfiles()
	if len(list) == 0 {
		t.Fatal("empty catalogue")
	}
	list[0].ID = "MUTATED"
	if again := reg.ListProfiles(); again[0].ID == "MUTATED" {
		t.Error("ListProfiles exposes internal state")
	}
}

func TestRegistryProfilesAreStructurallyValid(t *testing.T) {
	for _, p := range NewRegistry().ListProfiles() {
		if errs := ValidateSpec(p.Layout.Type, p.Layout); len(errs) != 0 {
			t.Errorf("profile %s: %v", p.ID, errs)
		}
	}
}

func TestValidateSpecCollectsAllProblems(t *testing.T) {
	errs := ValidateSpec("XML", LayoutSpec{})
	wants := []string{
		"unknown layout type",
		"header field spec is required",
		"detail field spec is required",
		"date layout is required",
		"unknown amount format",
	}
	for _, want := range wants {
		found := false
		for _, e := range errs {
			if strings.Contains(e, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing problem %q in %v", want, errs)
		}
	}
}

func TestValidateSpecFixedLengths(t *testing.T) {
	spec := fixedWidthLayout()
	spec.Detail = spec.Detail[:len(spec.Detail)-1] // drop the filler
	errs := ValidateSpec(LayoutFixed, spec)
	if len(errs) != 1 || !strings.Contains(errs[0], "detail fields total") {
		t.Errorf("got %v, want a single detail-length mismatch", errs)
	}
}

func TestValidateSpecDelimitedSeparator(t *testing.T) {
	spec := LayoutSpec{
		Type:         LayoutDelimited,
		DateLayout:   "02/01/2006",
		AmountFormat: AmountDecimal3,
		Header:       stbHeaderFields(),
		Detail:       stbDetailFields(),
	}
	errs := ValidateSpec(LayoutDelimited, spec)
	if len(errs) != 1 || !strings.Contains(errs[0], "separator") {
		t.Errorf("got %v, want a single missing-separator problem", errs)
	}
}
