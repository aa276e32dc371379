package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
)

func TestParseCSVSniffsSeparator(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"comma", "matricule,montant\nM001,50.500\nM002,10.000"},
		{"semicolon", "matricule;montant\nM001;50,500\nM002;10,000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := ParseCSV(strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			rows, errs, err := ExtractRows(grid)
			if err != nil {
				t.Fatalf("ExtractRows: %v", err)
			}
			if len(errs) != 0 || len(rows) != 2 {
				t.Fatalf("rows=%v errs=%v", rows, errs)
			}
			if rows[0].Matricule != "M001" || !rows[0].Montant.Equal(decimal.New(50500, -3)) {
				t.Errorf("row = %+v", rows[0])
			}
		})
	}
}

func TestExtractFromFileFixedWidth(t *testing.T) {
	content, err := bankformat.Encode(
		fixedProfile(t),
		bankformat.Batch{
			Reference:    "VIR-20250115-0001",
			DateCreation: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			DonneurNom:   "ARS TUNISIE",
			DonneurRIB:   "10006035001234567890",
			Virements: []bankformat.Virement{
				{Matricule: "M001", Nom: "BEN", Prenom: "SALAH", RIB: "04125896325874125896", Montant: decimal.New(70500, -3)},
				{Matricule: "M002", Nom: "TRABELSI", Prenom: "AMEL", RIB: "10006035009876543210", Montant: decimal.New(10000, -3)},
			},
		})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Extension is ignored once the fixed-width prefix is recognized.
	rows, errs, err := ExtractFromFile("reimport.csv", []byte(content))
	if err != nil {
		t.Fatalf("ExtractFromFile: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("row errors: %+v", errs)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Matricule != "M001" || !rows[0].Montant.Equal(decimal.New(70500, -3)) {
		t.Errorf("row = %+v", rows[0])
	}
}

func fixedProfile(t *testing.T) bankformat.Profile {
	t.Helper()
	p, ok := bankformat.NewRegistry().GetProfile("BTK_COMAR")
	if !ok {
		t.Fatal("BTK_COMAR profile missing")
	}
	return p
}

func TestExtractFromFileCSV(t *testing.T) {
	rows, errs, err := ExtractFromFile("bordereau.csv", []byte("matricule;montant\nM001;70,500"))
	if err != nil {
		t.Fatalf("ExtractFromFile: %v", err)
	}
	if len(errs) != 0 || len(rows) != 1 {
		t.Fatalf("rows=%v errs=%v", rows, errs)
	}
}
