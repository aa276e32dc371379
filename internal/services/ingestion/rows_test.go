package ingestion

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractRows(t *testing.T) {
	rows, errs, err := ExtractRows([][]string{
		{"Matricule", "Nom", "Montant"},
		{"M001", "BEN SALAH", "50.500"},
		{"M002", "TRABELSI", "10,000"},
		{"", "", ""},
		{"M003", "GHARBI", "abc"},
		{"", "SANS MATRICULE", "5.000"},
		{"M004", "NEGATIF", "-1.000"},
		{"M005", "ZERO", "0"},
		{"M006", "ZERO VIRGULE", "0,000"},
	})
	if err != nil {
		t.Fatalf("ExtractRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].Matricule != "M001" || !rows[0].Montant.Equal(decimal.New(50500, -3)) {
		t.Errorf("row 1 = %+v", rows[0])
	}
	if rows[1].Matricule != "M002" || !rows[1].Montant.Equal(decimal.New(10000, -3)) {
		t.Errorf("comma decimal not handled: %+v", rows[1])
	}

	if len(errs) != 5 {
		t.Fatalf("got %d row errors, want 5: %+v", len(errs), errs)
	}
	wantRows := []int{5, 6, 7, 8, 9}
	for i, e := range errs {
		if e.Row != wantRows[i] {
			t.Errorf("error %d on row %d, want %d (%s)", i, e.Row, wantRows[i], e.Reason)
		}
	}
}

func TestExtractRowsHeaderAliases(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"canonical", []string{"matricule", "montant"}},
		{"short and english", []string{"MAT", "Amount"}},
		{"padded", []string{" Matricule ", " Montant Net "}},
		{"underscored", []string{"matricule_adherent", "montant_net"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, errs, err := ExtractRows([][]string{tt.header, {"M001", "1.000"}})
			if err != nil {
				t.Fatalf("ExtractRows: %v", err)
			}
			if len(errs) != 0 || len(rows) != 1 {
				t.Fatalf("rows=%v errs=%v", rows, errs)
			}
		})
	}
}

func TestExtractRowsMissingColumns(t *testing.T) {
	_, _, err := ExtractRows([][]string{{"nom", "prenom"}, {"A", "B"}})
	if err == nil || !strings.Contains(err.Error(), "matricule") {
		t.Errorf("want missing-matricule error, got %v", err)
	}
	_, _, err = ExtractRows([][]string{{"matricule", "nom"}, {"M001", "B"}})
	if err == nil || !strings.Contains(err.Error(), "montant") {
		t.Errorf("want missing-montant error, got %v", err)
	}
	if _, _, err := ExtractRows(nil); err == nil {
		t.Error("want error on empty input")
	}
}

func TestParseMontant(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"70.500", "70.500", false},
		{"70,500", "70.500", false},
		{" 10 ", "10.000", false},
		{"0", "0.000", false},
		{"", "", true},
		{"dix", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMontant(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMontant(%q): want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMontant(%q): %v", tt.in, err)
			continue
		}
		if got.StringFixed(3) != tt.want {
			t.Errorf("ParseMontant(%q) = %s, want %s", tt.in, got.StringFixed(3), tt.want)
		}
	}
}
