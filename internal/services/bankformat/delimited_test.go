package bankformat

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEncodePipe(t *testing.T) {
	reg := NewRegistry()
	p, _ := reg.GetProfile("BANQUE_POPULAIRE")

	content, err := Encode(p, testBatch(
		Virement{Matricule: "M001", Nom: "BEN", Prenom: "SALAH", RIB: "04125896325874125896", Montant: decimal.New(70500, -3)},
		Virement{Matricule: "M002", Nom: "TRABELSI", Prenom: "AMEL", RIB: "10006035009876543210", Montant: decimal.New(10000, -3)},
	))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	lines := strings.Split(content, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 2 details + footer", len(lines))
	}

	header := strings.Split(lines[0], "|")
	if header[0] != "01" {
		t.Errorf("header code = %q", header[0])
	}
	if header[2] != "15012025" {
		t.Errorf("header date = %q, want DDMMYYYY", header[2])
	}
	if header[6] != "00002" {
		t.Errorf("header count = %q, want 00002", header[6])
	}

	d1 := strings.Split(lines[1], "|")
	if d1[0] != "02" || d1[1] != "00001" {
		t.Errorf("first detail prefix = %q %q", d1[0], d1[1])
	}
	if d1[2] != "04125896325874125896" {
		t.Errorf("first detail RIB = %q", d1[2])
	}
	if d1[4] != "70.500" {
		t.Errorf("first detail montant = %q, want 70.500", d1[4])
	}
	if !strings.HasPrefix(d1[6], "REMB MAT:M001") {
		t.Errorf("first detail motif = %q", d1[6])
	}

	footer := strings.Split(lines[3], "|")
	if footer[0] != "03" {
		t.Errorf("footer code = %q", footer[0])
	}
	if footer[1] != "00002" {
		t.Errorf("footer count = %q", footer[1])
	}
	if footer[2] != "80.500" {
		t.Errorf("footer total = %q, want 80.500", footer[2])
	}
}

func TestEncodeSemicolon(t *testing.T) {
	reg := NewRegistry()
	p, _ := reg.GetProfile("STB")

	content, err := Encode(p, testBatch(
		Virement{Matricule: "M001", Nom: "BEN", Prenom: "SALAH", RIB: "04125896325874125896", Montant: decimal.New(70500, -3)},
	))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	lines := strings.Split(content, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want header columns + HEADER + detail columns + DETAIL + FOOTER", len(lines))
	}
	if !strings.HasPrefix(lines[0], "TYPE_ENREG;REF_LOT;") {
		t.Errorf("header column row = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "HEADER;VIR-20250115-0001;15/01/2025;") {
		t.Errorf("header = %q", lines[1])
	}
	if lines[2] != "TYPE_ENREG;NUM_ORDRE;RIB_BENEFICIAIRE;NOM_BENEFICIAIRE;MONTANT;DEVISE;MOTIF_VIREMENT;DATE_VALEUR;MATRICULE" {
		t.Errorf("detail column row = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "DETAIL;1;04125896325874125896;") {
		t.Errorf("detail = %q", lines[3])
	}
	if !strings.Contains(lines[3], `"BEN SALAH"`) {
		t.Errorf("name with whitespace not quoted: %q", lines[3])
	}
	if !strings.Contains(lines[3], ";70.500;TND;") {
		t.Errorf("montant missing from detail: %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "FOOTER;1;70.500;TND;") {
		t.Errorf("footer = %q", lines[4])
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PLAIN", "PLAIN"},
		{"HAS SPACE", `"HAS SPACE"`},
		{"HAS;SEP", `"HAS;SEP"`},
		{`SAYS "HI"`, `"SAYS ""HI"""`},
	}
	for _, tt := range tests {
		if got := quoteIfNeeded(tt.in, ";"); got != tt.want {
			t.Errorf("quoteIfNeeded(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDelimitedRejectsBadRib(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"BANQUE_POPULAIRE", "STB"} {
		p, _ := reg.GetProfile(id)
		_, err := Encode(p, testBatch(Virement{Nom: "X", RIB: "short", Montant: decimal.New(1000, -3)}))
		if err == nil {
			t.Errorf("%s: expected error for invalid RIB", id)
		}
	}
}
