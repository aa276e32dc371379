package bankformat

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidRib(t *testing.T) {
	tests := []struct {
		rib  string
		want bool
	}{
		{"04125896325874125896", true},
		{"0412589632587412589", false},   // 19 digits
		{"041258963258741258960", false}, // 21 digits
		{"0412589632587412589X", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidRib(tt.rib); got != tt.want {
			t.Errorf("ValidRib(%q) = %v, want %v", tt.rib, got, tt.want)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ben Salah", "BEN SALAH"},
		{"COMAR & CIE", "COMAR  CIE"},
		{"société-générale", "SOCITGNRALE"},
		{"M001", "M001"},
	}
	for _, tt := range tests {
		if got := sanitizeText(tt.in); got != tt.want {
			t.Errorf("sanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPadding(t *testing.T) {
	if got := padText("ABC", 5); got != "ABC  " {
		t.Errorf("padText = %q", got)
	}
	if got := padText("ABCDEF", 4); got != "ABCD" {
		t.Errorf("padText truncation = %q", got)
	}
	if got := padNum("42", 5); got != "00042" {
		t.Errorf("padNum = %q", got)
	}
	if got := padNum("123456", 4); got != "3456" {
		t.Errorf("padNum overflow = %q", got)
	}
}

func TestMillimes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"70.500", 70500},
		{"0.001", 1},
		{"0", 0},
		{"1234.567", 1234567},
	}
	for _, tt := range tests {
		d, _ := decimal.NewFromString(tt.in)
		if got := millimes(d); got != tt.want {
			t.Errorf("millimes(%s) = %d, want %d", tt.in, got, tt.want)
		}
		if !fromMillimes(tt.want).Equal(d) {
			t.Errorf("fromMillimes(%d) = %s, want %s", tt.want, fromMillimes(tt.want), tt.in)
		}
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	if got := FileName("VIR-20250115-0001", at); got != "VIR-20250115-0001_20250115103045.txt" {
		t.Errorf("FileName = %q", got)
	}
}

func TestEncodeDispatch(t *testing.T) {
	reg := NewRegistry()
	b := testBatch(Virement{
		Matricule: "M001", Nom: "BEN", Prenom: "SALAH",
		RIB: "04125896325874125896", Montant: decimal.New(70500, -3),
	})

	for _, id := range []string{"BTK_COMAR", "ATTIJARI", "BANQUE_POPULAIRE", "STB"} {
		p, ok := reg.GetProfile(id)
		if !ok {
			t.Fatalf("profile %s missing", id)
		}
		content, err := Encode(p, b)
		if err != nil {
			t.Errorf("Encode(%s): %v", id, err)
			continue
		}
		if content == "" {
			t.Errorf("Encode(%s) produced empty output", id)
		}
	}
}
