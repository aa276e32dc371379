package bankformat

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Virement is one beneficiary line to encode. Callers pass VALID lines only.
type Virement struct {
	Matricule string
	Nom       string
	Prenom    string
	Societe   string
	RIB       string
	Montant   decimal.Decimal
}

// Batch is the encode input: a validated batch plus its originator.
type Batch struct {
	Reference    string
	DateCreation time.Time
	DonneurNom   string
	DonneurRIB   string
	Virements    []Virement
}

// Encode renders the batch in the profile's format. The switch over the
// family tag is exhaustive; a new family must add its case here.
func Encode(p Profile, b Batch) (string, error) {
	switch p.Family {
	case FamilyFixedWidth:
		return encodeFixedWidth(b)
	case FamilyPipe:
		return encodePipe(p, b)
	case FamilySemicolon:
		return encodeSemicolon(p, b)
	}
	return "", fmt.Errorf("unsupported format family %d", p.Family)
}

// FileName builds the output file name embedding the batch reference and
// a generation timestamp.
func FileName(reference string, at time.Time) string {
	return fmt.Sprintf("%s_%s.txt", reference, at.Format("20060102150405"))
}

var ribPattern = regexp.MustCompile(`^\d{20}$`)

// ValidRib reports whether s is a well-formed 20-digit RIB.
func ValidRib(s string) bool {
	return ribPattern.MatchString(s)
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9 ]`)

// sanitizeText uppercases and strips characters the bank formats reject.
func sanitizeText(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}

// padText left-justifies and space-pads to width, truncating overflow.
func padText(s string, width int) string {
	if len(s) > width {
		s = s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// padNum zero-pads a numeric string to width, keeping the rightmost
// digits if it overflows.
func padNum(s string, width int) string {
	if len(s) > width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

// truncate caps a free-text field without padding, for delimited formats.
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// millimes converts a currency amount to integer minor units (1/1000).
func millimes(d decimal.Decimal) int64 {
	return d.Shift(3).Round(0).IntPart()
}

// fromMillimes recovers the decimal amount from integer minor units.
func fromMillimes(n int64) decimal.Decimal {
	return decimal.New(n, -3)
}
