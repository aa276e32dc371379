// Package ingestion turns uploaded payment files into validated,
// aggregated batches ready to become an ordre de virement.
package ingestion

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawRow is one successfully extracted input row.
type RawRow struct {
	Num       int             `json:"num"`
	Matricule string          `json:"matricule"`
	Montant   decimal.Decimal `json:"montant"`
}

// RowError reports one input row that could not be extracted. Row
// numbers are 1-based and count the header row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Column aliases accepted in header rows, compared case-insensitively
// after trimming.
var (
	matriculeAliases = []string{"matricule", "mat", "matricule adherent", "matricule_adherent", "code adherent"}
	montantAliases   = []string{"montant", "amount", "montant net", "montant_net", "montant a payer"}
)

func matchAlias(header string, aliases []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, a := range aliases {
		if h == a {
			return true
		}
	}
	return false
}

// ExtractRows locates the matricule and montant columns from the header
// row, then extracts every data row. Malformed rows become RowError
// entries; only a missing column aborts the extraction.
func ExtractRows(rows [][]string) ([]RawRow, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty input: no header row")
	}

	matIdx, mntIdx := -1, -1
	for i, h := range rows[0] {
		switch {
		case matIdx < 0 && matchAlias(h, matriculeAliases):
			matIdx = i
		case mntIdx < 0 && matchAlias(h, montantAliases):
			mntIdx = i
		}
	}
	if matIdx < 0 {
		return nil, nil, fmt.Errorf("no matricule column found in header %v", rows[0])
	}
	if mntIdx < 0 {
		return nil, nil, fmt.Errorf("no montant column found in header %v", rows[0])
	}

	var out []RawRow
	var errs []RowError
	for i, row := range rows[1:] {
		num := i + 2
		if isBlankRow(row) {
			continue
		}
		if len(row) <= matIdx || len(row) <= mntIdx {
			errs = append(errs, RowError{Row: num, Reason: "row has too few columns"})
			continue
		}
		matricule := strings.TrimSpace(row[matIdx])
		if matricule == "" {
			errs = append(errs, RowError{Row: num, Reason: "matricule is empty"})
			continue
		}
		montant, err := ParseMontant(row[mntIdx])
		if err != nil {
			errs = append(errs, RowError{Row: num, Reason: err.Error()})
			continue
		}
		if !montant.IsPositive() {
			errs = append(errs, RowError{Row: num, Reason: fmt.Sprintf("non-positive montant %s", montant)})
			continue
		}
		out = append(out, RawRow{Num: num, Matricule: matricule, Montant: montant})
	}
	return out, errs, nil
}

// ParseMontant accepts both dot and comma decimal separators.
func ParseMontant(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("montant is empty")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable montant %q", strings.TrimSpace(s))
	}
	return d, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
