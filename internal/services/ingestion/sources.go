package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/khiari-mohamed/ARS-sub010/internal/services/bankformat"
)

// ParseCSV reads all rows, sniffing the separator from the header line.
// Exports from local tooling use ';' as often as ','.
func ParseCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	firstLine, _, _ := strings.Cut(string(data), "\n")
	sep := ','
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		sep = ';'
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return rows, nil
}

// ParseXLSX reads the first sheet of an Excel workbook.
func ParseXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// ExtractFromFile turns uploaded file content into raw rows. Excel and
// CSV go through column extraction; a generated fixed-width file is
// detected by its line prefix and decoded back into rows instead.
func ExtractFromFile(filename string, content []byte) ([]RawRow, []RowError, error) {
	if bankformat.IsFixedWidth(string(content)) {
		return rowsFromFixedWidth(string(content))
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		rows, err = ParseXLSX(bytes.NewReader(content))
	default:
		rows, err = ParseCSV(bytes.NewReader(content))
	}
	if err != nil {
		return nil, nil, err
	}
	return ExtractRows(rows)
}

// rowsFromFixedWidth re-ingests a previously generated file: detail
// records become raw rows, per-line decode failures become row errors.
func rowsFromFixedWidth(content string) ([]RawRow, []RowError, error) {
	res, err := bankformat.Decode(content)
	if err != nil {
		return nil, nil, err
	}

	var out []RawRow
	var errs []RowError
	for _, rec := range res.Records {
		if rec.Type != "DETAIL" {
			continue
		}
		if rec.Matricule == "" {
			errs = append(errs, RowError{Row: rec.Line, Reason: "detail record carries no matricule"})
			continue
		}
		if !rec.Montant.IsPositive() {
			errs = append(errs, RowError{Row: rec.Line, Reason: "non-positive montant " + rec.Montant.String()})
			continue
		}
		out = append(out, RawRow{Num: rec.Line, Matricule: rec.Matricule, Montant: rec.Montant})
	}
	for _, e := range res.Errors {
		errs = append(errs, RowError{Row: e.Line, Reason: e.Reason})
	}
	return out, errs, nil
}
