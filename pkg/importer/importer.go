// Package importer reads stock rows from pasted spreadsheet text or an
// uploaded workbook. Columns are, in order: code, name, quantity,
// purchase price, sell price. Empty numeric cells count as zero.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sangkips/repairshop-api/pkg/money"
	"github.com/xuri/excelize/v2"
)

// Row is one parsed stock line. Prices are in cents.
type Row struct {
	Line          int    `json:"line"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	PurchasePrice int64  `json:"-"`
	SellPrice     int64  `json:"-"`
}

// RowError reports why a line was skipped.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Result holds the rows that parsed and the lines that did not.
type Result struct {
	Rows   []Row      `json:"rows"`
	Errors []RowError `json:"errors"`
}

// ErrEmpty is returned when the input holds no data rows.
var ErrEmpty = errors.New("import contains no rows")

// ParseTSV parses tab-delimited text as copied from a spreadsheet.
func ParseTSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// csv.Reader skips blank lines, so line numbers come from FieldPos.
	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tsv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return parseRecords(records)
}

// ParseXLSX parses the first sheet of an .xlsx workbook.
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	records := make([]record, len(rows))
	for i, fields := range rows {
		records[i] = record{line: i + 1, fields: fields}
	}
	return parseRecords(records)
}

type record struct {
	line   int
	fields []string
}

func parseRecords(records []record) (*Result, error) {
	res := &Result{}
	first := true
	for _, r := range records {
		line, rec := r.line, r.fields
		if blank(rec) {
			continue
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}

		row, err := parseRow(line, rec)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Message: err.Error()})
			continue
		}
		res.Rows = append(res.Rows, row)
	}

	if len(res.Rows) == 0 && len(res.Errors) == 0 {
		return nil, ErrEmpty
	}
	return res, nil
}

func parseRow(line int, rec []string) (Row, error) {
	row := Row{
		Line: line,
		Code: cell(rec, 0),
		Name: cell(rec, 1),
	}
	if row.Name == "" {
		return row, errors.New("name is required")
	}

	qty := cell(rec, 2)
	if qty != "" {
		n, err := strconv.Atoi(stripThousands(qty))
		if err != nil {
			return row, fmt.Errorf("invalid quantity %q", qty)
		}
		if n < 0 {
			return row, errors.New("quantity cannot be negative")
		}
		row.Quantity = n
	}

	var err error
	if row.PurchasePrice, err = price(cell(rec, 3), "purchase price"); err != nil {
		return row, err
	}
	if row.SellPrice, err = price(cell(rec, 4), "sell price"); err != nil {
		return row, err
	}
	return row, nil
}

func price(s, field string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	cents, err := money.FromString(stripThousands(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, s)
	}
	if cents < 0 {
		return 0, fmt.Errorf("%s cannot be negative", field)
	}
	return cents, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// isHeader treats a first line whose quantity column is not a number as
// column titles.
func isHeader(rec []string) bool {
	q := cell(rec, 2)
	if q == "" {
		return strings.EqualFold(cell(rec, 1), "name")
	}
	_, err := strconv.Atoi(stripThousands(q))
	return err != nil
}

func stripThousands(s string) string {
	return strings.NewReplacer(",", "", " ", "").Replace(s)
}
