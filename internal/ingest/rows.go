// Package ingest turns statement exports into transactions and sessions.
// Supported inputs are extraction-row JSON, CSV, and OFX/QFX files.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hollisfi/ledgerlens/internal/model"
)

// Row is one extracted statement line. Type is "credit" or "debit"; when
// omitted, the amount sign decides (negative means debit). Amounts are
// stored unsigned either way.
type Row struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Type        string  `json:"type,omitempty"`
	Category    string  `json:"category,omitempty"`
	Amount      float64 `json:"amount"`
}

// rowDocument also accepts the wrapped form some extraction tools emit.
type rowDocument struct {
	BankName     string `json:"bank_name,omitempty"`
	Transactions []Row  `json:"transactions"`
}

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02T15:04:05Z07:00",
	"Jan 2, 2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (r *Row) transaction() (model.Transaction, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return model.Transaction{}, err
	}
	if strings.TrimSpace(r.Description) == "" {
		return model.Transaction{}, fmt.Errorf("row dated %s has no description", r.Date)
	}

	txn := model.Transaction{
		Date:        date,
		Description: strings.TrimSpace(r.Description),
		Amount:      r.Amount,
		Category:    strings.TrimSpace(r.Category),
	}

	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case "credit":
		txn.Type = model.TypeCredit
	case "debit":
		txn.Type = model.TypeDebit
	case "":
		txn.Type = model.TypeCredit
		if r.Amount < 0 {
			txn.Type = model.TypeDebit
		}
	default:
		return model.Transaction{}, fmt.Errorf("row dated %s has unknown type %q", r.Date, r.Type)
	}

	if txn.Amount < 0 {
		txn.Amount = -txn.Amount
	}
	return txn, nil
}

// ReadJSON parses extraction rows from either a bare JSON array or a
// document with a "transactions" key. The returned bank name is empty for
// the bare-array form.
func ReadJSON(r io.Reader) ([]model.Transaction, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading JSON input: %w", err)
	}

	var rows []Row
	var bankName string
	trimmed := strings.TrimLeft(string(data), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, "", fmt.Errorf("parsing JSON rows: %w", err)
		}
	} else {
		var doc rowDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, "", fmt.Errorf("parsing JSON document: %w", err)
		}
		rows = doc.Transactions
		bankName = doc.BankName
	}

	txns, err := convertRows(rows)
	return txns, bankName, err
}

// ReadCSV parses extraction rows from CSV. The header row names the
// columns; date, description, and amount are required, type and category
// optional. Amounts tolerate currency symbols, thousands separators, and
// accounting-style parentheses for negatives.
func ReadCSV(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV header missing %q column", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		amount, err := parseAmount(field(record, "amount"))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		rows = append(rows, Row{
			Date:        field(record, "date"),
			Description: field(record, "description"),
			Amount:      amount,
			Type:        field(record, "type"),
			Category:    field(record, "category"),
		})
	}
	return convertRows(rows)
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	if negative {
		v = -v
	}
	return v, nil
}

func convertRows(rows []Row) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(rows))
	for i := range rows {
		txn, err := rows[i].transaction()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}
