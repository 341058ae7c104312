package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Header is the CSV header of a journal export.
const Header = "line_id,transaction_id,date,account_id,description,debit,credit"

const (
	numFields = 7
	colLineID = 0
	colTxnID  = 1
	colDate   = 2
	colAcctID = 3
	colDesc   = 4
	colDebit  = 5
	colCredit = 6
)

// Export writes the lines matching f as CSV.
func (p *Poster) Export(ctx context.Context, w io.Writer, f store.LineFilter) error {
	lines, err := p.Lines(ctx, f)
	if err != nil {
		return err
	}
	return WriteLines(w, lines)
}

// ReadLines reads journal lines from an export.
func ReadLines(r io.Reader) ([]model.JournalLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var lines []model.JournalLine
	for i, rec := range records[1:] {
		l, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// WriteLines writes lines (including header).
func WriteLines(w io.Writer, lines []model.JournalLine) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, l := range lines {
		if err := cw.Write(MarshalLine(l)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts a line to a CSV row.
func MarshalLine(l model.JournalLine) []string {
	row := make([]string, numFields)
	row[colLineID] = strconv.FormatInt(l.ID, 10)
	row[colTxnID] = l.TransactionID
	row[colDate] = l.Date.Format(model.DateFormat)
	row[colAcctID] = l.AccountID
	row[colDesc] = l.Description

	if !l.Debit.IsZero() {
		row[colDebit] = l.Debit.StringFixed(2)
	}
	if !l.Credit.IsZero() {
		row[colCredit] = l.Credit.StringFixed(2)
	}
	return row
}

// UnmarshalLine converts a CSV row to a line.
func UnmarshalLine(record []string) (model.JournalLine, error) {
	if len(record) != numFields {
		return model.JournalLine{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	lineID, err := strconv.ParseInt(record[colLineID], 10, 64)
	if err != nil {
		return model.JournalLine{}, fmt.Errorf("parsing line_id %q: %w", record[colLineID], err)
	}

	date, err := time.Parse(model.DateFormat, record[colDate])
	if err != nil {
		return model.JournalLine{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	var debit, credit decimal.Decimal

	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return model.JournalLine{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}

	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return model.JournalLine{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	return model.JournalLine{
		ID:            lineID,
		TransactionID: record[colTxnID],
		Date:          date,
		AccountID:     record[colAcctID],
		Description:   record[colDesc],
		Debit:         debit,
		Credit:        credit,
	}, nil
}
