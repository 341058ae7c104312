package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Header is the chart-of-accounts CSV header.
var Header = []string{"account_id", "number", "name", "type", "detail", "parent_id", "opening_balance", "opening_date", "active"}

const (
	numFields   = 9
	colID       = 0
	colNumber   = 1
	colName     = 2
	colType     = 3
	colDetail   = 4
	colParent   = 5
	colOpening  = 6
	colOpenDate = 7
	colActive   = 8
)

// ReadAccounts reads a chart-of-accounts CSV.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colNumber] = acct.Number
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colDetail] = string(acct.Detail)
	row[colParent] = acct.ParentID
	if !acct.OpeningBalance.IsZero() {
		row[colOpening] = acct.OpeningBalance.StringFixed(2)
	}
	if !acct.OpeningDate.IsZero() {
		row[colOpenDate] = acct.OpeningDate.Format(model.DateFormat)
	}
	row[colActive] = strconv.FormatBool(acct.Active)
	return row
}

// UnmarshalAccount converts a CSV row to an Account. An empty active column
// means active.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	acct := model.Account{
		ID:       record[colID],
		Number:   record[colNumber],
		Name:     record[colName],
		Type:     model.AccountType(record[colType]),
		Detail:   model.DetailType(record[colDetail]),
		ParentID: record[colParent],
		Active:   true,
	}

	if !acct.Type.Valid() {
		return model.Account{}, fmt.Errorf("unknown account type %q", record[colType])
	}

	var err error
	if record[colOpening] != "" {
		if acct.OpeningBalance, err = decimal.NewFromString(record[colOpening]); err != nil {
			return model.Account{}, fmt.Errorf("parsing opening_balance %q: %w", record[colOpening], err)
		}
	}
	if record[colOpenDate] != "" {
		if acct.OpeningDate, err = model.ParseDate(record[colOpenDate]); err != nil {
			return model.Account{}, fmt.Errorf("parsing opening_date: %w", err)
		}
	}
	if record[colActive] != "" {
		if acct.Active, err = strconv.ParseBool(record[colActive]); err != nil {
			return model.Account{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
		}
	}
	return acct, nil
}
