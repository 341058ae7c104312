package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// GenericParser reads a plain "date,description,amount[,reference][,type]"
// CSV with YYYY-MM-DD dates, in any column order. Rows without a reference
// get one derived from date, amount and description.
type GenericParser struct{}

func (p *GenericParser) Format() string { return "csv" }

func (p *GenericParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cols := make(map[string]int)
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	header := func(row []string) error {
		for i, h := range row {
			cols[strings.ToLower(strings.TrimSpace(h))] = i
		}
		for _, required := range []string{"date", "description", "amount"} {
			if _, ok := cols[required]; !ok {
				return fmt.Errorf("missing %q column", required)
			}
		}
		return nil
	}

	var txns []model.BankTransaction
	err := eachRow(r, -1, header, func(row []string) error {
		date, err := model.ParseDate(field(row, "date"))
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
		amount, err := decimal.NewFromString(field(row, "amount"))
		if err != nil {
			return fmt.Errorf("parsing amount %q: %w", field(row, "amount"), err)
		}
		desc := field(row, "description")
		ref := field(row, "reference")
		if ref == "" {
			ref = fmt.Sprintf("csv_%s_%s_%s", date.Format("20060102"), amount.StringFixed(2), refPrefix(desc))
		}
		txns = append(txns, model.BankTransaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Reference:   ref,
			Type:        field(row, "type"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	uniqueRefs(txns)
	return txns, nil
}
