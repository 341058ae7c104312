package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// ChaseParser reads Chase checking exports:
//
//	Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
//
// A check number, when present, becomes the reference.
type ChaseParser struct{}

// Chase column positions.
const (
	chaseDate   = 1
	chaseDesc   = 2
	chaseAmount = 3
	chaseType   = 4
	chaseCheck  = 6
	chaseFields = 7
)

const chaseDateLayout = "01/02/2006"

func (p *ChaseParser) Format() string { return "chase" }

func (p *ChaseParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	var txns []model.BankTransaction
	err := eachRow(r, chaseFields, nil, func(row []string) error {
		posted, err := time.Parse(chaseDateLayout, row[chaseDate])
		if err != nil {
			return fmt.Errorf("parsing date %q: %w", row[chaseDate], err)
		}
		amount, err := decimal.NewFromString(row[chaseAmount])
		if err != nil {
			return fmt.Errorf("parsing amount %q: %w", row[chaseAmount], err)
		}

		ref := "chase_" + posted.Format("20060102") + "_" + refPrefix(row[chaseDesc])
		if check := row[chaseCheck]; check != "" {
			ref = "chase_chk_" + check
		}
		txns = append(txns, model.BankTransaction{
			Date:        posted,
			Description: row[chaseDesc],
			Amount:      amount,
			Reference:   ref,
			Type:        row[chaseType],
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	uniqueRefs(txns)
	return txns, nil
}
