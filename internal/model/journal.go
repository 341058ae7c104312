package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalLine is one side of a posted double-entry set. Immutable once
// committed.
type JournalLine struct {
	ID            int64           `json:"id"`
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Description   string          `json:"description"`
	Debit         decimal.Decimal `json:"debit"`  // zero if credit side
	Credit        decimal.Decimal `json:"credit"` // zero if debit side
	Date          time.Time       `json:"date"`
}

// DebitLine returns a debit-side line.
func DebitLine(accountID string, amount decimal.Decimal, desc string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: amount, Description: desc}
}

// CreditLine returns a credit-side line.
func CreditLine(accountID string, amount decimal.Decimal, desc string) JournalLine {
	return JournalLine{AccountID: accountID, Credit: amount, Description: desc}
}

// Amount returns whichever side is set.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsZero() {
		return l.Credit
	}
	return l.Debit
}

// IsDebit reports whether the line is on the debit side.
func (l JournalLine) IsDebit() bool {
	return !l.Debit.IsZero()
}
