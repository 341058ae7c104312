package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankState is the reconciliation state of an imported bank row.
type BankState string

const (
	BankUnmatched  BankState = "Unmatched"
	BankMatched    BankState = "Matched"
	BankReconciled BankState = "Reconciled"
)

// BankTransaction is an imported bank-feed row tied to one account.
type BankTransaction struct {
	ID                   string          `json:"id"`
	AccountID            string          `json:"account_id"`
	Date                 time.Time       `json:"date"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"` // negative = withdrawal
	Reference            string          `json:"reference"`
	Type                 string          `json:"type,omitempty"`
	State                BankState       `json:"state"`
	SessionID            string          `json:"session_id,omitempty"`
	MatchedTransactionID string          `json:"matched_transaction_id,omitempty"`
}

// SessionStatus is the state of a reconciliation session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "InProgress"
	SessionCompleted  SessionStatus = "Completed"
)

// ReconciliationSession is one statement-period review of an account.
type ReconciliationSession struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	StatementDate  time.Time       `json:"statement_date"`
	EndingBalance  decimal.Decimal `json:"ending_balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClearedBalance decimal.Decimal `json:"cleared_balance"`
	Status         SessionStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    time.Time       `json:"completed_at,omitzero"`
}
