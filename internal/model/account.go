package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeIncome    AccountType = "Income"
	AccountTypeExpense   AccountType = "Expense"
)

// AccountTypes lists every account type in reporting order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeIncome,
	AccountTypeExpense,
}

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether debits increase accounts of this type.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// SignedDelta returns the balance change caused by posting debit and credit
// to an account of this type.
func (t AccountType) SignedDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// DetailType is the account subtype shown next to the type.
type DetailType string

const (
	DetailChecking           DetailType = "Checking"
	DetailSavings            DetailType = "Savings"
	DetailUndepositedFunds   DetailType = "Undeposited Funds"
	DetailAccountsReceivable DetailType = "Accounts Receivable"
	DetailInventory          DetailType = "Inventory"
	DetailFixedAssets        DetailType = "Fixed Assets"
	DetailAccountsPayable    DetailType = "Accounts Payable"
	DetailCreditCard         DetailType = "Credit Card"
	DetailSalesTaxPayable    DetailType = "Sales Tax Payable"
	DetailLoan               DetailType = "Loan"
	DetailOpeningBalance     DetailType = "Opening Balance Equity"
	DetailOwnerEquity        DetailType = "Owner's Equity"
	DetailRetainedEarnings   DetailType = "Retained Earnings"
	DetailSales              DetailType = "Sales"
	DetailServiceIncome      DetailType = "Service Income"
	DetailOfficeExpenses     DetailType = "Office Expenses"
	DetailTravel             DetailType = "Travel"
	DetailMeals              DetailType = "Meals & Entertainment"
	DetailOther              DetailType = "Other"
)

// Account is a row in the chart of accounts.
type Account struct {
	ID             string          `json:"id"`
	Number         string          `json:"number,omitempty"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Detail         DetailType      `json:"detail"`
	ParentID       string          `json:"parent_id,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningDate    time.Time       `json:"opening_date"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}
