package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
)

// DateFormat is the calendar-date layout used on every external surface.
const DateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.New(apperr.KindInvalidInput, "invalid date %q", s)
	}
	return t, nil
}

// Document is one of the closed set of submittable business documents.
type Document interface {
	DocumentType() TransactionType
}

// Application requests that Amount of a payment be applied to TargetID.
type Application struct {
	TargetID string          `json:"target_id" yaml:"target_id"`
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
}

// Invoice bills a customer; it debits Accounts Receivable.
type Invoice struct {
	CustomerID string
	Date       time.Time
	DueDate    time.Time
	Items      []LineItem
	TaxRate    decimal.Decimal // percent
	Memo       string
}

// SalesReceipt records a sale paid on the spot; it debits a deposit account.
type SalesReceipt struct {
	CustomerID       string
	Date             time.Time
	DepositAccountID string // empty means undeposited funds
	Items            []LineItem
	TaxRate          decimal.Decimal
	Memo             string
}

// Bill records a vendor invoice; it credits Accounts Payable.
type Bill struct {
	VendorID string
	Date     time.Time
	DueDate  time.Time
	Items    []LineItem
	TaxRate  decimal.Decimal
	Memo     string
}

// JournalEntry posts explicit debit and credit lines.
type JournalEntry struct {
	Date       time.Time
	Memo       string
	Lines      []JournalLine
	CustomerID string
	VendorID   string
}

// CustomerPayment receives money from a customer against open invoices.
type CustomerPayment struct {
	CustomerID       string
	Date             time.Time
	Amount           decimal.Decimal
	DepositAccountID string // empty means undeposited funds
	Method           string
	Memo             string
	Applications     []Application
	AutoApply        bool
}

// BillPayment pays a vendor against open bills.
type BillPayment struct {
	VendorID         string
	Date             time.Time
	Amount           decimal.Decimal
	PaymentAccountID string // empty means the default bank account
	Memo             string
	Applications     []Application
	AutoApply        bool
}

// Deposit moves customer payments from undeposited funds into a bank account.
type Deposit struct {
	Date             time.Time
	DepositAccountID string
	PaymentIDs       []string
	Memo             string
}

func (Invoice) DocumentType() TransactionType         { return TypeInvoice }
func (SalesReceipt) DocumentType() TransactionType    { return TypeSalesReceipt }
func (Bill) DocumentType() TransactionType            { return TypeBill }
func (JournalEntry) DocumentType() TransactionType    { return TypeJournal }
func (CustomerPayment) DocumentType() TransactionType { return TypePayment }
func (BillPayment) DocumentType() TransactionType     { return TypeBillPayment }
func (Deposit) DocumentType() TransactionType         { return TypeDeposit }

// DocumentSpec is the wire and file form of a document. ToDocument turns it
// into exactly one typed variant; fields irrelevant to the type are ignored.
type DocumentSpec struct {
	Type             TransactionType `json:"type" yaml:"type"`
	CustomerID       string          `json:"customer_id,omitempty" yaml:"customer_id,omitempty"`
	VendorID         string          `json:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	Date             string          `json:"date" yaml:"date"`
	DueDate          string          `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Items            []LineItem      `json:"items,omitempty" yaml:"items,omitempty"`
	TaxRate          decimal.Decimal `json:"tax_rate" yaml:"tax_rate"`
	Memo             string          `json:"memo,omitempty" yaml:"memo,omitempty"`
	Lines            []LineSpec      `json:"lines,omitempty" yaml:"lines,omitempty"`
	Amount           decimal.Decimal `json:"amount" yaml:"amount"`
	DepositAccountID string          `json:"deposit_account_id,omitempty" yaml:"deposit_account_id,omitempty"`
	PaymentAccountID string          `json:"payment_account_id,omitempty" yaml:"payment_account_id,omitempty"`
	Method           string          `json:"method,omitempty" yaml:"method,omitempty"`
	Applications     []Application   `json:"applications,omitempty" yaml:"applications,omitempty"`
	AutoApply        bool            `json:"auto_apply,omitempty" yaml:"auto_apply,omitempty"`
	PaymentIDs       []string        `json:"payment_ids,omitempty" yaml:"payment_ids,omitempty"`
}

// LineSpec is the wire form of a journal entry line.
type LineSpec struct {
	AccountID   string          `json:"account_id" yaml:"account_id"`
	Debit       decimal.Decimal `json:"debit" yaml:"debit"`
	Credit      decimal.Decimal `json:"credit" yaml:"credit"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// ToDocument converts s into its typed variant.
func (s DocumentSpec) ToDocument() (Document, error) {
	date, err := ParseDate(s.Date)
	if err != nil {
		return nil, err
	}
	var due time.Time
	if s.DueDate != "" {
		if due, err = ParseDate(s.DueDate); err != nil {
			return nil, err
		}
	}

	if err := s.checkCounterparty(); err != nil {
		return nil, err
	}

	switch s.Type {
	case TypeInvoice:
		return Invoice{CustomerID: s.CustomerID, Date: date, DueDate: due, Items: s.Items, TaxRate: s.TaxRate, Memo: s.Memo}, nil
	case TypeSalesReceipt:
		return SalesReceipt{CustomerID: s.CustomerID, Date: date, DepositAccountID: s.DepositAccountID, Items: s.Items, TaxRate: s.TaxRate, Memo: s.Memo}, nil
	case TypeBill:
		return Bill{VendorID: s.VendorID, Date: date, DueDate: due, Items: s.Items, TaxRate: s.TaxRate, Memo: s.Memo}, nil
	case TypeJournal:
		lines := make([]JournalLine, len(s.Lines))
		for i, l := range s.Lines {
			lines[i] = JournalLine{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description}
		}
		return JournalEntry{Date: date, Memo: s.Memo, Lines: lines, CustomerID: s.CustomerID, VendorID: s.VendorID}, nil
	case TypePayment:
		return CustomerPayment{
			CustomerID: s.CustomerID, Date: date, Amount: s.Amount, DepositAccountID: s.DepositAccountID,
			Method: s.Method, Memo: s.Memo, Applications: s.Applications, AutoApply: s.AutoApply,
		}, nil
	case TypeBillPayment:
		return BillPayment{
			VendorID: s.VendorID, Date: date, Amount: s.Amount, PaymentAccountID: s.PaymentAccountID,
			Memo: s.Memo, Applications: s.Applications, AutoApply: s.AutoApply,
		}, nil
	case TypeDeposit:
		return Deposit{Date: date, DepositAccountID: s.DepositAccountID, PaymentIDs: s.PaymentIDs, Memo: s.Memo}, nil
	default:
		return nil, apperr.New(apperr.KindInvalidInput, "unknown document type %q", s.Type)
	}
}

// checkCounterparty rejects a vendor on a sales document or a customer on a
// purchase document.
func (s DocumentSpec) checkCounterparty() error {
	switch s.Type {
	case TypeInvoice, TypeSalesReceipt, TypePayment:
		if s.VendorID != "" {
			return apperr.New(apperr.KindInvalidCounterparty, "%s cannot name a vendor", s.Type)
		}
	case TypeBill, TypeBillPayment:
		if s.CustomerID != "" {
			return apperr.New(apperr.KindInvalidCounterparty, "%s cannot name a customer", s.Type)
		}
	}
	return nil
}
