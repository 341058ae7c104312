package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the business document behind a posting.
type TransactionType string

const (
	TypeInvoice      TransactionType = "Invoice"
	TypeBill         TransactionType = "Bill"
	TypePayment      TransactionType = "Payment"
	TypeBillPayment  TransactionType = "BillPayment"
	TypeDeposit      TransactionType = "Deposit"
	TypeJournal      TransactionType = "Journal"
	TypeSalesReceipt TransactionType = "SalesReceipt"
)

// NumberPrefix returns the document number prefix for t.
func (t TransactionType) NumberPrefix() string {
	switch t {
	case TypeInvoice:
		return "INV"
	case TypeBill:
		return "BIL"
	case TypePayment:
		return "PMT"
	case TypeBillPayment:
		return "BPM"
	case TypeDeposit:
		return "DEP"
	case TypeSalesReceipt:
		return "SRC"
	default:
		return "JRN"
	}
}

// IsOpenItem reports whether documents of this type carry a payable balance.
func (t TransactionType) IsOpenItem() bool {
	return t == TypeInvoice || t == TypeBill
}

// TransactionStatus is the lifecycle state of a persisted transaction.
type TransactionStatus string

const (
	StatusPosted      TransactionStatus = "Posted"
	StatusUndeposited TransactionStatus = "Undeposited"
	StatusDeposited   TransactionStatus = "Deposited"
)

// LineItem is the pre-posting representation of a document line.
type LineItem struct {
	Description string              `json:"description" yaml:"description"`
	Quantity    decimal.NullDecimal `json:"quantity" yaml:"quantity"` // unset means 1
	Rate        decimal.Decimal     `json:"rate" yaml:"rate"`
	Amount      decimal.Decimal     `json:"amount" yaml:"amount"` // computed at submission
	AccountID   string              `json:"account_id" yaml:"account_id"`
	Taxable     *bool               `json:"taxable,omitempty" yaml:"taxable,omitempty"`
}

// Transaction is a posted business document. It is never edited after
// posting; corrections are new Journal transactions.
type Transaction struct {
	ID               string            `json:"id"`
	Number           string            `json:"number"`
	Type             TransactionType   `json:"type"`
	Status           TransactionStatus `json:"status"`
	Date             time.Time         `json:"date"`
	DueDate          time.Time         `json:"due_date,omitzero"`
	CustomerID       string            `json:"customer_id,omitempty"`
	VendorID         string            `json:"vendor_id,omitempty"`
	Items            []LineItem        `json:"items,omitempty"`
	TaxRate          decimal.Decimal   `json:"tax_rate"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
	Memo             string            `json:"memo,omitempty"`
	DepositAccountID string            `json:"deposit_account_id,omitempty"`
	DepositID        string            `json:"deposit_id,omitempty"`
	ReversesID       string            `json:"reverses_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// PartyID returns whichever counterparty is set.
func (t Transaction) PartyID() string {
	if t.CustomerID != "" {
		return t.CustomerID
	}
	return t.VendorID
}

// EffectiveDueDate returns the due date, falling back to the document date.
func (t Transaction) EffectiveDueDate() time.Time {
	if t.DueDate.IsZero() {
		return t.Date
	}
	return t.DueDate
}

// OpenItemStatus is the derived payment state of an invoice or bill.
type OpenItemStatus string

const (
	OpenItemOpen    OpenItemStatus = "Open"
	OpenItemPartial OpenItemStatus = "Partial"
	OpenItemPaid    OpenItemStatus = "Paid"
)

// OpenItem is an invoice or bill with its derived balance.
type OpenItem struct {
	TransactionID string          `json:"transaction_id"`
	Number        string          `json:"number"`
	Type          TransactionType `json:"type"`
	PartyID       string          `json:"party_id"`
	Date          time.Time       `json:"date"`
	DueDate       time.Time       `json:"due_date"`
	Total         decimal.Decimal `json:"total"`
	Applied       decimal.Decimal `json:"applied"`
	Balance       decimal.Decimal `json:"balance"`
	Status        OpenItemStatus  `json:"status"`
}

// NewOpenItem derives an OpenItem from a document and the sum applied to it.
func NewOpenItem(t Transaction, applied decimal.Decimal) OpenItem {
	balance := t.Total.Sub(applied)
	status := OpenItemPartial
	switch {
	case !IsOpen(balance):
		status = OpenItemPaid
	case applied.IsZero():
		status = OpenItemOpen
	}
	return OpenItem{
		TransactionID: t.ID,
		Number:        t.Number,
		Type:          t.Type,
		PartyID:       t.PartyID(),
		Date:          t.Date,
		DueDate:       t.EffectiveDueDate(),
		Total:         t.Total,
		Applied:       applied,
		Balance:       balance,
		Status:        status,
	}
}

// Allocation links part of a payment to one open document.
type Allocation struct {
	PaymentID string          `json:"payment_id"`
	TargetID  string          `json:"target_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
}
