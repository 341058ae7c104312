package reports

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/payments"
	"github.com/cleared-dev/tally/internal/store"
)

// AgingKind selects receivables (invoices) or payables (bills).
type AgingKind string

const (
	AgingReceivable AgingKind = "Receivable"
	AgingPayable    AgingKind = "Payable"
)

// Bucket labels, in report order.
const (
	BucketCurrent = "current"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = "90+"
)

// Buckets lists the bucket labels in report order.
var Buckets = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor returns the bucket for a document that is daysPastDue past its
// due date. Zero or negative means not yet due.
func BucketFor(daysPastDue int) string {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return Bucket1To30
	case daysPastDue <= 60:
		return Bucket31To60
	case daysPastDue <= 90:
		return Bucket61To90
	}
	return BucketOver90
}

// Amounts holds one total per bucket label.
type Amounts map[string]decimal.Decimal

func newAmounts() Amounts {
	a := make(Amounts, len(Buckets))
	for _, b := range Buckets {
		a[b] = decimal.Zero
	}
	return a
}

func (a Amounts) add(bucket string, amt decimal.Decimal) {
	a[bucket] = a[bucket].Add(amt)
}

// AgingDetail is one open document.
type AgingDetail struct {
	model.OpenItem
	PartyName   string `json:"party_name"`
	DaysPastDue int    `json:"days_past_due"`
	Bucket      string `json:"bucket"`
}

// AgingSummary is one counterparty's open balance by bucket.
type AgingSummary struct {
	PartyID   string          `json:"party_id"`
	PartyName string          `json:"party_name"`
	Buckets   Amounts         `json:"buckets"`
	Total     decimal.Decimal `json:"total"`
}

// Aging is an A/R or A/P aging as of a date.
type Aging struct {
	Kind      AgingKind       `json:"kind"`
	AsOf      time.Time       `json:"as_of"`
	Parties   []AgingSummary  `json:"parties"`
	Documents []AgingDetail   `json:"documents"`
	Totals    Amounts         `json:"totals"`
	Total     decimal.Decimal `json:"total"`
}

// Aging buckets every open invoice or bill by days past its due date as of
// asOf. Documents without a due date age from their document date.
func (r *Reporter) Aging(ctx context.Context, asOf time.Time, kind AgingKind) (Aging, error) {
	var typ model.TransactionType
	switch kind {
	case AgingReceivable:
		typ = model.TypeInvoice
	case AgingPayable:
		typ = model.TypeBill
	default:
		return Aging{}, apperr.New(apperr.KindInvalidInput, "unknown aging kind %q", kind)
	}
	asOf = r.asOf(asOf)

	out := Aging{Kind: kind, AsOf: asOf, Totals: newAmounts()}
	err := r.store.View(ctx, func(tx *store.Tx) error {
		items, err := payments.OpenItemsAsOf(ctx, tx, "", typ, asOf)
		if err != nil {
			return err
		}

		byParty := make(map[string]*AgingSummary)
		for _, it := range items {
			sum, ok := byParty[it.PartyID]
			if !ok {
				p, err := tx.Party(ctx, it.PartyID)
				if err != nil {
					return err
				}
				sum = &AgingSummary{PartyID: p.ID, PartyName: p.Name, Buckets: newAmounts()}
				byParty[it.PartyID] = sum
			}

			days := daysBetween(it.DueDate, asOf)
			bucket := BucketFor(days)
			out.Documents = append(out.Documents, AgingDetail{OpenItem: it, PartyName: sum.PartyName, DaysPastDue: days, Bucket: bucket})
			sum.Buckets.add(bucket, it.Balance)
			sum.Total = sum.Total.Add(it.Balance)
			out.Totals.add(bucket, it.Balance)
			out.Total = out.Total.Add(it.Balance)
		}

		for _, s := range byParty {
			out.Parties = append(out.Parties, *s)
		}
		slices.SortFunc(out.Parties, func(a, b AgingSummary) int {
			if c := strings.Compare(a.PartyName, b.PartyName); c != 0 {
				return c
			}
			return strings.Compare(a.PartyID, b.PartyID)
		})
		slices.SortStableFunc(out.Documents, func(a, b AgingDetail) int {
			if c := strings.Compare(a.PartyName, b.PartyName); c != 0 {
				return c
			}
			if c := strings.Compare(a.PartyID, b.PartyID); c != 0 {
				return c
			}
			return a.DueDate.Compare(b.DueDate)
		})
		return nil
	})
	if err != nil {
		return Aging{}, err
	}
	return out, nil
}

// daysBetween counts calendar days from due to asOf.
func daysBetween(due, asOf time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	a := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(d).Hours() / 24)
}
