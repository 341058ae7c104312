package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/parties"
	"github.com/cleared-dev/tally/internal/store"
)

// Allocator posts payments and records their allocations.
type Allocator struct {
	store    *store.Store
	poster   *journal.Poster
	settings model.Settings
	now      func() time.Time
}

// NewAllocator creates an Allocator.
func NewAllocator(s *store.Store, poster *journal.Poster, settings model.Settings) *Allocator {
	return &Allocator{store: s, poster: poster, settings: settings, now: time.Now}
}

// Applied is the outcome of posting or applying a payment.
type Applied struct {
	PaymentID   string             `json:"payment_id"`
	Number      string             `json:"number,omitempty"`
	Total       decimal.Decimal    `json:"total"`
	Allocations []model.Allocation `json:"allocations"`
	Unapplied   decimal.Decimal    `json:"unapplied"`
}

// request is the common shape of customer payments and bill payments.
type request struct {
	typ      model.TransactionType
	partyID  string
	date     time.Time
	amount   decimal.Decimal
	account  string // cash side
	status   model.TransactionStatus
	memo     string
	apps     []model.Application
	auto     bool
	kind     model.PartyKind
	contraAR string // AR or AP
}

// Receive posts a customer payment (debit the deposit account, credit
// receivables) and applies it in the same commit. Without a deposit account
// the money lands in undeposited funds.
func (a *Allocator) Receive(ctx context.Context, p model.CustomerPayment) (Applied, error) {
	r := request{
		typ: model.TypePayment, partyID: p.CustomerID, date: p.Date, amount: p.Amount,
		account: p.DepositAccountID, status: model.StatusPosted, memo: p.Memo,
		apps: p.Applications, auto: p.AutoApply, kind: model.PartyCustomer,
		contraAR: a.settings.ReceivableAccountID,
	}
	if r.account == "" || r.account == a.settings.UndepositedFundsID {
		r.account = a.settings.UndepositedFundsID
		r.status = model.StatusUndeposited
	}
	if r.memo == "" && p.Method != "" {
		r.memo = "Payment by " + p.Method
	}
	return a.post(ctx, r)
}

// Pay posts a bill payment (debit payables, credit the paying account) and
// applies it in the same commit.
func (a *Allocator) Pay(ctx context.Context, p model.BillPayment) (Applied, error) {
	r := request{
		typ: model.TypeBillPayment, partyID: p.VendorID, date: p.Date, amount: p.Amount,
		account: p.PaymentAccountID, status: model.StatusPosted, memo: p.Memo,
		apps: p.Applications, auto: p.AutoApply, kind: model.PartyVendor,
		contraAR: a.settings.PayableAccountID,
	}
	if r.account == "" {
		r.account = a.settings.DefaultBankAccountID
	}
	return a.post(ctx, r)
}

func (a *Allocator) post(ctx context.Context, r request) (Applied, error) {
	if r.partyID == "" {
		return Applied{}, apperr.New(apperr.KindInvalidCounterparty, "%s requires a %s", r.typ, r.kind)
	}
	if !r.amount.IsPositive() || !model.HasCentPrecision(r.amount) {
		return Applied{}, apperr.New(apperr.KindInvalidAmount, "payment amount %s must be positive with at most 2 decimal places", r.amount)
	}
	if r.auto && len(r.apps) > 0 {
		return Applied{}, apperr.New(apperr.KindInvalidInput, "choose either automatic or manual application")
	}
	if r.account == "" || r.contraAR == "" {
		return Applied{}, apperr.New(apperr.KindInvalidInput, "no %s accounts configured", r.typ)
	}

	var lines []model.JournalLine
	if r.typ == model.TypePayment {
		lines = []model.JournalLine{
			model.DebitLine(r.account, r.amount, r.memo),
			model.CreditLine(r.contraAR, r.amount, r.memo),
		}
	} else {
		lines = []model.JournalLine{
			model.DebitLine(r.contraAR, r.amount, r.memo),
			model.CreditLine(r.account, r.amount, r.memo),
		}
	}

	t := model.Transaction{
		Type:             r.typ,
		Status:           r.status,
		Date:             r.date,
		Total:            r.amount,
		Memo:             r.memo,
		DepositAccountID: r.account,
	}
	if r.kind == model.PartyCustomer {
		t.CustomerID = r.partyID
	} else {
		t.VendorID = r.partyID
	}

	var allocs []model.Allocation
	res, err := a.poster.Post(ctx, journal.Entry{
		Transaction: t,
		Lines:       lines,
		Prepare: func(ctx context.Context, tx *store.Tx) error {
			_, err := parties.Require(ctx, tx, r.partyID, r.kind)
			return err
		},
		Apply: func(ctx context.Context, tx *store.Tx, posted model.Transaction) error {
			if !r.auto && len(r.apps) == 0 {
				return nil
			}
			var err error
			allocs, err = a.allocate(ctx, tx, posted, posted.Total, r.apps, r.auto, posted.Date)
			return err
		},
	})
	if err != nil {
		return Applied{}, err
	}

	return Applied{
		PaymentID:   res.TransactionID,
		Number:      res.Number,
		Total:       r.amount,
		Allocations: allocs,
		Unapplied:   r.amount.Sub(sumAllocations(allocs)),
	}, nil
}

// AutoApply applies the unapplied remainder of an existing payment to the
// counterparty's open documents, oldest first.
func (a *Allocator) AutoApply(ctx context.Context, paymentID, partyID string) (Applied, error) {
	return a.applyExisting(ctx, paymentID, partyID, nil, true)
}

// ApplyManual applies explicit amounts of an existing payment's unapplied
// remainder.
func (a *Allocator) ApplyManual(ctx context.Context, paymentID string, apps []model.Application) (Applied, error) {
	if len(apps) == 0 {
		return Applied{}, apperr.New(apperr.KindInvalidInput, "no applications given")
	}
	return a.applyExisting(ctx, paymentID, "", apps, false)
}

func (a *Allocator) applyExisting(ctx context.Context, paymentID, partyID string, apps []model.Application, auto bool) (Applied, error) {
	var out Applied
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		payment, err := loadPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if partyID != "" && partyID != payment.PartyID() {
			return apperr.New(apperr.KindInvalidCounterparty, "payment %s does not belong to %s", payment.Number, partyID)
		}

		remaining, err := unapplied(ctx, tx, payment)
		if err != nil {
			return err
		}

		day := a.today()
		if day.Before(payment.Date) {
			day = payment.Date
		}
		allocs, err := a.allocate(ctx, tx, payment, remaining, apps, auto, day)
		if err != nil {
			return err
		}
		out = Applied{
			PaymentID:   payment.ID,
			Number:      payment.Number,
			Total:       payment.Total,
			Allocations: allocs,
			Unapplied:   remaining.Sub(sumAllocations(allocs)),
		}
		return nil
	})
	return out, err
}

// allocate plans (auto) or checks (manual) applications of remaining against
// the payment's counterparty and records them.
func (a *Allocator) allocate(ctx context.Context, tx *store.Tx, payment model.Transaction, remaining decimal.Decimal,
	apps []model.Application, auto bool, day time.Time) ([]model.Allocation, error) {
	targetType := model.TypeInvoice
	if payment.Type == model.TypeBillPayment {
		targetType = model.TypeBill
	}

	open, err := openItems(ctx, tx, payment.PartyID(), targetType, time.Time{})
	if err != nil {
		return nil, err
	}

	if auto {
		apps = PlanAuto(remaining, open)
	} else {
		for _, app := range apps {
			target, err := tx.Transaction(ctx, app.TargetID)
			if err != nil {
				return nil, err
			}
			if target.Type != targetType {
				return nil, apperr.New(apperr.KindInvalidInput, "%s cannot be applied to %s %s", payment.Type, target.Type, target.Number)
			}
			if target.PartyID() != payment.PartyID() {
				return nil, apperr.New(apperr.KindInvalidInput, "%s belongs to a different %s", target.Number, partyKindOf(targetType))
			}
		}
		byID := make(map[string]model.OpenItem, len(open))
		for _, item := range open {
			byID[item.TransactionID] = item
		}
		if err := CheckManual(remaining, apps, byID); err != nil {
			return nil, err
		}
	}

	allocs := make([]model.Allocation, 0, len(apps))
	for _, app := range apps {
		alloc := model.Allocation{PaymentID: payment.ID, TargetID: app.TargetID, Amount: app.Amount, Date: day}
		if err := tx.InsertAllocation(ctx, alloc); err != nil {
			return nil, err
		}
		allocs = append(allocs, alloc)
	}
	return allocs, nil
}

// OpenItems returns the open invoices and bills of a party (every party when
// partyID is empty), oldest first.
func (a *Allocator) OpenItems(ctx context.Context, partyID string) ([]model.OpenItem, error) {
	var out []model.OpenItem
	err := a.store.View(ctx, func(tx *store.Tx) error {
		if partyID != "" {
			if _, err := tx.Party(ctx, partyID); err != nil {
				return err
			}
		}
		invoices, err := openItems(ctx, tx, partyID, model.TypeInvoice, time.Time{})
		if err != nil {
			return err
		}
		bills, err := openItems(ctx, tx, partyID, model.TypeBill, time.Time{})
		if err != nil {
			return err
		}
		out = append(invoices, bills...)
		return nil
	})
	return out, err
}

// PartyBalance returns the sum of a party's open document balances.
func (a *Allocator) PartyBalance(ctx context.Context, partyID string) (decimal.Decimal, error) {
	items, err := a.OpenItems(ctx, partyID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Balance)
	}
	return total, nil
}

// Unapplied returns the part of a payment not yet allocated.
func (a *Allocator) Unapplied(ctx context.Context, paymentID string) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := a.store.View(ctx, func(tx *store.Tx) error {
		payment, err := loadPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		out, err = unapplied(ctx, tx, payment)
		return err
	})
	return out, err
}

// Allocations lists the allocations recorded against a payment.
func (a *Allocator) Allocations(ctx context.Context, paymentID string) ([]model.Allocation, error) {
	var out []model.Allocation
	err := a.store.View(ctx, func(tx *store.Tx) error {
		if _, err := loadPayment(ctx, tx, paymentID); err != nil {
			return err
		}
		var err error
		out, err = tx.AllocationsForPayment(ctx, paymentID)
		return err
	})
	return out, err
}

// OpenItemsAsOf derives open items of one type as of a date: documents dated
// on or before asOf, less allocations dated on or before asOf. Reversed
// documents are excluded. A zero asOf means now.
func OpenItemsAsOf(ctx context.Context, tx *store.Tx, partyID string, typ model.TransactionType, asOf time.Time) ([]model.OpenItem, error) {
	return openItems(ctx, tx, partyID, typ, asOf)
}

func openItems(ctx context.Context, tx *store.Tx, partyID string, typ model.TransactionType, asOf time.Time) ([]model.OpenItem, error) {
	docs, err := tx.Transactions(ctx, store.TransactionFilter{Types: []model.TransactionType{typ}, PartyID: partyID, To: asOf})
	if err != nil {
		return nil, err
	}
	applied, err := tx.AppliedByTarget(ctx, asOf)
	if err != nil {
		return nil, err
	}
	reversed, err := tx.ReversedIDs(ctx)
	if err != nil {
		return nil, err
	}

	var out []model.OpenItem
	for _, d := range docs {
		if reversed[d.ID] {
			continue
		}
		item := model.NewOpenItem(d, applied[d.ID])
		if item.Status == model.OpenItemPaid {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func loadPayment(ctx context.Context, tx *store.Tx, paymentID string) (model.Transaction, error) {
	p, err := tx.Transaction(ctx, paymentID)
	if err != nil {
		return model.Transaction{}, err
	}
	if p.Type != model.TypePayment && p.Type != model.TypeBillPayment {
		return model.Transaction{}, apperr.New(apperr.KindInvalidInput, "%s is a %s, not a payment", p.Number, p.Type)
	}
	reversed, err := tx.IsReversed(ctx, p.ID)
	if err != nil {
		return model.Transaction{}, err
	}
	if reversed {
		return model.Transaction{}, apperr.New(apperr.KindInvalidInput, "payment %s has been reversed", p.Number)
	}
	return p, nil
}

func unapplied(ctx context.Context, tx *store.Tx, payment model.Transaction) (decimal.Decimal, error) {
	allocs, err := tx.AllocationsForPayment(ctx, payment.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return payment.Total.Sub(sumAllocations(allocs)), nil
}

func sumAllocations(allocs []model.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Amount)
	}
	return total
}

func partyKindOf(typ model.TransactionType) model.PartyKind {
	if typ == model.TypeBill {
		return model.PartyVendor
	}
	return model.PartyCustomer
}

func (a *Allocator) today() time.Time {
	y, m, d := a.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
