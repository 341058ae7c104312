// Package parties keeps the customer and vendor lists.
package parties

import (
	"context"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Registry stores customers and vendors.
type Registry struct {
	store *store.Store
	now   func() time.Time
}

// NewRegistry creates a Registry over s.
func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s, now: time.Now}
}

// Create stores a new active party.
func (r *Registry) Create(ctx context.Context, p model.Party) (model.Party, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return model.Party{}, apperr.New(apperr.KindInvalidInput, "%s name is required", p.Kind)
	}
	if p.Kind != model.PartyCustomer && p.Kind != model.PartyVendor {
		return model.Party{}, apperr.New(apperr.KindInvalidInput, "unknown party kind %q", p.Kind)
	}
	if p.ID == "" {
		p.ID = id.New()
	}
	p.Active = true
	p.CreatedAt = r.now().UTC()

	err := r.store.Update(ctx, func(tx *store.Tx) error {
		return tx.InsertParty(ctx, p)
	})
	if err != nil {
		return model.Party{}, err
	}
	return p, nil
}

// Get returns a party by id.
func (r *Registry) Get(ctx context.Context, partyID string) (model.Party, error) {
	var p model.Party
	err := r.store.View(ctx, func(tx *store.Tx) error {
		var err error
		p, err = tx.Party(ctx, partyID)
		return err
	})
	return p, err
}

// List returns every party of one kind ordered by name.
func (r *Registry) List(ctx context.Context, kind model.PartyKind) ([]model.Party, error) {
	var out []model.Party
	err := r.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.Parties(ctx, kind)
		return err
	})
	return out, err
}

// Require loads partyID inside tx and checks that it is of the wanted kind.
// Unknown ids yield NotFound; a customer where a vendor is expected (or the
// reverse) yields InvalidCounterparty.
func Require(ctx context.Context, tx *store.Tx, partyID string, kind model.PartyKind) (model.Party, error) {
	if partyID == "" {
		return model.Party{}, apperr.New(apperr.KindInvalidCounterparty, "a %s is required", kind)
	}
	p, err := tx.Party(ctx, partyID)
	if err != nil {
		return model.Party{}, err
	}
	if p.Kind != kind {
		return model.Party{}, apperr.New(apperr.KindInvalidCounterparty, "%s is a %s, not a %s", p.Name, p.Kind, kind)
	}
	return p, nil
}
