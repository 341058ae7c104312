// Package engine is the single entry point to a ledger. It wires the
// registries, poster, allocator, reconciliation and reports over one store,
// logs every operation and appends an audit entry for each committed
// mutation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/documents"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/parties"
	"github.com/cleared-dev/tally/internal/payments"
	"github.com/cleared-dev/tally/internal/reconcile"
	"github.com/cleared-dev/tally/internal/reports"
	"github.com/cleared-dev/tally/internal/store"
)

// Options configures an Engine. Zero values give a no-op logger and no audit
// trail.
type Options struct {
	Logger *zap.Logger
	Audit  *auditlog.Log
	Actor  string // recorded in audit entries, e.g. "cli" or "api"
}

// Engine is an open ledger.
type Engine struct {
	store    *store.Store
	settings model.Settings
	log      *zap.Logger
	audit    *auditlog.Log
	actor    string
	now      func() time.Time

	accounts  *accounts.Registry
	parties   *parties.Registry
	poster    *journal.Poster
	docs      *documents.Aggregator
	alloc     *payments.Allocator
	recon     *reconcile.Engine
	reports   *reports.Reporter
	importers *importer.Registry
}

// ErrNotInitialized is returned by Open for a database without settings.
var ErrNotInitialized = errors.New("ledger is not initialized; run tally init")

// Open opens an initialized ledger at path and validates its settings.
func Open(ctx context.Context, path string, opts Options) (*Engine, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	var settings model.Settings
	err = s.View(ctx, func(tx *store.Tx) error {
		var err error
		if settings, err = tx.Settings(ctx); err != nil {
			return err
		}
		return accounts.CheckSettings(ctx, tx, settings)
	})
	if err != nil {
		s.Close()
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return newEngine(s, settings, opts), nil
}

// Init creates a ledger at path with the default chart of accounts and
// company settings pointing into it.
func Init(ctx context.Context, path, entityType, fiscalYearStart string, opts Options) (*Engine, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	reg := accounts.NewRegistry(s)
	var settings model.Settings
	err = s.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.Settings(ctx); err == nil {
			return apperr.New(apperr.KindInvalidInput, "ledger at %s is already initialized", path)
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}

		var created []model.Account
		for _, a := range accounts.DefaultChart(entityType) {
			c, err := reg.Insert(ctx, tx, a)
			if err != nil {
				return fmt.Errorf("creating account %s: %w", a.Number, err)
			}
			created = append(created, c)
		}
		settings = accounts.DefaultSettings(created, fiscalYearStart)
		if err := accounts.CheckSettings(ctx, tx, settings); err != nil {
			return err
		}
		return tx.PutSettings(ctx, settings)
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	e := newEngine(s, settings, opts)
	e.done("init", nil, zap.Int("accounts", len(accounts.DefaultChart(entityType))))
	e.record("init", fmt.Sprintf("initialized %s ledger, fiscal year start %s", entityType, settings.FiscalYearStart), "", "")
	return e, nil
}

func newEngine(s *store.Store, settings model.Settings, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	actor := opts.Actor
	if actor == "" {
		actor = "engine"
	}
	poster := journal.NewPoster(s)
	return &Engine{
		store:     s,
		settings:  settings,
		log:       log,
		audit:     opts.Audit,
		actor:     actor,
		now:       time.Now,
		accounts:  accounts.NewRegistry(s),
		parties:   parties.NewRegistry(s),
		poster:    poster,
		docs:      documents.NewAggregator(poster, settings),
		alloc:     payments.NewAllocator(s, poster, settings),
		recon:     reconcile.New(s),
		reports:   reports.New(s, settings),
		importers: importer.DefaultRegistry(),
	}
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Settings returns the company settings.
func (e *Engine) Settings() model.Settings {
	return e.settings
}

// Path returns the database path.
func (e *Engine) Path() string {
	return e.store.Path()
}

// done logs the outcome of an operation: Info on success, Warn for business
// rule rejections, Error for storage failures.
func (e *Engine) done(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op))
	if err == nil {
		e.log.Info("ledger operation", fields...)
		return
	}
	kind := apperr.KindOf(err)
	fields = append(fields, zap.String("kind", string(kind)), zap.Error(err))
	if kind == apperr.KindStorageUnavailable || kind == "" {
		e.log.Error("ledger operation failed", fields...)
		return
	}
	e.log.Warn("ledger operation rejected", fields...)
}

// record appends an audit entry. The mutation is already committed, so a
// failed write is logged and not returned.
func (e *Engine) record(action, details, subjectID, number string) {
	if e.audit == nil {
		return
	}
	err := e.audit.Append(auditlog.Entry{
		Timestamp: e.now().UTC(),
		Actor:     e.actor,
		Action:    action,
		Details:   details,
		SubjectID: subjectID,
		Number:    number,
	})
	if err != nil {
		e.log.Error("writing audit entry", zap.String("action", action), zap.Error(err))
	}
}
