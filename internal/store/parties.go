package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

const partyColumns = `id, kind, name, company, email, active, created_at`

// InsertParty adds a customer or vendor.
func (t *Tx) InsertParty(ctx context.Context, p model.Party) error {
	_, err := t.exec(ctx, "inserting party", `
		INSERT INTO parties (`+partyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Kind), p.Name, p.Company, p.Email, boolInt(p.Active), formatTimestamp(p.CreatedAt))
	return err
}

// Party returns one party by id.
func (t *Tx) Party(ctx context.Context, id string) (model.Party, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = ?`, id)
	p, err := scanParty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Party{}, apperr.NotFound("party", id)
	}
	return p, err
}

// Parties lists parties of one kind ordered by name.
func (t *Tx) Parties(ctx context.Context, kind model.PartyKind) ([]model.Party, error) {
	rows, err := t.query(ctx, "listing parties",
		`SELECT `+partyColumns+` FROM parties WHERE kind = ? ORDER BY name, id`, string(kind))
	if err != nil {
		return nil, err
	}
	return collect(rows, "listing parties", scanParty)
}

func scanParty(s scanner) (model.Party, error) {
	var (
		p               model.Party
		kind, createdAt string
		active          int
	)
	err := s.Scan(&p.ID, &kind, &p.Name, &p.Company, &p.Email, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Party{}, err
	}
	if err != nil {
		return model.Party{}, apperr.Storage("scanning party", err)
	}
	p.Kind = model.PartyKind(kind)
	p.Active = active == 1
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return model.Party{}, err
	}
	return p, nil
}
