package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cleared-dev/tally/internal/apperr"
	"github.com/cleared-dev/tally/internal/model"
)

// PutSettings replaces the company settings row.
func (t *Tx) PutSettings(ctx context.Context, s model.Settings) error {
	_, err := t.exec(ctx, "saving settings", `
		INSERT INTO settings (id, receivable_account_id, payable_account_id, undeposited_funds_id,
			sales_tax_account_id, purchase_tax_account_id, opening_balance_account_id,
			default_bank_account_id, fiscal_year_start)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			receivable_account_id = excluded.receivable_account_id,
			payable_account_id = excluded.payable_account_id,
			undeposited_funds_id = excluded.undeposited_funds_id,
			sales_tax_account_id = excluded.sales_tax_account_id,
			purchase_tax_account_id = excluded.purchase_tax_account_id,
			opening_balance_account_id = excluded.opening_balance_account_id,
			default_bank_account_id = excluded.default_bank_account_id,
			fiscal_year_start = excluded.fiscal_year_start`,
		s.ReceivableAccountID, s.PayableAccountID, s.UndepositedFundsID,
		s.SalesTaxAccountID, s.PurchaseTaxAccountID, s.OpeningBalanceAccountID,
		s.DefaultBankAccountID, s.FiscalYearStart)
	return err
}

// Settings returns the company settings. A ledger that was never initialized
// yields NotFound.
func (t *Tx) Settings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	err := t.tx.QueryRowContext(ctx, `
		SELECT receivable_account_id, payable_account_id, undeposited_funds_id,
			sales_tax_account_id, purchase_tax_account_id, opening_balance_account_id,
			default_bank_account_id, fiscal_year_start
		FROM settings WHERE id = 1`).Scan(
		&s.ReceivableAccountID, &s.PayableAccountID, &s.UndepositedFundsID,
		&s.SalesTaxAccountID, &s.PurchaseTaxAccountID, &s.OpeningBalanceAccountID,
		&s.DefaultBankAccountID, &s.FiscalYearStart)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, apperr.NotFound("settings", "company")
	}
	if err != nil {
		return model.Settings{}, apperr.Storage("loading settings", err)
	}
	return s, nil
}
