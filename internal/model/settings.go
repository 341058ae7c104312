package model

// Settings holds the company-wide account references the engine needs.
// They are fixed at setup time and never looked up by account name.
type Settings struct {
	ReceivableAccountID     string `json:"receivable_account_id" yaml:"receivable_account_id"`
	PayableAccountID        string `json:"payable_account_id" yaml:"payable_account_id"`
	UndepositedFundsID      string `json:"undeposited_funds_id" yaml:"undeposited_funds_id"`
	SalesTaxAccountID       string `json:"sales_tax_account_id" yaml:"sales_tax_account_id"`
	PurchaseTaxAccountID    string `json:"purchase_tax_account_id" yaml:"purchase_tax_account_id"`
	OpeningBalanceAccountID string `json:"opening_balance_account_id" yaml:"opening_balance_account_id"`
	DefaultBankAccountID    string `json:"default_bank_account_id" yaml:"default_bank_account_id"`
	FiscalYearStart         string `json:"fiscal_year_start" yaml:"fiscal_year_start"` // "MM-DD"
}

// PurchaseTaxAccount returns the account debited for tax on bills.
func (s Settings) PurchaseTaxAccount() string {
	if s.PurchaseTaxAccountID != "" {
		return s.PurchaseTaxAccountID
	}
	return s.SalesTaxAccountID
}

// References returns every configured account id keyed by its role.
func (s Settings) References() map[string]string {
	refs := map[string]string{
		"receivable":      s.ReceivableAccountID,
		"payable":         s.PayableAccountID,
		"undeposited":     s.UndepositedFundsID,
		"sales_tax":       s.SalesTaxAccountID,
		"opening_balance": s.OpeningBalanceAccountID,
		"default_bank":    s.DefaultBankAccountID,
		"purchase_tax":    s.PurchaseTaxAccountID,
	}
	for k, v := range refs {
		if v == "" {
			delete(refs, k)
		}
	}
	return refs
}
