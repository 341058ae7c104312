package accounts

import (
	"github.com/cleared-dev/tally/internal/model"
)

// Numbers of the default-chart accounts that company settings point at.
const (
	NumberChecking         = "1010"
	NumberUndeposited      = "1050"
	NumberReceivable       = "1200"
	NumberPayable          = "2010"
	NumberSalesTax         = "2200"
	NumberOpeningBalance   = "3000"
	NumberRetainedEarnings = "3900"
)

// DefaultChart returns the default chart of accounts for an entity type.
// Accounts carry numbers but no ids; ids are assigned when they are created.
func DefaultChart(entityType string) []model.Account {
	// llc_single_member and sole_proprietor both use the small business chart;
	// other entity types fall back to it too.
	return smallBusinessChart()
}

func smallBusinessChart() []model.Account {
	return []model.Account{
		{Number: NumberChecking, Name: "Business Checking", Type: model.AccountTypeAsset, Detail: model.DetailChecking},
		{Number: "1020", Name: "Business Savings", Type: model.AccountTypeAsset, Detail: model.DetailSavings},
		{Number: NumberUndeposited, Name: "Undeposited Funds", Type: model.AccountTypeAsset, Detail: model.DetailUndepositedFunds},
		{Number: NumberReceivable, Name: "Accounts Receivable", Type: model.AccountTypeAsset, Detail: model.DetailAccountsReceivable},
		{Number: NumberPayable, Name: "Accounts Payable", Type: model.AccountTypeLiability, Detail: model.DetailAccountsPayable},
		{Number: "2100", Name: "Credit Card", Type: model.AccountTypeLiability, Detail: model.DetailCreditCard},
		{Number: NumberSalesTax, Name: "Sales Tax Payable", Type: model.AccountTypeLiability, Detail: model.DetailSalesTaxPayable},
		{Number: NumberOpeningBalance, Name: "Opening Balance Equity", Type: model.AccountTypeEquity, Detail: model.DetailOpeningBalance},
		{Number: "3010", Name: "Owner's Equity", Type: model.AccountTypeEquity, Detail: model.DetailOwnerEquity},
		{Number: NumberRetainedEarnings, Name: "Retained Earnings", Type: model.AccountTypeEquity, Detail: model.DetailRetainedEarnings},
		{Number: "4010", Name: "Sales", Type: model.AccountTypeIncome, Detail: model.DetailSales},
		{Number: "4020", Name: "Service Income", Type: model.AccountTypeIncome, Detail: model.DetailServiceIncome},
		{Number: "5010", Name: "Office Expenses", Type: model.AccountTypeExpense, Detail: model.DetailOfficeExpenses},
		{Number: "5020", Name: "Travel", Type: model.AccountTypeExpense, Detail: model.DetailTravel},
		{Number: "5030", Name: "Meals & Entertainment", Type: model.AccountTypeExpense, Detail: model.DetailMeals},
	}
}

// DefaultSettings maps created default-chart accounts onto company settings
// by account number.
func DefaultSettings(created []model.Account, fiscalYearStart string) model.Settings {
	byNumber := make(map[string]string, len(created))
	for _, a := range created {
		byNumber[a.Number] = a.ID
	}
	return model.Settings{
		ReceivableAccountID:     byNumber[NumberReceivable],
		PayableAccountID:        byNumber[NumberPayable],
		UndepositedFundsID:      byNumber[NumberUndeposited],
		SalesTaxAccountID:       byNumber[NumberSalesTax],
		OpeningBalanceAccountID: byNumber[NumberOpeningBalance],
		DefaultBankAccountID:    byNumber[NumberChecking],
		FiscalYearStart:         fiscalYearStart,
	}
}
