package schema

// FieldSpec describes one schema field for the mapper: a short description
// and the label aliases commonly seen in filings. The mapper prompt embeds
// these so the model can match raw labels semantically.
type FieldSpec struct {
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
	IsTotal     bool     `json:"is_total,omitempty"`
}

// Catalog is the global field catalog, keyed by section then field name.
// Top-level totals appear under their section name with the empty field key.
var Catalog = map[string]map[string]FieldSpec{
	SectionEquity: {
		"ShareCapital": {
			Description: "Share capital / Common stock / Issued capital",
			Aliases:     []string{"Share Capital", "Shares held", "Share Stock", "Common Stock"},
		},
		"ReservesAndSurplus": {
			Description: "Retained earnings, reserves, accumulated profits",
			Aliases:     []string{"Reserves and Surplus", "Retained Earnings", "Accumulated Profit", "Reserves"},
		},
		"OtherEquity": {
			Description: "Other equity components, treasury stock, other reserves",
			Aliases:     []string{"Other Equity", "Other Reserves", "Treasury Stock"},
		},
		"TotalEquity": {
			Description: "Total equity (sum of all equity components)",
			Aliases:     []string{"Total Equity", "Total Shareholders' Funds", "Total Capital"},
			IsTotal:     true,
		},
	},
	SectionNonCurrentLiabilities: {
		"LongTermBorrowings": {
			Description: "Long-term loans, bonds, debentures",
			Aliases:     []string{"Long-term Borrowings", "Long Term Debt", "Bonds Payable"},
		},
		"DeferredTaxLiabilities": {
			Description: "Deferred tax liabilities from temporary differences",
			Aliases:     []string{"Deferred Tax Liabilities", "Deferred Tax", "Tax Payable (Deferred)"},
		},
		"LongTermProvisions": {
			Description: "Provisions for long-term obligations (pensions, warranties)",
			Aliases:     []string{"Long term Provision", "Long-term Provisions", "Pension Obligations"},
		},
		"OtherNonCurrentLiabilities": {
			Description: "Other long-term liabilities not classified elsewhere",
			Aliases:     []string{"Other Non-current Liabilities", "Other Long-term Liabilities"},
		},
		"TotalNonCurrentLiabilities": {
			Description: "Total non-current liabilities",
			Aliases:     []string{"Total Non-current Liabilities", "Total Long-term Liabilities"},
			IsTotal:     true,
		},
	},
	SectionCurrentLiabilities: {
		"ShortTermBorrowings": {
			Description: "Short-term loans, overdrafts, current portion of long-term debt",
			Aliases:     []string{"Short-term Borrowings", "Short Term Debt", "Bank Overdraft", "Current Portion of Long-term Debt"},
		},
		"TradePayables": {
			Description: "Accounts payable to suppliers",
			Aliases:     []string{"Trade Payables", "Accounts Payable", "Creditors"},
		},
		"OtherCurrentLiabilities": {
			Description: "Other short-term liabilities (accruals, deferred revenue)",
			Aliases:     []string{"Other Current Liabilities", "Accrued Expenses", "Short-term Accruals"},
		},
		"ShortTermProvisions": {
			Description: "Provisions for short-term obligations",
			Aliases:     []string{"Short-term Provisions", "Current Provisions"},
		},
		"TotalCurrentLiabilities": {
			Description: "Total current liabilities",
			Aliases:     []string{"Total Current Liabilities", "Total Short-term Liabilities"},
			IsTotal:     true,
		},
	},
	SectionNonCurrentAssets: {
		"PropertyPlantEquipmentNet": {
			Description: "PP&E net of accumulated depreciation",
			Aliases:     []string{"Property Plant and Equipment", "Fixed Assets", "PPE", "Tangible Assets (Net)"},
		},
		"CapitalWorkInProgress": {
			Description: "Assets under construction or development",
			Aliases:     []string{"Capital Work in Progress", "CWIP", "Construction in Progress"},
		},
		"RightOfUseAssets": {
			Description: "Right-of-use assets under lease agreements (IFRS 16/ASC 842)",
			Aliases:     []string{"Right of Use Assets", "Lease Assets", "ROU Assets"},
		},
		"IntangibleAssets": {
			Description: "Goodwill, patents, trademarks, software",
			Aliases:     []string{"Intangible Assets", "Goodwill", "Patents", "Intellectual Property"},
		},
		"IntangibleAssetsUnderDevelopment": {
			Description: "Intangible assets still in development phase",
			Aliases:     []string{"Intangible Assets under Development", "Intangibles Under Development"},
		},
		"FinancialAssets": {
			Description: "Long-term investments, securities, loans given",
			Aliases:     []string{"Financial Assets", "Long-term Investments", "Investment Securities"},
		},
		"DeferredTaxAsset": {
			Description: "Deferred tax asset from temporary differences and tax losses",
			Aliases:     []string{"Deferred Tax Asset", "Tax Asset (Deferred)"},
		},
		"OtherNonCurrentAssets": {
			Description: "Other long-term assets not classified elsewhere",
			Aliases:     []string{"Other Non-current Assets", "Other Long-term Assets", "Long-term Loans and Advances"},
		},
		"TotalNonCurrentAssets": {
			Description: "Total non-current assets",
			Aliases:     []string{"Total Non-current Assets", "Total Fixed Assets"},
			IsTotal:     true,
		},
	},
	SectionCurrentAssets: {
		"Inventories": {
			Description: "Stock of goods, raw materials, work in progress",
			Aliases:     []string{"Inventories", "Stock", "Inventory", "Raw Materials", "Finished Goods"},
		},
		"TradeReceivables": {
			Description: "Accounts receivable from customers",
			Aliases:     []string{"Trade Receivables", "Accounts Receivable", "Debtors"},
		},
		"CashAndCashEquivalents": {
			Description: "Cash on hand, bank accounts, short-term deposits",
			Aliases:     []string{"Cash and Cash Equivalents", "Cash", "Bank Balance", "Short-term Deposits"},
		},
		"OtherCurrentAssets": {
			Description: "Other short-term assets (prepaid expenses, short-term advances)",
			Aliases:     []string{"Other Current Assets", "Prepaid Expenses", "Short-term Advances"},
		},
		"TotalCurrentAssets": {
			Description: "Total current assets",
			Aliases:     []string{"Total Current Assets"},
			IsTotal:     true,
		},
	},
	SectionLiabilitiesTotal: {
		"": {
			Description: "Total liabilities (current + non-current)",
			Aliases:     []string{"Total Liabilities"},
			IsTotal:     true,
		},
	},
	SectionAssetsTotal: {
		"": {
			Description: "Total assets (current + non-current)",
			Aliases:     []string{"Total Assets"},
			IsTotal:     true,
		},
	},
}
