package core

import "time"

// LineItem is one credit or debit contributing to a month's net amount.
type LineItem struct {
	Name   string    `json:"name"`
	Amount Money     `json:"amount"`
	Type   EntryType `json:"type"`
}

// MonthlyBreakdown is the computed salary picture for one calendar month.
type MonthlyBreakdown struct {
	BaseAmount       Money      `json:"baseAmount"`
	Credits          Money      `json:"credits"`
	Debits           Money      `json:"debits"`
	SeasonalBonuses  Money      `json:"seasonalBonuses"`
	DeductionsAmount Money      `json:"deductionsAmount"`
	NetAmount        Money      `json:"netAmount"`
	Breakdown        []LineItem `json:"breakdown"`
}

// MonthlyProjection pairs a month with its breakdown.
type MonthlyProjection struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	YearMonth string           `json:"yearMonth"`
	Salary    MonthlyBreakdown `json:"salary"`
}

// SalarySnapshot is a persisted monthly breakdown for a household.
type SalarySnapshot struct {
	HouseholdID string
	YearMonth   YearMonth
	Salary      MonthlyBreakdown
	CreatedAt   time.Time
	ExportedAt  *time.Time
}
