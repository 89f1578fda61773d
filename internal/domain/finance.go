package domain

import "time"

// Account is a money container (checking, savings, card, cash).
type Account struct {
	ID        int64
	UserID    int64
	Name      string
	Type      string
	Currency  string
	Balance   int64 // minor units
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category labels transactions for budgeting and analytics.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Kind      string // "income" or "expense"
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Budget caps spending for a category within a calendar month.
type Budget struct {
	ID         int64
	UserID     int64
	CategoryID int64
	Month      string // YYYY-MM
	Limit      int64  // minor units
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Transaction is a single ledger entry against an account.
type Transaction struct {
	ID          int64
	UserID      int64
	AccountID   int64
	CategoryID  int64
	Amount      int64 // minor units, negative for expenses
	Description string
	OccurredAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// CategorySpend is one row of the spending-by-category aggregate.
type CategorySpend struct {
	CategoryID   int64
	CategoryName string
	Total        int64
}

// MonthlySummary aggregates cash flow for one calendar month.
type MonthlySummary struct {
	Month   string
	Income  int64
	Expense int64
}
