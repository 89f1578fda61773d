package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrTokenConflict is returned by Rotate when the old record was already
// revoked, expired, or rotated by a concurrent request. Exactly one of two
// racing rotations observes the successful conditional update; the other
// gets this error.
var ErrTokenConflict = errors.New("refresh token already rotated or revoked")

// UserRepository exposes persistence for account holders.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// TokenRepository handles refresh-token records. Rotate must be atomic: the
// conditional revoke of the old record, the successor link, and the insert of
// the replacement either all commit or none do. Backends without
// transactions must provide equivalent compare-and-set semantics.
type TokenRepository interface {
	Save(ctx context.Context, token domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (domain.RefreshToken, error)
	Rotate(ctx context.Context, oldHash string, next domain.RefreshToken) error
	// Revoke marks the record revoked; it reports false (no error) when the
	// hash is unknown or already revoked.
	Revoke(ctx context.Context, hash string) (bool, error)
}

// AccountRepository persists accounts, scoped to their owner.
type AccountRepository interface {
	List(ctx context.Context, userID int64) ([]domain.Account, error)
	Get(ctx context.Context, userID, id int64) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
	Delete(ctx context.Context, userID, id int64) error
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	List(ctx context.Context, userID int64) ([]domain.Category, error)
	Get(ctx context.Context, userID, id int64) (domain.Category, error)
	Create(ctx context.Context, category domain.Category) (domain.Category, error)
	Update(ctx context.Context, category domain.Category) (domain.Category, error)
	Delete(ctx context.Context, userID, id int64) error
}

// BudgetRepository persists monthly category budgets.
type BudgetRepository interface {
	List(ctx context.Context, userID int64) ([]domain.Budget, error)
	Get(ctx context.Context, userID, id int64) (domain.Budget, error)
	Create(ctx context.Context, budget domain.Budget) (domain.Budget, error)
	Update(ctx context.Context, budget domain.Budget) (domain.Budget, error)
	Delete(ctx context.Context, userID, id int64) error
}

// TransactionRepository persists ledger entries.
type TransactionRepository interface {
	List(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Get(ctx context.Context, userID, id int64) (domain.Transaction, error)
	Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	Update(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
}

// AnalyticsRepository serves read-only aggregates.
type AnalyticsRepository interface {
	SpendingByCategory(ctx context.Context, userID int64, from, to time.Time) ([]domain.CategorySpend, error)
	MonthlySummary(ctx context.Context, userID int64, months int) ([]domain.MonthlySummary, error)
}
