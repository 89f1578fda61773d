package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/domain"
)

var (
	_ AccountRepository     = (*PostgresAccountRepo)(nil)
	_ CategoryRepository    = (*PostgresCategoryRepo)(nil)
	_ BudgetRepository      = (*PostgresBudgetRepo)(nil)
	_ TransactionRepository = (*PostgresTransactionRepo)(nil)
	_ AnalyticsRepository   = (*PostgresAnalyticsRepo)(nil)
)

// PostgresAccountRepo implements AccountRepository.
type PostgresAccountRepo struct {
	db *pgxpool.Pool
}

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: pool}
}

const selectAccountSQL = `SELECT id, user_id, name, type, currency, balance, created_at, updated_at FROM accounts`

func (r *PostgresAccountRepo) List(ctx context.Context, userID int64) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, selectAccountSQL+` WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresAccountRepo) Get(ctx context.Context, userID, id int64) (domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectAccountSQL+` WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *PostgresAccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	const q = `INSERT INTO accounts (id, user_id, name, type, currency, balance)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, name, type, currency, balance, created_at, updated_at`
	return scanAccount(r.db.QueryRow(ctx, q, a.ID, a.UserID, a.Name, a.Type, a.Currency, a.Balance))
}

func (r *PostgresAccountRepo) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	const q = `UPDATE accounts SET name = $3, type = $4, currency = $5, balance = $6, updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, name, type, currency, balance, created_at, updated_at`
	return scanAccount(r.db.QueryRow(ctx, q, a.UserID, a.ID, a.Name, a.Type, a.Currency, a.Balance))
}

func (r *PostgresAccountRepo) Delete(ctx context.Context, userID, id int64) error {
	return deleteOwned(ctx, r.db, "accounts", userID, id)
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Currency, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

// PostgresCategoryRepo implements CategoryRepository.
type PostgresCategoryRepo struct {
	db *pgxpool.Pool
}

func NewPostgresCategoryRepo(pool *pgxpool.Pool) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: pool}
}

const selectCategorySQL = `SELECT id, user_id, name, kind, color, created_at, updated_at FROM categories`

func (r *PostgresCategoryRepo) List(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, selectCategorySQL+` WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCategoryRepo) Get(ctx context.Context, userID, id int64) (domain.Category, error) {
	return scanCategory(r.db.QueryRow(ctx, selectCategorySQL+` WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *PostgresCategoryRepo) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	const q = `INSERT INTO categories (id, user_id, name, kind, color)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, name, kind, color, created_at, updated_at`
	return scanCategory(r.db.QueryRow(ctx, q, c.ID, c.UserID, c.Name, c.Kind, c.Color))
}

func (r *PostgresCategoryRepo) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	const q = `UPDATE categories SET name = $3, kind = $4, color = $5, updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, name, kind, color, created_at, updated_at`
	return scanCategory(r.db.QueryRow(ctx, q, c.UserID, c.ID, c.Name, c.Kind, c.Color))
}

func (r *PostgresCategoryRepo) Delete(ctx context.Context, userID, id int64) error {
	return deleteOwned(ctx, r.db, "categories", userID, id)
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, ErrNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("scan category: %w", err)
	}
	return c, nil
}

// PostgresBudgetRepo implements BudgetRepository.
type PostgresBudgetRepo struct {
	db *pgxpool.Pool
}

func NewPostgresBudgetRepo(pool *pgxpool.Pool) *PostgresBudgetRepo {
	return &PostgresBudgetRepo{db: pool}
}

const selectBudgetSQL = `SELECT id, user_id, category_id, month, spend_limit, created_at, updated_at FROM budgets`

func (r *PostgresBudgetRepo) List(ctx context.Context, userID int64) ([]domain.Budget, error) {
	rows, err := r.db.Query(ctx, selectBudgetSQL+` WHERE user_id = $1 ORDER BY month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresBudgetRepo) Get(ctx context.Context, userID, id int64) (domain.Budget, error) {
	return scanBudget(r.db.QueryRow(ctx, selectBudgetSQL+` WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *PostgresBudgetRepo) Create(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	const q = `INSERT INTO budgets (id, user_id, category_id, month, spend_limit)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, category_id, month, spend_limit, created_at, updated_at`
	return scanBudget(r.db.QueryRow(ctx, q, b.ID, b.UserID, b.CategoryID, b.Month, b.Limit))
}

func (r *PostgresBudgetRepo) Update(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	const q = `UPDATE budgets SET category_id = $3, month = $4, spend_limit = $5, updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, category_id, month, spend_limit, created_at, updated_at`
	return scanBudget(r.db.QueryRow(ctx, q, b.UserID, b.ID, b.CategoryID, b.Month, b.Limit))
}

func (r *PostgresBudgetRepo) Delete(ctx context.Context, userID, id int64) error {
	return deleteOwned(ctx, r.db, "budgets", userID, id)
}

func scanBudget(row pgx.Row) (domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Month, &b.Limit, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Budget{}, ErrNotFound
	}
	if err != nil {
		return domain.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	return b, nil
}

// PostgresTransactionRepo implements TransactionRepository.
type PostgresTransactionRepo struct {
	db *pgxpool.Pool
}

func NewPostgresTransactionRepo(pool *pgxpool.Pool) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: pool}
}

const selectTransactionSQL = `SELECT id, user_id, account_id, category_id, amount, description, occurred_at, created_at, updated_at FROM transactions`

func (r *PostgresTransactionRepo) List(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var (
		where = []string{"user_id = $1"}
		args  = []any{userID}
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, clause+" $"+strconv.Itoa(len(args)))
	}
	if filter.AccountID != 0 {
		add("account_id =", filter.AccountID)
	}
	if filter.CategoryID != 0 {
		add("category_id =", filter.CategoryID)
	}
	if !filter.From.IsZero() {
		add("occurred_at >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_at <", filter.To)
	}

	q := selectTransactionSQL + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY occurred_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	q += ` LIMIT $` + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTransactionRepo) Get(ctx context.Context, userID, id int64) (domain.Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, selectTransactionSQL+` WHERE user_id = $1 AND id = $2`, userID, id))
}

func (r *PostgresTransactionRepo) Create(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	const q = `INSERT INTO transactions (id, user_id, account_id, category_id, amount, description, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, account_id, category_id, amount, description, occurred_at, created_at, updated_at`
	return scanTransaction(r.db.QueryRow(ctx, q,
		t.ID, t.UserID, t.AccountID, t.CategoryID, t.Amount, t.Description, t.OccurredAt))
}

func (r *PostgresTransactionRepo) Update(ctx context.Context, t domain.Transaction) (domain.Transaction, error) {
	const q = `UPDATE transactions SET account_id = $3, category_id = $4, amount = $5, description = $6, occurred_at = $7, updated_at = now()
WHERE user_id = $1 AND id = $2
RETURNING id, user_id, account_id, category_id, amount, description, occurred_at, created_at, updated_at`
	return scanTransaction(r.db.QueryRow(ctx, q,
		t.UserID, t.ID, t.AccountID, t.CategoryID, t.Amount, t.Description, t.OccurredAt))
}

func (r *PostgresTransactionRepo) Delete(ctx context.Context, userID, id int64) error {
	return deleteOwned(ctx, r.db, "transactions", userID, id)
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &t.Amount, &t.Description, &t.OccurredAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transaction{}, ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

// PostgresAnalyticsRepo implements AnalyticsRepository.
type PostgresAnalyticsRepo struct {
	db *pgxpool.Pool
}

func NewPostgresAnalyticsRepo(pool *pgxpool.Pool) *PostgresAnalyticsRepo {
	return &PostgresAnalyticsRepo{db: pool}
}

func (r *PostgresAnalyticsRepo) SpendingByCategory(ctx context.Context, userID int64, from, to time.Time) ([]domain.CategorySpend, error) {
	const q = `SELECT c.id, c.name, COALESCE(SUM(-t.amount), 0) AS total
FROM categories c
JOIN transactions t ON t.category_id = c.id AND t.user_id = c.user_id
WHERE c.user_id = $1 AND t.amount < 0 AND t.occurred_at >= $2 AND t.occurred_at < $3
GROUP BY c.id, c.name
ORDER BY total DESC`
	rows, err := r.db.Query(ctx, q, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	var out []domain.CategorySpend
	for rows.Next() {
		var s domain.CategorySpend
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Total); err != nil {
			return nil, fmt.Errorf("scan spending row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresAnalyticsRepo) MonthlySummary(ctx context.Context, userID int64, months int) ([]domain.MonthlySummary, error) {
	if months <= 0 || months > 36 {
		months = 6
	}
	const q = `SELECT to_char(date_trunc('month', occurred_at), 'YYYY-MM') AS month,
	COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS income,
	COALESCE(SUM(-amount) FILTER (WHERE amount < 0), 0) AS expense
FROM transactions
WHERE user_id = $1 AND occurred_at >= date_trunc('month', now()) - ($2 || ' months')::interval
GROUP BY 1
ORDER BY 1`
	rows, err := r.db.Query(ctx, q, userID, months-1)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlySummary
	for rows.Next() {
		var m domain.MonthlySummary
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func deleteOwned(ctx context.Context, db *pgxpool.Pool, table string, userID, id int64) error {
	tag, err := db.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
