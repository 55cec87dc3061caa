package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gofinances/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists categories and transactions.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetCategoryByTitle returns the category with an exact title match, or nil
// when none exists.
func (r *SQLiteRepository) GetCategoryByTitle(ctx context.Context, title string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM categories WHERE title = ?`, title)

	var c core.Category
	var id string
	if err := row.Scan(&id, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get category by title: %w", err)
	}
	c.ID, _ = uuid.Parse(id)
	return &c, nil
}

// GetCategoriesByTitles returns every category whose title is in the given
// set. Titles with no match are simply absent from the result.
func (r *SQLiteRepository) GetCategoriesByTitles(ctx context.Context, titles []string) ([]core.Category, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(titles)), ",")
	args := make([]any, len(titles))
	for i, t := range titles {
		args[i] = t
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM categories WHERE title IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get categories by titles: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		var id string
		if err := rows.Scan(&id, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID, _ = uuid.Parse(id)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a single category. The unique index on title makes
// a duplicate insert fail; callers racing on the same title should re-fetch.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, title string) (core.Category, error) {
	c := core.Category{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	c.UpdatedAt = c.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID.String(), c.Title, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", c.ID, "title", c.Title)
	return c, nil
}

// SaveCategories inserts all given titles in one transaction and returns the
// persisted records with identifiers and timestamps assigned. Titles must
// already be deduplicated against each other and against existing rows.
func (r *SQLiteRepository) SaveCategories(ctx context.Context, titles []string) ([]core.Category, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	categories := make([]core.Category, 0, len(titles))
	for _, title := range titles {
		c := core.Category{
			ID:        uuid.New(),
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			c.ID.String(), c.Title, c.CreatedAt, c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("insert category %q: %w", title, err)
		}
		categories = append(categories, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit categories: %w", err)
	}

	slog.InfoContext(ctx, "Categories saved", "count", len(categories))
	return categories, nil
}

// CreateTransaction persists one transaction. For outcome transactions the
// balance is re-read inside the same SQL transaction as the insert, so two
// concurrent outcomes cannot both pass the check against a stale total.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if t.Kind == core.Outcome {
		balance, err := getBalance(ctx, tx)
		if err != nil {
			return core.Transaction{}, err
		}
		if balance.Total.LessThan(t.Amount) {
			return core.Transaction{}, core.ErrInsufficientBalance
		}
	}

	saved, err := insertTransaction(ctx, tx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", saved.ID,
		"title", saved.Title,
		"kind", saved.Kind,
		"amount", saved.Amount)
	return saved, nil
}

// SaveTransactions persists all given transactions in one batch, preserving
// their order. No balance check is applied on this path.
func (r *SQLiteRepository) SaveTransactions(ctx context.Context, transactions []core.Transaction) ([]core.Transaction, error) {
	if len(transactions) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		s, err := insertTransaction(ctx, tx, t)
		if err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved", "count", len(saved))
	return saved, nil
}

// GetBalance returns the aggregate of all persisted transactions.
func (r *SQLiteRepository) GetBalance(ctx context.Context) (core.Balance, error) {
	return getBalance(ctx, r.db)
}

// ListTransactions returns all transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, kind, amount_cents, category_id, created_at, updated_at
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getBalance(ctx context.Context, q querier) (core.Balance, error) {
	row := q.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN kind = 'outcome' THEN amount_cents ELSE 0 END), 0)
		 FROM transactions`)

	var incomeCents, outcomeCents int64
	if err := row.Scan(&incomeCents, &outcomeCents); err != nil {
		return core.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	income := core.FromCents(incomeCents)
	outcome := core.FromCents(outcomeCents)
	return core.Balance{
		Income:  income,
		Outcome: outcome,
		Total:   income.Sub(outcome),
	}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, e execer, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt

	var categoryID any
	if t.CategoryID != uuid.Nil {
		categoryID = t.CategoryID.String()
	}

	_, err := e.ExecContext(ctx,
		`INSERT INTO transactions (id, title, kind, amount_cents, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Title, string(t.Kind), core.Cents(t.Amount), categoryID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction %q: %w", t.Title, err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var id, kind string
	var amountCents int64
	var categoryID sql.NullString
	if err := row.Scan(&id, &t.Title, &kind, &amountCents, &categoryID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.ID, _ = uuid.Parse(id)
	t.Kind = core.Kind(kind)
	t.Amount = core.FromCents(amountCents)
	if categoryID.Valid {
		t.CategoryID, _ = uuid.Parse(categoryID.String)
	}
	return t, nil
}
