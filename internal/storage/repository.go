package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/query"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the transactions table. Every method runs exactly one
// statement, so each write is atomic on its own.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := Migrate(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert stores e and returns the id assigned by SQLite.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (type, amount_cents, category, description, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(e.Kind),
		e.Amount.Cents,
		e.Category,
		nullString(e.Description),
		core.FormatTimestamp(e.OccurredAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"type", e.Kind,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)

	return id, nil
}

// Get returns the entry with the given id or core.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Entry, error) {
	sqlText, args, err := query.CompileSelect(query.Select{Where: query.Eq{Column: query.ColID, Value: id}})
	if err != nil {
		return core.Entry{}, err
	}

	e, err := scanEntry(r.db.QueryRowContext(ctx, sqlText, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return e, nil
}

// Find returns the entries selected by q.
func (r *SQLiteRepository) Find(ctx context.Context, q query.Select) ([]core.Entry, error) {
	sqlText, args, err := query.CompileSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	entries := make([]core.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}

// Delete removes every row matching where in one statement and returns the
// ids that were actually removed, ascending.
func (r *SQLiteRepository) Delete(ctx context.Context, where query.Predicate) ([]int64, error) {
	sqlText, args, err := query.CompileDelete(query.Delete{Where: where})
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete transactions: %w", err)
	}

	slices.Sort(ids)
	slog.InfoContext(ctx, "Transactions deleted from SQLite", "count", len(ids))
	return ids, nil
}

// Totals sums the whole table by kind.
func (r *SQLiteRepository) Totals(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	var incomeCount, expenseCount int64
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income'  THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents END), 0),
			COUNT(CASE WHEN type = 'income'  THEN 1 END),
			COUNT(CASE WHEN type = 'expense' THEN 1 END)
		FROM transactions
	`).Scan(&s.TotalIncome.Cents, &s.TotalExpense.Cents, &incomeCount, &expenseCount)
	if err != nil {
		// SQLite refuses to wrap SUM over int64 and reports it as a plain error.
		if strings.Contains(err.Error(), "integer overflow") {
			return core.Summary{}, fmt.Errorf("sum transactions: %w", core.ErrAmountOverflow)
		}
		return core.Summary{}, fmt.Errorf("sum transactions: %w", err)
	}
	s.IncomeCount = int(incomeCount)
	s.ExpenseCount = int(expenseCount)
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (core.Entry, error) {
	var (
		e          core.Entry
		kind       string
		desc       sql.NullString
		occurredAt string
	)
	if err := s.Scan(&e.ID, &kind, &e.Amount.Cents, &e.Category, &desc, &occurredAt); err != nil {
		return core.Entry{}, err
	}
	t, err := time.Parse(core.TimestampLayout, occurredAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
	}
	e.Kind = core.Kind(kind)
	e.Description = desc.String
	e.OccurredAt = t
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
