package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"

	"expenses/internal/core"
	applog "expenses/internal/log"

	_ "modernc.org/sqlite"
)

const (
	categoryTable = "expense_category"
	expenseTable  = "expense"
)

var categoryColumns = []string{"id", "name", "description"}

var expenseColumns = []string{"id", "date", "description", "vendor", "category_id", "amount"}

// Config holds what is needed to open the database.
type Config struct {
	Path         string
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DSN returns the driver data source name for the configured file.
func (c Config) DSN() string {
	if c.BusyTimeout <= 0 {
		return c.Path
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", c.Path, c.BusyTimeout.Milliseconds())
}

// SQLiteRepository is the accessor over the expense_category and expense
// tables. Every method checks a connection out of the pool for its own
// duration and returns it on all paths.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(cfg Config) (*SQLiteRepository, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(cfg.DSN()); err != nil {
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

// Ping verifies that a connection can be acquired and used.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.withConn(ctx, "ping", func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// withConn runs fn on a connection checked out of the pool. Errors that are
// not already part of the domain taxonomy are wrapped in a StorageError.
func (r *SQLiteRepository) withConn(ctx context.Context, op string, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return &core.StorageError{Op: op, Err: err}
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		if core.IsNotFound(err) {
			return err
		}
		return &core.StorageError{Op: op, Err: err}
	}
	return nil
}

func execBuilder(ctx context.Context, conn *sql.Conn, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return conn.ExecContext(ctx, query, args...)
}

func queryBuilder(ctx context.Context, conn *sql.Conn, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return conn.QueryContext(ctx, query, args...)
}

func queryRowBuilder(ctx context.Context, conn *sql.Conn, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return conn.QueryRowContext(ctx, query, args...), nil
}

// InsertCategory stores c and returns the generated id. c.ID is ignored.
func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	var id int64
	err := r.withConn(ctx, "insert category", func(conn *sql.Conn) error {
		res, err := execBuilder(ctx, conn, sq.Insert(categoryTable).
			Columns("name", "description").
			Values(c.Name, c.Description))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}

	logger(ctx, applog.ComponentStorage).DebugContext(ctx, "Category saved to SQLite", "id", id, "name", c.Name)
	return id, nil
}

// UpdateCategory overwrites every field of the category with c.ID.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	return r.withConn(ctx, "update category", func(conn *sql.Conn) error {
		res, err := execBuilder(ctx, conn, sq.Update(categoryTable).
			Set("name", c.Name).
			Set("description", c.Description).
			Where(sq.Eq{"id": c.ID}))
		if err != nil {
			return err
		}
		return requireAffected(res, "category", c.ID)
	})
}

// DeleteCategory removes the category with id. Expenses that reference it
// are left untouched. It reports whether a row was removed.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, categoryTable, id)
}

// GetCategory returns the category with id or a NotFoundError.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.withConn(ctx, "get category", func(conn *sql.Conn) error {
		row, err := queryRowBuilder(ctx, conn, sq.Select(categoryColumns...).
			From(categoryTable).
			Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		err = row.Scan(&c.ID, &c.Name, &c.Description)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "category", ID: id}
		}
		return err
	})
	return c, err
}

// CategoryExists reports whether a category with id is stored.
func (r *SQLiteRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.withConn(ctx, "check category", func(conn *sql.Conn) error {
		row, err := queryRowBuilder(ctx, conn, sq.Select("COUNT(1)").
			From(categoryTable).
			Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		return row.Scan(&n)
	})
	return n > 0, err
}

// ListCategories returns every category in insertion order.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.listCategories(ctx, "id ASC")
}

// ListCategoriesByName returns every category ordered by name.
func (r *SQLiteRepository) ListCategoriesByName(ctx context.Context) ([]core.Category, error) {
	return r.listCategories(ctx, "name COLLATE NOCASE ASC", "id ASC")
}

func (r *SQLiteRepository) listCategories(ctx context.Context, orderBy ...string) ([]core.Category, error) {
	var categories []core.Category
	err := r.withConn(ctx, "list categories", func(conn *sql.Conn) error {
		rows, err := queryBuilder(ctx, conn, sq.Select(categoryColumns...).
			From(categoryTable).
			OrderBy(orderBy...))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c core.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
				return err
			}
			categories = append(categories, c)
		}
		return rows.Err()
	})
	return categories, err
}

// InsertExpense stores e and returns the generated id. e.ID is ignored.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	var id int64
	err := r.withConn(ctx, "insert expense", func(conn *sql.Conn) error {
		res, err := execBuilder(ctx, conn, sq.Insert(expenseTable).
			Columns("date", "description", "vendor", "category_id", "amount").
			Values(e.Date, e.Description, e.Vendor, e.CategoryID, e.Amount))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}

	logger(ctx, applog.ComponentStorage).DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"description", e.Description,
		"amount", e.Amount.String(),
		"category_id", e.CategoryID,
		"date", e.Date)
	return id, nil
}

// UpdateExpense overwrites every field of the expense with e.ID.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	return r.withConn(ctx, "update expense", func(conn *sql.Conn) error {
		res, err := execBuilder(ctx, conn, sq.Update(expenseTable).
			SetMap(map[string]any{
				"date":        e.Date,
				"description": e.Description,
				"vendor":      e.Vendor,
				"category_id": e.CategoryID,
				"amount":      e.Amount,
			}).
			Where(sq.Eq{"id": e.ID}))
		if err != nil {
			return err
		}
		return requireAffected(res, "expense", e.ID)
	})
}

// DeleteExpense removes the expense with id and reports whether it existed.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, expenseTable, id)
}

// GetExpense returns the expense with id or a NotFoundError.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var e core.Expense
	err := r.withConn(ctx, "get expense", func(conn *sql.Conn) error {
		row, err := queryRowBuilder(ctx, conn, sq.Select(expenseColumns...).
			From(expenseTable).
			Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		err = row.Scan(&e.ID, &e.Date, &e.Description, &e.Vendor, &e.CategoryID, &e.Amount)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "expense", ID: id}
		}
		return err
	})
	return e, err
}

// ListExpenses returns every expense with its category name, newest date
// first. Expenses whose category was deleted have an empty CategoryName.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.ExpenseListing, error) {
	var expenses []core.ExpenseListing
	err := r.withConn(ctx, "list expenses", func(conn *sql.Conn) error {
		rows, err := queryBuilder(ctx, conn, sq.Select(
			"e.id", "e.date", "e.description", "e.vendor", "e.category_id", "e.amount",
			"COALESCE(c.name, '')").
			From(expenseTable+" e").
			LeftJoin(categoryTable+" c ON c.id = e.category_id").
			OrderBy("e.date DESC", "e.id DESC"))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e core.ExpenseListing
			if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Vendor, &e.CategoryID, &e.Amount, &e.CategoryName); err != nil {
				return err
			}
			expenses = append(expenses, e)
		}
		return rows.Err()
	})
	return expenses, err
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	var deleted bool
	err := r.withConn(ctx, "delete from "+table, func(conn *sql.Conn) error {
		res, err := execBuilder(ctx, conn, sq.Delete(table).Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		logger(ctx, applog.ComponentStorage).DebugContext(ctx, "Row deleted", "table", table, "id", id)
	} else {
		logger(ctx, applog.ComponentStorage).DebugContext(ctx, "Delete matched no row", "table", table, "id", id)
	}
	return deleted, nil
}

func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func logger(ctx context.Context, component string) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(component)
}
