// Package storage provides the SQLite rate table the loader builds trees from.
//
// Information Hiding:
// - SQLite connection management hidden behind SqliteStorage
// - Schema and pagination details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/richinex/codedir/model"
)

// RateRow is one row of the rate table. Rate and Code are kept as text;
// they are validated when a tree is built.
type RateRow struct {
	ID            int64
	VendorID      model.VendorID
	Code          string
	Rate          string
	EffectiveDate int64
	EndDate       int64
}

// CodenameRow assigns a code to a named region.
type CodenameRow struct {
	ID   int64
	Code string
	Name string
}

// SqliteStorage stores vendor rates and region codenames in a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			vendor_id INTEGER NOT NULL,
			code TEXT NOT NULL,
			rate TEXT NOT NULL DEFAULT '',
			effective_date INTEGER NOT NULL,
			end_date INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_rates_vendor
		ON rates(vendor_id, id);

		CREATE TABLE IF NOT EXISTS codenames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			name TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// AddRates appends rate rows in one transaction. Row IDs are assigned by the database.
func (s *SqliteStorage) AddRates(ctx context.Context, rows []RateRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO rates (vendor_id, code, rate, effective_date, end_date) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx, int(row.VendorID), row.Code, row.Rate, row.EffectiveDate, row.EndDate)
		if err != nil {
			return fmt.Errorf("failed to insert rate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddCodenames appends codename rows in one transaction.
func (s *SqliteStorage) AddCodenames(ctx context.Context, rows []CodenameRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO codenames (code, name) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, row.Code, row.Name); err != nil {
			return fmt.Errorf("failed to insert codename: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListVendorIDs lists every vendor with at least one rate row, ascending.
func (s *SqliteStorage) ListVendorIDs(ctx context.Context) ([]model.VendorID, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT vendor_id FROM rates ORDER BY vendor_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	vendors := []model.VendorID{} // Start with empty slice, not nil
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, model.VendorID(id))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}

	return vendors, nil
}

// DeleteVendor removes every rate row of a vendor.
func (s *SqliteStorage) DeleteVendor(ctx context.Context, id model.VendorID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rates WHERE vendor_id = ?", int(id))
	if err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	return nil
}

// ScanRates calls fn for every rate row of a vendor in insertion order,
// fetching pageSize rows per query. Iteration stops at the first error.
func (s *SqliteStorage) ScanRates(ctx context.Context, vendor model.VendorID, pageSize int, fn func(RateRow) error) error {
	if pageSize <= 0 {
		return fmt.Errorf("invalid page size %d", pageSize)
	}
	var after int64
	for {
		page, err := s.rateRows(ctx, vendor, after, pageSize)
		if err != nil {
			return err
		}
		for _, row := range page {
			if err := fn(row); err != nil {
				return err
			}
			after = row.ID
		}
		if len(page) < pageSize {
			return nil
		}
	}
}

func (s *SqliteStorage) rateRows(ctx context.Context, vendor model.VendorID, after int64, limit int) ([]RateRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vendor_id, code, rate, effective_date, end_date
		FROM rates
		WHERE vendor_id = ? AND id > ?
		ORDER BY id ASC
		LIMIT ?`,
		int(vendor), after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	var page []RateRow
	for rows.Next() {
		var r RateRow
		var id int
		if err := rows.Scan(&r.ID, &id, &r.Code, &r.Rate, &r.EffectiveDate, &r.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		r.VendorID = model.VendorID(id)
		page = append(page, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}
	return page, nil
}

// ScanCodenames calls fn for every codename row in insertion order,
// fetching pageSize rows per query.
func (s *SqliteStorage) ScanCodenames(ctx context.Context, pageSize int, fn func(CodenameRow) error) error {
	if pageSize <= 0 {
		return fmt.Errorf("invalid page size %d", pageSize)
	}
	var after int64
	for {
		page, err := s.codenameRows(ctx, after, pageSize)
		if err != nil {
			return err
		}
		for _, row := range page {
			if err := fn(row); err != nil {
				return err
			}
			after = row.ID
		}
		if len(page) < pageSize {
			return nil
		}
	}
}

func (s *SqliteStorage) codenameRows(ctx context.Context, after int64, limit int) ([]CodenameRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name FROM codenames WHERE id > ? ORDER BY id ASC LIMIT ?",
		after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query codenames: %w", err)
	}
	defer rows.Close()

	var page []CodenameRow
	for rows.Next() {
		var r CodenameRow
		if err := rows.Scan(&r.ID, &r.Code, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan codename: %w", err)
		}
		page = append(page, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating codenames: %w", err)
	}
	return page, nil
}
