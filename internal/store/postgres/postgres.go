// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/query"
	"github.com/alfredjeanlab/prestataires/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithRetry calls New until it succeeds, the context is done, or attempts
// are exhausted, doubling the wait between attempts up to 10s. Useful when the
// database container starts alongside the server.
func NewWithRetry(ctx context.Context, databaseURL string, attempts int, onRetry func(attempt int, err error)) (*PostgresStore, error) {
	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		s, err := New(databaseURL)
		if err == nil {
			return s, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 10*time.Second)
	}
	return nil, lastErr
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) ListVendors(ctx context.Context, q *query.Query, limit, offset int) ([]*model.Vendor, error) {
	return queryListVendors(ctx, s.db, q, limit, offset)
}

func (s *PostgresStore) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	return notFound(queryGetVendor(ctx, s.db, id))
}

func (s *PostgresStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	return conflictErr(queryCreateVendor(ctx, s.db, v))
}

func (s *PostgresStore) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	return notFoundErr(queryUpdateVendor(ctx, s.db, v))
}

func (s *PostgresStore) DeleteVendor(ctx context.Context, id string) error {
	return notFoundErr(queryDeleteVendor(ctx, s.db, id))
}

func (s *PostgresStore) AddPhoto(ctx context.Context, p *model.Photo) error {
	return queryAddPhoto(ctx, s.db, p)
}

func (s *PostgresStore) ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error) {
	return queryListPhotos(ctx, s.db, vendorID)
}

func (s *PostgresStore) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	return queryPrimaryPhoto(ctx, s.db, vendorID)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) ListVendors(ctx context.Context, q *query.Query, limit, offset int) ([]*model.Vendor, error) {
	return queryListVendors(ctx, s.tx, q, limit, offset)
}

func (s *txStore) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	return notFound(queryGetVendor(ctx, s.tx, id))
}

func (s *txStore) CreateVendor(ctx context.Context, v *model.Vendor) error {
	return conflictErr(queryCreateVendor(ctx, s.tx, v))
}

func (s *txStore) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	return notFoundErr(queryUpdateVendor(ctx, s.tx, v))
}

func (s *txStore) DeleteVendor(ctx context.Context, id string) error {
	return notFoundErr(queryDeleteVendor(ctx, s.tx, id))
}

func (s *txStore) AddPhoto(ctx context.Context, p *model.Photo) error {
	return queryAddPhoto(ctx, s.tx, p)
}

func (s *txStore) ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error) {
	return queryListPhotos(ctx, s.tx, vendorID)
}

func (s *txStore) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	return queryPrimaryPhoto(ctx, s.tx, vendorID)
}

// RunInTransaction on a txStore just calls fn with itself (no nested transactions).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *txStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for txStore; the transaction is managed by RunInTransaction.
func (s *txStore) Close() error {
	return nil
}

func notFound[T any](v T, err error) (T, error) {
	return v, notFoundErr(err)
}

func notFoundErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// uniqueViolation is the Postgres SQLSTATE for a duplicate key.
const uniqueViolation pq.ErrorCode = "23505"

func conflictErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("vendor: %w", store.ErrConflict)
	}
	return err
}
