// Package postgres records finished episodes in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/hexwar/internal/config"
)

// SchemaVersion is the migration version EpisodeRepository queries against.
// cmd/migrate must have brought the database at least this far.
const SchemaVersion uint = 1

var (
	// ErrSchemaMissing is returned when no migration has been applied.
	ErrSchemaMissing = errors.New("episode schema not migrated")
	// ErrSchemaDirty is returned when the last migration failed half way.
	ErrSchemaDirty = errors.New("episode schema is dirty")
	// ErrSchemaOutdated is returned when the applied version predates SchemaVersion.
	ErrSchemaOutdated = errors.New("episode schema is outdated")
)

// Pool is the connection pool behind the episode log.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the episode database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. The schema is
// not checked; use Health for that.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "hexwar"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// SchemaVersion reads the version golang-migrate recorded in schema_migrations.
//
// Postcondition: Returns ErrSchemaMissing when the table is absent or empty.
func (p *Pool) SchemaVersion(ctx context.Context) (version uint, dirty bool, err error) {
	var v int64
	err = p.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&v, &dirty)
	switch {
	case errors.Is(err, pgx.ErrNoRows), isUndefinedTableError(err):
		return 0, false, ErrSchemaMissing
	case err != nil:
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return uint(v), dirty, nil
}

// Health checks that the database answers within timeout and carries a clean
// episode schema at SchemaVersion or later.
//
// Precondition: The pool must not be closed.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	version, dirty, err := p.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	return checkSchema(version, dirty)
}

func checkSchema(version uint, dirty bool) error {
	if dirty {
		return fmt.Errorf("%w at version %d; fix it with cmd/migrate", ErrSchemaDirty, version)
	}
	if version < SchemaVersion {
		return fmt.Errorf("%w: at version %d, need %d", ErrSchemaOutdated, version, SchemaVersion)
	}
	return nil
}

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// OpenEpisodeRepository connects, verifies the schema and returns a repository
// together with the func that closes its pool.
//
// Postcondition: on error no connection is left open.
func OpenEpisodeRepository(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*EpisodeRepository, func(), error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Health(ctx, timeout); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return NewEpisodeRepository(pool.DB()), pool.Close, nil
}

// isUndefinedTableError reports SQLSTATE 42P01.
func isUndefinedTableError(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "42P01"
}
