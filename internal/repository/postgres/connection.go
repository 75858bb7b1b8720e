package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkyoonha/searchedia-sub001/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Folders  string
	Projects string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Folders:  fmt.Sprintf("%sfolders", prefix),
		Projects: fmt.Sprintf("%sprojects", prefix),
	}
}

// CreateConnectionPool creates a pgx pool sized for a single device.
//
// Port 6543 is Supabase's transaction pooler (PgBouncer), which does not
// support prepared statements. On that port the pool switches to
// QueryExecModeCacheDescribe, which keeps the extended protocol (needed for
// JSONB parameters) without creating named statements. An explicit
// default_query_exec_mode in the URL takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// One user, a handful of concurrent outbox writes
	config.MaxConns = 8
	config.MinConns = 0

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// The daemon must start offline, so a failed ping is only logged
	if err := pool.Ping(ctx); err != nil {
		slog.Warn("remote database not reachable at startup", "error", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction in ctx if there is one, otherwise pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}
