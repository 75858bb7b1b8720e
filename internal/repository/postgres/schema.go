package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkyoonha/searchedia-sub001/internal/domain/repositories"
)

// EnsureSchema creates the workspace tables if they don't exist. Ids are
// client-generated, so primary keys carry no defaults. Row ownership is a
// user_id predicate on every query.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, txManager repositories.TransactionManager) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				parent_id TEXT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_created_idx ON %s (user_id, created_at)`,
			tables.Folders, tables.Folders),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				items JSONB NOT NULL DEFAULT '[]'::jsonb,
				folder_id TEXT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, tables.Projects),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_created_idx ON %s (user_id, created_at)`,
			tables.Projects, tables.Projects),
	}

	return txManager.ExecTx(ctx, func(ctx context.Context) error {
		executor := GetExecutor(ctx, pool)
		for _, stmt := range statements {
			if _, err := executor.Exec(ctx, stmt); err != nil {
				return classify("ensure schema", err)
			}
		}
		return nil
	})
}

// DropSchema removes the workspace tables. Used by cmd/seed.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.Projects, tables.Folders} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return classify("drop "+table, err)
		}
	}
	return nil
}
