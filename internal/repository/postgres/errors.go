package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
)

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = foreign_key_violation
		return pgErr.Code == "23503"
	}
	return false
}

// IsPgAuthError checks for insufficient privilege or invalid authorization
func IsPgAuthError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 42501 = insufficient_privilege, 28xxx = invalid authorization
		return pgErr.Code == "42501" || (len(pgErr.Code) == 5 && pgErr.Code[:2] == "28")
	}
	return false
}

// IsConnectionError reports failures that happened before the server could
// answer: dial errors, timeouts, dropped connections.
func IsConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

// classify wraps a driver error for the engine. Network and auth failures
// become domain.ErrUnreachable; the original error stays in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsPgNoRowsError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if IsConnectionError(err) || IsPgAuthError(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnreachable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Classify is classify for adapters in sub-packages.
func Classify(op string, err error) error {
	return classify(op, err)
}
