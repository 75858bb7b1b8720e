package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
)

func TestClassify(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name            string
		err             error
		wantUnreachable bool
		wantNotFound    bool
	}{
		{"no rows", pgx.ErrNoRows, false, true},
		{"dial failure", dialErr, true, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true, false},
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, true, false},
		{"invalid password", &pgconn.PgError{Code: "28P01"}, true, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			assert.Error(t, err)
			assert.Equal(t, tt.wantUnreachable, errors.Is(err, domain.ErrUnreachable))
			assert.Equal(t, tt.wantNotFound, errors.Is(err, domain.ErrNotFound))
			if !tt.wantNotFound {
				assert.ErrorIs(t, err, tt.err, "driver error must stay in the chain")
			}
		})
	}

	assert.NoError(t, classify("op", nil))
}

func TestIsPgForeignKeyError(t *testing.T) {
	assert.True(t, IsPgForeignKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsPgForeignKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsPgForeignKeyError(errors.New("plain")))
}

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("dev_")
	assert.Equal(t, "dev_folders", tables.Folders)
	assert.Equal(t, "dev_projects", tables.Projects)
}
