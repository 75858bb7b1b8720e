package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
)

func newAdminServer(t *testing.T, users []adminUser) (*httptest.Server, *[]createUserRequest) {
	t.Helper()
	var created []createUserRequest

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "service-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(listUsersResponse{Users: users})
	})
	mux.HandleFunc("POST /auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		created = append(created, req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(adminUser{ID: "new-user", Email: req.Email})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &created
}

func TestAdminClient_FindUserID(t *testing.T) {
	srv, _ := newAdminServer(t, []adminUser{{ID: "u-1", Email: "Alice@Example.com"}})
	client := NewAdminClient(srv.URL+"/", "service-key")

	id, err := client.FindUserID(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	_, err = client.FindUserID(context.Background(), "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdminClient_EnsureUser(t *testing.T) {
	srv, created := newAdminServer(t, nil)
	client := NewAdminClient(srv.URL, "service-key")

	_, err := client.EnsureUser(context.Background(), "bob@example.com", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, *created)

	id, err := client.EnsureUser(context.Background(), "bob@example.com", "secret-pw")
	require.NoError(t, err)
	assert.Equal(t, "new-user", id)
	require.Len(t, *created, 1)
	assert.True(t, (*created)[0].EmailConfirm)
}

func TestAdminClient_BadServiceKey(t *testing.T) {
	srv, _ := newAdminServer(t, nil)
	client := NewAdminClient(srv.URL, "wrong")

	_, err := client.EnsureUser(context.Background(), "bob@example.com", "secret-pw")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
