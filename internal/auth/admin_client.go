package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
)

// AdminClient provides access to the Supabase Admin API.
// Used by the seeder to resolve fixture owners, never by the sync engine.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a new Supabase Admin API client.
// Requires the service role key (SUPABASE_KEY) for elevated permissions.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// createUserRequest is the payload for creating a new user
type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

// adminUser is a user as returned by the admin API
type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []adminUser `json:"users"`
}

// EnsureUser returns the id of the user with email. When no such user
// exists and password is non-empty the user is created (auto-confirmed);
// with an empty password a missing user is domain.ErrNotFound.
func (c *AdminClient) EnsureUser(ctx context.Context, email, password string) (string, error) {
	id, err := c.FindUserID(ctx, email)
	if err == nil {
		return id, nil
	}
	if password == "" || !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	return c.CreateUser(ctx, email, password)
}

// FindUserID searches for a user by email and returns their ID.
func (c *AdminClient) FindUserID(ctx context.Context, email string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/admin/users", nil)
	if err != nil {
		return "", err
	}

	var listResp listUsersResponse
	if err := c.do(req, http.StatusOK, &listResp); err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}

	for _, user := range listResp.Users {
		if strings.EqualFold(user.Email, email) {
			return user.ID, nil
		}
	}
	return "", fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

// CreateUser creates a confirmed user and returns its id.
func (c *AdminClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/admin/users", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var created adminUser
	if err := c.do(req, http.StatusOK, &created); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return created.ID, nil
}

func (c *AdminClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	return req, nil
}

// do sends req and decodes the body into dst. 201 is accepted alongside
// okStatus.
func (c *AdminClient) do(req *http.Request, okStatus int, dst any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == okStatus, resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrUnauthorized)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
