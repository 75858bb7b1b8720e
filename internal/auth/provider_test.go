package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	"github.com/parkyoonha/searchedia-sub001/internal/domain/models"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, secret, subject, role string, method jwt.SigningMethod) string {
	t.Helper()
	claims := models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: subject + "@example.com",
		Role:  role,
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	verifier, err := NewHMACVerifier(testSecret, testLogger())
	require.NoError(t, err)
	return NewProvider(verifier, testLogger())
}

func recv(t *testing.T, ch <-chan models.AuthEvent) models.AuthEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no auth event delivered")
		return models.AuthEvent{}
	}
}

func TestHMACVerifier(t *testing.T) {
	verifier, err := NewHMACVerifier(testSecret, testLogger())
	require.NoError(t, err)

	claims, err := verifier.VerifyToken(signToken(t, testSecret, "user-1", "authenticated", jwt.SigningMethodHS256))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.GetUserID())

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "another-secret-another-secret-another", "user-1", "authenticated", jwt.SigningMethodHS256)},
		{"anon role", signToken(t, testSecret, "user-1", "anon", jwt.SigningMethodHS256)},
		{"missing subject", signToken(t, testSecret, "", "authenticated", jwt.SigningMethodHS256)},
		{"wrong algorithm", signToken(t, testSecret, "user-1", "authenticated", jwt.SigningMethodHS512)},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestNewHMACVerifier_EmptySecret(t *testing.T) {
	_, err := NewHMACVerifier("", testLogger())
	assert.Error(t, err)
}

func TestProvider_SignInSignOut(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	events, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	assert.Nil(t, p.CurrentSession())

	session, err := p.SignIn(ctx, signToken(t, testSecret, "alice", "authenticated", jwt.SigningMethodHS256))
	require.NoError(t, err)
	assert.Equal(t, "alice", session.UserID)
	assert.Equal(t, "alice@example.com", session.Email)
	assert.False(t, session.ExpiresAt.IsZero())

	ev := recv(t, events)
	assert.Equal(t, models.AuthEventSignedIn, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "alice", ev.Session.UserID)

	require.NoError(t, p.SignOut(ctx))
	ev = recv(t, events)
	assert.Equal(t, models.AuthEventSignedOut, ev.Type)
	assert.Nil(t, ev.Session)
	assert.Nil(t, p.CurrentSession())

	// Signing out twice emits nothing.
	require.NoError(t, p.SignOut(ctx))
	assert.Len(t, events, 0)
}

func TestProvider_SameUserRefreshIsSilent(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	events, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	token := signToken(t, testSecret, "alice", "authenticated", jwt.SigningMethodHS256)
	_, err := p.SignIn(ctx, token)
	require.NoError(t, err)
	recv(t, events)

	_, err = p.SignIn(ctx, token)
	require.NoError(t, err)
	assert.Len(t, events, 0)
}

func TestProvider_SwitchUserSignsOutFirst(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	events, unsubscribe := p.Subscribe(4)
	defer unsubscribe()

	_, err := p.SignIn(ctx, signToken(t, testSecret, "alice", "authenticated", jwt.SigningMethodHS256))
	require.NoError(t, err)
	recv(t, events)

	_, err = p.SignIn(ctx, signToken(t, testSecret, "bob", "authenticated", jwt.SigningMethodHS256))
	require.NoError(t, err)

	assert.Equal(t, models.AuthEventSignedOut, recv(t, events).Type)
	ev := recv(t, events)
	assert.Equal(t, models.AuthEventSignedIn, ev.Type)
	assert.Equal(t, "bob", ev.Session.UserID)
	assert.Equal(t, "bob", p.CurrentSession().UserID)
}

func TestProvider_RejectedTokenKeepsSession(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignIn(ctx, signToken(t, testSecret, "alice", "authenticated", jwt.SigningMethodHS256))
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "alice", p.CurrentSession().UserID)
}

func TestProvider_UnsubscribeUnblocksDelivery(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	_, unsubscribe := p.Subscribe(0)
	token := signToken(t, testSecret, "alice", "authenticated", jwt.SigningMethodHS256)

	done := make(chan error, 1)
	go func() {
		_, err := p.SignIn(ctx, token)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	unsubscribe()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sign-in stayed blocked on an unsubscribed channel")
	}
}
