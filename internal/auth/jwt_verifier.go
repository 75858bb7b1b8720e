package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	"github.com/parkyoonha/searchedia-sub001/internal/domain/models"
)

// JWTVerifier turns an access token into verified Supabase claims. A token
// that fails any check yields domain.ErrUnauthorized.
type JWTVerifier interface {
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)
	// Close releases background resources such as the JWKS refresher.
	Close() error
}

// SupabaseJWTVerifier implements JWTVerifier using JWKS from Supabase.
type SupabaseJWTVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier creates a new JWT verifier that fetches public keys from Supabase's JWKS endpoint.
// The JWKS keys are cached and automatically refreshed based on HTTP cache headers.
func NewJWTVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &SupabaseJWTVerifier{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// VerifyToken validates a JWT token and extracts Supabase claims.
func (v *SupabaseJWTVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	return parseClaims(tokenString, v.jwks.Keyfunc, []string{"RS256", "ES256"}, v.logger)
}

// Close is a no-op; keyfunc v3 manages its own refresh goroutine lifetime
// through the context passed to NewJWTVerifier.
func (v *SupabaseJWTVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}

// HMACVerifier verifies HS256 tokens signed with the project's JWT secret.
// Used for local development and self-hosted Supabase.
type HMACVerifier struct {
	secret []byte
	logger *slog.Logger
}

// NewHMACVerifier creates a verifier for HS256 tokens
func NewHMACVerifier(secret string, logger *slog.Logger) (JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &HMACVerifier{secret: []byte(secret), logger: logger}, nil
}

func (v *HMACVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	keyFunc := func(*jwt.Token) (any, error) { return v.secret, nil }
	return parseClaims(tokenString, keyFunc, []string{"HS256"}, v.logger)
}

func (v *HMACVerifier) Close() error { return nil }

// parseClaims parses the token and applies the checks shared by both verifiers.
func parseClaims(tokenString string, keyFunc jwt.Keyfunc, algs []string, logger *slog.Logger) (*models.SupabaseClaims, error) {
	// Restricting methods up front prevents algorithm confusion.
	token, err := jwt.ParseWithClaims(tokenString, &models.SupabaseClaims{}, keyFunc, jwt.WithValidMethods(algs))
	if err != nil {
		logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		logger.Debug("token is invalid after parsing")
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.SupabaseClaims)
	if !ok {
		logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Anonymous Supabase sessions have no remote workspace.
	if claims.Role != "authenticated" {
		logger.Warn("token has invalid role",
			"role", claims.Role,
			"expected", "authenticated",
			"user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}
