package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parkyoonha/searchedia-sub001/internal/domain/models"
)

// Provider owns the current identity and publishes sign-in/sign-out
// transitions to subscribers. It is the single source of truth for "who is
// signed in" on this device.
type Provider struct {
	verifier JWTVerifier
	logger   *slog.Logger

	mu      sync.Mutex
	session *models.Session

	// emitMu serializes delivery so every subscriber sees events in order.
	emitMu sync.Mutex
	subsMu sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

type subscriber struct {
	ch   chan models.AuthEvent
	done chan struct{}
	once sync.Once
}

// NewProvider creates a provider with no signed-in session
func NewProvider(verifier JWTVerifier, logger *slog.Logger) *Provider {
	return &Provider{
		verifier: verifier,
		logger:   logger,
		subs:     make(map[int]*subscriber),
	}
}

// CurrentSession returns a copy of the signed-in session, or nil
func (p *Provider) CurrentSession() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	s := *p.session
	return &s
}

// Subscribe registers for identity transitions. Delivery blocks until the
// subscriber receives or unsubscribes, so consumers must keep draining.
func (p *Provider) Subscribe(buffer int) (<-chan models.AuthEvent, func()) {
	sub := &subscriber{
		ch:   make(chan models.AuthEvent, buffer),
		done: make(chan struct{}),
	}

	p.subsMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = sub
	p.subsMu.Unlock()

	unsubscribe := func() {
		sub.once.Do(func() {
			close(sub.done)
			p.subsMu.Lock()
			delete(p.subs, id)
			p.subsMu.Unlock()
		})
	}
	return sub.ch, unsubscribe
}

// SignIn verifies token and makes its subject the current identity.
// Signing in again as the same user only refreshes the session. Signing in
// as a different user emits a sign-out first.
func (p *Provider) SignIn(ctx context.Context, token string) (*models.Session, error) {
	claims, err := p.verifier.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID: claims.GetUserID(),
		Email:  claims.Email,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	previous := p.session
	p.session = session
	p.mu.Unlock()

	if previous != nil && previous.UserID == session.UserID {
		p.logger.Debug("session refreshed", "user_id", session.UserID)
		out := *session
		return &out, nil
	}

	if previous != nil {
		p.logger.Info("switching user", "from", previous.UserID, "to", session.UserID)
		if err := p.emit(ctx, models.AuthEvent{Type: models.AuthEventSignedOut}); err != nil {
			return nil, err
		}
	}

	p.logger.Info("signed in", "user_id", session.UserID)
	out := *session
	if err := p.emit(ctx, models.AuthEvent{Type: models.AuthEventSignedIn, Session: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut clears the current identity. It is a no-op when nobody is signed in.
func (p *Provider) SignOut(ctx context.Context) error {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	previous := p.session
	p.session = nil
	p.mu.Unlock()

	if previous == nil {
		return nil
	}

	p.logger.Info("signed out", "user_id", previous.UserID)
	return p.emit(ctx, models.AuthEvent{Type: models.AuthEventSignedOut})
}

// emit delivers ev to every subscriber. Caller holds emitMu.
func (p *Provider) emit(ctx context.Context, ev models.AuthEvent) error {
	p.subsMu.Lock()
	subs := make([]*subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		subs = append(subs, s)
	}
	p.subsMu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- ev:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
