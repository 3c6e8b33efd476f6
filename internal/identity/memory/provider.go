// Package memory is an in-process identity provider. It accepts any
// non-empty credentials and keeps nothing across restarts, which makes it
// the provider for demo mode and for tests that need to drive session
// transitions by hand.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jask/ideacrowd/internal/identity"
	"github.com/jask/ideacrowd/internal/session"
)

var ErrMissingCredentials = errors.New("email and password are required")

type Provider struct {
	hub    identity.Hub
	expiry *identity.ExpiryTimer
	// order spans a state change and its notification
	order      sync.Mutex
	mu         sync.Mutex
	current    *session.Session
	signOutErr error
	ttl        time.Duration
	now        func() time.Time
}

func New() *Provider {
	return &Provider{now: time.Now, expiry: identity.NewExpiryTimer(time.Now)}
}

// WithTTL makes issued sessions expire after ttl. A timer signs the
// session out when it lapses; Expire does the same on demand.
func (p *Provider) WithTTL(ttl time.Duration) *Provider {
	p.ttl = ttl
	return p
}

// Close stops the expiry timer.
func (p *Provider) Close() error {
	p.expiry.Stop()
	return nil
}

func (p *Provider) CurrentSession() *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Provider) OnChange(listener session.Listener) func() {
	return p.hub.OnChange(listener)
}

// SignIn accepts any non-empty credentials.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	p.Issue(email)
	return nil
}

// SignUp behaves like SignIn; there is no account table to collide with.
func (p *Provider) SignUp(ctx context.Context, email, password string) error {
	return p.SignIn(ctx, email, password)
}

// Issue starts a session for identity and notifies listeners.
func (p *Provider) Issue(identity string) *session.Session {
	now := p.now()
	s := &session.Session{ID: uuid.NewString(), Identity: identity, IssuedAt: now}
	if p.ttl > 0 {
		s.ExpiresAt = now.Add(p.ttl)
	}
	p.order.Lock()
	defer p.order.Unlock()
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	p.expiry.Arm(s, p.expired)
	p.emit(session.Notification{Session: s})
	return s
}

// Expire drops the session as if it timed out.
func (p *Provider) Expire() {
	p.order.Lock()
	defer p.order.Unlock()
	p.expiry.Stop()
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.emit(session.Notification{})
}

func (p *Provider) expired(sessionID string) {
	p.order.Lock()
	defer p.order.Unlock()
	p.mu.Lock()
	if p.current == nil || p.current.ID != sessionID {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()
	p.emit(session.Notification{})
}

// Fail reports a broken notification channel to every listener.
func (p *Provider) Fail(err error) {
	if err == nil {
		err = session.ErrProviderClosed
	}
	p.emit(session.Notification{Err: err})
}

// RejectSignOut makes subsequent SignOut calls fail with err; nil accepts
// again.
func (p *Provider) RejectSignOut(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOutErr = err
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.order.Lock()
	defer p.order.Unlock()
	p.mu.Lock()
	if p.signOutErr != nil {
		err := p.signOutErr
		p.mu.Unlock()
		return err
	}
	p.current = nil
	p.mu.Unlock()
	p.expiry.Stop()
	p.emit(session.Notification{})
	return nil
}

func (p *Provider) emit(n session.Notification) {
	p.hub.Emit(n)
}
