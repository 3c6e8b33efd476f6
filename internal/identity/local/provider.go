package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/ideacrowd/internal/database/repository"
	"github.com/jask/ideacrowd/internal/identity"
	"github.com/jask/ideacrowd/internal/identity/token"
	"github.com/jask/ideacrowd/internal/session"
)

// Provider keeps at most one live session for this device.
type Provider struct {
	accounts *Accounts
	sessions *repository.SessionRepo
	tokens   *token.Manager
	log      zerolog.Logger
	now      func() time.Time

	hub    identity.Hub
	expiry *identity.ExpiryTimer

	mu      sync.Mutex
	current *session.Session
}

type Config struct {
	Accounts AccountsConfig
	Logger   zerolog.Logger
	// Now is the clock; tests pin it.
	Now func() time.Time
}

func New(db *sql.DB, tokens *token.Manager, cfg Config) *Provider {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		accounts: NewAccounts(repository.NewUserRepo(db), cfg.Accounts),
		sessions: repository.NewSessionRepo(db),
		tokens:   tokens.WithClock(now),
		log:      cfg.Logger,
		now:      now,
		expiry:   identity.NewExpiryTimer(now),
	}
}

// Accounts exposes the credential store so other providers can reuse it.
func (p *Provider) Accounts() *Accounts { return p.accounts }

// Restore resumes the most recent live session, if its token still
// verifies. It does not notify; call it before handing the provider to a
// session store.
func (p *Provider) Restore(ctx context.Context) error {
	rec, err := p.sessions.Latest(ctx, p.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	claims, err := p.tokens.Parse(rec.Token)
	if err != nil || claims.SID != rec.ID || claims.Subject != rec.Email {
		p.log.Warn().Err(err).Str("session", rec.ID).Msg("discarding session with bad token")
		if rerr := p.sessions.Revoke(ctx, rec.ID, p.now()); rerr != nil {
			return fmt.Errorf("revoke bad session: %w", rerr)
		}
		return nil
	}
	s := &session.Session{ID: rec.ID, Identity: rec.Email, IssuedAt: rec.IssuedAt, ExpiresAt: rec.ExpiresAt}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	p.expiry.Arm(s, p.expire)
	p.log.Info().Str("identity", s.Identity).Msg("session restored")
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

func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	acct, err := p.accounts.Verify(ctx, email, password)
	if err != nil {
		p.log.Info().Err(err).Str("email", NormalizeEmail(email)).Msg("sign-in refused")
		return err
	}
	return p.start(ctx, acct)
}

func (p *Provider) SignUp(ctx context.Context, email, password string) error {
	acct, err := p.accounts.Register(ctx, email, password)
	if err != nil {
		return err
	}
	p.log.Info().Str("email", acct.Email).Msg("account created")
	return p.start(ctx, acct)
}

func (p *Provider) start(ctx context.Context, acct Account) error {
	issued := p.now().UTC().Truncate(time.Second)
	id := uuid.NewString()
	raw, expires, err := p.tokens.Issue(id, acct.Email, issued)
	if err != nil {
		return err
	}
	if _, err := p.sessions.RevokeAll(ctx, issued); err != nil {
		return fmt.Errorf("revoke previous sessions: %w", err)
	}
	rec := repository.SessionRecord{ID: id, UserID: acct.ID, Token: raw, IssuedAt: issued, ExpiresAt: expires}
	if err := p.sessions.Insert(ctx, rec); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	s := &session.Session{ID: id, Identity: acct.Email, IssuedAt: issued, ExpiresAt: expires}
	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	p.expiry.Arm(s, p.expire)
	p.log.Info().Str("identity", s.Identity).Time("expires", expires).Msg("session started")
	p.hub.Emit(session.Notification{Session: s})
	return nil
}

// SignOut revokes the current session. If the database refuses, the
// session stays live and the error is returned.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	if s == nil {
		return nil
	}
	if err := p.sessions.Revoke(ctx, s.ID, p.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	if !p.clear(s.ID) {
		return nil
	}
	p.log.Info().Str("identity", s.Identity).Msg("signed out")
	p.hub.Emit(session.Notification{})
	return nil
}

func (p *Provider) expire(sessionID string) {
	if !p.clear(sessionID) {
		return
	}
	p.log.Info().Str("session", sessionID).Msg("session expired")
	p.hub.Emit(session.Notification{})
}

// clear drops the current session if it is still sessionID.
func (p *Provider) clear(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.ID != sessionID {
		return false
	}
	p.current = nil
	p.expiry.Stop()
	return true
}

// Close stops the expiry timer and tells listeners the channel is gone.
func (p *Provider) Close() {
	p.expiry.Stop()
	p.hub.Emit(session.Notification{Err: session.ErrProviderClosed})
}
