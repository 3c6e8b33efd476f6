// Package redis shares one session between every shell pointed at the same
// Redis. The session lives under a single key with a TTL, and every change
// is announced on a Pub/Sub channel. A shell only trusts what arrives on
// the channel, including its own sign-ins, so all shells see the same
// sequence of transitions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jask/ideacrowd/internal/identity"
	"github.com/jask/ideacrowd/internal/identity/local"
	"github.com/jask/ideacrowd/internal/session"
)

const (
	eventSignedIn  = "signed_in"
	eventSignedOut = "signed_out"
)

var ErrNoCredentials = errors.New("no credential store configured")

// Credentials checks and registers accounts. local.Accounts satisfies it.
type Credentials interface {
	Verify(ctx context.Context, email, password string) (local.Account, error)
	Register(ctx context.Context, email, password string) (local.Account, error)
}

type Config struct {
	Key     string
	Channel string
	TTL     time.Duration
	Logger  zerolog.Logger
}

type wireSession struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type event struct {
	Type    string       `json:"type"`
	Session *wireSession `json:"session,omitempty"`
}

type Provider struct {
	rdb   goredis.UniversalClient
	creds Credentials
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time

	hub    identity.Hub
	expiry *identity.ExpiryTimer
	pubsub *goredis.PubSub
	cancel context.CancelFunc
	done   chan struct{}

	// order is held from a state change until its notification is out,
	// so listeners see transitions in the order they were applied
	order   sync.Mutex
	mu      sync.Mutex
	current *session.Session
}

// New subscribes to the change channel and then loads the shared session.
// The subscription is confirmed before the load.
func New(ctx context.Context, rdb goredis.UniversalClient, creds Credentials, cfg Config) (*Provider, error) {
	if cfg.Key == "" {
		cfg.Key = "ideacrowd:session"
	}
	if cfg.Channel == "" {
		cfg.Channel = "ideacrowd:session:events"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	p := &Provider{
		rdb:    rdb,
		creds:  creds,
		cfg:    cfg,
		log:    cfg.Logger,
		now:    time.Now,
		expiry: identity.NewExpiryTimer(time.Now),
		done:   make(chan struct{}),
	}

	ps := rdb.Subscribe(ctx, cfg.Channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.Channel, err)
	}
	p.pubsub = ps

	// events published from here on are queued on ps, so nothing between
	// the read and the listener starting is lost
	current, err := p.load(ctx)
	if err != nil {
		_ = ps.Close()
		return nil, err
	}
	p.current = current
	p.expiry.Arm(current, p.expire)

	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.listen(loopCtx)
	return p, nil
}

func (p *Provider) load(ctx context.Context) (*session.Session, error) {
	raw, err := p.rdb.Get(ctx, p.cfg.Key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var w wireSession
	if err := json.Unmarshal(raw, &w); err != nil {
		p.log.Warn().Err(err).Msg("ignoring malformed shared session")
		return nil, nil
	}
	s := w.session()
	if s.Expired(p.now()) {
		return nil, nil
	}
	return s, nil
}

func (w wireSession) session() *session.Session {
	return &session.Session{ID: w.ID, Identity: w.Identity, IssuedAt: w.IssuedAt, ExpiresAt: w.ExpiresAt}
}

// listen applies channel events until the subscription fails or Close is
// called. A failure is reported once and ends the loop.
func (p *Provider) listen(ctx context.Context) {
	defer close(p.done)
	for {
		msg, err := p.pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error().Err(err).Msg("session channel lost")
			p.expiry.Stop()
			p.order.Lock()
			p.hub.Emit(session.Notification{Err: fmt.Errorf("receive: %w", err)})
			p.order.Unlock()
			return
		}
		p.apply(msg.Payload)
	}
}

func (p *Provider) apply(payload string) {
	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		p.log.Warn().Err(err).Msg("ignoring malformed session event")
		return
	}
	p.order.Lock()
	defer p.order.Unlock()
	switch ev.Type {
	case eventSignedIn:
		if ev.Session == nil {
			return
		}
		s := ev.Session.session()
		p.mu.Lock()
		p.current = s
		p.mu.Unlock()
		p.expiry.Arm(s, p.expire)
		p.hub.Emit(session.Notification{Session: s})
	case eventSignedOut:
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
		p.expiry.Stop()
		p.hub.Emit(session.Notification{})
	default:
		p.log.Warn().Str("type", ev.Type).Msg("unknown session event")
	}
}

func (p *Provider) expire(sessionID string) {
	p.order.Lock()
	defer p.order.Unlock()
	p.mu.Lock()
	if p.current == nil || p.current.ID != sessionID {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()
	p.hub.Emit(session.Notification{})
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
	if p.creds == nil {
		return ErrNoCredentials
	}
	acct, err := p.creds.Verify(ctx, email, password)
	if err != nil {
		return err
	}
	return p.Publish(ctx, acct.Email)
}

func (p *Provider) SignUp(ctx context.Context, email, password string) error {
	if p.creds == nil {
		return ErrNoCredentials
	}
	acct, err := p.creds.Register(ctx, email, password)
	if err != nil {
		return err
	}
	return p.Publish(ctx, acct.Email)
}

// Publish stores a fresh session for identity and announces it. The local
// state changes only when the announcement comes back on the channel.
func (p *Provider) Publish(ctx context.Context, identity string) error {
	issued := p.now().UTC().Truncate(time.Second)
	w := wireSession{ID: uuid.NewString(), Identity: identity, IssuedAt: issued, ExpiresAt: issued.Add(p.cfg.TTL)}
	blob, err := json.Marshal(w)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(event{Type: eventSignedIn, Session: &w})
	if err != nil {
		return err
	}
	_, err = p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, p.cfg.Key, blob, p.cfg.TTL)
		pipe.Publish(ctx, p.cfg.Channel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish session: %w", err)
	}
	return nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	msg, err := json.Marshal(event{Type: eventSignedOut})
	if err != nil {
		return err
	}
	_, err = p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, p.cfg.Key)
		pipe.Publish(ctx, p.cfg.Channel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("end shared session: %w", err)
	}
	return nil
}

// Close stops listening. Listeners are told the channel is gone.
func (p *Provider) Close() error {
	p.cancel()
	err := p.pubsub.Close()
	<-p.done
	p.expiry.Stop()
	p.order.Lock()
	defer p.order.Unlock()
	p.hub.Emit(session.Notification{Err: session.ErrProviderClosed})
	return err
}
