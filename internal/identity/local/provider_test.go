package local

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/ideacrowd/internal/database"
	"github.com/jask/ideacrowd/internal/identity/token"
	"github.com/jask/ideacrowd/internal/session"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db    *sql.DB
	clock *clock
	ttl   time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &fixture{db: db, clock: &clock{now: time.Now().UTC().Truncate(time.Second)}, ttl: time.Hour}
}

func (f *fixture) provider(t *testing.T, accounts AccountsConfig) *Provider {
	t.Helper()
	tokens, err := token.NewManager(token.Config{Secret: []byte(strings.Repeat("s", 32)), TTL: f.ttl})
	require.NoError(t, err)
	if accounts.BcryptCost == 0 {
		accounts.BcryptCost = bcrypt.MinCost
	}
	p := New(f.db, tokens, Config{Accounts: accounts, Logger: zerolog.Nop(), Now: f.clock.Now})
	t.Cleanup(p.expiry.Stop)
	return p
}

func collect(p *Provider) (*[]session.Notification, func()) {
	var (
		mu  sync.Mutex
		got []session.Notification
	)
	unsubscribe := p.OnChange(func(n session.Notification) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, n)
	})
	return &got, unsubscribe
}

func TestSignUpStartsSession(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	got, _ := collect(p)

	require.NoError(t, p.SignUp(context.Background(), "  Ada@Example.com ", "correct horse"))

	s := p.CurrentSession()
	require.NotNil(t, s)
	assert.Equal(t, "ada@example.com", s.Identity)
	assert.Equal(t, f.clock.Now().Add(time.Hour), s.ExpiresAt)
	require.Len(t, *got, 1)
	assert.Equal(t, s, (*got)[0].Session)
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	ctx := context.Background()

	assert.ErrorIs(t, p.SignUp(ctx, "not-an-email", "correct horse"), ErrInvalidEmail)
	assert.ErrorIs(t, p.SignUp(ctx, "", "correct horse"), ErrInvalidEmail)
	assert.ErrorIs(t, p.SignUp(ctx, "Ada <ada2@example.com>", "correct horse"), ErrInvalidEmail)
	assert.ErrorIs(t, p.SignUp(ctx, "ada@example.com", "short"), ErrWeakPassword)
	assert.ErrorIs(t, p.SignUp(ctx, "ada@example.com", strings.Repeat("x", 73)), ErrLongPassword)
	// 25 three-byte runes pass a rune count but not bcrypt's byte limit
	assert.ErrorIs(t, p.SignUp(ctx, "ada@example.com", strings.Repeat("€", 25)), ErrLongPassword)
	require.NoError(t, p.SignUp(ctx, "ada@example.com", "correct horse"))
	assert.ErrorIs(t, p.SignUp(ctx, "ADA@example.com", "another one"), ErrUserExists)
}

func TestSignUpAcceptsLongestPassword(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	ctx := context.Background()
	password := strings.Repeat("x", 72)

	require.NoError(t, p.SignUp(ctx, "ada@example.com", password))
	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignIn(ctx, "ada@example.com", password))
}

func TestSignInChecksPassword(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "ada@example.com", "correct horse"))
	require.NoError(t, p.SignOut(ctx))

	assert.ErrorIs(t, p.SignIn(ctx, "ada@example.com", "wrong horse"), ErrInvalidCredentials)
	assert.ErrorIs(t, p.SignIn(ctx, "bob@example.com", "correct horse"), ErrInvalidCredentials)
	assert.Nil(t, p.CurrentSession())

	require.NoError(t, p.SignIn(ctx, "ADA@example.com", "correct horse"))
	assert.Equal(t, "ada@example.com", p.CurrentSession().Identity)
}

func TestSignInIsRateLimited(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{AttemptsPerMinute: 1, Burst: 2})
	ctx := context.Background()

	assert.ErrorIs(t, p.SignIn(ctx, "x@example.com", "whatever1"), ErrInvalidCredentials)
	assert.ErrorIs(t, p.SignIn(ctx, "x@example.com", "whatever2"), ErrInvalidCredentials)
	assert.ErrorIs(t, p.SignIn(ctx, "x@example.com", "whatever3"), ErrRateLimited)
}

func TestSignOutNotifiesAndRevokes(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "ada@example.com", "correct horse"))
	got, _ := collect(p)

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, p.CurrentSession())
	require.Len(t, *got, 1)
	assert.Nil(t, (*got)[0].Session)
	assert.NoError(t, (*got)[0].Err)

	// a fresh provider over the same database has nothing to restore
	again := f.provider(t, AccountsConfig{})
	require.NoError(t, again.Restore(ctx))
	assert.Nil(t, again.CurrentSession())

	// signing out twice is harmless
	require.NoError(t, p.SignOut(ctx))
	assert.Len(t, *got, 1)
}

func TestSignOutFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	ctx := context.Background()
	require.NoError(t, p.SignUp(ctx, "ada@example.com", "correct horse"))
	got, _ := collect(p)

	require.NoError(t, f.db.Close())
	err := p.SignOut(ctx)
	require.Error(t, err)
	assert.NotNil(t, p.CurrentSession())
	assert.Empty(t, *got)
}

func TestRestoreResumesLatestSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.provider(t, AccountsConfig{})
	require.NoError(t, first.SignUp(ctx, "ada@example.com", "correct horse"))
	want := first.CurrentSession()

	second := f.provider(t, AccountsConfig{})
	got, _ := collect(second)
	require.NoError(t, second.Restore(ctx))

	s := second.CurrentSession()
	require.NotNil(t, s)
	assert.Equal(t, want.ID, s.ID)
	assert.Equal(t, "ada@example.com", s.Identity)
	assert.Empty(t, *got, "restore does not notify")
}

func TestRestoreIgnoresExpiredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.provider(t, AccountsConfig{})
	require.NoError(t, first.SignUp(ctx, "ada@example.com", "correct horse"))
	first.expiry.Stop()

	f.clock.Advance(2 * time.Hour)
	second := f.provider(t, AccountsConfig{})
	require.NoError(t, second.Restore(ctx))
	assert.Nil(t, second.CurrentSession())
}

func TestRestoreDiscardsTamperedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.provider(t, AccountsConfig{})
	require.NoError(t, first.SignUp(ctx, "ada@example.com", "correct horse"))

	_, err := f.db.Exec(`UPDATE sessions SET token = 'garbage'`)
	require.NoError(t, err)

	second := f.provider(t, AccountsConfig{})
	require.NoError(t, second.Restore(ctx))
	assert.Nil(t, second.CurrentSession())
}

func TestExpiryNotifies(t *testing.T) {
	f := newFixture(t)
	f.ttl = time.Second
	p := f.provider(t, AccountsConfig{})
	store := session.NewStore(p, session.WithClock(f.clock.Now))
	defer store.Close()

	done := make(chan session.State, 4)
	store.Subscribe(func(s session.State) { done <- s })

	require.NoError(t, p.SignUp(context.Background(), "ada@example.com", "correct horse"))
	require.True(t, (<-done).IsAuthenticated())

	select {
	case s := <-done:
		assert.False(t, s.IsAuthenticated())
	case <-time.After(3 * time.Second):
		t.Fatal("expiry was never reported")
	}
}

func TestCloseFailsStoreClosed(t *testing.T) {
	f := newFixture(t)
	p := f.provider(t, AccountsConfig{})
	require.NoError(t, p.SignUp(context.Background(), "ada@example.com", "correct horse"))
	store := session.NewStore(p)
	require.True(t, store.Current().IsAuthenticated())

	p.Close()
	assert.False(t, store.Current().IsAuthenticated())
	assert.ErrorIs(t, store.Err(), session.ErrProviderUnavailable)
}
