package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/ideacrowd/internal/identity/local"
	"github.com/jask/ideacrowd/internal/session"
)

type fakeCreds struct{}

var errBadPassword = errors.New("bad password")

func (fakeCreds) Verify(_ context.Context, email, password string) (local.Account, error) {
	if password != "correct horse" {
		return local.Account{}, errBadPassword
	}
	return local.Account{ID: "u-" + email, Email: email}, nil
}

func (fakeCreds) Register(ctx context.Context, email, password string) (local.Account, error) {
	return fakeCreds{}.Verify(ctx, email, password)
}

func newProvider(t *testing.T, mr *miniredis.Miniredis) *Provider {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	p, err := New(context.Background(), rdb, fakeCreds{}, Config{TTL: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return p
}

func watch(t *testing.T, p *Provider) (*session.Store, <-chan session.State) {
	t.Helper()
	store := session.NewStore(p)
	ch := make(chan session.State, 8)
	store.Subscribe(func(s session.State) { ch <- s })
	t.Cleanup(store.Close)
	return store, ch
}

func next(t *testing.T, ch <-chan session.State) session.State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no session change delivered")
		return session.Unauthenticated()
	}
}

func TestSignInReachesEveryShell(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newProvider(t, mr)
	b := newProvider(t, mr)
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	_, fromA := watch(t, a)
	storeB, fromB := watch(t, b)

	require.NoError(t, a.SignIn(context.Background(), "ada@example.com", "correct horse"))

	gotA := next(t, fromA)
	gotB := next(t, fromB)
	assert.Equal(t, "ada@example.com", gotA.Identity())
	assert.True(t, gotA.Equal(gotB))
	assert.True(t, storeB.Current().IsAuthenticated())

	ttl := mr.TTL("ideacrowd:session")
	assert.Equal(t, time.Hour, ttl)
}

func TestNewLoadsSharedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newProvider(t, mr)
	t.Cleanup(func() { _ = a.Close() })
	_, fromA := watch(t, a)
	require.NoError(t, a.SignUp(context.Background(), "ada@example.com", "correct horse"))
	want := next(t, fromA)

	late := newProvider(t, mr)
	t.Cleanup(func() { _ = late.Close() })
	s := late.CurrentSession()
	require.NotNil(t, s)
	assert.Equal(t, want.Session().ID, s.ID)
}

func TestNewIgnoresMalformedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("ideacrowd:session", "{not json"))

	p := newProvider(t, mr)
	t.Cleanup(func() { _ = p.Close() })
	assert.Nil(t, p.CurrentSession())
}

func TestSignInRefusedLeavesStateAlone(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newProvider(t, mr)
	t.Cleanup(func() { _ = p.Close() })

	err := p.SignIn(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, errBadPassword)
	assert.False(t, mr.Exists("ideacrowd:session"))
	assert.Nil(t, p.CurrentSession())
}

func TestSignOutClearsEveryShell(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newProvider(t, mr)
	b := newProvider(t, mr)
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	_, fromA := watch(t, a)
	_, fromB := watch(t, b)
	ctx := context.Background()

	require.NoError(t, a.SignIn(ctx, "ada@example.com", "correct horse"))
	next(t, fromA)
	next(t, fromB)

	require.NoError(t, b.SignOut(ctx))
	assert.False(t, next(t, fromA).IsAuthenticated())
	assert.False(t, next(t, fromB).IsAuthenticated())
	assert.False(t, mr.Exists("ideacrowd:session"))
}

func TestLostChannelFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newProvider(t, mr)
	t.Cleanup(func() { _ = p.Close() })
	store, ch := watch(t, p)
	require.NoError(t, p.SignIn(context.Background(), "ada@example.com", "correct horse"))
	require.True(t, next(t, ch).IsAuthenticated())

	mr.Close()

	assert.False(t, next(t, ch).IsAuthenticated())
	assert.ErrorIs(t, store.Err(), session.ErrProviderUnavailable)
}

func TestSignOutErrorIsReturned(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newProvider(t, mr)
	t.Cleanup(func() { _ = p.Close() })

	mr.SetError("READONLY replica")
	err := p.SignOut(context.Background())
	require.Error(t, err)
	mr.SetError("")
}

// lateSignIn answers the first GET as if the key were still empty while
// another shell signs in right behind it.
type lateSignIn struct {
	*goredis.Client
	once sync.Once
}

func (c *lateSignIn) Get(ctx context.Context, key string) *goredis.StringCmd {
	c.once.Do(func() {
		now := time.Now().UTC().Truncate(time.Second)
		msg, _ := json.Marshal(event{Type: eventSignedIn, Session: &wireSession{
			ID: "s-late", Identity: "bob@example.com", IssuedAt: now, ExpiresAt: now.Add(time.Hour),
		}})
		c.Client.Publish(ctx, "ideacrowd:session:events", msg)
	})
	return goredis.NewStringResult("", goredis.Nil)
}

func TestNewCatchesSignInDuringLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := &lateSignIn{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})}
	t.Cleanup(func() { _ = rdb.Client.Close() })

	p, err := New(context.Background(), rdb, fakeCreds{}, Config{TTL: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	require.Eventually(t, func() bool {
		s := p.CurrentSession()
		return s != nil && s.ID == "s-late"
	}, 2*time.Second, 10*time.Millisecond)
}

func signedIn(t *testing.T, id string) string {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	msg, err := json.Marshal(event{Type: eventSignedIn, Session: &wireSession{
		ID: id, Identity: "ada@example.com", IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}})
	require.NoError(t, err)
	return string(msg)
}

func TestExpiryAndSignInStayOrdered(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newProvider(t, mr)
	t.Cleanup(func() { _ = p.Close() })

	var (
		mu   sync.Mutex
		last session.Notification
	)
	p.OnChange(func(n session.Notification) {
		mu.Lock()
		defer mu.Unlock()
		last = n
	})

	for i := range 200 {
		old := fmt.Sprintf("old-%d", i)
		fresh := signedIn(t, fmt.Sprintf("new-%d", i))
		p.apply(signedIn(t, old))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); p.expire(old) }()
		go func() { defer wg.Done(); p.apply(fresh) }()
		wg.Wait()

		current := p.CurrentSession()
		mu.Lock()
		got := last.Session
		mu.Unlock()
		if current == nil {
			require.Nil(t, got, "round %d", i)
			continue
		}
		require.NotNil(t, got, "round %d: last notification signed out but %s is current", i, current.ID)
		require.Equal(t, current.ID, got.ID, "round %d", i)
	}
}
