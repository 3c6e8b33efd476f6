package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const defaultSignOutTimeout = 10 * time.Second

// SignOutRecorder receives the outcome of each provider call.
type SignOutRecorder interface {
	RecordSignOut(ok bool)
}

// SignOutAction asks the provider to end the current session. It never
// touches the store; the transition arrives as a provider notification.
type SignOutAction struct {
	provider Provider
	store    *Store
	timeout  time.Duration
	log      zerolog.Logger
	recorder SignOutRecorder
}

type SignOutConfig struct {
	Timeout  time.Duration
	Logger   *zerolog.Logger
	Recorder SignOutRecorder
}

func NewSignOutAction(provider Provider, store *Store, cfg SignOutConfig) *SignOutAction {
	a := &SignOutAction{
		provider: provider,
		store:    store,
		timeout:  cfg.Timeout,
		log:      zerolog.Nop(),
		recorder: cfg.Recorder,
	}
	if a.timeout <= 0 {
		a.timeout = defaultSignOutTimeout
	}
	if cfg.Logger != nil {
		a.log = *cfg.Logger
	}
	return a
}

// Invoke issues the sign-out. Once issued the call is not cancelled by
// ctx; it is bounded by the configured timeout instead. Invoking while
// unauthenticated is a no-op.
func (a *SignOutAction) Invoke(ctx context.Context) error {
	if !a.store.Current().IsAuthenticated() {
		return nil
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	identity := a.store.Current().Identity()
	if err := a.provider.SignOut(callCtx); err != nil {
		a.log.Warn().Err(err).Str("identity", identity).Msg("sign-out rejected")
		a.record(false)
		return fmt.Errorf("%w: %w", ErrSignOutRejected, err)
	}
	a.log.Info().Str("identity", identity).Msg("sign-out accepted")
	a.record(true)
	return nil
}

func (a *SignOutAction) record(ok bool) {
	if a.recorder != nil {
		a.recorder.RecordSignOut(ok)
	}
}
