package session

import (
	"context"
	"errors"
)

var (
	// ErrProviderUnavailable marks a lost notification channel. The store
	// fails closed when it sees it.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrSignOutRejected is returned when the provider refuses to end the
	// session. Local state is left untouched.
	ErrSignOutRejected = errors.New("sign-out rejected")
	// ErrProviderClosed is what providers report when their notification
	// channel shuts down.
	ErrProviderClosed = errors.New("notification channel closed")
)

// Notification is one change report from a provider. A nil Session means
// signed out or expired; a non-nil Err means the channel failed.
type Notification struct {
	Session *Session
	Err     error
}

// Listener receives provider notifications.
type Listener func(Notification)

// Provider is the external identity service the shell consumes.
type Provider interface {
	CurrentSession() *Session
	OnChange(listener Listener) (unsubscribe func())
	SignOut(ctx context.Context) error
}
