// Package local is the identity provider backed by the application's own
// SQLite database: bcrypt-hashed credentials, persisted sessions carrying
// signed tokens, and an in-process notification hub.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jask/ideacrowd/internal/database"
	"github.com/jask/ideacrowd/internal/database/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("an account with that email already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrLongPassword       = errors.New("password must be at most 72 bytes")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrRateLimited        = errors.New("too many sign-in attempts, try again shortly")
)

var validate = validator.New()

// registration is checked before hashing. Password is held as bytes so
// the max tag matches bcrypt's input limit.
type registration struct {
	Email    string `validate:"required,email,max=254"`
	Password []byte `validate:"min=8,max=72"`
}

func (r registration) check() error {
	err := validate.Struct(r)
	var fields validator.ValidationErrors
	if err == nil || !errors.As(err, &fields) {
		return err
	}
	f := fields[0]
	switch {
	case f.StructField() == "Email":
		return ErrInvalidEmail
	case f.Tag() == "max":
		return ErrLongPassword
	default:
		return ErrWeakPassword
	}
}

// Account is a verified user.
type Account struct {
	ID    string
	Email string
}

// Accounts checks and registers credentials. Sign-in attempts share one
// token bucket so a scripted guesser is slowed regardless of the email
// it targets.
type Accounts struct {
	users   *repository.UserRepo
	limiter *rate.Limiter
	cost    int
}

type AccountsConfig struct {
	// AttemptsPerMinute bounds sign-in verification; zero disables it.
	AttemptsPerMinute float64
	Burst             int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func NewAccounts(users *repository.UserRepo, cfg AccountsConfig) *Accounts {
	a := &Accounts{users: users, cost: cfg.BcryptCost}
	if a.cost == 0 {
		a.cost = bcrypt.DefaultCost
	}
	if cfg.AttemptsPerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 5
		}
		a.limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Minute)/cfg.AttemptsPerMinute)), burst)
	}
	return a
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Verify returns the account for matching credentials.
func (a *Accounts) Verify(ctx context.Context, email, password string) (Account, error) {
	if a.limiter != nil && !a.limiter.Allow() {
		return Account{}, ErrRateLimited
	}
	email = NormalizeEmail(email)
	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return Account{ID: u.ID, Email: u.Email}, nil
}

// Register creates an account.
func (a *Accounts) Register(ctx context.Context, email, password string) (Account, error) {
	email = NormalizeEmail(email)
	if err := (registration{Email: email, Password: []byte(password)}).check(); err != nil {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	u := repository.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash), CreatedAt: database.Now()}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Account{}, ErrUserExists
		}
		return Account{}, fmt.Errorf("create user: %w", err)
	}
	return Account{ID: u.ID, Email: u.Email}, nil
}
