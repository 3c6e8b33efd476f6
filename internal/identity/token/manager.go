// Package token signs and verifies the session tokens the local provider
// persists, so a restored session can be checked for tampering and expiry
// without trusting the database row alone.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidConfig = errors.New("invalid token configuration")
	ErrInvalidToken  = errors.New("invalid session token")
)

const minSecretLen = 32

type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
}

// Claims identify one session of one user.
type Claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", ErrInvalidConfig, minSecretLen)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: leeway out of range", ErrInvalidConfig)
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Issuer == "" {
		cfg.Issuer = "ideacrowd"
	}
	return &Manager{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Manager) TTL() time.Duration { return m.cfg.TTL }

// Issue signs a token for sessionID owned by subject. It returns the
// token and its expiry.
func (m *Manager) Issue(sessionID, subject string, issuedAt time.Time) (string, time.Time, error) {
	expires := issuedAt.Add(m.cfg.TTL)
	claims := Claims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   subject,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, issuer and expiry.
func (m *Manager) Parse(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithLeeway(m.cfg.Leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.SID == "" || claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sid or subject", ErrInvalidToken)
	}
	return claims, nil
}
