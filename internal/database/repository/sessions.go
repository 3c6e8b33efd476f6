package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionRepo handles persisted sign-ins.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Insert(ctx context.Context, s SessionRecord) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sessions(id, user_id, token, issued_at, expires_at)
	VALUES (?, ?, ?, ?, ?);
	`, s.ID, s.UserID, s.Token, s.IssuedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

// Revoke marks a live session revoked. Revoking an unknown or already
// revoked session reports ErrNotFound.
func (r *SessionRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// RevokeAll revokes every live session, returning how many were live.
func (r *SessionRepo) RevokeAll(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE revoked_at IS NULL`, at.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Latest returns the most recently issued session that is neither revoked
// nor expired at now.
func (r *SessionRepo) Latest(ctx context.Context, now time.Time) (SessionRecord, error) {
	var (
		s       SessionRecord
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
	SELECT s.id, s.user_id, u.email, s.token, s.issued_at, s.expires_at, s.revoked_at
	FROM sessions s JOIN users u ON u.id = s.user_id
	WHERE s.revoked_at IS NULL AND s.expires_at > ?
	ORDER BY s.issued_at DESC
	LIMIT 1`, now.UTC()).
		Scan(&s.ID, &s.UserID, &s.Email, &s.Token, &s.IssuedAt, &s.ExpiresAt, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("live session: %w", ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, err
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return s, nil
}
