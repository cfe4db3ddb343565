package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creatorstribe/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, admin_id, ip_address, user_agent, created_at, last_seen_at, expires_at`

// SessionRepository stores the server side of admin logins. A JWT is only
// honoured while its session row exists and has not expired.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	return s, err
}

// Create inserts the session; created_at and last_seen_at are set by the
// database clock.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO admin_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), $5)
	`
	_, err := r.pool.Exec(ctx, query, session.ID, session.UserID, session.IPAddress, session.UserAgent, session.ExpiresAt)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM admin_sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpired removes every session past its expiry and reports how many
// were dropped.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Touch records activity. Blank ip or user agent keep the stored value.
func (r *SessionRepository) Touch(ctx context.Context, sessionID, ip, userAgent string) error {
	const query = `
		UPDATE admin_sessions
		SET last_seen_at = NOW(),
		    ip_address = COALESCE(NULLIF($2, ''), ip_address),
		    user_agent = COALESCE(NULLIF($3, ''), user_agent)
		WHERE id = $1 AND expires_at > NOW()
	`
	cmd, err := r.pool.Exec(ctx, query, sessionID, ip, userAgent)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
