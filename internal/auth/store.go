package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

// refreshTokenBytes gives 384 bits of entropy per token value.
const refreshTokenBytes = 48

// Store is the Postgres-backed refresh token table. Raw token values are
// hashed before they touch the database, so a leaked table cannot be replayed.
type Store struct {
	db         *sql.DB
	refreshTTL time.Duration
}

func NewStore(db *sql.DB, refreshTTL time.Duration) *Store {
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &Store{db: db, refreshTTL: refreshTTL}
}

func (s *Store) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// Create mints a new opaque refresh token for userID and returns the raw
// value. Delete-then-insert runs in one transaction so two concurrent logins
// for the same user cannot leave zero or duplicate live rows: at most one
// refresh token per user survives.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	raw, err := randomToken(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate refresh token id: %w", err)
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", classify(fmt.Errorf("begin refresh create tx: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM auth_refresh_tokens
		WHERE user_id = $1
	`, userID); err != nil {
		return "", classify(fmt.Errorf("delete prior refresh tokens: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO auth_refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id.String(), userID, digest(raw), now.Add(s.refreshTTL), now); err != nil {
		return "", classify(fmt.Errorf("insert refresh token: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return "", classify(fmt.Errorf("commit refresh create tx: %w", err))
	}

	return raw, nil
}

// FindByToken resolves a presented raw value to its record, joined with the
// owning user so callers can mint an access token for the right subject.
func (s *Store) FindByToken(ctx context.Context, raw string) (RefreshTokenRecord, error) {
	var rec RefreshTokenRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, u.username, t.expires_at
		FROM auth_refresh_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
	`, digest(raw)).Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RefreshTokenRecord{}, ErrUnknownRefreshToken
		}
		return RefreshTokenRecord{}, classify(fmt.Errorf("query refresh token: %w", err))
	}

	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return rec, nil
}

// VerifyNotExpired fails with ErrExpiredRefreshToken once the record's expiry
// has passed, deleting the dead row in the same call so a second lookup by
// the same value reports not-found.
func (s *Store) VerifyNotExpired(ctx context.Context, rec RefreshTokenRecord) error {
	if time.Now().UTC().Before(rec.ExpiresAt) {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_refresh_tokens
		WHERE id = $1
	`, rec.ID); err != nil {
		return classify(fmt.Errorf("delete expired refresh token: %w", err))
	}

	return ErrExpiredRefreshToken
}

// DeleteByUser removes every refresh token owned by userID. Idempotent; used
// on logout and account deletion.
func (s *Store) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_refresh_tokens
		WHERE user_id = $1
	`, userID); err != nil {
		return classify(fmt.Errorf("delete refresh tokens by user: %w", err))
	}

	return nil
}

// SweepExpired bulk-deletes rows past expiry, at most batchSize per call.
// Runs from the sweeper or the maintenance endpoint, never on a request path.
func (s *Store) SweepExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := s.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM auth_refresh_tokens
			WHERE expires_at < NOW()
			ORDER BY created_at ASC
			LIMIT $1
		)
		DELETE FROM auth_refresh_tokens t
		USING stale
		WHERE t.id = stale.id
	`, batchSize)
	if err != nil {
		return 0, classify(fmt.Errorf("sweep expired refresh tokens: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}

	return affected, nil
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// classify folds store round-trip failures caused by timeouts or client
// cancellation into ErrServiceUnavailable so handlers can answer 503 without
// leaking driver detail.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrServiceUnavailable
	}
	return err
}
