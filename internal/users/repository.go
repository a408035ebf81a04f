package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"findspot-server/internal/auth"
)

var ErrUsernameTaken = errors.New("username is already taken")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Credentials implements auth.CredentialStore. A missing user is reported as
// sql.ErrNoRows; the authenticator folds that into invalid-credentials.
func (r *Repository) Credentials(ctx context.Context, username string) (auth.Identity, error) {
	var identity auth.Identity
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = $1
	`, username).Scan(&identity.ID, &identity.Username, &identity.PasswordHash, &identity.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Identity{}, err
		}
		return auth.Identity{}, fmt.Errorf("query credentials: %w", err)
	}

	return identity, nil
}

// IDByUsername implements items.UserResolver.
func (r *Repository) IDByUsername(ctx context.Context, username string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, username).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("query user id: %w", err)
	}

	return id, nil
}

type NewUser struct {
	Username     string
	FullName     string
	Email        string
	Phone        string
	PasswordHash string
}

func (r *Repository) Create(ctx context.Context, input NewUser) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:           id.String(),
		Username:     input.Username,
		FullName:     input.FullName,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: input.PasswordHash,
		Role:         "USER",
		JoinDate:     now,
		UpdatedAt:    now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, full_name, email, phone, password_hash, role, join_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, user.ID, user.Username, user.FullName, user.Email, user.Phone, user.PasswordHash, user.Role, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, full_name, email, phone, password_hash, role,
		       COALESCE(location, ''), COALESCE(bio, ''), COALESCE(avatar_url, ''),
		       join_date, updated_at
		FROM users
		WHERE username = $1
	`, username).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Email, &user.Phone,
		&user.PasswordHash, &user.Role, &user.Location, &user.Bio, &user.AvatarURL,
		&user.JoinDate, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("query user by username: %w", err)
	}

	return user, nil
}

type ProfileUpdate struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

func (r *Repository) UpdateProfile(ctx context.Context, userID string, input ProfileUpdate) (User, error) {
	var user User
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET full_name = $2, email = $3, phone = $4, location = $5, bio = $6, avatar_url = $7, updated_at = $8
		WHERE id = $1
		RETURNING id, username, full_name, email, phone, password_hash, role,
		          COALESCE(location, ''), COALESCE(bio, ''), COALESCE(avatar_url, ''),
		          join_date, updated_at
	`, userID, input.FullName, input.Email, input.Phone, input.Location, input.Bio, input.AvatarURL, time.Now().UTC()).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Email, &user.Phone,
		&user.PasswordHash, &user.Role, &user.Location, &user.Bio, &user.AvatarURL,
		&user.JoinDate, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, userID, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (r *Repository) Stats(ctx context.Context, userID string) (Stats, error) {
	var stats Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE type = 'LOST'),
			COUNT(*) FILTER (WHERE type = 'FOUND'),
			COUNT(*) FILTER (WHERE status <> 'ACTIVE')
		FROM items
		WHERE user_id = $1
	`, userID).Scan(&stats.ReportedLost, &stats.ReportedFound, &stats.ItemsResolved)
	if err != nil {
		return Stats{}, fmt.Errorf("query user stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) Settings(ctx context.Context, userID string) (Settings, error) {
	settings := defaultSettings()
	err := r.db.QueryRowContext(ctx, `
		SELECT email_enabled, push_enabled, lost_item_alerts, found_item_alerts, message_alerts,
		       show_email, show_phone, show_location, allow_messages,
		       theme, language, compact_view, show_resolved_items
		FROM user_settings
		WHERE user_id = $1
	`, userID).Scan(
		&settings.Notifications.EmailEnabled, &settings.Notifications.PushEnabled,
		&settings.Notifications.LostItemAlerts, &settings.Notifications.FoundItemAlerts,
		&settings.Notifications.MessageAlerts,
		&settings.Privacy.ShowEmail, &settings.Privacy.ShowPhone,
		&settings.Privacy.ShowLocation, &settings.Privacy.AllowMessages,
		&settings.Display.Theme, &settings.Display.Language,
		&settings.Display.CompactView, &settings.Display.ShowResolvedItems,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("query user settings: %w", err)
	}

	return settings, nil
}

func (r *Repository) UpdateNotificationSettings(ctx context.Context, userID string, in NotificationSettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, email_enabled, push_enabled, lost_item_alerts, found_item_alerts, message_alerts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			lost_item_alerts = EXCLUDED.lost_item_alerts,
			found_item_alerts = EXCLUDED.found_item_alerts,
			message_alerts = EXCLUDED.message_alerts
	`, userID, in.EmailEnabled, in.PushEnabled, in.LostItemAlerts, in.FoundItemAlerts, in.MessageAlerts)
	if err != nil {
		return fmt.Errorf("upsert notification settings: %w", err)
	}

	return nil
}

func (r *Repository) UpdatePrivacySettings(ctx context.Context, userID string, in PrivacySettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, show_email, show_phone, show_location, allow_messages)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			show_email = EXCLUDED.show_email,
			show_phone = EXCLUDED.show_phone,
			show_location = EXCLUDED.show_location,
			allow_messages = EXCLUDED.allow_messages
	`, userID, in.ShowEmail, in.ShowPhone, in.ShowLocation, in.AllowMessages)
	if err != nil {
		return fmt.Errorf("upsert privacy settings: %w", err)
	}

	return nil
}

func (r *Repository) UpdateDisplaySettings(ctx context.Context, userID string, in DisplaySettings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, theme, language, compact_view, show_resolved_items)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			theme = EXCLUDED.theme,
			language = EXCLUDED.language,
			compact_view = EXCLUDED.compact_view,
			show_resolved_items = EXCLUDED.show_resolved_items
	`, userID, in.Theme, in.Language, in.CompactView, in.ShowResolvedItems)
	if err != nil {
		return fmt.Errorf("upsert display settings: %w", err)
	}

	return nil
}

func (r *Repository) SaveItem(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_items (user_id, item_id, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id) DO NOTHING
	`, userID, itemID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}

	return nil
}

func (r *Repository) SavedItemIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id
		FROM saved_items
		WHERE user_id = $1
		ORDER BY saved_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query saved items: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan saved item: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved items: %w", err)
	}

	return ids, nil
}

// DeleteAccount removes the user row; items, settings and saved items go with
// it via ON DELETE CASCADE. Refresh tokens are deleted by the caller through
// the session store so logout-everywhere semantics stay in one place.
func (r *Repository) DeleteAccount(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
