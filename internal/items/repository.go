package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotOwner = errors.New("item belongs to another user")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const itemColumns = `
	i.id, i.title, i.short_description, i.full_description, i.category,
	i.location, i.date, i.type, i.status, i.images, COALESCE(i.contact_preference, ''),
	i.user_id, u.username, i.reported_date, i.resolved_date
`

func (r *Repository) Create(ctx context.Context, ownerID, itemType string, input ReportInput) (Item, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Item{}, fmt.Errorf("generate item id: %w", err)
	}

	images, err := json.Marshal(orEmpty(input.Images))
	if err != nil {
		return Item{}, fmt.Errorf("encode images: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO items (id, title, short_description, full_description, category,
			location, date, type, status, images, contact_preference, user_id, reported_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, id.String(), input.Title, input.ShortDescription, input.FullDescription, input.Category,
		input.Location, input.Date, itemType, StatusActive, images, input.ContactPreference, ownerID, now)
	if err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}

	return r.GetByID(ctx, id.String())
}

func (r *Repository) GetByID(ctx context.Context, id string) (Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items i
		JOIN users u ON u.id = i.user_id
		WHERE i.id = $1
	`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, err
		}
		return Item{}, fmt.Errorf("query item: %w", err)
	}

	return item, nil
}

// List returns one page of items matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) (Page, error) {
	page, size := normalizePaging(filter.Page, filter.Size)

	where := make([]string, 0, 5)
	args := make([]any, 0, 7)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Type != "" {
		add("i.type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("i.status = $%d", filter.Status)
	}
	if filter.Resolved {
		where = append(where, "i.status <> 'ACTIVE'")
	}
	if filter.Category != "" {
		add("i.category = $%d", filter.Category)
	}
	if filter.Location != "" {
		add("i.location ILIKE '%%' || $%d || '%%'", filter.Location)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		where = append(where, fmt.Sprintf(
			"(i.title ILIKE '%%' || $%d || '%%' OR i.short_description ILIKE '%%' || $%d || '%%')",
			len(args), len(args),
		))
	}
	if filter.OwnerID != "" {
		add("i.user_id = $%d", filter.OwnerID)
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM items i %s`, clause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count items: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM items i
		JOIN users u ON u.id = i.user_id
		%s
		ORDER BY i.reported_date DESC
		LIMIT $%d OFFSET $%d
	`, itemColumns, clause, len(args)+1, len(args)+2)
	args = append(args, size, page*size)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return Page{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	list := make([]Item, 0, size)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return Page{}, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterate items: %w", err)
	}

	totalPages := total / int64(size)
	if total%int64(size) != 0 {
		totalPages++
	}

	return Page{
		Items:         list,
		PageNumber:    page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

func (r *Repository) Update(ctx context.Context, id, callerID string, input ReportInput) (Item, error) {
	if err := r.requireOwner(ctx, id, callerID); err != nil {
		return Item{}, err
	}

	images, err := json.Marshal(orEmpty(input.Images))
	if err != nil {
		return Item{}, fmt.Errorf("encode images: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE items
		SET title = $2, short_description = $3, full_description = $4, category = $5,
			location = $6, date = $7, images = $8, contact_preference = $9
		WHERE id = $1
	`, id, input.Title, input.ShortDescription, input.FullDescription, input.Category,
		input.Location, input.Date, images, input.ContactPreference)
	if err != nil {
		return Item{}, fmt.Errorf("update item: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *Repository) Delete(ctx context.Context, id, callerID string) error {
	if err := r.requireOwner(ctx, id, callerID); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// UpdateStatus moves an item between ACTIVE/CLAIMED/CLOSED, stamping
// resolved_date when it leaves ACTIVE and clearing it when it returns.
func (r *Repository) UpdateStatus(ctx context.Context, id, callerID, status string) (Item, error) {
	if err := r.requireOwner(ctx, id, callerID); err != nil {
		return Item{}, err
	}

	var resolvedAt any
	if status != StatusActive {
		resolvedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET status = $2, resolved_date = $3
		WHERE id = $1
	`, id, status, resolvedAt)
	if err != nil {
		return Item{}, fmt.Errorf("update item status: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *Repository) requireOwner(ctx context.Context, id, callerID string) error {
	var ownerID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM items WHERE id = $1`, id).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("query item owner: %w", err)
	}
	if ownerID != callerID {
		return ErrNotOwner
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var images []byte
	var date time.Time
	var resolved sql.NullTime
	err := row.Scan(
		&item.ID, &item.Title, &item.ShortDescription, &item.FullDescription, &item.Category,
		&item.Location, &date, &item.Type, &item.Status, &images, &item.ContactPreference,
		&item.OwnerID, &item.OwnerUsername, &item.ReportedDate, &resolved,
	)
	if err != nil {
		return Item{}, err
	}
	item.Date = date.Format("2006-01-02")

	if err := json.Unmarshal(images, &item.Images); err != nil {
		return Item{}, fmt.Errorf("decode images: %w", err)
	}
	if resolved.Valid {
		value := resolved.Time.UTC()
		item.ResolvedDate = &value
	}

	return item, nil
}

func normalizePaging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func orEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
