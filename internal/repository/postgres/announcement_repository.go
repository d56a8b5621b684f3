package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

type announcementRepository struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepository(pool *pgxpool.Pool) repository.AnnouncementRepository {
	return &announcementRepository{pool: pool}
}

var _ repository.AnnouncementRepository = (*announcementRepository)(nil)

const announcementColumns = `
	id,
	title,
	body,
	priority,
	active,
	source,
	feed_id,
	expires_at,
	created_by,
	created_at,
	updated_at
`

func (r *announcementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`,
		id,
	)

	item, err := scanAnnouncement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *announcementRepository) Create(ctx context.Context, a *model.Announcement) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO announcements (
			id, title, body, priority, active, source, feed_id,
			expires_at, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID,
		a.Title,
		a.Body,
		a.Priority,
		a.Active,
		a.Source,
		a.FeedID,
		a.ExpiresAt,
		a.CreatedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *announcementRepository) Update(ctx context.Context, a *model.Announcement) error {
	a.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE announcements
		    SET title = $2,
		        body = $3,
		        priority = $4,
		        active = $5,
		        expires_at = $6,
		        updated_at = $7
		  WHERE id = $1`,
		a.ID,
		a.Title,
		a.Body,
		a.Priority,
		a.Active,
		a.ExpiresAt,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *announcementRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE announcements
		    SET active = $2,
		        updated_at = NOW()
		  WHERE id = $1`,
		id,
		active,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *announcementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *announcementRepository) List(ctx context.Context, filter repository.AnnouncementListFilter) ([]*model.Announcement, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args, conditions := buildAnnouncementConditions(filter)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(announcementColumns)
	builder.WriteString(" FROM announcements")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, limit, offset)
	builder.WriteString(fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAnnouncements(rows, int(limit))
}

func (r *announcementRepository) Count(ctx context.Context, filter repository.AnnouncementListFilter) (int64, error) {
	args, conditions := buildAnnouncementConditions(filter)

	query := "SELECT COUNT(*) FROM announcements"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *announcementRepository) ListEligible(ctx context.Context, now time.Time) ([]*model.Announcement, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+announcementColumns+`
		   FROM announcements
		  WHERE active = TRUE
		    AND (expires_at IS NULL OR expires_at > $1)
		  ORDER BY updated_at DESC, created_at DESC`,
		now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAnnouncements(rows, 16)
}

func (r *announcementRepository) UpsertFromFeed(ctx context.Context, a *model.Announcement) error {
	if a.FeedID == nil || strings.TrimSpace(*a.FeedID) == "" {
		return errors.New("feed id is required for feed upsert")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO announcements (
			id, title, body, priority, active, source, feed_id,
			expires_at, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, 'feed', $6, $7, NULL, $8, $9)
		ON CONFLICT (feed_id) WHERE feed_id IS NOT NULL
		DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			priority = EXCLUDED.priority,
			active = EXCLUDED.active,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`,
		a.ID,
		a.Title,
		a.Body,
		a.Priority,
		a.Active,
		a.FeedID,
		a.ExpiresAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func buildAnnouncementConditions(filter repository.AnnouncementListFilter) ([]any, []string) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 3)

	if filter.Source != nil {
		args = append(args, *filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "active = TRUE")
	}

	return args, conditions
}

func collectAnnouncements(rows pgx.Rows, capacityHint int) ([]*model.Announcement, error) {
	items := make([]*model.Announcement, 0, capacityHint)
	for rows.Next() {
		item, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanAnnouncement(src rowScanner) (*model.Announcement, error) {
	item := &model.Announcement{}
	if err := src.Scan(
		&item.ID,
		&item.Title,
		&item.Body,
		&item.Priority,
		&item.Active,
		&item.Source,
		&item.FeedID,
		&item.ExpiresAt,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}
