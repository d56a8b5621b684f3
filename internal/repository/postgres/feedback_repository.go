package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

type feedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) repository.FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

var _ repository.FeedbackRepository = (*feedbackRepository)(nil)

const feedbackColumns = `
	id,
	user_id,
	type,
	name,
	email,
	subject,
	message,
	rating,
	status,
	attempts,
	last_error,
	created_at,
	updated_at
`

func (r *feedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO feedback_outbox (
			id, user_id, type, name, email, subject, message, rating,
			status, attempts, last_error, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		f.ID,
		f.UserID,
		f.Type,
		f.Name,
		f.Email,
		f.Subject,
		f.Message,
		f.Rating,
		f.Status,
		f.Attempts,
		f.LastError,
		f.CreatedAt,
		f.UpdatedAt,
	)
	return err
}

func (r *feedbackRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status model.FeedbackStatus,
	attempts int,
	lastError *string,
) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE feedback_outbox
		    SET status = $2,
		        attempts = $3,
		        last_error = $4,
		        updated_at = NOW()
		  WHERE id = $1`,
		id,
		status,
		attempts,
		lastError,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *feedbackRepository) ListQueued(ctx context.Context, limit int32) ([]*model.Feedback, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+feedbackColumns+`
		   FROM feedback_outbox
		  WHERE status = 'queued'
		  ORDER BY created_at ASC
		  LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFeedback(rows, int(limit))
}

func (r *feedbackRepository) List(ctx context.Context, filter repository.FeedbackListFilter) ([]*model.Feedback, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args, conditions := buildFeedbackConditions(filter)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(feedbackColumns)
	builder.WriteString(" FROM feedback_outbox")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, limit, offset)
	builder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFeedback(rows, int(limit))
}

func (r *feedbackRepository) Count(ctx context.Context, filter repository.FeedbackListFilter) (int64, error) {
	args, conditions := buildFeedbackConditions(filter)

	query := "SELECT COUNT(*) FROM feedback_outbox"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildFeedbackConditions(filter repository.FeedbackListFilter) ([]any, []string) {
	args := make([]any, 0, 2)
	conditions := make([]string, 0, 2)

	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	return args, conditions
}

func collectFeedback(rows pgx.Rows, capacityHint int) ([]*model.Feedback, error) {
	items := make([]*model.Feedback, 0, capacityHint)
	for rows.Next() {
		item := &model.Feedback{}
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Type,
			&item.Name,
			&item.Email,
			&item.Subject,
			&item.Message,
			&item.Rating,
			&item.Status,
			&item.Attempts,
			&item.LastError,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
