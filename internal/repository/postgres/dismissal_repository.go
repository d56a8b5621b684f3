package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

type dismissalRepository struct {
	pool *pgxpool.Pool
}

func NewDismissalRepository(pool *pgxpool.Pool) repository.DismissalRepository {
	return &dismissalRepository{pool: pool}
}

var _ repository.DismissalRepository = (*dismissalRepository)(nil)

func (r *dismissalRepository) Read(ctx context.Context, userID uuid.UUID) (*model.Dismissal, error) {
	record := &model.Dismissal{}
	err := r.pool.QueryRow(
		ctx,
		`SELECT user_id, announcement_id, dismissed_at
		   FROM announcement_dismissals
		  WHERE user_id = $1`,
		userID,
	).Scan(&record.UserID, &record.AnnouncementID, &record.DismissedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *dismissalRepository) Write(ctx context.Context, userID, announcementID uuid.UUID, ts time.Time) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO announcement_dismissals (user_id, announcement_id, dismissed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET
			announcement_id = EXCLUDED.announcement_id,
			dismissed_at = EXCLUDED.dismissed_at`,
		userID,
		announcementID,
		ts.UTC(),
	)
	return err
}
