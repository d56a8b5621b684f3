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

type rideRepository struct {
	pool *pgxpool.Pool
}

func NewRideRepository(pool *pgxpool.Pool) repository.RideRepository {
	return &rideRepository{pool: pool}
}

var _ repository.RideRepository = (*rideRepository)(nil)

const rideColumns = `
	id,
	driver_id,
	origin,
	destination,
	departs_at,
	seats_total,
	seats_taken,
	status,
	created_at,
	updated_at
`

const rideRequestColumns = `
	id,
	ride_id,
	rider_id,
	note,
	status,
	created_at,
	updated_at
`

func (r *rideRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func (r *rideRepository) Create(ctx context.Context, ride *model.Ride) error {
	now := time.Now().UTC()
	if ride.CreatedAt.IsZero() {
		ride.CreatedAt = now
	}
	ride.UpdatedAt = now

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO rides (
			id, driver_id, origin, destination, departs_at,
			seats_total, seats_taken, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ride.ID,
		ride.DriverID,
		ride.Origin,
		ride.Destination,
		ride.DepartsAt,
		ride.SeatsTotal,
		ride.SeatsTaken,
		ride.Status,
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	return err
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RideStatus) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE rides
		    SET status = $2,
		        updated_at = NOW()
		  WHERE id = $1`,
		id,
		status,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

// ReserveSeat relies on a single conditional UPDATE so concurrent accepts
// cannot oversell the ride.
func (r *rideRepository) ReserveSeat(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE rides
		    SET seats_taken = seats_taken + 1,
		        status = CASE WHEN seats_taken + 1 >= seats_total THEN 'full' ELSE status END,
		        updated_at = NOW()
		  WHERE id = $1
		    AND status = 'open'
		    AND seats_taken < seats_total
		  RETURNING `+rideColumns,
		id,
	)

	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func (r *rideRepository) ReleaseSeat(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	row := r.pool.QueryRow(
		ctx,
		`UPDATE rides
		    SET seats_taken = GREATEST(seats_taken - 1, 0),
		        status = CASE WHEN status = 'full' THEN 'open' ELSE status END,
		        updated_at = NOW()
		  WHERE id = $1
		    AND status IN ('open', 'full')
		  RETURNING `+rideColumns,
		id,
	)

	ride, err := scanRide(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

func (r *rideRepository) List(ctx context.Context, filter repository.RideListFilter) ([]*model.Ride, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args, conditions := buildRideConditions(filter)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(rideColumns)
	builder.WriteString(" FROM rides")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, limit, offset)
	builder.WriteString(fmt.Sprintf(" ORDER BY departs_at ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.Ride, 0, limit)
	for rows.Next() {
		item, scanErr := scanRide(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *rideRepository) Count(ctx context.Context, filter repository.RideListFilter) (int64, error) {
	args, conditions := buildRideConditions(filter)

	query := "SELECT COUNT(*) FROM rides"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *rideRepository) FindRequestByID(ctx context.Context, id uuid.UUID) (*model.RideRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rideRequestColumns+` FROM ride_requests WHERE id = $1`, id)
	req, err := scanRideRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *rideRepository) CreateRequest(ctx context.Context, req *model.RideRequest) error {
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO ride_requests (
			id, ride_id, rider_id, note, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID,
		req.RideID,
		req.RiderID,
		req.Note,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	return err
}

func (r *rideRepository) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status model.RideRequestStatus) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE ride_requests
		    SET status = $2,
		        updated_at = NOW()
		  WHERE id = $1`,
		id,
		status,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *rideRepository) ListRequestsByRide(ctx context.Context, rideID uuid.UUID) ([]*model.RideRequest, error) {
	return r.listRequests(ctx, "ride_id", rideID)
}

func (r *rideRepository) ListRequestsByRider(ctx context.Context, riderID uuid.UUID) ([]*model.RideRequest, error) {
	return r.listRequests(ctx, "rider_id", riderID)
}

func (r *rideRepository) listRequests(ctx context.Context, column string, id uuid.UUID) ([]*model.RideRequest, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+rideRequestColumns+` FROM ride_requests WHERE `+column+` = $1 ORDER BY created_at DESC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.RideRequest, 0, 8)
	for rows.Next() {
		item, scanErr := scanRideRequest(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func buildRideConditions(filter repository.RideListFilter) ([]any, []string) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 3)

	if filter.DriverID != nil {
		args = append(args, *filter.DriverID)
		conditions = append(conditions, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DepartsAfter != nil {
		args = append(args, *filter.DepartsAfter)
		conditions = append(conditions, fmt.Sprintf("departs_at > $%d", len(args)))
	}

	return args, conditions
}

func scanRide(src rowScanner) (*model.Ride, error) {
	item := &model.Ride{}
	if err := src.Scan(
		&item.ID,
		&item.DriverID,
		&item.Origin,
		&item.Destination,
		&item.DepartsAt,
		&item.SeatsTotal,
		&item.SeatsTaken,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}

func scanRideRequest(src rowScanner) (*model.RideRequest, error) {
	item := &model.RideRequest{}
	if err := src.Scan(
		&item.ID,
		&item.RideID,
		&item.RiderID,
		&item.Note,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}
