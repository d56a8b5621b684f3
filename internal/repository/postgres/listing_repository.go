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

type listingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) repository.ListingRepository {
	return &listingRepository{pool: pool}
}

var _ repository.ListingRepository = (*listingRepository)(nil)

const listingColumns = `
	id,
	seller_id,
	title,
	description,
	category,
	price_cents,
	status,
	created_at,
	updated_at
`

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
		id,
	)
	item, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO listings (
			id, seller_id, title, description, category, price_cents,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID,
		l.SellerID,
		l.Title,
		l.Description,
		l.Category,
		l.PriceCents,
		l.Status,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (r *listingRepository) Update(ctx context.Context, l *model.Listing) error {
	l.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE listings
		    SET title = $2,
		        description = $3,
		        category = $4,
		        price_cents = $5,
		        status = $6,
		        updated_at = $7
		  WHERE id = $1`,
		l.ID,
		l.Title,
		l.Description,
		l.Category,
		l.PriceCents,
		l.Status,
		l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *listingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ListingStatus) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE listings
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

func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *listingRepository) List(ctx context.Context, filter repository.ListingListFilter) ([]*model.Listing, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args, conditions := buildListingConditions(filter)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(listingColumns)
	builder.WriteString(" FROM listings")
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

	items := make([]*model.Listing, 0, limit)
	for rows.Next() {
		item, scanErr := scanListing(rows)
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

func (r *listingRepository) Count(ctx context.Context, filter repository.ListingListFilter) (int64, error) {
	args, conditions := buildListingConditions(filter)

	query := "SELECT COUNT(*) FROM listings"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildListingConditions(filter repository.ListingListFilter) ([]any, []string) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Keyword != nil && strings.TrimSpace(*filter.Keyword) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Keyword)+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	return args, conditions
}

func scanListing(src rowScanner) (*model.Listing, error) {
	item := &model.Listing{}
	if err := src.Scan(
		&item.ID,
		&item.SellerID,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.PriceCents,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}
