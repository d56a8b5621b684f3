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

type lostFoundRepository struct {
	pool *pgxpool.Pool
}

func NewLostFoundRepository(pool *pgxpool.Pool) repository.LostFoundRepository {
	return &lostFoundRepository{pool: pool}
}

var _ repository.LostFoundRepository = (*lostFoundRepository)(nil)

const lostFoundColumns = `
	id,
	reporter_id,
	kind,
	item,
	description,
	location,
	case_code,
	status,
	created_at,
	updated_at
`

func (r *lostFoundRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LostFoundReport, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+lostFoundColumns+` FROM lost_found_reports WHERE id = $1`, id)
	report, err := scanLostFound(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

func (r *lostFoundRepository) FindByCaseCode(ctx context.Context, code string) (*model.LostFoundReport, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+lostFoundColumns+` FROM lost_found_reports WHERE case_code = $1`,
		strings.ToUpper(strings.TrimSpace(code)),
	)
	report, err := scanLostFound(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

func (r *lostFoundRepository) Create(ctx context.Context, report *model.LostFoundReport) error {
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO lost_found_reports (
			id, reporter_id, kind, item, description, location,
			case_code, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.ID,
		report.ReporterID,
		report.Kind,
		report.Item,
		report.Description,
		report.Location,
		report.CaseCode,
		report.Status,
		report.CreatedAt,
		report.UpdatedAt,
	)
	return err
}

func (r *lostFoundRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LostFoundStatus) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE lost_found_reports
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

func (r *lostFoundRepository) List(ctx context.Context, filter repository.LostFoundListFilter) ([]*model.LostFoundReport, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args, conditions := buildLostFoundConditions(filter)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(lostFoundColumns)
	builder.WriteString(" FROM lost_found_reports")
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

	items := make([]*model.LostFoundReport, 0, limit)
	for rows.Next() {
		item, scanErr := scanLostFound(rows)
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

func (r *lostFoundRepository) Count(ctx context.Context, filter repository.LostFoundListFilter) (int64, error) {
	args, conditions := buildLostFoundConditions(filter)

	query := "SELECT COUNT(*) FROM lost_found_reports"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildLostFoundConditions(filter repository.LostFoundListFilter) ([]any, []string) {
	args := make([]any, 0, 3)
	conditions := make([]string, 0, 3)

	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Keyword != nil && strings.TrimSpace(*filter.Keyword) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Keyword)+"%")
		conditions = append(conditions, fmt.Sprintf("(item ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	return args, conditions
}

func scanLostFound(src rowScanner) (*model.LostFoundReport, error) {
	item := &model.LostFoundReport{}
	if err := src.Scan(
		&item.ID,
		&item.ReporterID,
		&item.Kind,
		&item.Item,
		&item.Description,
		&item.Location,
		&item.CaseCode,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}
