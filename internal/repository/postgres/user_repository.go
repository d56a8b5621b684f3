package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

var _ repository.UserRepository = (*userRepository)(nil)

const userColumns = `
	id,
	username,
	password_hash,
	email,
	display_name,
	campus,
	role,
	status,
	popup_seen,
	created_at,
	updated_at
`

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`,
		strings.TrimSpace(username),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (
			id, username, password_hash, email, display_name, campus,
			role, status, popup_seen, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.DisplayName,
		user.Campus,
		user.Role,
		user.Status,
		user.PopupSeen,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE users
		    SET email = $2,
		        display_name = $3,
		        campus = $4,
		        role = $5,
		        status = $6,
		        updated_at = $7
		  WHERE id = $1`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Campus,
		user.Role,
		user.Status,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE users
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

func (r *userRepository) SetPopupSeen(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE users
		    SET popup_seen = TRUE,
		        updated_at = NOW()
		  WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func scanUser(src rowScanner) (*model.User, error) {
	user := &model.User{}
	if err := src.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.DisplayName,
		&user.Campus,
		&user.Role,
		&user.Status,
		&user.PopupSeen,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return user, nil
}
