package service

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	jwtutil "unishare-hub/pkg/jwt"
)

const (
	defaultAccessTokenTTL  = 2 * time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	minPasswordLength      = 8
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserBanned          = errors.New("user banned")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidUserInput    = errors.New("invalid user input")
)

type RegisterRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	Email       *string `json:"email,omitempty"`
	DisplayName string  `json:"display_name"`
	Campus      *string `json:"campus,omitempty"`
}

type AuthService struct {
	userRepo   repository.UserRepository
	auditRepo  repository.AuditRepository
	pool       *pgxpool.Pool
	privateKey *rsa.PrivateKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	pool *pgxpool.Pool,
	privateKey *rsa.PrivateKey,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		pool:       pool,
		privateKey: privateKey,
		accessTTL:  defaultAccessTokenTTL,
		refreshTTL: defaultRefreshTokenTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUserInput
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrInvalidUserInput
	}

	displayName := sanitize.Text(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashed),
		Email:        sanitize.TextPtr(req.Email),
		DisplayName:  displayName,
		Campus:       sanitize.TextPtr(req.Campus),
		Role:         model.UserRoleUser,
		Status:       model.UserStatusNormal,
		PopupSeen:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.writeAudit(ctx, &user.ID, "user.register")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	if s.privateKey == nil {
		return "", "", errors.New("private key is nil")
	}

	user, err := s.userRepo.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if user.Status == model.UserStatusBanned {
		return "", "", ErrUserBanned
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err = s.issueTokensForUser(ctx, user)
	if err != nil {
		return "", "", err
	}

	s.writeAudit(ctx, &user.ID, "user.login")

	return accessToken, refreshToken, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error) {
	if s.privateKey == nil {
		return "", "", errors.New("private key is nil")
	}
	if refreshToken == "" {
		return "", "", ErrRefreshTokenInvalid
	}

	tokenHash := hashToken(refreshToken)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var userID uuid.UUID
	var role model.UserRole
	var status model.UserStatus
	var expiresAt time.Time

	query := `
		SELECT rt.user_id, rt.expires_at, u.role, u.status
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.token_hash = $1
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, query, tokenHash).Scan(
		&userID,
		&expiresAt,
		&role,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrRefreshTokenInvalid
		}
		return "", "", err
	}

	now := time.Now().UTC()
	if !expiresAt.After(now) {
		if _, delErr := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash); delErr != nil {
			return "", "", delErr
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return "", "", commitErr
		}
		return "", "", ErrRefreshTokenExpired
	}

	if status == model.UserStatusBanned {
		return "", "", ErrUserBanned
	}

	claims := jwtutil.NewClaims(userID.String(), string(role), s.accessTTL)
	newAccessToken, err = jwtutil.GenerateAccessToken(claims, s.privateKey)
	if err != nil {
		return "", "", err
	}

	newRefreshToken, err = jwtutil.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	newHash := hashToken(newRefreshToken)

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash); err != nil {
		return "", "", err
	}

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		newHash,
		userID,
		now.Add(s.refreshTTL),
		now,
	); err != nil {
		return "", "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshTokenInvalid
	}

	tokenHash := hashToken(refreshToken)

	var userID uuid.UUID
	err := s.pool.QueryRow(
		ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = $1 RETURNING user_id`,
		tokenHash,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	s.writeAudit(ctx, &userID, "user.logout")

	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPwd, newPwd string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return ErrUserNotFound
	}
	if len(newPwd) < minPasswordLength {
		return ErrInvalidUserInput
	}

	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPwd)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashed)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	// Revoke every session; the new password must be used to log back in.
	if _, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, uid); err != nil {
		return err
	}

	return nil
}

// CreateAdmin provisions an administrator account, used by the create-admin
// subcommand.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(password) < minPasswordLength {
		return nil, ErrInvalidUserInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hashed),
		DisplayName:  username,
		Role:         model.UserRoleAdmin,
		Status:       model.UserStatusNormal,
		PopupSeen:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) issueTokensForUser(ctx context.Context, user *model.User) (string, string, error) {
	if user == nil {
		return "", "", ErrUserNotFound
	}
	claims := jwtutil.NewClaims(user.ID.String(), string(user.Role), s.accessTTL)
	accessToken, err := jwtutil.GenerateAccessToken(claims, s.privateKey)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := jwtutil.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	if err := s.insertRefreshToken(ctx, user.ID, refreshToken, s.refreshTTL); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (s *AuthService) insertRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		hashToken(refreshToken),
		userID,
		now.Add(ttl),
		now,
	)
	return err
}

func (s *AuthService) writeAudit(ctx context.Context, userID *uuid.UUID, action string) {
	if s.auditRepo == nil {
		return
	}

	_ = s.auditRepo.Create(ctx, &model.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: strPtr("user"),
		ResourceID:   uuidToStringPtr(userID),
		CreatedAt:    time.Now().UTC(),
	})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func uuidToStringPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}
