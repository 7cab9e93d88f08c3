package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

const uniqueViolation = "23505"

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountAll(ctx context.Context) (int64, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Single use tokens, stored as digests
	SetVerificationToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, digest string) (*entity.User, error)
	FindByConsumedVerificationToken(ctx context.Context, digest string) (*entity.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, digest, passwordHash string) (*entity.User, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone, website,
		       postal_code, birth_date, role, is_active, is_email_verified,
		       email_verification_token, email_verification_expires, email_verified_at,
		       verification_token_consumed, password_reset_token, password_reset_expires,
		       password_changed_at, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Website,
		&user.PostalCode,
		&user.BirthDate,
		&user.Role,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.EmailVerificationToken,
		&user.EmailVerificationExpires,
		&user.EmailVerifiedAt,
		&user.VerificationTokenConsumed,
		&user.PasswordResetToken,
		&user.PasswordResetExpires,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// NormalizeEmail is the stored and compared form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user. Unique violations come back as
// ErrDuplicateEmail or ErrDuplicateUsername.
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name,
		                   phone, website, postal_code, birth_date, role, is_active,
		                   is_email_verified, email_verification_token, email_verification_expires,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	user.Email = NormalizeEmail(user.Email)

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Website,
		user.PostalCode,
		user.BirthDate,
		user.Role,
		user.IsActive,
		user.IsEmailVerified,
		user.EmailVerificationToken,
		user.EmailVerificationExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) findOne(ctx context.Context, what, where string, arg any) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(ur.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user",
			zap.Error(err),
			zap.String("by", what),
		)
		return nil, fmt.Errorf("find user by %s: %w", what, err)
	}
	return user, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return ur.findOne(ctx, "id", `id = $1 AND deleted_at IS NULL`, id)
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return ur.findOne(ctx, "email", `email = $1 AND deleted_at IS NULL`, NormalizeEmail(email))
}

func (ur *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return ur.findOne(ctx, "username", `LOWER(username) = LOWER($1) AND deleted_at IS NULL`, username)
}

// FindAll retrieves paginated list of users
func (ur *userRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := ur.db.Query(ctx, query, limit, offset)
	if err != nil {
		ur.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all users limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		ur.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate users rows: %w", err)
	}

	return users, nil
}

func (ur *userRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`

	var count int64
	err := ur.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		ur.log.Error("Database error counting users", zap.Error(err))
		return 0, fmt.Errorf("count all users: %w", err)
	}

	return count, nil
}

// exec runs a single row update and reports a missing row as an error.
func (ur *userRepository) exec(ctx context.Context, op string, id uuid.UUID, query string, args ...any) error {
	result, err := ur.db.Exec(ctx, query, args...)
	if err != nil {
		ur.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return fmt.Errorf("%s %s: %w", op, id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found or already deleted", id.String())
	}
	return nil
}

func (ur *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, website = $5,
		    postal_code = $6, birth_date = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return ur.exec(ctx, "update profile", user.ID, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Website,
		user.PostalCode,
		user.BirthDate,
	)
}

func (ur *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = NOW(),
		    password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return ur.exec(ctx, "update password", id, query, id, passwordHash)
}

func (ur *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return ur.exec(ctx, "set active", id, query, id, active)
}

func (ur *userRepository) SetRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return ur.exec(ctx, "set role", id, query, id, role)
}

func (ur *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if err := ur.exec(ctx, "delete user", id, query, id); err != nil {
		return err
	}

	ur.log.Info("User deleted", zap.String("id", id.String()))
	return nil
}

// ==================== TOKENS ====================

// SetVerificationToken overwrites any outstanding verification token, so an
// earlier token stops matching.
func (ur *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET email_verification_token = $2, email_verification_expires = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return ur.exec(ctx, "set verification token", id, query, id, digest, expiresAt)
}

// ConsumeVerificationToken verifies the owner of an unexpired token and
// clears it in one statement. It returns nil when no row qualifies.
func (ur *userRepository) ConsumeVerificationToken(ctx context.Context, digest string) (*entity.User, error) {
	query := `
		UPDATE users
		SET is_email_verified = TRUE,
		    email_verified_at = NOW(),
		    email_verification_token = NULL,
		    email_verification_expires = NULL,
		    verification_token_consumed = $1,
		    updated_at = NOW()
		WHERE email_verification_token = $1
		  AND email_verification_expires > NOW()
		  AND is_active
		  AND deleted_at IS NULL
		RETURNING ` + userColumns

	user, err := scanUser(ur.db.QueryRow(ctx, query, digest))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to consume verification token", zap.Error(err))
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	return user, nil
}

func (ur *userRepository) FindByConsumedVerificationToken(ctx context.Context, digest string) (*entity.User, error) {
	return ur.findOne(ctx, "consumed verification token",
		`verification_token_consumed = $1 AND is_email_verified AND is_active AND deleted_at IS NULL`, digest)
}

// SetResetToken replaces any outstanding reset token.
func (ur *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return ur.exec(ctx, "set reset token", id, query, id, digest, expiresAt)
}

// ConsumeResetToken sets the new password for the owner of an unexpired
// reset token and clears it in one statement. It returns nil when no row
// qualifies.
func (ur *userRepository) ConsumeResetToken(ctx context.Context, digest, passwordHash string) (*entity.User, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = NOW(),
		    password_reset_token = NULL,
		    password_reset_expires = NULL,
		    updated_at = NOW()
		WHERE password_reset_token = $1
		  AND password_reset_expires > NOW()
		  AND is_active
		  AND deleted_at IS NULL
		RETURNING ` + userColumns

	user, err := scanUser(ur.db.QueryRow(ctx, query, digest, passwordHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to consume reset token", zap.Error(err))
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return user, nil
}
