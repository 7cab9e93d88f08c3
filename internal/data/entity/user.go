package entity

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

// IsStaff reports whether the role may work on other users' feedback.
func (r UserRole) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

type User struct {
	Base
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	FirstName    *string    `db:"first_name"`
	LastName     *string    `db:"last_name"`
	Phone        *string    `db:"phone"`
	Website      *string    `db:"website"`
	PostalCode   *string    `db:"postal_code"`
	BirthDate    *time.Time `db:"birth_date"`
	Role         UserRole   `db:"role"`
	IsActive     bool       `db:"is_active"`

	IsEmailVerified           bool       `db:"is_email_verified"`
	EmailVerificationToken    *string    `db:"email_verification_token"`
	EmailVerificationExpires  *time.Time `db:"email_verification_expires"`
	EmailVerifiedAt           *time.Time `db:"email_verified_at"`
	VerificationTokenConsumed *string    `db:"verification_token_consumed"`

	PasswordResetToken   *string    `db:"password_reset_token"`
	PasswordResetExpires *time.Time `db:"password_reset_expires"`
	PasswordChangedAt    *time.Time `db:"password_changed_at"`
}

// FullName joins first and last name, skipping missing parts.
func (u *User) FullName() string {
	var name string
	if u.FirstName != nil {
		name = *u.FirstName
	}
	if u.LastName != nil && *u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += *u.LastName
	}
	return name
}
