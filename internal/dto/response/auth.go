package response

import (
	"time"

	"feedback-portal/internal/data/entity"
)

type UserResponse struct {
	ID              string          `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	FirstName       *string         `json:"firstName,omitempty"`
	LastName        *string         `json:"lastName,omitempty"`
	FullName        string          `json:"fullName,omitempty"`
	Phone           *string         `json:"phone,omitempty"`
	Website         *string         `json:"website,omitempty"`
	PostalCode      *string         `json:"postalCode,omitempty"`
	BirthDate       *string         `json:"birthDate,omitempty"`
	Role            entity.UserRole `json:"role"`
	IsActive        bool            `json:"isActive"`
	IsEmailVerified bool            `json:"isEmailVerified"`
	EmailVerifiedAt *time.Time      `json:"emailVerifiedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type TokensResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

type VerifyEmailResponse struct {
	User            UserResponse `json:"user"`
	AlreadyVerified bool         `json:"alreadyVerified"`
}

// UserToResponse never exposes the password hash or token digests.
func UserToResponse(user *entity.User) UserResponse {
	resp := UserResponse{
		ID:              user.ID.String(),
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		FullName:        user.FullName(),
		Phone:           user.Phone,
		Website:         user.Website,
		PostalCode:      user.PostalCode,
		Role:            user.Role,
		IsActive:        user.IsActive,
		IsEmailVerified: user.IsEmailVerified,
		EmailVerifiedAt: user.EmailVerifiedAt,
		CreatedAt:       user.CreatedAt,
	}
	if user.BirthDate != nil {
		date := user.BirthDate.Format(time.DateOnly)
		resp.BirthDate = &date
	}
	return resp
}

func UsersToResponse(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserToResponse(u))
	}
	return out
}
