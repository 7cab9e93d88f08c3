package request

type RegisterRequest struct {
	Username        string `json:"username" validate:"omitempty,username"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"omitempty,max=100"`
	LastName        string `json:"lastName" validate:"omitempty,max=100"`
	Phone           string `json:"phone" validate:"omitempty,e164"`
	Website         string `json:"website" validate:"omitempty,url,max=255"`
	PostalCode      string `json:"postalCode" validate:"omitempty,postcode"`
	BirthDate       string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,uuid"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,max=128"`
}

// EmailRequest is used by resend-verification and forgot-password.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required,max=128"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=128"`
	NewPassword     string `json:"newPassword" validate:"required,password,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=NewPassword"`
}
