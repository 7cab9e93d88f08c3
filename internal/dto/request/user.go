package request

// UpdateProfileRequest replaces the optional profile fields. Empty strings clear them.
type UpdateProfileRequest struct {
	FirstName  string `json:"firstName" validate:"omitempty,max=100"`
	LastName   string `json:"lastName" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,e164"`
	Website    string `json:"website" validate:"omitempty,url,max=255"`
	PostalCode string `json:"postalCode" validate:"omitempty,postcode"`
	BirthDate  string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user agent admin"`
}
