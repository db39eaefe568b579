package auth

// Credentials for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a passenger account. ClaimEmails defaults to true
// when omitted.
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"required,min=1,max=100"`
	LastName    string `json:"last_name" validate:"required,min=1,max=100"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	ClaimEmails *bool  `json:"claim_emails,omitempty"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// bcrypt ignores input past 72 bytes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type UpdatePreferencesRequest struct {
	ClaimEmails *bool `json:"claim_emails" validate:"required"`
}
