package domain

import "time"

// Account is the tenant record: a registered owner of a relay endpoint.
type Account struct {
	AccountID          string     `json:"id" dynamodbav:"account_id"`
	Email              string     `json:"email" dynamodbav:"email"`
	PasswordHash       string     `json:"-" dynamodbav:"password_hash"`
	ClientID           string     `json:"client_id,omitempty" dynamodbav:"client_id,omitempty"`
	TargetEmails       []string   `json:"target_emails" dynamodbav:"target_emails"`
	AllowedOrigins     []string   `json:"allowed_origins" dynamodbav:"allowed_origins"`
	IsVerified         bool       `json:"is_verified" dynamodbav:"is_verified"`
	IsAcceptingEmails  bool       `json:"is_accepting_emails" dynamodbav:"is_accepting_emails"`
	VerificationToken  string     `json:"-" dynamodbav:"verification_token,omitempty"`
	VerificationExpire *time.Time `json:"-" dynamodbav:"verification_expire,omitempty"`
	ResetToken         string     `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetExpire        *time.Time `json:"-" dynamodbav:"reset_expire,omitempty"`
	CreatedAt          time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt          time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Profile is the outward projection of an Account. Password hash and the
// token pairs never leave the service.
type Profile struct {
	AccountID         string   `json:"_id"`
	Email             string   `json:"email"`
	ClientID          string   `json:"client_id,omitempty"`
	TargetEmails      []string `json:"target_emails"`
	AllowedOrigins    []string `json:"allowed_origins"`
	IsVerified        bool     `json:"is_verified"`
	IsAcceptingEmails bool     `json:"is_accepting_emails"`
}

// ToProfile builds the public projection.
func (a *Account) ToProfile() *Profile {
	return &Profile{
		AccountID:         a.AccountID,
		Email:             a.Email,
		ClientID:          a.ClientID,
		TargetEmails:      a.TargetEmails,
		AllowedOrigins:    a.AllowedOrigins,
		IsVerified:        a.IsVerified,
		IsAcceptingEmails: a.IsAcceptingEmails,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	ClientID          string   `json:"client_id" validate:"required,min=3"`
	TargetEmails      []string `json:"target_emails" validate:"required,min=1,dive,email"`
	AllowedOrigins    []string `json:"allowed_origins" validate:"omitempty,dive,url"`
	IsAcceptingEmails *bool    `json:"is_accepting_emails"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type TargetEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}
