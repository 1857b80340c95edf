package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formrelay-api/internal/domain"
	"github.com/formrelay-api/internal/infrastructure/smtp"
	"github.com/formrelay-api/internal/pkg/id"
	pkgtoken "github.com/formrelay-api/internal/pkg/token"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPasswordHash       = "password_hash"
	fieldIsVerified         = "is_verified"
	fieldVerificationToken  = "verification_token"
	fieldVerificationExpire = "verification_expire"
	fieldResetToken         = "reset_token"
	fieldResetExpire        = "reset_expire"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = 10 * time.Minute
)

// Service is the credential manager: registration, login, email
// verification, password change/reset and the token lifecycle behind them.
type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.Account, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type passwordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Compare(ctx context.Context, hash, plain string) error
}

type sessionSigner interface {
	Sign(accountID string) (string, error)
}

type service struct {
	repo        accountStore
	hasher      passwordHasher
	signer      sessionSigner
	mailer      smtp.Mailer
	frontendURL string
}

type ServiceDeps struct {
	AccountRepo accountStore
	Hasher      passwordHasher
	Signer      sessionSigner
	Mailer      smtp.Mailer
	FrontendURL string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.AccountRepo,
		hasher:      deps.Hasher,
		signer:      deps.Signer,
		mailer:      deps.Mailer,
		frontendURL: deps.FrontendURL,
	}
}

// Register creates a new account with a fresh verification token and
// issues a session. The welcome mail is best-effort: a transport failure
// is logged, never surfaced, so it cannot block account creation.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, string, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", fmt.Errorf("User already exists: %w", domain.ErrConflict)
	}
	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, "", err
	}
	verificationToken, err := pkgtoken.New()
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	expire := now.Add(verificationTokenTTL)
	a := &domain.Account{
		AccountID:          id.New(),
		Email:              req.Email,
		PasswordHash:       hash,
		TargetEmails:       []string{},
		AllowedOrigins:     []string{},
		IsAcceptingEmails:  true,
		VerificationToken:  verificationToken,
		VerificationExpire: &expire,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, "", err
	}

	if err := s.mailer.Send(smtp.Message{
		To:      []string{a.Email},
		Subject: "Welcome - Verify Your Email",
		Body:    verificationEmail(s.frontendURL, verificationToken),
		HTML:    true,
	}); err != nil {
		slog.Warn("failed to send welcome email", "account_id", a.AccountID, "err", err)
	}

	bearer, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return nil, "", err
	}
	return a, bearer, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// password mismatch are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error) {
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("Invalid email or password: %w", domain.ErrUnauthorized)
	}
	if err := s.hasher.Compare(ctx, a.PasswordHash, req.Password); err != nil {
		return nil, "", fmt.Errorf("Invalid email or password: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return nil, "", err
	}
	return a, bearer, nil
}

// VerifyEmail redeems a verification token: single use, 24h window.
func (s *service) VerifyEmail(ctx context.Context, token string) error {
	a, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		return fmt.Errorf("Invalid or expired token: %w", domain.ErrInvalidToken)
	}
	if a.VerificationExpire == nil || time.Now().After(*a.VerificationExpire) {
		return fmt.Errorf("Invalid or expired token: %w", domain.ErrInvalidToken)
	}
	return s.repo.Update(ctx, a.AccountID, map[string]interface{}{
		fieldIsVerified:         true,
		fieldVerificationToken:  nil,
		fieldVerificationExpire: nil,
	})
}

// ResendVerification reissues a fresh 24h token for an unverified account.
func (s *service) ResendVerification(ctx context.Context, accountID string) error {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if a.IsVerified {
		return fmt.Errorf("Email already verified: %w", domain.ErrBadRequest)
	}
	verificationToken, err := pkgtoken.New()
	if err != nil {
		return err
	}
	expire := time.Now().UTC().Add(verificationTokenTTL)
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{
		fieldVerificationToken:  verificationToken,
		fieldVerificationExpire: expire,
	}); err != nil {
		return err
	}
	if err := s.mailer.Send(smtp.Message{
		To:      []string{a.Email},
		Subject: "Verify Your Email",
		Body:    verificationEmail(s.frontendURL, verificationToken),
		HTML:    true,
	}); err != nil {
		return fmt.Errorf("send verification email: %w", domain.ErrMailTransport)
	}
	return nil
}

// ChangePassword re-hashes and stores the new password after the current
// one is confirmed.
func (s *service) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(ctx, a.PasswordHash, currentPassword); err != nil {
		return fmt.Errorf("Invalid current password: %w", domain.ErrUnauthorized)
	}
	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, accountID, map[string]interface{}{fieldPasswordHash: hash})
}

// ForgotPassword issues a 10-minute reset token and mails the reset link.
// If delivery fails the token pair is cleared so no stale token survives a
// failed notification.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("User not found: %w", domain.ErrNotFound)
	}
	resetToken, err := pkgtoken.New()
	if err != nil {
		return err
	}
	expire := time.Now().UTC().Add(resetTokenTTL)
	if err := s.repo.Update(ctx, a.AccountID, map[string]interface{}{
		fieldResetToken:  resetToken,
		fieldResetExpire: expire,
	}); err != nil {
		return err
	}
	if err := s.mailer.Send(smtp.Message{
		To:      []string{a.Email},
		Subject: "Password Reset Request",
		Body:    resetEmail(s.frontendURL, resetToken),
		HTML:    true,
	}); err != nil {
		if clearErr := s.repo.Update(ctx, a.AccountID, map[string]interface{}{
			fieldResetToken:  nil,
			fieldResetExpire: nil,
		}); clearErr != nil {
			slog.Error("failed to clear reset token after send failure", "account_id", a.AccountID, "err", clearErr)
		}
		return fmt.Errorf("Email could not be sent: %w", domain.ErrMailTransport)
	}
	return nil
}

// ResetPassword redeems a reset token: single use, 10-minute window.
func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	a, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("Invalid or expired token: %w", domain.ErrInvalidToken)
	}
	if a.ResetExpire == nil || time.Now().After(*a.ResetExpire) {
		return fmt.Errorf("Invalid or expired token: %w", domain.ErrInvalidToken)
	}
	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, a.AccountID, map[string]interface{}{
		fieldPasswordHash: hash,
		fieldResetToken:   nil,
		fieldResetExpire:  nil,
	})
}

func verificationEmail(frontendURL, token string) string {
	url := fmt.Sprintf("%s/verify-email/%s", frontendURL, token)
	return fmt.Sprintf(`<h1>Welcome!</h1>
<p>Please click the link below to verify your email address:</p>
<a href="%s">Verify Email Address</a>`, url)
}

func resetEmail(frontendURL, token string) string {
	url := fmt.Sprintf("%s/reset-password/%s", frontendURL, token)
	return fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>You requested a password reset. Please click the link below to reset your password:</p>
<a href="%s">Reset Password</a>
<p>This link will expire in 10 minutes.</p>`, url)
}
