package account

import (
	"context"
	"fmt"

	"github.com/formrelay-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldClientID          = "client_id"
	fieldTargetEmails      = "target_emails"
	fieldAllowedOrigins    = "allowed_origins"
	fieldIsAcceptingEmails = "is_accepting_emails"
)

// Service manages the tenant profile: the public routing key, delivery
// targets, origin allow-list and the accept switch.
type Service interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*domain.Account, error)
	AddTargetEmail(ctx context.Context, accountID, email string) (*domain.Account, error)
	RemoveTargetEmail(ctx context.Context, accountID, email string) (*domain.Account, error)
	Delete(ctx context.Context, accountID string) error
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByClientID(ctx context.Context, clientID string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
	Delete(ctx context.Context, accountID string) error
}

type service struct {
	repo accountStore
}

func NewService(repo accountStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.Get(ctx, accountID)
}

// UpdateProfile replaces the routing configuration wholesale. The clientId
// must not belong to another account; target emails must stay non-empty.
func (s *service) UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*domain.Account, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if other, err := s.repo.GetByClientID(ctx, req.ClientID); err == nil && other.AccountID != a.AccountID {
		return nil, fmt.Errorf("Client ID already taken: %w", domain.ErrConflict)
	}
	updates := map[string]interface{}{
		fieldClientID:     req.ClientID,
		fieldTargetEmails: req.TargetEmails,
	}
	if req.AllowedOrigins != nil {
		updates[fieldAllowedOrigins] = req.AllowedOrigins
	}
	if req.IsAcceptingEmails != nil {
		updates[fieldIsAcceptingEmails] = *req.IsAcceptingEmails
	}
	if err := s.repo.Update(ctx, accountID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, accountID)
}

// AddTargetEmail appends a destination address if not already present.
func (s *service) AddTargetEmail(ctx context.Context, accountID, email string) (*domain.Account, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, t := range a.TargetEmails {
		if t == email {
			return nil, fmt.Errorf("target email already configured: %w", domain.ErrConflict)
		}
	}
	targets := append(append([]string{}, a.TargetEmails...), email)
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{fieldTargetEmails: targets}); err != nil {
		return nil, err
	}
	a.TargetEmails = targets
	return a, nil
}

// RemoveTargetEmail deletes one destination address. The last remaining
// entry cannot be removed item-by-item; only a whole-list replacement via
// UpdateProfile may change it then.
func (s *service) RemoveTargetEmail(ctx context.Context, accountID, email string) (*domain.Account, error) {
	a, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	found := false
	targets := make([]string, 0, len(a.TargetEmails))
	for _, t := range a.TargetEmails {
		if t == email {
			found = true
			continue
		}
		targets = append(targets, t)
	}
	if !found {
		return nil, fmt.Errorf("target email not configured: %w", domain.ErrNotFound)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("cannot remove the last target email: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{fieldTargetEmails: targets}); err != nil {
		return nil, err
	}
	a.TargetEmails = targets
	return a, nil
}

// Delete removes the account entirely.
func (s *service) Delete(ctx context.Context, accountID string) error {
	if _, err := s.repo.Get(ctx, accountID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, accountID)
}
