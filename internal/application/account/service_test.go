package account

import (
	"context"
	"errors"
	"testing"

	"github.com/formrelay-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByClientID(ctx context.Context, clientID string) (*domain.Account, error) {
	args := m.Called(ctx, clientID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	return m.Called(ctx, accountID, updates).Error(0)
}
func (m *mockAccountStore) Delete(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func account(id string, targets ...string) *domain.Account {
	return &domain.Account{AccountID: id, ClientID: "key-" + id, TargetEmails: targets}
}

func TestUpdateProfile_ClientIDTakenByOther_ReturnsConflict(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)
	repo.On("GetByClientID", mock.Anything, "acme").Return(account("a2", "o@x.com"), nil)

	svc := NewService(repo)
	_, err := svc.UpdateProfile(context.Background(), "a1", domain.UpdateProfileRequest{
		ClientID:     "acme",
		TargetEmails: []string{"t@x.com"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdateProfile_OwnClientID_NoConflict(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)
	repo.On("GetByClientID", mock.Anything, "key-a1").Return(account("a1", "t@x.com"), nil)
	repo.On("Update", mock.Anything, "a1", mock.Anything).Return(nil)

	svc := NewService(repo)
	_, err := svc.UpdateProfile(context.Background(), "a1", domain.UpdateProfileRequest{
		ClientID:     "key-a1",
		TargetEmails: []string{"t@x.com"},
	})

	require.NoError(t, err)
}

func TestUpdateProfile_OmittedOptionalFields_NotTouched(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)
	repo.On("GetByClientID", mock.Anything, "acme").Return(nil, domain.ErrNotFound)
	repo.On("Update", mock.Anything, "a1", mock.MatchedBy(func(m map[string]interface{}) bool {
		_, hasOrigins := m[fieldAllowedOrigins]
		_, hasAccepting := m[fieldIsAcceptingEmails]
		return !hasOrigins && !hasAccepting
	})).Return(nil)

	svc := NewService(repo)
	_, err := svc.UpdateProfile(context.Background(), "a1", domain.UpdateProfileRequest{
		ClientID:     "acme",
		TargetEmails: []string{"t@x.com"},
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_AcceptSwitch_Propagated(t *testing.T) {
	repo := &mockAccountStore{}
	off := false
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)
	repo.On("GetByClientID", mock.Anything, "acme").Return(nil, domain.ErrNotFound)
	repo.On("Update", mock.Anything, "a1", mock.MatchedBy(func(m map[string]interface{}) bool {
		v, ok := m[fieldIsAcceptingEmails].(bool)
		return ok && !v
	})).Return(nil)

	svc := NewService(repo)
	_, err := svc.UpdateProfile(context.Background(), "a1", domain.UpdateProfileRequest{
		ClientID:          "acme",
		TargetEmails:      []string{"t@x.com"},
		IsAcceptingEmails: &off,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAddTargetEmail_Duplicate_ReturnsConflict(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)

	svc := NewService(repo)
	_, err := svc.AddTargetEmail(context.Background(), "a1", "t@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestAddTargetEmail_HappyPath_Appends(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)
	repo.On("Update", mock.Anything, "a1", map[string]interface{}{
		fieldTargetEmails: []string{"t@x.com", "u@x.com"},
	}).Return(nil)

	svc := NewService(repo)
	a, err := svc.AddTargetEmail(context.Background(), "a1", "u@x.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"t@x.com", "u@x.com"}, a.TargetEmails)
	repo.AssertExpectations(t)
}

func TestRemoveTargetEmail_NotConfigured_ReturnsNotFound(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com", "u@x.com"), nil)

	svc := NewService(repo)
	_, err := svc.RemoveTargetEmail(context.Background(), "a1", "nope@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRemoveTargetEmail_LastEntry_Refused(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)

	svc := NewService(repo)
	_, err := svc.RemoveTargetEmail(context.Background(), "a1", "t@x.com")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveTargetEmail_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com", "u@x.com"), nil)
	repo.On("Update", mock.Anything, "a1", map[string]interface{}{
		fieldTargetEmails: []string{"u@x.com"},
	}).Return(nil)

	svc := NewService(repo)
	a, err := svc.RemoveTargetEmail(context.Background(), "a1", "t@x.com")

	require.NoError(t, err)
	assert.Equal(t, []string{"u@x.com"}, a.TargetEmails)
}

func TestDelete_MissingAccount_ReturnsNotFound(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(nil, domain.ErrNotFound)

	svc := NewService(repo)
	err := svc.Delete(context.Background(), "a1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "a1").Return(account("a1", "t@x.com"), nil)
	repo.On("Delete", mock.Anything, "a1").Return(nil)

	svc := NewService(repo)
	require.NoError(t, svc.Delete(context.Background(), "a1"))
	repo.AssertExpectations(t)
}
