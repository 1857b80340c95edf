package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/formrelay-api/internal/domain"
	"github.com/formrelay-api/internal/infrastructure/smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByClientID(ctx context.Context, clientID string) (*domain.Account, error) {
	args := m.Called(ctx, clientID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(msg smtp.Message) error {
	return m.Called(msg).Error(0)
}

func tenant() *domain.Account {
	return &domain.Account{
		AccountID:         "a1",
		ClientID:          "acme",
		TargetEmails:      []string{"inbox@acme.com"},
		AllowedOrigins:    []string{"https://acme.com"},
		IsAcceptingEmails: true,
	}
}

func fixedClock(svc Service) {
	svc.(*service).now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}
}

func TestDispatch_UnknownClientID_ReturnsBadRequest(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{ClientID: "nope"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	ml.AssertNotCalled(t, "Send", mock.Anything)
}

func TestDispatch_NotAccepting_ReturnsForbidden(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	a := tenant()
	a.IsAcceptingEmails = false
	repo.On("GetByClientID", mock.Anything, "acme").Return(a, nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{ClientID: "acme"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ml.AssertNotCalled(t, "Send", mock.Anything)
}

func TestDispatch_DisallowedOrigin_ReturnsForbidden(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{ClientID: "acme", Origin: "https://evil.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ml.AssertNotCalled(t, "Send", mock.Anything)
}

func TestDispatch_NoOriginHeader_Passes(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)
	ml.On("Send", mock.Anything).Return(nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{ClientID: "acme"})

	require.NoError(t, err)
	ml.AssertExpectations(t)
}

func TestDispatch_NoTargetEmails_ReturnsBadRequest(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	a := tenant()
	a.TargetEmails = nil
	repo.On("GetByClientID", mock.Anything, "acme").Return(a, nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{ClientID: "acme", Origin: "https://acme.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	ml.AssertNotCalled(t, "Send", mock.Anything)
}

func TestDispatch_TransportFailure_ReturnsMailTransport(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)
	ml.On("Send", mock.Anything).Return(errors.New("smtp down"))

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{ClientID: "acme", Origin: "https://acme.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMailTransport))
}

func TestDispatch_BuildsSanitizedMessage(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)

	var sent smtp.Message
	ml.On("Send", mock.AnythingOfType("smtp.Message")).Run(func(args mock.Arguments) {
		sent = args.Get(0).(smtp.Message)
	}).Return(nil)

	svc := NewService(repo, ml)
	fixedClock(svc)
	err := svc.Dispatch(context.Background(), Submission{
		ClientID: "acme",
		Origin:   "https://acme.com",
		Fields: map[string]interface{}{
			"name":    "<b>Bob</b>",
			"email":   "bob@x.com",
			"message": "hello <script>alert(1)</script>world",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bob", sent.FromName)
	assert.Equal(t, "bob@x.com", sent.ReplyTo)
	assert.Equal(t, []string{"inbox@acme.com"}, sent.To)
	assert.Equal(t, "New Submission from https://acme.com", sent.Subject)

	assert.True(t, strings.HasPrefix(sent.Body, "You have received a new submission:\n\n"))
	assert.Contains(t, sent.Body, "Website Origin: https://acme.com\n")
	assert.Contains(t, sent.Body, "Timestamp: 2025-03-14T09:26:53Z\n")
	assert.Contains(t, sent.Body, "--- Submission Data ---\n")
	assert.Contains(t, sent.Body, "Name: Bob\n")
	assert.Contains(t, sent.Body, "Message: hello world\n")
	assert.NotContains(t, sent.Body, "<script>")
	assert.NotContains(t, sent.Body, "<b>")
}

func TestDispatch_SortedFieldDump(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)

	var sent smtp.Message
	ml.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(smtp.Message)
	}).Return(nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{
		ClientID: "acme",
		Fields: map[string]interface{}{
			"zip":    "12345",
			"city":   "Berlin",
			"street": "Main St",
		},
	})
	require.NoError(t, err)

	city := strings.Index(sent.Body, "City: Berlin")
	street := strings.Index(sent.Body, "Street: Main St")
	zip := strings.Index(sent.Body, "Zip: 12345")
	require.GreaterOrEqual(t, city, 0)
	assert.Less(t, city, street)
	assert.Less(t, street, zip)
}

func TestDispatch_DefaultsWhenFieldsMissing(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)

	var sent smtp.Message
	ml.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(smtp.Message)
	}).Return(nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{
		ClientID: "acme",
		Fields:   map[string]interface{}{"email": "not-an-address"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Form Submission", sent.FromName)
	assert.Empty(t, sent.ReplyTo)
	assert.Equal(t, "New Submission from Unknown Origin", sent.Subject)
	assert.Contains(t, sent.Body, "Website Origin: Unknown\n")
}

func TestDispatch_MultiByteFieldNameCapitalized(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)

	var sent smtp.Message
	ml.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(smtp.Message)
	}).Return(nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{
		ClientID: "acme",
		Fields:   map[string]interface{}{"überschrift": "hallo"},
	})
	require.NoError(t, err)

	assert.Contains(t, sent.Body, "Überschrift: hallo\n")
	assert.NotContains(t, sent.Body, "�")
}

func TestDispatch_NonStringFieldRenderedAsJSON(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	repo.On("GetByClientID", mock.Anything, "acme").Return(tenant(), nil)

	var sent smtp.Message
	ml.On("Send", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).(smtp.Message)
	}).Return(nil)

	svc := NewService(repo, ml)
	err := svc.Dispatch(context.Background(), Submission{
		ClientID: "acme",
		Fields: map[string]interface{}{
			"items": []interface{}{"a", "b"},
			"count": float64(2),
		},
	})
	require.NoError(t, err)

	assert.Contains(t, sent.Body, `Items: ["a","b"]`)
	assert.Contains(t, sent.Body, "Count: 2")
}
