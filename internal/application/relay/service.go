package relay

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/formrelay-api/internal/domain"
	"github.com/formrelay-api/internal/infrastructure/smtp"
	"github.com/formrelay-api/internal/pkg/sanitize"
	"github.com/formrelay-api/internal/pkg/validate"
)

// Submission is one inbound form post: the public routing key, the raw
// field map and the declared browser origin (empty for non-browser callers).
type Submission struct {
	ClientID string
	Origin   string
	Fields   map[string]interface{}
}

// fallbackSenderName labels submissions whose payload carries no usable
// `name` field.
const fallbackSenderName = "Form Submission"

// Service is the relay dispatcher: resolve tenant, enforce policy,
// sanitize, build the notification and hand it to the mail transport.
// Delivery is synchronous and at-most-once; there is no retry or outbox.
type Service interface {
	Dispatch(ctx context.Context, sub Submission) error
}

type accountStore interface {
	GetByClientID(ctx context.Context, clientID string) (*domain.Account, error)
}

type service struct {
	repo   accountStore
	mailer smtp.Mailer
	now    func() time.Time
}

func NewService(repo accountStore, mailer smtp.Mailer) Service {
	return &service{repo: repo, mailer: mailer, now: time.Now}
}

// Dispatch runs the relay pipeline. A submission either fully succeeds
// (message handed to the transport) or fully fails; no account state is
// mutated either way.
func (s *service) Dispatch(ctx context.Context, sub Submission) error {
	a, err := s.repo.GetByClientID(ctx, sub.ClientID)
	if err != nil {
		return fmt.Errorf("Invalid Client ID: %w", domain.ErrBadRequest)
	}
	if !a.IsAcceptingEmails {
		return fmt.Errorf("This endpoint is currently not accepting submissions: %w", domain.ErrForbidden)
	}
	// A request with no declared Origin is a non-browser caller and passes
	// regardless of the allow-list.
	if sub.Origin != "" && !OriginAllowed(a.AllowedOrigins, sub.Origin) {
		return fmt.Errorf("Origin %s is not allowed: %w", sub.Origin, domain.ErrForbidden)
	}
	if len(a.TargetEmails) == 0 {
		return fmt.Errorf("No target emails configured: %w", domain.ErrBadRequest)
	}

	msg := s.buildMessage(a, sub)
	if err := s.mailer.Send(msg); err != nil {
		return fmt.Errorf("Failed to send email: %w", domain.ErrMailTransport)
	}
	return nil
}

func (s *service) buildMessage(a *domain.Account, sub Submission) smtp.Message {
	origin := sub.Origin
	if origin == "" {
		origin = "Unknown"
	}

	var b strings.Builder
	b.WriteString("You have received a new submission:\n\n")
	fmt.Fprintf(&b, "Website Origin: %s\n", origin)
	fmt.Fprintf(&b, "Timestamp: %s\n\n", s.now().UTC().Format(time.RFC3339))
	b.WriteString("--- Submission Data ---\n")

	// Sorted keys keep the dump deterministic; Go map order is not.
	keys := make([]string, 0, len(sub.Fields))
	for k := range sub.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", capitalize(k), sanitize.Value(sub.Fields[k]))
	}

	senderName := fallbackSenderName
	if name, ok := sub.Fields["name"].(string); ok && name != "" {
		if sanitized := sanitize.String(name); sanitized != "" {
			senderName = sanitized
		}
	}

	replyTo := ""
	if email, ok := sub.Fields["email"].(string); ok && validate.Email(email) {
		replyTo = email
	}

	subjectOrigin := sub.Origin
	if subjectOrigin == "" {
		subjectOrigin = "Unknown Origin"
	}

	return smtp.Message{
		FromName: senderName,
		ReplyTo:  replyTo,
		To:       a.TargetEmails,
		Subject:  fmt.Sprintf("New Submission from %s", subjectOrigin),
		Body:     b.String(),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
