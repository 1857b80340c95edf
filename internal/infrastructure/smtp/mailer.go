package smtp

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/formrelay-api/internal/config"
)

// Message is an outbound notification. FromName is the display name shown
// to the recipient; the envelope sender is always the configured address.
type Message struct {
	FromName string
	ReplyTo  string
	To       []string
	Subject  string
	Body     string
	HTML     bool
}

// Mailer sends email.
type Mailer interface {
	Send(m Message) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) Send(msg Message) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, msg.To, render(msg, m.from))
}

// render assembles the raw RFC 5322 message.
func render(msg Message, from string) []byte {
	var b strings.Builder
	if msg.FromName != "" {
		fmt.Fprintf(&b, "From: %q <%s>\r\n", msg.FromName, from)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	if msg.HTML {
		b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
