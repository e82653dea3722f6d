package mailservice

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/lumina/internal/common"
)

const contactTemplate = "contact_message.html"

// ContactMessage is a contact form submission as it travels through the broker.
type ContactMessage struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Company     string    `json:"company,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type ContactService struct {
	mb  common.MessageProducer
	now func() time.Time
}

type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	logger    MailLogger
	recipient string
	retry     retryPolicy
	ctx       context.Context
	cancel    context.CancelFunc
}

type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient, replyTo string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}
