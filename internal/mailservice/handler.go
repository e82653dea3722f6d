package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/lumina/internal/common"
	"golang.org/x/exp/rand"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 500 * time.Millisecond
)

func NewContactService(mb common.MessageProducer) *ContactService {
	return &ContactService{
		mb:  mb,
		now: time.Now,
	}
}

// Submit validates the message and queues it for delivery to the site owner.
func (s *ContactService) Submit(ctx context.Context, msg ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Company = strings.TrimSpace(msg.Company)
	msg.Message = strings.TrimSpace(msg.Message)

	v := common.NewValidator()
	validateContactMessage(v, &msg)
	if !v.Valid() {
		return v.ValidationError()
	}

	msg.SubmittedAt = s.now().UTC()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, data, common.ContactSubmittedKey, common.ContactExchange)
}

func validateContactMessage(v *common.Validator, msg *ContactMessage) {
	v.Check(msg.Name != "", "name", "must be provided")
	v.Check(v.CheckStringLength(msg.Name, 0, 100), "name", "must not be more than 100 characters long")
	v.Check(msg.Email != "", "email", "must be provided")
	v.Check(v.Matches(msg.Email, common.EmailRX), "email", "must be a valid email address")
	v.Check(v.CheckStringLength(msg.Company, 0, 100), "company", "must not be more than 100 characters long")
	v.Check(msg.Message != "", "message", "must be provided")
	v.Check(v.CheckStringLength(msg.Message, 0, 5000), "message", "must not be more than 5000 characters long")
}

func NewMailService(mb common.MessageConsumer, host, username, password, sender, recipient string, port int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), recipient, logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, recipient string, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         m,
		logger:    logger,
		recipient: recipient,
		retry:     retryPolicy{maxRetries: defaultMaxRetries, baseDelay: defaultBaseDelay},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendContactEmails consumes queued contact messages and mails each one to the
// configured recipient until Close is called.
func (s *MailService) SendContactEmails() {
	msgs, err := s.mb.Consume(common.ContactSubmittedKey, common.ContactExchange, common.ContactSubmittedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.deliver(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendContactEmails due to context cancellation")
				return
			}
		}
	}()
}

func (s *MailService) deliver(msg amqp.Delivery) {
	var contact ContactMessage

	err := json.Unmarshal(msg.Body, &contact)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	// exponential backoff with jitter
	for attempt := 0; attempt < s.retry.maxRetries; attempt++ {
		err = s.m.send(s.recipient, contact.Email, contact, contactTemplate)
		if err == nil {
			s.logger.Info("contact email sent", slog.String("from", contact.Email))
			_ = msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.retry.baseDelay) << uint(attempt)))
		s.logger.Info("delaying contact email", slog.String("from", contact.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send contact email", slog.String("from", contact.Email))
	_ = msg.Ack(false)
}

func (s *MailService) Close() {
	s.cancel()
}
