package mailservice

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/lumina/internal/common"
)

var errMockSend = errors.New("smtp unavailable")

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer records every send and fails the first failures calls.
type MockMailer struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []ContactMessage
	replyTo  []string
	done     chan struct{}
}

func NewMockMailer(failures, expectedCalls int) *MockMailer {
	return &MockMailer{failures: failures, done: make(chan struct{}, expectedCalls)}
}

func (m *MockMailer) send(recipient, replyTo string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	defer func() {
		select {
		case m.done <- struct{}{}:
		default:
		}
	}()

	if m.calls <= m.failures {
		return errMockSend
	}

	m.sent = append(m.sent, data.(ContactMessage))
	m.replyTo = append(m.replyTo, replyTo)

	return nil
}

type MockMessageConsumer struct {
	mock.Mock
	bodies [][]byte
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)

		for _, body := range m.bodies {
			msgsChan <- amqp.Delivery{Body: body}
		}
	}()

	return msgsChan, nil
}

type MockMessageProducer struct {
	mock.Mock
}

func (m *MockMessageProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	args := m.Called(ctx, msg, key, exchange)
	return args.Error(0)
}
