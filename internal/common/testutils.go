package common

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testPostgresImage = "docker.io/postgres:14.11-bookworm"
	testRabbitImage   = "rabbitmq:3.12.11-management-alpine"
	testBrokerUser    = "guest"
	testBrokerSecret  = "guest"
)

// TestRabbitMQ starts a broker container and returns a connected broker with
// the contact exchange declared.
func TestRabbitMQ(t *testing.T) *MessageBroker {
	ctx := context.Background()

	c, err := rabbitmq.Run(ctx, testRabbitImage,
		rabbitmq.WithAdminUsername(testBrokerUser),
		rabbitmq.WithAdminPassword(testBrokerSecret))
	if err != nil {
		t.Fatalf("could not start rabbitmq container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("could not get rabbitmq host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5672/tcp")
	if err != nil {
		t.Fatalf("could not get rabbitmq port: %v", err)
	}

	mb, err := NewMessageBroker(AMQPURI(testBrokerUser, testBrokerSecret, host, port.Port()))
	if err != nil {
		t.Fatalf("could not connect to rabbitmq: %v", err)
	}
	t.Cleanup(func() { _ = mb.Close() })

	if err := SetupContactExchange(mb); err != nil {
		t.Fatalf("could not declare contact exchange: %v", err)
	}

	return mb
}

// migrateUp applies every migration under source, a file URL relative to the
// calling package such as "file://../../migrations".
func migrateUp(source, dsn string) (*migrate.Migrate, error) {
	m, err := migrate.New(source, dsn)
	if err != nil {
		return nil, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, err
	}

	return m, nil
}

// TestDB starts a postgres container, applies the posts migrations from source
// and returns a pool opened the same way the server opens it.
func TestDB(source string, t *testing.T) *sql.DB {
	ctx := context.Background()

	cfg := DBConfig{
		User:         "user",
		Password:     "password",
		Name:         "testdb",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		MaxIdleTime:  time.Minute,
	}

	c, err := postgres.Run(ctx, testPostgresImage,
		postgres.WithDatabase(cfg.Name),
		postgres.WithUsername(cfg.User),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)))
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	cfg.Host, err = c.Host(ctx)
	if err != nil {
		t.Fatalf("could not get postgres host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("could not get postgres port: %v", err)
	}
	cfg.Port = port.Port()

	m, err := migrateUp(source, cfg.DSN())
	if err != nil {
		t.Fatalf("could not run migrations: %v", err)
	}

	db, err := NewDB(cfg)
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}

	// registered last, so it runs before the container is terminated
	t.Cleanup(func() {
		_ = db.Close()
		_ = m.Drop()
	})

	return db
}
