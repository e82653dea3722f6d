package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	tempFile, err := os.CreateTemp("", "config*.env")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tempFile.Name()) })

	_, err = tempFile.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, tempFile.Close())

	return tempFile.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
PORT=:8080
ENVIRONMENT=development
VERSION=1.0.0
TRUSTED_ORIGINS="http://localhost:3000, http://localhost:3001"
POSTGRES_HOST=localhost
POSTGRES_USER=testuser
POSTGRES_PASSWORD=testpassword
POSTGRES_DB=testdb
MAIL_HOST=smtp.example.com
MAIL_PORT=587
MAIL_USER=testuser@example.com
MAIL_PASSWORD=testpassword
MAIL_SENDER=sender@example.com
MAIL_RECIPIENT=owner@example.com
RABBITMQ_HOST=rabbitmq.example.com
RABBITMQ_USER=testuser
RABBITMQ_PASSWORD=testpassword
ADMIN_EMAIL=admin@example.com
ADMIN_PASSWORD=secret
SESSION_TTL=2h
CATEGORIES=News,Guides
RATE_LIMIT_RPS=0.5
`)

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Port)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "1.0.0", config.Version)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, config.TrustedOrigins)
	assert.Equal(t, "localhost", config.DBHost)
	assert.Equal(t, "testuser", config.DBUser)
	assert.Equal(t, "testpassword", config.DBPassword)
	assert.Equal(t, "testdb", config.DBName)
	assert.Equal(t, "smtp.example.com", config.MailHost)
	assert.Equal(t, 587, config.MailPort)
	assert.Equal(t, "testuser@example.com", config.MailUser)
	assert.Equal(t, "testpassword", config.MailPassword)
	assert.Equal(t, "sender@example.com", config.MailSender)
	assert.Equal(t, "owner@example.com", config.MailRecipient)
	assert.Equal(t, "rabbitmq.example.com", config.MQHost)
	assert.Equal(t, "testuser", config.MQUser)
	assert.Equal(t, "testpassword", config.MQPassword)
	assert.Equal(t, "admin@example.com", config.AdminEmail)
	assert.Equal(t, "secret", config.AdminPassword)
	assert.Equal(t, 2*time.Hour, config.SessionTTL)
	assert.Equal(t, []string{"News", "Guides"}, config.Categories)
	assert.Equal(t, 0.5, config.RateLimitRPS)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "POSTGRES_DB=testdb\n")

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":4000", config.Port)
	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "5432", config.DBPort)
	assert.Equal(t, "disable", config.DBSSLMode)
	assert.Equal(t, 15*time.Minute, config.DBMaxIdleTime)
	assert.Equal(t, "5672", config.MQPort)
	assert.Equal(t, 24*time.Hour, config.SessionTTL)
	assert.Equal(t, 2, config.ReconcileWorkers)
	assert.Equal(t, 256, config.ReconcileQueueSize)
	assert.True(t, config.RateLimitEnabled)
	assert.Equal(t, float64(2), config.RateLimitRPS)
	assert.Equal(t, 4, config.RateLimitBurst)
	assert.Empty(t, config.TrustedOrigins)
	assert.Empty(t, config.Categories)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "PORT=:8080\n")
	t.Setenv("PORT", ":9090")

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", config.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig("does-not-exist.env")
	assert.Error(t, err)
}
