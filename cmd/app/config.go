package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`

	DBHost        string        `mapstructure:"POSTGRES_HOST"`
	DBPort        string        `mapstructure:"POSTGRES_PORT"`
	DBUser        string        `mapstructure:"POSTGRES_USER"`
	DBPassword    string        `mapstructure:"POSTGRES_PASSWORD"`
	DBName        string        `mapstructure:"POSTGRES_DB"`
	DBSSLMode     string        `mapstructure:"POSTGRES_SSLMODE"`
	DBMaxOpenConn int           `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	DBMaxIdleConn int           `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	DBMaxIdleTime time.Duration `mapstructure:"POSTGRES_MAX_IDLE_TIME"`

	MailHost      string `mapstructure:"MAIL_HOST"`
	MailPort      int    `mapstructure:"MAIL_PORT"`
	MailUser      string `mapstructure:"MAIL_USER"`
	MailPassword  string `mapstructure:"MAIL_PASSWORD"`
	MailSender    string `mapstructure:"MAIL_SENDER"`
	MailRecipient string `mapstructure:"MAIL_RECIPIENT"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	AdminEmail    string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string        `mapstructure:"ADMIN_PASSWORD"`
	AdminName     string        `mapstructure:"ADMIN_NAME"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`

	Categories         []string `mapstructure:"CATEGORIES"`
	ReconcileWorkers   int      `mapstructure:"RECONCILE_WORKERS"`
	ReconcileQueueSize int      `mapstructure:"RECONCILE_QUEUE_SIZE"`

	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

var configDefaults = map[string]any{
	"PORT":                    ":4000",
	"ENVIRONMENT":             "development",
	"VERSION":                 "1.0.0",
	"TLS_CERT_FILE":           "",
	"TLS_KEY_FILE":            "",
	"TRUSTED_ORIGINS":         "",
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_DB":             "",
	"POSTGRES_SSLMODE":        "disable",
	"POSTGRES_MAX_OPEN_CONNS": 25,
	"POSTGRES_MAX_IDLE_CONNS": 25,
	"POSTGRES_MAX_IDLE_TIME":  "15m",
	"MAIL_HOST":               "",
	"MAIL_PORT":               587,
	"MAIL_USER":               "",
	"MAIL_PASSWORD":           "",
	"MAIL_SENDER":             "",
	"MAIL_RECIPIENT":          "",
	"RABBITMQ_HOST":           "localhost",
	"RABBITMQ_PORT":           "5672",
	"RABBITMQ_USER":           "guest",
	"RABBITMQ_PASSWORD":       "guest",
	"ADMIN_EMAIL":             "",
	"ADMIN_PASSWORD":          "",
	"ADMIN_NAME":              "Admin",
	"SESSION_TTL":             "24h",
	"CATEGORIES":              "",
	"RECONCILE_WORKERS":       2,
	"RECONCILE_QUEUE_SIZE":    256,
	"RATE_LIMIT_ENABLED":      true,
	"RATE_LIMIT_RPS":          2,
	"RATE_LIMIT_BURST":        4,
}

// loadConfig reads the env file at path. Variables in the process environment
// take precedence over the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.TrustedOrigins = compact(config.TrustedOrigins)
	config.Categories = compact(config.Categories)

	return &config, nil
}

// compact trims every entry and drops empty ones.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
