package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/lumina/internal/common"
	"github.com/sushihentaime/lumina/internal/mailservice"
	"github.com/sushihentaime/lumina/internal/postservice"
	"github.com/sushihentaime/lumina/internal/userservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	postService    *postservice.PostService
	userService    *userservice.UserService
	contactService *mailservice.ContactService
	mailService    *mailservice.MailService
	limiter        *common.RateLimiter
}

func main() {
	configPath := flag.String("config", ".env", "path to the env file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(common.DBConfig{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Name:         cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: cfg.DBMaxOpenConn,
		MaxIdleConns: cfg.DBMaxIdleConn,
		MaxIdleTime:  cfg.DBMaxIdleTime,
	})
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort))
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupContactExchange(broker)
	if err != nil {
		logger.Error("failed to setup the contact exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessions := common.NewCache(cfg.SessionTTL, 10*time.Minute)

	userService, err := userservice.NewUserService(userservice.AdminConfig{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	}, sessions, cfg.SessionTTL)
	if err != nil {
		logger.Error("invalid admin account configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := &application{
		config: cfg,
		logger: logger,
		postService: postservice.NewPostService(db, logger, postservice.Options{
			ReconcileWorkers:   cfg.ReconcileWorkers,
			ReconcileQueueSize: cfg.ReconcileQueueSize,
			Categories:         cfg.Categories,
		}),
		userService:    userService,
		contactService: mailservice.NewContactService(broker),
		mailService:    mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailRecipient, cfg.MailPort, logger),
		limiter:        common.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute),
	}

	app.mailService.SendContactEmails()

	err = app.serve()
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
