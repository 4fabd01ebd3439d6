package main

import (
	"log/slog"

	"github.com/dukerupert/angelia"
	"github.com/dukerupert/angelia/internal/mail"
	"github.com/dukerupert/angelia/internal/registry"
	"github.com/dukerupert/angelia/internal/render"
)

// Services holds all application services.
type Services struct {
	Registry angelia.TokenRegistry
	Mailer   angelia.Mailer
}

// initServices initializes all application services.
func initServices(cfg *Config, logger *slog.Logger) *Services {
	reg := registry.NewFileRegistry(cfg.ConfigFile, logger)
	logger.Info("token registry initialized", slog.String("path", cfg.ConfigFile))

	mailer := initMailer(cfg, logger)
	logger.Info("mailer initialized", slog.String("provider", cfg.MailerProvider))

	return &Services{
		Registry: reg,
		Mailer:   mailer,
	}
}

// initMailer creates the appropriate mailer implementation.
func initMailer(cfg *Config, logger *slog.Logger) angelia.Mailer {
	if cfg.MailerProvider == "mock" {
		return mail.NewLogMailer(logger, cfg.LogoPath)
	}

	smtpCfg := angelia.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.FromEmail,
	}
	renderer := render.NewRenderer(render.ParseLocale(cfg.Locale))

	return mail.NewSMTPMailer(smtpCfg, renderer, cfg.LogoPath, logger)
}
