package main

import "strconv"

// Config holds all application configuration.
type Config struct {
	// Server settings
	Host        string
	Port        int
	Environment string
	LogLevel    string

	// SMTP settings
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	// Content settings
	ConfigFile string
	LogoPath   string
	Locale     string

	// Provider selection
	MailerProvider string
}

// LoadConfig loads configuration from environment variables.
// Missing SMTP credentials are not fatal here; the mailer reports
// them per send and /health exposes the state.
func LoadConfig(getenv func(string) string) *Config {
	return &Config{
		// Server settings
		Host:        envString(getenv, "SERVER_HOST", "0.0.0.0"),
		Port:        envInt(getenv, "SERVER_PORT", 8080),
		Environment: envString(getenv, "ENVIRONMENT", "dev"),
		LogLevel:    envString(getenv, "LOG_LEVEL", "info"),

		// SMTP settings
		SMTPHost:  envString(getenv, "SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  envInt(getenv, "SMTP_PORT", 587),
		SMTPUser:  envString(getenv, "SMTP_USER", ""),
		SMTPPass:  envString(getenv, "SMTP_PASS", ""),
		FromEmail: envString(getenv, "FROM_EMAIL", ""),

		// Content settings
		ConfigFile: envString(getenv, "CONFIG_FILE", "config.json"),
		LogoPath:   envString(getenv, "LOGO_PATH", "logo.png"),
		Locale:     envString(getenv, "LOCALE", "en"),

		// Provider selection
		MailerProvider: envString(getenv, "MAILER_PROVIDER", "smtp"),
	}
}

// Helper functions for loading environment variables with defaults.

func envString(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
