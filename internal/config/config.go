// Package config содержит логику чтения конфигурации сервиса StarQuest.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress         = "localhost:8080"
	defaultMailFrom           = "StarQuest <noreply@starquest.app>"
	defaultAppBaseURL         = "http://localhost:3000"
	defaultAllowedOrigins     = "http://localhost:3000"
	defaultBatchTimeout       = 10 * time.Second
	defaultSettlementInterval = time.Hour
)

// Config содержит параметры конфигурации сервиса StarQuest.
type Config struct {
	RunAddress         string        `env:"RUN_ADDRESS"`
	DatabaseURI        string        `env:"DATABASE_URI"`
	AuthSecret         string        `env:"AUTH_SECRET"`
	ResendAPIKey       string        `env:"RESEND_API_KEY"`
	MailFrom           string        `env:"MAIL_FROM"`
	AppBaseURL         string        `env:"APP_BASE_URL"`
	AllowedOrigins     string        `env:"ALLOWED_ORIGINS"`
	BatchTimeout       time.Duration `env:"BATCH_TIMEOUT"`
	SettlementInterval time.Duration `env:"SETTLEMENT_INTERVAL"`
}

func defaults() *Config {
	return &Config{
		RunAddress:         defaultRunAddress,
		MailFrom:           defaultMailFrom,
		AppBaseURL:         defaultAppBaseURL,
		AllowedOrigins:     defaultAllowedOrigins,
		BatchTimeout:       defaultBatchTimeout,
		SettlementInterval: defaultSettlementInterval,
	}
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := defaults()

	flag.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "database URI")
	flag.StringVar(&cfg.AuthSecret, "s", cfg.AuthSecret, "auth cookie signing secret")
	flag.StringVar(&cfg.ResendAPIKey, "k", cfg.ResendAPIKey, "mail provider API key")
	flag.StringVar(&cfg.MailFrom, "f", cfg.MailFrom, "mail sender")
	flag.StringVar(&cfg.AppBaseURL, "u", cfg.AppBaseURL, "public web app URL")
	flag.StringVar(&cfg.AllowedOrigins, "o", cfg.AllowedOrigins, "comma separated CORS origins")
	flag.DurationVar(&cfg.BatchTimeout, "t", cfg.BatchTimeout, "batch update timeout")
	flag.DurationVar(&cfg.SettlementInterval, "i", cfg.SettlementInterval, "settlement scheduler interval, 0 disables")

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}

// ParseEnv считывает конфигурацию только из переменных окружения. Используется утилитой starquestctl.
func ParseEnv() (*Config, error) {
	cfg := defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Origins возвращает список разрешённых CORS-источников.
func (c *Config) Origins() []string {
	var res []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			res = append(res, o)
		}
	}
	return res
}
