package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AdumoStagingURL    = "https://staging-apiv3.adumoonline.com"
	AdumoProductionURL = "https://apiv3.adumoonline.com"
)

type Config struct {
	Port        string
	DBURL       string
	RedisURL    string
	CORSOrigin  string
	AppEnv      string
	FrontendURL string

	SessionSecret string

	Adumo AdumoConfig
	SMTP  SMTPConfig
}

type AdumoConfig struct {
	Env           string // staging | production
	BaseURL       string
	FormURL       string
	MerchantID    string
	ApplicationID string
	Secret        string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	Currency      string

	ReturnURLBase string
	NotifyURLBase string
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

// Enabled reports whether real SMTP delivery is configured.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// MissingError lists every required variable that was not set.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

// Load reads .env (if present) and the process environment. Every missing
// required key is reported at once.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from any lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		Port:          r.getEnv("PORT", "8080"),
		DBURL:         r.mustEnv("DB_URL"),
		RedisURL:      r.getEnv("REDIS_URL", ""),
		CORSOrigin:    r.getEnv("CORS_ORIGIN", "http://localhost:5173"),
		AppEnv:        r.getEnv("APP_ENV", "development"),
		FrontendURL:   strings.TrimRight(r.getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		SessionSecret: r.mustEnv("SESSION_SECRET"),
	}

	env := strings.ToLower(r.getEnv("ADUMO_ENV", "staging"))
	defaultBase := AdumoStagingURL
	if env == "production" {
		defaultBase = AdumoProductionURL
	}
	base := strings.TrimRight(r.getEnv("ADUMO_BASE_URL", defaultBase), "/")

	cfg.Adumo = AdumoConfig{
		Env:           env,
		BaseURL:       base,
		FormURL:       r.getEnv("ADUMO_FORM_URL", base+"/product/payment/v1/initialisevirtual"),
		MerchantID:    r.mustEnv("ADUMO_MERCHANT_ID"),
		ApplicationID: r.mustEnv("ADUMO_APPLICATION_ID"),
		Secret:        r.mustEnv("ADUMO_SECRET"),
		ClientID:      r.mustEnv("ADUMO_CLIENT_ID"),
		ClientSecret:  r.mustEnv("ADUMO_CLIENT_SECRET"),
		WebhookSecret: r.getEnv("ADUMO_WEBHOOK_SECRET", ""),
		Currency:      r.getEnv("ADUMO_CURRENCY", "ZAR"),
		ReturnURLBase: strings.TrimRight(r.mustEnv("RETURN_URL_BASE"), "/"),
		NotifyURLBase: strings.TrimRight(r.mustEnv("NOTIFY_URL_BASE"), "/"),
	}

	cfg.SMTP = SMTPConfig{
		Host:     r.getEnv("SMTP_HOST", ""),
		Port:     r.getEnv("SMTP_PORT", "587"),
		User:     r.getEnv("SMTP_USER", ""),
		Password: r.getEnv("SMTP_PASSWORD", ""),
		From:     r.getEnv("SMTP_FROM", "no-reply@ascendancy.local"),
	}

	if env != "staging" && env != "production" {
		r.missing = append(r.missing, "ADUMO_ENV (staging|production)")
	}
	if cfg.AppEnv == "production" && !cfg.SMTP.Enabled() {
		r.missing = append(r.missing, "SMTP_HOST")
	}

	if len(r.missing) > 0 {
		return nil, &MissingError{Keys: r.missing}
	}
	return cfg, nil
}

type reader struct {
	lookup  func(string) (string, bool)
	missing []string
}

func (r *reader) mustEnv(key string) string {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		r.missing = append(r.missing, key)
		return ""
	}
	return v
}

func (r *reader) getEnv(key string, fallback string) string {
	if value, exists := r.lookup(key); exists && value != "" {
		return value
	}
	return fallback
}

func (c *Config) String() string {
	return fmt.Sprintf("env=%s port=%s adumo=%s frontend=%s", c.AppEnv, c.Port, c.Adumo.Env, c.FrontendURL)
}
