// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Mail providers.
const (
	MailLog      = "log"
	MailSendGrid = "sendgrid"
	MailPostmark = "postmark"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port      int           `validate:"min=1,max=65535"`
	MongoURI  string        `validate:"required"`
	Database  string        `validate:"required"`
	JWTSecret string        `validate:"required,min=16"`
	TokenTTL  time.Duration `validate:"gt=0"`

	CookieSecure bool

	MailProvider   string `validate:"oneof=log sendgrid postmark"`
	SendGridAPIKey string `validate:"required_if=MailProvider sendgrid"`
	PostmarkToken  string `validate:"required_if=MailProvider postmark"`
	EmailSender    string `validate:"omitempty,email"`

	RabbitMQURI string
	OrdersQueue string `validate:"required"`

	DecrementStockOnOrder bool

	AuthRateLimit float64 `validate:"gt=0"`
	AuthRateBurst int     `validate:"min=1"`
}

// Load reads .env (if present) and the environment. Missing optional values
// take their defaults; the result is validated.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	} else if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of
// os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		Port:                  r.integer("PORT", 8000),
		MongoURI:              r.str("MONGODB_URI", ""),
		Database:              r.str("MONGODB_DATABASE", "ecommerce"),
		JWTSecret:             r.str("JWT_SECRET", ""),
		TokenTTL:              r.duration("TOKEN_TTL", 30*24*time.Hour),
		CookieSecure:          r.boolean("COOKIE_SECURE", true),
		MailProvider:          strings.ToLower(r.str("MAIL_PROVIDER", MailLog)),
		SendGridAPIKey:        r.str("SENDGRID_API_KEY", ""),
		PostmarkToken:         r.str("POSTMARK_SERVER_TOKEN", ""),
		EmailSender:           r.str("EMAIL_SENDER", ""),
		RabbitMQURI:           r.str("RABBITMQ_URI", ""),
		OrdersQueue:           r.str("ORDERS_QUEUE", "orders"),
		DecrementStockOnOrder: r.boolean("DECREMENT_STOCK_ON_ORDER", false),
		AuthRateLimit:         r.number("AUTH_RATE_LIMIT", 1),
		AuthRateBurst:         r.integer("AUTH_RATE_BURST", 5),
	}
	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.MailProvider != MailLog && cfg.EmailSender == "" {
		return Config{}, fmt.Errorf("invalid config: EMAIL_SENDER is required for mail provider %s", cfg.MailProvider)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *reader) number(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}
