package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env    string // application environment (e.g. "dev", "prod")
	Port   string // HTTP port to listen on
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret string        // HMAC secret used to sign access tokens
	JWTIssuer string        // "iss" claim stamped into access tokens
	AccessTTL time.Duration // access token lifetime

	RefreshEnabled bool          // whether refresh tokens are issued at all
	RefreshTTL     time.Duration // refresh token lifetime

	ResetTTL         time.Duration // password reset token lifetime
	ExposeResetToken bool          // echo reset tokens in the forgot-password response

	BcryptCost int    // bcrypt cost for password hashing
	LogLevel   string // zerolog level name
	Storage    string // "mysql" or "memory"

	AMQPURL   string // RabbitMQ URL; empty disables account events
	AMQPQueue string // queue receiving account events

	Mail MailConfig
}

// MailConfig configures SMTP delivery of password reset messages.
// An empty Host disables mail.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      string // "mandatory", "opportunistic" or "none"
}

// Load reads .env (when present) and then the process environment.
// Missing required variables terminate the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (Config, error) {
	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		JWTSecret: must("JWT_SECRET"),
		JWTIssuer: envStr("JWT_ISSUER", "secure-customer-api"),
		AccessTTL: envDur("ACCESS_TOKEN_TTL", 15*time.Minute),

		RefreshEnabled: envBool("REFRESH_ENABLED", true),
		RefreshTTL:     time.Duration(envInt("REFRESH_TOKEN_TTL_MS", 604800000)) * time.Millisecond,
		ResetTTL:       envDur("RESET_TOKEN_TTL", time.Hour),

		BcryptCost: envInt("BCRYPT_COST", 12),
		LogLevel:   envStr("LOG_LEVEL", "info"),
		Storage:    strings.ToLower(envStr("STORAGE", "mysql")),

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: envStr("AMQP_QUEUE", "account.events"),

		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("MAIL_FROM", "no-reply@localhost"),
			TLS:      strings.ToLower(envStr("SMTP_TLS", "mandatory")),
		},
	}
	cfg.ExposeResetToken = envBool("EXPOSE_RESET_TOKEN", !cfg.IsProd())

	if cfg.Storage == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env var(s): %s", strings.Join(missing, ", "))
	}
	if cfg.Storage != "mysql" && cfg.Storage != "memory" {
		return Config{}, fmt.Errorf("STORAGE must be mysql or memory, got %q", cfg.Storage)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.ResetTTL <= 0 {
		return Config{}, fmt.Errorf("token lifetimes must be positive")
	}
	return cfg, nil
}

func (c Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") }
