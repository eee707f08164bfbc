package config // package config loads application configuration from environment variables

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"
)

// DefaultTicketSecret signs tickets in development when TICKET_QR_SECRET
// is unset.  It is public and must never be used in production; Validate
// rejects it outside development.
const DefaultTicketSecret = "default-secret-key-change-in-production"

// ErrWeakTicketSecret is returned by Validate when a non-development
// environment would sign tickets with an empty or default secret.
var ErrWeakTicketSecret = errors.New("TICKET_QR_SECRET must be set outside development")

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env           string // application environment (dev, test, prod)
	Port          string // HTTP port to listen on
	DBUser        string
	DBPass        string // may be empty
	DBHost        string
	DBPort        string
	DBName        string
	DBAutoMigrate bool // apply the embedded schema at startup

	JWTSecret string // verifies bearer tokens issued by the auth service

	// TicketSecret keys the HMAC on QR ticket payloads.
	TicketSecret string
	// TicketSecretDefaulted is set when TicketSecret fell back to
	// DefaultTicketSecret.
	TicketSecretDefaulted bool

	SettingsCacheTTL time.Duration // Redis TTL for the commission percent

	AMQPURL        string // RabbitMQ URL; empty disables check-in events
	CheckInLogPath string // file the check-in consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	c := Config{
		Env:              must("APP_ENV"),
		Port:             envStr("APP_PORT", "8080"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           envStr("DB_PORT", "3306"),
		DBName:           must("DB_NAME"),
		DBAutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:        must("JWT_SECRET"),
		TicketSecret:     os.Getenv("TICKET_QR_SECRET"),
		SettingsCacheTTL: envDur("SETTINGS_CACHE_TTL", 30*time.Second),
		AMQPURL:          os.Getenv("AMQP_URL"),
		CheckInLogPath:   envStr("CHECKIN_LOG_PATH", "logs/checkin.log"),
	}
	c.applyDefaults()
	return c
}

// applyDefaults fills the development ticket secret.
func (c *Config) applyDefaults() {
	if c.TicketSecret == "" && c.IsDevelopment() {
		c.TicketSecret = DefaultTicketSecret
		c.TicketSecretDefaulted = true
	}
	if c.SettingsCacheTTL < 0 {
		c.SettingsCacheTTL = 0
	}
}

// IsDevelopment reports whether Env names a local or test environment.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// Validate fails when the configuration is unsafe to serve with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if !c.IsDevelopment() && (c.TicketSecret == "" || c.TicketSecret == DefaultTicketSecret) {
		return ErrWeakTicketSecret
	}
	if c.TicketSecret == "" {
		return ErrWeakTicketSecret
	}
	return nil
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// LoadTicketSecret resolves only the ticket signing secret, for tools that
// do not need a database.  APP_ENV defaults to dev.
func LoadTicketSecret() (Config, error) {
	c := Config{
		Env:          envStr("APP_ENV", "dev"),
		JWTSecret:    "unused",
		TicketSecret: os.Getenv("TICKET_QR_SECRET"),
	}
	c.applyDefaults()
	return c, c.Validate()
}
