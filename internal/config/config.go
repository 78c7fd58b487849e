package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// sweepOff disables a sweep job when used as its spec.
const sweepOff = "off"

type Config struct {
	AppPort  string
	LogLevel logrus.Level

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SMTPPoolSize int

	WhatsAppAPIURL string
	WhatsAppToken  string

	AutoDecisionDelay  time.Duration
	AnnualInterestRate float64

	SweepPaymentFailedSpec   string
	SweepProfileReminderSpec string
	SweepPaymentPendingSpec  string
	SweepTrackerPruneSpec    string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if n, err := strconv.Atoi(getenv(k, "")); err == nil {
		return n
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(getenv(k, "")); err == nil {
		return v
	}
	return d
}

func getfloat(k string, d float64) float64 {
	if v, err := strconv.ParseFloat(getenv(k, ""), 64); err == nil {
		return v
	}
	return d
}

// getspec returns the cron spec for k; "off" yields "" which disables the job.
func getspec(k, d string) string {
	v := getenv(k, d)
	if strings.EqualFold(v, sweepOff) {
		return ""
	}
	return v
}

// Load reads an optional .env file, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	level, err := logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		LogLevel:  level,
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "loanflow"),
		MySQLUser: getenv("MYSQL_USER", "loanflow"),
		MySQLPass: getenv("MYSQL_PASS", "loanflow"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		SMTPHost:     getenv("SMTP_HOST", "mailhog"),
		SMTPPort:     getenv("SMTP_PORT", "1025"),
		SMTPUser:     getenv("SMTP_USER", ""),
		SMTPPass:     getenv("SMTP_PASS", ""),
		SMTPFrom:     getenv("SMTP_FROM", "LoanFlow <no-reply@loanflow.local>"),
		SMTPPoolSize: getint("SMTP_POOL_SIZE", 2),

		WhatsAppAPIURL: getenv("WHATSAPP_API_URL", ""),
		WhatsAppToken:  getenv("WHATSAPP_API_TOKEN", ""),

		AutoDecisionDelay:  getduration("AUTO_DECISION_DELAY", 5*time.Minute),
		AnnualInterestRate: getfloat("ANNUAL_INTEREST_RATE", 12),

		SweepPaymentFailedSpec:   getspec("SWEEP_PAYMENT_FAILED_SPEC", "@every 1h"),
		SweepProfileReminderSpec: getspec("SWEEP_PROFILE_REMINDER_SPEC", "@every 1h"),
		SweepPaymentPendingSpec:  getspec("SWEEP_PAYMENT_PENDING_SPEC", "@every 6h"),
		SweepTrackerPruneSpec:    getspec("SWEEP_TRACKER_PRUNE_SPEC", "@daily"),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := net.LookupPort("tcp", c.SMTPPort); err != nil {
		return fmt.Errorf("invalid SMTP_PORT %q: %w", c.SMTPPort, err)
	}
	if c.WhatsAppAPIURL != "" {
		if u, err := url.Parse(c.WhatsAppAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid WHATSAPP_API_URL %q", c.WhatsAppAPIURL)
		}
	}
	if c.AutoDecisionDelay < 0 {
		return errors.New("AUTO_DECISION_DELAY must not be negative")
	}
	if c.AnnualInterestRate < 0 {
		return errors.New("ANNUAL_INTEREST_RATE must not be negative")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

// WhatsAppEnabled reports whether a WhatsApp provider is configured.
func (c *Config) WhatsAppEnabled() bool { return c.WhatsAppAPIURL != "" }
