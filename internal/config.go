package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string              `mapstructure:"environment"`
	Server      ServerConfig        `mapstructure:"http_server"`
	Database    DatabaseConfig      `mapstructure:"database"`
	Security    SecurityConfig      `mapstructure:"security"`
	Logging     LoggingConfig       `mapstructure:"logging"`
	Payment     PaymentConfig       `mapstructure:"payment"`
	Download    DownloadConfig      `mapstructure:"download"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// GatewayCredentials is one key id / secret pair for a payment gateway.
// Neither value may ever appear in a response body; only the key id is
// exposed to clients as the publishable key.
type GatewayCredentials struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

type PaymentConfig struct {
	// Domestic gateway (INR orders), Razorpay-compatible API.
	Domestic GatewayCredentials `mapstructure:"domestic"`
	// International gateway for everything else, Stripe-compatible API.
	International GatewayCredentials `mapstructure:"international"`
	// DefaultCurrency is the currency assumed for items that do not carry one.
	DefaultCurrency string        `mapstructure:"default_currency"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// DownloadConfig tunes the access gate's bounded poll that absorbs
// replication lag between payment verification and ledger visibility.
// This is a consistency workaround, not a transactional guarantee.
type DownloadConfig struct {
	PollAttempts int           `mapstructure:"poll_attempts"`
	PollDelay    time.Duration `mapstructure:"poll_delay"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds the config purely from environment variables,
// used for Docker/production deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("JWT_ACCESS_SECRET", ""),
			RefreshTokenSecret:   getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Payment: PaymentConfig{
			Domestic: GatewayCredentials{
				KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
				KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
				BaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			},
			International: GatewayCredentials{
				KeyID:     getEnv("STRIPE_PUBLISHABLE_KEY", ""),
				KeySecret: getEnv("STRIPE_SECRET_KEY", ""),
				BaseURL:   getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
			},
			DefaultCurrency: getEnv("PAYMENT_DEFAULT_CURRENCY", "INR"),
			RequestTimeout:  getEnvAsDuration("PAYMENT_REQUEST_TIMEOUT", 30*time.Second),
		},
		Download: DownloadConfig{
			PollAttempts: getEnvAsInt("DOWNLOAD_POLL_ATTEMPTS", 5),
			PollDelay:    getEnvAsDuration("DOWNLOAD_POLL_DELAY", 500*time.Millisecond),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Payment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if err := c.Download.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("download config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("database source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	return nil
}

func (c *PaymentConfig) Validate() error {
	if c.Domestic.KeyID == "" || c.Domestic.KeySecret == "" {
		return errors.New("domestic gateway credentials are required")
	}
	if c.International.KeyID == "" || c.International.KeySecret == "" {
		return errors.New("international gateway credentials are required")
	}
	return nil
}

func (c *DownloadConfig) Validate() error {
	if c.PollAttempts < 1 {
		return errors.New("poll_attempts must be at least 1")
	}
	if c.PollDelay <= 0 {
		return errors.New("poll_delay must be positive")
	}
	return nil
}
