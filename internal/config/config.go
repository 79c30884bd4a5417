package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	PasswordPlaintext = "plaintext"
	PasswordBcrypt    = "bcrypt"
)

type Config struct {
	Server struct {
		Host               string   `mapstructure:"host"`
		Port               int      `mapstructure:"port"`
		Subpath            string   `mapstructure:"subpath"`
		JWTSecret          string   `mapstructure:"jwtSecret"`
		ReadTimeoutSeconds int      `mapstructure:"read_timeout_seconds"`
		WriteTimeoutSecs   int      `mapstructure:"write_timeout_seconds"`
		AllowedOrigins     []string `mapstructure:"allowed_origins"`
		Debug              bool     `mapstructure:"debug"`
	} `mapstructure:"server"`
	Auth struct {
		TokenTTLHours int    `mapstructure:"token_ttl_hours"`
		PasswordMode  string `mapstructure:"password_mode"`
	} `mapstructure:"auth"`
	Store struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"store"`
	Sheets struct {
		SpreadsheetID    string `mapstructure:"spreadsheet_id"`
		ClientEmail      string `mapstructure:"client_email"`
		PrivateKey       string `mapstructure:"private_key"`
		UsersSheet       string `mapstructure:"users_sheet"`
		AttendanceSheet  string `mapstructure:"attendance_sheet"`
		ValueInputOption string `mapstructure:"value_input_option"`
	} `mapstructure:"sheets"`
	Postgres struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"postgres"`
	SQLite struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"sqlite"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	RateLimit struct {
		Enabled       bool `mapstructure:"enabled"`
		WindowSeconds int  `mapstructure:"window_seconds"`
		MaxRequests   int  `mapstructure:"max_requests"`
		MaxKeys       int  `mapstructure:"max_keys"`
	} `mapstructure:"rate_limit"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// TokenTTL is the lifetime of issued credentials.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads the config file once per process. Environment variables
// override file values; an empty path means environment only.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		c, err := load(path)
		if err != nil {
			cfgErr = err
			return
		}
		cfg = c
	})
	return cfg, cfgErr
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("invalid config format: %w", err)
	}
	// Keys pasted into env vars usually carry escaped newlines.
	c.Sheets.PrivateKey = strings.ReplaceAll(c.Sheets.PrivateKey, `\n`, "\n")

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.subpath", "/api")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"https://absensi-bk.vercel.app",
		"https://*.vercel.app",
	})
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("auth.password_mode", PasswordPlaintext)
	v.SetDefault("store.driver", DriverSheets)
	v.SetDefault("sheets.users_sheet", "Users")
	v.SetDefault("sheets.attendance_sheet", "Absensi")
	v.SetDefault("sheets.value_input_option", "RAW")
	v.SetDefault("sqlite.path", "absensi.db")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.max_keys", 10000)
	v.SetDefault("metrics.enabled", true)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("ABSENSI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by existing deployments.
	_ = v.BindEnv("server.jwtSecret", "ABSENSI_SERVER_JWTSECRET", "JWT_SECRET")
	_ = v.BindEnv("sheets.spreadsheet_id", "ABSENSI_SHEETS_SPREADSHEET_ID", "SPREADSHEET_ID")
	_ = v.BindEnv("sheets.client_email", "ABSENSI_SHEETS_CLIENT_EMAIL", "GOOGLE_CLIENT_EMAIL")
	_ = v.BindEnv("sheets.private_key", "ABSENSI_SHEETS_PRIVATE_KEY", "GOOGLE_PRIVATE_KEY")
	_ = v.BindEnv("redis.addr", "ABSENSI_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("postgres.dsn", "ABSENSI_POSTGRES_DSN", "DATABASE_URL")
}

func (c *Config) validate() error {
	if c.Server.JWTSecret == "" {
		return errors.New("jwtSecret must be set in config")
	}
	switch c.Store.Driver {
	case DriverSheets:
		if c.Sheets.SpreadsheetID == "" || c.Sheets.ClientEmail == "" || c.Sheets.PrivateKey == "" {
			return errors.New("sheets driver requires spreadsheet_id, client_email and private_key")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres driver requires postgres.dsn")
		}
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Auth.PasswordMode {
	case PasswordPlaintext, PasswordBcrypt:
	default:
		return fmt.Errorf("unknown password_mode %q", c.Auth.PasswordMode)
	}
	if c.Auth.TokenTTLHours <= 0 {
		return errors.New("auth.token_ttl_hours must be positive")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.WindowSeconds <= 0 {
			return errors.New("rate_limit.window_seconds must be positive")
		}
		if c.RateLimit.MaxRequests <= 0 {
			return errors.New("rate_limit.max_requests must be positive")
		}
	}
	return nil
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
