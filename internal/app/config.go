package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/rsvphq/guestlist/internal/database"
)

// Config represents the runtime configuration for the guestlist backend.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int          `mapstructure:"port"`
	LogLevel string       `mapstructure:"log_level"`
	BaseURL  string       `mapstructure:"base_url"`
	Cookie   CookieConfig `mapstructure:"cookie"`
	CSRF     CSRFConfig   `mapstructure:"csrf"`
}

// CookieConfig controls attributes of the session cookie.
type CookieConfig struct {
	Domain string `mapstructure:"domain"`
	Secure bool   `mapstructure:"secure"`
}

// CSRFConfig controls CSRF protection middleware.
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	Options  map[string]string `mapstructure:"options"`
}

// AuthConfig captures session and bootstrap settings.
type AuthConfig struct {
	Session      SessionSettings   `mapstructure:"session"`
	CancelSecret string            `mapstructure:"cancel_secret"`
	Bootstrap    BootstrapSettings `mapstructure:"bootstrap"`
}

// SessionSettings configures session token lifetimes.
type SessionSettings struct {
	TTL         time.Duration `mapstructure:"ttl"`
	RememberTTL time.Duration `mapstructure:"remember_ttl"`
	TokenLength int           `mapstructure:"token_length"`
}

// BootstrapSettings seeds the first super admin on an empty database.
type BootstrapSettings struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CampaignConfig tunes bulk email dispatch pacing.
type CampaignConfig struct {
	SendDelay   time.Duration `mapstructure:"send_delay"`
	BatchBudget time.Duration `mapstructure:"batch_budget"`
}

// DefaultsConfig supplies fallbacks for event presentation fields.
type DefaultsConfig struct {
	Theme              ThemeConfig `mapstructure:"theme"`
	HostEmail          string      `mapstructure:"host_email"`
	BackgroundImageURL string      `mapstructure:"background_image_url"`
}

// ThemeConfig holds the fallback colour palette for event emails.
type ThemeConfig struct {
	PrimaryColor    string `mapstructure:"primary_color"`
	SecondaryColor  string `mapstructure:"secondary_color"`
	AccentColor     string `mapstructure:"accent_color"`
	BackgroundColor string `mapstructure:"background_color"`
}

// DatabaseSettings converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) DatabaseSettings() database.Config {
	return database.Config{
		Driver:   c.Driver,
		Path:     c.Path,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		Options:  c.Options,
	}
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("GUESTLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8000")
	v.SetDefault("server.cookie.secure", false)
	v.SetDefault("server.csrf.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/guestlist.sqlite")

	v.SetDefault("auth.session.ttl", "24h")
	v.SetDefault("auth.session.remember_ttl", "720h") // 30 days
	v.SetDefault("auth.session.token_length", 48)

	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("campaign.send_delay", "100ms")
	v.SetDefault("campaign.batch_budget", "5m")

	v.SetDefault("defaults.theme.primary_color", "#fbbf24")
	v.SetDefault("defaults.theme.secondary_color", "#d4d4d8")
	v.SetDefault("defaults.theme.accent_color", "#f59e0b")
	v.SetDefault("defaults.theme.background_color", "#0f0f0f")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
