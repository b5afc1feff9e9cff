package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	DB DBConfig `mapstructure:",squash"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	InviteCode      string `mapstructure:"INVITE_CODE"`
	DevConfirm      bool   `mapstructure:"AUTH_DEV_CONFIRM"`
	TwilioSID       string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioToken     string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioVerifySID string `mapstructure:"TWILIO_VERIFY_SERVICE_SID"`

	RedisURL     string   `mapstructure:"REDIS_URL"`
	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	DiscordWebhookID    string `mapstructure:"DISCORD_WEBHOOK_ID"`
	DiscordWebhookToken string `mapstructure:"DISCORD_WEBHOOK_TOKEN"`
	PublicURL           string `mapstructure:"PUBLIC_URL"`
}

type DBConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     string `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

// DSN renders the keyword/value connection string understood by pgx, lib/pq
// and the gorm postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

var keys = []string{
	"PORT", "CORS_ORIGINS",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"JWT_SECRET", "INVITE_CODE", "AUTH_DEV_CONFIRM",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID",
	"REDIS_URL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"DISCORD_WEBHOOK_ID", "DISCORD_WEBHOOK_TOKEN", "PUBLIC_URL",
}

// Load reads .env (if present), an optional board.yaml, and the environment.
// Environment variables win.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("INVITE_CODE", "FIRST100")
	v.SetDefault("KAFKA_TOPIC", "board-changes")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("board")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind each so env-only
	// settings are picked up.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	return &cfg, nil
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	if c.DB.Name == "" || c.DB.User == "" {
		return errors.New("DB_NAME and DB_USER must be set")
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

func (c *Config) DiscordEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioSID != "" && c.TwilioToken != "" && c.TwilioVerifySID != ""
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
