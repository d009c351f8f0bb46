package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Identity   IdentityConfig   `yaml:"identity" validate:"required"`
	Forms      FormsConfig      `yaml:"forms"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Contact    ContactConfig    `yaml:"contact"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Worker     WorkerConfig     `yaml:"worker"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig         `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port         int  `yaml:"port" validate:"gte=0,lte=65535"`
	SecureCookie bool `yaml:"secure_cookie"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port" validate:"gte=0,lte=65535"`
	Reflection bool `yaml:"reflection"`
}

// APIAuthConfig guards the admin HTTP routes and the gRPC service.
type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys" validate:"dive"`
}

type APIClientKey struct {
	Key         string   `yaml:"key" validate:"required"`
	Extra       string   `yaml:"extra" validate:"required"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gte=0"`
	Burst int     `yaml:"burst" validate:"gte=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BackupConfig schedules sqlite snapshots of the account database.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	StoragePath   string `yaml:"storage_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	// StateTTLSeconds bounds how long an idle session state is kept.
	StateTTLSeconds int `yaml:"state_ttl_seconds"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// IdentityConfig configures the self-hosted identity provider.
type IdentityConfig struct {
	Provider        string `yaml:"provider" validate:"oneof=local"`
	TokenSecret     string `yaml:"token_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes" validate:"gte=0"`
	Issuer          string `yaml:"issuer"`
	BcryptCost      int    `yaml:"bcrypt_cost" validate:"gte=0,lte=31"`
	ResetTTLMinutes int    `yaml:"reset_ttl_minutes" validate:"gte=0"`
	ResetURL        string `yaml:"reset_url"`
}

type FormsConfig struct {
	SignUpVariant string `yaml:"sign_up_variant" validate:"oneof=classic member"`
	RequireTerms  bool   `yaml:"require_terms"`
}

type CatalogConfig struct {
	FleetPath string `yaml:"fleet_path"`
}

type ContactConfig struct {
	Phones   []string `yaml:"phones"`
	Emails   []string `yaml:"emails"`
	Location []string `yaml:"location"`
	Hours    []string `yaml:"hours"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type GoogleConfig struct {
	CredentialsFile      string `yaml:"credentials_file"`
	InquirySpreadsheetID string `yaml:"inquiry_spreadsheet_id"`
	InquirySheetName     string `yaml:"inquiry_sheet_name"`
}

type WorkerConfig struct {
	MaxRetries          int     `yaml:"max_retries" validate:"gte=0"`
	InitialDelaySeconds int     `yaml:"initial_delay_seconds" validate:"gte=0"`
	MaxDelaySeconds     int     `yaml:"max_delay_seconds" validate:"gte=0"`
	BackoffFactor       float64 `yaml:"backoff_factor" validate:"gte=0"`
}

// Load reads the yaml file at configPath, expanding ${VAR} references from the
// environment and an optional .env file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

var structValidator = validator.New()

func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return err
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	secret := strings.TrimSpace(c.Identity.TokenSecret)
	if secret == "" || secret == "CHANGE_ME" {
		return errors.New("identity token secret is required")
	}
	if len(secret) < 16 {
		return errors.New("identity token secret must be at least 16 characters")
	}

	if c.Backup.Enabled {
		if _, err := time.ParseDuration(c.Backup.Schedule); err != nil {
			return fmt.Errorf("backup schedule: %w", err)
		}
		if c.Database.Path == ":memory:" {
			return errors.New("backup requires a file database")
		}
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram chat_id is required when bot_token is set")
	}
	if c.Google.InquirySpreadsheetID != "" && c.Google.CredentialsFile == "" {
		return errors.New("google credentials_file is required when inquiry_spreadsheet_id is set")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "jetcharter"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "24h"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "./data/backups"
	}

	if c.Redis.StateTTLSeconds == 0 {
		c.Redis.StateTTLSeconds = 24 * 60 * 60
	}

	if c.Identity.Provider == "" {
		c.Identity.Provider = "local"
	}
	if c.Identity.TokenTTLMinutes == 0 {
		c.Identity.TokenTTLMinutes = 60
	}
	if c.Identity.Issuer == "" {
		c.Identity.Issuer = c.App.Name
	}
	if c.Identity.ResetTTLMinutes == 0 {
		c.Identity.ResetTTLMinutes = 30
	}

	if c.Forms.SignUpVariant == "" {
		c.Forms.SignUpVariant = "classic"
	}

	if c.Google.InquirySheetName == "" {
		c.Google.InquirySheetName = "Inquiries"
	}

	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Worker.InitialDelaySeconds == 0 {
		c.Worker.InitialDelaySeconds = 2
	}
	if c.Worker.MaxDelaySeconds == 0 {
		c.Worker.MaxDelaySeconds = 60
	}
	if c.Worker.BackoffFactor == 0 {
		c.Worker.BackoffFactor = 2
	}

	if len(c.Contact.Phones) == 0 {
		c.Contact.Phones = []string{"+355 68 56 92 096", "+1 (555) 765-4321"}
	}
	if len(c.Contact.Emails) == 0 {
		c.Contact.Emails = []string{"support@jetpage.com", "bookings@jetpage.com"}
	}
	if len(c.Contact.Location) == 0 {
		c.Contact.Location = []string{"St . Komuna e Parisit", "Tirana, Al 1060"}
	}
	if len(c.Contact.Hours) == 0 {
		c.Contact.Hours = []string{"Monday-Friday: 24/7", "Weekend: 24/7"}
	}
}
