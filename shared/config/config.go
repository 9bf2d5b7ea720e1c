package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	TikTok     TikTokConfig     `yaml:"tiktok"`
	Twitter    TwitterConfig    `yaml:"twitter"`
	AI         AIConfig         `yaml:"ai"`
	Batch      BatchConfig      `yaml:"batch"`
	Inbox      InboxConfig      `yaml:"inbox"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type YouTubeConfig struct {
	APIKey   string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	Endpoint string `yaml:"endpoint"`
}

type TikTokConfig struct {
	AccessToken string `yaml:"access_token" env:"TIKTOK_ACCESS_TOKEN"`
	Endpoint    string `yaml:"endpoint"`
}

type TwitterConfig struct {
	BearerToken string `yaml:"bearer_token" env:"TWITTER_BEARER_TOKEN"`
	Endpoint    string `yaml:"endpoint"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

// BatchConfig tunes the row pipeline. Zero values keep rows strictly
// sequential with no pacing and no per-row deadline.
type BatchConfig struct {
	Concurrency        int     `yaml:"concurrency" env:"BATCH_CONCURRENCY"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	RowTimeoutSeconds  int     `yaml:"row_timeout_seconds"`
	HTTPTimeoutSeconds int     `yaml:"http_timeout_seconds"`
}

func (b BatchConfig) RowTimeout() time.Duration {
	return time.Duration(b.RowTimeoutSeconds) * time.Second
}

func (b BatchConfig) HTTPTimeout() time.Duration {
	return time.Duration(b.HTTPTimeoutSeconds) * time.Second
}

type InboxConfig struct {
	Dir       string `yaml:"dir"`
	OutputDir string `yaml:"output_dir"`
	DataDir   string `yaml:"data_dir"`
	TrackDays int    `yaml:"track_days"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether result workbooks should be emailed.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != ""
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.TikTok.AccessToken == "" {
		c.TikTok.AccessToken = os.Getenv("TIKTOK_ACCESS_TOKEN")
	}
	if c.Twitter.BearerToken == "" {
		c.Twitter.BearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if v := os.Getenv("BATCH_CONCURRENCY"); v != "" && c.Batch.Concurrency == 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BATCH_CONCURRENCY %q: %w", v, err)
		}
		c.Batch.Concurrency = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 1
	}
	if c.Batch.HTTPTimeoutSeconds == 0 {
		c.Batch.HTTPTimeoutSeconds = 30
	}
	if c.Inbox.Dir == "" {
		c.Inbox.Dir = "inbox"
	}
	if c.Inbox.OutputDir == "" {
		c.Inbox.OutputDir = "outbox"
	}
	if c.Inbox.DataDir == "" {
		c.Inbox.DataDir = "data"
	}
	if c.Inbox.TrackDays == 0 {
		c.Inbox.TrackDays = 30
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 */5 * * * *" // Every 5 minutes
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Batch.RequestsPerSecond < 0 {
		return fmt.Errorf("batch.requests_per_second cannot be negative")
	}
	if c.Batch.RowTimeoutSeconds < 0 || c.Batch.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("batch timeouts cannot be negative")
	}
	if c.Email.Enabled() {
		if c.Email.Username == "" {
			return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
		}
		if c.Email.FromEmail == "" || c.Email.ToEmail == "" {
			return fmt.Errorf("email.from_email and email.to_email are required when email.smtp_server is set")
		}
	}
	return nil
}
