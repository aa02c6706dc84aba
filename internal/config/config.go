// Package config loads the process configuration from environment variables
// and optional .env files. The configuration is built once at startup and
// passed explicitly into collaborators; nothing reads the environment after
// Load returns.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full configuration surface of the auto-downloader.
type Config struct {
	Environment string
	ServiceName string
	LogLevel    string

	Notion  NotionConfig
	Storage StorageConfig
	Fetch   FetchConfig
	Runner  RunnerConfig
	Metrics MetricsConfig
}

// NotionConfig configures the case database client.
type NotionConfig struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	MaxRetries int
}

// StorageConfig selects and configures the remote store.
type StorageConfig struct {
	// Provider is "dropbox" or "s3".
	Provider string
	Timeout  time.Duration
	Dropbox  DropboxConfig
	S3       S3Config
}

// DropboxConfig configures the Dropbox remote store.
type DropboxConfig struct {
	AccessToken string
	// MemberID is the team member to act as, empty for a personal account.
	MemberID string
	// NamespaceID is the team folder namespace to use as path root.
	NamespaceID string
	// RootPath is the folder all case folders are created under.
	RootPath string
	// ChunkThreshold is the file size above which upload sessions are used.
	ChunkThreshold int64
	// ChunkSize is the upload session chunk size.
	ChunkSize int64
}

// S3Config configures the S3 staging store.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	MaxRetries      int
}

// FetchConfig configures the file fetcher.
type FetchConfig struct {
	// DownloadDir is the local destination for fetched files.
	DownloadDir string
	Timeout     time.Duration
	UserAgent   string
	MaxFileSize int64
	// Concurrency bounds parallel link fetches within one case. 1 means
	// sequential, which must be observably identical.
	Concurrency int
	// BrowserEnabled turns on the browser-assisted fallback strategy.
	BrowserEnabled bool
	// BrowserControlURL points at an external Chrome DevTools endpoint.
	// Empty launches a local headless browser.
	BrowserControlURL string
	BrowserTimeout    time.Duration
}

// RunnerConfig configures the batch runner loop.
type RunnerConfig struct {
	PollInterval time.Duration
	// RunOnce processes a single batch and exits.
	RunOnce bool
	// CaseLimit caps cases per batch; 0 means unbounded.
	CaseLimit int
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// Load reads .env files, parses the environment, and validates the result.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := parse()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence: .env, then
// .env.{ENVIRONMENT}, then .env.local. All are optional.
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	return nil
}

func parse() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", "auto-downloader"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Notion: NotionConfig{
			APIKey:     getEnv("NOTION_API_KEY", ""),
			DatabaseID: getEnv("NOTION_DATABASE_ID", ""),
			BaseURL:    getEnv("NOTION_BASE_URL", "https://api.notion.com"),
			APIVersion: getEnv("NOTION_API_VERSION", "2022-06-28"),
			Timeout:    getDuration("NOTION_TIMEOUT", "30s"),
			MaxRetries: getInt("NOTION_MAX_RETRIES", 3),
		},

		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", "dropbox"),
			Timeout:  getDuration("STORAGE_TIMEOUT", "120s"),
			Dropbox: DropboxConfig{
				AccessToken:    getEnv("DROPBOX_ACCESS_TOKEN", ""),
				MemberID:       getEnv("DROPBOX_MEMBER_ID", ""),
				NamespaceID:    getEnv("DROPBOX_NAMESPACE_ID", ""),
				RootPath:       getEnv("DROPBOX_ROOT_PATH", "/Cases"),
				ChunkThreshold: getInt64("DROPBOX_CHUNK_THRESHOLD", 150*1024*1024),
				ChunkSize:      getInt64("DROPBOX_CHUNK_SIZE", 4*1024*1024),
			},
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				MaxRetries:      getInt("S3_MAX_RETRIES", 3),
			},
		},

		Fetch: FetchConfig{
			DownloadDir:       getEnv("DOWNLOAD_DIR", "./downloads"),
			Timeout:           getDuration("FETCH_TIMEOUT", "120s"),
			UserAgent:         getEnv("FETCH_USER_AGENT", "auto-downloader/1.0"),
			MaxFileSize:       getInt64("FETCH_MAX_FILE_SIZE", 2*1024*1024*1024),
			Concurrency:       getInt("FETCH_CONCURRENCY", 1),
			BrowserEnabled:    getBool("BROWSER_ENABLED", true),
			BrowserControlURL: getEnv("BROWSER_CONTROL_URL", ""),
			BrowserTimeout:    getDuration("BROWSER_TIMEOUT", "10m"),
		},

		Runner: RunnerConfig{
			PollInterval: getDuration("POLL_INTERVAL", "60s"),
			RunOnce:      getBool("RUN_ONCE", false),
			CaseLimit:    getInt("CASE_LIMIT", 4),
		},

		Metrics: MetricsConfig{
			Enabled: getBool("METRICS_ENABLED", true),
			Addr:    getEnv("METRICS_ADDR", ":9090"),
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Notion.APIKey == "" {
		return fmt.Errorf("NOTION_API_KEY is required")
	}
	if c.Notion.DatabaseID == "" {
		return fmt.Errorf("NOTION_DATABASE_ID is required")
	}

	switch c.Storage.Provider {
	case "dropbox":
		if c.Storage.Dropbox.AccessToken == "" {
			return fmt.Errorf("DROPBOX_ACCESS_TOKEN is required for the dropbox provider")
		}
		if c.Storage.Dropbox.ChunkSize <= 0 {
			return fmt.Errorf("DROPBOX_CHUNK_SIZE must be positive")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 provider")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %s", c.Storage.Provider)
	}

	if c.Fetch.DownloadDir == "" {
		return fmt.Errorf("DOWNLOAD_DIR is required")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.Runner.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.Runner.CaseLimit < 0 {
		return fmt.Errorf("CASE_LIMIT must not be negative")
	}

	return nil
}
