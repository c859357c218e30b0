package config

import (
	"os"
	"path/filepath"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Bridge     BridgeConfig
	AI         AIConfig
	WorkerPool WorkerPoolConfig
	Security   SecurityConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	TrustedProxies     []string
	CorsAllowedOrigins []string
	ServerID           string
}

type PathsConfig struct {
	BaseDir   string
	Storages  string
	SendItems string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// BridgeConfig points at the external Node process that owns the WhatsApp
// socket connections.
type BridgeConfig struct {
	BaseURL        string
	AdminKey       string
	TimeoutSec     int
	MediaTimeout   int
	WebhookListen  string // path the bridge POSTs events to
	WebhookAPIKey  string // shared secret for inbound webhooks; defaults to AdminKey
	ListenerURL    string // ws:// endpoint for the listener subcommand; derived from BaseURL when empty
	RetryAttempts  int
	RetryBackoffMs int
}

type AIConfig struct {
	OpenAIAPIKey string
	GeminiAPIKey string
	Timezone     string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type SecurityConfig struct {
	SecretKey string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	cfg := &Config{
		App: AppConfig{
			Version:            getEnv("APP_VERSION", "dev"),
			Port:               getEnv("APP_PORT", "3001"),
			Debug:              getEnvBool("APP_DEBUG", false),
			Environment:        getEnv("APP_ENV", "production"),
			BasePath:           getEnv("APP_BASE_PATH", ""),
			TrustedProxies:     getEnvList("APP_TRUSTED_PROXIES"),
			CorsAllowedOrigins: getEnvList("APP_CORS_ALLOWED_ORIGINS"),
			ServerID:           getEnv("APP_SERVER_ID", defaultServerID()),
		},
		Paths: PathsConfig{
			BaseDir:   baseDir,
			Storages:  getEnv("APP_STORAGES_PATH", baseDir),
			SendItems: getEnv("APP_SEND_ITEMS_PATH", filepath.Join(baseDir, "senditems")),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "azhub"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", filepath.Join(baseDir, "azhub.db")),
			ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
			ValkeyAddress:   getEnv("VALKEY_ADDRESS", "127.0.0.1:6379"),
			ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
			ValkeyDB:        getEnvInt("VALKEY_DB", 0),
			ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azhub"),
		},
		Bridge: BridgeConfig{
			BaseURL:        getEnv("BRIDGE_BASE_URL", "http://localhost:3000"),
			AdminKey:       getEnv("BRIDGE_ADMIN_KEY", ""),
			TimeoutSec:     getEnvInt("BRIDGE_TIMEOUT_SEC", 30),
			MediaTimeout:   getEnvInt("BRIDGE_MEDIA_TIMEOUT_SEC", 120),
			WebhookAPIKey:  getEnv("BRIDGE_WEBHOOK_API_KEY", ""),
			ListenerURL:    getEnv("BRIDGE_LISTENER_URL", ""),
			RetryAttempts:  getEnvInt("BRIDGE_RETRY_ATTEMPTS", 3),
			RetryBackoffMs: getEnvInt("BRIDGE_RETRY_BACKOFF_MS", 600),
		},
		AI: AIConfig{
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			Timezone:     getEnv("AI_TIMEZONE", "UTC"),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("WORKER_POOL_SIZE", 6),
			QueueSize: getEnvInt("WORKER_POOL_QUEUE_SIZE", 250),
		},
		Security: SecurityConfig{
			SecretKey: getEnv("APP_SECRET_KEY", ""),
		},
	}

	if cfg.Bridge.WebhookAPIKey == "" {
		cfg.Bridge.WebhookAPIKey = cfg.Bridge.AdminKey
	}

	_ = os.MkdirAll(cfg.Paths.Storages, 0755)

	Global = cfg
	return cfg, nil
}
