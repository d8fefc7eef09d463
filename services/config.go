package services

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	Video     VideoConfig
	PDF       PDFConfig
	Storage   StorageConfig
	Notify    NotifyConfig
	Webhook   WebhookConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
}

type ServerConfig struct {
	Port      string
	PublicURL string // base URL the video vendor calls back to
}

type DatabaseConfig struct {
	URL          string
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
	SeedDemo     bool
}

type AIConfig struct {
	GeminiAPIKey string
}

type VideoConfig struct {
	APIKey  string
	BaseURL string
}

type PDFConfig struct {
	APIKey       string
	BaseURL      string
	PollAttempts int
	PollDelaySec int
}

type StorageConfig struct {
	BaseURL      string
	APIKey       string
	ResumeBucket string
	ReportBucket string
}

type NotifyConfig struct {
	APIKey  string
	BaseURL string
	Channel string // "email" or "sms"
}

type WebhookConfig struct {
	Secret string
}

type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	AllowedOrigins string
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.public_url", "http://localhost:8080")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("database.seed_demo", "false")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("video.api_key", "")
	viper.SetDefault("video.base_url", "https://api.video-vendor.example.com")
	viper.SetDefault("pdf.api_key", "")
	viper.SetDefault("pdf.base_url", "https://api.pdf-renderer.example.com")
	viper.SetDefault("pdf.poll_attempts", "10")
	viper.SetDefault("pdf.poll_delay_sec", "2")
	viper.SetDefault("storage.base_url", "")
	viper.SetDefault("storage.api_key", "")
	viper.SetDefault("storage.resume_bucket", "resumes")
	viper.SetDefault("storage.report_bucket", "reports")
	viper.SetDefault("notify.api_key", "")
	viper.SetDefault("notify.base_url", "")
	viper.SetDefault("notify.channel", "email")
	viper.SetDefault("webhook.secret", "")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("websocket.allowed_origins", "")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.public_url", "SERVER_PUBLIC_URL")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("database.seed_demo", "SEED_DEMO_DATA")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("video.api_key", "VIDEO_API_KEY")
	viper.BindEnv("video.base_url", "VIDEO_BASE_URL")
	viper.BindEnv("pdf.api_key", "PDF_API_KEY")
	viper.BindEnv("pdf.base_url", "PDF_BASE_URL")
	viper.BindEnv("pdf.poll_attempts", "PDF_POLL_ATTEMPTS")
	viper.BindEnv("pdf.poll_delay_sec", "PDF_POLL_DELAY_SEC")
	viper.BindEnv("storage.base_url", "STORAGE_BASE_URL")
	viper.BindEnv("storage.api_key", "STORAGE_API_KEY")
	viper.BindEnv("storage.resume_bucket", "STORAGE_RESUME_BUCKET")
	viper.BindEnv("storage.report_bucket", "STORAGE_REPORT_BUCKET")
	viper.BindEnv("notify.api_key", "NOTIFY_API_KEY")
	viper.BindEnv("notify.base_url", "NOTIFY_BASE_URL")
	viper.BindEnv("notify.channel", "NOTIFY_CHANNEL")
	viper.BindEnv("webhook.secret", "WEBHOOK_SECRET")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			PublicURL: viper.GetString("server.public_url"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
			SeedDemo:     viper.GetBool("database.seed_demo"),
		},
		AI: AIConfig{
			GeminiAPIKey: viper.GetString("gemini.api_key"),
		},
		Video: VideoConfig{
			APIKey:  viper.GetString("video.api_key"),
			BaseURL: viper.GetString("video.base_url"),
		},
		PDF: PDFConfig{
			APIKey:       viper.GetString("pdf.api_key"),
			BaseURL:      viper.GetString("pdf.base_url"),
			PollAttempts: viper.GetInt("pdf.poll_attempts"),
			PollDelaySec: viper.GetInt("pdf.poll_delay_sec"),
		},
		Storage: StorageConfig{
			BaseURL:      viper.GetString("storage.base_url"),
			APIKey:       viper.GetString("storage.api_key"),
			ResumeBucket: viper.GetString("storage.resume_bucket"),
			ReportBucket: viper.GetString("storage.report_bucket"),
		},
		Notify: NotifyConfig{
			APIKey:  viper.GetString("notify.api_key"),
			BaseURL: viper.GetString("notify.base_url"),
			Channel: viper.GetString("notify.channel"),
		},
		Webhook: WebhookConfig{
			Secret: viper.GetString("webhook.secret"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
	}
}
