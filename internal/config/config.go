package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/ifuryst/amplify/pkg/cache"
	"github.com/ifuryst/amplify/pkg/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logger   logger.Config  `yaml:"logger"`
	Sync     SyncConfig     `yaml:"sync"`
	TikTok   TikTokConfig   `yaml:"tiktok"`
	Security SecurityConfig `yaml:"security"`
	Redis    RedisConfig    `yaml:"redis"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`
}

type SyncConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RunOnStart    bool   `yaml:"run_on_start"`
	RetentionDays int    `yaml:"retention_days"`
}

type TikTokConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
	Timeout  string `yaml:"timeout"`
}

type SecurityConfig struct {
	// TokenKey derives the key that encrypts social account access tokens.
	TokenKey  string `yaml:"token_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type RedisConfig struct {
	cache.Config   `yaml:",inline"`
	LeaderboardTTL string `yaml:"leaderboard_ttl"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Sync.Interval == "" {
		cfg.Sync.Interval = "15m"
	}
	if cfg.Sync.RetentionDays == 0 {
		cfg.Sync.RetentionDays = 90
	}
	if cfg.TikTok.BaseURL == "" {
		cfg.TikTok.BaseURL = "https://open.tiktokapis.com"
	}
	if cfg.TikTok.PageSize == 0 {
		cfg.TikTok.PageSize = 20
	}
	if cfg.TikTok.Timeout == "" {
		cfg.TikTok.Timeout = "30s"
	}
	if cfg.Redis.LeaderboardTTL == "" {
		cfg.Redis.LeaderboardTTL = "10m"
	}
}
