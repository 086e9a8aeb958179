package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all process-level configuration. The runtime test
// configuration (target URL, API keys, categories) lives in the config
// store and is edited through the dashboard, not here.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Agent     AgentConfig
	Advisor   AdvisorConfig
	Telemetry TelemetryConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	DashboardPassword string
	CookieName        string
	CookieSecret      string
	CookieSecure      bool
	SessionDuration   time.Duration
}

// DatabaseConfig holds run-history database configuration.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// StorageConfig holds result-archive storage configuration.
type StorageConfig struct {
	Type     string
	BaseDir  string
	S3Bucket string
	S3Region string
}

// AgentConfig holds browser agent runtime configuration.
type AgentConfig struct {
	RuntimeURL     string
	RequestTimeout time.Duration
	ConfigPath     string
}

// AdvisorConfig holds Bedrock recommendation configuration.
type AdvisorConfig struct {
	Enabled   bool
	Region    string
	Model     string
	MaxTokens int
}

// TelemetryConfig holds observability collector configuration.
type TelemetryConfig struct {
	Endpoint string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.dashboard_password", "")
	v.SetDefault("server.cookie_name", "webtester_session")
	v.SetDefault("server.cookie_secret", "change-this-secret-in-production-min-32-chars")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.session_duration", "24h")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "./webtester.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./archives")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")

	v.SetDefault("agent.runtime_url", "http://localhost:8900")
	v.SetDefault("agent.request_timeout", "0s")
	v.SetDefault("agent.config_path", "./test_config.json")

	v.SetDefault("advisor.enabled", false)
	v.SetDefault("advisor.region", "us-east-1")
	v.SetDefault("advisor.model", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	v.SetDefault("advisor.max_tokens", 1024)

	v.SetDefault("telemetry.endpoint", "api.lmnr.ai:8443")

	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.DashboardPassword = v.GetString("server.dashboard_password")
	config.Server.CookieName = v.GetString("server.cookie_name")
	config.Server.CookieSecret = v.GetString("server.cookie_secret")
	config.Server.CookieSecure = v.GetBool("server.cookie_secure")
	config.Server.SessionDuration = v.GetDuration("server.session_duration")

	config.Database.Driver = v.GetString("database.driver")
	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")

	config.Agent.RuntimeURL = v.GetString("agent.runtime_url")
	config.Agent.RequestTimeout = v.GetDuration("agent.request_timeout")
	config.Agent.ConfigPath = v.GetString("agent.config_path")

	config.Advisor.Enabled = v.GetBool("advisor.enabled")
	config.Advisor.Region = v.GetString("advisor.region")
	config.Advisor.Model = v.GetString("advisor.model")
	config.Advisor.MaxTokens = v.GetInt("advisor.max_tokens")

	config.Telemetry.Endpoint = v.GetString("telemetry.endpoint")

	config.Log.Level = v.GetString("log.level")

	return &config, nil
}
