// Package config loads application configuration from config.yml plus
// environment overrides.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerName  string           `mapstructure:"server_name" yaml:"server_name"`
	Environment string           `mapstructure:"environment" yaml:"environment"`
	Port        int              `mapstructure:"port" yaml:"port"`
	Database    DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Redis       RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Auth        AuthConfig       `mapstructure:"auth" yaml:"auth"`
	Completion  CompletionConfig `mapstructure:"completion" yaml:"completion"`
	Chat        ChatConfig       `mapstructure:"chat" yaml:"chat"`
	Gateway     GatewayConfig    `mapstructure:"gateway" yaml:"gateway"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Path     string `mapstructure:"path" yaml:"path"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"db_name" yaml:"db_name"`
}

type RedisConfig struct {
	// Empty address disables the cache layer.
	Address  string        `mapstructure:"address" yaml:"address"`
	Password string        `mapstructure:"password" yaml:"password"`
	Database int           `mapstructure:"database" yaml:"database"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	ExpireAccessH int    `mapstructure:"expire_access_h" yaml:"expire_access_h"`
}

type CompletionConfig struct {
	// Endpoint is the external chat-completion service. When empty the
	// orchestrator falls back to a simulated templated reply.
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
	// Workers sizes the background completion executor.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// RunningToolTTL finalizes tool calls stuck in running as errors.
	// Zero disables the sweeper.
	RunningToolTTL time.Duration `mapstructure:"running_tool_ttl" yaml:"running_tool_ttl"`
}

type GatewayConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoadConfig reads config/config.yml and applies AITOOLBOX_* environment
// overrides.
func LoadConfig() (*AppConfig, error) {
	return LoadConfigFile("config/config.yml")
}

// LoadConfigFile reads the named YAML file.
func LoadConfigFile(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("AITOOLBOX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults plus env cover local runs.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_name", "ai-toolbox")
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "ai_toolbox.sqlite")
	v.SetDefault("redis.cache_ttl", 24*time.Hour)
	v.SetDefault("auth.expire_access_h", 72)
	v.SetDefault("completion.model", "gpt-3.5-turbo")
	v.SetDefault("completion.temperature", 0.7)
	v.SetDefault("completion.max_tokens", 2000)
	v.SetDefault("completion.timeout", 60*time.Second)
	v.SetDefault("chat.history_limit", 20)
	v.SetDefault("chat.workers", 4)
	v.SetDefault("gateway.timeout", 30*time.Second)
}
