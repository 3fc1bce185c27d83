package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/iquiquesec/ciberseguridad/internal/logging"
	"github.com/iquiquesec/ciberseguridad/internal/metrics"
)

type ServerConfig struct {
	Server struct {
		Host      string `mapstructure:"host" json:"host,omitempty"`
		Port      int64  `mapstructure:"port" json:"port,omitempty"`
		JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret,omitempty"`
	} `mapstructure:"server" json:"server"`
	Database      DatabaseConfig     `mapstructure:"database" json:"database,omitempty"`
	Redis         RedisConfig        `mapstructure:"redis" json:"redis,omitempty"`
	BlockStorage  BlockStorageConfig `mapstructure:"block_storage" json:"block_storage,omitempty"`
	Features      FeaturesConfig     `mapstructure:"features" json:"features,omitempty"`
	Metrics       metrics.Config     `mapstructure:"metrics" json:"metrics,omitempty"`
	LogFormat     logging.LogFormat  `mapstructure:"log_format" json:"log_format,omitempty"`
	PolicyCatalog string             `mapstructure:"policy_catalog" json:"policy_catalog,omitempty"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" json:"dsn,omitempty"`
}

type RedisConfig struct {
	URI      string `mapstructure:"uri" json:"uri,omitempty"`
	Host     string `mapstructure:"host" json:"host,omitempty"`
	Port     string `mapstructure:"port" json:"port,omitempty"`
	User     string `mapstructure:"user" json:"user,omitempty"`
	Password string `mapstructure:"password" json:"password,omitempty"`
	DB       int    `mapstructure:"db" json:"db,omitempty"`
}

// Enabled reports whether a redis connection is configured.
func (r RedisConfig) Enabled() bool {
	return r.URI != "" || r.Host != ""
}

type BlockStorageConfig struct {
	Host      string `mapstructure:"host" json:"host,omitempty"`
	Region    string `mapstructure:"region" json:"region,omitempty"`
	AccessKey string `mapstructure:"access_key" json:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key,omitempty"`
	Bucket    string `mapstructure:"bucket" json:"bucket,omitempty"`
	LocalPath string `mapstructure:"local_path" json:"local_path,omitempty"`
}

// Enabled reports whether reports go to S3 compatible storage.
func (b BlockStorageConfig) Enabled() bool {
	return b.Bucket != ""
}

type FeaturesConfig struct {
	Path string `mapstructure:"path" json:"path,omitempty"`
}

// WorkerConfig is read from CS_WORKER_* environment variables.
type WorkerConfig struct {
	DatabaseDSN   string            `envconfig:"DATABASE_DSN" required:"true"`
	RedisURI      string            `envconfig:"REDIS_URI"`
	RedisHost     string            `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string            `envconfig:"REDIS_PORT" default:"6379"`
	RedisUser     string            `envconfig:"REDIS_USER"`
	RedisPassword string            `envconfig:"REDIS_PASSWORD"`
	RedisDB       int               `envconfig:"REDIS_DB" default:"0"`
	FeaturesPath  string            `envconfig:"FEATURES_PATH" default:"data/features.json"`
	Concurrency   int               `envconfig:"CONCURRENCY" default:"4"`
	HealthPort    int               `envconfig:"HEALTH_PORT" default:"8081"`
	LogFormat     logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	Metrics       metrics.Config    `envconfig:"METRICS"`
}

// Redis returns the worker redis settings in the shared shape.
func (w WorkerConfig) Redis() RedisConfig {
	return RedisConfig{
		URI:      w.RedisURI,
		Host:     w.RedisHost,
		Port:     w.RedisPort,
		User:     w.RedisUser,
		Password: w.RedisPassword,
		DB:       w.RedisDB,
	}
}

func ReadServerConfig() (*ServerConfig, error) {
	configName := os.Getenv("CS_SERVER_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}
	return ReadConfig(configName)
}

func ReadConfig(configName string) (*ServerConfig, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("features.path", "data/features.json")
	v.SetDefault("block_storage.local_path", "data/reports")
	v.SetDefault("log_format", string(logging.FormatText))
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 8088)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fail to reading config file, %w", err)
	}
	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := cfg.LogFormat.UnmarshalText([]byte(cfg.LogFormat)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ReadWorkerConfig() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process("CS_WORKER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load worker config: %w", err)
	}
	return &cfg, nil
}
