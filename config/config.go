package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// 服务器配置
	Port string `yaml:"port"`

	// 数据库配置
	DatabaseURL string `yaml:"database_url"`

	// 数据源配置(拉模式)
	FeedBaseURL        string `yaml:"feed_base_url"`
	FeedAccessToken    string `yaml:"feed_access_token"`
	FeedTimeoutSeconds int    `yaml:"feed_timeout_seconds"`

	// 同步调度配置
	SyncIntervalSeconds int `yaml:"sync_interval_seconds"`
	SyncRetries         int `yaml:"sync_retries"`

	// AMQP 推送配置(可选,为空则不启动消费者)
	AMQPURL   string `yaml:"amqp_url"`
	AMQPQueue string `yaml:"amqp_queue"`

	// 花名册服务配置(可选,为空则跳过阵容资格校验)
	RosterBaseURL     string `yaml:"roster_base_url"`
	RosterAccessToken string `yaml:"roster_access_token"`

	// 其他配置
	Environment string `yaml:"environment"`
}

// Load 加载配置:先取默认值,再读可选的 YAML 文件(CONFIG_FILE),
// 最后用环境变量覆盖
func Load() *Config {
	cfg := &Config{
		Port:                "8080",
		DatabaseURL:         "postgres://localhost:5432/matchops?sslmode=disable",
		FeedTimeoutSeconds:  30,
		SyncIntervalSeconds: 60,
		SyncRetries:         3,
		AMQPQueue:           "matchops.feed",
		Environment:         "development",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "config file %s: %v\n", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.FeedBaseURL = getEnv("FEED_BASE_URL", cfg.FeedBaseURL)
	cfg.FeedAccessToken = getEnv("FEED_ACCESS_TOKEN", cfg.FeedAccessToken)
	cfg.FeedTimeoutSeconds = getEnvInt("FEED_TIMEOUT_SECONDS", cfg.FeedTimeoutSeconds)
	cfg.SyncIntervalSeconds = getEnvInt("SYNC_INTERVAL_SECONDS", cfg.SyncIntervalSeconds)
	cfg.SyncRetries = getEnvInt("SYNC_RETRIES", cfg.SyncRetries)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)
	cfg.RosterBaseURL = getEnv("ROSTER_BASE_URL", cfg.RosterBaseURL)
	cfg.RosterAccessToken = getEnv("ROSTER_ACCESS_TOKEN", cfg.RosterAccessToken)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	return cfg
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result int
	fmt.Sscanf(value, "%d", &result)
	if result == 0 {
		return defaultValue
	}
	return result
}
