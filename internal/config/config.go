package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Gateway struct {
		KeyID          string `yaml:"key_id"`     // пусто - mock-шлюз
		KeySecret      string `yaml:"key_secret"` // подпись verify-payment
		WebhookSecret  string `yaml:"webhook_secret"`
		BaseURL        string `yaml:"base_url"`
		Currency       string `yaml:"currency"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"gateway"`

	Reconciliation struct {
		Enabled           bool `yaml:"enabled"`
		IntervalSeconds   int  `yaml:"interval_seconds"`
		StaleAfterMinutes int  `yaml:"stale_after_minutes"`
		BatchSize         int  `yaml:"batch_size"`
	} `yaml:"reconciliation"`

	Redis struct {
		Addr           string `yaml:"addr"` // пусто - без кэша
		Password       string `yaml:"password"`
		DB             int    `yaml:"db"`
		LinkTTLSeconds int    `yaml:"link_ttl_seconds"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"` // пусто - события не публикуются
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Archive struct {
		Type      string `yaml:"type"`      // none, local, s3
		BasePath  string `yaml:"base_path"` // For local
		Bucket    string `yaml:"bucket"`    // For S3/R2
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"` // For R2 or custom S3
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"archive"`

	Receipts struct {
		Prefix string `yaml:"prefix"`
		NodeID int64  `yaml:"node_id"`
	} `yaml:"receipts"`
}

var AppConfig *Config

// LoadConfig - DATABASE_URL в окружении включает режим "только env"
// (тесты, контейнеры), иначе читается YAML из CONFIG_PATH.
func LoadConfig() {
	var (
		cfg *Config
		err error
	)

	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		log.Printf("Загрузка конфигурации из %s", configPath)
		cfg, err = Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		log.Println("Загрузка конфигурации из переменных окружения")
		cfg = FromEnv()
	}

	AppConfig = cfg
}

// Load читает YAML-файл и применяет значения по умолчанию.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file at %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file at %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func FromEnv() *Config {
	var cfg Config

	cfg.Database.DSN = os.Getenv("DATABASE_URL")
	cfg.Database.AutoMigrate = envBool("DATABASE_AUTO_MIGRATE", true)
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")

	cfg.Gateway.KeyID = os.Getenv("GATEWAY_KEY_ID")
	cfg.Gateway.KeySecret = os.Getenv("GATEWAY_KEY_SECRET")
	cfg.Gateway.WebhookSecret = os.Getenv("GATEWAY_WEBHOOK_SECRET")
	cfg.Gateway.BaseURL = os.Getenv("GATEWAY_BASE_URL")
	cfg.Gateway.Currency = os.Getenv("GATEWAY_CURRENCY")

	cfg.Reconciliation.Enabled = envBool("RECONCILIATION_ENABLED", false)

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	cfg.Archive.Type = os.Getenv("ARCHIVE_TYPE")
	cfg.Archive.BasePath = os.Getenv("ARCHIVE_BASE_PATH")
	cfg.Archive.Bucket = os.Getenv("ARCHIVE_BUCKET")
	cfg.Archive.Region = os.Getenv("ARCHIVE_REGION")
	cfg.Archive.Endpoint = os.Getenv("ARCHIVE_ENDPOINT")
	cfg.Archive.AccessKey = os.Getenv("ARCHIVE_ACCESS_KEY")
	cfg.Archive.SecretKey = os.Getenv("ARCHIVE_SECRET_KEY")

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 60
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://api.razorpay.com/v1"
	}
	if c.Gateway.Currency == "" {
		c.Gateway.Currency = "INR"
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 10
	}
	if c.Reconciliation.IntervalSeconds == 0 {
		c.Reconciliation.IntervalSeconds = 300
	}
	if c.Reconciliation.StaleAfterMinutes == 0 {
		c.Reconciliation.StaleAfterMinutes = 15
	}
	if c.Reconciliation.BatchSize == 0 {
		c.Reconciliation.BatchSize = 50
	}
	if c.Redis.LinkTTLSeconds == 0 {
		c.Redis.LinkTTLSeconds = 300
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "donations"
	}
	if c.Archive.Type == "" {
		c.Archive.Type = "none"
	}
	if c.Archive.Type == "local" && c.Archive.BasePath == "" {
		c.Archive.BasePath = "./archive"
	}
	if c.Receipts.Prefix == "" {
		c.Receipts.Prefix = "RCPT"
	}
	if c.Receipts.NodeID == 0 {
		c.Receipts.NodeID = 1
	}
}

// IsDevelopment - text-логи и детали ошибок в ответах
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
