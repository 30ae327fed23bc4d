package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	StorageDriver string
	DatabaseURL   string
	MaxDBConns    int32
	AutoMigrate   bool
	RedisURL      string

	KafkaBrokers          []string
	KafkaConsumerGroup    string
	KafkaTopicOrders      string
	KafkaTopicPortal      string
	KafkaTopicCommissions string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration
	MonthCloseSpec       string

	StatementCacheTTL  time.Duration
	DepreciationFactor float64
	DefaultCurrency    string
	IdempotencyTTL     time.Duration
	EventDedupTTL      time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	JWTSecret      string
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Storage struct {
		Driver      string `yaml:"driver"`
		PostgresURL string `yaml:"postgres_url"`
		MaxConns    int32  `yaml:"max_conns"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
	} `yaml:"storage"`
	Dependencies struct {
		RedisURL              string   `yaml:"redis_url"`
		KafkaBrokers          []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup    string   `yaml:"kafka_consumer_group"`
		KafkaTopicOrders      string   `yaml:"kafka_topic_orders"`
		KafkaTopicPortal      string   `yaml:"kafka_topic_portal"`
		KafkaTopicCommissions string   `yaml:"kafka_topic_commissions"`
	} `yaml:"dependencies"`
	Workers struct {
		OutboxPollSeconds   int    `yaml:"outbox_poll_seconds"`
		OutboxBatchSize     int    `yaml:"outbox_batch_size"`
		ConsumerPollSeconds int    `yaml:"consumer_poll_seconds"`
		MonthCloseSchedule  string `yaml:"month_close_schedule"`
	} `yaml:"workers"`
	Commission struct {
		DefaultCurrency     string   `yaml:"default_currency"`
		DepreciationFactor  *float64 `yaml:"depreciation_factor"`
		StatementCacheSecs  int      `yaml:"statement_cache_seconds"`
		IdempotencyTTLHours int      `yaml:"idempotency_ttl_hours"`
		EventDedupTTLHours  int      `yaml:"event_dedup_ttl_hours"`
	} `yaml:"commission"`
	HTTP struct {
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"http"`
}

func defaultConfig() Config {
	return Config{
		ServiceID:             "partner-portal",
		HTTPPort:              8080,
		GRPCPort:              9090,
		StorageDriver:         DriverMemory,
		MaxDBConns:            20,
		AutoMigrate:           true,
		KafkaConsumerGroup:    "partner-portal",
		KafkaTopicOrders:      "commerce.orders",
		KafkaTopicPortal:      "partner.portal",
		KafkaTopicCommissions: "partner.commissions",
		OutboxPollInterval:    2 * time.Second,
		OutboxBatchSize:       100,
		ConsumerPollInterval:  2 * time.Second,
		StatementCacheTTL:     10 * time.Minute,
		DepreciationFactor:    0.5,
		DefaultCurrency:       "INR",
		IdempotencyTTL:        7 * 24 * time.Hour,
		EventDedupTTL:         7 * 24 * time.Hour,
		RateLimitRPS:          20,
		RateLimitBurst:        40,
	}
}

// LoadConfig layers defaults, the yaml file at path, a local .env file and the process
// environment, in that order. A missing yaml file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	setString(&cfg.ServiceID, f.Service.ID)
	setInt(&cfg.HTTPPort, f.Service.HTTPPort)
	setInt(&cfg.GRPCPort, f.Service.GRPCPort)

	setString(&cfg.StorageDriver, f.Storage.Driver)
	setString(&cfg.DatabaseURL, f.Storage.PostgresURL)
	if f.Storage.MaxConns > 0 {
		cfg.MaxDBConns = f.Storage.MaxConns
	}
	if f.Storage.AutoMigrate != nil {
		cfg.AutoMigrate = *f.Storage.AutoMigrate
	}

	setString(&cfg.RedisURL, f.Dependencies.RedisURL)
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	setString(&cfg.KafkaConsumerGroup, f.Dependencies.KafkaConsumerGroup)
	setString(&cfg.KafkaTopicOrders, f.Dependencies.KafkaTopicOrders)
	setString(&cfg.KafkaTopicPortal, f.Dependencies.KafkaTopicPortal)
	setString(&cfg.KafkaTopicCommissions, f.Dependencies.KafkaTopicCommissions)

	setSeconds(&cfg.OutboxPollInterval, f.Workers.OutboxPollSeconds)
	setInt(&cfg.OutboxBatchSize, f.Workers.OutboxBatchSize)
	setSeconds(&cfg.ConsumerPollInterval, f.Workers.ConsumerPollSeconds)
	setString(&cfg.MonthCloseSpec, f.Workers.MonthCloseSchedule)

	setString(&cfg.DefaultCurrency, f.Commission.DefaultCurrency)
	if f.Commission.DepreciationFactor != nil {
		cfg.DepreciationFactor = *f.Commission.DepreciationFactor
	}
	setSeconds(&cfg.StatementCacheTTL, f.Commission.StatementCacheSecs)
	if f.Commission.IdempotencyTTLHours > 0 {
		cfg.IdempotencyTTL = time.Duration(f.Commission.IdempotencyTTLHours) * time.Hour
	}
	if f.Commission.EventDedupTTLHours > 0 {
		cfg.EventDedupTTL = time.Duration(f.Commission.EventDedupTTLHours) * time.Hour
	}

	if f.HTTP.RateLimitRPS > 0 {
		cfg.RateLimitRPS = f.HTTP.RateLimitRPS
	}
	setInt(&cfg.RateLimitBurst, f.HTTP.RateLimitBurst)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.StorageDriver = strings.ToLower(envOrDefault("STORAGE_DRIVER", cfg.StorageDriver))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.AutoMigrate = envBool("DB_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicOrders = envOrDefault("KAFKA_TOPIC_ORDERS", cfg.KafkaTopicOrders)
	cfg.KafkaTopicPortal = envOrDefault("KAFKA_TOPIC_PORTAL", cfg.KafkaTopicPortal)
	cfg.KafkaTopicCommissions = envOrDefault("KAFKA_TOPIC_COMMISSIONS", cfg.KafkaTopicCommissions)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.MonthCloseSpec = envOrDefault("MONTH_CLOSE_SCHEDULE", cfg.MonthCloseSpec)
	cfg.StatementCacheTTL = time.Duration(envInt("STATEMENT_CACHE_SECONDS", int(cfg.StatementCacheTTL.Seconds()))) * time.Second
	cfg.DepreciationFactor = envFloat("RENEWAL_DEPRECIATION_FACTOR", cfg.DepreciationFactor)
	cfg.DefaultCurrency = strings.ToUpper(envOrDefault("DEFAULT_CURRENCY", cfg.DefaultCurrency))
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.RateLimitRPS = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing DB_URL/POSTGRES_URL for postgres storage")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.DepreciationFactor < 0 || c.DepreciationFactor > 1 {
		return fmt.Errorf("renewal depreciation factor %v outside [0,1]", c.DepreciationFactor)
	}
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		return fmt.Errorf("http and grpc ports must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive")
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setSeconds(dst *time.Duration, secs int) {
	if secs > 0 {
		*dst = time.Duration(secs) * time.Second
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
