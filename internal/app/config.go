package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Поддерживаемые backend-ы хранилища документов.
const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

const (
	envMetricsAddr         = "AGRO_METRICS_ADDR"
	envStorageDriver       = "AGRO_STORAGE_DRIVER"
	envStorageFile         = "AGRO_STORAGE_FILE"
	envRedisAddr           = "AGRO_REDIS_ADDR"
	envRedisPassword       = "AGRO_REDIS_PASSWORD"
	envRedisDB             = "AGRO_REDIS_DB"
	envRedisPrefix         = "AGRO_REDIS_PREFIX"
	envPostgresDSN         = "AGRO_POSTGRES_DSN"
	envPostgresAutoMigrate = "AGRO_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers        = "AGRO_KAFKA_BROKERS"
	envKafkaTopic          = "AGRO_KAFKA_TOPIC"
	envOutboxPollInterval  = "AGRO_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize     = "AGRO_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts   = "AGRO_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay    = "AGRO_OUTBOX_RETRY_DELAY"
	envReconcileInterval   = "AGRO_RECONCILE_INTERVAL"
	envSeedOnStart         = "AGRO_SEED_ON_START"
	envLogLevel            = "AGRO_LOG_LEVEL"
)

// Config описывает настройки запуска рынка.
type Config struct {
	MetricsAddr string

	StorageDriver       string
	StorageFile         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RedisPrefix         string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers — список через запятую; пустая строка отключает ретрансляцию outbox.
	KafkaBrokers       string
	KafkaTopic         string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	ReconcileInterval time.Duration
	SeedOnStart       bool
	LogLevel          string
}

// DefaultConfig возвращает настройки по умолчанию: файловое хранилище и метрики на :9090.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverFile,
		StorageFile:         "agromarket.json",
		RedisPrefix:         "agromarket:",
		PostgresAutoMigrate: true,
		KafkaTopic:          "agromarket.market.events",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		ReconcileInterval:   30 * time.Second,
		SeedOnStart:         true,
		LogLevel:            "info",
	}
}

// EnvLookup совместим с os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// ConfigFromEnv накладывает переменные AGRO_* на DefaultConfig.
// Некорректные значения оставляют значение по умолчанию и попадают в warnings.
func ConfigFromEnv(lookup EnvLookup) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, value, err))
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envStorageFile, &cfg.StorageFile)
	str(envRedisAddr, &cfg.RedisAddr)
	str(envRedisPrefix, &cfg.RedisPrefix)
	str(envPostgresDSN, &cfg.PostgresDSN)
	str(envKafkaBrokers, &cfg.KafkaBrokers)
	str(envKafkaTopic, &cfg.KafkaTopic)
	if v, ok := lookup(envRedisPassword); ok {
		cfg.RedisPassword = v
	}

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		driver := strings.ToLower(strings.TrimSpace(v))
		switch driver {
		case StorageDriverMemory, StorageDriverFile, StorageDriverRedis, StorageDriverPostgres:
			cfg.StorageDriver = driver
		default:
			warn(envStorageDriver, v, fmt.Errorf("unsupported driver (use memory|file|redis|postgres)"))
		}
	}

	if v, ok := lookup(envLogLevel); ok && strings.TrimSpace(v) != "" {
		if level, err := log.ParseLevel(strings.TrimSpace(v)); err != nil {
			warn(envLogLevel, v, err)
		} else {
			cfg.LogLevel = level.String()
		}
	}

	boolVar := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	intVar := func(key string, dst *int, valid func(int) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseInt(v, valid, rule)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	durationVar := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}

	positive := func(v int) bool { return v > 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }

	boolVar(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	boolVar(envSeedOnStart, &cfg.SeedOnStart)
	intVar(envRedisDB, &cfg.RedisDB, func(v int) bool { return v >= 0 }, "must be >= 0")
	intVar(envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0")
	intVar(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0")
	durationVar(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	durationVar(envOutboxRetryDelay, &cfg.OutboxRetryDelay, func(v time.Duration) bool { return v >= 0 }, "must be >= 0")
	durationVar(envReconcileInterval, &cfg.ReconcileInterval, positiveDuration, "must be > 0")

	return cfg, warnings
}

// Brokers разбирает KafkaBrokers, отбрасывая пустые элементы.
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, fmt.Errorf("%d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, fmt.Errorf("%s %s", value, rule)
	}
	return value, nil
}
