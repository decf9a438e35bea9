package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

type Store struct {
	Backend string
	Seed    bool // демо-клиенты при пустом хранилище

	RedisAddr     string
	RedisUser     string
	RedisPassword string

	MongoURI      string
	MongoDatabase string
	MongoTx       bool // транзакции Mongo (нужен replica set)

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
}

// Задания работают рядом с сервером и должны видеть те же данные
func (s Store) RequireShared() error {
	if s.Backend == BackendMemory {
		return fmt.Errorf("env STAMPS_STORE is not set: %s storage is private to the process, use %s, %s or %s", BackendMemory, BackendRedis, BackendMongo, BackendPostgres)
	}
	return nil
}

func (s Store) PostgresDSN() string {
	return "postgres://" + s.PostgresUser + ":" + s.PostgresPassword + "@" + s.PostgresHost + ":" + s.PostgresPort + "/" + s.PostgresDatabase
}

type Kafka struct {
	Brokers     []string
	ScansTopic  string
	LedgerTopic string
	GroupID     string
}

type Rabbit struct {
	URL      string
	Port     string
	User     string
	Password string
	VHost    string
	Prefetch int // сообщений в работе на консьюмера
}

func (r Rabbit) DSN() string {
	return "amqp://" + r.User + ":" + r.Password + "@" + r.URL + ":" + r.Port + "/" + r.VHost
}

func (r Rabbit) Enabled() bool {
	return r.URL != ""
}

type Config struct {
	Port         string
	Location     string // точка продаж по умолчанию для транзакций
	Workers      int
	OTelEndpoint string
	Store        Store
	Kafka        Kafka
	Rabbit       Rabbit
	Log          struct {
		Level  string
		Format string
	}
}

// Загрузка конфигурации из окружения
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Port = getEnv("STAMPS_PORT", "8080")
	cfg.Location = getEnv("STAMPS_LOCATION", "Main Store")
	cfg.OTelEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Workers = 5
	if v := os.Getenv("STAMPS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("env STAMPS_WORKERS is not a positive number: %q", v)
		}
		cfg.Workers = n
	}

	// storage
	cfg.Store.Backend = strings.ToLower(getEnv("STAMPS_STORE", BackendMemory))
	cfg.Store.Seed = getEnv("STAMPS_SEED", "false") == "true"
	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		cfg.Store.RedisAddr = os.Getenv("STAMPS_REDIS_URL")
		if cfg.Store.RedisAddr == "" {
			return nil, fmt.Errorf("env STAMPS_REDIS_URL is not set")
		}
		cfg.Store.RedisUser = os.Getenv("STAMPS_REDIS_USER")
		cfg.Store.RedisPassword = os.Getenv("STAMPS_REDIS_PWD")
	case BackendMongo:
		mng := os.Getenv("STAMPS_MONGO")
		if mng == "" {
			return nil, fmt.Errorf("env STAMPS_MONGO is not set")
		}
		cfg.Store.MongoURI = "mongodb://" + mng
		cfg.Store.MongoDatabase = getEnv("STAMPS_MONGO_DB", "stampsDB")
		cfg.Store.MongoTx = getEnv("STAMPS_MONGO_TX", "false") == "true"
	case BackendPostgres:
		for _, v := range []struct {
			env string
			dst *string
		}{
			{"STAMPS_DB", &cfg.Store.PostgresHost},
			{"STAMPS_DB_PORT", &cfg.Store.PostgresPort},
			{"STAMPS_DB_USER", &cfg.Store.PostgresUser},
			{"STAMPS_DB_PASSWORD", &cfg.Store.PostgresPassword},
			{"STAMPS_DB_BASE", &cfg.Store.PostgresDatabase},
		} {
			*v.dst = os.Getenv(v.env)
			if *v.dst == "" {
				return nil, fmt.Errorf("env %s is not set", v.env)
			}
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Store.Backend)
	}

	// kafka
	if url := os.Getenv("KAFKA_SCANS_URL"); url != "" {
		port := getEnv("KAFKA_SCANS_PORT", "9092")
		cfg.Kafka.Brokers = []string{url + ":" + port}
	}
	cfg.Kafka.ScansTopic = getEnv("KAFKA_SCANS_TOPIC", "scans")
	cfg.Kafka.LedgerTopic = os.Getenv("KAFKA_LEDGER_TOPIC")
	cfg.Kafka.GroupID = getEnv("KAFKA_SCANS_GROUP", "stamps_scanners")

	// rabbitmq
	cfg.Rabbit.URL = os.Getenv("RABBIT_URL")
	cfg.Rabbit.Port = getEnv("RABBIT_PORT", "5672")
	cfg.Rabbit.User = getEnv("RABBIT_USER", "guest")
	cfg.Rabbit.Password = getEnv("RABBIT_PASSWORD", "guest")
	cfg.Rabbit.VHost = getEnv("RABBIT_VHOST", "stamps")
	cfg.Rabbit.Prefetch = cfg.Workers

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
