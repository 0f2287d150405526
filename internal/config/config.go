// Package config содержит логику чтения конфигурации сервиса клиентской вовлечённости.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// StoreMongo выбирает хранилище MongoDB.
	StoreMongo = "mongo"
	// StorePostgres выбирает хранилище PostgreSQL с JSONB-документами.
	StorePostgres = "postgres"

	// SentimentHuggingFace выбирает HTTP-сервис инференса в формате Hugging Face.
	SentimentHuggingFace = "huggingface"
	// SentimentOpenAI выбирает классификацию через OpenAI Chat Completions.
	SentimentOpenAI = "openai"

	envProduction = "production"
	localMongoURI = "mongodb://localhost:27017/"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	StoreDriver string `env:"STORE_DRIVER"`
	DatabaseURI string `env:"DATABASE_URI"`

	AppEnv        string `env:"APP_ENV" envDefault:"local"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"walmart_ai"`

	SentimentProvider string `env:"SENTIMENT_PROVIDER" envDefault:"huggingface"`
	SentimentURL      string `env:"SENTIMENT_URL" envDefault:"https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"`
	SentimentAPIToken string `env:"SENTIMENT_API_TOKEN"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIModel       string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"customer-engagement"`

	SessionSecret      string   `env:"SESSION_SECRET"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	FlagCutoffDate     string   `env:"FLAG_CUTOFF_DATE" envDefault:"2025-06-15"`
	LegacyErrorStatus  bool     `env:"LEGACY_ERROR_STATUS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envStoreDriver := cfg.StoreDriver
	envDatabaseURI := cfg.DatabaseURI

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8000", "address and port for HTTP server")
	flag.StringVar(&cfg.StoreDriver, "s", StoreMongo, "document store driver: mongo or postgres")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "postgres database URI")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envStoreDriver != "" {
		cfg.StoreDriver = envStoreDriver
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8000"
	}
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = StoreMongo
	}

	if cfg.AppEnv != envProduction && cfg.MongoURI == "" {
		cfg.MongoURI = localMongoURI
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required in production")
		}
	case StorePostgres:
		if c.DatabaseURI == "" {
			return errors.New("database URI is required for postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	switch c.SentimentProvider {
	case SentimentHuggingFace:
		if c.SentimentURL == "" {
			return errors.New("SENTIMENT_URL is required")
		}
	case SentimentOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for openai sentiment provider")
		}
	default:
		return fmt.Errorf("unknown sentiment provider %q", c.SentimentProvider)
	}

	if _, err := time.Parse(time.DateOnly, c.FlagCutoffDate); err != nil {
		return fmt.Errorf("parse FLAG_CUTOFF_DATE: %w", err)
	}

	return nil
}

// IsProduction сообщает, запущен ли сервис в окружении production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == envProduction
}
