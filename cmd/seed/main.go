// Package main загружает тестовых клиентов из JSON-файла в хранилище.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/customer-engagement/internal/config"
	"github.com/mmeshcher/customer-engagement/internal/model"
	"github.com/mmeshcher/customer-engagement/internal/repository"
)

type bulkInserter interface {
	InsertCustomers(ctx context.Context, customers []model.Customer) (int, error)
	Close() error
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	var file string
	flag.StringVar(&file, "f", "customers.json", "path to mock customers JSON file")

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	f, err := os.Open(file)
	if err != nil {
		sugar.Fatalw("open seed file", "file", file, "error", err.Error())
	}
	defer f.Close()

	repo, err := openRepository(cfg)
	if err != nil {
		sugar.Fatalw("store initialization error", "driver", cfg.StoreDriver, "error", err.Error())
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := run(ctx, f, repo, uuid.NewString)
	if err != nil {
		sugar.Fatalw("seed failed", "file", file, "error", err.Error())
	}

	sugar.Infow("seed completed", "inserted", n, "file", file)
}

func openRepository(cfg *config.Config) (bulkInserter, error) {
	if cfg.StoreDriver == config.StorePostgres {
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	}
	return repository.NewMongoRepository(cfg.MongoURI, cfg.MongoDatabase)
}

// run читает клиентов из r и вставляет их одной пачкой.
func run(ctx context.Context, r io.Reader, repo bulkInserter, newID func() string) (int, error) {
	customers, err := readCustomers(r, newID)
	if err != nil {
		return 0, err
	}

	n, err := repo.InsertCustomers(ctx, customers)
	if err != nil {
		return n, fmt.Errorf("insert customers: %w", err)
	}
	return n, nil
}

// readCustomers разбирает массив клиентов и заполняет значения по умолчанию
// для отсутствующих полей.
func readCustomers(r io.Reader, newID func() string) ([]model.Customer, error) {
	var customers []model.Customer
	if err := json.NewDecoder(r).Decode(&customers); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}

	for i := range customers {
		c := &customers[i]
		if c.Email == "" {
			return nil, fmt.Errorf("customer #%d: email is required", i)
		}
		if c.CustomerID == "" {
			c.CustomerID = newID()
		}
		if c.SatisfactionScore == nil {
			score := float64(model.DefaultSatisfactionScore)
			c.SatisfactionScore = &score
		}
		c.Normalize()
	}

	return customers, nil
}
