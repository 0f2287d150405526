package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/customer-engagement/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository хранит клиентов JSONB-документами в PostgreSQL.
// Столбцы customer_id и email дублируют поля документа ради уникальных индексов.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateCustomer вставляет нового клиента; занятый email даёт ErrCustomerExists.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	return insertCustomer(ctx, r.pool, c)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertCustomer(ctx context.Context, db execer, c *model.Customer) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO customers (customer_id, email, doc) VALUES ($1, $2, $3::jsonb)`,
		c.CustomerID, c.Email, string(doc),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrCustomerExists, c.Email)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// InsertCustomers вставляет набор клиентов в одной транзакции.
func (r *PostgresRepository) InsertCustomers(ctx context.Context, customers []model.Customer) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range customers {
		if err := insertCustomer(ctx, tx, &customers[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return len(customers), nil
}

// GetCustomerByID возвращает клиента по идентификатору.
func (r *PostgresRepository) GetCustomerByID(ctx context.Context, customerID string) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT doc FROM customers WHERE customer_id = $1`,
		customerID,
	)
	return scanCustomer(row, "get customer")
}

// TouchLastLogin записывает дату последнего входа и возвращает обновлённый документ.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, email, date string) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE customers
		 SET doc = jsonb_set(doc, '{app_usage,last_login}', to_jsonb($2::text), true)
		 WHERE email = $1
		 RETURNING doc`,
		email, date,
	)
	return scanCustomer(row, "update last login")
}

func scanCustomer(row pgx.Row, op string) (*model.Customer, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var c model.Customer
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("%s: decode document: %w", op, err)
	}
	return &c, nil
}

// ListCustomers возвращает всех клиентов в порядке вставки.
func (r *PostgresRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return r.query(ctx, `SELECT doc FROM customers ORDER BY id`)
}

// ListFlaggedCustomers возвращает клиентов с низкой удовлетворённостью
// или давним последним входом. Даты сравниваются как строки ГГГГ-ММ-ДД.
func (r *PostgresRepository) ListFlaggedCustomers(ctx context.Context, scoreBelow float64, loginBefore string) ([]model.Customer, error) {
	return r.query(ctx,
		`SELECT doc FROM customers
		 WHERE (doc->>'satisfaction_score')::numeric < $1
		    OR doc->'app_usage'->>'last_login' < $2
		 ORDER BY id`,
		scoreBelow, loginBefore,
	)
}

// ListChurnedCustomers возвращает ушедших клиентов.
func (r *PostgresRepository) ListChurnedCustomers(ctx context.Context) ([]model.Customer, error) {
	return r.query(ctx,
		`SELECT doc FROM customers WHERE (doc->>'churned')::boolean IS TRUE ORDER BY id`,
	)
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}

		var c model.Customer
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("decode customer: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return customers, nil
}

// AppendOrder добавляет заказ в конец истории заказов клиента.
func (r *PostgresRepository) AppendOrder(ctx context.Context, customerID string, o model.Order) error {
	return r.push(ctx, customerID, "order_history", o)
}

// AppendFeedback добавляет отзыв в конец истории отзывов клиента.
func (r *PostgresRepository) AppendFeedback(ctx context.Context, customerID string, f model.Feedback) error {
	return r.push(ctx, customerID, "feedback_history", f)
}

// push дописывает элемент в массив документа одним UPDATE.
// field берётся только из констант пакета.
func (r *PostgresRepository) push(ctx context.Context, customerID, field string, value any) error {
	item, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s item: %w", field, err)
	}

	sql := fmt.Sprintf(
		`UPDATE customers
		 SET doc = jsonb_set(doc, '{%[1]s}',
		     COALESCE(NULLIF(doc->'%[1]s', 'null'::jsonb), '[]'::jsonb) || jsonb_build_array($2::jsonb), true)
		 WHERE customer_id = $1`,
		field,
	)

	cmdTag, err := r.pool.Exec(ctx, sql, customerID, string(item))
	if err != nil {
		return fmt.Errorf("push %s: %w", field, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// RateOrder выставляет оценку первому заказу клиента, подходящему под match.
func (r *PostgresRepository) RateOrder(ctx context.Context, customerID string, match OrderMatch, rating *float64) error {
	value, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE customers c
		 SET doc = jsonb_set(c.doc, ARRAY['order_history', (m.idx - 1)::text, 'rating'], $4::jsonb, true)
		 FROM (
		     SELECT o.idx
		     FROM customers, jsonb_array_elements(doc->'order_history') WITH ORDINALITY AS o(elem, idx)
		     WHERE customer_id = $1 AND o.elem->>$2 = $3
		     ORDER BY o.idx
		     LIMIT 1
		 ) m
		 WHERE c.customer_id = $1`,
		customerID, match.Field, match.Value, string(value),
	)
	if err != nil {
		return fmt.Errorf("rate order: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListPurchases возвращает списки покупок всех клиентов в порядке вставки.
func (r *PostgresRepository) ListPurchases(ctx context.Context) ([][]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT COALESCE(doc->'purchases', '[]'::jsonb) FROM customers ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	var res [][]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan purchases: %w", err)
		}

		var purchases []string
		if err := json.Unmarshal(raw, &purchases); err != nil {
			return nil, fmt.Errorf("decode purchases: %w", err)
		}
		res = append(res, purchases)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
