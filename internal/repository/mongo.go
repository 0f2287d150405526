package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mmeshcher/customer-engagement/internal/model"
)

// MongoRepository хранит клиентов документами коллекции customers в MongoDB.
type MongoRepository struct {
	client    *mongo.Client
	customers *mongo.Collection
}

// NewMongoRepository подключается к MongoDB и создаёт уникальные индексы
// по customer_id и email.
func NewMongoRepository(uri, database string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	r := &MongoRepository{
		client:    client,
		customers: client.Database(database).Collection(customersCollection),
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return r, nil
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.customers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("customer_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Close закрывает соединение с MongoDB.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// CreateCustomer вставляет нового клиента. Уникальность email обеспечивает индекс,
// поэтому проверка и вставка выполняются одной операцией.
func (r *MongoRepository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	if _, err := r.customers.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrCustomerExists, c.Email)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// InsertCustomers вставляет набор клиентов и возвращает число вставленных документов.
func (r *MongoRepository) InsertCustomers(ctx context.Context, customers []model.Customer) (int, error) {
	if len(customers) == 0 {
		return 0, nil
	}

	docs := make([]any, 0, len(customers))
	for i := range customers {
		docs = append(docs, customers[i])
	}

	res, err := r.customers.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert customers: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// GetCustomerByID возвращает клиента по идентификатору.
func (r *MongoRepository) GetCustomerByID(ctx context.Context, customerID string) (*model.Customer, error) {
	var c model.Customer
	err := r.customers.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

// TouchLastLogin записывает дату последнего входа и возвращает обновлённый документ.
func (r *MongoRepository) TouchLastLogin(ctx context.Context, email, date string) (*model.Customer, error) {
	var c model.Customer
	err := r.customers.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"app_usage.last_login": date}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update last login: %w", err)
	}
	return &c, nil
}

// ListCustomers возвращает всех клиентов в порядке вставки.
func (r *MongoRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return r.find(ctx, bson.M{})
}

// ListFlaggedCustomers возвращает клиентов с низкой удовлетворённостью
// или давним последним входом.
func (r *MongoRepository) ListFlaggedCustomers(ctx context.Context, scoreBelow float64, loginBefore string) ([]model.Customer, error) {
	return r.find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"satisfaction_score": bson.M{"$lt": scoreBelow}},
			bson.M{"app_usage.last_login": bson.M{"$lt": loginBefore}},
		},
	})
}

// ListChurnedCustomers возвращает ушедших клиентов.
func (r *MongoRepository) ListChurnedCustomers(ctx context.Context) ([]model.Customer, error) {
	return r.find(ctx, bson.M{"churned": true})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]model.Customer, error) {
	cur, err := r.customers.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}

	customers := []model.Customer{}
	if err := cur.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}
	return customers, nil
}

// AppendOrder добавляет заказ в конец истории заказов клиента.
func (r *MongoRepository) AppendOrder(ctx context.Context, customerID string, o model.Order) error {
	return r.push(ctx, customerID, "order_history", o)
}

// AppendFeedback добавляет отзыв в конец истории отзывов клиента.
func (r *MongoRepository) AppendFeedback(ctx context.Context, customerID string, f model.Feedback) error {
	return r.push(ctx, customerID, "feedback_history", f)
}

func (r *MongoRepository) push(ctx context.Context, customerID, field string, value any) error {
	res, err := r.customers.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{"$push": bson.M{field: value}},
	)
	if err != nil {
		return fmt.Errorf("push %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// RateOrder выставляет оценку первому заказу клиента, подходящему под match.
func (r *MongoRepository) RateOrder(ctx context.Context, customerID string, match OrderMatch, rating *float64) error {
	filter := bson.M{"customer_id": customerID}
	filter["order_history."+match.Field] = match.Value

	res, err := r.customers.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{"order_history.$.rating": rating}},
	)
	if err != nil {
		return fmt.Errorf("rate order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListPurchases возвращает списки покупок всех клиентов в порядке вставки.
func (r *MongoRepository) ListPurchases(ctx context.Context) ([][]string, error) {
	cur, err := r.customers.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"purchases": 1, "_id": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("find purchases: %w", err)
	}
	defer cur.Close(ctx)

	var res [][]string
	for cur.Next(ctx) {
		var doc struct {
			Purchases []string `bson:"purchases"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode purchases: %w", err)
		}
		res = append(res, doc.Purchases)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return res, nil
}
