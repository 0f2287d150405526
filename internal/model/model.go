// Package model содержит доменные сущности сервиса клиентской вовлечённости.
package model

import "encoding/json"

// DateLayout задаёт формат дат, хранящихся в профиле клиента (last_login).
const DateLayout = "2006-01-02"

// TimestampLayout задаёт формат времени отзыва: локальное время с микросекундами.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DefaultSatisfactionScore присваивается новому клиенту при регистрации.
const DefaultSatisfactionScore = 5

// Customer описывает клиента и всю его историю, хранящуюся одним документом.
type Customer struct {
	CustomerID        string     `json:"customer_id" bson:"customer_id"`
	Name              string     `json:"name" bson:"name"`
	Email             string     `json:"email" bson:"email"`
	SatisfactionScore *float64   `json:"satisfaction_score,omitempty" bson:"satisfaction_score,omitempty"`
	OrderHistory      []Order    `json:"order_history" bson:"order_history"`
	FeedbackHistory   []Feedback `json:"feedback_history" bson:"feedback_history"`
	Purchases         []string   `json:"purchases" bson:"purchases"`
	Churned           bool       `json:"churned" bson:"churned"`
	AppUsage          AppUsage   `json:"app_usage" bson:"app_usage"`
}

// AppUsage хранит сведения об использовании приложения клиентом.
type AppUsage struct {
	// LastLogin — дата последнего входа в формате DateLayout, nil если входов не было.
	LastLogin   *string `json:"last_login" bson:"last_login"`
	TotalVisits int     `json:"total_visits" bson:"total_visits"`
}

// Order описывает покупку; поля товара копируются из каталога в момент покупки.
type Order struct {
	OrderID     string   `json:"order_id,omitempty" bson:"order_id,omitempty"`
	ProductName string   `json:"product_name" bson:"product_name"`
	Category    string   `json:"category" bson:"category"`
	Price       float64  `json:"price" bson:"price"`
	Rating      *float64 `json:"rating" bson:"rating"`
}

// Mood — результат классификации тональности текста.
type Mood struct {
	Label string  `json:"label" bson:"label"`
	Score float64 `json:"score" bson:"score"`
}

// Feedback описывает отзыв клиента вместе с его тональностью.
// Timestamp хранится строкой в формате TimestampLayout без часового пояса.
type Feedback struct {
	Text      string `json:"text" bson:"text"`
	Mood      Mood   `json:"mood" bson:"mood"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// CustomerSummary — проекция клиента, отдаваемая списком и по идентификатору.
type CustomerSummary struct {
	CustomerID        string     `json:"customer_id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	SatisfactionScore float64    `json:"satisfaction_score"`
	OrderHistory      []Order    `json:"order_history"`
	FeedbackHistory   []Feedback `json:"feedback_history"`
}

// Summary строит проекцию клиента. Отсутствующий email заменяется на "N/A",
// отсутствующая оценка удовлетворённости на DefaultSatisfactionScore.
func (c Customer) Summary() CustomerSummary {
	email := c.Email
	if email == "" {
		email = "N/A"
	}

	orders := c.OrderHistory
	if orders == nil {
		orders = []Order{}
	}
	feedback := c.FeedbackHistory
	if feedback == nil {
		feedback = []Feedback{}
	}
	score := float64(DefaultSatisfactionScore)
	if c.SatisfactionScore != nil {
		score = *c.SatisfactionScore
	}

	return CustomerSummary{
		CustomerID:        c.CustomerID,
		Name:              c.Name,
		Email:             email,
		SatisfactionScore: score,
		OrderHistory:      orders,
		FeedbackHistory:   feedback,
	}
}

// Normalize заменяет отсутствующие коллекции пустыми, чтобы JSON не содержал null.
func (c *Customer) Normalize() {
	if c.OrderHistory == nil {
		c.OrderHistory = []Order{}
	}
	if c.FeedbackHistory == nil {
		c.FeedbackHistory = []Feedback{}
	}
	if c.Purchases == nil {
		c.Purchases = []string{}
	}
}

// Purchase содержит данные запроса на запись покупки.
type Purchase struct {
	CustomerID  string
	ProductName string
	Category    string
	Price       float64
}

// RatingUpdate содержит данные запроса на оценку заказа.
// Если OrderID задан, заказ ищется по нему, иначе по ProductName.
type RatingUpdate struct {
	CustomerID  string
	ProductName string
	OrderID     string
	Rating      *float64
}

// ProductCount — товар и число его покупок.
type ProductCount struct {
	Name  string
	Count int
}

// MarshalJSON кодирует пару в виде массива [name, count].
func (p ProductCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Name, p.Count})
}

// CatalogItem — товар каталога рекомендаций.
type CatalogItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DefaultProduct — товар из списка товаров по умолчанию.
type DefaultProduct struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}
