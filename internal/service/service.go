// Package service реализует бизнес-логику сервиса клиентской вовлечённости.
package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/customer-engagement/internal/events"
	"github.com/mmeshcher/customer-engagement/internal/model"
	"github.com/mmeshcher/customer-engagement/internal/repository"
	"github.com/mmeshcher/customer-engagement/internal/validation"
)

const (
	// flaggedScoreBelow — порог удовлетворённости, ниже которого клиент считается в зоне риска.
	flaggedScoreBelow = 3
	demandTopN        = 10
	publishTimeout    = 2 * time.Second
)

// Repository описывает контракт документного хранилища, используемый сервисом.
// Каждый метод — одна атомарная операция над хранилищем.
type Repository interface {
	Close() error
	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomerByID(ctx context.Context, customerID string) (*model.Customer, error)
	TouchLastLogin(ctx context.Context, email, date string) (*model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListFlaggedCustomers(ctx context.Context, scoreBelow float64, loginBefore string) ([]model.Customer, error)
	ListChurnedCustomers(ctx context.Context) ([]model.Customer, error)
	AppendOrder(ctx context.Context, customerID string, o model.Order) error
	RateOrder(ctx context.Context, customerID string, match repository.OrderMatch, rating *float64) error
	AppendFeedback(ctx context.Context, customerID string, f model.Feedback) error
	ListPurchases(ctx context.Context) ([][]string, error)
}

// Classifier определяет тональность текста.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Mood, error)
}

// Publisher публикует события вовлечённости.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
	Close() error
}

// Service содержит бизнес-логику работы с клиентами.
type Service struct {
	repo       Repository
	classifier Classifier
	publisher  Publisher
	logger     *zap.Logger
	flagCutoff string

	now   func() time.Time
	newID func() string
}

// NewService создаёт сервис. flagCutoff — дата ГГГГ-ММ-ДД, вход раньше которой
// помечает клиента как требующего внимания. Пустые publisher и logger заменяются заглушками.
func NewService(repo Repository, classifier Classifier, publisher Publisher, flagCutoff string, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:       repo,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		flagCutoff: flagCutoff,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}

// CreateCustomer регистрирует нового клиента со значениями по умолчанию.
// Уникальность email проверяется хранилищем в момент вставки.
func (s *Service) CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error) {
	if name == "" || email == "" {
		return nil, ErrNameEmailRequired
	}

	score := float64(model.DefaultSatisfactionScore)
	c := &model.Customer{
		CustomerID:        s.newID(),
		Name:              name,
		Email:             email,
		SatisfactionScore: &score,
		OrderHistory:      []model.Order{},
		FeedbackHistory:   []model.Feedback{},
		Purchases:         []string{},
		Churned:           false,
		AppUsage:          model.AppUsage{},
	}

	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, repository.ErrCustomerExists) {
			return nil, ErrUserExists
		}
		return nil, s.internal("create customer", err)
	}

	s.publish(ctx, events.CustomerSignedUp, c.CustomerID, nil)
	return c, nil
}

// Authenticate находит клиента по email и записывает дату входа.
// Пароль не проверяется.
func (s *Service) Authenticate(ctx context.Context, email string) (*model.Customer, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}

	c, err := s.repo.TouchLastLogin(ctx, email, s.now().Format(model.DateLayout))
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("touch last login", err)
	}

	c.Normalize()
	s.publish(ctx, events.CustomerLoggedIn, c.CustomerID, nil)
	return c, nil
}

// GetAll возвращает проекции всех клиентов.
func (s *Service) GetAll(ctx context.Context) ([]model.CustomerSummary, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, s.internal("list customers", err)
	}

	res := make([]model.CustomerSummary, 0, len(customers))
	for _, c := range customers {
		res = append(res, c.Summary())
	}
	return res, nil
}

// GetByID возвращает проекцию клиента по идентификатору.
func (s *Service) GetByID(ctx context.Context, customerID string) (*model.CustomerSummary, error) {
	c, err := s.repo.GetCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("get customer", err)
	}

	summary := c.Summary()
	return &summary, nil
}

// ListFlagged возвращает клиентов с удовлетворённостью ниже 3
// или последним входом раньше даты отсечения.
func (s *Service) ListFlagged(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.repo.ListFlaggedCustomers(ctx, flaggedScoreBelow, s.flagCutoff)
	if err != nil {
		return nil, s.internal("list flagged customers", err)
	}
	return normalizeAll(customers), nil
}

// ListChurned возвращает ушедших клиентов.
func (s *Service) ListChurned(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.repo.ListChurnedCustomers(ctx)
	if err != nil {
		return nil, s.internal("list churned customers", err)
	}
	return normalizeAll(customers), nil
}

func normalizeAll(customers []model.Customer) []model.Customer {
	for i := range customers {
		customers[i].Normalize()
	}
	return customers
}

// RecordPurchase добавляет клиенту заказ без оценки.
// Нулевая цена считается отсутствующей.
func (s *Service) RecordPurchase(ctx context.Context, p model.Purchase) error {
	if !validation.IsValidCategory(p.Category) {
		return ErrInvalidCategory
	}
	if p.CustomerID == "" || p.ProductName == "" || p.Price == 0 {
		return ErrMissingFields
	}

	order := model.Order{
		OrderID:     s.newID(),
		ProductName: p.ProductName,
		Category:    p.Category,
		Price:       p.Price,
		Rating:      nil,
	}

	if err := s.repo.AppendOrder(ctx, p.CustomerID, order); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return ErrCustomerNotFound
		}
		return s.internal("append order", err)
	}

	s.publish(ctx, events.OrderPlaced, p.CustomerID, order)
	return nil
}

// RateOrder выставляет оценку заказу клиента. Диапазон оценки не проверяется.
// Без OrderID оценивается первый заказ с указанным названием товара.
func (s *Service) RateOrder(ctx context.Context, u model.RatingUpdate) error {
	match := repository.MatchOrder(u.OrderID, u.ProductName)

	if err := s.repo.RateOrder(ctx, u.CustomerID, match, u.Rating); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrCustomerNotFound) {
			return ErrRatingNotUpdated
		}
		return s.internal("rate order", err)
	}

	s.publish(ctx, events.OrderRated, u.CustomerID, map[string]any{
		match.Field: match.Value,
		"rating":    u.Rating,
	})
	return nil
}

// SubmitFeedback классифицирует отзыв и сохраняет его в историю клиента.
// Результат возвращается только если отзыв сохранён.
func (s *Service) SubmitFeedback(ctx context.Context, customerID, text string) (*model.Mood, error) {
	if text == "" || customerID == "" {
		return nil, ErrMissingFeedback
	}

	mood, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return nil, s.internal("classify feedback", err)
	}

	fb := model.Feedback{
		Text:      text,
		Mood:      mood,
		Timestamp: s.now().Format(model.TimestampLayout),
	}

	if err := s.repo.AppendFeedback(ctx, customerID, fb); err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("append feedback", err)
	}

	s.publish(ctx, events.FeedbackSubmitted, customerID, fb)
	return &mood, nil
}

// ProductDemand возвращает до 10 самых частых товаров из списков покупок.
// При равенстве раньше идёт товар, встреченный первым.
func (s *Service) ProductDemand(ctx context.Context) ([]model.ProductCount, error) {
	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return nil, s.internal("list purchases", err)
	}
	return mostCommon(purchases, demandTopN), nil
}

func mostCommon(lists [][]string, n int) []model.ProductCount {
	index := make(map[string]int)
	counts := []model.ProductCount{}

	for _, list := range lists {
		for _, name := range list {
			i, ok := index[name]
			if !ok {
				i = len(counts)
				index[name] = i
				counts = append(counts, model.ProductCount{Name: name})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("service operation failed", zap.String("op", op), zap.Error(err))
	return ErrInternal
}

// publish отправляет событие; ошибка публикации только логируется.
func (s *Service) publish(ctx context.Context, t events.Type, customerID string, payload any) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		CustomerID: customerID,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		s.logger.Warn("publish event failed",
			zap.String("type", string(t)),
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
	}
}
