// Package handler содержит HTTP-обработчики API сервиса клиентской вовлечённости.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/customer-engagement/internal/catalog"
	"github.com/mmeshcher/customer-engagement/internal/middleware"
	"github.com/mmeshcher/customer-engagement/internal/model"
	"github.com/mmeshcher/customer-engagement/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error)
	Authenticate(ctx context.Context, email string) (*model.Customer, error)
	GetAll(ctx context.Context) ([]model.CustomerSummary, error)
	GetByID(ctx context.Context, customerID string) (*model.CustomerSummary, error)
	ListFlagged(ctx context.Context) ([]model.Customer, error)
	ListChurned(ctx context.Context) ([]model.Customer, error)
	RecordPurchase(ctx context.Context, p model.Purchase) error
	RateOrder(ctx context.Context, u model.RatingUpdate) error
	SubmitFeedback(ctx context.Context, customerID, text string) (*model.Mood, error)
	ProductDemand(ctx context.Context) ([]model.ProductCount, error)
}

// Options задаёт поведение обработчиков, не зависящее от бизнес-логики.
type Options struct {
	// AllowedOrigins — источники, которым CORS разрешает запросы.
	AllowedOrigins []string
	// LegacyErrorStatus отдаёт доменные ошибки со статусом 200, как исходный API.
	LegacyErrorStatus bool
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	service Service
	logger  *zap.Logger
	session *middleware.Session
	opts    Options
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, session *middleware.Session, opts Options) *Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handler{
		service: s,
		logger:  logger,
		session: session,
		opts:    opts,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError отдаёт {"error": message}. Статус выбирается по виду ошибки сервиса.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := service.ErrInternal.Message

	var se *service.Error
	if errors.As(err, &se) {
		message = se.Message
		switch se.Kind {
		case service.KindValidation:
			status = http.StatusBadRequest
		case service.KindConflict:
			status = http.StatusConflict
		case service.KindNotFound:
			status = http.StatusNotFound
		}
	} else {
		h.logger.Error("unexpected service error", zap.Error(err))
	}

	if h.opts.LegacyErrorStatus {
		status = http.StatusOK
	}

	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		status := http.StatusBadRequest
		if h.opts.LegacyErrorStatus {
			status = http.StatusOK
		}
		h.writeJSON(w, status, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

// Home отвечает приветствием; используется как проверка доступности.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Hello from the customer engagement API!"})
}

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Signup регистрирует нового клиента и открывает сессию.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.CreateCustomer(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.session.SetCookie(w, c.CustomerID)
	h.writeJSON(w, http.StatusOK, c)
}

type loginRequest struct {
	Email string `json:"email"`
}

// Login выполняет вход по email и открывает сессию.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.Authenticate(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.session.SetCookie(w, c.CustomerID)
	h.writeJSON(w, http.StatusOK, c)
}

// GetCustomers возвращает проекции всех клиентов.
func (h *Handler) GetCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// GetCustomer возвращает проекцию клиента по идентификатору из пути.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	h.customerSummary(w, r, chi.URLParam(r, "customerID"))
}

// Me возвращает проекцию клиента текущей сессии.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.CustomerIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	h.customerSummary(w, r, customerID)
}

func (h *Handler) customerSummary(w http.ResponseWriter, r *http.Request, customerID string) {
	c, err := h.service.GetByID(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// FlaggedCustomers возвращает клиентов, требующих внимания.
func (h *Handler) FlaggedCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListFlagged(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

// ChurnedCustomers возвращает ушедших клиентов.
func (h *Handler) ChurnedCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListChurned(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

type sentimentRequest struct {
	Text       string `json:"text"`
	CustomerID string `json:"customer_id"`
}

type sentimentResponse struct {
	Sentiment model.Mood `json:"sentiment"`
}

// AnalyzeSentiment классифицирует отзыв клиента и сохраняет его.
func (h *Handler) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if !h.decode(w, r, &req) {
		return
	}

	mood, err := h.service.SubmitFeedback(r.Context(), req.CustomerID, req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sentimentResponse{Sentiment: *mood})
}

// ProductsInDemand возвращает до 10 самых покупаемых товаров парами [name, count].
func (h *Handler) ProductsInDemand(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ProductDemand(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// Recommendations возвращает товары каталога для категории из пути.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, catalog.Recommendations(chi.URLParam(r, "category")))
}

// DefaultProducts возвращает список товаров по умолчанию.
func (h *Handler) DefaultProducts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, catalog.DefaultProducts())
}

type purchaseRequest struct {
	CustomerID  string `json:"customer_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Price       price  `json:"price"`
}

// price принимает цену числом или строкой с числом.
// Пустая строка и null дают ноль, то есть отсутствующую цену.
type price float64

func (p *price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("price: %w", err)
		}

		str = strings.TrimSpace(str)
		if str == "" {
			*p = 0
			return nil
		}

		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = price(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = price(v)
	return nil
}

// Purchase записывает покупку клиента.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.RecordPurchase(r.Context(), model.Purchase{
		CustomerID:  req.CustomerID,
		ProductName: req.ProductName,
		Category:    req.Category,
		Price:       float64(req.Price),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Purchase added"})
}

type rateOrderRequest struct {
	CustomerID  string   `json:"customer_id"`
	ProductName string   `json:"product_name"`
	OrderID     string   `json:"order_id"`
	Rating      *float64 `json:"rating"`
}

// RateOrder выставляет оценку заказу клиента.
func (h *Handler) RateOrder(w http.ResponseWriter, r *http.Request) {
	var req rateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.RateOrder(r.Context(), model.RatingUpdate{
		CustomerID:  req.CustomerID,
		ProductName: req.ProductName,
		OrderID:     req.OrderID,
		Rating:      req.Rating,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "Rating updated"})
}
