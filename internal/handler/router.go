package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	custommiddleware "github.com/mmeshcher/customer-engagement/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/", h.Home)

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)

	r.Get("/customers", h.GetCustomers)
	r.Get("/customers/{customerID}", h.GetCustomer)
	r.Get("/flagged-customers", h.FlaggedCustomers)
	r.Get("/churned-customers", h.ChurnedCustomers)

	r.Post("/analyze-sentiment", h.AnalyzeSentiment)
	r.Get("/products-in-demand", h.ProductsInDemand)
	r.Get("/recommendations/{category}", h.Recommendations)
	r.Get("/default-products", h.DefaultProducts)

	r.Post("/purchase", h.Purchase)
	r.Post("/rate-order", h.RateOrder)

	r.Group(func(r chi.Router) {
		r.Use(h.session.Middleware)
		r.Get("/me", h.Me)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
