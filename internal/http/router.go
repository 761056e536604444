package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the API surface. Every route below /api/v1 requires the
// gateway-forwarded identity headers.
func NewRouter(
	cartHandler *CartHandler,
	checkoutHandler *CheckoutHandler,
	accountHandler *AccountHandler,
	requestTimeout time.Duration) chi.Router {

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			r.Post("/reorder", cartHandler.Reorder)
		})

		r.Get("/carts/abandoned", cartHandler.ListAbandoned)

		r.Post("/checkout", checkoutHandler.InitiateCheckout)

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", accountHandler.ListAddresses)
			r.Post("/", accountHandler.CreateAddress)
			r.Put("/{address_id}", accountHandler.UpdateAddress)
			r.Delete("/{address_id}", accountHandler.DeleteAddress)
		})

		r.Route("/disputes", func(r chi.Router) {
			r.Get("/", accountHandler.ListDisputes)
			r.Post("/", accountHandler.CreateDispute)
			r.Get("/{dispute_id}", accountHandler.GetDispute)
		})
	})

	return r
}
