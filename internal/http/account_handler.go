package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
)

// AccountBackend is the slice of the backend client the account endpoints
// proxy to.
type AccountBackend interface {
	ListAddresses(ctx context.Context, userID string) ([]backend.SavedAddress, error)
	CreateAddress(ctx context.Context, userID string, addr backend.SavedAddress) (*backend.SavedAddress, error)
	UpdateAddress(ctx context.Context, userID string, addr backend.SavedAddress) (*backend.SavedAddress, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
	ListDisputes(ctx context.Context, userID string) ([]backend.Dispute, error)
	GetDispute(ctx context.Context, disputeID string) (*backend.Dispute, error)
	CreateDispute(ctx context.Context, dispute backend.Dispute) (*backend.Dispute, error)
}

// AccountHandler proxies saved addresses and order disputes to the backend.
type AccountHandler struct {
	backend AccountBackend
	timeout time.Duration
}

func NewAccountHandler(b AccountBackend, timeout time.Duration) *AccountHandler {
	return &AccountHandler{
		backend: b,
		timeout: timeout,
	}
}

func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	addresses, err := h.backend.ListAddresses(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addresses)
}

func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var addr backend.SavedAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	created, err := h.backend.CreateAddress(ctx, userID, addr)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var addr backend.SavedAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	addr.ID = chi.URLParam(r, "address_id")
	if addr.ID == "" {
		respondError(w, http.StatusBadRequest, "missing_address_id", "address_id is required")
		return
	}

	updated, err := h.backend.UpdateAddress(ctx, userID, addr)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	addressID := chi.URLParam(r, "address_id")
	if addressID == "" {
		respondError(w, http.StatusBadRequest, "missing_address_id", "address_id is required")
		return
	}

	if err := h.backend.DeleteAddress(ctx, userID, addressID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	disputes, err := h.backend.ListDisputes(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, disputes)
}

func (h *AccountHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	disputeID := chi.URLParam(r, "dispute_id")
	if disputeID == "" {
		respondError(w, http.StatusBadRequest, "missing_dispute_id", "dispute_id is required")
		return
	}

	dispute, err := h.backend.GetDispute(ctx, disputeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if dispute.UserID != "" && dispute.UserID != userID {
		respondError(w, http.StatusForbidden, "forbidden", "dispute belongs to another user")
		return
	}
	respondJSON(w, http.StatusOK, dispute)
}

func (h *AccountHandler) CreateDispute(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dispute backend.Dispute
	if err := json.NewDecoder(r.Body).Decode(&dispute); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if dispute.OrderID == "" || dispute.Subject == "" {
		respondError(w, http.StatusBadRequest, "invalid_dispute", "order_id and subject are required")
		return
	}
	dispute.UserID = userID

	created, err := h.backend.CreateDispute(ctx, dispute)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}
