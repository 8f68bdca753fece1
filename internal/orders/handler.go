package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

const (
	IdempotencyKeyHeader  = "Idempotency-Key"
	errCodeOrderNotActive = "ORDER_NOT_ACTIVE"
)

// IdempotencyStore remembers which order a client request key produced.
type IdempotencyStore interface {
	// Claim reserves key. When the key is already taken it returns the
	// order id recorded for it, which is empty while that request is still
	// in flight.
	Claim(ctx context.Context, key string) (claimed bool, orderID string, err error)
	Complete(ctx context.Context, key, orderID string) error
	Release(ctx context.Context, key string) error
}

type Handler struct {
	service     *Service
	idempotency IdempotencyStore
	logger      *slog.Logger
}

func NewHandler(service *Service, idempotency IdempotencyStore, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		idempotency: idempotency,
		logger:      logger,
	}
}

type createOrderRequest struct {
	OrderItems []ItemRequest `json:"orderItems"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

type createOrderErrorResponse struct {
	Errors []domain.CreateOrderError `json:"errors"`
}

type errorCodeResponse struct {
	ErrorCode string `json:"errorCode"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.OrderItems) == 0 {
		h.writeError(w, http.StatusBadRequest, "orderItems must not be empty")
		return
	}

	var key string
	if h.idempotency != nil {
		key = r.Header.Get(IdempotencyKeyHeader)
	}

	if key != "" {
		claimed, orderID, err := h.idempotency.Claim(r.Context(), key)
		switch {
		case err != nil:
			h.logger.Error("failed to claim idempotency key", "error", err)
			key = ""
		case !claimed && orderID != "":
			h.logger.Info("order replayed", "order_id", orderID)
			h.writeJSON(w, http.StatusOK, createOrderResponse{ID: orderID})
			return
		case !claimed:
			h.writeError(w, http.StatusConflict, "request with this idempotency key is in progress")
			return
		}
	}

	order, err := h.service.CreateOrder(r.Context(), req.OrderItems)
	if err != nil {
		h.releaseKey(r.Context(), key)

		var verr *ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, createOrderErrorResponse{Errors: verr.Errors})
			return
		}
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if key != "" {
		if err := h.idempotency.Complete(r.Context(), key, order.ID); err != nil {
			h.logger.Error("failed to record idempotency key", "error", err, "order_id", order.ID)
		}
	}

	h.writeJSON(w, http.StatusCreated, createOrderResponse{ID: order.ID})
}

func (h *Handler) releaseKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.idempotency.Release(ctx, key); err != nil {
		h.logger.Error("failed to release idempotency key", "error", err)
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type setStateRequest struct {
	State domain.OrderState `json:"state"`
}

func (h *Handler) HandleSetState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.State != domain.OrderStateCanceled {
		h.writeError(w, http.StatusBadRequest, "only CANCELED can be set")
		return
	}

	err := h.service.CancelOrder(r.Context(), id)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, ErrOrderNotActive):
		h.writeJSON(w, http.StatusConflict, errorCodeResponse{ErrorCode: errCodeOrderNotActive})
	case err != nil:
		h.logger.Error("failed to cancel order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type paymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount == nil {
		h.writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	err := h.service.PayOrder(r.Context(), id, *req.Amount)
	var perr *domain.PaymentError
	switch {
	case errors.Is(err, ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &perr):
		h.writeJSON(w, http.StatusBadRequest, errorCodeResponse{ErrorCode: string(perr.Code)})
	case err != nil:
		h.logger.Error("failed to pay order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
