package inventory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/store"
)

type Handler struct {
	store  store.Store
	logger *slog.Logger
}

func NewHandler(s store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  s,
		logger: logger,
	}
}

type productRequest struct {
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Quantity *int             `json:"quantity"`
}

func (r productRequest) toProduct(id string) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     r.Name,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

type createProductResponse struct {
	ID string `json:"id"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := req.toProduct("")
	if err := product.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.store.InTx(r.Context(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertProduct(ctx, product)
	})
	if err != nil {
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID)
	h.writeJSON(w, http.StatusCreated, createProductResponse{ID: product.ID})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var products []domain.Product
	err := h.store.InTx(r.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		products, err = tx.ListProducts(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("products listed", "count", len(products))
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var product *domain.Product
	err := h.store.InTx(r.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		product, err = tx.GetProduct(ctx, id)
		return err
	})
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := req.toProduct(id)
	if err := product.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var found bool
	err := h.store.InTx(r.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		found, err = tx.UpdateProduct(ctx, product)
		return err
	})
	if err != nil {
		h.logger.Error("failed to update product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !found {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product updated", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	err := h.store.InTx(r.Context(), func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		h.logger.Error("failed to delete product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
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
