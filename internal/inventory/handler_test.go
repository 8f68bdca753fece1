package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/store"
)

func newTestMux(s store.Store) *http.ServeMux {
	h := NewHandler(s, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /products", h.HandleCreate)
	mux.HandleFunc("GET /products", h.HandleList)
	mux.HandleFunc("GET /products/{id}", h.HandleGet)
	mux.HandleFunc("PUT /products/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", h.HandleDelete)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates product and returns id", func(t *testing.T) {
		s := store.NewMemory()
		mux := newTestMux(s)

		rec := do(mux, http.MethodPost, "/products", `{"name":"Test Product 1","price":"13.12","quantity":5}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp createProductResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID == "" {
			t.Fatal("expected product id")
		}

		if got := *quantityOf(t, s, resp.ID); got != 5 {
			t.Errorf("expected quantity 5, got %d", got)
		}
	})

	t.Run("accepts unfinished product", func(t *testing.T) {
		rec := do(newTestMux(store.NewMemory()), http.MethodPost, "/products", `{"name":"Draft","price":null}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("rejects invalid products", func(t *testing.T) {
		bodies := map[string]string{
			"missing name":      `{"price":1,"quantity":1}`,
			"name too long":     `{"name":"` + strings.Repeat("x", 257) + `"}`,
			"negative price":    `{"name":"p","price":-1}`,
			"negative quantity": `{"name":"p","quantity":-1}`,
			"price too precise": `{"name":"p","price":"1.00005"}`,
			"price too large":   `{"name":"p","price":"1000000000000000"}`,
			"malformed json":    `{"name":`,
		}
		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				rec := do(newTestMux(store.NewMemory()), http.MethodPost, "/products", body)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected status 400, got %d", rec.Code)
				}
			})
		}
	})
}

func TestHandler_HandleUpdate(t *testing.T) {
	t.Run("replaces existing product", func(t *testing.T) {
		s := store.NewMemory()
		seed(t, s, domain.Product{ID: "p1", Name: "Old", Price: decPtr("1"), Quantity: intPtr(1)})

		rec := do(newTestMux(s), http.MethodPut, "/products/p1", `{"name":"New","price":"2.50","quantity":7}`)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
		}

		_ = s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			p, _ := tx.GetProduct(ctx, "p1")
			if p.Name != "New" || *p.Quantity != 7 || p.Price.String() != "2.5" {
				t.Errorf("unexpected product after update: %+v", p)
			}
			return nil
		})
	})

	t.Run("rejects price the store cannot hold exactly", func(t *testing.T) {
		s := store.NewMemory()
		seed(t, s, domain.Product{ID: "p1", Name: "Old", Price: decPtr("1"), Quantity: intPtr(1)})

		rec := do(newTestMux(s), http.MethodPut, "/products/p1", `{"name":"Old","price":"1.00005","quantity":1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}

		_ = s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
			p, _ := tx.GetProduct(ctx, "p1")
			if p.Price.String() != "1" {
				t.Errorf("expected price to stay 1, got %s", p.Price)
			}
			return nil
		})
	})

	t.Run("returns 404 for unknown product", func(t *testing.T) {
		rec := do(newTestMux(store.NewMemory()), http.MethodPut, "/products/missing", `{"name":"New"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGetAndDelete(t *testing.T) {
	s := store.NewMemory()
	seed(t, s, domain.Product{ID: "p1", Name: "Test Product 1", Price: decPtr("13.12"), Quantity: intPtr(5)})
	mux := newTestMux(s)

	rec := do(mux, http.MethodGet, "/products/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var p domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode product: %v", err)
	}
	if p.Name != "Test Product 1" || !p.Price.Equal(*decPtr("13.12")) {
		t.Errorf("unexpected product: %+v", p)
	}

	rec = do(mux, http.MethodGet, "/products", "")
	var list []domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 product, got %d", len(list))
	}

	if rec := do(mux, http.MethodDelete, "/products/p1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
	if rec := do(mux, http.MethodDelete, "/products/p1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected deleting an absent product to return 204, got %d", rec.Code)
	}
	if rec := do(mux, http.MethodGet, "/products/p1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", rec.Code)
	}
}
