// Package api exposes the ordering core over HTTP. Handlers decode JSON
// requests, delegate to the order service and read repositories, and map
// domain errors to status codes.
package api

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/avolkov/wholesale-orders/internal/domain/order"
	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

// StockReader sums remaining lot quantities per product for the catalog
// read path.
type StockReader interface {
	AvailableByProduct(ctx context.Context, productIDs []string) (map[string]int64, error)
}

// Handler holds the HTTP surface of the ordering API.
type Handler struct {
	products product.Repository
	stock    StockReader
	service  *order.Service
	orders   order.Repository
	metrics  *Metrics
}

// NewHandler constructs a Handler with the required dependencies. The
// orders repository is pool-scoped and used only for reads; writes go
// through the service's unit of work.
func NewHandler(
	products product.Repository,
	stock StockReader,
	service *order.Service,
	orders order.Repository,
	metrics *Metrics,
) *Handler {
	return &Handler{
		products: products,
		stock:    stock,
		service:  service,
		orders:   orders,
		metrics:  metrics,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.cancelOrder)
	return mux
}

// userID extracts the calling user from the request. Authentication is an
// upstream concern; the gateway forwards the identity in X-User-ID.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
