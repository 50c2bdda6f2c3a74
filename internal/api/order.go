package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avolkov/wholesale-orders/internal/domain/address"
	"github.com/avolkov/wholesale-orders/internal/domain/inventory"
	"github.com/avolkov/wholesale-orders/internal/domain/order"
	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

const dateLayout = "2006-01-02"

type placeOrderRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int64  `json:"quantity"`
	} `json:"items"`
	ShippingAddressID   string `json:"shippingAddressId"`
	PalletType          string `json:"palletType"`
	DesiredDeliveryDate string `json:"desiredDeliveryDate"`
	Notes               string `json:"notes"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header required")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deliveryDate, err := time.Parse(dateLayout, req.DesiredDeliveryDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "desiredDeliveryDate must be YYYY-MM-DD")
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.Item{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.service.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:              uid,
		Items:               items,
		ShippingAddressID:   req.ShippingAddressID,
		PalletType:          req.PalletType,
		DesiredDeliveryDate: deliveryDate,
		Notes:               req.Notes,
	})
	if err != nil {
		h.metrics.orderFailures.Add(r.Context(), 1, opAttr("place"))
		h.writeOrderError(w, r, err)
		return
	}

	h.metrics.ordersPlaced.Add(r.Context(), 1)
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("order.id", o.ID))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header required")
		return
	}

	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err == nil && o.UserID != uid {
		err = order.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header required")
		return
	}

	var req cancelOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	o, err := h.service.CancelOrder(r.Context(), uid, r.PathValue("id"), req.Reason)
	if err != nil {
		h.metrics.orderFailures.Add(r.Context(), 1, opAttr("cancel"))
		h.writeOrderError(w, r, err)
		return
	}

	h.metrics.ordersCancelled.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// writeOrderError maps domain errors from placement and cancellation onto
// the API error contract.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr  *order.InvalidQuantityError
		dupErr *order.DuplicateProductError
		inact  *product.InactiveError
		stock  *inventory.InsufficientStockError
		cancel *order.NotCancellableError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &iqErr),
		errors.As(err, &dupErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &inact),
		errors.As(err, &stock),
		errors.As(err, &cancel):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, "order conflicts with a concurrent request, retry")
	default:
		writeInternalError(w, r, err)
	}
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("userId", func(e *jx.Encoder) { e.Str(o.UserID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("totalAmount", func(e *jx.Encoder) { e.Float64(o.TotalAmount.Round(2).InexactFloat64()) })
		e.Field("shippingAddressId", func(e *jx.Encoder) { e.Str(o.ShippingAddressID) })
		e.Field("palletType", func(e *jx.Encoder) { e.Str(o.PalletType) })
		e.Field("desiredDeliveryDate", func(e *jx.Encoder) { e.Str(o.DesiredDeliveryDate.Format(dateLayout)) })
		e.Field("notes", func(e *jx.Encoder) { e.Str(o.Notes) })
		if o.CancelReason != "" {
			e.Field("cancelReason", func(e *jx.Encoder) { e.Str(o.CancelReason) })
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ln := range o.Lines {
					encodeLine(e, ln)
				}
			})
		})
	})
}

func encodeLine(e *jx.Encoder, ln order.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(ln.ProductID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int64(ln.Quantity) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(ln.Price.Round(2).InexactFloat64()) })
		e.Field("vatAmount", func(e *jx.Encoder) { e.Float64(ln.VatAmount.Round(2).InexactFloat64()) })
		e.Field("priceWithVat", func(e *jx.Encoder) { e.Float64(ln.PriceWithVat.Round(2).InexactFloat64()) })
		e.Field("discount", func(e *jx.Encoder) { e.Float64(ln.Discount.Round(2).InexactFloat64()) })
		e.Field("bulkDiscount", func(e *jx.Encoder) { e.Float64(ln.BulkDiscount.Round(2).InexactFloat64()) })
		e.Field("totalPrice", func(e *jx.Encoder) { e.Float64(ln.TotalPrice.Round(2).InexactFloat64()) })
	})
}
