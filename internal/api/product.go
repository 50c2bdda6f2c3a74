package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/avolkov/wholesale-orders/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.products.List(ctx)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	stock, err := h.stock.AvailableByProduct(ctx, ids)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p, stock[p.ID])
			}
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	stock, err := h.stock.AvailableByProduct(ctx, []string{id})
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p, stock[id])
	})
}

func encodeProduct(e *jx.Encoder, p product.Product, available int64) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("salePrice", func(e *jx.Encoder) { e.Float64(p.SalePrice.Round(2).InexactFloat64()) })
		e.Field("vatPercent", func(e *jx.Encoder) { e.Float64(p.VatPercent.InexactFloat64()) })
		e.Field("isActive", func(e *jx.Encoder) { e.Bool(p.IsActive) })
		e.Field("hasVolumeDiscount", func(e *jx.Encoder) { e.Bool(p.HasVolumeDiscount) })
		e.Field("availableStock", func(e *jx.Encoder) { e.Int64(available) })
	})
}
