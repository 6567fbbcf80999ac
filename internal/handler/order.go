package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hrc-bakery/storefront/internal/checkout"
	"github.com/hrc-bakery/storefront/internal/order"
	"github.com/hrc-bakery/storefront/internal/orderview"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.checkout.PlaceOrder(r.Context(), req)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}

	if resolved, ok := h.views.Resolve(r.Context(), *o); ok {
		writeJSON(w, http.StatusCreated, resolved)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// checkoutError maps checkout failures to responses.
func (h *Handler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		lineErr *checkout.UnresolvableLineError
		zoneErr *checkout.UnknownZoneError
		qtyErr  *checkout.InvalidQuantityError
		valErr  *order.ValidationError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrZoneUnavailable),
		errors.As(err, &lineErr),
		errors.As(err, &zoneErr),
		errors.As(err, &qtyErr),
		errors.As(err, &valErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		internalError(w, r, err)
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	resolved, ok := h.views.Get(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// adminQuery selects orders from the admin list parameters: status, from,
// to, customerId, q (search) and days (recent). Parameters are combined
// with AND.
func (h *Handler) adminQuery(r *http.Request) ([]order.Order, error) {
	q := r.URL.Query()
	f := order.Filter{
		Status:     order.Status(q.Get("status")),
		CustomerID: q.Get("customerId"),
	}
	if v := q.Get("from"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return nil, errors.Wrap(err, "from")
		}
		f.DateFrom = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return nil, errors.Wrap(err, "to")
		}
		f.DateTo = &t
	}

	orders := h.orders.Filter(r.Context(), f)
	if v := q.Get("q"); v != "" {
		orders = intersect(orders, h.orders.Search(r.Context(), v))
	}
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, errors.Errorf("days: %q is not a positive integer", v)
		}
		orders = intersect(orders, h.orders.Recent(r.Context(), days))
	}
	return orders, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates. A plain date used
// as an upper bound covers the whole day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, errors.Errorf("%q is not a date", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// intersect keeps the orders of a that also appear in b, in a's order.
func intersect(a, b []order.Order) []order.Order {
	ids := make(map[string]struct{}, len(b))
	for _, o := range b {
		ids[o.ID] = struct{}{}
	}
	out := a[:0]
	for _, o := range a {
		if _, ok := ids[o.ID]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (h *Handler) resolveAll(r *http.Request, orders []order.Order) []orderview.ResolvedOrder {
	out := make([]orderview.ResolvedOrder, 0, len(orders))
	for _, o := range orders {
		if v, ok := h.views.Resolve(r.Context(), o); ok {
			out = append(out, v)
		}
	}
	return out
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.adminQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) adminResolvedOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.adminQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.resolveAll(r, orders))
}

func (h *Handler) adminLegacyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.adminQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orderview.ToAdminOrders(h.resolveAll(r, orders)))
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orders.Statistics(r.Context()))
}

// adminExport streams the legacy rows as gzip-compressed JSON lines.
func (h *Handler) adminExport(w http.ResponseWriter, r *http.Request) {
	orders, err := h.adminQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := orderview.ToAdminOrders(h.resolveAll(r, orders))

	name := fmt.Sprintf("orders-%s.jsonl.gz", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)

	gz := pgzip.NewWriter(w)
	err = orderview.WriteJSONL(gz, rows)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		zctx.From(r.Context()).Warn("Export interrupted", zap.Error(err))
		return
	}
	zctx.From(r.Context()).Info("Orders exported", zap.Int("count", len(rows)))
}

// patchRequest is the body of PATCH /api/admin/orders/{id}. Absent fields
// are left unchanged.
type patchRequest struct {
	Status            *order.Status       `json:"status"`
	Customer          *order.Customer     `json:"customer"`
	Delivery          *order.DeliveryInfo `json:"delivery"`
	Payment           *order.Payment      `json:"payment"`
	Items             *[]order.ItemRef    `json:"items"`
	CustomLoaves      *[]order.CustomLoaf `json:"customLoaves"`
	DeliveryFee       *decimal.Decimal    `json:"deliveryFee"`
	EstimatedDelivery *time.Time          `json:"estimatedDelivery"`
	ActualDelivery    *time.Time          `json:"actualDelivery"`
	Notes             *string             `json:"notes"`
}

func (p patchRequest) patch() order.Patch {
	return order.Patch{
		Status:            p.Status,
		Customer:          p.Customer,
		Delivery:          p.Delivery,
		Payment:           p.Payment,
		Items:             p.Items,
		CustomLoaves:      p.CustomLoaves,
		DeliveryFee:       p.DeliveryFee,
		EstimatedDelivery: p.EstimatedDelivery,
		ActualDelivery:    p.ActualDelivery,
		Notes:             p.Notes,
	}
}

func (h *Handler) adminPatchOrder(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != nil && !req.Status.Known() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", *req.Status))
		return
	}

	o, err := h.orders.Update(r.Context(), r.PathValue("id"), req.patch())
	if err != nil {
		h.updateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusRequest struct {
	Status order.Status `json:"status"`
}

func (h *Handler) adminSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Status.Known() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		h.updateError(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Order status changed",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) updateError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		transErr *order.InvalidTransitionError
		valErr   *order.ValidationError
	)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &transErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &valErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		internalError(w, r, err)
	}
}

func (h *Handler) adminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if !h.orders.Delete(r.Context(), r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
