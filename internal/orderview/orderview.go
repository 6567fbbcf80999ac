// Package orderview builds display-ready orders from the normalized order
// store and the reference resolver. Resolved orders are recomputed on every
// call and never stored.
package orderview

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/hrc-bakery/storefront/internal/order"
	"github.com/hrc-bakery/storefront/internal/reference"
)

// Orders is the read side of the order store.
type Orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	List(ctx context.Context) []order.Order
	ByStatus(ctx context.Context, status order.Status) []order.Order
}

// Resolver resolves order lines and delivery info.
type Resolver interface {
	ResolveOrderItem(ref order.ItemRef) (reference.ResolvedOrderItem, bool)
	ResolveDeliveryInfo(info order.DeliveryInfo) (reference.ResolvedDeliveryInfo, bool)
}

// ResolvedOrder is an order with items and delivery info replaced by their
// resolved objects. All other fields pass through unchanged.
type ResolvedOrder struct {
	ID                string                          `json:"id"`
	Number            string                          `json:"orderNumber"`
	Customer          order.Customer                  `json:"customer"`
	Delivery          reference.ResolvedDeliveryInfo  `json:"delivery"`
	Payment           order.Payment                   `json:"payment"`
	Items             []reference.ResolvedOrderItem   `json:"items"`
	CustomLoaves      []order.CustomLoaf              `json:"customLoaves"`
	Subtotal          decimal.Decimal                 `json:"subtotal"`
	DeliveryFee       decimal.Decimal                 `json:"deliveryFee"`
	Total             decimal.Decimal                 `json:"total"`
	Status            order.Status                    `json:"status"`
	CreatedAt         time.Time                       `json:"createdAt"`
	UpdatedAt         time.Time                       `json:"updatedAt"`
	EstimatedDelivery time.Time                       `json:"estimatedDelivery"`
	ActualDelivery    *time.Time                      `json:"actualDelivery,omitempty"`
	Notes             string                          `json:"notes,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider traces order resolution with the given provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("github.com/hrc-bakery/storefront/internal/orderview") }
}

// Service composes the order store and the resolver.
type Service struct {
	orders   Orders
	resolver Resolver
	tracer   trace.Tracer
}

// NewService creates a Service.
func NewService(orders Orders, resolver Resolver, opts ...Option) *Service {
	s := &Service{
		orders:   orders,
		resolver: resolver,
		tracer:   noop.NewTracerProvider().Tracer(""),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get resolves a single order. It reports false when the order does not
// exist or its delivery zone cannot be resolved. Items that fail to resolve
// are dropped.
func (s *Service) Get(ctx context.Context, id string) (ResolvedOrder, bool) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return ResolvedOrder{}, false
	}
	return s.Resolve(ctx, *o)
}

// List resolves every order, omitting the ones that fail to resolve.
func (s *Service) List(ctx context.Context) []ResolvedOrder {
	return s.resolveAll(ctx, s.orders.List(ctx))
}

// ByStatus resolves the orders in the given status.
func (s *Service) ByStatus(ctx context.Context, status order.Status) []ResolvedOrder {
	return s.resolveAll(ctx, s.orders.ByStatus(ctx, status))
}

func (s *Service) resolveAll(ctx context.Context, orders []order.Order) []ResolvedOrder {
	out := make([]ResolvedOrder, 0, len(orders))
	for _, o := range orders {
		if r, ok := s.Resolve(ctx, o); ok {
			out = append(out, r)
		}
	}
	return out
}

// Resolve builds the resolved view of o.
func (s *Service) Resolve(ctx context.Context, o order.Order) (ResolvedOrder, bool) {
	ctx, span := s.tracer.Start(ctx, "orderview.Resolve",
		trace.WithAttributes(
			attribute.String("order.id", o.ID),
			attribute.Int("order.items", len(o.Items)),
		),
	)
	defer span.End()

	lg := zctx.From(ctx)

	delivery, ok := s.resolver.ResolveDeliveryInfo(o.Delivery)
	if !ok {
		lg.Debug("Order delivery zone unresolved",
			zap.String("order_id", o.ID),
			zap.String("zone_id", o.Delivery.ZoneID),
		)
		span.SetStatus(codes.Error, "delivery zone unresolved")
		return ResolvedOrder{}, false
	}

	items := make([]reference.ResolvedOrderItem, 0, len(o.Items))
	for i, ref := range o.Items {
		item, ok := s.resolver.ResolveOrderItem(ref)
		if !ok {
			lg.Debug("Order item unresolved",
				zap.String("order_id", o.ID),
				zap.Int("item", i),
				zap.String("cake_id", ref.CakeID),
			)
			continue
		}
		items = append(items, item)
	}
	span.SetAttributes(attribute.Int("order.items.resolved", len(items)))

	return ResolvedOrder{
		ID:                o.ID,
		Number:            o.Number,
		Customer:          o.Customer,
		Delivery:          delivery,
		Payment:           o.Payment,
		Items:             items,
		CustomLoaves:      o.CustomLoaves,
		Subtotal:          o.Subtotal,
		DeliveryFee:       o.DeliveryFee,
		Total:             o.Total,
		Status:            o.Status,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		EstimatedDelivery: o.EstimatedDelivery,
		ActualDelivery:    o.ActualDelivery,
		Notes:             o.Notes,
	}, true
}
