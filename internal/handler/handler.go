// Package handler serves the storefront and admin HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/hrc-bakery/storefront/internal/auth"
	"github.com/hrc-bakery/storefront/internal/catalog"
	"github.com/hrc-bakery/storefront/internal/checkout"
	"github.com/hrc-bakery/storefront/internal/order"
	"github.com/hrc-bakery/storefront/internal/orderview"
	"github.com/hrc-bakery/storefront/pkg/httpmiddleware"
)

// Catalog is the read side of the reference tables.
type Catalog interface {
	Cakes(activeOnly bool) []catalog.Cake
	Cake(id string) (catalog.Cake, bool)
	Decorations() []catalog.Decoration
	Categories() []catalog.DecorationCategory
	Zones() []catalog.DeliveryZone
}

// CatalogAdmin applies admin writes to the reference tables.
type CatalogAdmin interface {
	PutCake(ctx context.Context, c catalog.Cake) error
	DeleteCake(ctx context.Context, id string) error
	PutDecoration(ctx context.Context, d catalog.Decoration) error
	DeleteDecoration(ctx context.Context, id int) error
	PutCategory(ctx context.Context, c catalog.DecorationCategory) error
	PutZone(ctx context.Context, z catalog.DeliveryZone) error
	DeleteZone(ctx context.Context, id string) error
}

// Checkout places orders from submitted carts.
type Checkout interface {
	PlaceOrder(ctx context.Context, req checkout.Request) (*order.Order, error)
}

// Orders is the order store as used by the admin endpoints.
type Orders interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	Filter(ctx context.Context, f order.Filter) []order.Order
	Search(ctx context.Context, query string) []order.Order
	Recent(ctx context.Context, days int) []order.Order
	Statistics(ctx context.Context) order.Statistics
	Update(ctx context.Context, id string, p order.Patch) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error)
	Delete(ctx context.Context, id string) bool
}

// Views resolves orders for display.
type Views interface {
	Get(ctx context.Context, id string) (orderview.ResolvedOrder, bool)
	Resolve(ctx context.Context, o order.Order) (orderview.ResolvedOrder, bool)
}

// Authenticator validates admin API keys.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*auth.KeyInfo, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// CheckoutLimit wraps POST /api/checkout when set.
	CheckoutLimit httpmiddleware.Middleware
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	catalog  Catalog
	admin    CatalogAdmin
	checkout Checkout
	orders   Orders
	views    Views
	auth     Authenticator
	cfg      Config
}

// New constructs a Handler.
func New(
	cfg Config,
	cat Catalog,
	admin CatalogAdmin,
	co Checkout,
	orders Orders,
	views Views,
	authn Authenticator,
) *Handler {
	return &Handler{
		catalog:  cat,
		admin:    admin,
		checkout: co,
		orders:   orders,
		views:    views,
		auth:     authn,
		cfg:      cfg,
	}
}

// Register adds every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/cakes", h.listCakes)
	mux.HandleFunc("GET /api/cakes/{id}", h.getCake)
	mux.HandleFunc("GET /api/decorations", h.listDecorations)
	mux.HandleFunc("GET /api/zones", h.listZones)
	mux.HandleFunc("GET /api/containers", h.listContainers)

	var place http.Handler = http.HandlerFunc(h.placeOrder)
	if h.cfg.CheckoutLimit != nil {
		place = h.cfg.CheckoutLimit(place)
	}
	mux.Handle("POST /api/checkout", place)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)

	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.requireAdmin(fn))
	}
	admin("GET /api/admin/orders", h.adminListOrders)
	admin("GET /api/admin/orders/resolved", h.adminResolvedOrders)
	admin("GET /api/admin/orders/legacy", h.adminLegacyOrders)
	admin("GET /api/admin/orders/stats", h.adminStats)
	admin("GET /api/admin/orders/export", h.adminExport)
	admin("PATCH /api/admin/orders/{id}", h.adminPatchOrder)
	admin("PUT /api/admin/orders/{id}/status", h.adminSetStatus)
	admin("DELETE /api/admin/orders/{id}", h.adminDeleteOrder)
	admin("PUT /api/admin/cakes/{id}", h.adminPutCake)
	admin("DELETE /api/admin/cakes/{id}", h.adminDeleteCake)
	admin("PUT /api/admin/decorations/{id}", h.adminPutDecoration)
	admin("DELETE /api/admin/decorations/{id}", h.adminDeleteDecoration)
	admin("PUT /api/admin/categories/{id}", h.adminPutCategory)
	admin("PUT /api/admin/zones/{id}", h.adminPutZone)
	admin("DELETE /api/admin/zones/{id}", h.adminDeleteZone)
}
