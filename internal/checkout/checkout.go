// Package checkout turns submitted cart lines into a normalized order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hrc-bakery/storefront/internal/cart"
	"github.com/hrc-bakery/storefront/internal/catalog"
	"github.com/hrc-bakery/storefront/internal/order"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrZoneUnavailable = errors.New("delivery zone unavailable")
)

// UnresolvableLineError indicates a submitted line references catalog
// records that do not exist or cannot be sold.
type UnresolvableLineError struct {
	Index  int
	CakeID string
	Reason string
}

func (e *UnresolvableLineError) Error() string {
	return fmt.Sprintf("line %d (cake %s): %s", e.Index, e.CakeID, e.Reason)
}

// UnknownZoneError indicates the delivery zone does not exist.
type UnknownZoneError struct {
	ZoneID string
}

func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("delivery zone %s not found", e.ZoneID)
}

// InvalidQuantityError indicates a line has a non-positive quantity.
type InvalidQuantityError struct {
	Index int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("line %d: quantity must be greater than 0", e.Index)
}

// Line is a cart line as submitted by the storefront.
type Line struct {
	CakeID            string   `json:"cakeId"`
	SizeWeight        string   `json:"sizeWeight"`
	CreamIndex        int      `json:"creamIndex"`
	DecorationIDs     []int    `json:"decorationIds"`
	ContainerTypeName string   `json:"containerTypeName"`
	Quantity          int      `json:"quantity"`
	CustomNotes       string   `json:"customNotes,omitempty"`
	UploadedImages    []string `json:"uploadedImages,omitempty"`
}

// Request holds the input of Service.PlaceOrder.
type Request struct {
	Customer          order.Customer     `json:"customer"`
	Delivery          order.DeliveryInfo `json:"delivery"`
	Payment           order.Payment      `json:"payment"`
	Lines             []Line             `json:"items"`
	CustomLoaves      []order.CustomLoaf `json:"customLoaves"`
	EstimatedDelivery time.Time          `json:"estimatedDelivery"`
	Notes             string             `json:"notes,omitempty"`
}

// Resolver is the catalog lookup used for pricing.
type Resolver interface {
	Cake(id string) (catalog.Cake, bool)
	CakeSize(cakeID, weight string) (catalog.PriceTier, bool)
	CreamOption(cakeID string, index int) (catalog.CreamOption, bool)
	Decoration(id int) (catalog.Decoration, bool)
	DeliveryZone(id string) (catalog.DeliveryZone, bool)
	ContainerType(name string) (catalog.ContainerType, bool)
}

// Orders persists placed orders.
type Orders interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.Order, error)
}

// Service encapsulates checkout business logic.
type Service struct {
	resolver Resolver
	orders   Orders
}

// NewService creates a checkout Service.
func NewService(resolver Resolver, orders Orders) *Service {
	return &Service{
		resolver: resolver,
		orders:   orders,
	}
}

// PlaceOrder merges equal lines, prices every line against the live
// catalog, snapshots the prices onto the order items, and stores the order.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*order.Order, error) {
	if len(req.Lines) == 0 && len(req.CustomLoaves) == 0 {
		return nil, ErrEmptyCart
	}

	zone, ok := s.resolver.DeliveryZone(req.Delivery.ZoneID)
	if !ok {
		return nil, &UnknownZoneError{ZoneID: req.Delivery.ZoneID}
	}
	if !zone.Available {
		return nil, ErrZoneUnavailable
	}

	var c cart.Cart
	// creamIndex holds the submitted cream index of each merged line.
	creamIndex := make(map[int]int, len(req.Lines))
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{Index: i}
		}
		custom, err := s.customize(i, l)
		if err != nil {
			return nil, err
		}
		li := c.Add(l.CakeID, custom, l.Quantity)
		if _, seen := creamIndex[li]; !seen {
			creamIndex[li] = l.CreamIndex
		}
	}

	items := make([]order.ItemRef, 0, c.Len())
	for i, l := range c.Lines() {
		items = append(items, itemRef(l, creamIndex[i]))
	}

	o, err := s.orders.Create(ctx, order.CreateRequest{
		Customer:          req.Customer,
		Delivery:          req.Delivery,
		Payment:           req.Payment,
		Items:             items,
		CustomLoaves:      req.CustomLoaves,
		DeliveryFee:       zone.Fee,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.Number),
		zap.Int("lines", len(o.Items)),
		zap.String("total", o.Total.String()),
	)
	return o, nil
}

// customize resolves the references of a submitted line.
func (s *Service) customize(i int, l Line) (cart.Customization, error) {
	fail := func(reason string) error {
		return &UnresolvableLineError{Index: i, CakeID: l.CakeID, Reason: reason}
	}

	cake, ok := s.resolver.Cake(l.CakeID)
	if !ok {
		return cart.Customization{}, fail("cake not found")
	}
	if !cake.Active {
		return cart.Customization{}, fail("cake not available")
	}
	size, ok := s.resolver.CakeSize(l.CakeID, l.SizeWeight)
	if !ok {
		return cart.Customization{}, fail(fmt.Sprintf("size %q not offered", l.SizeWeight))
	}
	cream, ok := s.resolver.CreamOption(l.CakeID, l.CreamIndex)
	if !ok {
		return cart.Customization{}, fail(fmt.Sprintf("cream option %d not offered", l.CreamIndex))
	}
	container, ok := s.resolver.ContainerType(l.ContainerTypeName)
	if !ok {
		return cart.Customization{}, fail(fmt.Sprintf("container %q not offered", l.ContainerTypeName))
	}

	decorations := make([]catalog.Decoration, 0, len(l.DecorationIDs))
	for _, id := range l.DecorationIDs {
		d, ok := s.resolver.Decoration(id)
		if !ok {
			return cart.Customization{}, fail(fmt.Sprintf("decoration %d not found", id))
		}
		if !d.Available {
			return cart.Customization{}, fail(fmt.Sprintf("decoration %d not available", id))
		}
		decorations = append(decorations, d)
	}

	return cart.Customization{
		Size:           &size,
		Cream:          &cream,
		Container:      &container,
		Decorations:    decorations,
		CustomNotes:    l.CustomNotes,
		UploadedImages: l.UploadedImages,
	}, nil
}

// itemRef prices a merged cart line and converts it back to references.
func itemRef(l cart.Line, creamIndex int) order.ItemRef {
	c := l.Customization
	unit, surcharge, total := Price(*c.Size, *c.Cream, c.Decorations, l.Quantity)

	return order.ItemRef{
		CakeID:              l.CakeID,
		SizeWeight:          c.Size.Weight,
		CreamIndex:          creamIndex,
		DecorationIDs:       c.DecorationIDs(),
		ContainerTypeName:   c.Container.Name,
		Quantity:            l.Quantity,
		UnitPrice:           unit,
		DecorationSurcharge: surcharge,
		TotalPrice:          total,
		CustomNotes:         c.CustomNotes,
		UploadedImages:      c.UploadedImages,
	}
}

// Price computes the line prices: the unit price is the size amount plus
// the cream surcharge, and every decoration is charged once per unit.
func Price(size catalog.PriceTier, cream catalog.CreamOption, decorations []catalog.Decoration, quantity int) (unit, surcharge, total decimal.Decimal) {
	qty := decimal.NewFromInt(int64(quantity))

	unit = size.Amount.Add(cream.Surcharge)
	surcharge = decimal.Zero
	for _, d := range decorations {
		surcharge = surcharge.Add(d.Price.Mul(qty))
	}
	total = unit.Mul(qty).Add(surcharge)
	return unit, surcharge, total
}
