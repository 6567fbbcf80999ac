package order

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds the search for an unused order number. The suffix
// space is 1000 per month, so after that the collision is accepted.
const maxNumberAttempts = 20

// CreateRequest is the input of Store.Create.
type CreateRequest struct {
	Customer          Customer
	Delivery          DeliveryInfo
	Payment           Payment
	Items             []ItemRef
	CustomLoaves      []CustomLoaf
	DeliveryFee       decimal.Decimal
	EstimatedDelivery time.Time
	Notes             string
}

// Patch holds the fields of an order update. Nil fields are left unchanged.
type Patch struct {
	Status            *Status
	Customer          *Customer
	Delivery          *DeliveryInfo
	Payment           *Payment
	Items             *[]ItemRef
	CustomLoaves      *[]CustomLoaf
	DeliveryFee       *decimal.Decimal
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	Notes             *string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand overrides the random source used for IDs and order numbers.
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rnd = r }
}

// WithStrictTransitions rejects status changes that are not forward moves.
func WithStrictTransitions() Option {
	return func(s *Store) { s.strict = true }
}

// Store keeps orders in memory, most recent first. It references catalog
// records by ID only and performs no cross-reference validation.
type Store struct {
	mu      sync.RWMutex
	orders  []*Order
	byID    map[string]*Order
	numbers map[string]int

	now    func() time.Time
	rnd    *rand.Rand
	strict bool
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID:    make(map[string]*Order),
		numbers: make(map[string]int),
		now:     time.Now,
		rnd:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates the request structure, assigns an ID and order number,
// derives the totals, and prepends the order with status received.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	items := make([]ItemRef, len(req.Items))
	for i, it := range req.Items {
		it.DecorationIDs = slices.Clone(it.DecorationIDs)
		it.UploadedImages = slices.Clone(it.UploadedImages)
		items[i] = it
	}
	if err := validateCreate(req, items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	o := &Order{
		ID:                s.uniqueID(now),
		Customer:          req.Customer,
		Delivery:          req.Delivery,
		Payment:           req.Payment,
		Items:             items,
		CustomLoaves:      slices.Clone(req.CustomLoaves),
		DeliveryFee:       req.DeliveryFee,
		Status:            StatusReceived,
		CreatedAt:         now,
		UpdatedAt:         now,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
	}
	o.recalculate()
	fillPayment(o)

	number, unique := s.uniqueNumber(now)
	if !unique {
		zctx.From(ctx).Warn("Order number collision accepted",
			zap.String("order_number", number),
			zap.Int("attempts", maxNumberAttempts),
		)
	}
	o.Number = number
	s.numbers[number]++

	s.orders = slices.Insert(s.orders, 0, o)
	s.byID[o.ID] = o

	out := o.Clone()
	return &out, nil
}

func (s *Store) uniqueID(now time.Time) string {
	for {
		id := newID(now, s.rnd)
		if _, taken := s.byID[id]; !taken {
			return id
		}
	}
}

func (s *Store) uniqueNumber(now time.Time) (string, bool) {
	var number string
	for range maxNumberAttempts {
		number = newNumber(now, s.rnd)
		if s.numbers[number] == 0 {
			return number, true
		}
	}
	return number, false
}

// Update merges the patch into the order and refreshes UpdatedAt.
func (s *Store) Update(_ context.Context, id string, p Patch) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := o.Clone()
	if p.Status != nil {
		if s.strict && !CanTransition(next.Status, *p.Status) {
			return nil, &InvalidTransitionError{From: next.Status, To: *p.Status}
		}
		next.Status = *p.Status
	}
	if p.Customer != nil {
		next.Customer = *p.Customer
	}
	if p.Delivery != nil {
		next.Delivery = *p.Delivery
	}
	if p.Payment != nil {
		next.Payment = *p.Payment
	}
	if p.Items != nil {
		next.Items = slices.Clone(*p.Items)
		if err := validateItems(next.Items); err != nil {
			return nil, err
		}
	}
	if p.CustomLoaves != nil {
		next.CustomLoaves = slices.Clone(*p.CustomLoaves)
	}
	if p.DeliveryFee != nil {
		next.DeliveryFee = *p.DeliveryFee
	}
	if p.EstimatedDelivery != nil {
		next.EstimatedDelivery = *p.EstimatedDelivery
	}
	if p.ActualDelivery != nil {
		t := *p.ActualDelivery
		next.ActualDelivery = &t
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	next.recalculate()

	// UpdatedAt must strictly increase even on a coarse clock.
	now := s.now()
	if !now.After(o.UpdatedAt) {
		now = o.UpdatedAt.Add(time.Microsecond)
	}
	next.UpdatedAt = now

	*o = next
	out := o.Clone()
	return &out, nil
}

// UpdateStatus sets the order status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	return s.Update(ctx, id, Patch{Status: &status})
}

// Delete removes an order. It reports whether the order existed.
func (s *Store) Delete(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	if s.numbers[o.Number]--; s.numbers[o.Number] <= 0 {
		delete(s.numbers, o.Number)
	}
	s.orders = slices.DeleteFunc(s.orders, func(x *Order) bool { return x.ID == id })
	return true
}

// Get returns an order by ID.
func (s *Store) Get(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := o.Clone()
	return &out, nil
}

// List returns all orders, most recent first.
func (s *Store) List(_ context.Context) []Order {
	return s.collect(func(*Order) bool { return true })
}

// ByStatus returns the orders in the given status.
func (s *Store) ByStatus(_ context.Context, status Status) []Order {
	return s.collect(func(o *Order) bool { return o.Status == status })
}

// Recent returns the orders created within the last days.
func (s *Store) Recent(_ context.Context, days int) []Order {
	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.collect(func(o *Order) bool { return !o.CreatedAt.Before(since) })
}

// Search matches the query case-insensitively against the order number,
// customer first and last name, and email, and as a raw substring against
// the phone number.
func (s *Store) Search(_ context.Context, query string) []Order {
	q := strings.ToLower(query)
	return s.collect(func(o *Order) bool {
		return strings.Contains(strings.ToLower(o.Number), q) ||
			strings.Contains(strings.ToLower(o.Customer.FirstName), q) ||
			strings.Contains(strings.ToLower(o.Customer.LastName), q) ||
			strings.Contains(strings.ToLower(o.Customer.Email), q) ||
			strings.Contains(o.Customer.Phone, query)
	})
}

// Filter narrows the order list. Zero-valued fields are ignored; the rest are
// combined with AND.
type Filter struct {
	Status     Status
	DateFrom   *time.Time
	DateTo     *time.Time
	CustomerID string
}

// Filter returns the orders matching every set field of f.
func (s *Store) Filter(_ context.Context, f Filter) []Order {
	return s.collect(func(o *Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.DateFrom != nil && o.CreatedAt.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && o.CreatedAt.After(*f.DateTo) {
			return false
		}
		if f.CustomerID != "" && o.Customer.ID != f.CustomerID {
			return false
		}
		return true
	})
}

// Statistics summarises all orders.
type Statistics struct {
	TotalOrders       int             `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	OrdersByStatus    map[Status]int  `json:"ordersByStatus"`
}

// Statistics computes order counts and revenue.
func (s *Store) Statistics(_ context.Context) Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Statistics{
		TotalOrders:       len(s.orders),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		OrdersByStatus:    make(map[Status]int),
	}
	for _, o := range s.orders {
		st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		st.OrdersByStatus[o.Status]++
	}
	if st.TotalOrders > 0 {
		st.AverageOrderValue = st.TotalRevenue.Div(decimal.NewFromInt(int64(st.TotalOrders))).Round(2)
	}
	return st
}

func (s *Store) collect(match func(*Order) bool) []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		if match(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// fillPayment derives the remaining amount and payment status when the
// caller left them unset.
func fillPayment(o *Order) {
	p := &o.Payment
	if p.AmountRemaining.IsZero() && p.AmountPaid.LessThan(o.Total) {
		p.AmountRemaining = o.Total.Sub(p.AmountPaid)
	}
	if p.Status == "" {
		switch {
		case p.AmountPaid.IsZero():
			p.Status = PaymentPending
		case p.AmountRemaining.IsPositive():
			p.Status = PaymentPartial
		default:
			p.Status = PaymentPaid
		}
	}
}
