// Package order holds normalized bakery orders. Items reference catalog
// records by identifier and carry the prices captured at checkout.
package order

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusReceived  Status = "received"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks how much of the order has been paid.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Customer identifies who placed the order.
type Customer struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName joins the first and last name.
func (c Customer) FullName() string {
	switch {
	case c.LastName == "":
		return c.FirstName
	case c.FirstName == "":
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}

// DeliveryInfo references the delivery zone by ID.
type DeliveryInfo struct {
	ZoneID              string `json:"zoneId"`
	Address             string `json:"address"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// Payment records the payment state of an order.
type Payment struct {
	Method          string          `json:"method"`
	PhoneNumber     string          `json:"phoneNumber"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	AmountRemaining decimal.Decimal `json:"amountRemaining"`
	Status          PaymentStatus   `json:"status"`
	TransactionID   string          `json:"transactionId,omitempty"`
}

// ItemRef is an order line stored by reference. Prices are snapshotted at
// checkout and never recomputed from the live catalog.
type ItemRef struct {
	CakeID              string          `json:"cakeId"`
	SizeWeight          string          `json:"sizeWeight"`
	CreamIndex          int             `json:"creamIndex"`
	DecorationIDs       []int           `json:"decorationIds"`
	ContainerTypeName   string          `json:"containerTypeName"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	DecorationSurcharge decimal.Decimal `json:"decorationSurcharge"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	CustomNotes         string          `json:"customNotes,omitempty"`
	UploadedImages      []string        `json:"uploadedImages"`
}

// LineTotal is UnitPrice * Quantity plus the decoration surcharge.
func (i ItemRef) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Add(i.DecorationSurcharge)
}

// CustomLoaf is a made-to-order loaf quoted separately from the cake lines.
type CustomLoaf struct {
	Flavor   string `json:"flavor"`
	Weight   string `json:"weight"`
	Shape    string `json:"shape"`
	Notes    string `json:"notes,omitempty"`
	Quantity int    `json:"quantity"`
}

// Order is the normalized order aggregate.
type Order struct {
	ID                string          `json:"id"`
	Number            string          `json:"orderNumber"`
	Customer          Customer        `json:"customer"`
	Delivery          DeliveryInfo    `json:"delivery"`
	Payment           Payment         `json:"payment"`
	Items             []ItemRef       `json:"items"`
	CustomLoaves      []CustomLoaf    `json:"customLoaves"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DeliveryFee       decimal.Decimal `json:"deliveryFee"`
	Total             decimal.Decimal `json:"total"`
	Status            Status          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
	ActualDelivery    *time.Time      `json:"actualDelivery,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// recalculate derives the subtotal and total from the item lines.
func (o *Order) recalculate() {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		subtotal = subtotal.Add(it.TotalPrice)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.DeliveryFee)
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() Order {
	c := *o
	c.Items = make([]ItemRef, len(o.Items))
	for i, it := range o.Items {
		it.DecorationIDs = slices.Clone(it.DecorationIDs)
		it.UploadedImages = slices.Clone(it.UploadedImages)
		c.Items[i] = it
	}
	c.CustomLoaves = slices.Clone(o.CustomLoaves)
	if o.ActualDelivery != nil {
		t := *o.ActualDelivery
		c.ActualDelivery = &t
	}
	return c
}
