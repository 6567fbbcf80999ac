package orderview

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrc-bakery/storefront/internal/order"
)

// AdminOrder is the flat single-row order shape used by the older admin
// screens.
type AdminOrder struct {
	ID           string          `json:"id"`
	OrderNumber  string          `json:"orderNumber"`
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Cake         string          `json:"cake"`
	Size         string          `json:"size"`
	Cream        string          `json:"cream"`
	Topping      string          `json:"topping"`
	Allergies    string          `json:"allergies"`
	Quantity     int             `json:"quantity"`
	Zone         string          `json:"zone"`
	Address      string          `json:"address"`
	DeliveryDate string          `json:"deliveryDate"`
	DeliveryTime string          `json:"deliveryTime"`
	Total        decimal.Decimal `json:"total"`
	Status       order.Status    `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ToAdminOrder flattens a resolved order. Only the first item is
// represented; the remaining items are not visible in this shape.
func ToAdminOrder(r ResolvedOrder) AdminOrder {
	a := AdminOrder{
		ID:           r.ID,
		OrderNumber:  r.Number,
		CustomerName: r.Customer.FullName(),
		Email:        r.Customer.Email,
		Phone:        r.Customer.Phone,
		Allergies:    "None",
		Zone:         r.Delivery.Zone.Name,
		Address:      r.Delivery.Address,
		DeliveryDate: r.Delivery.Date,
		DeliveryTime: r.Delivery.Time,
		Total:        r.Total,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}
	if len(r.Items) == 0 {
		return a
	}

	first := r.Items[0]
	a.Cake = first.Cake.Name
	a.Size = first.Size.Label()
	a.Cream = first.Cream.Name
	a.Quantity = first.Quantity

	toppings := make([]string, len(first.Decorations))
	for i, d := range first.Decorations {
		toppings[i] = fmt.Sprintf("%s (KES %s)", d.Name, d.Price.String())
	}
	a.Topping = strings.Join(toppings, ", ")
	return a
}

// ToAdminOrders flattens every resolved order.
func ToAdminOrders(rs []ResolvedOrder) []AdminOrder {
	out := make([]AdminOrder, len(rs))
	for i, r := range rs {
		out[i] = ToAdminOrder(r)
	}
	return out
}
