package order

import (
	"fmt"
	"strings"
)

// validateCreate checks only structural completeness. References are not
// resolved here; that happens lazily when the order is displayed.
func validateCreate(req CreateRequest, items []ItemRef) error {
	if strings.TrimSpace(req.Customer.FirstName) == "" {
		return &ValidationError{Field: "customer.firstName", Reason: "required"}
	}
	if strings.TrimSpace(req.Customer.Email) == "" && strings.TrimSpace(req.Customer.Phone) == "" {
		return &ValidationError{Field: "customer", Reason: "email or phone required"}
	}
	if req.Delivery.ZoneID == "" {
		return &ValidationError{Field: "delivery.zoneId", Reason: "required"}
	}
	if strings.TrimSpace(req.Delivery.Address) == "" {
		return &ValidationError{Field: "delivery.address", Reason: "required"}
	}
	if req.DeliveryFee.IsNegative() {
		return &ValidationError{Field: "deliveryFee", Reason: "must not be negative"}
	}
	if len(items) == 0 && len(req.CustomLoaves) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one item required"}
	}
	for i, l := range req.CustomLoaves {
		if l.Quantity <= 0 {
			return &ValidationError{Field: fmt.Sprintf("customLoaves[%d].quantity", i), Reason: "must be greater than 0"}
		}
	}
	return validateItems(items)
}

// validateItems checks every line and fills TotalPrice when it was left
// unset. A provided TotalPrice must match the line arithmetic.
func validateItems(items []ItemRef) error {
	for i := range items {
		it := &items[i]
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		switch {
		case it.CakeID == "":
			return &ValidationError{Field: field("cakeId"), Reason: "required"}
		case it.SizeWeight == "":
			return &ValidationError{Field: field("sizeWeight"), Reason: "required"}
		case it.CreamIndex < 0:
			return &ValidationError{Field: field("creamIndex"), Reason: "must not be negative"}
		case it.ContainerTypeName == "":
			return &ValidationError{Field: field("containerTypeName"), Reason: "required"}
		case it.Quantity <= 0:
			return &ValidationError{Field: field("quantity"), Reason: "must be greater than 0"}
		case it.UnitPrice.IsNegative() || it.DecorationSurcharge.IsNegative():
			return &ValidationError{Field: field("unitPrice"), Reason: "must not be negative"}
		}

		want := it.LineTotal()
		if it.TotalPrice.IsZero() {
			it.TotalPrice = want
		} else if !it.TotalPrice.Equal(want) {
			return &ValidationError{
				Field:  field("totalPrice"),
				Reason: fmt.Sprintf("expected %s, got %s", want, it.TotalPrice),
			}
		}
	}
	return nil
}
