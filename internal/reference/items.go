package reference

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/hrc-bakery/storefront/internal/catalog"
	"github.com/hrc-bakery/storefront/internal/order"
)

// CakeSummary is the part of a cake shown on resolved orders.
type CakeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

func summarize(c catalog.Cake) CakeSummary {
	s := CakeSummary{ID: c.ID, Name: c.Name, Description: c.Description}
	if len(c.Images) > 0 {
		s.Image = c.Images[0]
	}
	return s
}

// ResolvedOrderItem is an order line with every reference replaced by the
// catalog object it names.
type ResolvedOrderItem struct {
	Cake                CakeSummary           `json:"cake"`
	Size                catalog.PriceTier     `json:"size"`
	Cream               catalog.CreamOption   `json:"cream"`
	Decorations         []catalog.Decoration  `json:"decorations"`
	Container           catalog.ContainerType `json:"containerType"`
	Quantity            int                   `json:"quantity"`
	UnitPrice           decimal.Decimal       `json:"unitPrice"`
	DecorationSurcharge decimal.Decimal       `json:"decorationSurcharge"`
	TotalPrice          decimal.Decimal       `json:"totalPrice"`
	CustomNotes         string                `json:"customNotes,omitempty"`
	UploadedImages      []string              `json:"uploadedImages"`
}

// ResolvedDeliveryInfo is delivery info with the zone resolved.
type ResolvedDeliveryInfo struct {
	Zone                catalog.DeliveryZone `json:"zone"`
	Address             string               `json:"address"`
	Date                string               `json:"date"`
	Time                string               `json:"time"`
	SpecialInstructions string               `json:"specialInstructions,omitempty"`
}

// ResolveOrderItem resolves every reference of the line. It fails when the
// cake, size, cream or container cannot be resolved; decorations are best
// effort and may come back as a subset.
func (r *Resolver) ResolveOrderItem(ref order.ItemRef) (ResolvedOrderItem, bool) {
	cake, ok := r.Cake(ref.CakeID)
	if !ok {
		return ResolvedOrderItem{}, false
	}
	size, ok := r.CakeSize(ref.CakeID, ref.SizeWeight)
	if !ok {
		return ResolvedOrderItem{}, false
	}
	cream, ok := r.CreamOption(ref.CakeID, ref.CreamIndex)
	if !ok {
		return ResolvedOrderItem{}, false
	}
	container, ok := r.ContainerType(ref.ContainerTypeName)
	if !ok {
		return ResolvedOrderItem{}, false
	}

	return ResolvedOrderItem{
		Cake:                summarize(cake),
		Size:                size,
		Cream:               cream,
		Decorations:         r.Decorations(ref.DecorationIDs),
		Container:           container,
		Quantity:            ref.Quantity,
		UnitPrice:           ref.UnitPrice,
		DecorationSurcharge: ref.DecorationSurcharge,
		TotalPrice:          ref.TotalPrice,
		CustomNotes:         ref.CustomNotes,
		UploadedImages:      slices.Clone(ref.UploadedImages),
	}, true
}

// ResolveDeliveryInfo resolves the delivery zone. It fails when the zone is
// unknown.
func (r *Resolver) ResolveDeliveryInfo(info order.DeliveryInfo) (ResolvedDeliveryInfo, bool) {
	zone, ok := r.DeliveryZone(info.ZoneID)
	if !ok {
		return ResolvedDeliveryInfo{}, false
	}
	return ResolvedDeliveryInfo{
		Zone:                zone,
		Address:             info.Address,
		Date:                info.Date,
		Time:                info.Time,
		SpecialInstructions: info.SpecialInstructions,
	}, true
}
