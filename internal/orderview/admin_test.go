package orderview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrc-bakery/storefront/internal/order"
)

func TestToAdminOrder(t *testing.T) {
	f := newFixture(t)

	second := scenarioItem()
	second.CakeID = "prod2"
	created := f.create(t, "zone-1", scenarioItem(), second)

	r, ok := f.service.Get(context.Background(), created.ID)
	require.True(t, ok)
	require.Len(t, r.Items, 2)

	a := ToAdminOrder(r)
	assert.Equal(t, created.ID, a.ID)
	assert.Equal(t, created.Number, a.OrderNumber)
	assert.Equal(t, "Wanjiru Kamau", a.CustomerName)
	assert.Equal(t, "wanjiru@example.com", a.Email)
	assert.Equal(t, "+254700000001", a.Phone)
	assert.Equal(t, "Classic Vanilla Celebration Cake", a.Cake, "first item only")
	assert.Equal(t, "1 kg - 20 servings", a.Size)
	assert.Equal(t, "Vanilla Cream", a.Cream)
	assert.Equal(t, "Fresh Berries (KES 300), Chocolate Drip (KES 250)", a.Topping)
	assert.Equal(t, "None", a.Allergies)
	assert.Equal(t, 1, a.Quantity)
	assert.Equal(t, "CBD & Surrounding Areas", a.Zone)
	assert.Equal(t, "Moi Avenue 5", a.Address)
	assert.Equal(t, "2025-06-18", a.DeliveryDate)
	assert.Equal(t, order.StatusReceived, a.Status)
	assert.True(t, created.Total.Equal(a.Total))
}

func TestToAdminOrder_NoItems(t *testing.T) {
	a := ToAdminOrder(ResolvedOrder{
		ID:       "order_1",
		Customer: order.Customer{FirstName: "Otieno"},
		Status:   "on-hold",
	})

	assert.Equal(t, "Otieno", a.CustomerName, "no trailing space without a last name")
	assert.Empty(t, a.Cake)
	assert.Empty(t, a.Size)
	assert.Empty(t, a.Topping)
	assert.Equal(t, "None", a.Allergies)
	assert.Equal(t, order.Status("on-hold"), a.Status, "status passes through")
}

func TestToAdminOrders(t *testing.T) {
	f := newFixture(t)
	f.create(t, "zone-1", scenarioItem())
	f.create(t, "zone-2", scenarioItem())

	rows := ToAdminOrders(f.service.List(context.Background()))
	require.Len(t, rows, 2)
	assert.Equal(t, "Westlands & Parklands", rows[0].Zone)
	assert.Equal(t, "CBD & Surrounding Areas", rows[1].Zone)
}
