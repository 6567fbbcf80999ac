// Package cart holds customized cake lines and merges lines whose
// customizations are equal.
package cart

import (
	"slices"
	"strings"

	"github.com/hrc-bakery/storefront/internal/catalog"
)

// Customization is the set of choices a customer made for one cake.
// A nil selection means nothing was chosen.
type Customization struct {
	Size           *catalog.PriceTier     `json:"selectedSize,omitempty"`
	Cream          *catalog.CreamOption   `json:"selectedCream,omitempty"`
	Container      *catalog.ContainerType `json:"selectedContainerType,omitempty"`
	Decorations    []catalog.Decoration   `json:"selectedDecorations,omitempty"`
	CustomNotes    string                 `json:"customNotes,omitempty"`
	UploadedImages []string               `json:"uploadedImages,omitempty"`
}

// DecorationIDs returns the IDs of the selected decorations.
func (c Customization) DecorationIDs() []int {
	ids := make([]int, len(c.Decorations))
	for i, d := range c.Decorations {
		ids[i] = d.ID
	}
	return ids
}

// Equal reports whether c and o describe the same purchasable
// configuration. Creams compare by name and surcharge, decorations compare
// as a multiset of IDs, notes compare after trimming, and uploaded images
// compare in order.
func (c Customization) Equal(o Customization) bool {
	if !equalBy(c.Size, o.Size, func(a, b *catalog.PriceTier) bool { return a.Weight == b.Weight }) {
		return false
	}
	if !equalBy(c.Cream, o.Cream, func(a, b *catalog.CreamOption) bool {
		return a.Name == b.Name && a.Surcharge.Equal(b.Surcharge)
	}) {
		return false
	}
	if !equalBy(c.Container, o.Container, func(a, b *catalog.ContainerType) bool { return a.Value == b.Value }) {
		return false
	}
	if !sameIDs(c.Decorations, o.Decorations) {
		return false
	}
	if strings.TrimSpace(c.CustomNotes) != strings.TrimSpace(o.CustomNotes) {
		return false
	}
	return slices.Equal(c.UploadedImages, o.UploadedImages)
}

func equalBy[T any](a, b *T, eq func(a, b *T) bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return eq(a, b)
}

func sameIDs(a, b []catalog.Decoration) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[int]int, len(a))
	for _, d := range a {
		counts[d.ID]++
	}
	for _, d := range b {
		if counts[d.ID] == 0 {
			return false
		}
		counts[d.ID]--
	}
	return true
}

// Line is one customized cake and its quantity.
type Line struct {
	CakeID        string        `json:"cakeId"`
	Customization Customization `json:"customization"`
	Quantity      int           `json:"quantity"`
}

// Cart is an ordered list of lines. The zero value is an empty cart.
// A Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// Add adds quantity of the cake. When a line for the same cake with an
// equal customization exists, its quantity grows; otherwise a new line is
// appended. Add returns the index of the affected line, or -1 when quantity
// is not positive.
func (c *Cart) Add(cakeID string, custom Customization, quantity int) int {
	if quantity <= 0 {
		return -1
	}
	for i := range c.lines {
		l := &c.lines[i]
		if l.CakeID == cakeID && l.Customization.Equal(custom) {
			l.Quantity += quantity
			return i
		}
	}
	c.lines = append(c.lines, Line{
		CakeID:        cakeID,
		Customization: custom,
		Quantity:      quantity,
	})
	return len(c.lines) - 1
}

// Increment adds one to the quantity of line i.
func (c *Cart) Increment(i int) bool {
	return c.SetQuantity(i, c.quantity(i)+1)
}

// Decrement removes one from the quantity of line i. A line that reaches
// zero is removed.
func (c *Cart) Decrement(i int) bool {
	return c.SetQuantity(i, c.quantity(i)-1)
}

// SetQuantity sets the quantity of line i, removing the line when quantity
// is zero or below. It reports false for an out of range index.
func (c *Cart) SetQuantity(i, quantity int) bool {
	if i < 0 || i >= len(c.lines) {
		return false
	}
	if quantity <= 0 {
		return c.Remove(i)
	}
	c.lines[i].Quantity = quantity
	return true
}

// Remove deletes line i.
func (c *Cart) Remove(i int) bool {
	if i < 0 || i >= len(c.lines) {
		return false
	}
	c.lines = slices.Delete(c.lines, i, i+1)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() { c.lines = nil }

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.lines) }

// ItemCount returns the summed quantity of all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) quantity(i int) int {
	if i < 0 || i >= len(c.lines) {
		return 0
	}
	return c.lines[i].Quantity
}
