// Package catalog holds the bakery reference tables: cakes with their price
// tiers and cream options, decorations, and delivery zones.
package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by admin mutations addressing an unknown record.
var ErrNotFound = errors.New("catalog record not found")

// Cake is a product of the storefront.
type Cake struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Images       []string      `json:"images"`
	Prices       []PriceTier   `json:"prices"`
	CreamOptions []CreamOption `json:"creamOptions"`
	DefaultCream int           `json:"defaultCream"`
	Active       bool          `json:"active"`
}

// PriceTier is one size of a cake. Weight labels are unique per cake.
type PriceTier struct {
	Weight   string          `json:"weight"`
	Amount   decimal.Decimal `json:"amount"`
	Servings int             `json:"servings"`
}

// Label renders the human size label used by the admin views.
func (t PriceTier) Label() string {
	return fmt.Sprintf("%s - %d servings", t.Weight, t.Servings)
}

// CreamOption is a cream choice with its surcharge.
type CreamOption struct {
	Name      string          `json:"name"`
	Surcharge decimal.Decimal `json:"surcharge"`
}

// creamSurchargePattern matches the "(+N)" price suffix of legacy cream strings.
var creamSurchargePattern = regexp.MustCompile(`\(\+(\d+)\)`)

// ParseCreamOption decodes the admin data convention where the surcharge is
// embedded in the display string, e.g. "Chocolate Cream (+200)". A string
// without the suffix has a zero surcharge.
func ParseCreamOption(s string) CreamOption {
	m := creamSurchargePattern.FindStringSubmatchIndex(s)
	if m == nil {
		return CreamOption{Name: strings.TrimSpace(s), Surcharge: decimal.Zero}
	}
	n, err := strconv.ParseInt(s[m[2]:m[3]], 10, 64)
	if err != nil {
		// Digits overflowing int64 are treated as no surcharge.
		return CreamOption{Name: strings.TrimSpace(s), Surcharge: decimal.Zero}
	}
	name := strings.TrimSpace(s[:m[0]] + s[m[1]:])
	return CreamOption{Name: name, Surcharge: decimal.NewFromInt(n)}
}

// String renders the option back in the legacy "Name (+N)" form.
func (o CreamOption) String() string {
	if o.Surcharge.IsZero() {
		return o.Name
	}
	return fmt.Sprintf("%s (+%s)", o.Name, o.Surcharge.String())
}

// UnmarshalJSON accepts both the typed object and the legacy string form.
func (o *CreamOption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = ParseCreamOption(s)
		return nil
	}
	type plain CreamOption
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "decode cream option")
	}
	*o = CreamOption(p)
	return nil
}

// Decoration is an add-on topping. Identity is by ID.
type Decoration struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

// DecorationCategory groups decorations for display. A decoration may be
// listed by several categories.
type DecorationCategory struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DecorationIDs []int  `json:"decorationIds"`
}

// DeliveryZone is an area served with a flat delivery fee.
type DeliveryZone struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Fee           decimal.Decimal `json:"fee"`
	EstimatedTime string          `json:"estimatedTime"`
	Available     bool            `json:"available"`
}

// ContainerType is a packaging choice. The set is fixed.
type ContainerType struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var containerTypes = []ContainerType{
	{Name: "Round Tin", Value: "round-tin"},
	{Name: "Square Tin", Value: "square-tin"},
	{Name: "Heart Tin", Value: "heart-tin"},
	{Name: "Standard Box", Value: "standard-box"},
	{Name: "Premium Box", Value: "premium-box"},
}

// ContainerTypes returns the packaging choices in display order.
func ContainerTypes() []ContainerType {
	out := make([]ContainerType, len(containerTypes))
	copy(out, containerTypes)
	return out
}

// LookupContainerType finds a container by its exact display name.
func LookupContainerType(name string) (ContainerType, bool) {
	for _, c := range containerTypes {
		if c.Name == name {
			return c, true
		}
	}
	return ContainerType{}, false
}
