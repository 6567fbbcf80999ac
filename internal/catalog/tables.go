package catalog

import (
	"context"
	"slices"
	"sync"
)

// Snapshot is the full content of the reference tables.
type Snapshot struct {
	Cakes       []Cake               `json:"cakes"`
	Decorations []Decoration         `json:"decorations"`
	Categories  []DecorationCategory `json:"categories"`
	Zones       []DeliveryZone       `json:"zones"`
}

// Source loads the reference tables at startup.
type Source interface {
	LoadCatalog(ctx context.Context) (*Snapshot, error)
}

// Tables is the process-local copy of the reference data. Reads scan the
// tables linearly; admin mutations notify the OnChange subscribers after the
// write is applied.
type Tables struct {
	mu          sync.RWMutex
	cakes       []Cake
	decorations []Decoration
	categories  []DecorationCategory
	zones       []DeliveryZone

	subMu       sync.Mutex
	subscribers []func()
}

// NewTables creates tables seeded with the given snapshot.
func NewTables(s *Snapshot) *Tables {
	t := &Tables{}
	if s != nil {
		t.cakes = slices.Clone(s.Cakes)
		t.decorations = slices.Clone(s.Decorations)
		t.categories = slices.Clone(s.Categories)
		t.zones = slices.Clone(s.Zones)
	}
	return t
}

// OnChange registers fn to be called after every mutation.
func (t *Tables) OnChange(fn func()) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

func (t *Tables) notify() {
	t.subMu.Lock()
	subs := slices.Clone(t.subscribers)
	t.subMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Snapshot returns a copy of all tables.
func (t *Tables) Snapshot() *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &Snapshot{
		Cakes:       cloneCakes(t.cakes),
		Decorations: slices.Clone(t.decorations),
		Categories:  cloneCategories(t.categories),
		Zones:       slices.Clone(t.zones),
	}
}

// Cakes lists all cakes. When activeOnly is set, inactive cakes are skipped.
func (t *Tables) Cakes(activeOnly bool) []Cake {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Cake, 0, len(t.cakes))
	for _, c := range t.cakes {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, cloneCake(c))
	}
	return out
}

// Cake finds a cake by ID.
func (t *Tables) Cake(id string) (Cake, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, c := range t.cakes {
		if c.ID == id {
			return cloneCake(c), true
		}
	}
	return Cake{}, false
}

// Decorations lists all decorations.
func (t *Tables) Decorations() []Decoration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.decorations)
}

// Decoration finds a decoration by ID.
func (t *Tables) Decoration(id int) (Decoration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, d := range t.decorations {
		if d.ID == id {
			return d, true
		}
	}
	return Decoration{}, false
}

// Categories lists the decoration categories.
func (t *Tables) Categories() []DecorationCategory {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneCategories(t.categories)
}

// Zones lists all delivery zones.
func (t *Tables) Zones() []DeliveryZone {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.zones)
}

// Zone finds a delivery zone by ID.
func (t *Tables) Zone(id string) (DeliveryZone, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, z := range t.zones {
		if z.ID == id {
			return z, true
		}
	}
	return DeliveryZone{}, false
}

// PutCake inserts or replaces a cake.
func (t *Tables) PutCake(c Cake) {
	t.mu.Lock()
	c = cloneCake(c)
	if i := slices.IndexFunc(t.cakes, func(x Cake) bool { return x.ID == c.ID }); i >= 0 {
		t.cakes[i] = c
	} else {
		t.cakes = append(t.cakes, c)
	}
	t.mu.Unlock()
	t.notify()
}

// DeleteCake removes a cake.
func (t *Tables) DeleteCake(id string) error {
	t.mu.Lock()
	i := slices.IndexFunc(t.cakes, func(x Cake) bool { return x.ID == id })
	if i < 0 {
		t.mu.Unlock()
		return ErrNotFound
	}
	t.cakes = slices.Delete(t.cakes, i, i+1)
	t.mu.Unlock()
	t.notify()
	return nil
}

// PutDecoration inserts or replaces a decoration.
func (t *Tables) PutDecoration(d Decoration) {
	t.mu.Lock()
	if i := slices.IndexFunc(t.decorations, func(x Decoration) bool { return x.ID == d.ID }); i >= 0 {
		t.decorations[i] = d
	} else {
		t.decorations = append(t.decorations, d)
	}
	t.mu.Unlock()
	t.notify()
}

// DeleteDecoration removes a decoration and unlists it from every category.
func (t *Tables) DeleteDecoration(id int) error {
	t.mu.Lock()
	i := slices.IndexFunc(t.decorations, func(x Decoration) bool { return x.ID == id })
	if i < 0 {
		t.mu.Unlock()
		return ErrNotFound
	}
	t.decorations = slices.Delete(t.decorations, i, i+1)
	for j := range t.categories {
		t.categories[j].DecorationIDs = slices.DeleteFunc(
			slices.Clone(t.categories[j].DecorationIDs),
			func(x int) bool { return x == id },
		)
	}
	t.mu.Unlock()
	t.notify()
	return nil
}

// PutCategory inserts or replaces a decoration category.
func (t *Tables) PutCategory(c DecorationCategory) {
	t.mu.Lock()
	c.DecorationIDs = slices.Clone(c.DecorationIDs)
	if i := slices.IndexFunc(t.categories, func(x DecorationCategory) bool { return x.ID == c.ID }); i >= 0 {
		t.categories[i] = c
	} else {
		t.categories = append(t.categories, c)
	}
	t.mu.Unlock()
	t.notify()
}

// PutZone inserts or replaces a delivery zone.
func (t *Tables) PutZone(z DeliveryZone) {
	t.mu.Lock()
	if i := slices.IndexFunc(t.zones, func(x DeliveryZone) bool { return x.ID == z.ID }); i >= 0 {
		t.zones[i] = z
	} else {
		t.zones = append(t.zones, z)
	}
	t.mu.Unlock()
	t.notify()
}

// DeleteZone removes a delivery zone.
func (t *Tables) DeleteZone(id string) error {
	t.mu.Lock()
	i := slices.IndexFunc(t.zones, func(x DeliveryZone) bool { return x.ID == id })
	if i < 0 {
		t.mu.Unlock()
		return ErrNotFound
	}
	t.zones = slices.Delete(t.zones, i, i+1)
	t.mu.Unlock()
	t.notify()
	return nil
}

func cloneCake(c Cake) Cake {
	c.Images = slices.Clone(c.Images)
	c.Prices = slices.Clone(c.Prices)
	c.CreamOptions = slices.Clone(c.CreamOptions)
	return c
}

func cloneCakes(in []Cake) []Cake {
	out := make([]Cake, len(in))
	for i, c := range in {
		out[i] = cloneCake(c)
	}
	return out
}

func cloneCategories(in []DecorationCategory) []DecorationCategory {
	out := make([]DecorationCategory, len(in))
	for i, c := range in {
		c.DecorationIDs = slices.Clone(c.DecorationIDs)
		out[i] = c
	}
	return out
}
