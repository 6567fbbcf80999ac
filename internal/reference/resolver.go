// Package reference turns the identifiers stored on orders into catalog
// objects. Lookups are cached per sub-object; a lookup that cannot be
// satisfied reports ok == false instead of failing.
package reference

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/hrc-bakery/storefront/internal/catalog"
)

// Tables is the read side of the reference tables.
type Tables interface {
	Cake(id string) (catalog.Cake, bool)
	Decoration(id int) (catalog.Decoration, bool)
	Zone(id string) (catalog.DeliveryZone, bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMeterProvider records cache hits and misses with the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Resolver) { r.meterProvider = mp }
}

// Resolver is the cached lookup layer over the reference tables. The cache
// has no TTL: call ClearCache (or subscribe it to catalog.Tables.OnChange)
// whenever the tables are mutated.
type Resolver struct {
	tables Tables

	mu    sync.RWMutex
	cache map[cacheKey]any
	gen   uint64

	meterProvider metric.MeterProvider
	hits          metric.Int64Counter
	misses        metric.Int64Counter
}

// NewResolver creates a Resolver over the given tables.
func NewResolver(tables Tables, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		tables:        tables,
		cache:         make(map[cacheKey]any),
		meterProvider: noop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(r)
	}

	meter := r.meterProvider.Meter("github.com/hrc-bakery/storefront/internal/reference")
	var err error
	if r.hits, err = meter.Int64Counter("reference.cache.hits",
		metric.WithDescription("Reference lookups served from cache"),
	); err != nil {
		return nil, errors.Wrap(err, "create hits counter")
	}
	if r.misses, err = meter.Int64Counter("reference.cache.misses",
		metric.WithDescription("Reference lookups that scanned the tables"),
	); err != nil {
		return nil, errors.Wrap(err, "create misses counter")
	}
	return r, nil
}

// ClearCache drops every cached lookup.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey]any)
	r.gen++
}

// CacheSize reports the number of cached lookups.
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// cacheKey identifies one cached lookup. Fields are compared separately, so
// identifiers containing separators cannot alias each other.
type cacheKey struct {
	kind string
	id   string
	sub  string
	n    int
}

// lookup serves key from the cache or calls load. Only found values are
// cached, and a value loaded across a ClearCache is not stored.
func lookup[T any](r *Resolver, key cacheKey, load func() (T, bool)) (T, bool) {
	attrs := metric.WithAttributes(attribute.String("kind", key.kind))

	r.mu.RLock()
	v, ok := r.cache[key]
	gen := r.gen
	r.mu.RUnlock()
	if ok {
		r.hits.Add(context.Background(), 1, attrs)
		return v.(T), true
	}

	r.misses.Add(context.Background(), 1, attrs)
	val, found := load()
	if !found {
		var zero T
		return zero, false
	}

	r.mu.Lock()
	if r.gen == gen {
		r.cache[key] = val
	}
	r.mu.Unlock()
	return val, true
}

// Cake resolves a cake by ID. The returned value must not be modified.
func (r *Resolver) Cake(id string) (catalog.Cake, bool) {
	return lookup(r, cacheKey{kind: "cake", id: id}, func() (catalog.Cake, bool) {
		return r.tables.Cake(id)
	})
}

// CakeSize resolves a price tier by exact, case-sensitive weight label.
func (r *Resolver) CakeSize(cakeID, weight string) (catalog.PriceTier, bool) {
	return lookup(r, cacheKey{kind: "size", id: cakeID, sub: weight}, func() (catalog.PriceTier, bool) {
		cake, ok := r.Cake(cakeID)
		if !ok {
			return catalog.PriceTier{}, false
		}
		for _, tier := range cake.Prices {
			if tier.Weight == weight {
				return tier, true
			}
		}
		return catalog.PriceTier{}, false
	})
}

// CreamOption resolves the cream at index for the cake.
func (r *Resolver) CreamOption(cakeID string, index int) (catalog.CreamOption, bool) {
	return lookup(r, cacheKey{kind: "cream", id: cakeID, n: index}, func() (catalog.CreamOption, bool) {
		cake, ok := r.Cake(cakeID)
		if !ok || index < 0 || index >= len(cake.CreamOptions) {
			return catalog.CreamOption{}, false
		}
		return cake.CreamOptions[index], true
	})
}

// Decoration resolves a decoration by ID.
func (r *Resolver) Decoration(id int) (catalog.Decoration, bool) {
	return lookup(r, cacheKey{kind: "decoration", n: id}, func() (catalog.Decoration, bool) {
		return r.tables.Decoration(id)
	})
}

// Decorations resolves each ID and silently drops the unknown ones.
func (r *Resolver) Decorations(ids []int) []catalog.Decoration {
	out := make([]catalog.Decoration, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.Decoration(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// DeliveryZone resolves a delivery zone by ID.
func (r *Resolver) DeliveryZone(id string) (catalog.DeliveryZone, bool) {
	return lookup(r, cacheKey{kind: "zone", id: id}, func() (catalog.DeliveryZone, bool) {
		return r.tables.Zone(id)
	})
}

// ContainerType resolves a packaging choice from the fixed set. Unknown
// names do not resolve.
func (r *Resolver) ContainerType(name string) (catalog.ContainerType, bool) {
	return catalog.LookupContainerType(name)
}
