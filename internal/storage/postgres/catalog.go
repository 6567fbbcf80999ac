package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrc-bakery/storefront/internal/catalog"
)

const (
	listCakesSQL = `SELECT id, name, description, images, cream_options, default_cream, active
		FROM cakes ORDER BY position, id`

	listPricesSQL = `SELECT cake_id, weight, amount, servings
		FROM cake_prices ORDER BY cake_id, position`

	listDecorationsSQL = `SELECT id, name, description, image, price, available
		FROM decorations ORDER BY id`

	listCategoriesSQL = `SELECT id, name, decoration_ids
		FROM decoration_categories ORDER BY position, id`

	listZonesSQL = `SELECT id, name, description, fee, estimated_time, available
		FROM delivery_zones ORDER BY position, id`

	upsertCakeSQL = `INSERT INTO cakes (id, name, description, images, cream_options, default_cream, active, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE((SELECT MAX(position) + 1 FROM cakes), 0))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			images = EXCLUDED.images,
			cream_options = EXCLUDED.cream_options,
			default_cream = EXCLUDED.default_cream,
			active = EXCLUDED.active`

	deletePricesSQL = `DELETE FROM cake_prices WHERE cake_id = $1`

	insertPriceSQL = `INSERT INTO cake_prices (cake_id, weight, amount, servings, position)
		VALUES ($1, $2, $3, $4, $5)`

	deleteCakeSQL = `DELETE FROM cakes WHERE id = $1`

	upsertDecorationSQL = `INSERT INTO decorations (id, name, description, image, price, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			price = EXCLUDED.price,
			available = EXCLUDED.available`

	upsertCategorySQL = `INSERT INTO decoration_categories (id, name, decoration_ids, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			decoration_ids = EXCLUDED.decoration_ids,
			position = EXCLUDED.position`

	deleteDecorationSQL = `DELETE FROM decorations WHERE id = $1`

	unlistDecorationSQL = `UPDATE decoration_categories
		SET decoration_ids = array_remove(decoration_ids, $1)
		WHERE $1 = ANY (decoration_ids)`

	saveCategorySQL = `INSERT INTO decoration_categories (id, name, decoration_ids, position)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) + 1 FROM decoration_categories), 0))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			decoration_ids = EXCLUDED.decoration_ids`

	deleteZoneSQL = `DELETE FROM delivery_zones WHERE id = $1`

	upsertZoneSQL = `INSERT INTO delivery_zones (id, name, description, fee, estimated_time, available, position)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE((SELECT MAX(position) + 1 FROM delivery_zones), 0))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			fee = EXCLUDED.fee,
			estimated_time = EXCLUDED.estimated_time,
			available = EXCLUDED.available`
)

var (
	_ catalog.Source = (*CatalogRepository)(nil)
	_ catalog.Writer = (*CatalogRepository)(nil)
)

// CatalogRepository loads and persists the reference tables. Cream options
// are stored in their legacy "Name (+N)" string form.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// LoadCatalog reads every reference table.
func (r *CatalogRepository) LoadCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	cakes, err := r.loadCakes(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, listDecorationsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list decorations")
	}
	decorations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Decoration, error) {
		var (
			d  catalog.Decoration
			id int32
		)
		err := row.Scan(&id, &d.Name, &d.Description, &d.Image, &d.Price, &d.Available)
		d.ID = int(id)
		return d, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan decorations")
	}

	rows, err = r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.DecorationCategory, error) {
		var (
			c   catalog.DecorationCategory
			ids []int32
		)
		err := row.Scan(&c.ID, &c.Name, &ids)
		c.DecorationIDs = fromInt32s(ids)
		return c, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan categories")
	}

	rows, err = r.pool.Query(ctx, listZonesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list zones")
	}
	zones, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.DeliveryZone, error) {
		var z catalog.DeliveryZone
		err := row.Scan(&z.ID, &z.Name, &z.Description, &z.Fee, &z.EstimatedTime, &z.Available)
		return z, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan zones")
	}

	return &catalog.Snapshot{
		Cakes:       cakes,
		Decorations: decorations,
		Categories:  categories,
		Zones:       zones,
	}, nil
}

func (r *CatalogRepository) loadCakes(ctx context.Context) ([]catalog.Cake, error) {
	rows, err := r.pool.Query(ctx, listCakesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list cakes")
	}
	cakes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Cake, error) {
		var (
			c            catalog.Cake
			creams       []string
			defaultCream int32
		)
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Images, &creams, &defaultCream, &c.Active)
		c.DefaultCream = int(defaultCream)
		c.CreamOptions = make([]catalog.CreamOption, len(creams))
		for i, s := range creams {
			c.CreamOptions[i] = catalog.ParseCreamOption(s)
		}
		return c, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan cakes")
	}

	rows, err = r.pool.Query(ctx, listPricesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list prices")
	}
	type price struct {
		cakeID string
		tier   catalog.PriceTier
	}
	prices, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (price, error) {
		var (
			p        price
			servings int32
		)
		err := row.Scan(&p.cakeID, &p.tier.Weight, &p.tier.Amount, &servings)
		p.tier.Servings = int(servings)
		return p, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan prices")
	}

	index := make(map[string]int, len(cakes))
	for i, c := range cakes {
		index[c.ID] = i
	}
	for _, p := range prices {
		if i, ok := index[p.cakeID]; ok {
			cakes[i].Prices = append(cakes[i].Prices, p.tier)
		}
	}
	return cakes, nil
}

// SaveCake upserts a cake and replaces its price tiers.
func (r *CatalogRepository) SaveCake(ctx context.Context, c catalog.Cake) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return saveCake(ctx, tx, c)
	})
}

func saveCake(ctx context.Context, q execer, c catalog.Cake) error {
	creams := make([]string, len(c.CreamOptions))
	for i, o := range c.CreamOptions {
		creams[i] = o.String()
	}
	images := c.Images
	if images == nil {
		images = []string{}
	}

	if _, err := q.Exec(ctx, upsertCakeSQL,
		c.ID, c.Name, c.Description, images, creams, int32(c.DefaultCream), c.Active,
	); err != nil {
		return errors.Wrapf(err, "upsert cake %q", c.ID)
	}
	if _, err := q.Exec(ctx, deletePricesSQL, c.ID); err != nil {
		return errors.Wrapf(err, "clear prices of %q", c.ID)
	}
	for i, p := range c.Prices {
		if _, err := q.Exec(ctx, insertPriceSQL,
			c.ID, p.Weight, p.Amount, int32(p.Servings), int32(i),
		); err != nil {
			return errors.Wrapf(err, "insert price %q of %q", p.Weight, c.ID)
		}
	}
	return nil
}

// DeleteCake removes a cake and, by cascade, its price tiers.
func (r *CatalogRepository) DeleteCake(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCakeSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete cake %q", id)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// SaveDecoration upserts a decoration.
func (r *CatalogRepository) SaveDecoration(ctx context.Context, d catalog.Decoration) error {
	return saveDecoration(ctx, r.pool, d)
}

func saveDecoration(ctx context.Context, q execer, d catalog.Decoration) error {
	if _, err := q.Exec(ctx, upsertDecorationSQL,
		int32(d.ID), d.Name, d.Description, d.Image, d.Price, d.Available,
	); err != nil {
		return errors.Wrapf(err, "upsert decoration %d", d.ID)
	}
	return nil
}

// DeleteDecoration removes a decoration and unlists it from every category.
func (r *CatalogRepository) DeleteDecoration(ctx context.Context, id int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteDecorationSQL, int32(id))
		if err != nil {
			return errors.Wrapf(err, "delete decoration %d", id)
		}
		if tag.RowsAffected() == 0 {
			return catalog.ErrNotFound
		}
		if _, err := tx.Exec(ctx, unlistDecorationSQL, int32(id)); err != nil {
			return errors.Wrapf(err, "unlist decoration %d", id)
		}
		return nil
	})
}

// SaveCategory upserts a decoration category. New categories are listed
// last.
func (r *CatalogRepository) SaveCategory(ctx context.Context, c catalog.DecorationCategory) error {
	if _, err := r.pool.Exec(ctx, saveCategorySQL, c.ID, c.Name, toInt32s(c.DecorationIDs)); err != nil {
		return errors.Wrapf(err, "upsert category %q", c.ID)
	}
	return nil
}

// SaveZone upserts a delivery zone.
func (r *CatalogRepository) SaveZone(ctx context.Context, z catalog.DeliveryZone) error {
	return saveZone(ctx, r.pool, z)
}

func saveZone(ctx context.Context, q execer, z catalog.DeliveryZone) error {
	if _, err := q.Exec(ctx, upsertZoneSQL,
		z.ID, z.Name, z.Description, z.Fee, z.EstimatedTime, z.Available,
	); err != nil {
		return errors.Wrapf(err, "upsert zone %q", z.ID)
	}
	return nil
}

// DeleteZone removes a delivery zone.
func (r *CatalogRepository) DeleteZone(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteZoneSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete zone %q", id)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// SaveSnapshot upserts a full snapshot in one transaction. Records absent
// from the snapshot are left in place.
func (r *CatalogRepository) SaveSnapshot(ctx context.Context, s *catalog.Snapshot) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, c := range s.Cakes {
			if err := saveCake(ctx, tx, c); err != nil {
				return err
			}
		}
		for _, d := range s.Decorations {
			if err := saveDecoration(ctx, tx, d); err != nil {
				return err
			}
		}
		for i, c := range s.Categories {
			if _, err := tx.Exec(ctx, upsertCategorySQL,
				c.ID, c.Name, toInt32s(c.DecorationIDs), int32(i),
			); err != nil {
				return errors.Wrapf(err, "upsert category %q", c.ID)
			}
		}
		for _, z := range s.Zones {
			if err := saveZone(ctx, tx, z); err != nil {
				return err
			}
		}
		return nil
	})
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32s(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
