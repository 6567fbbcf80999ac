//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hrc-bakery/storefront/db"
	"github.com/hrc-bakery/storefront/internal/auth"
	"github.com/hrc-bakery/storefront/internal/catalog"
)

// --- Helpers ---

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "hrc",
				"POSTGRES_PASSWORD": "hrc",
				"POSTGRES_DB":       "hrc",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://hrc:hrc@%s:%s/hrc?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// Applying twice must be harmless.
	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

// --- Tests ---

func TestCatalogRepository_RoundTrip(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)

	seed, err := catalog.DecodeSnapshot(db.CatalogSeed)
	require.NoError(t, err)
	require.NoError(t, repo.SaveSnapshot(ctx, seed))
	// Re-seeding upserts in place.
	require.NoError(t, repo.SaveSnapshot(ctx, seed))

	got, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, got.Cakes, len(seed.Cakes))
	require.Len(t, got.Decorations, len(seed.Decorations))
	require.Len(t, got.Categories, len(seed.Categories))
	require.Len(t, got.Zones, len(seed.Zones))

	for i, want := range seed.Cakes {
		c := got.Cakes[i]
		assert.Equal(t, want.ID, c.ID)
		require.Len(t, c.Prices, len(want.Prices), want.ID)
		for j, p := range want.Prices {
			assert.Equal(t, p.Weight, c.Prices[j].Weight)
			assert.True(t, p.Amount.Equal(c.Prices[j].Amount), "%s %s", want.ID, p.Weight)
		}
		require.Len(t, c.CreamOptions, len(want.CreamOptions))
		for j, o := range want.CreamOptions {
			assert.Equal(t, o.Name, c.CreamOptions[j].Name)
			assert.True(t, o.Surcharge.Equal(c.CreamOptions[j].Surcharge))
		}
	}
	assert.Equal(t, seed.Categories[0].DecorationIDs, got.Categories[0].DecorationIDs)
}

func TestCatalogRepository_Writer(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)

	cake := catalog.Cake{
		ID:   "prod9",
		Name: "Lemon Drizzle",
		Prices: []catalog.PriceTier{
			{Weight: "1 kg", Amount: decimal.NewFromInt(2800), Servings: 20},
		},
		CreamOptions: []catalog.CreamOption{{Name: "Lemon Curd", Surcharge: decimal.NewFromInt(150)}},
		Active:       true,
	}
	require.NoError(t, repo.SaveCake(ctx, cake))

	cake.Prices = append(cake.Prices, catalog.PriceTier{Weight: "2 kg", Amount: decimal.NewFromInt(5400), Servings: 40})
	require.NoError(t, repo.SaveCake(ctx, cake))

	require.NoError(t, repo.SaveDecoration(ctx, catalog.Decoration{
		ID: 42, Name: "Gold Leaf", Price: decimal.NewFromInt(900), Available: true,
	}))
	require.NoError(t, repo.SaveZone(ctx, catalog.DeliveryZone{
		ID: "zone-9", Name: "Airport", Fee: decimal.NewFromInt(1200), Available: true,
	}))

	got, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, got.Cakes, 1)
	assert.Len(t, got.Cakes[0].Prices, 2)
	assert.Equal(t, "Lemon Curd", got.Cakes[0].CreamOptions[0].Name)
	require.Len(t, got.Decorations, 1)
	assert.Equal(t, 42, got.Decorations[0].ID)
	require.Len(t, got.Zones, 1)
	assert.True(t, decimal.NewFromInt(1200).Equal(got.Zones[0].Fee))

	require.NoError(t, repo.DeleteCake(ctx, "prod9"))
	assert.ErrorIs(t, repo.DeleteCake(ctx, "prod9"), catalog.ErrNotFound)
}

func TestCatalogRepository_CategoriesAndDeletes(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)

	for _, d := range []catalog.Decoration{
		{ID: 1, Name: "Sprinkles", Price: decimal.NewFromInt(100), Available: true},
		{ID: 2, Name: "Gold Leaf", Price: decimal.NewFromInt(900), Available: true},
	} {
		require.NoError(t, repo.SaveDecoration(ctx, d))
	}
	require.NoError(t, repo.SaveCategory(ctx, catalog.DecorationCategory{ID: "toppings", Name: "Toppings", DecorationIDs: []int{1, 2}}))
	require.NoError(t, repo.SaveCategory(ctx, catalog.DecorationCategory{ID: "premium", Name: "Premium", DecorationIDs: []int{2}}))
	require.NoError(t, repo.SaveCategory(ctx, catalog.DecorationCategory{ID: "toppings", Name: "All Toppings", DecorationIDs: []int{1, 2}}))
	require.NoError(t, repo.SaveZone(ctx, catalog.DeliveryZone{ID: "zone-9", Name: "Airport", Fee: decimal.NewFromInt(1200), Available: true}))

	require.NoError(t, repo.DeleteDecoration(ctx, 2))
	assert.ErrorIs(t, repo.DeleteDecoration(ctx, 2), catalog.ErrNotFound)
	require.NoError(t, repo.DeleteZone(ctx, "zone-9"))
	assert.ErrorIs(t, repo.DeleteZone(ctx, "zone-9"), catalog.ErrNotFound)

	got, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, got.Decorations, 1)
	assert.Equal(t, 1, got.Decorations[0].ID)
	assert.Empty(t, got.Zones)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, catalog.DecorationCategory{ID: "toppings", Name: "All Toppings", DecorationIDs: []int{1}}, got.Categories[0], "position kept on update")
	assert.Equal(t, "premium", got.Categories[1].ID)
	assert.Empty(t, got.Categories[1].DecorationIDs)
}

func TestCatalogRepository_CreamOptionRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewCatalogRepository(pool)
	admin := catalog.NewAdmin(catalog.NewTables(&catalog.Snapshot{}), repo)

	cake := catalog.Cake{
		ID:     "prod9",
		Name:   "Lemon Drizzle",
		Prices: []catalog.PriceTier{{Weight: "1 kg", Amount: decimal.NewFromInt(2800), Servings: 20}},
		CreamOptions: []catalog.CreamOption{
			{Name: "Plain", Surcharge: decimal.Zero},
			{Name: "Gold", Surcharge: decimal.RequireFromString("150.00")},
		},
		Active: true,
	}
	require.NoError(t, admin.PutCake(ctx, cake))

	fractional := cake
	fractional.CreamOptions = []catalog.CreamOption{{Name: "Gold", Surcharge: decimal.RequireFromString("150.5")}}
	assert.ErrorIs(t, admin.PutCake(ctx, fractional), catalog.ErrInvalid)

	got, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, got.Cakes, 1)
	creams := got.Cakes[0].CreamOptions
	require.Len(t, creams, 2)
	assert.Equal(t, "Gold", creams[1].Name)
	assert.True(t, decimal.NewFromInt(150).Equal(creams[1].Surcharge), creams[1].Surcharge.String())
}

func TestAPIKeyRepository(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(pool)
	pepper := []byte("pepper")

	hash := auth.HashKey(pepper, "ops-key")
	require.NoError(t, repo.Upsert(ctx, "ops", hash))
	require.NoError(t, repo.Upsert(ctx, "ops-renamed", hash))

	info, err := repo.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "ops-renamed", info.Name)

	_, err = repo.FindByHash(ctx, auth.HashKey(pepper, "other"))
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	a := auth.NewAuthenticator(repo, pepper)
	_, err = a.Authenticate(ctx, "ops-key")
	assert.NoError(t, err)
}
