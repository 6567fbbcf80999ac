package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/hrc-bakery/storefront/db"
	"github.com/hrc-bakery/storefront/internal/auth"
	"github.com/hrc-bakery/storefront/internal/catalog"
	"github.com/hrc-bakery/storefront/internal/storage/postgres"
)

type options struct {
	databaseURL string
	catalogFile string
	keyName     string
	key         string
	pepper      string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.catalogFile, "catalog-file", "", "catalog JSON snapshot; the embedded seed is used when empty")
	flag.StringVar(&opts.keyName, "admin-key-name", "default", "name stored with the admin API key")
	flag.StringVar(&opts.key, "admin-key", "", "admin API key to seed (or HRC_SEED_ADMIN_KEY env)")
	flag.StringVar(&opts.pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or HRC_API_KEY_PEPPER env)")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.key == "" {
		opts.key = os.Getenv("HRC_SEED_ADMIN_KEY")
	}
	if opts.pepper == "" {
		opts.pepper = os.Getenv("HRC_API_KEY_PEPPER")
	}
	if opts.key != "" && opts.pepper == "" {
		slog.Error("an admin key requires a pepper: set --api-key-pepper or HRC_API_KEY_PEPPER")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	snap, err := readCatalog(opts.catalogFile)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting catalog",
		slog.Int("cakes", len(snap.Cakes)),
		slog.Int("decorations", len(snap.Decorations)),
		slog.Int("categories", len(snap.Categories)),
		slog.Int("zones", len(snap.Zones)),
	)

	if err := postgres.NewCatalogRepository(pool).SaveSnapshot(ctx, snap); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if opts.key == "" {
		slog.Info("no admin key given, skipping")
		return nil
	}

	hash := auth.HashKey([]byte(opts.pepper), opts.key)
	if err := postgres.NewAPIKeyRepository(pool).Upsert(ctx, opts.keyName, hash); err != nil {
		return errors.Wrap(err, "seed admin key")
	}

	slog.Info("upserted admin key", slog.String("name", opts.keyName))
	return nil
}

// readCatalog decodes the snapshot file, or the embedded seed when path is
// empty.
func readCatalog(path string) (*catalog.Snapshot, error) {
	data := db.CatalogSeed
	if path != "" {
		slog.Info("reading catalog file", slog.String("path", path))

		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read catalog file")
		}
	}
	return catalog.DecodeSnapshot(data)
}
