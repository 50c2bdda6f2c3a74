// Command seed-db loads products, bulk discount tiers, and shipping
// addresses from a JSON fixture into the database. Intended for local
// development and integration test environments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/avolkov/wholesale-orders/internal/storage/postgres"
)

type fixture struct {
	Products []struct {
		ID                string          `json:"id"`
		Name              string          `json:"name"`
		SKU               string          `json:"sku"`
		SalePrice         decimal.Decimal `json:"salePrice"`
		VatPercent        decimal.Decimal `json:"vatPercent"`
		IsActive          bool            `json:"isActive"`
		HasVolumeDiscount bool            `json:"hasVolumeDiscount"`
	} `json:"products"`
	Lots []struct {
		ID             string `json:"id"`
		ProductID      string `json:"productId"`
		Quantity       int64  `json:"quantity"`
		InputQuantity  int64  `json:"inputQuantity"`
		ExpirationDate string `json:"expirationDate"`
	} `json:"lots"`
	Tiers []struct {
		ID                 string          `json:"id"`
		MinQuantity        int64           `json:"minQuantity"`
		DiscountPercentage decimal.Decimal `json:"discountPercentage"`
		IsActive           bool            `json:"isActive"`
	} `json:"tiers"`
	Addresses []struct {
		ID        string `json:"id"`
		UserID    string `json:"userId"`
		Label     string `json:"label"`
		Street    string `json:"street"`
		City      string `json:"city"`
		PostCode  string `json:"postCode"`
		IsDefault bool   `json:"isDefault"`
	} `json:"addresses"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/fixtures.json", "path to seed fixture JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrapf(err, "read %s", fixtureFile)
	}

	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return errors.Wrap(err, "parse fixture")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seed(ctx, pool, fx); err != nil {
		return err
	}

	slog.Info("seeded",
		slog.Int("products", len(fx.Products)),
		slog.Int("lots", len(fx.Lots)),
		slog.Int("tiers", len(fx.Tiers)),
		slog.Int("addresses", len(fx.Addresses)),
	)
	return nil
}

func seed(ctx context.Context, pool *pgxpool.Pool, fx fixture) error {
	const upsertProduct = `INSERT INTO products (id, name, sku, sale_price, vat_percent, is_active, has_volume_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, sku = EXCLUDED.sku, sale_price = EXCLUDED.sale_price,
			vat_percent = EXCLUDED.vat_percent, is_active = EXCLUDED.is_active,
			has_volume_discount = EXCLUDED.has_volume_discount`

	for _, p := range fx.Products {
		if _, err := pool.Exec(ctx, upsertProduct,
			p.ID, p.Name, p.SKU, p.SalePrice, p.VatPercent, p.IsActive, p.HasVolumeDiscount,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	const upsertLot = `INSERT INTO inventory_lots (id, product_id, quantity, input_quantity, expiration_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id, quantity = EXCLUDED.quantity,
			input_quantity = EXCLUDED.input_quantity, expiration_date = EXCLUDED.expiration_date`

	for _, l := range fx.Lots {
		exp, err := time.Parse("2006-01-02", l.ExpirationDate)
		if err != nil {
			return errors.Wrapf(err, "lot %s expiration date", l.ID)
		}
		if _, err := pool.Exec(ctx, upsertLot,
			l.ID, l.ProductID, l.Quantity, l.InputQuantity, exp,
		); err != nil {
			return errors.Wrapf(err, "upsert lot %s", l.ID)
		}
	}

	const upsertTier = `INSERT INTO bulk_discount_tiers (id, min_quantity, discount_percentage, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			min_quantity = EXCLUDED.min_quantity,
			discount_percentage = EXCLUDED.discount_percentage,
			is_active = EXCLUDED.is_active`

	for _, t := range fx.Tiers {
		if _, err := pool.Exec(ctx, upsertTier,
			t.ID, t.MinQuantity, t.DiscountPercentage, t.IsActive,
		); err != nil {
			return errors.Wrapf(err, "upsert tier %s", t.ID)
		}
	}

	const upsertAddress = `INSERT INTO shipping_addresses (id, user_id, label, street, city, post_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id, label = EXCLUDED.label, street = EXCLUDED.street,
			city = EXCLUDED.city, post_code = EXCLUDED.post_code, is_default = EXCLUDED.is_default`

	for _, a := range fx.Addresses {
		if _, err := pool.Exec(ctx, upsertAddress,
			a.ID, a.UserID, a.Label, a.Street, a.City, a.PostCode, a.IsDefault,
		); err != nil {
			return errors.Wrapf(err, "upsert address %s", a.ID)
		}
	}

	return nil
}
