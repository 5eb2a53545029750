// Command seed imports order and product sheets into the SQLite catalog,
// replacing whatever rows it held before.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/catalog"
	"github.com/Chative-core-poc-v1/commerce-agent/internal/core"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

type SeedConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	Catalog     catalog.Config
	Orders      string `envconfig:"SEED_ORDERS_FILE" default:"database/order_data.xlsx"`
	Products    string `envconfig:"SEED_PRODUCTS_FILE" default:"database/product_data.xlsx"`
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg SeedConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	flag.StringVar(&cfg.Orders, "orders", cfg.Orders, "orders sheet (.xlsx, .xlsm or .csv)")
	flag.StringVar(&cfg.Products, "products", cfg.Products, "products sheet (.xlsx, .xlsm or .csv)")
	flag.StringVar(&cfg.Catalog.Path, "db", cfg.Catalog.Path, "SQLite catalog path")
	flag.Parse()

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})
	ctx := context.Background()

	orderTable, err := catalog.ReadTable(cfg.Orders)
	if err != nil {
		logx.Fatal().Err(err).Str("file", cfg.Orders).Msg("Failed to read orders")
	}
	orders, err := catalog.ParseOrders(orderTable)
	if err != nil {
		logx.Fatal().Err(err).Str("file", cfg.Orders).Msg("Failed to parse orders")
	}

	productTable, err := catalog.ReadTable(cfg.Products)
	if err != nil {
		logx.Fatal().Err(err).Str("file", cfg.Products).Msg("Failed to read products")
	}
	products, err := catalog.ParseProducts(productTable)
	if err != nil {
		logx.Fatal().Err(err).Str("file", cfg.Products).Msg("Failed to parse products")
	}

	db, err := cfg.Catalog.Open(ctx)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("Failed to open catalog")
	}
	if err := catalog.Seed(ctx, db, orders, products); err != nil {
		logx.Fatal().Err(err).Msg("Failed to seed catalog")
	}
	logx.Info().Str("path", cfg.Catalog.Path).Msg("Catalog ready")
}
