package catalog

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

type Config struct {
	Path string `envconfig:"CATALOG_DB" default:"my_database.db"`
}

// Open connects to the SQLite catalog. Missing tables are created empty so
// the service can boot before the first seed.
func (c Config) Open(ctx context.Context) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(c.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", c.Path, err)
	}

	m := db.WithContext(ctx).Migrator()
	if !m.HasTable(&Order{}) || !m.HasTable(&Product{}) {
		logx.Warn().Str("path", c.Path).Msg("catalog tables missing, creating empty schema")
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates the orders and products tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&Order{}, &Product{}); err != nil {
		logx.Error().Err(err).Msg("catalog automigrate failed")
		return errx.WrapDB(err)
	}
	return nil
}
