package store

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: records table with the name index from struct tags
		{
			ID: "001_records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Record{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("records")
			},
		},
	})

	return m.Migrate()
}
