package database

import (
	"fmt"
	"os"

	"immoeliza/server/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (and creates if needed) a writable SQLite reference file.
func NewDatabase(dbPath string) (*Database, error) {
	return open(dbPath)
}

// OpenReadOnly opens an existing SQLite reference file without write access.
func OpenReadOnly(dbPath string) (*Database, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	return open(fmt.Sprintf("file:%s?mode=ro", dbPath))
}

func open(dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadCommunes reads the whole communes table ordered by name.
func (d *Database) LoadCommunes() ([]models.CommuneRecord, error) {
	var records []models.CommuneRecord
	if err := d.db.Order("commune").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query communes: %w", err)
	}
	return records, nil
}

// ReplaceCommunes swaps the communes table content in a single transaction.
func (d *Database) ReplaceCommunes(records []models.CommuneRecord) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CommuneRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear communes: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("failed to insert communes: %w", err)
		}
		return nil
	})
}
