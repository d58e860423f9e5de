package database

import "immoeliza/server/internal/models"

func (d *Database) RunMigrations() error {
	return d.db.AutoMigrate(&models.CommuneRecord{})
}
