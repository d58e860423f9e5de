package main

import (
	"flag"
	"os"

	"immoeliza/server/internal/database"
	"immoeliza/server/internal/reference"

	"github.com/sirupsen/logrus"
)

// importer converts the commune CSV export into the SQLite reference file
// served when COMMUNE_DATA_PATH points to a .db file.
func main() {
	csvPath := flag.String("csv", "./data/communes.csv", "commune CSV export")
	dbPath := flag.String("db", "./data/communes.db", "SQLite file to write")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	records, err := reference.CSVFile{Path: *csvPath}.LoadCommunes()
	if err != nil {
		logger.WithError(err).Fatal("Failed to read commune CSV")
	}

	// Reject data the server would refuse to load
	if _, err := reference.NewTable(records); err != nil {
		logger.WithError(err).Fatal("Commune data is invalid")
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	if err := db.ReplaceCommunes(records); err != nil {
		logger.WithError(err).Fatal("Failed to import communes")
	}

	logger.WithFields(logrus.Fields{
		"csv":      *csvPath,
		"db":       *dbPath,
		"communes": len(records),
	}).Info("Imported communes")
}
