package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"immoeliza/server/internal/models"
)

// Column names of the commune CSV export.
const (
	ColumnCommune     = "commune"
	ColumnZipCode     = "zip_code"
	ColumnLatitude    = "latitude"
	ColumnLongitude   = "longitude"
	ColumnAvgIncome   = "com_avg_income"
	ColumnMinDistance = "min_distance"
	ColumnPricePerSqm = "price_per_sqm"
)

var requiredColumns = []string{
	ColumnCommune,
	ColumnLatitude,
	ColumnLongitude,
	ColumnAvgIncome,
	ColumnMinDistance,
	ColumnPricePerSqm,
}

// RecordSource loads commune records from a static store.
type RecordSource interface {
	LoadCommunes() ([]models.CommuneRecord, error)
}

// Load builds a table from any record source, reporting failures as artifact errors.
func Load(src RecordSource, path string) (*Table, error) {
	records, err := src.LoadCommunes()
	if err != nil {
		return nil, &models.ArtifactError{Kind: "reference", Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, &models.ArtifactError{Kind: "reference", Path: path, Err: errors.New("no commune records")}
	}

	table, err := NewTable(records)
	if err != nil {
		return nil, &models.ArtifactError{Kind: "reference", Path: path, Err: err}
	}
	return table, nil
}

// IsSQLitePath reports whether a reference path points to a SQLite file.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// CSVFile reads the commune export produced by the data pipeline.
type CSVFile struct {
	Path string
}

func (f CSVFile) LoadCommunes() ([]models.CommuneRecord, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open commune data: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses commune records from a CSV stream with a header row.
func ReadCSV(r io.Reader) ([]models.CommuneRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var records []models.CommuneRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, index map[string]int) (models.CommuneRecord, error) {
	var parseErr error
	number := func(col string) float64 {
		if parseErr != nil {
			return 0
		}
		raw := strings.TrimSpace(row[index[col]])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErr = fmt.Errorf("column %s: invalid number %q", col, raw)
		}
		return v
	}

	rec := models.CommuneRecord{
		Commune:     strings.TrimSpace(row[index[ColumnCommune]]),
		Latitude:    number(ColumnLatitude),
		Longitude:   number(ColumnLongitude),
		AvgIncome:   number(ColumnAvgIncome),
		MinDistance: number(ColumnMinDistance),
		PricePerSqm: number(ColumnPricePerSqm),
	}
	if i, ok := index[ColumnZipCode]; ok {
		rec.ZipCode = strings.TrimSpace(row[i])
	}
	if parseErr != nil {
		return models.CommuneRecord{}, parseErr
	}
	if rec.Latitude < -90 || rec.Latitude > 90 || rec.Longitude < -180 || rec.Longitude > 180 {
		return models.CommuneRecord{}, fmt.Errorf("commune %s: coordinates out of range", rec.Commune)
	}
	return rec, nil
}
