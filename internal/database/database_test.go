package database

import (
	"path/filepath"
	"testing"

	"immoeliza/server/internal/models"
	"immoeliza/server/internal/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "communes.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	return db, path
}

func TestReplaceAndLoadCommunes(t *testing.T) {
	db, _ := newTestDatabase(t)
	defer db.Close()

	records := []models.CommuneRecord{
		{Commune: "Namur", ZipCode: "5000", Latitude: 50.4669, Longitude: 4.8675, AvgIncome: 22000, MinDistance: 0, PricePerSqm: 2200},
		{Commune: "Brussels", ZipCode: "1000", Latitude: 50.8467, Longitude: 4.3525, AvgIncome: 25000, MinDistance: 0, PricePerSqm: 3650},
	}
	require.NoError(t, db.ReplaceCommunes(records))

	loaded, err := db.LoadCommunes()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Brussels", loaded[0].Commune)
	assert.Equal(t, records[1], loaded[0])

	// A second import replaces rather than appends
	require.NoError(t, db.ReplaceCommunes(records[:1]))
	loaded, err = db.LoadCommunes()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestOpenReadOnly(t *testing.T) {
	db, path := newTestDatabase(t)
	require.NoError(t, db.ReplaceCommunes([]models.CommuneRecord{
		{Commune: "Gent", ZipCode: "9000", Latitude: 51.0543, Longitude: 3.7174, AvgIncome: 23500, PricePerSqm: 2900},
	}))
	require.NoError(t, db.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	table, err := reference.Load(ro, path)
	require.NoError(t, err)

	rec, err := table.Resolve("9000")
	require.NoError(t, err)
	assert.Equal(t, "Gent", rec.Commune)

	assert.Error(t, ro.ReplaceCommunes(nil), "read-only database must refuse writes")
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
