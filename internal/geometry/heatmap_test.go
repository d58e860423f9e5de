package geometry

import (
	"encoding/json"
	"testing"

	"immoeliza/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCommunes = []models.CommuneRecord{
	{Commune: "Brussels", Latitude: 50.8467, Longitude: 4.3525, PricePerSqm: 3650},
	{Commune: "Ixelles", Latitude: 50.8333, Longitude: 4.3667, PricePerSqm: 4150},
	{Commune: "Arlon", Latitude: 49.6833, Longitude: 5.8167, PricePerSqm: 2000},
}

func TestBuildHeatmap_Points(t *testing.T) {
	hm, err := BuildHeatmap(testCommunes, 0)
	require.NoError(t, err)

	assert.Equal(t, "FeatureCollection", hm.Type)
	require.Len(t, hm.Features, 3)
	assert.Equal(t, "Arlon", hm.Features[0].Properties["commune"])
	assert.Equal(t, orb.Point{5.8167, 49.6833}, hm.Features[0].Geometry)
	assert.Equal(t, 2000.0, hm.Metadata.MinPricePerSqm)
	assert.Equal(t, 4150.0, hm.Metadata.MaxPricePerSqm)
	assert.Equal(t, 3, hm.Metadata.Communes)
	assert.Equal(t, 3, hm.Metadata.Cells)
}

func TestBuildHeatmap_Aggregated(t *testing.T) {
	// Precision 3 cells are roughly 156 km wide: Brussels and Ixelles share one
	hm, err := BuildHeatmap(testCommunes, 3)
	require.NoError(t, err)
	require.Len(t, hm.Features, 2)

	var brusselsCell map[string]interface{}
	for _, f := range hm.Features {
		if f.Properties["commune_count"] == 2 {
			brusselsCell = f.Properties
		}
	}
	require.NotNil(t, brusselsCell)
	assert.InDelta(t, 3900.0, brusselsCell["price_per_sqm"], 1e-9)
	assert.Equal(t, []string{"Brussels", "Ixelles"}, brusselsCell["communes"])
	assert.Len(t, brusselsCell["geohash"], 3)
}

func TestBuildHeatmap_InvalidPrecision(t *testing.T) {
	_, err := BuildHeatmap(testCommunes, MaxPrecision+1)
	assert.Error(t, err)
}

func TestBuildHeatmap_Empty(t *testing.T) {
	hm, err := BuildHeatmap(nil, 4)
	require.NoError(t, err)
	assert.Empty(t, hm.Features)
}

func TestBuildHeatmap_EncodesAsGeoJSON(t *testing.T) {
	hm, err := BuildHeatmap(testCommunes[:1], 0)
	require.NoError(t, err)

	data, err := json.Marshal(hm)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 1)
	assert.Equal(t, "Point", decoded.Features[0].Geometry.Type)
	assert.Equal(t, []float64{4.3525, 50.8467}, decoded.Features[0].Geometry.Coordinates)
}

func TestNewMapView(t *testing.T) {
	view := NewMapView(testCommunes)

	assert.Equal(t, DefaultZoomLevel, view.ZoomLevel)
	assert.InDelta(t, (49.6833+50.8467)/2, view.Center[0], 1e-9)
	assert.InDelta(t, (4.3525+5.8167)/2, view.Center[1], 1e-9)
	assert.Equal(t, [][]float64{{49.6833, 4.3525}, {50.8467, 5.8167}}, view.Bounds)

	empty := NewMapView(nil)
	assert.Len(t, empty.Center, 2)
	assert.Nil(t, empty.Bounds)
}
