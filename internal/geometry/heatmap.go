package geometry

import (
	"fmt"
	"sort"
	"time"

	"immoeliza/server/internal/models"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MaxPrecision is the longest geohash supported for aggregation.
const MaxPrecision = 12

// DefaultZoomLevel frames the whole of Belgium.
const DefaultZoomLevel = 8

type HeatmapMetadata struct {
	Generated      string  `json:"generated"`
	Precision      uint    `json:"precision"`
	Communes       int     `json:"communes"`
	Cells          int     `json:"cells"`
	MinPricePerSqm float64 `json:"min_price_per_sqm"`
	MaxPricePerSqm float64 `json:"max_price_per_sqm"`
}

// Heatmap is a GeoJSON FeatureCollection with a metadata member.
type Heatmap struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
	Metadata HeatmapMetadata    `json:"metadata"`
}

type cell struct {
	hash     string
	total    float64
	communes []string
}

// BuildHeatmap turns commune records into price-per-area points. With a
// precision of zero every commune is its own point; otherwise communes are
// averaged per geohash cell of that length.
func BuildHeatmap(records []models.CommuneRecord, precision uint) (*Heatmap, error) {
	if precision > MaxPrecision {
		return nil, fmt.Errorf("precision must be between 0 and %d", MaxPrecision)
	}

	hm := &Heatmap{
		Type:     "FeatureCollection",
		Features: make([]*geojson.Feature, 0, len(records)),
		Metadata: HeatmapMetadata{
			Generated: time.Now().Format(time.RFC3339),
			Precision: precision,
			Communes:  len(records),
		},
	}
	if len(records) == 0 {
		return hm, nil
	}

	hm.Metadata.MinPricePerSqm = records[0].PricePerSqm
	hm.Metadata.MaxPricePerSqm = records[0].PricePerSqm
	for _, rec := range records {
		if rec.PricePerSqm < hm.Metadata.MinPricePerSqm {
			hm.Metadata.MinPricePerSqm = rec.PricePerSqm
		}
		if rec.PricePerSqm > hm.Metadata.MaxPricePerSqm {
			hm.Metadata.MaxPricePerSqm = rec.PricePerSqm
		}
	}

	if precision == 0 {
		sorted := append([]models.CommuneRecord(nil), records...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Commune < sorted[j].Commune })

		for _, rec := range sorted {
			feature := geojson.NewFeature(orb.Point{rec.Longitude, rec.Latitude})
			feature.Properties = geojson.Properties{
				"commune":       rec.Commune,
				"price_per_sqm": rec.PricePerSqm,
			}
			hm.Features = append(hm.Features, feature)
		}
		hm.Metadata.Cells = len(hm.Features)
		return hm, nil
	}

	cells := make(map[string]*cell)
	for _, rec := range records {
		hash := geohash.EncodeWithPrecision(rec.Latitude, rec.Longitude, precision)
		c, ok := cells[hash]
		if !ok {
			c = &cell{hash: hash}
			cells[hash] = c
		}
		c.total += rec.PricePerSqm
		c.communes = append(c.communes, rec.Commune)
	}

	hashes := make([]string, 0, len(cells))
	for hash := range cells {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	for _, hash := range hashes {
		c := cells[hash]
		lat, lng := geohash.DecodeCenter(hash)
		sort.Strings(c.communes)

		feature := geojson.NewFeature(orb.Point{lng, lat})
		feature.Properties = geojson.Properties{
			"geohash":       hash,
			"price_per_sqm": c.total / float64(len(c.communes)),
			"commune_count": len(c.communes),
			"communes":      c.communes,
		}
		hm.Features = append(hm.Features, feature)
	}
	hm.Metadata.Cells = len(hm.Features)

	return hm, nil
}

// MapView describes how the client map should be framed.
type MapView struct {
	Center    []float64   `json:"center"`
	Bounds    [][]float64 `json:"bounds"`
	ZoomLevel int         `json:"zoom_level"`
}

// NewMapView frames all communes. Coordinates are returned as [lat, lng].
func NewMapView(records []models.CommuneRecord) MapView {
	if len(records) == 0 {
		return MapView{
			Center:    []float64{50.5039, 4.4699},
			ZoomLevel: DefaultZoomLevel,
		}
	}

	points := make(orb.MultiPoint, len(records))
	for i, rec := range records {
		points[i] = orb.Point{rec.Longitude, rec.Latitude}
	}
	bound := points.Bound()
	center := bound.Center()

	return MapView{
		Center: []float64{center.Lat(), center.Lon()},
		Bounds: [][]float64{
			{bound.Min.Lat(), bound.Min.Lon()},
			{bound.Max.Lat(), bound.Max.Lon()},
		},
		ZoomLevel: DefaultZoomLevel,
	}
}
