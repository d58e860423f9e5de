package models

// PropertyInput is the raw form submission for a single property.
type PropertyInput struct {
	LivingArea        *float64 `json:"living_area"`
	Commune           string   `json:"commune"`
	BuildingCondition string   `json:"building_condition"`
	SubtypeOfProperty string   `json:"subtype_of_property"`
	EquippedKitchen   *bool    `json:"equipped_kitchen"`
	Terrace           *bool    `json:"terrace"`
}

// CommuneRecord holds the precomputed attributes of a commune.
type CommuneRecord struct {
	Commune     string  `json:"commune" gorm:"primaryKey;column:commune"`
	ZipCode     string  `json:"zip_code,omitempty" gorm:"column:zip_code;index"`
	Latitude    float64 `json:"latitude" gorm:"column:latitude"`
	Longitude   float64 `json:"longitude" gorm:"column:longitude"`
	AvgIncome   float64 `json:"com_avg_income" gorm:"column:com_avg_income"`
	MinDistance float64 `json:"min_distance" gorm:"column:min_distance"`
	PricePerSqm float64 `json:"price_per_sqm" gorm:"column:price_per_sqm"`
}

// TableName pins the SQLite table used for the reference data.
func (CommuneRecord) TableName() string {
	return "communes"
}

// FeatureVector is ordered as declared by the loaded model artifact.
type FeatureVector []float64

type PredictionResult struct {
	Price    float64       `json:"price"`
	Commune  string        `json:"commune"`
	Features FeatureVector `json:"features"`
	Cached   bool          `json:"cached"`
}
