package preprocessing

import (
	"fmt"
	"math"
	"strings"

	"immoeliza/server/config"
	"immoeliza/server/internal/models"
)

// Feature names understood by the encoder.
const (
	FeatureLivingArea        = "living_area"
	FeatureAvgIncome         = "com_avg_income"
	FeatureBuildingCondition = "building_condition"
	FeatureSubtype           = "subtype_of_property"
	FeatureLatitude          = "latitude"
	FeatureLongitude         = "longitude"
	FeatureEquippedKitchen   = "equipped_kitchen"
	FeatureMinDistance       = "min_distance"
	FeatureTerrace           = "terrace"
)

// DefaultFeatureOrder is the column order the model was trained with.
var DefaultFeatureOrder = []string{
	FeatureLivingArea,
	FeatureAvgIncome,
	FeatureBuildingCondition,
	FeatureSubtype,
	FeatureLatitude,
	FeatureLongitude,
	FeatureEquippedKitchen,
	FeatureMinDistance,
	FeatureTerrace,
}

type extractor func(in Encoded, rec models.CommuneRecord) float64

var extractors = map[string]extractor{
	FeatureLivingArea:        func(in Encoded, _ models.CommuneRecord) float64 { return in.LivingArea },
	FeatureAvgIncome:         func(_ Encoded, rec models.CommuneRecord) float64 { return rec.AvgIncome },
	FeatureBuildingCondition: func(in Encoded, _ models.CommuneRecord) float64 { return float64(in.Condition) },
	FeatureSubtype:           func(in Encoded, _ models.CommuneRecord) float64 { return float64(in.Subtype) },
	FeatureLatitude:          func(_ Encoded, rec models.CommuneRecord) float64 { return rec.Latitude },
	FeatureLongitude:         func(_ Encoded, rec models.CommuneRecord) float64 { return rec.Longitude },
	FeatureEquippedKitchen:   func(in Encoded, _ models.CommuneRecord) float64 { return boolValue(in.EquippedKitchen) },
	FeatureMinDistance:       func(_ Encoded, rec models.CommuneRecord) float64 { return rec.MinDistance },
	FeatureTerrace:           func(in Encoded, _ models.CommuneRecord) float64 { return boolValue(in.Terrace) },
}

// Encoded is a validated PropertyInput with categories replaced by their codes.
type Encoded struct {
	LivingArea      float64
	Commune         string
	Condition       int
	Subtype         int
	EquippedKitchen bool
	Terrace         bool
}

// Validate checks required fields and maps categories through the shared option tables.
func Validate(in models.PropertyInput) (Encoded, error) {
	if in.LivingArea == nil {
		return Encoded{}, &models.ValidationError{Field: "living_area", Message: "is required"}
	}
	area := *in.LivingArea
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return Encoded{}, &models.ValidationError{Field: "living_area", Message: "must be a positive number"}
	}

	commune := strings.TrimSpace(in.Commune)
	if commune == "" {
		return Encoded{}, &models.ValidationError{Field: "commune", Message: "is required"}
	}

	condition, err := lookup("building_condition", config.BuildingConditions, in.BuildingCondition)
	if err != nil {
		return Encoded{}, err
	}
	subtype, err := lookup("subtype_of_property", config.PropertySubtypes, in.SubtypeOfProperty)
	if err != nil {
		return Encoded{}, err
	}
	if in.EquippedKitchen == nil {
		return Encoded{}, &models.ValidationError{Field: "equipped_kitchen", Message: "is required"}
	}
	if in.Terrace == nil {
		return Encoded{}, &models.ValidationError{Field: "terrace", Message: "is required"}
	}

	return Encoded{
		LivingArea:      area,
		Commune:         commune,
		Condition:       condition.Value,
		Subtype:         subtype.Value,
		EquippedKitchen: *in.EquippedKitchen,
		Terrace:         *in.Terrace,
	}, nil
}

func lookup(field string, options []config.Option, value string) (config.Option, error) {
	if value == "" {
		return config.Option{}, &models.ValidationError{Field: field, Message: "is required"}
	}
	option, ok := config.FindOption(options, value)
	if !ok {
		return config.Option{}, &models.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("unknown value %q, expected one of %s", value, strings.Join(config.Codes(options), ", ")),
		}
	}
	return option, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Encoder builds feature vectors in a fixed order.
type Encoder struct {
	order      []string
	extractors []extractor
}

func NewEncoder(order []string) (*Encoder, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("feature order is empty")
	}
	e := &Encoder{
		order:      append([]string(nil), order...),
		extractors: make([]extractor, len(order)),
	}
	for i, name := range order {
		fn, ok := extractors[name]
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		e.extractors[i] = fn
	}
	return e, nil
}

func (e *Encoder) Features() []string {
	return append([]string(nil), e.order...)
}

// Encode produces the unscaled feature vector for a validated input and its commune.
func (e *Encoder) Encode(in Encoded, rec models.CommuneRecord) models.FeatureVector {
	v := make(models.FeatureVector, len(e.extractors))
	for i, fn := range e.extractors {
		v[i] = fn(in, rec)
	}
	return v
}

// EncodeInput validates a raw input and encodes it against its resolved commune.
func (e *Encoder) EncodeInput(in models.PropertyInput, rec models.CommuneRecord) (models.FeatureVector, error) {
	encoded, err := Validate(in)
	if err != nil {
		return nil, err
	}
	return e.Encode(encoded, rec), nil
}
