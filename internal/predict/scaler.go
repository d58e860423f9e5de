package predict

import (
	"errors"
	"fmt"
	"math"

	"immoeliza/server/internal/models"

	"gonum.org/v1/gonum/floats"
)

// Scaler standardizes feature vectors with training-time mean and scale.
type Scaler struct {
	features    []string
	mean        []float64
	scale       []float64
	fingerprint uint64
}

func NewScaler(a ScalerArtifact) (*Scaler, error) {
	n := len(a.Features)
	if len(a.Mean) != n || len(a.Scale) != n {
		return nil, fmt.Errorf("scaler has %d features but %d means and %d scales", n, len(a.Mean), len(a.Scale))
	}
	if !allFinite(a.Mean) || !allFinite(a.Scale) {
		return nil, errors.New("scaler contains non-finite values")
	}
	for i, s := range a.Scale {
		if s <= 0 {
			return nil, fmt.Errorf("scale of feature %s must be positive", a.Features[i])
		}
	}
	fp, err := fingerprint(a)
	if err != nil {
		return nil, err
	}
	return &Scaler{
		features:    append([]string(nil), a.Features...),
		mean:        append([]float64(nil), a.Mean...),
		scale:       append([]float64(nil), a.Scale...),
		fingerprint: fp,
	}, nil
}

// LoadScaler reads and validates a scaler artifact file.
func LoadScaler(path string) (*Scaler, error) {
	var a ScalerArtifact
	if err := readArtifact(path, scalerSchema, &a); err != nil {
		return nil, err
	}
	return NewScaler(a)
}

func (s *Scaler) Features() []string {
	return append([]string(nil), s.features...)
}

// Transform returns (v - mean) / scale without modifying v.
func (s *Scaler) Transform(v models.FeatureVector) (models.FeatureVector, error) {
	if len(v) != len(s.mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.mean), len(v))
	}
	if !allFinite(v) {
		return nil, errors.New("feature vector contains non-finite values")
	}
	out := make([]float64, len(v))
	floats.SubTo(out, v, s.mean)
	floats.Div(out, s.scale)
	return out, nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
