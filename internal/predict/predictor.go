package predict

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"immoeliza/server/internal/models"

	"github.com/cespare/xxhash/v2"
)

// Scorer is a fitted pipeline: a transform followed by a regression.
// Version changes whenever the pipeline would score differently.
type Scorer interface {
	Features() []string
	Version() string
	Predict(v models.FeatureVector) (float64, error)
}

// Predictor applies the scaler and then the KNN model, in that order.
type Predictor struct {
	scaler  *Scaler
	model   *KNNModel
	version string
}

func NewPredictor(scaler *Scaler, model *KNNModel) (*Predictor, error) {
	sf, mf := scaler.Features(), model.Features()
	if len(sf) != len(mf) {
		return nil, fmt.Errorf("scaler has %d features, model has %d", len(sf), len(mf))
	}
	for i := range sf {
		if sf[i] != mf[i] {
			return nil, fmt.Errorf("feature %d is %q in scaler but %q in model", i, sf[i], mf[i])
		}
	}
	version := xxhash.Sum64String(fmt.Sprintf("%x/%x", scaler.fingerprint, model.fingerprint))
	return &Predictor{
		scaler:  scaler,
		model:   model,
		version: strconv.FormatUint(version, 16),
	}, nil
}

// Load reads both artifacts. Any failure is an *models.ArtifactError.
func Load(modelPath, scalerPath string) (*Predictor, error) {
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, &models.ArtifactError{Kind: "scaler", Path: scalerPath, Err: err}
	}
	model, err := LoadKNNModel(modelPath)
	if err != nil {
		return nil, &models.ArtifactError{Kind: "model", Path: modelPath, Err: err}
	}
	p, err := NewPredictor(scaler, model)
	if err != nil {
		return nil, &models.ArtifactError{Kind: "model", Path: modelPath, Err: err}
	}
	return p, nil
}

func (p *Predictor) Features() []string {
	return p.model.Features()
}

// Version identifies the loaded scaler and model content.
func (p *Predictor) Version() string {
	return p.version
}

func (p *Predictor) Model() *KNNModel {
	return p.model
}

func (p *Predictor) Predict(v models.FeatureVector) (float64, error) {
	scaled, err := p.scaler.Transform(v)
	if err != nil {
		return 0, err
	}
	price, err := p.model.Predict(scaled)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.New("model returned a non-finite price")
	}
	if price < 0 {
		return 0, fmt.Errorf("model returned a negative price %f", price)
	}
	return price, nil
}
