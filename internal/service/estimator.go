package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"immoeliza/server/internal/cache"
	"immoeliza/server/internal/models"
	"immoeliza/server/internal/predict"
	"immoeliza/server/internal/preprocessing"
	"immoeliza/server/internal/reference"

	"github.com/sirupsen/logrus"
)

// CommuneResolver resolves commune keys against the reference table.
type CommuneResolver interface {
	Resolve(key string) (models.CommuneRecord, error)
}

// Estimator exposes the two core operations: commune resolution and price prediction.
type Estimator struct {
	communes CommuneResolver
	encoder  *preprocessing.Encoder
	scorer   predict.Scorer
	cache    cache.Cache
	logger   *logrus.Logger
}

// NewEstimator wires the encoder to the feature order declared by the scorer.
// A nil cache disables caching.
func NewEstimator(communes CommuneResolver, scorer predict.Scorer, c cache.Cache, logger *logrus.Logger) (*Estimator, error) {
	if logger == nil {
		logger = logrus.New()
	}
	encoder, err := preprocessing.NewEncoder(scorer.Features())
	if err != nil {
		return nil, fmt.Errorf("model feature order is not supported: %w", err)
	}
	return &Estimator{
		communes: communes,
		encoder:  encoder,
		scorer:   scorer,
		cache:    c,
		logger:   logger,
	}, nil
}

func (e *Estimator) Resolve(key string) (models.CommuneRecord, error) {
	return e.communes.Resolve(key)
}

// Predict validates, resolves, encodes and scores a single input, in that order.
func (e *Estimator) Predict(ctx context.Context, in models.PropertyInput) (models.PredictionResult, error) {
	encoded, err := preprocessing.Validate(in)
	if err != nil {
		return models.PredictionResult{}, err
	}

	rec, err := e.communes.Resolve(encoded.Commune)
	if err != nil {
		return models.PredictionResult{}, err
	}

	features := e.encoder.Encode(encoded, rec)
	result := models.PredictionResult{
		Commune:  rec.Commune,
		Features: features,
	}

	key := cacheKey(e.scorer.Version(), rec, features)
	if e.cache != nil {
		price, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			e.logger.WithError(err).Warn("Failed to read prediction cache")
		} else if ok {
			result.Price = price
			result.Cached = true
			return result, nil
		}
	}

	price, err := e.scorer.Predict(features)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("prediction failed: %w", err)
	}
	result.Price = price

	e.logger.WithFields(logrus.Fields{
		"commune":     rec.Commune,
		"living_area": encoded.LivingArea,
		"price":       price,
	}).Debug("Predicted price")

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, price); err != nil {
			e.logger.WithError(err).Warn("Failed to store prediction in cache")
		}
	}

	return result, nil
}

// cacheKey is scoped to the scorer version.
func cacheKey(version string, rec models.CommuneRecord, features models.FeatureVector) string {
	parts := make([]string, 0, len(features)+2)
	parts = append(parts, version, reference.NormalizeKey(rec.Commune))
	for _, f := range features {
		parts = append(parts, strconv.FormatFloat(f, 'g', -1, 64))
	}
	return strings.Join(parts, "|")
}
