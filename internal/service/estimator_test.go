package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"immoeliza/server/internal/cache"
	"immoeliza/server/internal/models"
	"immoeliza/server/internal/predict"
	"immoeliza/server/internal/preprocessing"
	"immoeliza/server/internal/reference"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockScorer is a mock implementation of the predict.Scorer interface
type MockScorer struct {
	mock.Mock
	version string
}

func (m *MockScorer) Features() []string {
	return preprocessing.DefaultFeatureOrder
}

func (m *MockScorer) Version() string {
	return m.version
}

func (m *MockScorer) Predict(v models.FeatureVector) (float64, error) {
	args := m.Called(v)
	return args.Get(0).(float64), args.Error(1)
}

func area(v float64) *float64 {
	return &v
}

func flag(b bool) *bool {
	return &b
}

func testTable(t *testing.T) *reference.Table {
	t.Helper()
	table, err := reference.NewTable([]models.CommuneRecord{
		{Commune: "Brussels", ZipCode: "1000", Latitude: 50.8467, Longitude: 4.3525, AvgIncome: 25000, MinDistance: 0, PricePerSqm: 3650},
		{Commune: "Arlon", ZipCode: "6700", Latitude: 49.6833, Longitude: 5.8167, AvgIncome: 23000, MinDistance: 30, PricePerSqm: 2000},
	})
	require.NoError(t, err)
	return table
}

func validInput() models.PropertyInput {
	return models.PropertyInput{
		LivingArea:        area(120),
		Commune:           "Brussels",
		BuildingCondition: "GOOD",
		SubtypeOfProperty: "APARTMENT",
		EquippedKitchen:   flag(true),
		Terrace:           flag(false),
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestEstimator_Predict(t *testing.T) {
	scorer := &MockScorer{}
	expected := models.FeatureVector{120, 25000, 3, 0, 50.8467, 4.3525, 1, 0, 0}
	scorer.On("Predict", expected).Return(315000.0, nil).Once()

	est, err := NewEstimator(testTable(t), scorer, nil, quietLogger())
	require.NoError(t, err)

	result, err := est.Predict(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, 315000.0, result.Price)
	assert.Equal(t, "Brussels", result.Commune)
	assert.Equal(t, expected, result.Features)
	assert.False(t, result.Cached)
	scorer.AssertExpectations(t)
}

func TestEstimator_UnknownCommuneNeverScores(t *testing.T) {
	scorer := &MockScorer{}
	est, err := NewEstimator(testTable(t), scorer, nil, quietLogger())
	require.NoError(t, err)

	in := validInput()
	in.Commune = "Atlantis"

	_, err = est.Predict(context.Background(), in)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = est.Resolve("Atlantis")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	scorer.AssertNotCalled(t, "Predict", mock.Anything)
}

func TestEstimator_ValidationBeforeResolve(t *testing.T) {
	scorer := &MockScorer{}
	est, err := NewEstimator(testTable(t), scorer, nil, quietLogger())
	require.NoError(t, err)

	in := validInput()
	in.Commune = "Atlantis"
	in.BuildingCondition = "PRISTINE"

	_, err = est.Predict(context.Background(), in)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "building_condition", validationErr.Field)
	scorer.AssertNotCalled(t, "Predict", mock.Anything)
}

func TestEstimator_ScorerError(t *testing.T) {
	scorer := &MockScorer{}
	scorer.On("Predict", mock.Anything).Return(0.0, errors.New("boom"))

	est, err := NewEstimator(testTable(t), scorer, nil, quietLogger())
	require.NoError(t, err)

	_, err = est.Predict(context.Background(), validInput())
	assert.ErrorContains(t, err, "prediction failed")
}

func TestEstimator_Cache(t *testing.T) {
	scorer := &MockScorer{}
	scorer.On("Predict", mock.Anything).Return(280000.0, nil).Once()

	est, err := NewEstimator(testTable(t), scorer, cache.NewMemoryCache(10, 0), quietLogger())
	require.NoError(t, err)

	first, err := est.Predict(context.Background(), validInput())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// Same property, commune addressed by zip code
	in := validInput()
	in.Commune = "1000"
	second, err := est.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Price, second.Price)

	scorer.AssertNumberOfCalls(t, "Predict", 1)
}

func TestEstimator_CacheScopedToModelVersion(t *testing.T) {
	shared := cache.NewMemoryCache(10, 0)

	previous := &MockScorer{version: "v1"}
	previous.On("Predict", mock.Anything).Return(280000.0, nil).Once()
	est, err := NewEstimator(testTable(t), previous, shared, quietLogger())
	require.NoError(t, err)
	_, err = est.Predict(context.Background(), validInput())
	require.NoError(t, err)

	redeployed := &MockScorer{version: "v2"}
	redeployed.On("Predict", mock.Anything).Return(301000.0, nil).Once()
	est, err = NewEstimator(testTable(t), redeployed, shared, quietLogger())
	require.NoError(t, err)

	result, err := est.Predict(context.Background(), validInput())
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 301000.0, result.Price)
	assert.Equal(t, 2, shared.Len())
	redeployed.AssertExpectations(t)
}

func TestNewEstimator_UnsupportedFeatures(t *testing.T) {
	model, err := predict.NewKNNModel(predict.ModelArtifact{
		Algorithm: "knn_regressor", NNeighbors: 1, Metric: "euclidean",
		Features: []string{"living_area", "garden_area"},
		FitX:     [][]float64{{0, 0}},
		FitY:     []float64{1},
	})
	require.NoError(t, err)
	scaler, err := predict.NewScaler(predict.ScalerArtifact{
		Features: []string{"living_area", "garden_area"},
		Mean:     []float64{0, 0},
		Scale:    []float64{1, 1},
	})
	require.NoError(t, err)
	p, err := predict.NewPredictor(scaler, model)
	require.NoError(t, err)

	_, err = NewEstimator(testTable(t), p, nil, quietLogger())
	assert.ErrorContains(t, err, "garden_area")
}

// End to end with a real scaler and KNN model over the default feature order.
func TestEstimator_RealPredictor(t *testing.T) {
	n := len(preprocessing.DefaultFeatureOrder)
	mean := make([]float64, n)
	scale := make([]float64, n)
	for i := range scale {
		scale[i] = 1
	}
	// Scale living area and income down so they do not dominate the distance
	scale[0], scale[1] = 50, 5000

	scaler, err := predict.NewScaler(predict.ScalerArtifact{Features: preprocessing.DefaultFeatureOrder, Mean: mean, Scale: scale})
	require.NoError(t, err)

	scaledRow := func(raw []float64) []float64 {
		out, err := scaler.Transform(raw)
		require.NoError(t, err)
		return out
	}
	model, err := predict.NewKNNModel(predict.ModelArtifact{
		Algorithm:  "knn_regressor",
		NNeighbors: 3,
		Metric:     "euclidean",
		Features:   preprocessing.DefaultFeatureOrder,
		FitX: [][]float64{
			scaledRow([]float64{110, 25000, 3, 0, 50.85, 4.35, 1, 0, 0}),
			scaledRow([]float64{130, 25000, 4, 0, 50.84, 4.36, 1, 0, 1}),
			scaledRow([]float64{95, 24000, 3, 0, 50.83, 4.37, 0, 0, 0}),
			scaledRow([]float64{300, 23000, 1, 2, 49.68, 5.81, 0, 30, 1}),
			scaledRow([]float64{250, 23000, 2, 2, 49.69, 5.82, 1, 30, 1}),
		},
		FitY: []float64{330000, 395000, 260000, 410000, 450000},
	})
	require.NoError(t, err)

	p, err := predict.NewPredictor(scaler, model)
	require.NoError(t, err)

	est, err := NewEstimator(testTable(t), p, nil, quietLogger())
	require.NoError(t, err)

	result, err := est.Predict(context.Background(), validInput())
	require.NoError(t, err)

	lo, hi := model.TargetRange()
	assert.False(t, math.IsNaN(result.Price) || math.IsInf(result.Price, 0))
	assert.GreaterOrEqual(t, result.Price, lo)
	assert.LessOrEqual(t, result.Price, hi)
	assert.InDelta(t, (330000.0+395000.0+260000.0)/3, result.Price, 1e-6)
}
