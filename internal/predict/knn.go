package predict

import (
	"fmt"
	"sort"

	"immoeliza/server/internal/models"

	"github.com/sjwhitworth/golearn/metrics/pairwise"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KNNModel averages the targets of the k nearest training rows. k and the
// metric are fixed by the artifact. Rows at equal distance are ranked by
// their position in the training set.
type KNNModel struct {
	features    []string
	k           int
	metric      string
	cols        int
	distance    pairwise.PairwiseDistanceFunc
	rows        []*mat.Dense
	targets     []float64
	minTarget   float64
	maxTarget   float64
	fingerprint uint64
}

type neighbour struct {
	row      int
	distance float64
}

func NewKNNModel(a ModelArtifact) (*KNNModel, error) {
	if a.Algorithm != "knn_regressor" {
		return nil, fmt.Errorf("unsupported algorithm %q", a.Algorithm)
	}
	var distance pairwise.PairwiseDistanceFunc
	switch a.Metric {
	case "euclidean":
		distance = pairwise.NewEuclidean()
	case "manhattan":
		distance = pairwise.NewManhattan()
	default:
		return nil, fmt.Errorf("unsupported metric %q", a.Metric)
	}

	rows := len(a.FitX)
	cols := len(a.Features)
	if rows == 0 {
		return nil, fmt.Errorf("model has no training rows")
	}
	if rows != len(a.FitY) {
		return nil, fmt.Errorf("model has %d training rows but %d targets", rows, len(a.FitY))
	}
	if a.NNeighbors < 1 || a.NNeighbors > rows {
		return nil, fmt.Errorf("n_neighbors must be between 1 and %d, got %d", rows, a.NNeighbors)
	}

	fitted := make([]*mat.Dense, rows)
	for i, row := range a.FitX {
		if len(row) != cols {
			return nil, fmt.Errorf("training row %d has %d values, expected %d", i, len(row), cols)
		}
		if !allFinite(row) {
			return nil, fmt.Errorf("training row %d contains non-finite values", i)
		}
		fitted[i] = mat.NewDense(1, cols, append([]float64(nil), row...))
	}
	for i, y := range a.FitY {
		if y < 0 || !allFinite([]float64{y}) {
			return nil, fmt.Errorf("target %d must be a finite non-negative number", i)
		}
	}

	targets := append([]float64(nil), a.FitY...)
	fp, err := fingerprint(a)
	if err != nil {
		return nil, err
	}

	return &KNNModel{
		features:    append([]string(nil), a.Features...),
		k:           a.NNeighbors,
		metric:      a.Metric,
		cols:        cols,
		distance:    distance,
		rows:        fitted,
		targets:     targets,
		minTarget:   floats.Min(targets),
		maxTarget:   floats.Max(targets),
		fingerprint: fp,
	}, nil
}

// LoadKNNModel reads and validates a model artifact file.
func LoadKNNModel(path string) (*KNNModel, error) {
	var a ModelArtifact
	if err := readArtifact(path, modelSchema, &a); err != nil {
		return nil, err
	}
	return NewKNNModel(a)
}

func (m *KNNModel) Features() []string {
	return append([]string(nil), m.features...)
}

func (m *KNNModel) K() int {
	return m.k
}

func (m *KNNModel) Metric() string {
	return m.metric
}

// TargetRange is the observed range of training targets.
func (m *KNNModel) TargetRange() (float64, float64) {
	return m.minTarget, m.maxTarget
}

// Predict expects a vector already in scaled space.
func (m *KNNModel) Predict(scaled models.FeatureVector) (float64, error) {
	if len(scaled) != m.cols {
		return 0, fmt.Errorf("model expects %d features, got %d", m.cols, len(scaled))
	}
	query := mat.NewDense(1, m.cols, append([]float64(nil), scaled...))

	ranked := make([]neighbour, len(m.rows))
	for i, row := range m.rows {
		ranked[i] = neighbour{row: i, distance: m.distance.Distance(row, query)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	var sum float64
	for _, n := range ranked[:m.k] {
		sum += m.targets[n.row]
	}
	return sum / float64(m.k), nil
}
