package predict

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	scalerSchema = mustCompileSchema("schemas/scaler.json")
	modelSchema  = mustCompileSchema("schemas/model.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded schema %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("failed to add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// ScalerArtifact is the exported state of a fitted standard scaler.
type ScalerArtifact struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// ModelArtifact is the exported state of a fitted KNN regressor. FitX rows
// are already in scaled space.
type ModelArtifact struct {
	Algorithm  string      `json:"algorithm"`
	NNeighbors int         `json:"n_neighbors"`
	Metric     string      `json:"metric"`
	Features   []string    `json:"features"`
	FitX       [][]float64 `json:"fit_x"`
	FitY       []float64   `json:"fit_y"`
}

// decodeArtifact validates raw JSON against schema before decoding it into out.
func decodeArtifact(raw []byte, schema *jsonschema.Schema, out interface{}) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("artifact is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("artifact does not match schema: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}
	return nil
}

// fingerprint hashes the canonical JSON encoding of a decoded artifact, so
// the same content yields the same value wherever it was loaded from.
func fingerprint(artifact interface{}) (uint64, error) {
	data, err := json.Marshal(artifact)
	if err != nil {
		return 0, fmt.Errorf("failed to fingerprint artifact: %w", err)
	}
	return xxhash.Sum64(data), nil
}

func readArtifact(path string, schema *jsonschema.Schema, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeArtifact(raw, schema, out)
}
