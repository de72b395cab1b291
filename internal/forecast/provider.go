// Package forecast retrieves per-model wind forecasts, caches them, and
// blends them into a single consensus forecast with an agreement score.
package forecast

import (
	"fmt"
	"strings"
)

// Model identifiers accepted by the engine.
const (
	ModelICON        = "icon"
	ModelGFS         = "gfs"
	ModelECMWF       = "ecmwf"
	ModelMeteoFrance = "meteofrance"
	ModelGEM         = "gem"

	// ModelBlend is the derived consensus variant; it is never fetched
	// directly from a provider.
	ModelBlend = "blend"
)

// modelSpec maps a model identifier to its endpoint path segment and its
// static skill weight. Weights are fixed, not learned.
type modelSpec struct {
	path   string
	weight float64
}

var modelTable = map[string]modelSpec{
	ModelICON:        {path: "dwd-icon", weight: 1.15},
	ModelGFS:         {path: "gfs", weight: 1.0},
	ModelECMWF:       {path: "ecmwf", weight: 1.3},
	ModelMeteoFrance: {path: "meteofrance", weight: 0.95},
	ModelGEM:         {path: "gem", weight: 0.85},
}

// BaseModels returns every known base model identifier.
func BaseModels() []string {
	return []string{ModelICON, ModelGFS, ModelECMWF, ModelMeteoFrance, ModelGEM}
}

// Weight returns the static skill weight for a model, 1.0 when unknown.
func Weight(model string) float64 {
	if spec, ok := modelTable[model]; ok {
		return spec.weight
	}
	return 1.0
}

// ProviderError reports a failed or malformed response from a model endpoint.
type ProviderError struct {
	Model  string
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model %s: status %d: %s", e.Model, e.Status, e.Msg)
	}
	return fmt.Sprintf("model %s: %s", e.Model, e.Msg)
}

// AllModelsFailedError means no base model produced a usable forecast, so
// there is nothing to blend.
type AllModelsFailedError struct {
	Errs []error
}

func (e *AllModelsFailedError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("all models failed: %s", strings.Join(msgs, "; "))
}
