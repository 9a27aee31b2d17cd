// Package classifier implements the anomaly detectors that run over the
// CEAP reimbursement dataset. Each detector encodes one independent
// heuristic and reports a per-row verdict; the set is fixed and known at
// build time.
package classifier

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
)

// ErrNotFitted is returned by Predict when Fit has not run yet and no
// cached model was restored.
var ErrNotFitted = errors.New("classifier is not fitted")

// Classifier is the contract every detector implements. Fit derives the
// model state from a dataset, Transform is reserved for dataset-wide
// pre-computation (a no-op for all current detectors), and Predict returns
// one verdict per dataset row, in row order.
type Classifier interface {
	// Name is the detector's identity: its output column and cache key.
	Name() string
	Fit(ds *dataset.Dataset) error
	Transform(ds *dataset.Dataset) error
	Predict(ds *dataset.Dataset) ([]model.Verdict, error)
	// AlwaysRefit disables model caching for detectors whose fitted state
	// is static configuration rather than learned parameters.
	AlwaysRefit() bool
	// ModelState serializes the fitted state for caching.
	ModelState() ([]byte, error)
	// RestoreModel replaces the detector's state with a cached one,
	// leaving it fitted.
	RestoreModel(data []byte) error
}

func encodeState(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeState(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
