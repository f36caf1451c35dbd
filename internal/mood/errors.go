package mood

import "errors"

// Sentinel causes wrapped by DataError and ModelError.
var (
	// ErrNoObservations is returned when a source yields no data rows.
	ErrNoObservations = errors.New("no observations")

	// ErrMissingColumn is returned when a source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedValue is returned when a cell cannot be parsed.
	ErrMalformedValue = errors.New("malformed value")

	// ErrNotTrained is returned when predicting with a nil or unfitted model.
	ErrNotTrained = errors.New("model not trained")

	// ErrMissingFeature is returned when a record lacks a schema feature.
	ErrMissingFeature = errors.New("missing feature")

	// ErrUnknownFeature is returned when a record carries a feature outside the schema.
	ErrUnknownFeature = errors.New("unknown feature")

	// ErrInvalidFeature is returned for non-finite feature values.
	ErrInvalidFeature = errors.New("invalid feature value")
)

// DataError reports a training source that is missing, malformed or
// insufficient for fitting.
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string {
	return "mood data: " + e.Op + ": " + e.Err.Error()
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// ModelError reports a prediction against a mismatched or unfitted model,
// or a malformed feature vector.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	return "mood model: " + e.Op + ": " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func dataErr(op string, err error) error {
	return &DataError{Op: op, Err: err}
}

func modelErr(op string, err error) error {
	return &ModelError{Op: op, Err: err}
}
