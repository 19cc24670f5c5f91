// Package metrics provides custom Prometheus metrics for the pipeline.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it rather than on concrete metric implementations.
type Recorder interface {
	// RecordOperation records an operation with its status, such as
	// ("clean", "success").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type, usually the
	// error category.
	RecordError(operation, errorType string)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

// RecordOperation implements Recorder.
func (NopRecorder) RecordOperation(string, string) {}

// RecordDuration implements Recorder.
func (NopRecorder) RecordDuration(string, float64) {}

// RecordError implements Recorder.
func (NopRecorder) RecordError(string, string) {}
