package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.IsReported())
}

func TestBuilderContext(t *testing.T) {
	t.Parallel()

	ee := Newf("fetch %s failed", "specimens").
		Component("extract").
		Category(CategoryHTTP).
		Context("status_code", 502).
		Priority("bogus").
		Build()

	assert.Equal(t, "fetch specimens failed", ee.Error())
	assert.Equal(t, "extract", ee.GetComponent())
	assert.Equal(t, CategoryHTTP, ee.Category)
	assert.Equal(t, PriorityMedium, ee.GetPriority())
	assert.Equal(t, 502, ee.GetContext()["status_code"])
}

func TestCategoryHelpers(t *testing.T) {
	t.Parallel()

	notFound := New(NewStd("no snapshot")).Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("load: %w", notFound)

	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsCategory(wrapped, CategoryNotFound))
	assert.False(t, IsCategory(wrapped, CategoryDatabase))
	assert.True(t, Is(wrapped, &EnhancedError{Category: CategoryNotFound}))

	// A wrapped enhanced error passes its category to the outer one
	outer := New(notFound).Component("pipeline").Build()
	assert.Equal(t, CategoryNotFound, outer.Category)
}

func TestConvenienceConstructors(t *testing.T) {
	t.Parallel()

	fe := FileError(NewStd("open failed"), "/data/raw/specimens.csv", 2048)
	assert.Equal(t, CategoryFileIO, fe.Category)
	assert.Equal(t, "absolute-path", fe.GetContext()["file_type"])
	assert.Equal(t, "csv", fe.GetContext()["file_extension"])
	assert.Equal(t, "small", fe.GetContext()["file_size_category"])

	ne := NetworkError(NewStd("dial tcp"), "https://test.api.vectorcam.org/x", 2*time.Minute)
	assert.Equal(t, CategoryNetwork, ne.Category)
	assert.Equal(t, "https-endpoint", ne.GetContext()["url_category"])
	assert.InDelta(t, 120.0, ne.GetContext()["timeout_seconds"], 0.001)

	ve := ValidationError("bad input")
	assert.Equal(t, CategoryValidation, ve.Category)
}

func TestTelemetryReporterReceivesErrors(t *testing.T) {
	rep := &recordingReporter{}
	SetTelemetryReporter(rep)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	ee := New(NewStd("csv: wrong number of fields")).Component("extract").Build()

	require.Len(t, rep.reported, 1)
	assert.Same(t, ee, rep.reported[0])
	assert.True(t, ee.IsReported())
	assert.Equal(t, CategoryFileParsing, ee.Category)
}

func TestBasicURLScrub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		absent  []string
		present string
	}{
		{"query string", "GET https://api.example.com/csv?api_key=secret123", []string{"secret123"}, "[REDACTED]"},
		{"bearer", "header Authorization: Bearer abc.def.ghi", []string{"abc.def.ghi"}, "[TOKEN_REDACTED]"},
		{"api key", "config error: api_key=secret123 is invalid", []string{"secret123"}, "[API_KEY_REDACTED]"},
		{"email", "collector jane.doe@example.org missing", []string{"jane.doe@example.org"}, "[EMAIL_REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := basicURLScrub(tt.in)
			for _, a := range tt.absent {
				assert.NotContains(t, out, a)
			}
			assert.Contains(t, out, tt.present)
		})
	}
}

func TestGenerateErrorTitle(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("boom")).
		Component("datastore").
		Category(CategoryDatabase).
		Context("operation", "replace_all").
		Build()

	assert.Equal(t, "Datastore Database Error Replace All", generateErrorTitle(ee))
}
