package extract

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/observability"
)

const testBaseURL = "https://api.test.vectorcam.org"

func testSettings(t *testing.T, opts ...func(*conf.Settings)) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.API.BaseURL = testBaseURL
	s.API.Key = "secret-token"
	s.API.Timeout = 5 * time.Second
	s.API.UserAgent = "vectorinsight-test"
	for _, o := range opts {
		o(s)
	}
	return s
}

// newTestClient returns a client on a fresh mock transport and the metrics
// it records into.
func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport, *observability.Metrics) {
	t.Helper()
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	mt := httpmock.NewMockTransport()
	c, err := New(testSettings(t), logger.NewSlogLogger(nil, logger.LogLevelError, time.UTC), m.Extract, WithTransport(mt))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, mt, m
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()
	_, err := New(testSettings(t, func(s *conf.Settings) { s.API.Key = "  " }), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestFetchSurveillance(t *testing.T) {
	t.Parallel()
	c, mt, m := newTestClient(t)

	url := testBaseURL + "/sessions/export/surveillance-forms/csv"
	mt.RegisterResponder(http.MethodGet, url, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
		assert.Equal(t, "text/csv", req.Header.Get("Accept"))
		assert.Equal(t, "vectorinsight-test", req.Header.Get("User-Agent"))
		return httpmock.NewStringResponse(http.StatusOK,
			"\ufeffSessionID,SiteDistrict\n1,Kasese\n2,Tororo\n"), nil
	})

	f, err := c.Surveillance(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"SessionID", "SiteDistrict"}, f.Header)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "Tororo", f.Get(1, "SiteDistrict"))
	assert.Equal(t, 1, mt.GetCallCountInfo()["GET "+url])

	samples, err := m.Samples("extract_requests_total")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, map[string]string{"table": TableSurveillance, "status_code": "200"}, samples[0].Labels)

	rows, err := m.Samples("extract_rows")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 2.0, rows[0].Value, 0)
}

func TestFetchSpecimens(t *testing.T) {
	t.Parallel()
	c, mt, _ := newTestClient(t)
	mt.RegisterResponder(http.MethodGet, testBaseURL+"/specimens/export/csv",
		httpmock.NewStringResponder(http.StatusOK, "SpecimenID,SessionID,Species\na,1,Culex\n"))

	f, err := c.Specimens(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Culex", f.Get(0, "Species"))
}

func TestFetchFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		responder httpmock.Responder
		category  errors.ErrorCategory
		status    string
	}{
		{"unauthorized", httpmock.NewStringResponder(http.StatusUnauthorized, `{"detail":"bad token"}`), errors.CategoryHTTP, "401"},
		{"server error", httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"), errors.CategoryHTTP, "502"},
		{"empty body", httpmock.NewStringResponder(http.StatusOK, "  \n"), errors.CategoryFileParsing, "200"},
		{"malformed csv", httpmock.NewStringResponder(http.StatusOK, "a,b\n1,2,3\n"), errors.CategoryFileParsing, "200"},
		{"transport", httpmock.NewErrorResponder(fmt.Errorf("connection reset")), errors.CategoryNetwork, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, mt, m := newTestClient(t)
			mt.RegisterResponder(http.MethodGet, `=~^https://api\.test\.vectorcam\.org/`, tt.responder)

			f, err := c.Specimens(t.Context())
			require.Error(t, err)
			assert.Nil(t, f)
			assert.True(t, errors.IsCategory(err, tt.category), "got %v", err)

			samples, err := m.Samples("extract_requests_total")
			require.NoError(t, err)
			require.Len(t, samples, 1)
			assert.Equal(t, tt.status, samples[0].Labels["status_code"])

			rows, err := m.Samples("extract_rows")
			require.NoError(t, err)
			assert.Empty(t, rows, "no rows recorded for a failed export")
		})
	}
}

func TestSnippet(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", snippet([]byte(" short \n")))

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	s := snippet(long)
	assert.Contains(t, s, "(500 bytes)")
	assert.Less(t, len(s), 300)
}
