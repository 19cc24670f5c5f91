// Package extract downloads the surveillance and specimen exports from the
// VectorCam API as CSV frames.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/httpclient"
	"github.com/vectorcam/vectorinsight/internal/logger"
	obsmetrics "github.com/vectorcam/vectorinsight/internal/observability/metrics"
)

// Table names, also used as metric labels.
const (
	TableSurveillance = "surveillance"
	TableSpecimens    = "specimens"
)

// ErrNoAPIKey is returned when extraction is attempted without credentials.
var ErrNoAPIKey = errors.NewStd("no API key configured")

// Client fetches exports with bearer-token authentication.
type Client struct {
	http      *httpclient.Client
	endpoints conf.Endpoints
	key       string
	timeout   time.Duration
	log       logger.Logger
	metrics   *obsmetrics.ExtractMetrics
}

// Option configures a Client.
type Option func(*httpclient.Config)

// WithTransport sets the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *httpclient.Config) { c.Transport = rt }
}

// New returns a client for the endpoints in settings. It fails with a
// configuration error when no API key is set.
func New(settings *conf.Settings, log logger.Logger, m *obsmetrics.ExtractMetrics, opts ...Option) (*Client, error) {
	if !settings.HasAPIKey() {
		return nil, errors.New(ErrNoAPIKey).
			Component("extract").
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityHigh).
			Context("hint", "set API_SECRET_KEY or run with --skip-extraction").
			Build()
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}

	cfg := httpclient.DefaultConfig()
	cfg.DefaultTimeout = settings.API.Timeout
	cfg.UserAgent = settings.API.UserAgent
	cfg.Headers = http.Header{"Accept": {"text/csv"}}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Client{
		http:      httpclient.New(&cfg),
		endpoints: settings.Endpoints(),
		key:       settings.API.Key,
		timeout:   settings.API.Timeout,
		log:       log.Module("extract"),
		metrics:   m,
	}
	c.http.SetBeforeRequestHook(func(r *http.Request) {
		c.log.Debug("requesting export", logger.String("url", r.URL.Redacted()))
	})
	return c, nil
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.http.Close()
}

// Surveillance downloads the surveillance form export.
func (c *Client) Surveillance(ctx context.Context) (*dataset.Frame, error) {
	return c.Fetch(ctx, TableSurveillance, c.endpoints.Surveillance)
}

// Specimens downloads the specimen export.
func (c *Client) Specimens(ctx context.Context) (*dataset.Frame, error) {
	return c.Fetch(ctx, TableSpecimens, c.endpoints.Specimens)
}

// Fetch downloads url and parses the body as CSV. A transport error, a
// non-2xx status, an empty body or malformed CSV is returned as an error.
func (c *Client) Fetch(ctx context.Context, table, url string) (*dataset.Frame, error) {
	start := time.Now()
	resp, err := c.http.Get(ctx, url, http.Header{"Authorization": {"Bearer " + c.key}})
	if err != nil {
		c.recordRequest(table, "error", start)
		return nil, errors.New(err).
			Component("extract").
			Category(errors.CategoryNetwork).
			NetworkContext(url, c.timeout).
			Context("table", table).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	c.recordRequest(table, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return nil, errors.New(err).
			Component("extract").
			Category(errors.CategoryNetwork).
			NetworkContext(url, c.timeout).
			Context("table", table).
			Context("operation", "read_body").
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("export request failed with status %d", resp.StatusCode).
			Component("extract").
			Category(errors.CategoryHTTP).
			Context("table", table).
			Context("status_code", resp.StatusCode).
			Context("body", snippet(body)).
			Build()
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.Newf("empty %s export", table).
			Component("extract").
			Category(errors.CategoryFileParsing).
			Context("table", table).
			Build()
	}

	frame, err := dataset.ReadCSV(bytes.NewReader(body))
	if err != nil {
		return nil, errors.New(err).
			Component("extract").
			Category(errors.CategoryFileParsing).
			Context("table", table).
			Context("size", len(body)).
			Build()
	}

	if c.metrics != nil {
		c.metrics.RecordResponse(table, int64(len(body)), frame.Len())
	}
	c.log.Info("fetched export",
		logger.String("table", table),
		logger.Int("rows", frame.Len()),
		logger.Int("columns", frame.Width()),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", time.Since(start)))
	return frame, nil
}

func (c *Client) recordRequest(table, status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRequest(table, status, time.Since(start).Seconds())
	}
}

// snippet trims an error body for logging.
func snippet(body []byte) string {
	const limit = 200
	s := string(bytes.TrimSpace(body))
	if len(s) > limit {
		return fmt.Sprintf("%s... (%d bytes)", s[:limit], len(body))
	}
	return s
}
