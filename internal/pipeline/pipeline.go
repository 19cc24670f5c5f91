// Package pipeline sequences one full run: acquire the raw exports, filter,
// clean, merge, store, export, compute and persist metrics, write the
// summary and update field team tracking. Any core step failure aborts the
// run; artifacts of completed steps are left in place.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vectorcam/vectorinsight/internal/cleaning"
	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/datastore"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/export"
	"github.com/vectorcam/vectorinsight/internal/fieldteam"
	"github.com/vectorcam/vectorinsight/internal/logger"
	"github.com/vectorcam/vectorinsight/internal/merge"
	"github.com/vectorcam/vectorinsight/internal/metrics"
	"github.com/vectorcam/vectorinsight/internal/observability"
	obsmetrics "github.com/vectorcam/vectorinsight/internal/observability/metrics"
	"github.com/vectorcam/vectorinsight/internal/records"
	"github.com/vectorcam/vectorinsight/internal/report"
	"github.com/vectorcam/vectorinsight/internal/snapshot"
	"github.com/vectorcam/vectorinsight/internal/summary"
)

// Step names, used in logs and as metric labels.
const (
	StepAcquire   = "acquire"
	StepFilter    = "filter"
	StepClean     = "clean"
	StepMerge     = "merge"
	StepStore     = "store"
	StepExport    = "export"
	StepMetrics   = "metrics"
	StepPersist   = "persist_metrics"
	StepSummary   = "summary"
	StepFieldTeam = "fieldteam"
)

// Source provides the raw exports. *extract.Client implements it.
type Source interface {
	Surveillance(ctx context.Context) (*dataset.Frame, error)
	Specimens(ctx context.Context) (*dataset.Frame, error)
}

// Config holds the collaborators of a pipeline.
type Config struct {
	Settings *conf.Settings
	// Store must be open.
	Store datastore.Interface
	// Source may be nil when runs skip extraction.
	Source Source
	// Metrics may be nil.
	Metrics *observability.Metrics
	Log     logger.Logger
}

// Options control a single run.
type Options struct {
	// SkipExtraction loads the latest cached snapshots instead of calling
	// the API.
	SkipExtraction bool
}

// Files lists the artifacts written by a run.
type Files struct {
	Snapshots           []string
	CleanedSurveillance string
	CleanedSpecimens    string
	Report              string
	Summary             string
}

// Result describes a run.
type Result struct {
	RunID      string
	Started    time.Time
	Duration   time.Duration
	Sessions   int
	Specimens  int
	Merged     int
	ReportRows int
	Stored     datastore.TableCounts
	Metrics    int
	Bundle     *metrics.Bundle
	Files      Files
	// FieldTeam is nil when the tracker update failed.
	FieldTeam *fieldteam.UpdateResult
}

// Pipeline runs the processing steps.
type Pipeline struct {
	settings *conf.Settings
	store    datastore.Interface
	source   Source
	metrics  *observability.Metrics
	recorder obsmetrics.Recorder
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

// New returns a pipeline for cfg.
func New(cfg Config) *Pipeline {
	log := cfg.Log
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	p := &Pipeline{
		settings: cfg.Settings,
		store:    cfg.Store,
		source:   cfg.Source,
		metrics:  cfg.Metrics,
		recorder: obsmetrics.NopRecorder{},
		log:      log.Module("pipeline"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if cfg.Metrics != nil {
		p.recorder = cfg.Metrics.Pipeline
	}
	return p
}

// run carries the state of one execution between steps.
type run struct {
	ctx    context.Context
	log    logger.Logger
	result *Result

	rawSessions  *dataset.Frame
	rawSpecimens *dataset.Frame
	sessions     *records.SessionTable
	specimens    *records.SpecimenTable
	merged       *merge.Table
}

// Run executes one pipeline run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := p.newID()
	ctx = logger.WithTraceID(ctx, runID)
	r := &run{
		ctx:    ctx,
		log:    p.log.WithContext(ctx),
		result: &Result{RunID: runID, Started: p.now()},
	}

	r.log.Info("starting pipeline run",
		logger.String("run_id", runID),
		logger.Bool("skip_extraction", opts.SkipExtraction))

	err := p.runSteps(r, opts)
	r.result.Duration = time.Since(r.result.Started)
	p.finish(r, err)
	if err != nil {
		return r.result, err
	}
	return r.result, nil
}

func (p *Pipeline) runSteps(r *run, opts Options) error {
	steps := []struct {
		name string
		fn   func(*run) error
	}{
		{StepAcquire, func(r *run) error { return p.acquire(r, opts.SkipExtraction) }},
		{StepFilter, p.filter},
		{StepClean, p.clean},
		{StepMerge, p.merge},
		{StepStore, p.storeTables},
		{StepExport, p.export},
		{StepMetrics, p.calculate},
		{StepPersist, p.persistMetrics},
		{StepSummary, p.writeSummary},
	}
	for i, s := range steps {
		if err := r.ctx.Err(); err != nil {
			return errors.New(err).
				Component("pipeline").
				Category(errors.CategoryCancellation).
				Context("step", s.name).
				Build()
		}
		if err := p.step(r, i+1, s.name, s.fn); err != nil {
			return err
		}
	}

	// the core run succeeded, tracker problems only warn
	if err := p.step(r, len(steps)+1, StepFieldTeam, p.updateFieldTeam); err != nil {
		r.log.Warn("field team tracking not updated, continuing", logger.Error(err))
	}
	return nil
}

func (p *Pipeline) step(r *run, n int, name string, fn func(*run) error) error {
	start := time.Now()
	r.log.Info("pipeline step started", logger.Int("step", n), logger.String("name", name))

	err := fn(r)
	elapsed := time.Since(start)
	p.recorder.RecordDuration(name, elapsed.Seconds())
	if err != nil {
		p.recorder.RecordOperation(name, obsmetrics.StatusError)
		p.recorder.RecordError(name, errorType(err))
		r.log.Error("pipeline step failed",
			logger.Int("step", n),
			logger.String("name", name),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return err
	}
	p.recorder.RecordOperation(name, obsmetrics.StatusSuccess)
	r.log.Info("pipeline step completed",
		logger.Int("step", n),
		logger.String("name", name),
		logger.Duration("elapsed", elapsed))
	return nil
}

func errorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) && ee.Category != "" {
		return string(ee.Category)
	}
	return string(errors.CategoryGeneric)
}

func (p *Pipeline) finish(r *run, err error) {
	status := obsmetrics.StatusSuccess
	if err != nil {
		status = obsmetrics.StatusError
	}
	if p.metrics != nil {
		p.metrics.Pipeline.RecordRun(status, p.now())
		if werr := p.metrics.WriteTextfile(p.settings.Observability.Textfile); werr != nil {
			r.log.Warn("could not write metrics textfile", logger.Error(werr))
		}
	}

	if err != nil {
		r.log.Error("pipeline run failed", logger.Duration("duration", r.result.Duration), logger.Error(err))
		return
	}
	r.log.Info("pipeline run completed",
		logger.Duration("duration", r.result.Duration),
		logger.Int("surveillance_records", r.result.Sessions),
		logger.Int("specimen_records", r.result.Specimens))
}

func (p *Pipeline) stageRows(stage string, n int) {
	if p.metrics != nil {
		p.metrics.Pipeline.SetStageRows(stage, n)
	}
}

// acquire loads the raw frames, from the API or from the snapshot cache.
func (p *Pipeline) acquire(r *run, skipExtraction bool) error {
	cache := snapshot.New(p.settings.Paths.Raw, r.log)

	if skipExtraction {
		r.log.Info("skipping extraction, loading cached snapshots", logger.String("dir", p.settings.Paths.Raw))
		var err error
		if r.rawSessions, _, err = cache.LoadLatest(snapshot.TableSurveillance); err != nil {
			return err
		}
		if r.rawSpecimens, _, err = cache.LoadLatest(snapshot.TableSpecimens); err != nil {
			return err
		}
		return nil
	}

	if p.source == nil {
		return errors.Newf("no extraction source configured").
			Component("pipeline").
			Category(errors.CategoryConfiguration).
			Build()
	}
	g, gctx := errgroup.WithContext(r.ctx)
	g.Go(func() (err error) {
		r.rawSessions, err = p.source.Surveillance(gctx)
		return err
	})
	g.Go(func() (err error) {
		r.rawSpecimens, err = p.source.Specimens(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, raw := range []struct {
		table string
		frame *dataset.Frame
	}{
		{snapshot.TableSurveillance, r.rawSessions},
		{snapshot.TableSpecimens, r.rawSpecimens},
	} {
		saved, err := cache.Save(raw.table, raw.frame)
		if err != nil {
			return err
		}
		r.result.Files.Snapshots = append(r.result.Files.Snapshots, saved.Monthly, saved.Backup)
	}
	return nil
}

func (p *Pipeline) filter(r *run) error {
	c := cleaning.New(r.log)
	r.rawSessions = c.FilterSurveillanceSessions(r.rawSessions)
	r.rawSpecimens = c.FilterSurveillanceSessions(r.rawSpecimens)
	p.stageRows("raw_surveillance", r.rawSessions.Len())
	p.stageRows("raw_specimens", r.rawSpecimens.Len())
	return nil
}

func (p *Pipeline) clean(r *run) error {
	c := cleaning.New(r.log)
	r.sessions = c.CleanSurveillance(r.rawSessions)
	r.specimens = c.CleanSpecimens(r.rawSpecimens)
	r.result.Sessions = r.sessions.Len()
	r.result.Specimens = r.specimens.Len()
	p.stageRows("cleaned_surveillance", r.result.Sessions)
	p.stageRows("cleaned_specimens", r.result.Specimens)
	return nil
}

func (p *Pipeline) merge(r *run) error {
	r.merged = merge.Merge(r.sessions, r.specimens)
	r.result.Merged = r.merged.Len()
	p.stageRows("merged", r.result.Merged)
	return nil
}

func (p *Pipeline) storeTables(r *run) error {
	counts, err := p.store.ReplaceAll(r.ctx, r.sessions, r.specimens)
	if err != nil {
		return err
	}
	r.result.Stored = counts
	return nil
}

func (p *Pipeline) export(r *run) error {
	w := export.NewWriter(p.settings.Paths.Exports, r.log)
	files := &r.result.Files

	var err error
	if files.CleanedSurveillance, err = w.Write(export.PrefixCleanedSurveillance, r.sessions.Frame()); err != nil {
		return err
	}
	if files.CleanedSpecimens, err = w.Write(export.PrefixCleanedSpecimens, r.specimens.Frame()); err != nil {
		return err
	}

	rows := report.Build(r.sessions, r.specimens)
	r.result.ReportRows = len(rows)
	p.stageRows("report", len(rows))
	if files.Report, err = w.Write(export.PrefixReport, report.Frame(rows)); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) calculate(r *run) error {
	r.result.Bundle = metrics.New(r.log).Calculate(r.sessions, r.specimens, r.merged)
	return nil
}

func (p *Pipeline) persistMetrics(r *run) error {
	now := p.now()
	rows, err := MetricRows(r.result.Bundle, now.Format("2006-01"), now.UTC())
	if err != nil {
		return err
	}
	if err := p.store.UpsertMetrics(r.ctx, rows); err != nil {
		return err
	}
	r.result.Metrics = len(rows)
	return nil
}

func (p *Pipeline) writeSummary(r *run) error {
	rep := summary.Report{Generated: p.now(), RunID: r.result.RunID, Bundle: r.result.Bundle}
	path, err := rep.Write(p.settings.Paths.Logs)
	if err != nil {
		return err
	}
	r.result.Files.Summary = path
	r.log.Info("summary report generated", logger.String("path", path))
	return nil
}

func (p *Pipeline) updateFieldTeam(r *run) error {
	res, err := fieldteam.NewTracker(p.store.Gorm(), r.log).Update(r.ctx)
	if err != nil {
		return err
	}
	r.result.FieldTeam = &res
	return nil
}
