// Package ingest runs a full sync: list a user's projects, fetch the user
// and every project, then normalize, mirror and emit records.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"behancesync/pkg/behance"
	"behancesync/pkg/config"
	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
	"behancesync/pkg/metrics"
	"behancesync/pkg/mirror"
	"behancesync/pkg/normalize"
	"behancesync/pkg/ratelimit"
	"behancesync/pkg/record"
	"behancesync/pkg/sink"
	"behancesync/pkg/storage"
)

// Options identifies the account to sync
type Options struct {
	Username string
	APIKey   string
	// MetricsFile, when set, receives a Prometheus textfile after each run
	MetricsFile string
}

// Stats summarizes one run
type Stats struct {
	Projects       int
	AssetsMirrored int
	AssetsFailed   int
	Created        int
	Updated        int
	Unchanged      int
	Duration       time.Duration
}

func (s *Stats) count(status sink.Status) {
	switch status {
	case sink.StatusCreated:
		s.Created++
	case sink.StatusUpdated:
		s.Updated++
	case sink.StatusUnchanged:
		s.Unchanged++
	}
}

// Driver orchestrates a sync
type Driver struct {
	opts    Options
	client  BehanceClient
	mirror  AssetMirror
	sink    sink.Sink
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewDriver wires a Driver from its parts
func NewDriver(opts Options, client BehanceClient, m AssetMirror, s sink.Sink, met *metrics.Metrics, log logger.Logger) *Driver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Driver{
		opts:    opts,
		client:  client,
		mirror:  m,
		sink:    s,
		metrics: met,
		logger:  log.WithField("component", "ingest"),
	}
}

// New builds a Driver and everything behind it from cfg
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Driver, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	met := metrics.New(nil)
	limiter := ratelimit.NewInterval(cfg.RateLimit.Interval)

	client := behance.NewClient(behance.Options{
		BaseURL:   cfg.Behance.BaseURL,
		APIKey:    cfg.Behance.APIKey,
		Timeout:   cfg.Behance.Timeout,
		UserAgent: cfg.Behance.UserAgent,
		Limiter:   limiter,
		Metrics:   met,
	}, log)

	store, err := storage.NewManager(cfg.Assets.Directory)
	if err != nil {
		return nil, errs.WithStage(errs.Wrap(err, errs.ErrorTypeConfiguration, "asset directory unusable"), errs.StageConfig)
	}
	m := mirror.New(client, store, mirror.Options{
		Concurrency: cfg.Assets.Concurrency,
		FailOnError: cfg.Assets.FailOnError,
		Metrics:     met,
	}, log)

	s, err := sink.New(ctx, cfg.Store, log)
	if err != nil {
		return nil, errs.WithStage(err, errs.StageConfig)
	}

	log.InfoWithFields("Sync components ready", map[string]interface{}{
		"assets_dir":    store.GetOutputDir(),
		"assets_stored": store.Count(),
		"rate_interval": limiter.Interval().String(),
		"store":         cfg.Store.Driver,
	})

	return NewDriver(Options{
		Username:    cfg.Behance.Username,
		APIKey:      cfg.Behance.APIKey,
		MetricsFile: cfg.Metrics.TextfilePath,
	}, client, m, s, met, log), nil
}

// Sink returns the record store the driver emits into
func (d *Driver) Sink() sink.Sink {
	return d.sink
}

// Close releases the record store
func (d *Driver) Close() error {
	return d.sink.Close()
}

// Run performs one sync. Any failed API call or record write aborts the run
// and cancels work still in flight; the returned error carries the stage.
func (d *Driver) Run(ctx context.Context) (stats *Stats, err error) {
	start := time.Now()
	stats = &Stats{}

	defer func() {
		stats.Duration = time.Since(start)
		reason := "completed"
		if err != nil {
			reason = "failed"
		}
		logger.LogComponentStop(d.logger, "ingest", reason)
		d.metrics.ObserveRun(stats.Duration, err)
		if werr := d.metrics.WriteTextfile(d.opts.MetricsFile); werr != nil {
			d.logger.WithError(werr).Warn("Failed to write metrics file")
		}
	}()

	if d.opts.Username == "" || d.opts.APIKey == "" {
		return stats, errs.WithStage(
			errs.New(errs.ErrorTypeConfiguration, "username and API key are required"),
			errs.StageConfig)
	}

	log := d.logger.WithField("username", d.opts.Username)
	logger.LogComponentStart(log, "ingest", nil)

	summaries, err := d.client.FetchProjects(ctx, d.opts.Username)
	if err != nil {
		return stats, errs.WithStage(err, errs.StageProjects)
	}
	stats.Projects = len(summaries)
	log.InfoWithFields("Fetched project list", map[string]interface{}{"projects": len(summaries)})

	user, err := d.client.FetchUser(ctx, d.opts.Username)
	if err != nil {
		return stats, errs.WithStage(err, errs.StageUser)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, summary := range summaries {
		id := summary.ID
		g.Go(func() error {
			res, err := d.syncProject(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			stats.AssetsMirrored += res.assets.Mirrored
			stats.AssetsFailed += res.assets.Failed
			stats.count(res.status)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	userRec, err := record.BuildUserRecord(*user)
	if err != nil {
		return stats, errs.WithStage(err, errs.StageBuild)
	}
	status, err := d.emit(ctx, userRec)
	if err != nil {
		return stats, err
	}
	stats.count(status)

	logger.LogMetrics(log, "sync", map[string]interface{}{
		"projects":        stats.Projects,
		"assets_mirrored": stats.AssetsMirrored,
		"assets_failed":   stats.AssetsFailed,
		"created":         stats.Created,
		"updated":         stats.Updated,
		"unchanged":       stats.Unchanged,
		"duration":        time.Since(start).String(),
	})
	return stats, nil
}

type projectResult struct {
	assets mirror.Summary
	status sink.Status
}

// syncProject fetches, normalizes, mirrors, builds and emits one project
func (d *Driver) syncProject(ctx context.Context, id int64) (projectResult, error) {
	var res projectResult

	detail, err := d.client.FetchProject(ctx, id)
	if err != nil {
		return res, errs.WithStage(err, errs.StageProjectDetail)
	}

	project := normalize.NormalizeProject(*detail)

	res.assets, err = d.mirror.MirrorProject(ctx, &project)
	if err != nil {
		return res, errs.WithStage(err, errs.StageMirror)
	}

	rec, err := record.BuildProjectRecord(project)
	if err != nil {
		return res, errs.WithStage(err, errs.StageBuild)
	}

	res.status, err = d.emit(ctx, rec)
	return res, err
}

func (d *Driver) emit(ctx context.Context, rec *record.Record) (sink.Status, error) {
	status, err := d.sink.CreateRecord(ctx, rec)
	if err != nil {
		if errs.TypeOf(err) == errs.ErrorTypeUnknown {
			err = errs.Wrap(err, errs.ErrorTypeStore, fmt.Sprintf("failed to emit %s %s", rec.Internal.Type, rec.ID))
		}
		return "", errs.WithStage(err, errs.StageEmit)
	}
	d.metrics.ObserveRecord(rec.Internal.Type, string(status))
	d.logger.DebugWithFields("Record emitted", map[string]interface{}{
		"type":   rec.Internal.Type,
		"id":     rec.ID,
		"status": string(status),
	})
	return status, nil
}
