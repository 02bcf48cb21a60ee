package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
)

// cronLogger adapts logger.Logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.DebugWithFields("cron: "+msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).ErrorWithFields("cron: "+msg, kvFields(keysAndValues))
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}

// Schedule runs the driver on a standard 5-field cron spec until ctx is
// cancelled. A run still going when the next tick fires makes that tick a
// no-op. With runNow the first run starts immediately.
func (d *Driver) Schedule(ctx context.Context, spec string, runNow bool) error {
	clog := cronLogger{log: d.logger}
	c := cron.New(cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))

	job := cron.FuncJob(func() {
		stats, err := d.Run(ctx)
		if err != nil {
			d.logger.WithError(err).ErrorWithFields("Scheduled sync failed", map[string]interface{}{
				"stage": string(errs.StageOf(err)),
			})
			return
		}
		d.logger.InfoWithFields("Scheduled sync finished", map[string]interface{}{
			"projects": stats.Projects,
			"duration": stats.Duration.String(),
		})
	})

	id, err := c.AddJob(spec, job)
	if err != nil {
		return errs.WithStage(errs.Wrap(err, errs.ErrorTypeConfiguration, "invalid schedule "+spec), errs.StageConfig)
	}
	// Shares the skip-if-running guard with the cron entry
	wrapped := c.Entry(id).WrappedJob

	c.Start()
	d.logger.InfoWithFields("Scheduler started", map[string]interface{}{
		"schedule": spec,
		"next":     c.Entry(id).Schedule.Next(time.Now()).Format(time.RFC3339),
	})

	var wg sync.WaitGroup
	if runNow {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wrapped.Run()
		}()
	}

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	wg.Wait()
	logger.LogComponentStop(d.logger, "scheduler", context.Cause(ctx).Error())
	return nil
}
