package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "behancesync/pkg/errors"
	"behancesync/pkg/logger"
)

func TestScheduleRunsImmediately(t *testing.T) {
	td := newTestDriver(t, time.Millisecond, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- td.driver.Schedule(ctx, "0 0 1 1 *", true)
	}()

	require.Eventually(t, func() bool {
		return len(td.sink.Records()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.True(t, td.log.HasMessage("Scheduled sync finished"))

	var stopped bool
	for _, msg := range td.log.GetMessages() {
		if msg.Message == "Component stopped" && msg.Fields["component"] == "scheduler" {
			stopped = true
			assert.Equal(t, "context canceled", msg.Fields["reason"])
		}
	}
	assert.True(t, stopped)
}

func TestScheduleInvalidSpec(t *testing.T) {
	d := NewDriver(Options{}, &countingClient{}, nil, nil, nil, logger.NewNopLogger())

	err := d.Schedule(context.Background(), "every now and then", false)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeConfiguration))
}

func TestCronLoggerFields(t *testing.T) {
	log := logger.NewTestLogger()
	cl := cronLogger{log: log}

	cl.Info("skip", "now", "x", "entry")
	cl.Error(errors.New("boom"), "panic", "job", 1)

	assert.True(t, log.HasMessage("cron: skip"))
	assert.True(t, log.HasError())
	assert.Equal(t, map[string]interface{}{"now": "x"}, kvFields([]interface{}{"now", "x", "dangling"}))
}
