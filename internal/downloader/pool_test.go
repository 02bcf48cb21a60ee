package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"behancesync/pkg/logger"
)

// mockMirrorer records calls and fails for URLs containing "bad"
type mockMirrorer struct {
	delay   time.Duration
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (m *mockMirrorer) MirrorAsset(ctx context.Context, url string) (string, error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if strings.Contains(url, "bad") {
		return "", errors.New("download failed")
	}
	return "ref-" + url, nil
}

func jobs(urls ...string) []Job {
	out := make([]Job, len(urls))
	for i, u := range urls {
		out[i] = Job{URL: u}
	}
	return out
}

func TestWorkerPoolRun(t *testing.T) {
	mirrorer := &mockMirrorer{delay: 5 * time.Millisecond}
	pool := NewWorkerPool(3, mirrorer, logger.NewNopLogger())

	results := pool.Run(context.Background(), jobs("a", "b", "bad-c", "d"))

	require.Len(t, results, 4)
	assert.Equal(t, int32(4), mirrorer.calls.Load())

	byURL := make(map[string]Result)
	for _, r := range results {
		byURL[r.Job.URL] = r
	}
	assert.Equal(t, "ref-a", byURL["a"].Ref)
	assert.NoError(t, byURL["d"].Error)
	assert.Error(t, byURL["bad-c"].Error)
	assert.Empty(t, byURL["bad-c"].Ref)
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	mirrorer := &mockMirrorer{delay: 20 * time.Millisecond}
	pool := NewWorkerPool(2, mirrorer, logger.NewNopLogger())

	var urls []string
	for i := 0; i < 10; i++ {
		urls = append(urls, fmt.Sprintf("u%d", i))
	}
	results := pool.Run(context.Background(), jobs(urls...))

	assert.Len(t, results, 10)
	assert.LessOrEqual(t, mirrorer.maxSeen.Load(), int32(2))
}

func TestWorkerPoolOneWorkerPerJob(t *testing.T) {
	mirrorer := &mockMirrorer{delay: 30 * time.Millisecond}
	pool := NewWorkerPool(5, mirrorer, logger.NewNopLogger())

	start := time.Now()
	results := pool.Run(context.Background(), jobs("a", "b", "c", "d", "e"))

	assert.Len(t, results, 5)
	// All five ran side by side rather than back to back
	assert.Less(t, time.Since(start), 5*30*time.Millisecond)
}

func TestWorkerPoolCancelled(t *testing.T) {
	mirrorer := &mockMirrorer{delay: time.Second}
	pool := NewWorkerPool(1, mirrorer, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var urls []string
	for i := 0; i < 10; i++ {
		urls = append(urls, fmt.Sprintf("u%d", i))
	}
	results := pool.Run(ctx, jobs(urls...))

	require.Len(t, results, 10)
	for _, r := range results {
		assert.Error(t, r.Error)
	}
}

func TestWorkerPoolManualLifecycle(t *testing.T) {
	mirrorer := &mockMirrorer{}
	pool := NewWorkerPool(0, mirrorer, logger.NewNopLogger())
	pool.Start(context.Background())

	var wg sync.WaitGroup
	var got []Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range pool.Results() {
			got = append(got, r)
		}
	}()

	require.NoError(t, pool.Submit(Job{URL: "x"}))
	require.NoError(t, pool.Submit(Job{URL: "y"}))
	pool.Stop()
	wg.Wait()

	assert.Len(t, got, 2)
}
