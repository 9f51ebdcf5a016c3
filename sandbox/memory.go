package sandbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/docker/docker/client"

	golog "github.com/bioagentic/orchestrator/log"
)

// memorySampler polls a container's memory usage at a fixed interval for
// the duration of one Execute call and tracks the peak it observed. One
// instance is created per call; it is not reused.
type memorySampler struct {
	cli         *client.Client
	containerID string
	interval    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	peak float64
}

func newMemorySampler(ctx context.Context, cli *client.Client, containerID string, interval time.Duration) *memorySampler {
	sampleCtx, cancel := context.WithCancel(ctx)
	return &memorySampler{
		cli:         cli,
		containerID: containerID,
		interval:    interval,
		ctx:         sampleCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start launches the polling goroutine. A sampling failure (e.g. the
// container already exited) just ends the loop early; it never surfaces
// as an Execute error, since memory tracking is informational only.
func (m *memorySampler) Start() {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				mb, ok := m.sampleOnce()
				if !ok {
					return
				}
				m.mu.Lock()
				if mb > m.peak {
					m.peak = mb
				}
				m.mu.Unlock()
			}
		}
	}()
}

func (m *memorySampler) sampleOnce() (float64, bool) {
	resp, err := m.cli.ContainerStats(m.ctx, m.containerID, false)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()

	var stats struct {
		MemoryStats struct {
			Usage uint64 `json:"usage"`
		} `json:"memory_stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		golog.Warn("sandbox: decode memory stats: %v", err)
		return 0, false
	}
	return float64(stats.MemoryStats.Usage) / (1024 * 1024), true
}

// Stop signals the polling goroutine to exit, waits for it, and returns
// the peak memory observed in megabytes.
func (m *memorySampler) Stop() float64 {
	m.cancel()
	<-m.done
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
