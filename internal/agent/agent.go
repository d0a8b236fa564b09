package agent

import (
	"context"
	"sync"
	"time"

	"tracehub/pkg/config"
	"tracehub/pkg/logger"
)

// Agent runs on each trace bench host: it keeps the device registry fresh
// with adb scans and pulls claimable work for locally attached devices.
type Agent struct {
	cfg       *config.AgentConfig
	client    *Client
	adb       *ADB
	pipeline  *Pipeline
	collector TraceCollector

	// sem bounds concurrent trace collections on this host.
	sem chan struct{}

	mu      sync.Mutex
	tracing map[string]string // serial -> job device id
	names   map[string]string // serial -> cached model name

	wg sync.WaitGroup
}

// New creates an agent from its configuration
func New(cfg *config.AgentConfig) *Agent {
	client := NewClient(cfg.ServerURL, cfg.HostKey)
	collector := NewCollector(cfg.ADBPath, cfg.WorkDir)

	maxConcurrent := cfg.MaxConcurrentTraces
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &Agent{
		cfg:       cfg,
		client:    client,
		adb:       NewADB(cfg.ADBPath),
		pipeline:  NewPipeline(client, collector, cfg.HostName),
		collector: collector,
		sem:       make(chan struct{}, maxConcurrent),
		tracing:   make(map[string]string),
		names:     make(map[string]string),
	}
}

// Run drives the two loops until ctx is cancelled, then waits for in-flight
// collections to finish.
func (a *Agent) Run(ctx context.Context) error {
	scanInterval := time.Duration(a.cfg.ScanInterval) * time.Second
	if scanInterval <= 0 {
		scanInterval = 5 * time.Second
	}
	pollInterval := time.Duration(a.cfg.PollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	logger.InfoCtx(ctx, "agent %s starting: server %s, scan %v, poll %v, max %d concurrent traces",
		a.cfg.HostName, a.cfg.ServerURL, scanInterval, pollInterval, cap(a.sem))

	// First scan before work polling so the registry knows this host's
	// devices before any claims happen.
	a.scanOnce(ctx)

	// The loops run on separate goroutines so a slow adb scan never delays
	// dispatch, and a long poll never starves liveness reporting.
	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		a.runLoop(ctx, scanInterval, a.scanOnce)
	}()
	go func() {
		defer loops.Done()
		a.runLoop(ctx, pollInterval, a.pollOnce)
	}()
	loops.Wait()

	logger.InfoCtx(ctx, "agent stopping, waiting for in-flight traces")
	a.wg.Wait()
	return ctx.Err()
}

// runLoop invokes tick every interval until ctx is cancelled.
func (a *Agent) runLoop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// isTracing reports whether a collection is in flight on the serial.
func (a *Agent) isTracing(serial string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.tracing[serial]
	return ok
}

// markTracing reserves a serial for one unit. Returns false when a
// collection is already running there.
func (a *Agent) markTracing(serial, jobDeviceID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tracing[serial]; ok {
		return false
	}
	a.tracing[serial] = jobDeviceID
	return true
}

func (a *Agent) clearTracing(serial string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tracing, serial)
}
