package agent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"tracehub/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLoopsAreIndependent(t *testing.T) {
	a := &Agent{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var ticks atomic.Int64

	// One loop blocked mid-tick must not stall the other.
	go a.runLoop(ctx, 5*time.Millisecond, func(context.Context) {
		<-release
	})
	go a.runLoop(ctx, 5*time.Millisecond, func(context.Context) {
		ticks.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	close(release)

	assert.Greater(t, ticks.Load(), int64(5))
}

func TestAgentRunStopsOnCancel(t *testing.T) {
	cfg := &config.AgentConfig{
		ServerURL:           "http://127.0.0.1:0",
		HostName:            "bench-test",
		HostKey:             "test-key",
		ADBPath:             "/nonexistent/adb",
		ScanInterval:        1,
		PollInterval:        1,
		MaxConcurrentTraces: 1,
		WorkDir:             t.TempDir(),
	}

	a := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("agent did not stop after cancel")
	}
}
