package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRoutesByTool(t *testing.T) {
	want := make([]byte, 2048)
	c := &toolCollector{perfetto: &fakeCollector{data: want}}

	for _, tool := range []string{"", "perfetto", "Perfetto"} {
		data, err := c.Collect(context.Background(), "RFCX20AB1CD", &TraceConfig{TracingTool: tool}, 5)
		require.NoError(t, err, "tool %q", tool)
		assert.Equal(t, want, data)
	}
}

func TestCollectorRejectsSimpleperf(t *testing.T) {
	c := &toolCollector{perfetto: &fakeCollector{err: errors.New("must not be reached")}}

	_, err := c.Collect(context.Background(), "RFCX20AB1CD", &TraceConfig{TracingTool: "simpleperf"}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simpleperf")
}

func TestCollectorRejectsUnknownTool(t *testing.T) {
	c := &toolCollector{perfetto: &fakeCollector{}}

	_, err := c.Collect(context.Background(), "RFCX20AB1CD", &TraceConfig{TracingTool: "strace"}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strace")
}
