package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusPartial.Terminal())
}

// TerminalJobStatuses guards status writes in SQL; it must agree exactly with
// Terminal() or a finished job could be regressed by a racing recompute.
func TestTerminalJobStatusesMatchesTerminal(t *testing.T) {
	all := []JobStatus{
		JobStatusPending,
		JobStatusRunning,
		JobStatusPartial,
		JobStatusCompleted,
		JobStatusFailed,
	}

	guard := make(map[string]bool)
	for _, s := range TerminalJobStatuses() {
		guard[s] = true
	}

	for _, s := range all {
		assert.Equal(t, s.Terminal(), guard[s.String()], "status %s", s)
	}
	assert.Len(t, guard, 3)
}

func TestJobDeviceStatusTerminal(t *testing.T) {
	assert.False(t, JobDeviceStatusPending.Terminal())
	assert.False(t, JobDeviceStatusRunning.Terminal())
	assert.True(t, JobDeviceStatusCompleted.Terminal())
	assert.True(t, JobDeviceStatusFailed.Terminal())
}
