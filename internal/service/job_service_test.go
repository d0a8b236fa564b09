package service

import (
	"testing"
	"time"

	"tracehub/pkg/constants"
	storemodel "tracehub/pkg/store/mysql/model"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobView(t *testing.T) {
	created := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	updated := created.Add(45 * time.Second)

	job := &storemodel.JobRequest{
		JobID:         "job-1",
		ConfigID:      "cfg-1",
		Status:        constants.JobStatusPartial.String(),
		Duration:      30,
		ResultSummary: "Completed: 1/2 successful, 1/2 failed",
		CreatedAt:     created,
		UpdatedAt:     updated,
		Devices: []storemodel.JobDevice{
			{ID: "jd-1", JobID: "job-1", DeviceID: "dev-1", Status: "completed"},
			{ID: "jd-2", JobID: "job-1", DeviceID: "dev-2", Status: "failed"},
		},
	}

	view := newJobView(job, map[string]string{"dev-1": "Pixel 8"})

	assert.Equal(t, "job-1", view.JobID)
	assert.Equal(t, "partial", view.Status)
	assert.Equal(t, created, view.CreatedAt)
	assert.Equal(t, updated, view.UpdatedAt)

	require.Len(t, view.Devices, 2)
	assert.Equal(t, "Pixel 8", view.Devices[0].DeviceName)
	assert.Empty(t, view.Devices[1].DeviceName, "unresolved devices keep an empty name")
}

func TestComputeAggregate(t *testing.T) {
	p := constants.JobDeviceStatusPending
	r := constants.JobDeviceStatusRunning
	c := constants.JobDeviceStatusCompleted
	f := constants.JobDeviceStatusFailed

	tests := []struct {
		name        string
		statuses    []constants.JobDeviceStatus
		wantStatus  constants.JobStatus
		wantSummary string
	}{
		{
			name:       "no children stays pending",
			statuses:   nil,
			wantStatus: constants.JobStatusPending,
		},
		{
			name:       "all pending stays pending",
			statuses:   []constants.JobDeviceStatus{p, p, p},
			wantStatus: constants.JobStatusPending,
		},
		{
			name:       "one running reads running",
			statuses:   []constants.JobDeviceStatus{p, r},
			wantStatus: constants.JobStatusRunning,
		},
		{
			name:       "terminal child with pending sibling reads running",
			statuses:   []constants.JobDeviceStatus{c, p},
			wantStatus: constants.JobStatusRunning,
		},
		{
			name:       "failed child with running sibling reads running",
			statuses:   []constants.JobDeviceStatus{f, r},
			wantStatus: constants.JobStatusRunning,
		},
		{
			name:        "all completed",
			statuses:    []constants.JobDeviceStatus{c, c},
			wantStatus:  constants.JobStatusCompleted,
			wantSummary: "Completed: 2/2 successful, 0/2 failed",
		},
		{
			name:        "all failed",
			statuses:    []constants.JobDeviceStatus{f, f, f},
			wantStatus:  constants.JobStatusFailed,
			wantSummary: "Completed: 0/3 successful, 3/3 failed",
		},
		{
			name:        "mixed outcome is partial",
			statuses:    []constants.JobDeviceStatus{c, f},
			wantStatus:  constants.JobStatusPartial,
			wantSummary: "Completed: 1/2 successful, 1/2 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, summary := computeAggregate(tt.statuses)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantSummary, summary)
		})
	}
}

func TestProperty_ComputeAggregate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	genStatuses := gen.SliceOf(gen.OneConstOf(
		constants.JobDeviceStatusPending,
		constants.JobDeviceStatusRunning,
		constants.JobDeviceStatusCompleted,
		constants.JobDeviceStatusFailed,
	))

	properties.Property("aggregate is terminal exactly when every child is terminal",
		prop.ForAll(
			func(statuses []constants.JobDeviceStatus) bool {
				allTerminal := true
				for _, st := range statuses {
					if !st.Terminal() {
						allTerminal = false
						break
					}
				}
				status, _ := computeAggregate(statuses)
				if len(statuses) == 0 {
					return status == constants.JobStatusPending
				}
				return status.Terminal() == allTerminal
			},
			genStatuses,
		))

	properties.Property("terminal aggregate carries a summary, non-terminal never does",
		prop.ForAll(
			func(statuses []constants.JobDeviceStatus) bool {
				status, summary := computeAggregate(statuses)
				if status.Terminal() {
					return summary != ""
				}
				return summary == ""
			},
			genStatuses,
		))

	properties.Property("child order never changes the aggregate",
		prop.ForAll(
			func(statuses []constants.JobDeviceStatus) bool {
				status, summary := computeAggregate(statuses)
				reversed := make([]constants.JobDeviceStatus, len(statuses))
				for i, st := range statuses {
					reversed[len(statuses)-1-i] = st
				}
				rStatus, rSummary := computeAggregate(reversed)
				return status == rStatus && summary == rSummary
			},
			genStatuses,
		))

	properties.TestingRun(t)
}
