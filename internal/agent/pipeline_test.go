package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"tracehub/internal/model"
	"tracehub/pkg/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	claimErr  error
	uploadErr error
	configErr error

	statusCalls []string
	updates     []*model.JobProgressUpdate
	uploads     []string
	traces      []*model.TraceCreateRequest
}

func (f *fakeAPI) UpdateJobDeviceStatus(_ context.Context, _, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == constants.JobDeviceStatusRunning.String() && f.claimErr != nil {
		return f.claimErr
	}
	f.statusCalls = append(f.statusCalls, status)
	return nil
}

func (f *fakeAPI) AppendUpdate(_ context.Context, _ string, update *model.JobProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	return nil
}

func (f *fakeAPI) GetConfig(_ context.Context, configID string) (*TraceConfig, error) {
	if f.configErr != nil {
		return nil, f.configErr
	}
	return &TraceConfig{
		ConfigID:        configID,
		ConfigName:      "cpu-sched",
		TracingTool:     "perfetto",
		ConfigText:      "buffers { size_kb: 65536 }",
		DefaultDuration: 10,
	}, nil
}

func (f *fakeAPI) UploadTrace(_ context.Context, objectName string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, objectName)
	return nil
}

func (f *fakeAPI) CreateTrace(_ context.Context, req *model.TraceCreateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traces = append(f.traces, req)
	return nil
}

type fakeCollector struct {
	err  error
	data []byte
}

func (f *fakeCollector) Collect(_ context.Context, _ string, _ *TraceConfig, _ int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func testJob() *model.PendingJob {
	return &model.PendingJob{
		JobDeviceID: "jd-1",
		JobID:       "job-1",
		ConfigID:    "cfg-1",
		DeviceID:    "dev-1",
		DeviceUUID:  "RFCX20AB1CD",
		Duration:    10,
	}
}

func statuses(updates []*model.JobProgressUpdate) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.Status)
	}
	return out
}

func TestPipelineHappyPath(t *testing.T) {
	api := &fakeAPI{}
	collector := &fakeCollector{data: make([]byte, 4096)}
	p := NewPipeline(api, collector, "bench-01")

	err := p.Run(context.Background(), testJob(), "Pixel 8")
	require.NoError(t, err)

	assert.Equal(t, []string{"running", "completed"}, api.statusCalls)
	assert.Equal(t, []string{"starting", "running", "uploading", "completed"}, statuses(api.updates))

	assert.Equal(t, "Starting trace collection on RFCX20AB1CD", api.updates[0].Message)
	assert.Equal(t, "Collecting trace...", api.updates[1].Message)
	assert.Equal(t, "Uploading trace to storage...", api.updates[2].Message)
	assert.Equal(t, "Trace collected successfully", api.updates[3].Message)
	assert.NotEmpty(t, api.updates[3].TraceID)

	require.Len(t, api.uploads, 1)
	assert.True(t, strings.HasSuffix(api.uploads[0], "-cpu-sched.perfetto-trace"))

	require.Len(t, api.traces, 1)
	assert.Equal(t, "cpu-sched - Pixel 8", api.traces[0].TraceName)
	assert.Equal(t, api.uploads[0], api.traces[0].TraceFilename)
	assert.Equal(t, "bench-01", api.traces[0].HostName)
	assert.Equal(t, api.updates[3].TraceID, api.traces[0].TraceID)
}

func TestPipelineLostClaimIsSilent(t *testing.T) {
	api := &fakeAPI{claimErr: ErrClaimLost}
	p := NewPipeline(api, &fakeCollector{data: make([]byte, 4096)}, "bench-01")

	err := p.Run(context.Background(), testJob(), "Pixel 8")
	require.NoError(t, err)

	assert.Empty(t, api.statusCalls)
	assert.Empty(t, api.updates, "a lost claim must not produce progress events")
}

func TestPipelineCollectFailureMarksFailed(t *testing.T) {
	api := &fakeAPI{}
	collector := &fakeCollector{err: errors.New("device disconnected mid-trace")}
	p := NewPipeline(api, collector, "bench-01")

	err := p.Run(context.Background(), testJob(), "Pixel 8")
	require.Error(t, err)

	assert.Equal(t, []string{"running", "failed"}, api.statusCalls)

	got := statuses(api.updates)
	require.NotEmpty(t, got)
	assert.Equal(t, "failed", got[len(got)-1])
	assert.Contains(t, api.updates[len(api.updates)-1].Message, "device disconnected mid-trace")
	assert.Empty(t, api.uploads)
	assert.Empty(t, api.traces)
}

func TestPipelineUploadFailureMarksFailed(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("connection reset")}
	p := NewPipeline(api, &fakeCollector{data: make([]byte, 4096)}, "bench-01")

	err := p.Run(context.Background(), testJob(), "Pixel 8")
	require.Error(t, err)

	assert.Equal(t, []string{"running", "failed"}, api.statusCalls)
	assert.Empty(t, api.traces, "no metadata row without a stored file")
}

func TestPipelineConfigFetchFailureMarksFailed(t *testing.T) {
	api := &fakeAPI{configErr: errors.New("config deleted")}
	p := NewPipeline(api, &fakeCollector{data: make([]byte, 4096)}, "bench-01")

	err := p.Run(context.Background(), testJob(), "Pixel 8")
	require.Error(t, err)
	assert.Equal(t, []string{"running", "failed"}, api.statusCalls)
}

func TestInjectDuration(t *testing.T) {
	t.Run("appends when absent", func(t *testing.T) {
		out := injectDuration("buffers { size_kb: 1024 }", 30)
		assert.Contains(t, out, "duration_ms: 30000")
	})

	t.Run("replaces existing", func(t *testing.T) {
		out := injectDuration("duration_ms: 5000\nbuffers { size_kb: 1024 }", 30)
		assert.Contains(t, out, "duration_ms: 30000")
		assert.NotContains(t, out, "duration_ms: 5000")
	})
}
