package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tracehub/internal/model"
	"tracehub/pkg/logger"
)

// ErrClaimLost is returned when the server rejects a claim because another
// agent already took the unit. Callers skip the unit.
var ErrClaimLost = errors.New("claim lost")

// TraceConfig is the recipe payload served to agents.
type TraceConfig struct {
	ConfigID        string `json:"config_id"`
	ConfigName      string `json:"config_name"`
	TracingTool     string `json:"tracing_tool"`
	ConfigText      string `json:"config_text"`
	DefaultDuration int    `json:"default_duration"`
}

// Client talks to the control plane's worker API with a per-host bearer key.
type Client struct {
	hostKey    string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a worker API client
func NewClient(baseURL, hostKey string) *Client {
	return &Client{
		hostKey: hostKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ReportDevice registers a device and records a liveness report
func (c *Client) ReportDevice(ctx context.Context, report *model.DeviceReport) error {
	_, err := c.doRequest(ctx, "POST", c.baseURL+"/v1/worker/devices", report)
	return err
}

// SweepDevices tells the server which serials the host currently sees
func (c *Client) SweepDevices(ctx context.Context, req *model.SweepRequest) error {
	_, err := c.doRequest(ctx, "POST", c.baseURL+"/v1/worker/devices/sweep", req)
	return err
}

// ListWork fetches all claimable units of work
func (c *Client) ListWork(ctx context.Context) ([]*model.PendingJob, error) {
	respData, err := c.doRequest(ctx, "GET", c.baseURL+"/v1/worker/jobs/pending", nil)
	if err != nil {
		return nil, err
	}

	var work []*model.PendingJob
	if err := json.Unmarshal(respData, &work); err != nil {
		return nil, fmt.Errorf("failed to parse work response: %w", err)
	}
	return work, nil
}

// UpdateJobDeviceStatus transitions a unit of work. Claiming an
// already-claimed unit returns ErrClaimLost.
func (c *Client) UpdateJobDeviceStatus(ctx context.Context, jobDeviceID, status string) error {
	reqURL := fmt.Sprintf("%s/v1/worker/job-devices/%s/status", c.baseURL, jobDeviceID)
	_, err := c.doRequest(ctx, "POST", reqURL, &model.JobDeviceStatusUpdate{Status: status})
	return err
}

// AppendUpdate appends a progress event to a job's stream
func (c *Client) AppendUpdate(ctx context.Context, jobID string, update *model.JobProgressUpdate) error {
	reqURL := fmt.Sprintf("%s/v1/worker/jobs/%s/updates", c.baseURL, jobID)
	_, err := c.doRequest(ctx, "POST", reqURL, update)
	return err
}

// GetConfig fetches the trace recipe to run
func (c *Client) GetConfig(ctx context.Context, configID string) (*TraceConfig, error) {
	reqURL := fmt.Sprintf("%s/v1/worker/configs/%s", c.baseURL, configID)
	respData, err := c.doRequest(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}

	var cfg TraceConfig
	if err := json.Unmarshal(respData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config response: %w", err)
	}
	return &cfg, nil
}

// UploadTrace pushes raw trace bytes into the server's object store
func (c *Client) UploadTrace(ctx context.Context, objectName string, data []byte) error {
	params := url.Values{}
	params.Set("object_name", objectName)
	reqURL := c.baseURL + "/v1/worker/storage/upload?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+c.hostKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// CreateTrace persists metadata for an uploaded trace
func (c *Client) CreateTrace(ctx context.Context, req *model.TraceCreateRequest) error {
	_, err := c.doRequest(ctx, "POST", c.baseURL+"/v1/worker/traces", req)
	return err
}

// doRequest performs an HTTP request with proper authentication
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)

		logger.Debugf("worker API request: %s %s, body: %s", method, reqURL, string(jsonData))
	} else {
		logger.Debugf("worker API request: %s %s", method, reqURL)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.hostKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrClaimLost
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respData))
	}
	return respData, nil
}
