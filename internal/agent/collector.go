package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"tracehub/pkg/logger"

	"github.com/google/uuid"
)

// minTraceSize is the smallest output accepted as a real trace. Perfetto
// writes a preamble even when collection fails, so tiny files mean failure.
const minTraceSize = 1024

const deviceTracePath = "/data/misc/perfetto-traces"

// TraceCollector runs a tracing tool on one device and returns the bytes.
type TraceCollector interface {
	Collect(ctx context.Context, serial string, cfg *TraceConfig, duration int) ([]byte, error)
}

// NewCollector returns a collector that routes each unit to the tool named by
// its config. Perfetto is the default.
func NewCollector(adbPath, workDir string) TraceCollector {
	return &toolCollector{perfetto: NewPerfettoCollector(adbPath, workDir)}
}

// toolCollector dispatches on TraceConfig.TracingTool. Tools the host cannot
// run fail the unit with a message naming the tool, so the failure reads
// clearly in the job stream.
type toolCollector struct {
	perfetto TraceCollector
}

func (c *toolCollector) Collect(ctx context.Context, serial string, cfg *TraceConfig, duration int) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TracingTool)) {
	case "", "perfetto":
		return c.perfetto.Collect(ctx, serial, cfg, duration)
	case "simpleperf":
		// TODO: port the simpleperf runner so these configs run here too.
		return nil, fmt.Errorf("tracing tool simpleperf is not supported on this host")
	default:
		return nil, fmt.Errorf("unknown tracing tool %q", cfg.TracingTool)
	}
}

// PerfettoCollector drives perfetto over adb shell.
type PerfettoCollector struct {
	adbPath string
	workDir string
}

// NewPerfettoCollector creates a collector. workDir holds pulled trace files
// until they are uploaded.
func NewPerfettoCollector(adbPath, workDir string) *PerfettoCollector {
	if adbPath == "" {
		adbPath = "adb"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &PerfettoCollector{adbPath: adbPath, workDir: workDir}
}

// Collect pushes the config text to the device, runs perfetto for the
// requested duration, and pulls the resulting file back.
func (c *PerfettoCollector) Collect(ctx context.Context, serial string, cfg *TraceConfig, duration int) ([]byte, error) {
	if duration <= 0 {
		duration = cfg.DefaultDuration
	}
	if duration <= 0 {
		duration = 10
	}

	configText := injectDuration(cfg.ConfigText, duration)

	traceID := uuid.NewString()
	devicePath := fmt.Sprintf("%s/%s.perfetto-trace", deviceTracePath, traceID)
	localPath := filepath.Join(c.workDir, traceID+".perfetto-trace")
	defer os.Remove(localPath)

	// perfetto reads the text config from stdin with -c - --txt
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(duration)*time.Second+2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.adbPath, "-s", serial,
		"shell", "perfetto", "-c", "-", "--txt", "-o", devicePath)
	cmd.Stdin = strings.NewReader(configText)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("perfetto failed on %s: %w: %s", serial, err, strings.TrimSpace(string(out)))
	}

	pull := exec.CommandContext(ctx, c.adbPath, "-s", serial, "pull", devicePath, localPath)
	if out, err := pull.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("adb pull failed on %s: %w: %s", serial, err, strings.TrimSpace(string(out)))
	}

	// Remove the on-device file; traces are large and flash is small.
	rm := exec.CommandContext(ctx, c.adbPath, "-s", serial, "shell", "rm", "-f", devicePath)
	if err := rm.Run(); err != nil {
		logger.Warnf("failed to remove on-device trace %s: %v", devicePath, err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pulled trace: %w", err)
	}
	if len(data) < minTraceSize {
		return nil, fmt.Errorf("trace from %s is only %d bytes, collection likely failed", serial, len(data))
	}
	return data, nil
}

// injectDuration sets duration_ms in the config text, appending it when the
// recipe does not carry one.
func injectDuration(configText string, duration int) string {
	durationLine := fmt.Sprintf("duration_ms: %d", duration*1000)
	lines := strings.Split(configText, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "duration_ms:") {
			lines[i] = durationLine
			return strings.Join(lines, "\n")
		}
	}
	return configText + "\n" + durationLine + "\n"
}
