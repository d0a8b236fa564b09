package agent

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ADBDevice one line of `adb devices` output.
type ADBDevice struct {
	Serial string
	State  string
}

// Online reports whether the device accepts shell commands.
func (d ADBDevice) Online() bool {
	return d.State == "device"
}

// ADB shells out to the adb binary on the agent host.
type ADB struct {
	path string
}

// NewADB creates an adb wrapper around the given binary path
func NewADB(path string) *ADB {
	if path == "" {
		path = "adb"
	}
	return &ADB{path: path}
}

// Devices lists devices currently attached to this host.
func (a *ADB) Devices(ctx context.Context) ([]ADBDevice, error) {
	out, err := exec.CommandContext(ctx, a.path, "devices").Output()
	if err != nil {
		return nil, fmt.Errorf("adb devices failed: %w", err)
	}
	return parseDeviceList(string(out)), nil
}

// Model returns the marketing model of a device, used as its display name.
func (a *ADB) Model(ctx context.Context, serial string) (string, error) {
	out, err := exec.CommandContext(ctx, a.path, "-s", serial, "shell", "getprop", "ro.product.model").Output()
	if err != nil {
		return "", fmt.Errorf("adb getprop failed for %s: %w", serial, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// parseDeviceList parses `adb devices` output: a header line followed by
// serial<TAB>state lines. Unparseable lines are skipped.
func parseDeviceList(output string) []ADBDevice {
	var devices []ADBDevice
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			// "List of devices attached" header
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		serial := strings.TrimSpace(fields[0])
		state := strings.TrimSpace(fields[1])
		if serial == "" || state == "" {
			continue
		}
		devices = append(devices, ADBDevice{Serial: serial, State: state})
	}
	return devices
}
