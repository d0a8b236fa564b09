package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []ADBDevice
	}{
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
		{
			name:   "header only",
			output: "List of devices attached\n\n",
			want:   nil,
		},
		{
			name:   "single online device",
			output: "List of devices attached\nemulator-5554\tdevice\n\n",
			want:   []ADBDevice{{Serial: "emulator-5554", State: "device"}},
		},
		{
			name:   "mixed states",
			output: "List of devices attached\nRFCX20AB1CD\tdevice\n192.168.1.20:5555\toffline\nQX1A2B3C\tunauthorized\n",
			want: []ADBDevice{
				{Serial: "RFCX20AB1CD", State: "device"},
				{Serial: "192.168.1.20:5555", State: "offline"},
				{Serial: "QX1A2B3C", State: "unauthorized"},
			},
		},
		{
			name:   "garbage lines skipped",
			output: "List of devices attached\nnot a device line\nRFCX20AB1CD\tdevice\n",
			want:   []ADBDevice{{Serial: "RFCX20AB1CD", State: "device"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDeviceList(tt.output))
		})
	}
}

func TestADBDeviceOnline(t *testing.T) {
	assert.True(t, ADBDevice{State: "device"}.Online())
	assert.False(t, ADBDevice{State: "offline"}.Online())
	assert.False(t, ADBDevice{State: "unauthorized"}.Online())
}
