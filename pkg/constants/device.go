package constants

// DeviceStatus live state of a registered device
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	DeviceStatusBusy    DeviceStatus = "busy"
)

func (s DeviceStatus) String() string {
	return string(s)
}
