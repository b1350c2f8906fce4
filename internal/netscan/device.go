package netscan

const (
	deviceColumnIPConstant      = "ip"
	deviceColumnHostConstant    = "host"
	deviceUnknownHostValue      = "Unknown"
	deviceTableColumnCountValue = 2
)

// Device is one neighbour table entry: an address plus its resolved hostname
// when reverse DNS produced one.
type Device struct {
	IP   string `json:"ip" yaml:"ip"`
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
}

// DisplayHost returns the hostname or the unknown-host placeholder.
func (device Device) DisplayHost() string {
	if len(device.Host) == 0 {
		return deviceUnknownHostValue
	}
	return device.Host
}

// DeviceTable adapts discovered devices to tabular rendering.
type DeviceTable struct {
	devices []Device
}

// NewDeviceTable wraps the device list for rendering.
func NewDeviceTable(devices []Device) DeviceTable {
	return DeviceTable{devices: devices}
}

// Columns lists the device columns in presentation order.
func (table DeviceTable) Columns() []string {
	return []string{deviceColumnIPConstant, deviceColumnHostConstant}
}

// Rows lists one row per discovered device.
func (table DeviceTable) Rows() [][]string {
	rows := make([][]string, 0, len(table.devices))
	for _, device := range table.devices {
		row := make([]string, 0, deviceTableColumnCountValue)
		row = append(row, device.IP, device.DisplayHost())
		rows = append(rows, row)
	}
	return rows
}
