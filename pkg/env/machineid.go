package env

import (
	"github.com/denisbrodbeck/machineid"
)

// DeviceIDLen is the length of the device id derived from the machine id.
const DeviceIDLen = 12

// MachineID retrieves the unique ID identifying the machine, hashed with
// the application name so the raw id is not exposed on the broker.
func MachineID() (string, error) {
	id, err := machineid.ProtectedID("emeter")
	if err != nil {
		return "", err
	}
	if len(id) > DeviceIDLen {
		id = id[:DeviceIDLen]
	}
	return id, nil
}
