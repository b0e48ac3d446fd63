package env

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/emeter"
)

func TestParseBus(t *testing.T) {
	testCases := []struct {
		spec   string
		kind   string
		target string
		err    bool
	}{
		{spec: "log", kind: BusLog},
		{spec: "slcan:/dev/ttyACM1", kind: BusSLCAN, target: "/dev/ttyACM1"},
		{spec: "socketcan:can0", kind: BusSocketCAN, target: "can0"},
		{spec: "socketcan", err: true},
		{spec: "slcan:", err: true},
		{spec: "usb:0", err: true},
		{spec: "", err: true},
	}
	for _, tc := range testCases {
		kind, target, err := ParseBus(tc.spec)
		if tc.err {
			require.Errorf(t, err, tc.spec)
			continue
		}
		require.NoErrorf(t, err, tc.spec)
		require.Equal(t, tc.kind, kind)
		require.Equal(t, tc.target, target)
	}
}

func TestOpenBusLog(t *testing.T) {
	sender, closer, err := OpenBus("log")
	require.NoError(t, err)
	require.Nil(t, closer)
	require.IsType(t, bus.LogSender{}, sender)
}

func TestConfigValidate(t *testing.T) {
	conf := NewConfig()
	conf.MQTTBrokerURL = ""
	require.NoError(t, conf.Validate())

	conf.Mapping = "bogus"
	conf.Commit = "lazy"
	err := conf.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
	require.Contains(t, err.Error(), "lazy")

	conf = NewConfig()
	conf.MQTTBrokerURL = "mqtt://localhost:1883/"
	conf.DeviceID = ""
	require.Error(t, conf.Validate())
}

func TestConfigValidateMappingLayouts(t *testing.T) {
	wide := emeter.Layout{Name: "wide", ID: 0x703,
		Fields: []emeter.Field{emeter.FieldCharge, emeter.FieldVoltage, emeter.FieldCurrent}}
	emeter.Mappings["wide"] = emeter.Mapping{Full: wide, Half: emeter.LayoutEnergy}
	defer delete(emeter.Mappings, "wide")

	conf := NewConfig()
	conf.MQTTBrokerURL = ""
	conf.Mapping = "wide"
	require.ErrorIs(t, conf.Validate(), bus.ErrInvalidLen)
}

func TestNewConfigCopies(t *testing.T) {
	conf := NewConfig()
	conf.Bus = "socketcan:can1"
	require.NotEqual(t, conf.Bus, Default().Bus)
}
