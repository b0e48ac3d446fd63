// Package env builds the meter bridge from command line flags and
// environment variables.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/bus/slcan"
	"github.com/robotalks/emeter.go/pkg/bus/socketcan"
	"github.com/robotalks/emeter.go/pkg/emeter"
	"github.com/robotalks/emeter.go/pkg/framework"
	"github.com/robotalks/emeter.go/pkg/mirror/mqtt"
	"github.com/robotalks/emeter.go/pkg/mirror/websocket"
	"github.com/robotalks/emeter.go/pkg/serial"
)

// Bus kinds accepted in Config.Bus, as KIND or KIND:TARGET.
const (
	BusSLCAN     = "slcan"
	BusSocketCAN = "socketcan"
	BusLog       = "log"
)

// Config provides options to setup the bridge.
type Config struct {
	SerialPort string
	BaudRate   int

	// Bus specifies the CAN transmitter, e.g. slcan:/dev/ttyACM1,
	// socketcan:can0 or log.
	Bus string

	Mapping string
	Commit  string

	// MQTTBrokerURL enables mirroring when not empty.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	DeviceID      string

	// MonitorAddr enables the websocket frame monitor when not empty.
	MonitorAddr string
}

var defaultConfig = Config{
	SerialPort: "/dev/ttyUSB0",
	BaudRate:   serial.DefaultBaudRate,
	Bus:        BusLog,
	Mapping:    "default",
	Commit:     emeter.CommitEager.String(),
}

func init() {
	if val := os.Getenv("EMETER_SERIAL"); val != "" {
		defaultConfig.SerialPort = val
	}
	if val := os.Getenv("EMETER_BUS"); val != "" {
		defaultConfig.Bus = val
	}
	defaultConfig.MQTTBrokerURL = os.Getenv("EMETER_MQTT_URL")
	if id, err := MachineID(); err == nil {
		defaultConfig.DeviceID = id
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.SerialPort, "serial", defaultConfig.SerialPort, "Serial port of the meter")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate")
	flag.StringVar(&defaultConfig.Bus, "bus", defaultConfig.Bus, "CAN transmitter: slcan:PORT, socketcan:IFACE or log")
	flag.StringVar(&defaultConfig.Mapping, "mapping", defaultConfig.Mapping, "Frame mapping name")
	flag.StringVar(&defaultConfig.Commit, "commit", defaultConfig.Commit, "Commit policy: eager or atomic")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for mirroring")
	flag.StringVar(&defaultConfig.DeviceID, "device-id", defaultConfig.DeviceID, "Device ID used in MQTT topics")
	flag.StringVar(&defaultConfig.MonitorAddr, "monitor", defaultConfig.MonitorAddr, "Listen address of websocket frame monitor")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ParseBus splits a bus spec into kind and target.
func ParseBus(spec string) (kind, target string, err error) {
	kind = spec
	if pos := strings.IndexByte(spec, ':'); pos >= 0 {
		kind, target = spec[:pos], spec[pos+1:]
	}
	switch kind {
	case BusLog:
		return kind, target, nil
	case BusSLCAN, BusSocketCAN:
		if target == "" {
			return "", "", fmt.Errorf("bus %q: missing target", spec)
		}
		return kind, target, nil
	}
	return "", "", fmt.Errorf("bus %q: unknown kind %q", spec, kind)
}

// OpenBus creates the transmitter from a bus spec. The returned closer
// may be nil.
func OpenBus(spec string) (bus.Sender, io.Closer, error) {
	kind, target, err := ParseBus(spec)
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case BusSLCAN:
		s, err := slcan.Open(target, 0)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case BusSocketCAN:
		s, err := socketcan.Dial(target)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return bus.LogSender{}, nil, nil
	}
}

// Env is the assembled bridge.
type Env struct {
	Config    *Config
	Input     *serial.Poller
	Meter     *emeter.Meter
	Counters  *emeter.Counters
	Publisher *mqtt.Publisher
	Monitor   *websocket.Server

	closers []io.Closer
}

// Validate checks options which don't touch any device.
func (c *Config) Validate() error {
	var errs framework.AggregatedError
	if c.SerialPort == "" {
		errs.Add(fmt.Errorf("serial port must be specified"))
	}
	if _, _, err := ParseBus(c.Bus); err != nil {
		errs.Add(err)
	}
	if mapping, err := emeter.MappingByName(c.Mapping); err != nil {
		errs.Add(err)
	} else {
		errs.Add(mapping.Validate())
	}
	if _, err := emeter.ParseCommitPolicy(c.Commit); err != nil {
		errs.Add(err)
	}
	if c.MQTTBrokerURL != "" && c.DeviceID == "" {
		errs.Add(fmt.Errorf("device id is required for MQTT mirroring"))
	}
	return errs.Aggregate()
}

// NewEnv creates Env from config. clock provides the tick which starts
// the first transmit window.
func (c *Config) NewEnv(clock framework.TickSource) (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mapping, _ := emeter.MappingByName(c.Mapping)
	policy, _ := emeter.ParseCommitPolicy(c.Commit)

	env := &Env{Config: c, Counters: &emeter.Counters{}}
	input, err := serial.Open(serial.Config{Port: c.SerialPort, BaudRate: c.BaudRate})
	if err != nil {
		return nil, err
	}
	env.Input = input
	fail := func(err error) (*Env, error) {
		input.Reader.Close()
		env.Close()
		return nil, err
	}

	primary, closer, err := OpenBus(c.Bus)
	if err != nil {
		return fail(fmt.Errorf("open bus %s: %w", c.Bus, err))
	}
	if closer != nil {
		env.closers = append(env.closers, closer)
	}
	tee := &bus.Tee{Primary: primary}
	var observers []emeter.Observer

	if c.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, c.DeviceID)
		if err != nil {
			return fail(fmt.Errorf("create MQTT publisher error: %v", err))
		}
		env.Publisher = pub
		tee.Mirrors = append(tee.Mirrors, pub)
		observers = append(observers, pub)
	}
	if c.MonitorAddr != "" {
		server, err := websocket.NewServer(c.MonitorAddr, websocket.NewHub())
		if err != nil {
			return fail(fmt.Errorf("monitor listen on %s: %w", c.MonitorAddr, err))
		}
		env.Monitor = server
		tee.Mirrors = append(tee.Mirrors, server.Hub)
	}

	env.Meter = emeter.New(input, tee, clock.Ticks()).
		WithDiagnostics(emeter.DiagnosticsMux{emeter.LogDiagnostics{}, env.Counters}).
		WithPolicy(policy).
		WithMapping(mapping).
		WithObservers(observers...)
	glog.Infof("meter on %s, bus %s, mapping %s, commit %s", c.SerialPort, c.Bus, c.Mapping, policy)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(clock framework.TickSource) *Env {
	env, err := c.NewEnv(clock)
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *framework.Loop) {
	loop.Add(e.Meter)
	if e.Publisher != nil {
		loop.Add(e.Publisher)
	}
	if e.Monitor != nil {
		loop.Add(e.Monitor)
	}
}

// Close releases the transmitter. The input is closed by its runnable.
func (e *Env) Close() error {
	var errs framework.AggregatedError
	for _, c := range e.closers {
		errs.Add(c.Close())
	}
	e.closers = nil
	return errs.Aggregate()
}
