// Package sh provides the bench shell for decoding meter output and
// watching mirrored telemetry.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/emeter.go/pkg/emeter"
	"github.com/robotalks/emeter.go/pkg/env"
	"github.com/robotalks/emeter.go/pkg/mirror/mqtt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Policy      emeter.CommitPolicy

	// MQTTBrokerURL is used by monitor.
	MQTTBrokerURL string

	Shell   *ishell.Shell
	Monitor *Monitor
}

// Monitor is an active telemetry subscription.
type Monitor struct {
	Queue        *mqtt.Queue
	Subscription *mqtt.Subscription
}

const (
	shellKey = "$shell"
	prompt   = "emeter > "
)

var (
	// flags

	evalOnly      bool
	outputJSON    bool
	commitPolicy  = emeter.CommitEager.String()
	mqttBrokerURL = env.Default().MQTTBrokerURL

	// commands
	commands = []*ishell.Cmd{
		&DecodeCmd,
		&ParseCmd,
		&LayoutsCmd,
		&MonitorCmd,
		&UnmonitorCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&commitPolicy, "commit", commitPolicy, "Commit policy used by parse: eager or atomic")
	flag.StringVar(&mqttBrokerURL, "mqtt", mqttBrokerURL, "MQTT broker URL used by monitor")
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive:   !evalOnly,
		OutputJSON:    outputJSON,
		MQTTBrokerURL: mqttBrokerURL,

		Shell: ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// FormatTelemetry prints a snapshot for display.
func (s *Shell) FormatTelemetry(t emeter.Telemetry) (string, error) {
	if !s.OutputJSON {
		return t.String(), nil
	}
	out, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// StartMonitor subscribes to telemetry of deviceID, or all devices if
// empty. fn is called on the MQTT client goroutine.
func (s *Shell) StartMonitor(deviceID string, fn func(deviceID string, t emeter.Telemetry)) error {
	if s.MQTTBrokerURL == "" {
		return fmt.Errorf("MQTT broker URL not specified")
	}
	s.StopMonitor()
	q, err := mqtt.NewQueueFromURL(s.MQTTBrokerURL)
	if err != nil {
		return err
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	if deviceID == "" {
		deviceID = "+"
	}
	sub := q.Sub(mqtt.TelemetryTopic(deviceID), func(topic string, payload []byte) {
		var t emeter.Telemetry
		if err := t.UnmarshalProto(payload); err != nil {
			s.Shell.Printf("%s: %v\n", topic, err)
			return
		}
		fn(mqtt.DeviceOf(topic), t)
	})
	if sub.Token.Wait() && sub.Token.Error() != nil {
		q.Close()
		return sub.Token.Error()
	}
	s.Monitor = &Monitor{Queue: q, Subscription: sub}
	return nil
}

// StopMonitor stops the active subscription if any.
func (s *Shell) StopMonitor() {
	if m := s.Monitor; m != nil {
		m.Subscription.Close()
		m.Queue.Close()
		s.Monitor = nil
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.StopMonitor()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New()
	policy, err := emeter.ParseCommitPolicy(commitPolicy)
	if err != nil {
		log.Fatalln(err)
	}
	s.Policy = policy
	s.Run(flag.Args()...)
}
