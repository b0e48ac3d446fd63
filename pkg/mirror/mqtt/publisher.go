package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/emeter"
	"github.com/robotalks/emeter.go/pkg/framework"
)

// ErrNotConnected indicates the broker is not connected and nothing
// is published.
var ErrNotConnected = errors.New("mqtt: not connected")

// Status payloads published retained on StatusTopic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// TelemetryTopic is the topic of snapshots in protobuf wire format.
func TelemetryTopic(deviceID string) string {
	return deviceID + "/telemetry"
}

// FrameTopic is the topic of a frame identifier, payload is the raw data.
func FrameTopic(deviceID string, id uint32) string {
	return fmt.Sprintf("%s/frames/%03x", deviceID, id)
}

// StatusTopic is the topic of device presence.
func StatusTopic(deviceID string) string {
	return deviceID + "/status"
}

// DeviceOf extracts the device id from a topic built by the helpers above.
func DeviceOf(topic string) string {
	if pos := strings.IndexByte(topic, '/'); pos >= 0 {
		return topic[:pos]
	}
	return topic
}

// Publisher mirrors transmitted frames and telemetry snapshots.
// Publishing is fire-and-forget and never blocks the control loop.
type Publisher struct {
	Queue    *Queue
	DeviceID string
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL, deviceID string) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetWill(topicPrefix+StatusTopic(deviceID), StatusOffline, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("emeter:" + deviceID)
	}
	p := &Publisher{Queue: NewQueue(opts, topicPrefix), DeviceID: deviceID}
	p.Queue.OnConnect = func(q *Queue) {
		q.PubWith(StatusTopic(deviceID), []byte(StatusOnline), 1, true)
	}
	return p, nil
}

// Send implements bus.Sender.
func (p *Publisher) Send(f bus.Frame) error {
	if !p.Queue.Client.IsConnected() {
		return ErrNotConnected
	}
	p.Queue.Pub(FrameTopic(p.DeviceID, f.ID), f.Payload())
	return nil
}

// TelemetryUpdated implements emeter.Observer.
func (p *Publisher) TelemetryUpdated(t emeter.Telemetry) {
	if p.Queue.Client.IsConnected() {
		p.Queue.Pub(TelemetryTopic(p.DeviceID), t.MarshalProto())
	}
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "mqtt"
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	if token := p.Queue.Connect(); token.Wait() && token.Error() != nil {
		glog.Errorf("MQTT connect failed, mirroring disabled: %v", token.Error())
	}
	<-ctx.Done()
	if p.Queue.Client.IsConnected() {
		p.Queue.PubWith(StatusTopic(p.DeviceID), []byte(StatusOffline), 1, true).
			WaitTimeout(time.Second)
	}
	p.Queue.Close()
	return ctx.Err()
}

// AddToLoop implements framework.LoopAdder.
func (p *Publisher) AddToLoop(loop *framework.Loop) {
	loop.AddRunnable(p)
}
