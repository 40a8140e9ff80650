// Package telemetry publishes machinestate transitions, alarms, and
// homing completions over MQTT. It is additive: homing, hardlimit,
// and softlimit never import it, matching the ambient-stack rule that
// observability is bolted onto machinestate.State.AddObserver rather
// than threaded through the motion core. Controllers reach the broker
// over whatever net.Conn paho.mqtt.golang dials itself; a board
// without a native TCP/IP stack supplies one of its own net.Conn
// implementations to mqtt.ClientOptions rather than this package
// special-casing the transport.
package telemetry

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"tinygo.org/x/cncmotion/machinestate"
)

// Publisher is the narrow interface MQTTPublisher satisfies, isolated
// so tests can swap in a recording fake instead of a live broker.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// MQTTPublisher implements machinestate.Observer by publishing one
// retained-false MQTT message per notification under TopicPrefix.
// Publishes are fire-and-forget: a broker outage must never stall the
// motion core, so failures are swallowed after LastError is recorded.
type MQTTPublisher struct {
	Client mqtt.Client

	// TopicPrefix is prepended to "/state", "/alarm", "/homed". Defaults
	// to "cnc" when empty.
	TopicPrefix string

	// QoS is the MQTT quality-of-service level used for every publish.
	QoS byte

	lastErr error
}

// NewMQTTPublisher builds a client from brokerURL (e.g.
// "tcp://192.0.2.10:1883") and connects it. clientID should be unique
// per controller on the broker.
func NewMQTTPublisher(brokerURL, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, tok.Error()
	}
	return &MQTTPublisher{Client: client, TopicPrefix: "cnc", QoS: 0}, nil
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	prefix := p.TopicPrefix
	if prefix == "" {
		prefix = "cnc"
	}
	tok := p.Client.Publish(prefix+topic, p.QoS, false, payload)
	tok.Wait()
	return tok.Error()
}

// LastError reports the most recent publish failure, if any.
func (p *MQTTPublisher) LastError() error { return p.lastErr }

// OnStateChange implements machinestate.Observer.
func (p *MQTTPublisher) OnStateChange(old, new machinestate.RunState) {
	p.publish("/state", fmt.Sprintf("%s", new))
}

// OnAlarm implements machinestate.Observer.
func (p *MQTTPublisher) OnAlarm(code machinestate.AlarmCode) {
	p.publish("/alarm", fmt.Sprintf("%s", code))
}

// OnHomingComplete implements machinestate.Observer.
func (p *MQTTPublisher) OnHomingComplete(cycleMask uint8) {
	p.publish("/homed", fmt.Sprintf("0x%02x", cycleMask))
}

func (p *MQTTPublisher) publish(topic, payload string) {
	if err := p.Publish(topic, []byte(payload)); err != nil {
		p.lastErr = err
	}
}

var _ machinestate.Observer = (*MQTTPublisher)(nil)
