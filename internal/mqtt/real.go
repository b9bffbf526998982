package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/hollis/tms-stand/internal/diag"
)

// bufferCapacity bounds the messages spooled while the broker is unreachable.
const bufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker. Messages published while
// disconnected are spooled into a fixed-capacity ring buffer and replayed on
// reconnect.
type RealPublisher struct {
	client paho.Client

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{buffer: newRingBuffer(bufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("tms-stand").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.drainBuffer() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			diag.Logf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// Publish sends a session lifecycle event to the MQTT broker.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1 (at-least-once): session events are the record of a live fire.
	return p.send(Topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(TopicSystem, 1, event.Retained, payload)
}

// send publishes or, when disconnected, spools the message for replay.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.buffer.len()
		p.mu.Unlock()
		diag.Logf("mqtt: disconnected, buffered message (%d pending)", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// drainBuffer replays spooled messages after a reconnect.
func (p *RealPublisher) drainBuffer() {
	p.mu.Lock()
	msgs := p.buffer.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	diag.Logf("mqtt: reconnected, replaying %d buffered messages", len(msgs))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			diag.Logf("mqtt: replay timeout on %s", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			diag.Logf("mqtt: replay failed on %s: %v", m.topic, err)
		}
	}
}

// IsConnected reports whether the broker connection is active.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
