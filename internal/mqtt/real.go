package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/round-timer/internal/workout"
)

// BufferSize is how many messages are kept while the broker is unreachable.
const BufferSize = 100

// client is the subset of paho.Client the publisher uses.
type client interface {
	IsConnected() bool
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed, oldest first, once it is
// back.
type RealPublisher struct {
	client client

	mu        sync.Mutex
	buf       *outbox
	handler   func(workout.Intent)
	connected bool // set after the first successful connect
	now       func() time.Time
}

// NewRealPublisher creates a publisher for the given broker. If the broker is
// not reachable within the connect timeout the publisher is still returned;
// paho keeps retrying in the background and messages are buffered meanwhile.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{
		buf: newOutbox(BufferSize),
		now: time.Now,
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c := paho.NewClient(opts)
	p.client = c
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: broker %s not reachable yet, buffering until connected", broker)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: connect to broker: %v", err)
	}
	return p
}

// newPublisher wraps an existing client. The caller is responsible for
// calling onConnect when the client connects.
func newPublisher(c client, now func() time.Time) *RealPublisher {
	return &RealPublisher{client: c, buf: newOutbox(BufferSize), now: now}
}

// onConnect replays buffered messages and (re)subscribes to commands.
// Announces RECONNECTED on every connect after the first.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		if err := p.send(TopicSystem, 1, false, payload); err != nil {
			log.Printf("mqtt: publish reconnected: %v", err)
		}
	}
	p.connected = true

	pending, dropped := p.buf.takeAll()
	if len(pending) > 0 {
		log.Printf("mqtt: replaying %d buffered messages (%d discarded while offline)", len(pending), dropped)
	}
	for i, msg := range pending {
		if err := p.send(msg.topic, msg.qos, msg.retained, msg.payload); err != nil {
			log.Printf("mqtt: replay failed, re-buffering %d messages: %v", len(pending)-i, err)
			for _, m := range pending[i:] {
				p.buf.add(m)
			}
			break
		}
	}

	if p.handler != nil {
		if err := p.subscribe(); err != nil {
			log.Printf("mqtt: %v", err)
		}
	}
}

// Publish sends a workout transition to the MQTT broker.
func (p *RealPublisher) Publish(tr workout.Transition) error {
	payload, err := FormatPayload(tr)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		p.buf.add(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}
	return p.send(topic, qos, retained, payload)
}

// send publishes immediately. Caller must hold p.mu.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// SubscribeCommands registers handler for intents on TopicCommands. The
// subscription is renewed on every reconnect.
func (p *RealPublisher) SubscribeCommands(handler func(workout.Intent)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = handler
	if !p.client.IsConnectionOpen() {
		return nil
	}
	return p.subscribe()
}

// subscribe issues the command subscription. Caller must hold p.mu.
func (p *RealPublisher) subscribe() error {
	handler := p.handler
	token := p.client.Subscribe(TopicCommands, 1, func(_ paho.Client, msg paho.Message) {
		intent, err := ParseCommand(msg.Payload())
		if err != nil {
			log.Printf("mqtt: ignoring command %q: %v", msg.Payload(), err)
			return
		}
		handler(intent)
	})
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCommands, err)
	}
	return nil
}

// Buffered returns how many messages are waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the client is connected to the broker.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
