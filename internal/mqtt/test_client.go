package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TestBroker is an in-memory stand-in for a paho client. It records every
// publish and delivers injected messages to the matching subscription.
type TestBroker struct {
	mu            sync.Mutex
	connected     bool
	published     []TestPublication
	subscriptions map[string]mqtt.MessageHandler
}

type TestPublication struct {
	Topic   string
	Payload string
	Retain  bool
}

func NewTestBroker() *TestBroker {
	return &TestBroker{
		subscriptions: make(map[string]mqtt.MessageHandler),
	}
}

func (b *TestBroker) Published() []TestPublication {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TestPublication, len(b.published))
	copy(out, b.published)
	return out
}

// PublishedOn returns the payloads published on topic, oldest first.
func (b *TestBroker) PublishedOn(topic string) []string {
	var payloads []string
	for _, p := range b.Published() {
		if p.Topic == topic {
			payloads = append(payloads, p.Payload)
		}
	}
	return payloads
}

func (b *TestBroker) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subscriptions[topic]
	return ok
}

// Deliver feeds a message to the handler subscribed on topic.
func (b *TestBroker) Deliver(topic, payload string) bool {
	b.mu.Lock()
	handler, ok := b.subscriptions[topic]
	b.mu.Unlock()
	if !ok {
		return false
	}
	handler(b, &testMessage{topic: topic, payload: []byte(payload)})
	return true
}

func (b *TestBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *TestBroker) IsConnectionOpen() bool {
	return b.IsConnected()
}

func (b *TestBroker) Connect() mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	return doneToken{}
}

func (b *TestBroker) Disconnect(quiesce uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
}

func (b *TestBroker) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var text string
	switch p := payload.(type) {
	case string:
		text = p
	case []byte:
		text = string(p)
	default:
		text = fmt.Sprintf("%v", p)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, TestPublication{Topic: topic, Payload: text, Retain: retained})
	return doneToken{}
}

func (b *TestBroker) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[topic] = callback
	return doneToken{}
}

func (b *TestBroker) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	for topic, qos := range filters {
		b.Subscribe(topic, qos, callback)
	}
	return doneToken{}
}

func (b *TestBroker) Unsubscribe(topics ...string) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range topics {
		delete(b.subscriptions, topic)
	}
	return doneToken{}
}

func (b *TestBroker) AddRoute(topic string, callback mqtt.MessageHandler) {
	b.Subscribe(topic, 0, callback)
}

func (b *TestBroker) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

type doneToken struct{}

func (doneToken) Wait() bool {
	return true
}

func (doneToken) WaitTimeout(time.Duration) bool {
	return true
}

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (doneToken) Error() error {
	return nil
}

type testMessage struct {
	topic   string
	payload []byte
}

func (m *testMessage) Duplicate() bool {
	return false
}

func (m *testMessage) Qos() byte {
	return 1
}

func (m *testMessage) Retained() bool {
	return false
}

func (m *testMessage) Topic() string {
	return m.topic
}

func (m *testMessage) MessageID() uint16 {
	return 0
}

func (m *testMessage) Payload() []byte {
	return m.payload
}

func (m *testMessage) Ack() {}

var _ mqtt.Client = (*TestBroker)(nil)
