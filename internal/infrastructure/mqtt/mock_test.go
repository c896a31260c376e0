package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
)

// ============================================================================
// Paho test doubles
// ============================================================================

// mockToken is a completed paho token.
type mockToken struct {
	err      error
	timedOut bool
}

func (t *mockToken) Wait() bool                       { return !t.timedOut }
func (t *mockToken) WaitTimeout(_ time.Duration) bool { return !t.timedOut }
func (t *mockToken) Error() error                     { return t.err }

func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// publishCall records one Publish on the mock client.
type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockPahoClient records calls and returns canned tokens.
type mockPahoClient struct {
	mu sync.Mutex

	connected   bool
	connectTok  *mockToken
	publishTok  *mockToken
	subTok      *mockToken
	unsubTok    *mockToken
	published   []publishCall
	handlers    map[string]pahomqtt.MessageHandler
	subscribes  int
	unsubscribe []string
	disconnects int
}

func newMockPahoClient() *mockPahoClient {
	return &mockPahoClient{
		connected: true,
		handlers:  make(map[string]pahomqtt.MessageHandler),
	}
}

func tokenOrDone(t *mockToken) pahomqtt.Token {
	if t == nil {
		return &mockToken{}
	}
	return t
}

func (m *mockPahoClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockPahoClient) IsConnectionOpen() bool { return m.IsConnected() }

func (m *mockPahoClient) Connect() pahomqtt.Token {
	return tokenOrDone(m.connectTok)
}

func (m *mockPahoClient) Disconnect(_ uint) {
	m.mu.Lock()
	m.disconnects++
	m.connected = false
	m.mu.Unlock()
}

func (m *mockPahoClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		data = []byte(p)
	}
	m.mu.Lock()
	m.published = append(m.published, publishCall{topic: topic, qos: qos, retained: retained, payload: data})
	m.mu.Unlock()
	return tokenOrDone(m.publishTok)
}

func (m *mockPahoClient) Subscribe(topic string, _ byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	m.mu.Lock()
	m.subscribes++
	m.handlers[topic] = callback
	m.mu.Unlock()
	return tokenOrDone(m.subTok)
}

func (m *mockPahoClient) SubscribeMultiple(filters map[string]byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	for topic, qos := range filters {
		m.Subscribe(topic, qos, callback)
	}
	return &mockToken{}
}

func (m *mockPahoClient) Unsubscribe(topics ...string) pahomqtt.Token {
	m.mu.Lock()
	m.unsubscribe = append(m.unsubscribe, topics...)
	for _, topic := range topics {
		delete(m.handlers, topic)
	}
	m.mu.Unlock()
	return tokenOrDone(m.unsubTok)
}

func (m *mockPahoClient) AddRoute(_ string, _ pahomqtt.MessageHandler) {}

func (m *mockPahoClient) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

// deliver invokes the handler registered for topic as paho would.
func (m *mockPahoClient) deliver(topic string, payload []byte) bool {
	m.mu.Lock()
	h, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return false
	}
	h(m, &mockMessage{topic: topic, payload: payload})
	return true
}

func (m *mockPahoClient) publishes() []publishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishCall(nil), m.published...)
}

// mockMessage implements pahomqtt.Message.
type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 0 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

// hasSubscription reports whether topic is tracked for reconnect.
func hasSubscription(c *Client, topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}

// mockLogger captures log calls.
type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) counts() (errs, warns int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors), len(l.warns)
}

// testConfig returns an MQTT config that never touches the network.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "lightbridge-test",
		},
		QoS:         1,
		TopicPrefix: "lightbridge",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// newTestClient returns a Client connected through a mock paho client.
func newTestClient(t interface{ Fatalf(string, ...any) }) (*Client, *mockPahoClient) {
	mock := newMockPahoClient()
	c := newClient(testConfig())
	c.client = mock
	if err := c.connect(); err != nil {
		t.Fatalf("connect() error = %v", err)
	}
	return c, mock
}
