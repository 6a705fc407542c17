package notify

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/smokyabdulrahman/jadwal-sholat/internal/logging"
)

const (
	DefaultTopic   = "jadwal-sholat/events"
	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second

	// DefaultQueueSize bounds the messages waiting for the broker.
	DefaultQueueSize = 32
)

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the JSON document published for every action.
type Message struct {
	Action string    `json:"action"`
	Cues   []string  `json:"cues,omitempty"`
	Cancel bool      `json:"cancel,omitempty"`
	Title  string    `json:"title,omitempty"`
	Body   string    `json:"body,omitempty"`
	At     time.Time `json:"at"`
}

// MQTTSink publishes actions to a broker topic so speakers and displays on
// the network can react.
type MQTTSink struct {
	pub    Publisher
	client mqtt.Client
	topic  string
	now    func() time.Time

	// set by Async
	log    *logging.Logger
	mu     sync.RWMutex
	queue  chan outgoing
	done   chan struct{}
	closed bool
}

type outgoing struct {
	action  string
	payload []byte
}

// NewMQTTSink wraps an existing publisher.
func NewMQTTSink(pub Publisher, topic string) *MQTTSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTSink{pub: pub, topic: topic, now: time.Now}
}

// DialMQTT connects to broker (e.g. "tcp://localhost:1883").
func DialMQTT(broker, clientID, topic string, log *logging.Logger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.OnConnect = func(mqtt.Client) {
		log.Info("connected to MQTT broker", "broker", broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", "broker", broker, "err", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Newf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect to MQTT broker %s", broker)
	}

	s := NewMQTTSink(client, topic)
	s.client = client
	return s.Async(DefaultQueueSize, log), nil
}

// Async moves publishing onto a background goroutine so a stalled broker
// never holds the caller. Sink methods then return once the message is
// queued; when the queue is full the message is dropped with an error.
// Publish failures on the worker are logged.
func (s *MQTTSink) Async(size int, log *logging.Logger) *MQTTSink {
	if size < 1 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = logging.Default()
	}
	s.log = log
	s.queue = make(chan outgoing, size)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		for m := range s.queue {
			if err := s.send(m); err != nil {
				s.log.Warn("MQTT publish failed", "err", err)
			}
		}
	}()
	return s
}

// Close flushes queued messages, waiting at most connectTimeout, then
// disconnects a sink created by DialMQTT.
func (s *MQTTSink) Close() {
	s.mu.Lock()
	if s.queue != nil && !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	if s.done != nil {
		select {
		case <-s.done:
		case <-time.After(connectTimeout):
			s.log.Warn("MQTT queue not drained before close", "topic", s.topic)
		}
	}
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

func (s *MQTTSink) PlayReminder(cue string) error {
	return s.publish(Message{Action: "reminder", Cues: []string{cue}})
}

func (s *MQTTSink) PlayOnEvent(cues ...string) error {
	return s.publish(Message{Action: "event", Cues: cues, Cancel: true})
}

func (s *MQTTSink) PlayImsak(cue string) error {
	return s.publish(Message{Action: "imsak", Cues: []string{cue}})
}

func (s *MQTTSink) Notify(title, body string) error {
	return s.publish(Message{Action: "notify", Title: title, Body: body})
}

func (s *MQTTSink) publish(msg Message) error {
	msg.At = s.now()
	payload, err := sonic.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode MQTT message")
	}
	m := outgoing{action: msg.Action, payload: payload}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.queue == nil {
		return s.send(m)
	}
	if s.closed {
		return errors.Newf("MQTT sink closed, dropping %s", msg.Action)
	}
	select {
	case s.queue <- m:
		return nil
	default:
		return errors.Newf("MQTT queue full, dropping %s", msg.Action)
	}
}

func (s *MQTTSink) send(m outgoing) error {
	token := s.pub.Publish(s.topic, 1, false, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Newf("timed out publishing %s to %s", m.action, s.topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish %s to %s", m.action, s.topic)
	}
	return nil
}
