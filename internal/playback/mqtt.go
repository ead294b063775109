package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/overlay"
)

const DefaultBrokerURL = "tcp://0.0.0.0:1883"

func AudioTopic(displayID string) string   { return fmt.Sprintf("display/%s/audio", displayID) }
func StatusTopic(displayID string) string  { return fmt.Sprintf("display/%s/status", displayID) }
func OverlayTopic(displayID string) string { return fmt.Sprintf("display/%s/overlay", displayID) }

// AudioMessage is published to the screen for every command.
type AudioMessage struct {
	ID         string    `json:"id"`
	Op         string    `json:"op"`
	Source     string    `json:"source,omitempty"`
	PositionMS int64     `json:"position_ms,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// StatusMessage is what the screen reports back while it plays.
type StatusMessage struct {
	CommandID  string `json:"command_id,omitempty"`
	Source     string `json:"source"`
	State      string `json:"state"` // playing, paused, ended, failed
	PositionMS int64  `json:"position_ms"`
	Error      string `json:"error,omitempty"`
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// NewMQTTClient connects to brokerURL under clientID.
func NewMQTTClient(brokerURL, clientID string) (mqtt.Client, error) {
	if brokerURL == "" {
		brokerURL = DefaultBrokerURL
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		client.Disconnect(250)
		err := token.Error()
		if err == nil {
			err = errors.New("timed out")
		}
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, err)
	}
	log.Info().Str("broker", brokerURL).Str("client_id", clientID).Msg("MQTT client initialized")
	return client, nil
}

// MQTTDriver forwards commands to a screen that owns the speakers. The
// screen reports position and end-of-clip on the status topic.
type MQTTDriver struct {
	client    mqtt.Client
	displayID string

	mu       sync.Mutex
	source   string
	position time.Duration
	listener Listener
}

func NewMQTTDriver(client mqtt.Client, displayID string) *MQTTDriver {
	return &MQTTDriver{client: client, displayID: displayID}
}

func (d *MQTTDriver) SetListener(l Listener) {
	d.mu.Lock()
	d.listener = l
	d.mu.Unlock()
}

// Start subscribes to the screen's status topic.
func (d *MQTTDriver) Start() error {
	topic := StatusTopic(d.displayID)
	token := d.client.Subscribe(topic, 1, d.handleStatus)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Info().Str("topic", topic).Msg("listening for screen status")
	return nil
}

func (d *MQTTDriver) handleStatus(_ mqtt.Client, msg mqtt.Message) {
	var st StatusMessage
	if err := json.Unmarshal(msg.Payload(), &st); err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid status message")
		return
	}

	d.mu.Lock()
	current := d.source == st.Source && st.Source != ""
	if current {
		d.position = time.Duration(st.PositionMS) * time.Millisecond
	}
	var l Listener
	if current && (st.State == "ended" || st.State == "failed") {
		d.source, d.position = "", 0
		l = d.listener
	}
	d.mu.Unlock()

	if l == nil {
		return
	}
	switch st.State {
	case "ended":
		l.ReportEnded(st.Source)
	case "failed":
		l.ReportFailure(st.Source, fmt.Errorf("screen: %s", st.Error))
	}
}

func (d *MQTTDriver) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := d.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

func (d *MQTTDriver) send(ctx context.Context, op, source string, position time.Duration) error {
	msg := AudioMessage{
		ID:         uuid.NewString(),
		Op:         op,
		Source:     source,
		PositionMS: position.Milliseconds(),
		SentAt:     time.Now().UTC(),
	}
	if err := d.publish(ctx, AudioTopic(d.displayID), msg); err != nil {
		return err
	}
	log.Debug().Str("id", msg.ID).Str("op", op).Str("source", source).Msg("audio command sent")
	return nil
}

func (d *MQTTDriver) Play(ctx context.Context, source string) error {
	if err := d.send(ctx, "play", source, 0); err != nil {
		return err
	}
	d.mu.Lock()
	d.source, d.position = source, 0
	d.mu.Unlock()
	return nil
}

func (d *MQTTDriver) Pause(ctx context.Context) error {
	return d.send(ctx, "pause", "", 0)
}

func (d *MQTTDriver) Resume(ctx context.Context, source string, position time.Duration) error {
	if err := d.send(ctx, "resume", source, position); err != nil {
		return err
	}
	d.mu.Lock()
	d.source, d.position = source, position
	d.mu.Unlock()
	return nil
}

func (d *MQTTDriver) Stop(ctx context.Context) error {
	if err := d.send(ctx, "stop", "", 0); err != nil {
		return err
	}
	d.mu.Lock()
	d.source, d.position = "", 0
	d.mu.Unlock()
	return nil
}

func (d *MQTTDriver) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

// PublishOverlay forwards overlay transitions to the screen.
func (d *MQTTDriver) PublishOverlay(ctx context.Context, events []overlay.Event) error {
	for _, ev := range events {
		if err := d.publish(ctx, OverlayTopic(d.displayID), ev); err != nil {
			return err
		}
	}
	return nil
}

// Close unsubscribes and disconnects from the broker.
func (d *MQTTDriver) Close() error {
	d.client.Unsubscribe(StatusTopic(d.displayID)).WaitTimeout(time.Second)
	d.client.Disconnect(250)
	log.Info().Msg("MQTT client disconnected")
	return nil
}
