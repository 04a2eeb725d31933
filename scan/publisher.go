package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// AlignmentMessage is the JSON payload published after a successful analysis.
type AlignmentMessage struct {
	TipXVolts   float64 `json:"tipXVolts"`
	TipYVolts   float64 `json:"tipYVolts"`
	ResidualRMS float64 `json:"residualRMS"`
	ScanFile    string  `json:"scanFile,omitempty"`
	Timestamp   int64   `json:"timestamp"`
}

// Publisher pushes alignment results to an MQTT broker so the lab dashboard
// can pick them up. It never drives the scan hardware.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
}

// NewPublisher creates a result publisher. If client is nil, publishing is
// disabled (useful in tests).
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = os.Getenv("MQTT_PUBLISH_PREFIX")
	}
	if prefix == "" {
		prefix = "beamalign"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // retain so a late subscriber sees the latest tip
	}
}

// PublishAlignment publishes the tip estimate to {prefix}/tip.
func (p *Publisher) PublishAlignment(result *AlignmentResult, residualRMS float64, scanFile string) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	msg := AlignmentMessage{
		TipXVolts:   result.TipXVolts,
		TipYVolts:   result.TipYVolts,
		ResidualRMS: residualRMS,
		ScanFile:    scanFile,
		Timestamp:   time.Now().Unix(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling alignment message: %w", err)
	}

	topic := fmt.Sprintf("%s/tip", p.publishPrefix)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// ConnectMQTT builds and connects an MQTT client from the configuration.
// Environment variables MQTT_BROKER, MQTT_CLIENT_ID, MQTT_USERNAME and
// MQTT_PASSWORD override the config file.
func ConnectMQTT(cfg MQTTConfig) (mqtt.Client, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = cfg.Broker
	}
	if broker == "" {
		return nil, fmt.Errorf("no MQTT broker configured")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" {
		clientID = cfg.ClientID
	}
	if clientID == "" {
		clientID = "beamalign"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" {
		username = cfg.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" {
			password = cfg.Password
		}
		opts.SetPassword(password)
	}

	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("connecting to MQTT broker %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, err)
	}
	return client, nil
}
