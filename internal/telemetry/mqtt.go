package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/lighting"
)

const (
	mqttConnectRetries = 5
	mqttPublishTimeout = 50 * time.Millisecond
)

// Publisher is the part of mqtt.Client used for telemetry.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// ConnectMQTT connects to the broker, retrying with exponential backoff.
// An empty client id gets a random one.
func ConnectMQTT(ctx context.Context, cfg config.MQTT) (mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "lightctl-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("broker", cfg.Broker).Msg("failed to connect to MQTT broker")
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, mqttConnectRetries-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker %s: %w", cfg.Broker, err)
	}
	log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("connected to MQTT broker")
	return client, nil
}

// MQTTPublisher publishes each record as JSON with QoS 0.
type MQTTPublisher struct {
	Client  Publisher
	Topic   string
	Zone    string
	Power   PowerModel
	Timeout time.Duration
}

func NewMQTTPublisher(client Publisher, topic, zone string, power PowerModel) *MQTTPublisher {
	return &MQTTPublisher{Client: client, Topic: topic, Zone: zone, Power: power, Timeout: mqttPublishTimeout}
}

func (p *MQTTPublisher) Emit(rec lighting.Record) error {
	body, err := json.Marshal(NewPayload(rec, p.Zone, p.Power))
	if err != nil {
		return err
	}
	token := p.Client.Publish(p.Topic, 0, false, body)
	if !token.WaitTimeout(p.Timeout) {
		return fmt.Errorf("publish to %s timed out after %v", p.Topic, p.Timeout)
	}
	return token.Error()
}
