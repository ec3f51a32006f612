package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/lighting"
)

const kafkaWriteTimeout = 100 * time.Millisecond

// MessageWriter is the part of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaWriter publishes JSON records keyed by zone, so one zone always lands
// on the same partition and stays ordered.
type KafkaWriter struct {
	W       MessageWriter
	Zone    string
	Power   PowerModel
	Timeout time.Duration
}

func NewKafkaWriter(cfg config.Kafka, zone string, power PowerModel) (*KafkaWriter, *kafka.Writer) {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaWriter{W: w, Zone: zone, Power: power, Timeout: kafkaWriteTimeout}, w
}

func (k *KafkaWriter) Emit(rec lighting.Record) error {
	body, err := json.Marshal(NewPayload(rec, k.Zone, k.Power))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.Timeout)
	defer cancel()
	return k.W.WriteMessages(ctx, kafka.Message{Key: []byte(k.Zone), Value: body, Time: rec.At})
}
