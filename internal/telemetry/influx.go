package telemetry

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/lighting"
)

// PointWriter is the part of the non-blocking api.WriteAPI used here.
type PointWriter interface {
	WritePoint(point *write.Point)
}

// InfluxWriter turns records into points of the "lighting" measurement.
// Writes are batched by the client; failures surface on its error channel.
type InfluxWriter struct {
	API   PointWriter
	Zone  string
	Power PowerModel
}

// NewInfluxWriter creates a client for cfg and returns the writer together
// with the client, which the caller must Close.
func NewInfluxWriter(cfg config.InfluxDB, zone string, power PowerModel) (*InfluxWriter, influxdb2.Client) {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(500).SetFlushInterval(5000))
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Warn().Err(err).Msg("influx write error")
		}
	}()
	return &InfluxWriter{API: writeAPI, Zone: zone, Power: power}, client
}

func (w *InfluxWriter) Point(rec lighting.Record) *write.Point {
	return influxdb2.NewPoint(
		"lighting",
		map[string]string{
			"zone": w.Zone,
			"mode": rec.Mode.String(),
		},
		map[string]interface{}{
			"lux":     rec.Light,
			"motion":  rec.Motion,
			"pwm":     rec.Level,
			"power_w": w.Power.Watts(rec.Level),
		},
		rec.At,
	)
}

func (w *InfluxWriter) Emit(rec lighting.Record) error {
	w.API.WritePoint(w.Point(rec))
	return nil
}
