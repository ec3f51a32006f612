package main

import (
	"context"
	"encoding/json"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LopatkinEvgeniy/clock"
	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/soniah/gosnmp"

	"github.com/lwolf/lightctl/internal/board"
	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/lighting"
	"github.com/lwolf/lightctl/internal/sensor"
	"github.com/lwolf/lightctl/internal/sim"
	"github.com/lwolf/lightctl/internal/sunrise"
	"github.com/lwolf/lightctl/internal/telemetry"
)

var (
	Version string
)

const (
	breakerFailures = 5
	breakerOpen     = 30 * time.Second

	// records buffered per network sink, about two seconds of cycles
	sinkQueue = 128
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	configPath := flag.String("config", "", "Path to the YAML config with thresholds and telemetry settings")
	simulate := flag.Bool("simulate", false, "Drive a simulated room instead of the SNMP board")
	snmpHost := flag.String("snmp-remote", "", "IP address of the snmp device")
	snmpPort := flag.Uint("snmp-port", 161, "SNMP port of the device")
	snmpVerbose := flag.Bool("snmp-verbose", false, "Enable verbose logging for the snmp library")
	debug := flag.Bool("debug", false, "Enable debug logging for the app")
	httpAddr := flag.String("addr", "127.0.0.1:8000", "Address and port to serve metrics on")
	timeZone := flag.String("tz", "Europe/Kiev", "Time zone to use")
	lat := flag.Float64("lat", 49.605875, "Latitute for sunset/sunrise estimation of the simulated room")
	lon := flag.Float64("lon", 34.501362, "Longitude for sunset/sunrise estimation of the simulated room")
	flag.Parse()
	loc, err := time.LoadLocation(*timeZone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", *timeZone).Msg("failed to parse time zone")
	}
	log.Info().
		Time("local time", time.Now().In(loc)).
		Str("version", Version).
		Msg("Starting app")

	// Default level for this example is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("failed to load config")
	}
	th := cfg.Thresholds
	log.Info().
		Int("nightOn", th.NightOn).
		Int("dayOn", th.DayOn).
		Dur("hold", th.Hold).
		Dur("idle", th.Idle).
		Dur("ramp", th.Ramp).
		Msg("thresholds loaded")

	cl := clock.NewRealClock()
	var (
		light  sensor.LightSource
		motion sensor.MotionSource
		output lighting.Actuator
	)
	if *simulate {
		room := sim.NewRoom(cl, loc, sunrise.NewRealSunriser(cl, loc, *lat, *lon), sensor.NewScale(cfg.Sensor), time.Now().UnixNano())
		light, motion, output = room, room, &sim.Lamp{}
		log.Info().Msg("using the simulated room")
	} else {
		if *snmpHost == "" {
			log.Fatal().Msg("`snmp-remote` is required")
		}
		c := &gosnmp.GoSNMP{
			Port:               uint16(*snmpPort),
			Target:             *snmpHost,
			Transport:          "udp",
			Community:          "private",
			Version:            gosnmp.Version2c,
			Timeout:            time.Duration(1) * time.Second,
			Retries:            3,
			ExponentialTimeout: true,
			MaxOids:            gosnmp.MaxOids,
		}
		if *snmpVerbose {
			c.Logger = stdlog.New(os.Stdout, "", 0)
		}
		log.Info().Str("host", *snmpHost).Msg("connecting to the snmp host")
		if err := c.Connect(); err != nil {
			log.Fatal().Err(err).Msg("failed to Connect()")
		}
		defer c.Conn.Close()
		b := board.New(c, cl, cfg.Board)
		light, motion, output = b, b, b
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, closers := buildSinks(ctx, cfg)
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	ctrl := lighting.NewController(cfg, light, motion, output, cl)

	r := mux.NewRouter()
	// Expose the registered metrics at `/metrics` path.
	r.HandleFunc("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.WritePrometheus(w, true)
		ctrl.WriteMetrics(w)
	}).Methods("GET")
	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ctrl.Status()); err != nil {
			log.Error().Err(err).Msg("failed to encode status")
		}
	}).Methods("GET")
	server := http.Server{Addr: *httpAddr, Handler: r}

	var wg sync.WaitGroup
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to ListenAndServe metrics server")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run(ctx, sinks)
	}()

	<-done // Blocks here until either SIGINT or SIGTERM is received.
	log.Info().Msg("got termination signal")
	cancel()
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to shutdown metrics server")
	}
	wg.Wait()
}

// buildSinks wires every configured telemetry destination. Sinks that block
// on the network run behind a queue and a circuit breaker, off the control
// loop; the influx writer batches in the background and needs neither.
func buildSinks(ctx context.Context, cfg config.Config) (telemetry.Fanout, []func()) {
	power := telemetry.PowerModel{FullWatts: cfg.Power.FullWatts}
	tc := cfg.Telemetry
	sinks := telemetry.Fanout{{Name: "log", Sink: telemetry.LogSink{}}}
	var closers []func()

	if tc.CSVPath != "" {
		w, err := telemetry.CreateCSV(tc.CSVPath, power)
		if err != nil {
			log.Fatal().Err(err).Str("path", tc.CSVPath).Msg("failed to open telemetry log")
		}
		sinks = append(sinks, telemetry.Named{Name: "csv", Sink: w})
		closers = append(closers, func() { w.Close() })
	}
	if tc.MQTT.Broker != "" {
		client, err := telemetry.ConnectMQTT(ctx, tc.MQTT)
		if err != nil {
			log.Error().Err(err).Msg("MQTT telemetry disabled")
		} else {
			p := telemetry.NewMQTTPublisher(client, tc.MQTT.Topic, tc.Zone, power)
			q := telemetry.NewAsync("mqtt", telemetry.NewBreaker("mqtt", p, breakerFailures, breakerOpen), sinkQueue)
			sinks = append(sinks, telemetry.Named{Name: "mqtt", Sink: q})
			closers = append(closers, q.Close, func() { client.Disconnect(250) })
		}
	}
	if tc.InfluxDB.URL != "" {
		w, client := telemetry.NewInfluxWriter(tc.InfluxDB, tc.Zone, power)
		sinks = append(sinks, telemetry.Named{Name: "influxdb", Sink: w})
		closers = append(closers, client.Close)
	}
	if len(tc.Kafka.Brokers) > 0 {
		k, w := telemetry.NewKafkaWriter(tc.Kafka, tc.Zone, power)
		q := telemetry.NewAsync("kafka", telemetry.NewBreaker("kafka", k, breakerFailures, breakerOpen), sinkQueue)
		sinks = append(sinks, telemetry.Named{Name: "kafka", Sink: q})
		closers = append(closers, q.Close, func() { w.Close() })
	}
	for _, s := range sinks {
		log.Info().Str("sink", s.Name).Msg("telemetry sink enabled")
	}
	return sinks, closers
}
