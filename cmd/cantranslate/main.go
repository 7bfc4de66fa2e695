// Command cantranslate reads Our Format lines, converts them to CAN
// frames and delivers the frames to the sinks enabled in the configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/squadracorsepolito/cantranslate"
	"github.com/squadracorsepolito/cantranslate/config"
	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/egress"
	"github.com/squadracorsepolito/cantranslate/ingress"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
	cansignal "github.com/squadracorsepolito/cantranslate/signal"
	"github.com/squadracorsepolito/cantranslate/telemetry"
	"github.com/squadracorsepolito/cantranslate/translator"
	"go.bug.st/serial"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path of the YAML configuration file")
	flag.Parse()

	l := internal.NewLogger("cmd", "cantranslate")

	if err := run(*configPath, l); err != nil {
		l.Error("failed to run", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.Egress.SLCAN.Enabled = true
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

func run(configPath string, l *internal.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	internal.SetLogLevel(level)

	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelCtx()

	if cfg.Telemetry.Enabled {
		telCfg := telemetry.NewDefaultConfig()
		telCfg.ServiceName = cfg.Telemetry.ServiceName
		telCfg.SampleRatio = cfg.Telemetry.SampleRatio

		shutdown, err := telemetry.Init(ctx, telCfg)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				l.Error("failed to shutdown telemetry", err)
			}
		}()
	}

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	if err := pipeline.Init(ctx); err != nil {
		return err
	}

	pipeline.Run(ctx)

	select {
	case <-pipeline.Done():
		l.Info("input exhausted")
	case <-ctx.Done():
		l.Info("interrupted")
	}

	stopped := make(chan struct{})
	go func() {
		pipeline.Stop()
		close(stopped)
	}()

	// a source blocked on the standard input cannot be interrupted
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		l.Warn("stages did not stop in time")
	}

	return nil
}

func buildPipeline(cfg *config.Config) (*cantranslate.Pipeline, error) {
	pipeline := cantranslate.NewPipeline()
	size := cfg.Translator.ChannelSize

	source, err := newSource(cfg.Ingress)
	if err != nil {
		return nil, err
	}

	ingressToTranslator := connector.NewChannel[*message.Line](size)

	ingressStage := ingress.NewStage(source)
	ingressStage.SetOutput(ingressToTranslator)
	pipeline.AddStage(ingressStage)

	frames := connector.NewBroadcast[*message.Frame]()

	translatorCfg := translator.NewDefaultConfig()
	translatorCfg.Workers = cfg.Translator.Workers
	translatorCfg.ChannelSize = size
	translatorCfg.StatsInterval = cfg.Translator.StatsInterval

	translatorStage := translator.NewStage("our_format", translatorCfg)
	translatorStage.SetInput(ingressToTranslator)
	translatorStage.SetOutput(frames)
	pipeline.AddStage(translatorStage)

	sinks, err := newFrameSinks(cfg)
	if err != nil {
		return nil, err
	}
	for _, sink := range sinks {
		ch := connector.NewChannel[*message.Frame](size)
		frames.Add(ch)

		stage := egress.NewStage(sink)
		stage.SetInput(ch)
		pipeline.AddStage(stage)
	}

	if cfg.Signal.DBCFile != "" {
		if err := addSignalStages(pipeline, cfg, frames); err != nil {
			return nil, err
		}
	}

	return pipeline, nil
}

func addSignalStages(pipeline *cantranslate.Pipeline, cfg *config.Config, frames *connector.Broadcast[*message.Frame]) error {
	messages, err := cansignal.LoadDBC(cfg.Signal.BusName, cfg.Signal.DBCFile)
	if err != nil {
		return err
	}

	size := cfg.Translator.ChannelSize

	translatorToSignal := connector.NewChannel[*message.Frame](size)
	frames.Add(translatorToSignal)

	signalToEgress := connector.NewChannel[*message.SignalBatch](size)

	signalStage := cansignal.NewStage(&cansignal.Config{Messages: messages})
	signalStage.SetInput(translatorToSignal)
	signalStage.SetOutput(signalToEgress)
	pipeline.AddStage(signalStage)

	var sink egress.Sink[*message.SignalBatch]
	if cfg.Egress.QuestDB.Enabled && cfg.Egress.QuestDB.Signals {
		sink = egress.NewQuestDBSignalSink(newQuestDBConfig(cfg.Egress.QuestDB))
	} else {
		sink = &discardSignalSink{}
	}

	stage := egress.NewStage(sink)
	stage.SetInput(signalToEgress)
	pipeline.AddStage(stage)

	return nil
}

func newSource(cfg config.IngressConfig) (ingress.Source, error) {
	switch cfg.Kind {
	case config.IngressKindSerial:
		return ingress.NewSerialSource(&ingress.SerialConfig{
			Device:   cfg.Serial.Device,
			BaudRate: cfg.Serial.BaudRate,
		}), nil

	case config.IngressKindUDP:
		return ingress.NewUDPSource(&ingress.UDPConfig{Address: cfg.UDP.Address}), nil

	case config.IngressKindReader:
		return ingress.NewFileSource(cfg.Reader.Path), nil
	}

	return nil, fmt.Errorf("unknown ingress kind %q", cfg.Kind)
}

func newQuestDBConfig(cfg config.QuestDBEgressConfig) *egress.QuestDBConfig {
	return &egress.QuestDBConfig{
		Address:       cfg.Address,
		AutoFlushRows: cfg.AutoFlushRows,
		RetryTimeout:  cfg.RetryTimeout,
	}
}

func newFrameSinks(cfg *config.Config) ([]egress.Sink[*message.Frame], error) {
	eg := cfg.Egress
	sinks := []egress.Sink[*message.Frame]{}

	if eg.SocketCAN.Enabled {
		sinks = append(sinks, egress.NewSocketCANSink(&egress.SocketCANConfig{Interface: eg.SocketCAN.Interface}))
	}

	if eg.SLCAN.Enabled {
		w, err := newSLCANWriter(eg.SLCAN)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, egress.NewSLCANSink(w))
	}

	if eg.QuestDB.Enabled && eg.QuestDB.Frames {
		sinks = append(sinks, egress.NewQuestDBFrameSink(newQuestDBConfig(eg.QuestDB)))
	}

	if eg.Kafka.Enabled {
		kafkaCfg := egress.NewDefaultKafkaConfig()
		kafkaCfg.Brokers = eg.Kafka.Brokers
		kafkaCfg.Topic = eg.Kafka.Topic
		sinks = append(sinks, egress.NewKafkaSink(kafkaCfg))
	}

	if eg.WebSocket.Enabled {
		wsCfg := egress.NewDefaultWebSocketConfig()
		wsCfg.Address = eg.WebSocket.Address
		sinks = append(sinks, egress.NewWebSocketSink(wsCfg))
	}

	if eg.Recorder.Enabled {
		sinks = append(sinks, egress.NewRecorderSink(&egress.RecorderConfig{Path: eg.Recorder.Path}))
	}

	return sinks, nil
}

// stdout hides the Close method of os.Stdout from the sink.
type stdout struct {
	io.Writer
}

func newSLCANWriter(cfg config.SLCANEgressConfig) (io.Writer, error) {
	if cfg.Device != "" {
		port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.BaudRate})
		if err != nil {
			return nil, fmt.Errorf("open slcan serial %s: %w", cfg.Device, err)
		}
		return port, nil
	}

	if cfg.Path == "-" {
		return stdout{os.Stdout}, nil
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create slcan file: %w", err)
	}
	return f, nil
}

// discardSignalSink drains the decoded signals when no sink stores them,
// the stage still logs and counts them.
type discardSignalSink struct{}

func (discardSignalSink) Name() string { return "discard_signals" }

func (discardSignalSink) Init(_ context.Context) error { return nil }

func (discardSignalSink) Deliver(_ context.Context, _ *message.SignalBatch) error { return nil }

func (discardSignalSink) Close() error { return nil }
