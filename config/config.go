// Package config loads the YAML configuration of cantranslate.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	IngressKindSerial = "serial"
	IngressKindUDP    = "udp"
	IngressKindReader = "reader"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Ingress    IngressConfig    `yaml:"ingress"`
	Translator TranslatorConfig `yaml:"translator"`
	Signal     SignalConfig     `yaml:"signal"`
	Egress     EgressConfig     `yaml:"egress"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// TelemetryConfig enables the OTLP exporters. Endpoints are taken
// from the standard OTEL_EXPORTER_OTLP_* environment variables.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type IngressConfig struct {
	Kind   string              `yaml:"kind"`
	Serial SerialIngressConfig `yaml:"serial"`
	UDP    UDPIngressConfig    `yaml:"udp"`
	Reader ReaderIngressConfig `yaml:"reader"`
}

type SerialIngressConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
}

type UDPIngressConfig struct {
	Address string `yaml:"address"`
}

type ReaderIngressConfig struct {
	Path string `yaml:"path"` // "-" reads the standard input
}

type TranslatorConfig struct {
	Workers       int           `yaml:"workers"`
	ChannelSize   int           `yaml:"channel_size"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// SignalConfig enables the signal decoding when DBCFile is set.
type SignalConfig struct {
	DBCFile string `yaml:"dbc_file"`
	BusName string `yaml:"bus_name"`
}

type EgressConfig struct {
	SocketCAN SocketCANEgressConfig `yaml:"socketcan"`
	SLCAN     SLCANEgressConfig     `yaml:"slcan"`
	QuestDB   QuestDBEgressConfig   `yaml:"questdb"`
	Kafka     KafkaEgressConfig     `yaml:"kafka"`
	WebSocket WebSocketEgressConfig `yaml:"websocket"`
	Recorder  RecorderEgressConfig  `yaml:"recorder"`
}

type SocketCANEgressConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Interface string `yaml:"interface"`
}

// SLCANEgressConfig writes to the serial Device when set,
// otherwise to the file at Path ("-" is the standard output).
type SLCANEgressConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	Path     string `yaml:"path"`
}

type QuestDBEgressConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Address       string        `yaml:"address"`
	AutoFlushRows int           `yaml:"auto_flush_rows"`
	RetryTimeout  time.Duration `yaml:"retry_timeout"`
	Frames        bool          `yaml:"frames"`
	Signals       bool          `yaml:"signals"`
}

type KafkaEgressConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type WebSocketEgressConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type RecorderEgressConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used for the fields
// missing from the file.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "cantranslate",
			SampleRatio: 0.05,
		},
		Ingress: IngressConfig{
			Kind: IngressKindReader,
			Serial: SerialIngressConfig{
				Device:   "/dev/ttyUSB0",
				BaudRate: 115200,
			},
			UDP: UDPIngressConfig{
				Address: "0.0.0.0:20000",
			},
			Reader: ReaderIngressConfig{
				Path: "-",
			},
		},
		Translator: TranslatorConfig{
			Workers:     1,
			ChannelSize: 1024,
		},
		Signal: SignalConfig{
			BusName: "bus",
		},
		Egress: EgressConfig{
			SocketCAN: SocketCANEgressConfig{
				Interface: "vcan0",
			},
			SLCAN: SLCANEgressConfig{
				BaudRate: 115200,
				Path:     "-",
			},
			QuestDB: QuestDBEgressConfig{
				Address:       "localhost:9000",
				AutoFlushRows: 75_000,
				RetryTimeout:  time.Second,
				Frames:        true,
			},
			Kafka: KafkaEgressConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "can_frames",
			},
			WebSocket: WebSocketEgressConfig{
				Address: "localhost:8080",
			},
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogLevel returns the level named in the log section.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return level, nil
}

func (c *Config) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	errs := []error{}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, c.invalid("telemetry sample ratio must be between 0 and 1"))
	}

	switch c.Ingress.Kind {
	case IngressKindSerial:
		if c.Ingress.Serial.Device == "" {
			errs = append(errs, c.invalid("serial ingress without device"))
		}
		if c.Ingress.Serial.BaudRate <= 0 {
			errs = append(errs, c.invalid("serial ingress baud rate must be positive"))
		}
	case IngressKindUDP:
		if c.Ingress.UDP.Address == "" {
			errs = append(errs, c.invalid("udp ingress without address"))
		}
	case IngressKindReader:
		if c.Ingress.Reader.Path == "" {
			errs = append(errs, c.invalid("reader ingress without path"))
		}
	default:
		errs = append(errs, c.invalid("unknown ingress kind %q", c.Ingress.Kind))
	}

	if c.Translator.Workers <= 0 {
		errs = append(errs, c.invalid("translator workers must be positive"))
	}
	if c.Translator.ChannelSize <= 0 {
		errs = append(errs, c.invalid("translator channel size must be positive"))
	}

	errs = append(errs, c.validateEgress()...)

	return errors.Join(errs...)
}

func (c *Config) validateEgress() []error {
	errs := []error{}
	eg := c.Egress

	if !eg.SocketCAN.Enabled && !eg.SLCAN.Enabled && !eg.QuestDB.Enabled &&
		!eg.Kafka.Enabled && !eg.WebSocket.Enabled && !eg.Recorder.Enabled {
		errs = append(errs, c.invalid("no egress enabled"))
	}

	if eg.SocketCAN.Enabled && eg.SocketCAN.Interface == "" {
		errs = append(errs, c.invalid("socketcan egress without interface"))
	}

	if eg.SLCAN.Enabled && eg.SLCAN.Device == "" && eg.SLCAN.Path == "" {
		errs = append(errs, c.invalid("slcan egress without device or path"))
	}

	if eg.QuestDB.Enabled {
		if eg.QuestDB.Address == "" {
			errs = append(errs, c.invalid("questdb egress without address"))
		}
		if !eg.QuestDB.Frames && !eg.QuestDB.Signals {
			errs = append(errs, c.invalid("questdb egress with neither frames nor signals"))
		}
		if eg.QuestDB.Signals && c.Signal.DBCFile == "" {
			errs = append(errs, c.invalid("questdb signals need signal.dbc_file"))
		}
	}

	if eg.Kafka.Enabled && (len(eg.Kafka.Brokers) == 0 || eg.Kafka.Topic == "") {
		errs = append(errs, c.invalid("kafka egress needs brokers and topic"))
	}

	if eg.WebSocket.Enabled && eg.WebSocket.Address == "" {
		errs = append(errs, c.invalid("websocket egress without address"))
	}

	if eg.Recorder.Enabled && eg.Recorder.Path == "" {
		errs = append(errs, c.invalid("recorder egress without path"))
	}

	return errs
}
