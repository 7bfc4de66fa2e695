package egress

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
)

const kafkaContentType = "application/cbor"

type KafkaConfig struct {
	Brokers []string
	Topic   string

	// The balancer used to distribute messages across partitions.
	//
	// The default hashes the key, so the frames with the same
	// identifier land in the same partition.
	Balancer kafka.Balancer

	// Limit on how many attempts will be made to deliver a message.
	MaxAttempts int

	// Limit on how many messages will be buffered before being sent to a
	// partition.
	BatchSize int

	// Time limit on how often incomplete message batches will be flushed.
	BatchTimeout time.Duration

	// Timeout for write operation performed by the Writer.
	WriteTimeout time.Duration

	// Number of acknowledges from partition replicas required before receiving
	// a response to a produce request.
	RequiredAcks kafka.RequiredAcks

	// Setting this flag to true causes the WriteMessages method to never block.
	// Errors are then ignored.
	Async bool

	Compression kafka.Compression

	// AllowAutoTopicCreation notifies writer to create topic if missing.
	AllowAutoTopicCreation bool
}

func NewDefaultKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		Brokers:                []string{"localhost:9092"},
		Topic:                  "can_frames",
		Balancer:               &kafka.Hash{},
		MaxAttempts:            10,
		BatchSize:              100,
		BatchTimeout:           time.Second,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireNone,
		Async:                  true,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
}

// kafkaMessageWriter is implemented by [kafka.Writer].
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes the frames as CBOR encoded [FrameRecord] values,
// keyed by CAN identifier.
type KafkaSink struct {
	tel *internal.Telemetry

	cfg *KafkaConfig

	writer kafkaMessageWriter
}

func NewKafkaSink(cfg *KafkaConfig) *KafkaSink {
	return &KafkaSink{
		tel: internal.NewTelemetry("egress", "kafka"),

		cfg: cfg,
	}
}

func (s *KafkaSink) Name() string {
	return "kafka"
}

func (s *KafkaSink) Init(_ context.Context) error {
	s.writer = &kafka.Writer{
		Addr:                   kafka.TCP(s.cfg.Brokers...),
		Topic:                  s.cfg.Topic,
		Balancer:               s.cfg.Balancer,
		MaxAttempts:            s.cfg.MaxAttempts,
		BatchSize:              s.cfg.BatchSize,
		BatchTimeout:           s.cfg.BatchTimeout,
		WriteTimeout:           s.cfg.WriteTimeout,
		RequiredAcks:           s.cfg.RequiredAcks,
		Async:                  s.cfg.Async,
		Compression:            s.cfg.Compression,
		AllowAutoTopicCreation: s.cfg.AllowAutoTopicCreation,
	}

	return nil
}

func (s *KafkaSink) Deliver(ctx context.Context, frame *message.Frame) error {
	msg, err := s.newMessage(ctx, frame)
	if err != nil {
		return err
	}

	return s.writer.WriteMessages(ctx, msg)
}

func (s *KafkaSink) newMessage(ctx context.Context, frame *message.Frame) (kafka.Message, error) {
	value, err := recordEncMode.Marshal(NewFrameRecord(frame))
	if err != nil {
		return kafka.Message{}, err
	}

	carrier := newKafkaHeaderCarrier(kafka.Header{Key: "content-type", Value: []byte(kafkaContentType)})
	s.tel.InjectTrace(ctx, carrier)

	return kafka.Message{
		Key:     []byte(strconv.FormatUint(uint64(frame.Socket.Identifier()), 16)),
		Value:   value,
		Headers: carrier.headers,
		Time:    frame.GetTimestamp(),
	}, nil
}

func (s *KafkaSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// kafkaHeaderCarrier lets the propagator write the trace into the headers.
type kafkaHeaderCarrier struct {
	headers []kafka.Header
}

func newKafkaHeaderCarrier(headers ...kafka.Header) *kafkaHeaderCarrier {
	return &kafkaHeaderCarrier{
		headers: slices.Clone(headers),
	}
}

func (c *kafkaHeaderCarrier) Get(key string) string {
	for _, header := range c.headers {
		if key == header.Key {
			return string(header.Value)
		}
	}
	return ""
}

func (c *kafkaHeaderCarrier) Set(key, value string) {
	c.headers = slices.DeleteFunc(c.headers, func(header kafka.Header) bool {
		return header.Key == key
	})

	c.headers = append(c.headers, kafka.Header{
		Key:   key,
		Value: []byte(value),
	})
}

func (c *kafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, header := range c.headers {
		keys = append(keys, header.Key)
	}
	return keys
}
