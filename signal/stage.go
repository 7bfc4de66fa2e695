// Package signal contains the stage that decodes the payload
// of the translated frames into signals, using a DBC description.
package signal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/squadracorsepolito/acmelib"
	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
	"go.opentelemetry.io/otel/attribute"
)

type Stage struct {
	tel *internal.Telemetry

	cfg *Config

	decoder *decoder

	inputConnector  connector.Connector[*message.Frame]
	outputConnector connector.Writer[*message.SignalBatch]

	stopOnce sync.Once
	stopCh   chan struct{}

	unknownFrames  atomic.Int64
	decodedSignals atomic.Int64
}

func NewStage(cfg *Config) *Stage {
	return &Stage{
		tel: internal.NewTelemetry("handler", "signal"),

		cfg: cfg,

		stopCh: make(chan struct{}),
	}
}

func (s *Stage) SetInput(inputConnector connector.Connector[*message.Frame]) {
	s.inputConnector = inputConnector
}

func (s *Stage) SetOutput(outputConnector connector.Writer[*message.SignalBatch]) {
	s.outputConnector = outputConnector
}

func (s *Stage) Init(_ context.Context) error {
	s.tel.LogInfo("initializing")
	defer s.tel.LogInfo("initialized")

	if s.inputConnector == nil || s.outputConnector == nil {
		return errors.New("signal: input and output connectors must be set")
	}

	s.decoder = newDecoder(s.cfg.Messages)
	s.tel.LogInfo("loaded messages", "count", s.decoder.len())

	s.tel.NewCounter("unknown_frames", func() int64 { return s.unknownFrames.Load() })
	s.tel.NewCounter("decoded_signals", func() int64 { return s.decodedSignals.Load() })

	return nil
}

func (s *Stage) Run(ctx context.Context) {
	s.tel.LogInfo("running")
	defer s.tel.LogInfo("stopped")

	defer s.outputConnector.Close()
	defer s.inputConnector.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		frame, err := s.inputConnector.Read()
		if err != nil {
			if errors.Is(err, connector.ErrClosed) {
				s.tel.LogInfo("input connector is closed, stopping")
				return
			}

			s.tel.LogError("failed to read from input connector", err)
			continue
		}

		batch := s.handle(ctx, frame)
		if batch == nil {
			continue
		}

		if err := s.outputConnector.Write(batch); err != nil {
			s.tel.LogError("failed to write into output connector", err)
		}
	}
}

func (s *Stage) handle(ctx context.Context, frame *message.Frame) *message.SignalBatch {
	_, span := s.tel.NewTrace(frame.LoadSpanContext(ctx), "decode signals")
	defer span.End()

	canID := frame.Socket.Identifier()

	decodings := s.decoder.decode(canID, frame.Socket.Payload())
	if decodings == nil {
		s.unknownFrames.Add(1)
		return nil
	}

	batch := message.NewSignalBatchFromFrame(frame)
	batch.Signals = make([]message.Signal, 0, len(decodings))

	for _, dec := range decodings {
		batch.Signals = append(batch.Signals, newSignal(canID, dec))
	}

	s.decodedSignals.Add(int64(len(batch.Signals)))

	span.SetAttributes(attribute.Int("signal_count", len(batch.Signals)))
	batch.SaveSpan(span)

	return batch
}

func newSignal(canID uint32, dec *acmelib.SignalDecoding) message.Signal {
	sig := message.Signal{
		CANID:    canID,
		Name:     dec.Signal.Name(),
		RawValue: dec.RawValue,
	}

	switch dec.ValueType {
	case acmelib.SignalValueTypeFlag:
		sig.Table = message.SignalTableFlag
		sig.ValueFlag = dec.ValueAsFlag()

	case acmelib.SignalValueTypeInt:
		sig.Table = message.SignalTableInt
		sig.ValueInt = dec.ValueAsInt()

	case acmelib.SignalValueTypeUint:
		sig.Table = message.SignalTableInt
		sig.ValueInt = int64(dec.ValueAsUint())

	case acmelib.SignalValueTypeFloat:
		sig.Table = message.SignalTableFloat
		sig.ValueFloat = dec.ValueAsFloat()

	case acmelib.SignalValueTypeEnum:
		sig.Table = message.SignalTableEnum
		sig.ValueEnum = dec.ValueAsEnum()
	}

	return sig
}

func (s *Stage) Stop() {
	s.tel.LogInfo("closing")
	defer s.tel.LogInfo("closed")

	s.stopOnce.Do(func() {
		close(s.stopCh)

		if s.inputConnector != nil {
			s.inputConnector.Close()
		}
	})
}
