// Package translator contains the stage that decodes Our Format lines
// into SocketCAN frames.
package translator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
	"github.com/squadracorsepolito/cantranslate/ourformat"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Stage struct {
	tel *internal.Telemetry

	cfg *Config

	inputConnector  connector.Connector[*message.Line]
	outputConnector connector.Writer[*message.Frame]

	stats *internal.Stats

	decodeErrors  metric.Int64Counter
	decodedFrames atomic.Int64
	droppedLines  atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewStage(name string, cfg *Config) *Stage {
	tel := internal.NewTelemetry("translator", name)

	return &Stage{
		tel: tel,

		cfg: cfg,

		stats: internal.NewStats(tel.Logger(), cfg.StatsInterval),

		stopCh: make(chan struct{}),
	}
}

func (s *Stage) SetInput(inputConnector connector.Connector[*message.Line]) {
	s.inputConnector = inputConnector
}

func (s *Stage) SetOutput(outputConnector connector.Writer[*message.Frame]) {
	s.outputConnector = outputConnector
}

func (s *Stage) Init(_ context.Context) error {
	s.tel.LogInfo("initializing")
	defer s.tel.LogInfo("initialized")

	if s.inputConnector == nil || s.outputConnector == nil {
		return errors.New("translator: input and output connectors must be set")
	}

	if s.cfg.Workers < 1 {
		s.cfg.Workers = 1
	}

	s.initMetrics()

	return nil
}

func (s *Stage) initMetrics() {
	s.tel.NewCounter("decoded_frames", func() int64 { return s.decodedFrames.Load() })
	s.tel.NewCounter("dropped_lines", func() int64 { return s.droppedLines.Load() })

	s.decodeErrors = s.tel.NewAttributedCounter("decode_errors",
		metric.WithDescription("lines rejected by the decoder"),
	)
}

// Run decodes lines until the input connector is closed, then it closes
// the output connector. The input is closed too, so the ingress is never
// left blocked on a stage that stopped reading.
func (s *Stage) Run(ctx context.Context) {
	s.tel.LogInfo("running")
	defer s.tel.LogInfo("stopped")

	defer s.outputConnector.Close()
	defer s.inputConnector.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if s.cfg.StatsInterval > 0 {
		go s.stats.Run(ctx)
	}

	wg := &sync.WaitGroup{}
	wg.Add(s.cfg.Workers)
	for range s.cfg.Workers {
		go func() {
			defer wg.Done()
			s.runWorker(ctx)
		}()
	}

	wg.Wait()
}

func (s *Stage) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.inputConnector.Read()
		if err != nil {
			if errors.Is(err, connector.ErrClosed) {
				s.tel.LogInfo("input connector is closed, stopping")
				return
			}

			s.tel.LogError("failed to read from input connector", err)
			continue
		}

		frame, err := s.translate(ctx, line)
		if err != nil {
			continue
		}

		if err := s.outputConnector.Write(frame); err != nil {
			s.droppedLines.Add(1)
			s.tel.LogError("failed to write into output connector", err)
		}
	}
}

func (s *Stage) translate(ctx context.Context, line *message.Line) (*message.Frame, error) {
	_, span := s.tel.NewTrace(line.LoadSpanContext(ctx), "translate line", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	frame := message.NewFrameFromLine(line)

	err := ourformat.Decode(line.Data, &frame.Decoded, &frame.Socket)
	if err != nil {
		kind := ourformat.KindOf(err)

		s.stats.IncrementFailedCount()
		s.decodeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("error_kind", kind.String())))

		s.tel.LogWarn("failed to decode line",
			"source", line.Source,
			"error_kind", kind.String(),
			"code", kind.Code(),
			"reason", err.Error(),
		)

		span.RecordError(err)
		span.SetStatus(codes.Error, kind.String())

		return nil, err
	}

	s.stats.IncrementItemCount()
	s.decodedFrames.Add(1)

	span.SetAttributes(
		attribute.Int64("can_id", int64(frame.Socket.Identifier())),
		attribute.Int("seq", int(frame.Decoded.Seq)),
	)
	frame.SaveSpan(span)

	return frame, nil
}

// Stop makes the workers return after the line they are handling
// and closes the input connector.
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
