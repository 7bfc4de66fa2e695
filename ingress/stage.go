// Package ingress contains the stage that reads Our Format lines
// from a [Source] and forwards them into the pipeline.
package ingress

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Stage struct {
	tel *internal.Telemetry

	source Source

	outputConnector connector.Writer[*message.Line]

	closeOnce sync.Once
	stopped   chan struct{}

	receivedLines atomic.Int64
	receivedBytes atomic.Int64
	skippedLines  atomic.Int64
}

func NewStage(source Source) *Stage {
	return &Stage{
		tel: internal.NewTelemetry("ingress", source.Name()),

		source: source,

		stopped: make(chan struct{}),
	}
}

func (s *Stage) SetOutput(outputConnector connector.Writer[*message.Line]) {
	s.outputConnector = outputConnector
}

func (s *Stage) Init(ctx context.Context) error {
	s.tel.LogInfo("initializing")
	defer s.tel.LogInfo("initialized")

	if s.outputConnector == nil {
		return errors.New("ingress: output connector not set")
	}

	if err := s.source.Open(ctx); err != nil {
		return err
	}

	s.initMetrics()

	return nil
}

func (s *Stage) initMetrics() {
	s.tel.NewCounter("received_lines", func() int64 { return s.receivedLines.Load() })
	s.tel.NewCounter("received_bytes", func() int64 { return s.receivedBytes.Load() })
	s.tel.NewCounter("skipped_lines", func() int64 { return s.skippedLines.Load() })
}

// Run reads lines until the source is exhausted or ctx is done.
// The output connector is closed on return, so the next stage
// can drain what is left and stop.
func (s *Stage) Run(ctx context.Context) {
	s.tel.LogInfo("running")
	defer s.tel.LogInfo("stopped")

	defer s.outputConnector.Close()
	defer close(s.stopped)

	go func() {
		select {
		case <-ctx.Done():
			s.closeSource()
		case <-s.stopped:
		}
	}()

	for {
		raw, err := s.source.ReadLine()
		if len(raw) > 0 {
			s.handleLine(ctx, raw)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				s.tel.LogInfo("source is exhausted")
				return
			}

			if ctx.Err() != nil {
				return
			}

			s.tel.LogError("failed to read line", err)
			return
		}
	}
}

func (s *Stage) handleLine(ctx context.Context, raw []byte) {
	receiveTime := time.Now()

	s.receivedBytes.Add(int64(len(raw)))

	data := normalizeLine(raw)
	if data == nil {
		s.skippedLines.Add(1)
		return
	}

	s.receivedLines.Add(1)

	_, span := s.tel.NewTrace(ctx, "receive line", trace.WithAttributes(
		attribute.Int("line_length", len(data)),
	))
	defer span.End()

	line := message.NewLine(s.source.Name(), data)
	line.SetReceiveTime(receiveTime)
	line.SetTimestamp(receiveTime)
	line.SaveSpan(span)

	if err := s.outputConnector.Write(line); err != nil {
		s.tel.LogError("failed to write into output connector", err)
	}
}

func (s *Stage) closeSource() {
	s.closeOnce.Do(func() {
		if err := s.source.Close(); err != nil {
			s.tel.LogError("failed to close source", err)
		}
	})
}

func (s *Stage) Stop() {
	s.tel.LogInfo("closing")
	defer s.tel.LogInfo("closed")

	s.closeSource()
}
