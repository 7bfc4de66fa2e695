// Package egress contains the stages that deliver frames and signals
// out of the pipeline, one [Sink] per destination.
package egress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
)

// Sink is the destination of an egress [Stage].
type Sink[T any] interface {
	Name() string
	Init(ctx context.Context) error
	// Deliver sends a single item. An error does not stop the stage.
	Deliver(ctx context.Context, item T) error
	Close() error
}

type Stage[T message.Traceable] struct {
	tel *internal.Telemetry

	sink Sink[T]

	inputConnector connector.Connector[T]

	stopOnce sync.Once
	stopCh   chan struct{}

	deliveredMessages atomic.Int64
	failedMessages    atomic.Int64
}

func NewStage[T message.Traceable](sink Sink[T]) *Stage[T] {
	return &Stage[T]{
		tel: internal.NewTelemetry("egress", sink.Name()),

		sink: sink,

		stopCh: make(chan struct{}),
	}
}

func (s *Stage[T]) SetInput(inputConnector connector.Connector[T]) {
	s.inputConnector = inputConnector
}

func (s *Stage[T]) Init(ctx context.Context) error {
	s.tel.LogInfo("initializing")
	defer s.tel.LogInfo("initialized")

	if s.inputConnector == nil {
		return errors.New("egress: input connector not set")
	}

	if err := s.sink.Init(ctx); err != nil {
		return err
	}

	s.initMetrics()

	return nil
}

func (s *Stage[T]) initMetrics() {
	s.tel.NewCounter("delivered_messages", func() int64 { return s.deliveredMessages.Load() })
	s.tel.NewCounter("failed_messages", func() int64 { return s.failedMessages.Load() })
}

// Run delivers items until the input connector is closed and drained,
// then it closes the sink. The input is closed on return, so the
// stages writing into it are never left blocked.
func (s *Stage[T]) Run(ctx context.Context) {
	s.tel.LogInfo("running")
	defer s.tel.LogInfo("stopped")

	defer s.closeSink()
	defer s.inputConnector.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		item, err := s.inputConnector.Read()
		if err != nil {
			if errors.Is(err, connector.ErrClosed) {
				s.tel.LogInfo("input connector is closed, stopping")
				return
			}

			s.tel.LogError("failed to read from input connector", err)
			continue
		}

		s.deliver(ctx, item)
	}
}

func (s *Stage[T]) deliver(ctx context.Context, item T) {
	ctx, span := s.tel.NewTrace(item.LoadSpanContext(ctx), "deliver "+s.sink.Name())
	defer span.End()

	if err := s.sink.Deliver(ctx, item); err != nil {
		s.failedMessages.Add(1)
		span.RecordError(err)
		s.tel.LogError("failed to deliver", err)
		return
	}

	s.deliveredMessages.Add(1)
}

func (s *Stage[T]) closeSink() {
	if err := s.sink.Close(); err != nil {
		s.tel.LogError("failed to close sink", err)
	}
}

func (s *Stage[T]) Stop() {
	s.tel.LogInfo("closing")
	defer s.tel.LogInfo("closed")

	s.stopOnce.Do(func() {
		close(s.stopCh)

		if s.inputConnector != nil {
			s.inputConnector.Close()
		}
	})
}
