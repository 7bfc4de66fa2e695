package cantranslate

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/egress"
	"github.com/squadracorsepolito/cantranslate/ingress"
	"github.com/squadracorsepolito/cantranslate/message"
	"github.com/squadracorsepolito/cantranslate/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyStage struct {
	initErr error

	initialized atomic.Bool
	ran         atomic.Bool
	stopped     atomic.Int32

	stopCh chan struct{}
}

func newDummyStage(initErr error) *dummyStage {
	return &dummyStage{
		initErr: initErr,
		stopCh:  make(chan struct{}),
	}
}

func (s *dummyStage) Init(_ context.Context) error {
	s.initialized.Store(true)
	return s.initErr
}

func (s *dummyStage) Run(ctx context.Context) {
	s.ran.Store(true)

	select {
	case <-ctx.Done():
	case <-s.stopCh:
	}
}

func (s *dummyStage) Stop() {
	if s.stopped.Add(1) == 1 {
		close(s.stopCh)
	}
}

func Test_Pipeline(t *testing.T) {
	assert := assert.New(t)

	first := newDummyStage(nil)
	second := newDummyStage(nil)

	p := NewPipeline()
	p.AddStage(first)
	p.AddStage(second)

	assert.NoError(p.Init(context.Background()))
	assert.True(first.initialized.Load())
	assert.True(second.initialized.Load())

	p.Run(context.Background())

	late := newDummyStage(nil)
	p.AddStage(late)

	assert.Eventually(func() bool { return first.ran.Load() && second.ran.Load() }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()

	assert.Equal(int32(1), first.stopped.Load())
	assert.Equal(int32(1), second.stopped.Load())
	assert.False(late.initialized.Load())
	assert.False(late.ran.Load())
}

func Test_Pipeline_InitError(t *testing.T) {
	initErr := errors.New("boom")

	p := NewPipeline()
	p.AddStage(newDummyStage(initErr))

	second := newDummyStage(nil)
	p.AddStage(second)

	assert.ErrorIs(t, p.Init(context.Background()), initErr)
	assert.False(t, second.initialized.Load())
}

func Test_Pipeline_Done(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := NewPipeline()
	p.AddStage(newDummyStage(nil))
	p.Run(ctx)

	done := p.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline did not finish after the context was cancelled")
	}
}

// stuckSink holds every delivery until the context is cancelled.
type stuckSink struct{}

func (stuckSink) Name() string { return "stuck" }

func (stuckSink) Init(_ context.Context) error { return nil }

func (stuckSink) Deliver(ctx context.Context, _ *message.Frame) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stuckSink) Close() error { return nil }

func Test_Pipeline_StopWithFullConnectors(t *testing.T) {
	lines := strings.Repeat("010000602402AABBE0\n", 100)

	ingressToTranslator := connector.NewChannel[*message.Line](1)
	translatorToEgress := connector.NewChannel[*message.Frame](1)

	ingressStage := ingress.NewStage(ingress.NewReaderSource("test", strings.NewReader(lines)))
	ingressStage.SetOutput(ingressToTranslator)

	translatorStage := translator.NewStage("test", translator.NewDefaultConfig())
	translatorStage.SetInput(ingressToTranslator)
	translatorStage.SetOutput(translatorToEgress)

	egressStage := egress.NewStage[*message.Frame](stuckSink{})
	egressStage.SetInput(translatorToEgress)

	p := NewPipeline()
	p.AddStage(ingressStage)
	p.AddStage(translatorStage)
	p.AddStage(egressStage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, p.Init(ctx))
	p.Run(ctx)

	// the sink holds one frame and the connectors around the translator fill up
	require.Eventually(t, func() bool {
		return translatorToEgress.Len() == 1 && ingressToTranslator.Len() == 1
	}, time.Second, time.Millisecond)

	cancel()

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop with full connectors")
	}
}
