package egress

import (
	"context"
	"io"
	"sync"

	"github.com/squadracorsepolito/cantranslate/message"
	"github.com/squadracorsepolito/cantranslate/slcan"
)

// SLCANSink writes the frames as SLCAN commands.
type SLCANSink struct {
	mux sync.Mutex
	w   io.Writer
}

func NewSLCANSink(w io.Writer) *SLCANSink {
	return &SLCANSink{
		w: w,
	}
}

func (s *SLCANSink) Name() string {
	return "slcan"
}

func (s *SLCANSink) Init(_ context.Context) error {
	return nil
}

func (s *SLCANSink) Deliver(_ context.Context, frame *message.Frame) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	_, err := io.WriteString(s.w, slcan.EncodeFrame(frame.Socket))
	return err
}

// Close closes the writer when it is an [io.Closer].
func (s *SLCANSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
