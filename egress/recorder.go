package egress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/squadracorsepolito/cantranslate/message"
)

type RecorderConfig struct {
	Path string
}

// RecorderSink appends the frames to a file as a stream of CBOR
// encoded [FrameRecord] values.
type RecorderSink struct {
	cfg *RecorderConfig

	mux  sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *cbor.Encoder
}

func NewRecorderSink(cfg *RecorderConfig) *RecorderSink {
	return &RecorderSink{
		cfg: cfg,
	}
}

func (s *RecorderSink) Name() string {
	return "recorder"
}

func (s *RecorderSink) Init(_ context.Context) error {
	file, err := os.OpenFile(s.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}

	s.file = file
	s.buf = bufio.NewWriter(file)
	s.enc = recordEncMode.NewEncoder(s.buf)

	return nil
}

func (s *RecorderSink) Deliver(_ context.Context, frame *message.Frame) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.enc.Encode(NewFrameRecord(frame))
}

func (s *RecorderSink) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.file == nil {
		return nil
	}

	flushErr := s.buf.Flush()
	closeErr := s.file.Close()
	s.file = nil

	return errors.Join(flushErr, closeErr)
}

// ReadRecords decodes all the records written by a [RecorderSink].
func ReadRecords(r io.Reader) ([]FrameRecord, error) {
	dec := cbor.NewDecoder(r)

	records := []FrameRecord{}
	for {
		var rec FrameRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, err
		}
		records = append(records, rec)
	}
}
