package ingress

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// ReaderSource reads lines from an [io.Reader].
type ReaderSource struct {
	name string

	open func() (io.Reader, error)

	r      *bufio.Reader
	closer io.Closer
}

// NewReaderSource returns a source reading from r.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{
		name: name,
		open: func() (io.Reader, error) { return r, nil },
	}
}

// NewFileSource returns a source reading the file at path,
// or the standard input when path is "-".
func NewFileSource(path string) *ReaderSource {
	if path == "-" {
		return NewReaderSource("stdin", os.Stdin)
	}

	s := &ReaderSource{name: "file:" + path}
	s.open = func() (io.Reader, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		s.closer = f
		return f, nil
	}

	return s
}

func (s *ReaderSource) Name() string {
	return s.name
}

func (s *ReaderSource) Open(_ context.Context) error {
	r, err := s.open()
	if err != nil {
		return err
	}

	s.r = bufio.NewReader(r)

	return nil
}

func (s *ReaderSource) ReadLine() ([]byte, error) {
	return readLine(s.r)
}

func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
