package ingress

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

// Source produces raw Our Format lines.
type Source interface {
	// Name identifies the source in logs and messages.
	Name() string
	Open(ctx context.Context) error
	// ReadLine returns the next line. It returns [io.EOF]
	// when there are no more lines, also after Close.
	ReadLine() ([]byte, error)
	Close() error
}

// normalizeLine strips any CR/LF at the end of raw and appends
// a single '\n'. It returns nil for blank lines.
func normalizeLine(raw []byte) []byte {
	trimmed := bytes.TrimRight(raw, "\r\n")
	if len(trimmed) == 0 {
		return nil
	}

	line := make([]byte, len(trimmed)+1)
	copy(line, trimmed)
	line[len(trimmed)] = '\n'

	return line
}

// readLine reads up to the next '\n'. A last line without terminator
// is returned together with io.EOF.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, io.EOF
		}
		return nil, err
	}
	return line, nil
}
