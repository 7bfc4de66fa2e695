package ingress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.bug.st/serial"
)

type SerialConfig struct {
	Device   string
	BaudRate int
}

func NewDefaultSerialConfig() *SerialConfig {
	return &SerialConfig{
		Device:   "/dev/ttyUSB0",
		BaudRate: 115200,
	}
}

// SerialSource reads lines from a serial port, like the ones exposed
// by USB gateways forwarding the legacy bus traffic.
type SerialSource struct {
	cfg *SerialConfig

	port   serial.Port
	r      *bufio.Reader
	closed atomic.Bool
}

func NewSerialSource(cfg *SerialConfig) *SerialSource {
	return &SerialSource{
		cfg: cfg,
	}
}

func (s *SerialSource) Name() string {
	return "serial:" + s.cfg.Device
}

func (s *SerialSource) Open(_ context.Context) error {
	port, err := serial.Open(s.cfg.Device, &serial.Mode{BaudRate: s.cfg.BaudRate})
	if err != nil {
		return fmt.Errorf("open serial %s: %w", s.cfg.Device, err)
	}

	s.port = port
	s.r = bufio.NewReader(port)

	return nil
}

func (s *SerialSource) ReadLine() ([]byte, error) {
	if s.port == nil {
		return nil, errors.New("serial port not open")
	}

	line, err := readLine(s.r)
	if err != nil && s.closed.Load() {
		return line, io.EOF
	}
	return line, err
}

func (s *SerialSource) Close() error {
	if s.port == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.port.Close()
}
