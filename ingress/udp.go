package ingress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
)

const (
	defaultUDPPayloadSize = 1474
)

type UDPConfig struct {
	Address string
}

func NewDefaultUDPConfig() *UDPConfig {
	return &UDPConfig{
		Address: "0.0.0.0:20000",
	}
}

// UDPSource receives lines over UDP. A datagram can carry
// more than one line.
type UDPSource struct {
	cfg *UDPConfig

	conn    *net.UDPConn
	buf     []byte
	pending [][]byte
}

func NewUDPSource(cfg *UDPConfig) *UDPSource {
	return &UDPSource{
		cfg: cfg,
		buf: make([]byte, defaultUDPPayloadSize),
	}
}

func (s *UDPSource) Name() string {
	return "udp:" + s.cfg.Address
}

func (s *UDPSource) Open(_ context.Context) error {
	addrPort, err := netip.ParseAddrPort(s.cfg.Address)
	if err != nil {
		return fmt.Errorf("parse udp address %s: %w", s.cfg.Address, err)
	}

	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(addrPort))
	if err != nil {
		return err
	}

	s.conn = conn

	return nil
}

// LocalAddr returns the address the source is listening on.
func (s *UDPSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *UDPSource) ReadLine() ([]byte, error) {
	for len(s.pending) == 0 {
		n, err := s.conn.Read(s.buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, io.EOF
			}
			return nil, err
		}

		for _, line := range bytes.SplitAfter(s.buf[:n], []byte{'\n'}) {
			if len(line) == 0 {
				continue
			}

			tmp := make([]byte, len(line))
			copy(tmp, line)
			s.pending = append(s.pending, tmp)
		}
	}

	line := s.pending[0]
	s.pending = s.pending[1:]

	return line, nil
}

func (s *UDPSource) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
