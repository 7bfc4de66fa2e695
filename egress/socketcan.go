package egress

import (
	"context"

	"github.com/squadracorsepolito/cantranslate/message"
	"github.com/squadracorsepolito/cantranslate/socketcan"
)

type SocketCANConfig struct {
	Interface string
}

func NewDefaultSocketCANConfig() *SocketCANConfig {
	return &SocketCANConfig{
		Interface: "vcan0",
	}
}

// SocketCANSink writes the frames on a CAN interface.
type SocketCANSink struct {
	cfg *SocketCANConfig

	conn *socketcan.Conn
}

func NewSocketCANSink(cfg *SocketCANConfig) *SocketCANSink {
	return &SocketCANSink{
		cfg: cfg,
	}
}

func (s *SocketCANSink) Name() string {
	return "socketcan"
}

func (s *SocketCANSink) Init(_ context.Context) error {
	conn, err := socketcan.Dial(s.cfg.Interface)
	if err != nil {
		return err
	}

	s.conn = conn

	return nil
}

func (s *SocketCANSink) Deliver(_ context.Context, frame *message.Frame) error {
	return s.conn.WriteFrame(frame.Socket)
}

func (s *SocketCANSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
