//go:build !linux

package socketcan

import "errors"

var ErrUnsupportedPlatform = errors.New("socketcan: raw CAN sockets are only available on linux")

type Conn struct{}

func Dial(_ string) (*Conn, error) {
	return nil, ErrUnsupportedPlatform
}

func (c *Conn) Interface() string {
	return ""
}

func (c *Conn) WriteFrame(_ Frame) error {
	return ErrUnsupportedPlatform
}

func (c *Conn) ReadFrame() (Frame, error) {
	return Frame{}, ErrUnsupportedPlatform
}

func (c *Conn) Close() error {
	return nil
}
