//go:build linux

package socketcan

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// Conn is a raw CAN socket bound to a single interface.
type Conn struct {
	fd      int
	ifName  string
	closeMu sync.Mutex
	closed  bool
}

// Dial opens a CAN_RAW socket bound to the interface with the given name.
func Dial(ifName string) (*Conn, error) {
	iface, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("socketcan: lookup interface %s: %w", ifName, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("socketcan: open socket: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("socketcan: bind %s: %w", ifName, err)
	}

	return &Conn{
		fd:     fd,
		ifName: ifName,
	}, nil
}

// Interface returns the name of the bound interface.
func (c *Conn) Interface() string {
	return c.ifName
}

// WriteFrame sends a single frame on the bus.
func (c *Conn) WriteFrame(f Frame) error {
	var buf [FrameSize]byte
	if err := f.marshalTo(buf[:]); err != nil {
		return err
	}

	n, err := unix.Write(c.fd, buf[:])
	if err != nil {
		return fmt.Errorf("socketcan: write: %w", err)
	}
	if n != FrameSize {
		return fmt.Errorf("socketcan: short write of %d bytes", n)
	}

	return nil
}

// ReadFrame blocks until a frame is received.
func (c *Conn) ReadFrame() (Frame, error) {
	var buf [FrameSize]byte

	n, err := unix.Read(c.fd, buf[:])
	if err != nil {
		return Frame{}, fmt.Errorf("socketcan: read: %w", err)
	}

	var f Frame
	if err := f.UnmarshalBinary(buf[:n]); err != nil {
		return Frame{}, err
	}

	return f, nil
}

func (c *Conn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	return unix.Close(c.fd)
}
