// Package socketcan models the Linux SocketCAN classic frame (struct can_frame)
// and gives access to raw CAN sockets.
package socketcan

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// FrameSize is the size of a marshalled struct can_frame.
	FrameSize = 16

	// MaxDataLen is the maximum payload of a classic CAN frame.
	MaxDataLen = 8
)

// Flags and masks of the can_id field, as defined in linux/can.h.
const (
	EFFFlag uint32 = 0x80000000
	RTRFlag uint32 = 0x40000000
	ErrFlag uint32 = 0x20000000

	SFFMask uint32 = 0x000007FF
	EFFMask uint32 = 0x1FFFFFFF
)

var (
	ErrInvalidFrameSize = errors.New("socketcan: invalid frame size")
	ErrInvalidDLC       = errors.New("socketcan: invalid DLC")
)

// Frame is a classic CAN frame in the layout the kernel expects.
// ID carries the identifier together with the EFF/RTR/ERR flags.
type Frame struct {
	ID   uint32
	Len  uint8
	Data [MaxDataLen]byte
}

// NewStandardFrame returns a frame with an 11 bit identifier.
func NewStandardFrame(id uint32, remote bool, data []byte) (Frame, error) {
	if id > SFFMask {
		return Frame{}, fmt.Errorf("socketcan: standard identifier 0x%X out of range", id)
	}

	return newFrame(id, remote, data)
}

// NewExtendedFrame returns a frame with a 29 bit identifier.
func NewExtendedFrame(id uint32, remote bool, data []byte) (Frame, error) {
	if id > EFFMask {
		return Frame{}, fmt.Errorf("socketcan: extended identifier 0x%X out of range", id)
	}

	return newFrame(id|EFFFlag, remote, data)
}

func newFrame(id uint32, remote bool, data []byte) (Frame, error) {
	if len(data) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidDLC, len(data))
	}

	if remote {
		id |= RTRFlag
	}

	f := Frame{
		ID:  id,
		Len: uint8(len(data)),
	}
	copy(f.Data[:], data)

	return f, nil
}

func (f Frame) IsExtended() bool {
	return f.ID&EFFFlag != 0
}

func (f Frame) IsRemote() bool {
	return f.ID&RTRFlag != 0
}

func (f Frame) IsError() bool {
	return f.ID&ErrFlag != 0
}

// Identifier returns the identifier without the flag bits.
func (f Frame) Identifier() uint32 {
	if f.IsExtended() {
		return f.ID & EFFMask
	}
	return f.ID & SFFMask
}

// Payload returns the first Len bytes of the data.
func (f Frame) Payload() []byte {
	n := int(f.Len)
	if n > MaxDataLen {
		n = MaxDataLen
	}
	return f.Data[:n]
}

func (f Frame) String() string {
	kind := "std"
	if f.IsExtended() {
		kind = "ext"
	}
	if f.IsRemote() {
		return fmt.Sprintf("%s 0x%X [%d] remote", kind, f.Identifier(), f.Len)
	}
	return fmt.Sprintf("%s 0x%X [%d] % X", kind, f.Identifier(), f.Len, f.Payload())
}

// MarshalBinary encodes the frame as a little endian struct can_frame.
func (f Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FrameSize)
	if err := f.marshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (f Frame) marshalTo(buf []byte) error {
	if f.Len > MaxDataLen {
		return fmt.Errorf("%w: %d", ErrInvalidDLC, f.Len)
	}

	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	buf[4] = f.Len
	// padding and reserved bytes
	buf[5], buf[6], buf[7] = 0, 0, 0
	copy(buf[8:], f.Data[:])

	return nil
}

// UnmarshalBinary decodes a little endian struct can_frame.
func (f *Frame) UnmarshalBinary(buf []byte) error {
	if len(buf) != FrameSize {
		return fmt.Errorf("%w: %d", ErrInvalidFrameSize, len(buf))
	}

	dlc := buf[4]
	if dlc > MaxDataLen {
		return fmt.Errorf("%w: %d", ErrInvalidDLC, dlc)
	}

	f.ID = binary.LittleEndian.Uint32(buf[0:4])
	f.Len = dlc
	copy(f.Data[:], buf[8:])

	return nil
}
