// Package ourformat converts CAN messages between the legacy ASCII-hex
// line format ("Our Format") and SocketCAN frames.
//
// A line is a sequence of hex pairs followed by a single terminator
// (usually '\n'). Once decoded the bytes are laid out as:
//
//	[0]          sequence number
//	[1:5]        identifier, least significant byte first, with RTR (bit 1) and IDE (bit 2) flags
//	[5]          DLC in the low nibble, the high nibble is ignored
//	[6:6+DLC]    payload
//	[6+DLC]      checksum of all the previous bytes
package ourformat

import (
	"bytes"
	"fmt"

	"github.com/squadracorsepolito/cantranslate/socketcan"
)

// Decode validates an Our Format line and converts it.
//
// The line ends at its first NUL byte, if any, and its last byte is treated
// as the terminator and never decoded. Checks run in this order and the
// first failure is returned: [ErrTooLong], [ErrTooShort], [ErrInvalidHex],
// [ErrIllegalCANID], [ErrIllegalDLC], [ErrTooShort] when the checksum byte
// is missing, [ErrChecksum].
//
// On failure staged may be partially written, while frame is written
// only when Decode succeeds.
func Decode(line []byte, staged *DecodedFrame, frame *socketcan.Frame) error {
	if nul := bytes.IndexByte(line, 0); nul >= 0 {
		line = line[:nul]
	}

	lineLen := len(line)
	if lineLen > MaxLineLen {
		return fmt.Errorf("%w: %d characters", ErrTooLong, lineLen)
	}
	if lineLen < MinLineLen {
		return fmt.Errorf("%w: %d characters", ErrTooShort, lineLen)
	}

	var buf [stagedSize]byte
	count, err := decodeHex(line[:lineLen-1], line[lineLen-1], buf[:])
	if err != nil {
		return err
	}

	staged.Seq = buf[offsetSeq]

	rawID := packIdentifier(buf[offsetID:offsetDLC])
	staged.RawID = rawID

	kind, remote := identifierFlags(rawID)
	if kind == Standard11 && rawID&rawExtendedOnlyMask != 0 {
		return fmt.Errorf("%w: 0x%08X has 29 bit only bits with the IDE flag off", ErrIllegalCANID, rawID)
	}
	staged.Kind = kind
	staged.Remote = remote

	dlc := buf[offsetDLC] & 0x0F
	staged.DLC = dlc
	if dlc > maxDLC {
		return fmt.Errorf("%w: %d", ErrIllegalDLC, dlc)
	}

	checksumOffset := offsetData + int(dlc)
	if count <= checksumOffset {
		return fmt.Errorf("%w: %d bytes cannot hold a DLC of %d and the checksum", ErrTooShort, count, dlc)
	}

	want := Checksum(buf[:checksumOffset])
	if got := buf[checksumOffset]; got != want {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksum, got, want)
	}

	copy(staged.Data[:], buf[offsetData:offsetData+maxDLC])

	frame.ID = socketID(kind, remote, rawID)
	frame.Len = dlc
	frame.Data = staged.Data

	return nil
}

// decodeHex converts the hex pairs of src into dst.
// When src has an odd length the last pair is completed with the terminator.
func decodeHex(src []byte, terminator byte, dst []byte) (int, error) {
	n := 0

	for i := 0; i < len(src); i += 2 {
		hiChar := src[i]
		loChar := terminator
		if i+1 < len(src) {
			loChar = src[i+1]
		}

		hi := Nibble(hiChar)
		if hi == NibbleInvalid {
			return n, fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, hiChar, i)
		}

		lo := Nibble(loChar)
		if lo == NibbleInvalid {
			return n, fmt.Errorf("%w: %q at offset %d", ErrInvalidHex, loChar, i+1)
		}

		dst[n] = hi<<4 | lo
		n++
	}

	return n, nil
}
