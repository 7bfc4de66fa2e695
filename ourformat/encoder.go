package ourformat

import (
	"fmt"

	"github.com/squadracorsepolito/cantranslate/socketcan"
)

// Encode renders frame as an Our Format line terminated by '\n'.
func Encode(seq uint8, frame socketcan.Frame) ([]byte, error) {
	return AppendEncode(make([]byte, 0, MaxLineLen), seq, frame)
}

// AppendEncode is like [Encode] but appends the line to dst.
func AppendEncode(dst []byte, seq uint8, frame socketcan.Frame) ([]byte, error) {
	if frame.Len > maxDLC {
		return dst, fmt.Errorf("%w: %d", ErrIllegalDLC, frame.Len)
	}

	rawID, ok := rawIdentifier(frame.ID)
	if !ok {
		return dst, fmt.Errorf("%w: can_id 0x%08X cannot be represented", ErrIllegalCANID, frame.ID)
	}

	var buf [stagedSize]byte

	buf[offsetSeq] = seq
	buf[offsetID+0] = byte(rawID)
	buf[offsetID+1] = byte(rawID >> 8)
	buf[offsetID+2] = byte(rawID >> 16)
	buf[offsetID+3] = byte(rawID >> 24)
	buf[offsetDLC] = frame.Len
	copy(buf[offsetData:], frame.Data[:frame.Len])

	checksumOffset := offsetData + int(frame.Len)
	buf[checksumOffset] = Checksum(buf[:checksumOffset])

	for _, b := range buf[:checksumOffset+1] {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
	}

	return append(dst, '\n'), nil
}
