// Package slcan renders CAN frames in the serial CAN (SLCAN) ASCII protocol.
package slcan

import (
	"strings"

	"github.com/squadracorsepolito/cantranslate/socketcan"
)

const hexDigits = "0123456789ABCDEF"

// EncodeFrame converts a frame into the SLCAN command that transmits it,
// terminated by '\r'.
func EncodeFrame(frame socketcan.Frame) string {
	var builder strings.Builder
	builder.Grow(1 + 8 + 1 + 2*socketcan.MaxDataLen + 1)

	switch {
	case frame.IsRemote() && frame.IsExtended():
		builder.WriteByte('R')
	case frame.IsRemote():
		builder.WriteByte('r')
	case frame.IsExtended():
		builder.WriteByte('T')
	default:
		builder.WriteByte('t')
	}

	id := frame.Identifier()
	digits := 3
	if frame.IsExtended() {
		digits = 8
	}
	for shift := 4 * (digits - 1); shift >= 0; shift -= 4 {
		builder.WriteByte(hexDigits[(id>>shift)&0x0F])
	}

	builder.WriteByte('0' + frame.Len&0x0F)

	if !frame.IsRemote() {
		for _, b := range frame.Payload() {
			builder.WriteByte(hexDigits[b>>4])
			builder.WriteByte(hexDigits[b&0x0F])
		}
	}

	builder.WriteByte('\r')
	return builder.String()
}
