package message

import (
	"github.com/squadracorsepolito/cantranslate/ourformat"
	"github.com/squadracorsepolito/cantranslate/socketcan"
)

// Frame is a successfully decoded line.
type Frame struct {
	Base

	Source  string
	Decoded ourformat.DecodedFrame
	Socket  socketcan.Frame
}

// NewFrameFromLine returns an empty frame that inherits
// times and trace of the line it is decoded from.
func NewFrameFromLine(line *Line) *Frame {
	f := &Frame{
		Source: line.Source,
	}
	f.inherit(&line.Base)
	return f
}
