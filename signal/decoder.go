package signal

import (
	"github.com/squadracorsepolito/acmelib"
)

type decoder struct {
	m map[uint32]func([]byte) []*acmelib.SignalDecoding
}

func newDecoder(messages []*acmelib.Message) *decoder {
	m := make(map[uint32]func([]byte) []*acmelib.SignalDecoding)

	for _, msg := range messages {
		m[uint32(msg.GetCANID())] = msg.SignalLayout().Decode
	}

	return &decoder{
		m: m,
	}
}

// decode returns nil when no message has the given identifier.
func (d *decoder) decode(canID uint32, data []byte) []*acmelib.SignalDecoding {
	fn, ok := d.m[canID]
	if !ok {
		return nil
	}
	return fn(data)
}

func (d *decoder) len() int {
	return len(d.m)
}
