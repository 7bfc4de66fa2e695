package egress

import (
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/squadracorsepolito/cantranslate/message"
)

// recordEncMode keeps the nanoseconds of the timestamps.
var recordEncMode = mustRecordEncMode()

func mustRecordEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// FrameRecord is the serialisable view of a translated frame.
type FrameRecord struct {
	Timestamp time.Time `json:"timestamp" cbor:"1,keyasint"`
	Source    string    `json:"source" cbor:"2,keyasint"`
	Seq       uint8     `json:"seq" cbor:"3,keyasint"`
	CANID     uint32    `json:"can_id" cbor:"4,keyasint"`
	Extended  bool      `json:"extended" cbor:"5,keyasint"`
	Remote    bool      `json:"remote" cbor:"6,keyasint"`
	DLC       uint8     `json:"dlc" cbor:"7,keyasint"`
	Data      []byte    `json:"data" cbor:"8,keyasint"`
}

func NewFrameRecord(frame *message.Frame) FrameRecord {
	payload := frame.Socket.Payload()
	data := make([]byte, len(payload))
	copy(data, payload)

	return FrameRecord{
		Timestamp: frame.GetTimestamp(),
		Source:    frame.Source,
		Seq:       frame.Decoded.Seq,
		CANID:     frame.Socket.Identifier(),
		Extended:  frame.Socket.IsExtended(),
		Remote:    frame.Socket.IsRemote(),
		DLC:       frame.Socket.Len,
		Data:      data,
	}
}
