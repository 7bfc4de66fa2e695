package ourformat

import (
	"encoding/binary"

	"github.com/squadracorsepolito/cantranslate/socketcan"
)

// Line length bounds, terminator included.
// The shortest line carries no payload (7 staged bytes),
// the longest carries 8 payload bytes (15 staged bytes).
const (
	MinLineLen = 15
	MaxLineLen = 31
)

// Offsets into the staged (hex decoded) buffer.
const (
	stagedSize = 16

	offsetSeq  = 0
	offsetID   = 1
	offsetDLC  = 5
	offsetData = 6

	maxDLC = 8
)

// Bits of the packed identifier. The layout is the one of the
// bxCAN mailbox identifier register: 11 bit id in bits 21-31,
// 29 bit id in bits 3-31, IDE in bit 2 and RTR in bit 1.
const (
	rawRemoteBit   uint32 = 0x2
	rawExtendedBit uint32 = 0x4

	// rawExtendedOnlyMask holds the bits a standard identifier must leave clear.
	rawExtendedOnlyMask uint32 = 0x0001FFFC

	rawStandardShift = 21
	rawExtendedShift = 3
)

// IdentifierKind tells apart 11 bit and 29 bit identifiers.
type IdentifierKind uint8

const (
	Standard11 IdentifierKind = iota
	Extended29
)

func (k IdentifierKind) String() string {
	switch k {
	case Standard11:
		return "standard"
	case Extended29:
		return "extended"
	default:
		return "unknown"
	}
}

// DecodedFrame holds the fields extracted from an Our Format line.
type DecodedFrame struct {
	Seq uint8
	// RawID is the identifier as packed in the line, flags included.
	RawID  uint32
	Kind   IdentifierKind
	Remote bool
	DLC    uint8
	// Data is always copied whole, bytes after DLC are meaningless.
	Data [maxDLC]byte
}

// ID returns the identifier without flags: 11 or 29 bits depending on Kind.
func (d *DecodedFrame) ID() uint32 {
	if d.Kind == Extended29 {
		return d.RawID >> rawExtendedShift
	}
	return d.RawID >> rawStandardShift
}

// Payload returns the first DLC bytes of the data.
func (d *DecodedFrame) Payload() []byte {
	return d.Data[:min(d.DLC, maxDLC)]
}

// Uint64 returns the 8 data bytes as a little endian word.
func (d *DecodedFrame) Uint64() uint64 {
	return binary.LittleEndian.Uint64(d.Data[:])
}

// packIdentifier combines the 4 identifier bytes, least significant first.
// Every byte lands in its own lane, so OR never mixes them.
func packIdentifier(b []byte) uint32 {
	return uint32(b[0])<<0 |
		uint32(b[1])<<8 |
		uint32(b[2])<<16 |
		uint32(b[3])<<24
}

func identifierFlags(rawID uint32) (IdentifierKind, bool) {
	kind := Standard11
	if rawID&rawExtendedBit != 0 {
		kind = Extended29
	}
	return kind, rawID&rawRemoteBit != 0
}

// socketID converts a packed identifier into a SocketCAN can_id.
func socketID(kind IdentifierKind, remote bool, rawID uint32) uint32 {
	var id uint32

	switch kind {
	case Extended29:
		id = rawID>>rawExtendedShift | socketcan.EFFFlag
	default:
		id = rawID >> rawStandardShift
	}

	if remote {
		id |= socketcan.RTRFlag
	}

	return id
}

// rawIdentifier is the inverse of socketID.
func rawIdentifier(canID uint32) (uint32, bool) {
	if canID&socketcan.ErrFlag != 0 {
		return 0, false
	}

	var raw uint32

	if canID&socketcan.EFFFlag != 0 {
		raw = (canID&socketcan.EFFMask)<<rawExtendedShift | rawExtendedBit
	} else {
		id := canID &^ socketcan.RTRFlag
		if id > socketcan.SFFMask {
			return 0, false
		}
		raw = id << rawStandardShift
	}

	if canID&socketcan.RTRFlag != 0 {
		raw |= rawRemoteBit
	}

	return raw, true
}
