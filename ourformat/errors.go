package ourformat

import "errors"

var (
	ErrTooLong      = errors.New("ourformat: line too long")
	ErrTooShort     = errors.New("ourformat: line too short")
	ErrInvalidHex   = errors.New("ourformat: invalid hex character")
	ErrIllegalCANID = errors.New("ourformat: illegal CAN identifier")
	ErrIllegalDLC   = errors.New("ourformat: illegal DLC")
	ErrChecksum     = errors.New("ourformat: checksum mismatch")
)

// ErrorKind classifies the errors returned by [Decode] and [Encode].
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindTooLong
	ErrorKindTooShort
	ErrorKindInvalidHex
	ErrorKindIllegalCANID
	ErrorKindIllegalDLC
	ErrorKindChecksum
	ErrorKindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindTooLong:
		return "too_long"
	case ErrorKindTooShort:
		return "too_short"
	case ErrorKindInvalidHex:
		return "invalid_hex"
	case ErrorKindIllegalCANID:
		return "illegal_can_id"
	case ErrorKindIllegalDLC:
		return "illegal_dlc"
	case ErrorKindChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// Code returns the numeric result code used by the legacy converter:
// 0 on success and -1 to -6 for the failures, in checking order.
func (k ErrorKind) Code() int {
	switch k {
	case ErrorKindNone:
		return 0
	case ErrorKindTooLong:
		return -1
	case ErrorKindTooShort:
		return -2
	case ErrorKindInvalidHex:
		return -3
	case ErrorKindIllegalCANID:
		return -4
	case ErrorKindIllegalDLC:
		return -5
	case ErrorKindChecksum:
		return -6
	default:
		return -128
	}
}

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrTooLong, ErrorKindTooLong},
	{ErrTooShort, ErrorKindTooShort},
	{ErrInvalidHex, ErrorKindInvalidHex},
	{ErrIllegalCANID, ErrorKindIllegalCANID},
	{ErrIllegalDLC, ErrorKindIllegalDLC},
	{ErrChecksum, ErrorKindChecksum},
}

// KindOf returns the kind of err. A nil error is [ErrorKindNone].
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}

	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}

	return ErrorKindUnknown
}
