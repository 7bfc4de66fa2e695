package message

// SignalTable groups the signals by the type of their value.
type SignalTable int

const (
	SignalTableFlag SignalTable = iota
	SignalTableInt
	SignalTableFloat
	SignalTableEnum
)

func (t SignalTable) String() string {
	switch t {
	case SignalTableFlag:
		return "flag_signals"
	case SignalTableInt:
		return "int_signals"
	case SignalTableFloat:
		return "float_signals"
	case SignalTableEnum:
		return "enum_signals"
	default:
		return "unknown"
	}
}

type Signal struct {
	CANID      uint32
	Name       string
	RawValue   int64
	Table      SignalTable
	ValueFlag  bool
	ValueInt   int64
	ValueFloat float64
	ValueEnum  string
}

// SignalBatch holds the signals decoded from a single frame.
type SignalBatch struct {
	Base

	Seq     uint8
	CANID   uint32
	Signals []Signal
}

// NewSignalBatchFromFrame returns an empty batch that inherits
// times and trace of the frame the signals are decoded from.
func NewSignalBatchFromFrame(frame *Frame) *SignalBatch {
	b := &SignalBatch{
		Seq:   frame.Decoded.Seq,
		CANID: frame.Socket.Identifier(),
	}
	b.inherit(&frame.Base)
	return b
}
