package message

// Line is a single Our Format line as received by an ingress,
// terminator included.
type Line struct {
	Base

	Source string
	Data   []byte
}

func NewLine(source string, data []byte) *Line {
	return &Line{
		Source: source,
		Data:   data,
	}
}
