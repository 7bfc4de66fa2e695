package ourformat

// NibbleInvalid is returned by [Nibble] for bytes that are not ASCII hex digits.
const NibbleInvalid uint8 = 0xFF

const hexDigits = "0123456789ABCDEF"

var nibbleTable = newNibbleTable()

func newNibbleTable() [256]uint8 {
	var t [256]uint8

	for i := range t {
		t[i] = NibbleInvalid
	}
	for c := '0'; c <= '9'; c++ {
		t[c] = uint8(c - '0')
	}
	for c := 'A'; c <= 'F'; c++ {
		t[c] = uint8(c-'A') + 10
		t[c+'a'-'A'] = uint8(c-'A') + 10
	}

	return t
}

// Nibble returns the 4 bit value of the hex digit c,
// or [NibbleInvalid] if c is not one of 0-9, A-F, a-f.
func Nibble(c byte) uint8 {
	return nibbleTable[c]
}
