package ourformat

// ChecksumInitial is the seed of the running sum.
const ChecksumInitial uint32 = 0xA5A5

// Checksum returns the checksum byte of the given staged bytes.
func Checksum(staged []byte) uint8 {
	sum := ChecksumInitial
	for _, b := range staged {
		sum += uint32(b)
	}
	return foldChecksum(sum)
}

// foldChecksum reduces the 32 bit sum to 8 bits, adding every carry back
// into the low order bits.
func foldChecksum(x uint32) uint8 {
	x += x >> 16
	x += x >> 16
	x += x >> 8
	x += x >> 8
	return uint8(x)
}
