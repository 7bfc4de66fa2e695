package ourformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Checksum(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint8(0xF0), Checksum(nil))
	assert.Equal(uint8(0xE0), Checksum([]byte{0x01, 0x00, 0x00, 0x60, 0x24, 0x02, 0xAA, 0xBB}))

	allOnes := make([]byte, 15)
	for i := range allOnes {
		allOnes[i] = 0xFF
	}
	assert.Equal(uint8(0xFF), Checksum(allOnes))
}

func Test_foldChecksum(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint8(0x04), foldChecksum(0x0001FFFF))
	assert.Equal(uint8(0x00), foldChecksum(0))
	assert.Equal(uint8(0x03), foldChecksum(0x00000101))
}
