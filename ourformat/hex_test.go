package ourformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Nibble(t *testing.T) {
	assert := assert.New(t)

	for c := 0; c < 256; c++ {
		idx := strings.IndexByte("0123456789abcdef", byte(c))
		if idx < 0 {
			idx = strings.IndexByte("0123456789ABCDEF", byte(c))
		}

		if idx < 0 {
			assert.Equal(NibbleInvalid, Nibble(byte(c)), "byte 0x%02X", c)
			continue
		}

		assert.Equal(uint8(idx), Nibble(byte(c)), "byte 0x%02X", c)
	}

	assert.Equal(NibbleInvalid, Nibble('`'))
	assert.Equal(NibbleInvalid, Nibble('G'))
	assert.Equal(NibbleInvalid, Nibble('\n'))
}
