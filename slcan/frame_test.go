package slcan

import (
	"testing"

	"github.com/squadracorsepolito/cantranslate/socketcan"
	"github.com/stretchr/testify/assert"
)

func Test_EncodeFrame(t *testing.T) {
	cases := []struct {
		name  string
		frame socketcan.Frame
		want  string
	}{
		{
			name:  "standard data",
			frame: socketcan.Frame{ID: 0x123, Len: 2, Data: [8]byte{0xAB, 0xCD}},
			want:  "t1232ABCD\r",
		},
		{
			name:  "standard remote",
			frame: socketcan.Frame{ID: 0x7FF | socketcan.RTRFlag, Len: 4},
			want:  "r7FF4\r",
		},
		{
			name:  "extended data",
			frame: socketcan.Frame{ID: 0x1ABCDEF0 | socketcan.EFFFlag, Len: 1, Data: [8]byte{0x01}},
			want:  "T1ABCDEF0101\r",
		},
		{
			name:  "extended remote",
			frame: socketcan.Frame{ID: 0x00000005 | socketcan.EFFFlag | socketcan.RTRFlag},
			want:  "R000000050\r",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EncodeFrame(tc.frame))
		})
	}
}
