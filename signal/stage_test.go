package signal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/squadracorsepolito/acmelib"
	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/message"
	"github.com/squadracorsepolito/cantranslate/socketcan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getMessages(t *testing.T, count int) []*acmelib.Message {
	t.Helper()

	messages := []*acmelib.Message{}

	sigType, err := acmelib.NewIntegerSignalType("sig_type", 8, false)
	require.NoError(t, err)

	for i := range count {
		msg := acmelib.NewMessage(fmt.Sprintf("message_%d", i), acmelib.MessageID(i), 8)

		for j := range 8 {
			sig, err := acmelib.NewStandardSignal(fmt.Sprintf("message_%d_signal_%d", i, j), sigType)
			require.NoError(t, err)
			require.NoError(t, msg.InsertSignal(sig, j*8))
		}

		messages = append(messages, msg)
	}

	return messages
}

func newFrame(t *testing.T, id uint32, data []byte) *message.Frame {
	t.Helper()

	newSocketFrame := socketcan.NewStandardFrame
	if id > socketcan.SFFMask {
		newSocketFrame = socketcan.NewExtendedFrame
	}

	socketFrame, err := newSocketFrame(id, false, data)
	require.NoError(t, err)

	frame := message.NewFrameFromLine(message.NewLine("test", nil))
	frame.Socket = socketFrame
	frame.Decoded.Seq = 7

	return frame
}

func Test_Stage(t *testing.T) {
	assert := assert.New(t)

	messages := getMessages(t, 4)
	canID := uint32(messages[2].GetCANID())

	in := connector.NewChannel[*message.Frame](8)
	out := connector.NewChannel[*message.SignalBatch](8)

	stage := NewStage(&Config{Messages: messages})
	stage.SetInput(in)
	stage.SetOutput(out)
	require.NoError(t, stage.Init(context.Background()))

	require.NoError(t, in.Write(newFrame(t, canID, []byte{0, 1, 2, 3, 4, 5, 6, 7})))
	// no message with this identifier
	require.NoError(t, in.Write(newFrame(t, 0x7FF, []byte{1})))
	in.Close()

	stage.Run(context.Background())

	batch, err := out.Read()
	require.NoError(t, err)

	assert.Equal(canID, batch.CANID)
	assert.Equal(uint8(7), batch.Seq)

	if assert.Len(batch.Signals, 8) {
		values := make(map[string]int64)
		for _, sig := range batch.Signals {
			assert.Equal(canID, sig.CANID)
			assert.Equal(message.SignalTableInt, sig.Table)
			values[sig.Name] = sig.RawValue
		}

		for j := range 8 {
			assert.Equal(int64(j), values[fmt.Sprintf("message_2_signal_%d", j)])
		}
	}

	_, err = out.Read()
	assert.ErrorIs(err, connector.ErrClosed)

	assert.Equal(int64(1), stage.unknownFrames.Load())
	assert.Equal(int64(8), stage.decodedSignals.Load())
}

func Test_LoadDBC_missingFile(t *testing.T) {
	_, err := LoadDBC("bus", filepath.Join(t.TempDir(), "missing.dbc"))
	assert.Error(t, err)
}
