package egress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/squadracorsepolito/cantranslate/connector"
	"github.com/squadracorsepolito/cantranslate/message"
	"github.com/squadracorsepolito/cantranslate/socketcan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTimestamp = time.Date(2025, 3, 14, 15, 9, 26, 535897932, time.UTC)

func newTestFrame(t *testing.T, seq uint8, id uint32, extended bool, data ...byte) *message.Frame {
	t.Helper()

	var (
		socketFrame socketcan.Frame
		err         error
	)
	if extended {
		socketFrame, err = socketcan.NewExtendedFrame(id, false, data)
	} else {
		socketFrame, err = socketcan.NewStandardFrame(id, false, data)
	}
	require.NoError(t, err)

	frame := message.NewFrameFromLine(message.NewLine("test", nil))
	frame.SetTimestamp(testTimestamp)
	frame.Decoded.Seq = seq
	frame.Socket = socketFrame

	return frame
}

type fakeSink struct {
	mux       sync.Mutex
	delivered []*message.Frame
	failOn    uint8
	closed    bool
}

func (s *fakeSink) Name() string                 { return "fake" }
func (s *fakeSink) Init(_ context.Context) error { return nil }

func (s *fakeSink) Deliver(_ context.Context, frame *message.Frame) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if frame.Decoded.Seq == s.failOn {
		return errors.New("delivery failed")
	}
	s.delivered = append(s.delivered, frame)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

func Test_Stage(t *testing.T) {
	assert := assert.New(t)

	sink := &fakeSink{failOn: 2}
	stage := NewStage[*message.Frame](sink)

	in := connector.NewChannel[*message.Frame](8)
	stage.SetInput(in)
	require.NoError(t, stage.Init(context.Background()))

	for seq := range uint8(4) {
		require.NoError(t, in.Write(newTestFrame(t, seq, 0x100, false, seq)))
	}
	in.Close()

	stage.Run(context.Background())

	assert.Len(sink.delivered, 3)
	assert.True(sink.closed)
	assert.Equal(int64(3), stage.deliveredMessages.Load())
	assert.Equal(int64(1), stage.failedMessages.Load())
}

func Test_Stage_cancelReleasesWriter(t *testing.T) {
	assert := assert.New(t)

	sink := &fakeSink{failOn: 255}
	stage := NewStage[*message.Frame](sink)

	in := connector.NewChannel[*message.Frame](1)
	stage.SetInput(in)
	require.NoError(t, stage.Init(context.Background()))

	require.NoError(t, in.Write(newTestFrame(t, 0, 0x100, false)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- in.Write(newTestFrame(t, 1, 0x100, false))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stage.Run(ctx)

	select {
	case err := <-errCh:
		assert.ErrorIs(err, connector.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("writer left blocked on the stage input")
	}

	assert.True(sink.closed)
}

func Test_SLCANSink(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	sink := NewSLCANSink(&buf)
	require.NoError(t, sink.Init(context.Background()))

	ctx := context.Background()
	assert.NoError(sink.Deliver(ctx, newTestFrame(t, 0, 0x123, false, 0xAB, 0xCD)))
	assert.NoError(sink.Deliver(ctx, newTestFrame(t, 1, 0x1ABCDEF0, true, 0x01)))
	assert.NoError(sink.Close())

	assert.Equal("t1232ABCD\rT1ABCDEF0101\r", buf.String())
}

func Test_RecorderSink(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "frames.cbor")
	sink := NewRecorderSink(&RecorderConfig{Path: path})
	require.NoError(t, sink.Init(context.Background()))

	ctx := context.Background()
	require.NoError(t, sink.Deliver(ctx, newTestFrame(t, 1, 0x123, false, 0xAA, 0xBB)))
	require.NoError(t, sink.Deliver(ctx, newTestFrame(t, 2, 0x1ABCDEF0, true)))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := ReadRecords(f)
	require.NoError(t, err)

	if assert.Len(records, 2) {
		assert.Equal(uint8(1), records[0].Seq)
		assert.Equal(uint32(0x123), records[0].CANID)
		assert.False(records[0].Extended)
		assert.Equal([]byte{0xAA, 0xBB}, records[0].Data)
		assert.True(records[0].Timestamp.Equal(testTimestamp))

		assert.Equal(uint32(0x1ABCDEF0), records[1].CANID)
		assert.True(records[1].Extended)
		assert.Equal(uint8(0), records[1].DLC)
	}
}

func Test_ReadRecords_truncated(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("\xa1\x01"))
	assert.Error(t, err)
}

func Test_WebSocketSink(t *testing.T) {
	assert := assert.New(t)

	sink := NewWebSocketSink(NewDefaultWebSocketConfig())

	server := httptest.NewServer(sink)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + webSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return sink.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, sink.Deliver(context.Background(), newTestFrame(t, 5, 0x7FF, false, 0x01, 0x02)))

	var rec FrameRecord
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&rec))

	assert.Equal(uint8(5), rec.Seq)
	assert.Equal(uint32(0x7FF), rec.CANID)
	assert.Equal([]byte{0x01, 0x02}, rec.Data)

	assert.NoError(sink.Close())
	assert.Zero(sink.ClientCount())
}

type fakeKafkaWriter struct {
	messages []kafka.Message
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error { return nil }

func Test_KafkaSink(t *testing.T) {
	assert := assert.New(t)

	writer := &fakeKafkaWriter{}
	sink := NewKafkaSink(NewDefaultKafkaConfig())
	sink.writer = writer

	require.NoError(t, sink.Deliver(context.Background(), newTestFrame(t, 9, 0x1ABCDEF0, true, 0xFF)))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]

	assert.Equal("1abcdef0", string(msg.Key))

	carrier := newKafkaHeaderCarrier(msg.Headers...)
	assert.Equal(kafkaContentType, carrier.Get("content-type"))

	records, err := ReadRecords(bytes.NewReader(msg.Value))
	require.NoError(t, err)
	if assert.Len(records, 1) {
		assert.Equal(uint8(9), records[0].Seq)
		assert.Equal([]byte{0xFF}, records[0].Data)
	}
}

func Test_kafkaHeaderCarrier(t *testing.T) {
	assert := assert.New(t)

	carrier := newKafkaHeaderCarrier()
	carrier.Set("traceparent", "a")
	carrier.Set("traceparent", "b")
	carrier.Set("tracestate", "c")

	assert.Equal("b", carrier.Get("traceparent"))
	assert.Equal("", carrier.Get("missing"))
	assert.ElementsMatch([]string{"traceparent", "tracestate"}, carrier.Keys())
}

func Test_QuestDBFrameSink(t *testing.T) {
	assert := assert.New(t)

	var (
		mux  sync.Mutex
		body bytes.Buffer
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.Lock()
		_, _ = io.Copy(&body, r.Body)
		mux.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := NewDefaultQuestDBConfig()
	cfg.Address = strings.TrimPrefix(server.URL, "http://")

	sink := NewQuestDBFrameSink(cfg)
	require.NoError(t, sink.Init(context.Background()))

	require.NoError(t, sink.Deliver(context.Background(), newTestFrame(t, 3, 0x123, false, 0xAA)))
	require.NoError(t, sink.Close())

	mux.Lock()
	defer mux.Unlock()

	line := body.String()
	assert.Contains(line, "can_frames,source=test")
	assert.Contains(line, "can_id=291i")
	assert.Contains(line, `data="aa"`)
}
