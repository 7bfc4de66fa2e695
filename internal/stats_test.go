package internal

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mux sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.buf.String()
}

func Test_Stats(t *testing.T) {
	assert := assert.New(t)

	out := &syncBuffer{}
	stats := NewStats(NewLoggerWithWriter(out, "translator", "test"), 10*time.Millisecond)

	stats.IncrementItemCount()
	stats.IncrementItemCount()
	stats.IncrementFailedCount()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stats.Run(ctx)
		close(done)
	}()

	assert.Eventually(func() bool {
		return bytes.Contains([]byte(out.String()), []byte("items_per_sec"))
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	items, failed := stats.swap()
	assert.Zero(items)
	assert.Zero(failed)
}
