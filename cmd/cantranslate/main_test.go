package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/squadracorsepolito/cantranslate/config"
	"github.com/squadracorsepolito/cantranslate/egress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_buildPipeline(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "capture.txt")
	recordPath := filepath.Join(dir, "frames.cbor")
	slcanPath := filepath.Join(dir, "frames.slcan")

	lines := []string{
		"010000602402AABBE0",
		"not a line at all",
		"020000602402AABBE1",
	}
	require.NoError(t, os.WriteFile(inputPath, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o600))

	cfg := config.Default()
	cfg.Ingress.Reader.Path = inputPath
	cfg.Egress.Recorder.Enabled = true
	cfg.Egress.Recorder.Path = recordPath
	cfg.Egress.SLCAN.Enabled = true
	cfg.Egress.SLCAN.Path = slcanPath
	require.NoError(t, cfg.Validate())

	pipeline, err := buildPipeline(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, pipeline.Init(ctx))

	pipeline.Run(ctx)

	select {
	case <-pipeline.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not drain")
	}
	pipeline.Stop()

	f, err := os.Open(recordPath)
	require.NoError(t, err)
	defer f.Close()

	records, err := egress.ReadRecords(f)
	require.NoError(t, err)

	if assert.Len(records, 2) {
		assert.Equal(uint8(1), records[0].Seq)
		assert.Equal(uint8(2), records[1].Seq)
		assert.Equal(uint32(0x123), records[1].CANID)
	}

	slcanOut, err := os.ReadFile(slcanPath)
	require.NoError(t, err)
	assert.Equal("t1232AABB\rt1232AABB\r", string(slcanOut))
}

func Test_newSource_unknownKind(t *testing.T) {
	_, err := newSource(config.IngressConfig{Kind: "can"})
	assert.Error(t, err)
}
