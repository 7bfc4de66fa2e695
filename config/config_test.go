package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load(t *testing.T) {
	assert := assert.New(t)

	data := `
log:
  level: debug
ingress:
  kind: udp
  udp:
    address: 127.0.0.1:30000
translator:
  workers: 2
  stats_interval: 5s
signal:
  dbc_file: bus.dbc
egress:
  questdb:
    enabled: true
    signals: true
    retry_timeout: 250ms
  kafka:
    enabled: true
    brokers: [broker-1:9092, broker-2:9092]
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	level, err := cfg.LogLevel()
	assert.NoError(err)
	assert.Equal(slog.LevelDebug, level)

	assert.Equal(IngressKindUDP, cfg.Ingress.Kind)
	assert.Equal("127.0.0.1:30000", cfg.Ingress.UDP.Address)

	assert.Equal(2, cfg.Translator.Workers)
	assert.Equal(1024, cfg.Translator.ChannelSize)
	assert.Equal(5*time.Second, cfg.Translator.StatsInterval)

	assert.True(cfg.Egress.QuestDB.Enabled)
	assert.True(cfg.Egress.QuestDB.Frames)
	assert.True(cfg.Egress.QuestDB.Signals)
	assert.Equal(250*time.Millisecond, cfg.Egress.QuestDB.RetryTimeout)
	assert.Equal("localhost:9000", cfg.Egress.QuestDB.Address)

	assert.Equal([]string{"broker-1:9092", "broker-2:9092"}, cfg.Egress.Kafka.Brokers)
	assert.Equal("can_frames", cfg.Egress.Kafka.Topic)
}

func Test_Load_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func Test_Parse_invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "no egress",
			data: "ingress: {kind: reader}",
		},
		{
			name: "unknown ingress",
			data: "ingress: {kind: can}\negress: {recorder: {enabled: true, path: out.cbor}}",
		},
		{
			name: "zero workers",
			data: "translator: {workers: 0}\negress: {socketcan: {enabled: true}}",
		},
		{
			name: "bad log level",
			data: "log: {level: loud}\negress: {socketcan: {enabled: true}}",
		},
		{
			name: "signals without dbc",
			data: "egress: {questdb: {enabled: true, signals: true}}",
		},
		{
			name: "recorder without path",
			data: "egress: {recorder: {enabled: true}}",
		},
		{
			name: "malformed yaml",
			data: "egress: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func Test_Default_needsEgress(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.ErrorIs(cfg.Validate(), ErrInvalidConfig)

	cfg.Egress.SLCAN.Enabled = true
	assert.NoError(cfg.Validate())
}
