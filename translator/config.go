package translator

import "time"

type Config struct {
	// Workers is the number of goroutines decoding lines.
	// With more than one worker the output order is not preserved.
	Workers int

	// ChannelSize is the capacity of the connectors around the stage.
	ChannelSize int

	// StatsInterval is the period of the rate log, zero disables it.
	StatsInterval time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		Workers:     1,
		ChannelSize: 1024,
	}
}
