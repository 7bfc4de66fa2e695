package signal

import (
	"fmt"
	"os"

	"github.com/squadracorsepolito/acmelib"
)

type Config struct {
	Messages []*acmelib.Message
}

func NewDefaultConfig() *Config {
	return &Config{}
}

// LoadDBC returns the messages sent by every node of the bus
// described by the DBC file at path.
func LoadDBC(busName, path string) ([]*acmelib.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dbc file: %w", err)
	}
	defer f.Close()

	bus, err := acmelib.ImportDBCFile(busName, f)
	if err != nil {
		return nil, fmt.Errorf("import dbc file %s: %w", path, err)
	}

	messages := []*acmelib.Message{}
	for _, nodeInt := range bus.NodeInterfaces() {
		messages = append(messages, nodeInt.SentMessages()...)
	}

	return messages, nil
}
