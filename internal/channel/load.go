package channel

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed channels.yaml
var defaultTable []byte

type fileFormat struct {
	Channels []entry `yaml:"channels"`
}

type entry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// Parse decodes a YAML channel table. Unknown fields are rejected so typos
// in base_url and friends surface at startup.
func Parse(data []byte) ([]domain.Channel, error) {
	var f fileFormat
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode channel table: %w", err)
	}
	if len(f.Channels) == 0 {
		return nil, errors.New("channel table is empty")
	}

	channels := make([]domain.Channel, 0, len(f.Channels))
	for _, e := range f.Channels {
		channels = append(channels, domain.Channel{
			ID:      e.ID,
			Name:    e.Name,
			BaseURL: e.BaseURL,
		})
	}
	return channels, nil
}

// LoadDefault builds a registry from the channel table compiled into the binary.
func LoadDefault() (*Registry, error) {
	return load(defaultTable)
}

// LoadFile builds a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel table: %w", err)
	}
	return load(data)
}

// Load picks LoadFile when path is set and LoadDefault otherwise.
func Load(path string) (*Registry, error) {
	if path == "" {
		return LoadDefault()
	}
	return LoadFile(path)
}

func load(data []byte) (*Registry, error) {
	channels, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewRegistry(channels)
}
