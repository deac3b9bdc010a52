package domain

import "context"

// Channel is a named live stream source served under /stream/<ID>.
type Channel struct {
	ID      string
	Name    string
	BaseURL string
}

type ChannelRegistry interface {
	Lookup(id string) (Channel, error)
	List() []Channel
}

type StreamResolver interface {
	Resolve(ctx context.Context, ch Channel) (Resolution, error)
}
