package node

import (
	"fmt"
	"time"
)

// Type tells how much of the network a node carries.
type Type string

const (
	// Seed nodes are the well-known entry points peers bootstrap from.
	Seed Type = "seed"

	// Normal nodes keep the full chain on disk and may mine.
	Normal Type = "normal"

	// Shallow nodes hold the chain in memory only and never mine.
	Shallow Type = "shallow"
)

// ParseType resolves a node type from CLI/config input.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Seed, Normal, Shallow:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown node type %q", s)
	}
}

// Config collects the node's network behavior knobs.
type Config struct {
	// Type selects the node role; see the Type constants.
	Type Type

	// ListenAddr is the TCP address to serve peers on. Port 0 picks a
	// free port, which tests rely on.
	ListenAddr string

	// SeedAddrs are the peers contacted at startup and polled for
	// better chains. Seeds of the network itself leave this empty.
	SeedAddrs []string

	// MaxPeers caps the tracked peer set.
	MaxPeers int

	// Mine enables the background miner.
	Mine bool

	// MinePeriod is the pause between mining rounds; zero means the
	// network's block period.
	MinePeriod time.Duration

	// SyncPeriod is the pause between chain polls of the seeds.
	SyncPeriod time.Duration

	// PeerTimeout expires peers that stayed silent for too long.
	PeerTimeout time.Duration
}

// DefaultConfig returns the config of a non-mining normal node.
func DefaultConfig() Config {
	return Config{
		Type:        Normal,
		ListenAddr:  "127.0.0.1:0",
		MaxPeers:    50,
		SyncPeriod:  5 * time.Second,
		PeerTimeout: 5 * time.Minute,
	}
}
