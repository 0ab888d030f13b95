// Package smv defines the network rules for an smv chain deployment:
// network identity, the proof-of-work difficulty, and block production
// limits. Rules are consensus-critical: nodes with different rules
// build incomparable chains.
package smv

import (
	"encoding/json"
	"fmt"
	"time"
)

// Network identification constants.
const (
	// MainNetworkID is the chain ID of the main network.
	MainNetworkID uint64 = 0x736d

	// TestNetworkID is the chain ID of the public test network.
	TestNetworkID uint64 = 0x736d2

	// FakeNetworkID is the chain ID of local throwaway networks used in
	// tests and devnets.
	FakeNetworkID uint64 = 0x736d3
)

// MaxBlockTxs caps the number of transactions a miner packs into one
// block; a candidate batch beyond the cap waits for the next block.
const MaxBlockTxs = 4096

// Rules describes the consensus parameters of a network.
type Rules struct {
	// Name is the human-readable network name surfaced in logs and the
	// node handshake.
	Name string

	// NetworkID distinguishes this network from others; peers on
	// different network IDs refuse to exchange chains.
	NetworkID uint64

	// Difficulty is the proof-of-work difficulty in bits: a block hash,
	// read as a big-endian unsigned integer, must be below
	// 2^256 >> Difficulty.
	Difficulty uint64

	// BlockPeriod is the target pause between mining rounds for the
	// background miner. It does not influence validity.
	BlockPeriod time.Duration
}

// MainNetRules returns the rules of the main network.
func MainNetRules() Rules {
	return Rules{
		Name:        "main",
		NetworkID:   MainNetworkID,
		Difficulty:  22,
		BlockPeriod: 10 * time.Second,
	}
}

// TestNetRules returns the rules of the test network.
func TestNetRules() Rules {
	return Rules{
		Name:        "test",
		NetworkID:   TestNetworkID,
		Difficulty:  16,
		BlockPeriod: 5 * time.Second,
	}
}

// FakeNetRules returns rules for a local network: low difficulty so
// blocks seal in microseconds.
func FakeNetRules() Rules {
	return Rules{
		Name:        "fake",
		NetworkID:   FakeNetworkID,
		Difficulty:  8,
		BlockPeriod: time.Second,
	}
}

// RulesByName resolves a network name from CLI/config input.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main":
		return MainNetRules(), nil
	case "test":
		return TestNetRules(), nil
	case "fake":
		return FakeNetRules(), nil
	default:
		return Rules{}, fmt.Errorf("unknown network %q", name)
	}
}

// String returns a compact JSON representation, for logs and dumps.
func (r Rules) String() string {
	b, err := json.Marshal(&r)
	if err != nil {
		return "\"error\""
	}
	return string(b)
}
