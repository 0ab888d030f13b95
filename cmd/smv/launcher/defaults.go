package launcher

import "time"

// Defaults bundles the baseline configuration values the launcher uses
// before the config file and flags override them.
type Defaults struct {
	Node    NodeDefaults
	Network NetworkDefaults
	Logging LoggingDefaults
}

type NodeDefaults struct {
	DataDir     string        // filesystem root for chain databases
	Name        string        // node identity surfaced in logs
	ListenAddr  string        // TCP address served to peers
	MaxPeers    int           // upper bound on tracked peers
	SyncPeriod  time.Duration // pause between chain polls of the seeds
	PeerTimeout time.Duration // silence after which a peer is dropped
}

type NetworkDefaults struct {
	NetworkName string // network preset: main, test or fake
	FakeNetSize int    // pre-funded accounts of a fakenet
}

type LoggingDefaults struct {
	Verbosity int    // log level numeric (0=panic .. 5=debug)
	Format    string // text or json
	Color     bool   // ANSI colors in text output
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir:     "~/.smv",
			Name:        "go-smv",
			ListenAddr:  "127.0.0.1:5050",
			MaxPeers:    50,
			SyncPeriod:  5 * time.Second,
			PeerTimeout: 5 * time.Minute,
		},
		Network: NetworkDefaults{
			NetworkName: "main",
			FakeNetSize: 3,
		},
		Logging: LoggingDefaults{
			Verbosity: 4,
			Format:    "text",
			Color:     true,
		},
	}
}
