// Package integration assembles whole nodes out of the ledger, store
// and networking layers: database backends for the launcher and the
// multi-node devnet preset used for local testing.
package integration

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smvblock/go-smv/ledger"
	"github.com/smvblock/go-smv/node"
	"github.com/smvblock/go-smv/smv"
	"github.com/smvblock/go-smv/smv/genesis"
	"github.com/smvblock/go-smv/store"
)

// DevnetAccounts is the number of pre-funded fakenet accounts a devnet
// is born with.
const DevnetAccounts = 3

// DevnetPreset names one node of the devnet topology.
type DevnetPreset struct {
	Name   string
	Config node.Config
}

// DevnetPresets returns the fixed local topology: three mining seeds,
// two normal followers and one shallow observer, all on loopback.
func DevnetPresets() []DevnetPreset {
	seeds := []string{"127.0.0.1:8000", "127.0.0.1:8001", "127.0.0.1:8002"}
	follower := func(t node.Type, listen string) node.Config {
		cfg := node.DefaultConfig()
		cfg.Type = t
		cfg.ListenAddr = listen
		cfg.SeedAddrs = seeds
		cfg.SyncPeriod = time.Second
		return cfg
	}
	presets := make([]DevnetPreset, 0, 6)
	for i, addr := range seeds {
		cfg := node.DefaultConfig()
		cfg.Type = node.Seed
		cfg.ListenAddr = addr
		cfg.Mine = true
		// the other seeds, for block announcements
		cfg.SeedAddrs = append(append([]string{}, seeds[:i]...), seeds[i+1:]...)
		cfg.SyncPeriod = time.Second
		presets = append(presets, DevnetPreset{Name: "seed-" + addr, Config: cfg})
	}
	presets = append(presets,
		DevnetPreset{Name: "normal-8010", Config: follower(node.Normal, "127.0.0.1:8010")},
		DevnetPreset{Name: "normal-8011", Config: follower(node.Normal, "127.0.0.1:8011")},
		DevnetPreset{Name: "shallow-8020", Config: follower(node.Shallow, "127.0.0.1:8020")},
	)
	return presets
}

// Devnet is a bundle of in-process nodes sharing one fakenet genesis.
type Devnet struct {
	log   *logrus.Logger
	nodes []*node.Node
}

// NewDevnet builds the devnet nodes without starting them. Every node
// gets its own ledger and in-memory store; agreement comes from the
// shared genesis and the peer protocol, exactly as across machines.
func NewDevnet(log *logrus.Logger) *Devnet {
	if log == nil {
		log = logrus.New()
	}
	rules := smv.FakeNetRules()
	g := genesis.FakeGenesis(DevnetAccounts)

	d := &Devnet{log: log}
	for _, preset := range DevnetPresets() {
		l := ledger.New(rules, &g, log)
		var db *store.Store
		if preset.Config.Type != node.Shallow {
			db = store.NewMemStore()
		}
		d.nodes = append(d.nodes, node.New(preset.Config, l, db, log))
	}
	return d
}

// Start launches every node. On failure the already-started nodes are
// torn down again.
func (d *Devnet) Start() error {
	for i, n := range d.nodes {
		if err := n.Start(); err != nil {
			for _, prev := range d.nodes[:i] {
				prev.Stop()
			}
			return err
		}
	}
	return nil
}

// Stop shuts every node down.
func (d *Devnet) Stop() {
	for _, n := range d.nodes {
		n.Stop()
	}
}

// Nodes returns the devnet nodes in preset order: seeds first.
func (d *Devnet) Nodes() []*node.Node {
	return d.nodes
}
