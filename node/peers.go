package node

import (
	"sync"
	"time"
)

type peerInfo struct {
	nodeType Type
	lastSeen time.Time
}

// peerSet tracks the peers a node has heard from, keyed by their
// advertised listen address. Silent peers expire after the timeout.
type peerSet struct {
	mu      sync.Mutex
	peers   map[string]peerInfo
	limit   int
	timeout time.Duration
}

func newPeerSet(limit int, timeout time.Duration) *peerSet {
	return &peerSet{
		peers:   make(map[string]peerInfo),
		limit:   limit,
		timeout: timeout,
	}
}

// Touch records that a peer was seen now. New peers beyond the limit
// are ignored; known peers always refresh.
func (ps *peerSet) Touch(addr string, t Type) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, known := ps.peers[addr]; !known && len(ps.peers) >= ps.limit {
		return false
	}
	ps.peers[addr] = peerInfo{nodeType: t, lastSeen: time.Now()}
	return true
}

// List returns the addresses of all live peers.
func (ps *peerSet) List() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	out := make([]string, 0, len(ps.peers))
	for addr := range ps.peers {
		out = append(out, addr)
	}
	return out
}

// Expire drops peers not seen within the timeout.
func (ps *peerSet) Expire() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	deadline := time.Now().Add(-ps.timeout)
	for addr, info := range ps.peers {
		if info.lastSeen.Before(deadline) {
			delete(ps.peers, addr)
		}
	}
}

// Len returns the live peer count.
func (ps *peerSet) Len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.peers)
}
