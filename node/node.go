// Package node runs the peer surface of an smv chain: a TCP server
// speaking a newline-delimited JSON protocol, the seed-polling sync
// loop, and the background miner. All trust decisions stay in the
// ledger; the node treats every peer-supplied transaction and chain as
// untrusted input.
package node

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/ledger"
	"github.com/smvblock/go-smv/store"
)

const (
	connTimeout  = 30 * time.Second
	expirePeriod = time.Minute
	dialTimeout  = 5 * time.Second
)

// Node serves the peer protocol over one ledger instance.
type Node struct {
	cfg    Config
	ledger *ledger.Ledger
	db     *store.Store
	log    *logrus.Entry

	peers    *peerSet
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires a node over a ledger. db may be nil (shallow nodes keep the
// chain in memory only).
func New(cfg Config, l *ledger.Ledger, db *store.Store, log *logrus.Logger) *Node {
	if log == nil {
		log = logrus.New()
	}
	if cfg.Type == Shallow {
		db = nil
	}
	if cfg.MinePeriod <= 0 {
		cfg.MinePeriod = l.Rules().BlockPeriod
	}
	if cfg.SyncPeriod <= 0 {
		cfg.SyncPeriod = DefaultConfig().SyncPeriod
	}
	if cfg.PeerTimeout <= 0 {
		cfg.PeerTimeout = DefaultConfig().PeerTimeout
	}
	if cfg.MaxPeers <= 0 {
		cfg.MaxPeers = DefaultConfig().MaxPeers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		cfg:    cfg,
		ledger: l,
		db:     db,
		log:    log.WithField("node", string(cfg.Type)),
		peers:  newPeerSet(cfg.MaxPeers, cfg.PeerTimeout),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start binds the listener and launches the serve, sync, miner and
// peer-expiry loops. It does not block.
func (n *Node) Start() error {
	lis, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", n.cfg.ListenAddr, err)
	}
	n.listener = lis
	n.log = n.log.WithField("addr", lis.Addr().String())
	n.log.WithFields(logrus.Fields{
		"network": n.ledger.Rules().Name,
		"height":  n.ledger.ChainLength() - 1,
	}).Info("node started")

	n.wg.Add(1)
	go n.serveLoop()

	n.wg.Add(1)
	go n.expireLoop()

	if len(n.cfg.SeedAddrs) > 0 {
		n.wg.Add(1)
		go n.syncLoop()
	}
	if n.cfg.Mine && n.cfg.Type != Shallow {
		n.wg.Add(1)
		go n.mineLoop()
	}
	return nil
}

// Stop shuts the node down and waits for all loops to drain.
func (n *Node) Stop() {
	n.cancel()
	if n.listener != nil {
		n.listener.Close()
	}
	n.wg.Wait()
	n.persist()
	n.log.Info("node stopped")
}

// Addr returns the bound listen address.
func (n *Node) Addr() string {
	if n.listener == nil {
		return n.cfg.ListenAddr
	}
	return n.listener.Addr().String()
}

// Ledger exposes the node's ledger for local queries.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// PeerCount returns the number of live peers.
func (n *Node) PeerCount() int {
	return n.peers.Len()
}

func (n *Node) serveLoop() {
	defer n.wg.Done()
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			select {
			case <-n.ctx.Done():
				return
			default:
			}
			n.log.WithError(err).Warn("accept failed")
			continue
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			defer conn.Close()

			// Unblock the pending read when the node shuts down, so
			// Stop never waits out the read deadline of idle peers.
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-n.ctx.Done():
					conn.Close()
				case <-done:
				}
			}()

			n.handleConn(conn)
		}()
	}
}

func (n *Node) expireLoop() {
	defer n.wg.Done()
	ticker := time.NewTicker(expirePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.peers.Expire()
		}
	}
}

// handleConn serves one peer connection until it closes or misbehaves.
func (n *Node) handleConn(conn net.Conn) {
	reader := newLineScanner(bufio.NewReader(conn))
	writer := bufio.NewWriter(conn)

	for {
		conn.SetDeadline(time.Now().Add(connTimeout))
		msg, err := readMessage(reader)
		if err != nil {
			return
		}
		if err := n.dispatch(msg, writer); err != nil {
			n.log.WithError(err).WithField("msg", msg.Type).Debug("dropping peer")
			return
		}
	}
}

func (n *Node) dispatch(msg Message, w *bufio.Writer) error {
	switch msg.Type {
	case MsgHello:
		return n.handleHello(msg)
	case MsgGetStatus:
		return writeMessage(w, n.statusMessage())
	case MsgGetPeers:
		m, err := NewMessage(MsgPeers, Peers{Addrs: n.peers.List()})
		if err != nil {
			return err
		}
		return writeMessage(w, m)
	case MsgSendTx:
		return n.handleSendTx(msg, w)
	case MsgGetChain:
		chain, err := EncodeChain(n.ledger.Chain())
		if err != nil {
			return err
		}
		m, err := NewMessage(MsgChain, chain)
		if err != nil {
			return err
		}
		return writeMessage(w, m)
	case MsgChain:
		return n.handleChain(msg, w)
	default:
		return n.replyError(w, fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// replyError tells the peer why its request was rejected, then returns
// the cause so the connection is dropped.
func (n *Node) replyError(w *bufio.Writer, cause error) error {
	m, err := NewMessage(MsgError, Error{Error: cause.Error()})
	if err != nil {
		return err
	}
	if err := writeMessage(w, m); err != nil {
		return err
	}
	return cause
}

func (n *Node) handleHello(msg Message) error {
	var hello Hello
	if err := msg.Decode(&hello); err != nil {
		return err
	}
	if hello.NetworkID != n.ledger.Rules().NetworkID {
		return fmt.Errorf("peer %s is on network %#x, want %#x",
			hello.ListenAddr, hello.NetworkID, n.ledger.Rules().NetworkID)
	}
	if hello.Genesis != n.ledger.Genesis().Hash() {
		return fmt.Errorf("peer %s has a foreign genesis %s",
			hello.ListenAddr, hello.Genesis.Hex())
	}
	if n.peers.Touch(hello.ListenAddr, hello.NodeType) {
		n.log.WithFields(logrus.Fields{
			"peer": hello.ListenAddr,
			"type": string(hello.NodeType),
		}).Debug("peer registered")
	}
	return nil
}

func (n *Node) handleSendTx(msg Message, w *bufio.Writer) error {
	var req SendTx
	if err := msg.Decode(&req); err != nil {
		return err
	}
	tx := &inter.Transaction{}
	if err := tx.UnmarshalBinary(req.Raw); err != nil {
		return n.replyReceipt(w, TxReceipt{Error: fmt.Sprintf("malformed transaction: %v", err)})
	}
	if err := n.ledger.AddTransaction(tx); err != nil {
		return n.replyReceipt(w, TxReceipt{Hash: tx.Hash(), Error: err.Error()})
	}
	return n.replyReceipt(w, TxReceipt{Accepted: true, Hash: tx.Hash()})
}

func (n *Node) replyReceipt(w *bufio.Writer, r TxReceipt) error {
	m, err := NewMessage(MsgTxReceipt, r)
	if err != nil {
		return err
	}
	return writeMessage(w, m)
}

func (n *Node) handleChain(msg Message, w *bufio.Writer) error {
	var chain Chain
	if err := msg.Decode(&chain); err != nil {
		return err
	}
	blocks, err := chain.DecodeChain()
	if err != nil {
		return n.replyError(w, err)
	}
	adopted, err := n.ledger.AdoptIfBetter(blocks)
	if err != nil {
		return n.replyError(w, fmt.Errorf("rejected candidate chain: %w", err))
	}
	if adopted {
		n.persist()
	}
	return nil
}

func (n *Node) statusMessage() Message {
	head := n.ledger.Head()
	m, err := NewMessage(MsgStatus, Status{
		Head:      head.Hash,
		Height:    uint64(head.Index),
		StateRoot: n.ledger.StateRoot(),
		Pending:   n.ledger.PendingCount(),
	})
	if err != nil {
		panic(err)
	}
	return m
}

// persist flushes the committed chain to the database. Shallow nodes
// run without one.
func (n *Node) persist() {
	if n.db == nil {
		return
	}
	if err := n.db.SaveChain(n.ledger.Chain()); err != nil {
		n.log.WithError(err).Error("failed to persist chain")
	}
}

// syncLoop polls the seeds and adopts any better chain they carry.
func (n *Node) syncLoop() {
	defer n.wg.Done()

	n.syncOnce()
	ticker := time.NewTicker(n.cfg.SyncPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.syncOnce()
		}
	}
}

func (n *Node) syncOnce() {
	for _, seed := range n.cfg.SeedAddrs {
		if err := n.syncWith(seed); err != nil {
			n.log.WithError(err).WithField("seed", seed).Debug("sync failed")
		}
	}
}

// syncWith introduces the node to one seed and pulls its chain if the
// seed is ahead.
func (n *Node) syncWith(addr string) error {
	c, err := Dial(addr, n.hello())
	if err != nil {
		return err
	}
	defer c.Close()

	status, err := c.Status()
	if err != nil {
		return err
	}
	if status.Height < uint64(n.ledger.Head().Index) ||
		(status.Height == uint64(n.ledger.Head().Index) && status.Head == n.ledger.Head().Hash) {
		return nil
	}
	blocks, err := c.FetchChain()
	if err != nil {
		return err
	}
	adopted, err := n.ledger.AdoptIfBetter(blocks)
	if err != nil {
		return err
	}
	if adopted {
		n.persist()
		n.log.WithFields(logrus.Fields{
			"seed":   addr,
			"height": n.ledger.ChainLength() - 1,
		}).Info("chain synced")
	}
	return nil
}

// broadcastChain pushes the committed chain to every known peer and to
// the seeds, fire and forget.
func (n *Node) broadcastChain() {
	targets := append(n.peers.List(), n.cfg.SeedAddrs...)
	seen := make(map[string]bool, len(targets))
	self := n.Addr()
	for _, addr := range targets {
		if seen[addr] || addr == self {
			continue
		}
		seen[addr] = true
		if err := n.pushChain(addr); err != nil {
			n.log.WithError(err).WithField("peer", addr).Debug("push failed")
		}
	}
}

func (n *Node) pushChain(addr string) error {
	c, err := Dial(addr, n.hello())
	if err != nil {
		return err
	}
	defer c.Close()
	return c.PushChain(n.ledger.Chain())
}

func (n *Node) hello() Hello {
	return Hello{
		ListenAddr: n.Addr(),
		NodeType:   n.cfg.Type,
		NetworkID:  n.ledger.Rules().NetworkID,
		Genesis:    n.ledger.Genesis().Hash(),
	}
}
