package node

import (
	"context"
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/smvblock/go-smv/crypto"
	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/ledger"
	"github.com/smvblock/go-smv/smv"
	"github.com/smvblock/go-smv/smv/genesis"
	"github.com/smvblock/go-smv/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(ioutil.Discard)
	return log
}

func startNode(t *testing.T, cfg Config, db *store.Store) *Node {
	t.Helper()

	g := genesis.FakeGenesis(3)
	l := ledger.New(smv.FakeNetRules(), &g, testLogger())

	cfg.ListenAddr = "127.0.0.1:0"
	n := New(cfg, l, db, testLogger())
	require.NoError(t, n.Start())
	t.Cleanup(n.Stop)
	return n
}

func clientHello(addr string, l *ledger.Ledger) Hello {
	return Hello{
		ListenAddr: addr,
		NodeType:   Shallow,
		NetworkID:  l.Rules().NetworkID,
		Genesis:    l.Genesis().Hash(),
	}
}

func TestNodeStatusAndPeers(t *testing.T) {
	require := require.New(t)

	n := startNode(t, Config{Type: Seed}, nil)

	c, err := Dial(n.Addr(), clientHello("127.0.0.1:9999", n.Ledger()))
	require.NoError(err)
	defer c.Close()

	status, err := c.Status()
	require.NoError(err)
	require.EqualValues(0, status.Height)
	require.Equal(n.Ledger().Head().Hash, status.Head)
	require.Equal(n.Ledger().StateRoot(), status.StateRoot)
	require.Zero(status.Pending)

	peers, err := c.Peers()
	require.NoError(err)
	require.Contains(peers, "127.0.0.1:9999")
}

func TestNodeRejectsForeignNetwork(t *testing.T) {
	require := require.New(t)

	n := startNode(t, Config{Type: Seed}, nil)

	hello := clientHello("127.0.0.1:9999", n.Ledger())
	hello.NetworkID = smv.MainNetworkID
	c, err := Dial(n.Addr(), hello)
	require.NoError(err)
	defer c.Close()

	// the node drops the connection instead of answering
	_, err = c.Status()
	require.Error(err)
	require.Zero(n.PeerCount())
}

func TestNodeRejectsForeignGenesis(t *testing.T) {
	require := require.New(t)

	n := startNode(t, Config{Type: Seed}, nil)

	hello := clientHello("127.0.0.1:9999", n.Ledger())
	hello.Genesis[0]++
	c, err := Dial(n.Addr(), hello)
	require.NoError(err)
	defer c.Close()

	_, err = c.Status()
	require.Error(err)
}

func TestNodeSubmitAndMine(t *testing.T) {
	require := require.New(t)

	db := store.NewMemStore()
	n := startNode(t, Config{
		Type:       Seed,
		Mine:       true,
		MinePeriod: 10 * time.Millisecond,
	}, db)

	key := genesis.FakeKey(0)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))
	tx, err := inter.NewTransaction(key, recipient, 100, 1, 1)
	require.NoError(err)

	c, err := Dial(n.Addr(), clientHello("127.0.0.1:9999", n.Ledger()))
	require.NoError(err)
	defer c.Close()

	receipt, err := c.SubmitTx(tx)
	require.NoError(err)
	require.True(receipt.Accepted)
	require.Equal(tx.Hash(), receipt.Hash)

	require.Eventually(func() bool {
		return n.Ledger().ChainLength() == 2
	}, 5*time.Second, 10*time.Millisecond)

	acc := n.Ledger().GetAccount(recipient)
	require.Equal(uint64(100), acc.Balance)

	// the mined chain reached the db
	require.Eventually(func() bool {
		head, ok, err := db.GetHead()
		return err == nil && ok && head == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNodeSubmitRejections(t *testing.T) {
	require := require.New(t)

	n := startNode(t, Config{Type: Seed}, nil)

	c, err := Dial(n.Addr(), clientHello("127.0.0.1:9999", n.Ledger()))
	require.NoError(err)
	defer c.Close()

	// stale nonce
	tx, err := inter.NewTransaction(genesis.FakeKey(0), crypto.KeyAddress(genesis.FakeKey(1)), 10, 1, 5)
	require.NoError(err)
	receipt, err := c.SubmitTx(tx)
	require.NoError(err)
	require.False(receipt.Accepted)
	require.NotEmpty(receipt.Error)
	require.Zero(n.Ledger().PendingCount())
}

func TestNodeChainSync(t *testing.T) {
	require := require.New(t)

	// the seed mines a block, then a fresh normal node pulls it
	seed := startNode(t, Config{
		Type:       Seed,
		Mine:       true,
		MinePeriod: 10 * time.Millisecond,
	}, nil)

	key := genesis.FakeKey(0)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))
	tx, err := inter.NewTransaction(key, recipient, 100, 1, 1)
	require.NoError(err)
	require.NoError(seed.Ledger().AddTransaction(tx))

	require.Eventually(func() bool {
		return seed.Ledger().ChainLength() == 2
	}, 5*time.Second, 10*time.Millisecond)

	follower := startNode(t, Config{
		Type:       Normal,
		SeedAddrs:  []string{seed.Addr()},
		SyncPeriod: 10 * time.Millisecond,
	}, nil)

	require.Eventually(func() bool {
		return follower.Ledger().Head().Hash == seed.Ledger().Head().Hash
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(seed.Ledger().StateRoot(), follower.Ledger().StateRoot())
}

func TestNodeChainPush(t *testing.T) {
	require := require.New(t)

	receiver := startNode(t, Config{Type: Seed}, nil)

	// build a longer chain on a detached ledger and push it
	g := genesis.FakeGenesis(3)
	l := ledger.New(smv.FakeNetRules(), &g, testLogger())
	tx, err := inter.NewTransaction(genesis.FakeKey(0), crypto.KeyAddress(genesis.FakeKey(1)), 100, 1, 1)
	require.NoError(err)
	require.NoError(l.AddTransaction(tx))
	_, err = l.MinePending(context.Background())
	require.NoError(err)

	c, err := Dial(receiver.Addr(), clientHello("127.0.0.1:9999", l))
	require.NoError(err)
	defer c.Close()
	require.NoError(c.PushChain(l.Chain()))

	require.Eventually(func() bool {
		return receiver.Ledger().Head().Hash == l.Head().Hash
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNodeRepliesErrorToUnknownMessage(t *testing.T) {
	require := require.New(t)

	n := startNode(t, Config{Type: Seed}, nil)

	c, err := Dial(n.Addr(), clientHello("127.0.0.1:9999", n.Ledger()))
	require.NoError(err)
	defer c.Close()

	_, err = c.roundTrip(Message{Type: "gossip"}, MsgStatus)
	require.Error(err)
	require.Contains(err.Error(), "unknown message type")
}

func TestNodeRepliesErrorToBadChain(t *testing.T) {
	require := require.New(t)

	n := startNode(t, Config{Type: Seed}, nil)

	// a chain grown from a different genesis can never be adopted
	other := genesis.FakeGenesis(1)
	foreign := ledger.New(smv.FakeNetRules(), &other, testLogger())
	chain, err := EncodeChain(foreign.Chain())
	require.NoError(err)
	m, err := NewMessage(MsgChain, chain)
	require.NoError(err)

	c, err := Dial(n.Addr(), clientHello("127.0.0.1:9999", n.Ledger()))
	require.NoError(err)
	defer c.Close()

	_, err = c.roundTrip(m, MsgChain)
	require.Error(err)
	require.Contains(err.Error(), "rejected candidate chain")
	require.EqualValues(0, n.Ledger().Head().Index)
}

func TestEncodeChainCapsMessageSize(t *testing.T) {
	require := require.New(t)

	txs := make([]*inter.Transaction, 70000)
	for i := range txs {
		txs[i] = &inter.Transaction{}
	}
	_, err := EncodeChain([]*inter.Block{{Index: 1, Txs: txs}})
	require.Error(err)
	require.Contains(err.Error(), "message cap")
}

func TestNodeStopClosesIdlePeers(t *testing.T) {
	require := require.New(t)

	g := genesis.FakeGenesis(3)
	l := ledger.New(smv.FakeNetRules(), &g, testLogger())
	n := New(Config{Type: Seed, ListenAddr: "127.0.0.1:0"}, l, nil, testLogger())
	require.NoError(n.Start())

	c, err := Dial(n.Addr(), clientHello("127.0.0.1:9999", n.Ledger()))
	require.NoError(err)
	defer c.Close()
	_, err = c.Status()
	require.NoError(err)

	// the idle connection must not hold shutdown until its read deadline
	done := make(chan struct{})
	go func() {
		n.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown blocked on an idle peer connection")
	}
}
