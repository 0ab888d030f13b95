package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smvblock/go-smv/crypto"
	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/smv/genesis"
)

func TestGenesisState(t *testing.T) {
	require := require.New(t)

	g := genesis.FakeGenesis(3)
	s := NewGenesisState(&g)

	require.Equal(3, s.Len())
	require.Equal(g.TotalSupply(), s.TotalBalance())
	for _, a := range g.Alloc {
		acc := s.GetAccount(a.Address)
		require.Equal(a.Balance, acc.Balance)
		require.Zero(acc.Nonce)
	}
}

func TestStateApply(t *testing.T) {
	require := require.New(t)

	key := genesis.FakeKey(0)
	sender := crypto.KeyAddress(key)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))

	g := genesis.Genesis{
		Time:  genesis.FakeGenesisTime,
		Alloc: []genesis.Allocation{{Address: sender, Balance: 1000}},
	}
	s := NewGenesisState(&g)

	tx, err := inter.NewTransaction(key, recipient, 100, 1, 1)
	require.NoError(err)
	require.NoError(s.Apply(tx))

	require.Equal(uint64(899), s.GetAccount(sender).Balance)
	require.Equal(uint64(1), s.GetAccount(sender).Nonce)
	require.Equal(uint64(100), s.GetAccount(recipient).Balance)
	require.Zero(s.GetAccount(recipient).Nonce)
	// the fee is burned
	require.Equal(uint64(999), s.TotalBalance())
}

func TestStateApplyRejections(t *testing.T) {
	key := genesis.FakeKey(0)
	sender := crypto.KeyAddress(key)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))

	mkState := func() *State {
		g := genesis.Genesis{
			Alloc: []genesis.Allocation{{Address: sender, Balance: 100}},
		}
		return NewGenesisState(&g)
	}
	mkTx := func(amount, fee, nonce uint64) *inter.Transaction {
		tx, err := inter.NewTransaction(key, recipient, amount, fee, nonce)
		require.NoError(t, err)
		return tx
	}

	t.Run("insufficient balance", func(t *testing.T) {
		s := mkState()
		err := s.Apply(mkTx(100, 1, 1))
		require.ErrorIs(t, err, ErrInsufficientBalance)
	})
	t.Run("cost overflow", func(t *testing.T) {
		s := mkState()
		err := s.Apply(mkTx(^uint64(0), 1, 1))
		require.ErrorIs(t, err, ErrInsufficientBalance)
	})
	t.Run("nonce gap", func(t *testing.T) {
		s := mkState()
		err := s.Apply(mkTx(10, 1, 2))
		require.ErrorIs(t, err, ErrInvalidNonce)
	})
	t.Run("nonce replay", func(t *testing.T) {
		s := mkState()
		require.NoError(t, s.Apply(mkTx(10, 1, 1)))
		err := s.Apply(mkTx(10, 1, 1))
		require.ErrorIs(t, err, ErrInvalidNonce)
	})
	t.Run("unknown sender", func(t *testing.T) {
		s := mkState()
		tx, err := inter.NewTransaction(genesis.FakeKey(2), recipient, 10, 1, 1)
		require.NoError(t, err)
		require.ErrorIs(t, s.Apply(tx), ErrInsufficientBalance)
	})
}

func TestStateApplyIsAtomic(t *testing.T) {
	require := require.New(t)

	key := genesis.FakeKey(0)
	sender := crypto.KeyAddress(key)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))

	g := genesis.Genesis{
		Alloc: []genesis.Allocation{{Address: sender, Balance: 1000}},
	}
	s := NewGenesisState(&g)
	before := s.Root()

	tx, err := inter.NewTransaction(key, recipient, 2000, 0, 1)
	require.NoError(err)
	require.Error(s.Apply(tx))

	require.Equal(before, s.Root())
	require.Equal(uint64(1000), s.GetAccount(sender).Balance)
	require.Zero(s.GetAccount(recipient).Balance)
}

func TestStateNonceMonotonicity(t *testing.T) {
	require := require.New(t)

	key := genesis.FakeKey(0)
	sender := crypto.KeyAddress(key)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))

	g := genesis.Genesis{
		Alloc: []genesis.Allocation{{Address: sender, Balance: 1000}},
	}
	s := NewGenesisState(&g)

	for k := uint64(1); k <= 5; k++ {
		tx, err := inter.NewTransaction(key, recipient, 10, 1, k)
		require.NoError(err)
		require.NoError(s.Apply(tx))
		require.Equal(k, s.GetAccount(sender).Nonce)
	}
}

func TestStateSelfSend(t *testing.T) {
	require := require.New(t)

	key := genesis.FakeKey(0)
	addr := crypto.KeyAddress(key)

	g := genesis.Genesis{
		Alloc: []genesis.Allocation{{Address: addr, Balance: 1000}},
	}
	s := NewGenesisState(&g)

	tx, err := inter.NewTransaction(key, addr, 100, 7, 1)
	require.NoError(err)
	require.NoError(s.Apply(tx))

	// only the fee leaves the account
	require.Equal(uint64(993), s.GetAccount(addr).Balance)
	require.Equal(uint64(1), s.GetAccount(addr).Nonce)
}

func TestStateCopyIsIndependent(t *testing.T) {
	require := require.New(t)

	key := genesis.FakeKey(0)
	sender := crypto.KeyAddress(key)
	recipient := crypto.KeyAddress(genesis.FakeKey(1))

	g := genesis.Genesis{
		Alloc: []genesis.Allocation{{Address: sender, Balance: 1000}},
	}
	s := NewGenesisState(&g)
	cp := s.Copy()

	tx, err := inter.NewTransaction(key, recipient, 100, 1, 1)
	require.NoError(err)
	require.NoError(cp.Apply(tx))

	require.Equal(uint64(1000), s.GetAccount(sender).Balance)
	require.Zero(s.GetAccount(sender).Nonce)
	require.NotEqual(s.Root(), cp.Root())
}

func TestStateRootDeterminism(t *testing.T) {
	require := require.New(t)

	g := genesis.FakeGenesis(5)
	a := NewGenesisState(&g)
	b := NewGenesisState(&g)
	require.Equal(a.Root(), b.Root())

	other := genesis.FakeGenesis(4)
	require.NotEqual(a.Root(), NewGenesisState(&other).Root())
}
