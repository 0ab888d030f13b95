// Package genesis defines the genesis configuration of a network: the
// fixed (address, balance) allocations that are the ledger's sole
// minting event, plus the genesis timestamp. The configuration must be
// bit-for-bit identical across all nodes of a network, since the
// genesis block and every chain comparison are derived from it.
package genesis

import (
	"crypto/ecdsa"
	"encoding/binary"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	smvcrypto "github.com/smvblock/go-smv/crypto"
	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/smv"
	"github.com/smvblock/go-smv/utils/cser"
)

// FakeGenesisTime is the fixed timestamp of fake network genesis.
var FakeGenesisTime = inter.Timestamp(1608600000 * time.Second)

// FakeBalance is the balance credited to each fakenet allocation.
const FakeBalance = uint64(1_000_000_000)

// Allocation credits one address during genesis.
type Allocation struct {
	Address common.Address
	Balance uint64
}

// Genesis is the full genesis configuration of a network.
type Genesis struct {
	NetworkID uint64
	Time      inter.Timestamp
	Alloc     []Allocation
}

// Hash returns the digest of the configuration over its canonical
// encoding with allocations in address order. It doubles as the
// previous-hash sentinel of the genesis block, which is what makes two
// nodes agree on genesis iff they agree on the configuration.
func (g *Genesis) Hash() common.Hash {
	alloc := g.SortedAlloc()
	raw, err := cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		w.U64(g.NetworkID)
		w.U64(uint64(g.Time))
		w.U32(uint32(len(alloc)))
		for _, a := range alloc {
			w.FixedBytes(a.Address[:])
			w.U64(a.Balance)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
	return smvcrypto.Keccak256(raw)
}

// SortedAlloc returns the allocations ordered by address bytes. Callers
// applying genesis must use this order so replay stays deterministic.
func (g *Genesis) SortedAlloc() []Allocation {
	alloc := append([]Allocation(nil), g.Alloc...)
	sort.Slice(alloc, func(i, j int) bool {
		return string(alloc[i].Address[:]) < string(alloc[j].Address[:])
	})
	return alloc
}

// TotalSupply returns the sum of all genesis balances, the amount of
// value that will ever circulate, minus burned fees.
func (g *Genesis) TotalSupply() uint64 {
	var total uint64
	for _, a := range g.Alloc {
		total += a.Balance
	}
	return total
}

// MainNetGenesis returns the fixed genesis of the main network.
func MainNetGenesis() Genesis {
	return Genesis{
		NetworkID: smv.MainNetworkID,
		Time:      inter.Timestamp(1700000000 * time.Second),
		Alloc: []Allocation{
			{Address: common.HexToAddress("0x5366b75cec23d1e6173e10e8a4b8c6274fb325aa"), Balance: 8_000_000_000},
			{Address: common.HexToAddress("0x91d7b1dd2b4b1e22bd1c8ab6d4c5b67f04c63f6e"), Balance: 2_000_000_000},
		},
	}
}

// TestNetGenesis returns the fixed genesis of the test network.
func TestNetGenesis() Genesis {
	return Genesis{
		NetworkID: smv.TestNetworkID,
		Time:      inter.Timestamp(1700000000 * time.Second),
		Alloc: []Allocation{
			{Address: common.HexToAddress("0x6f10cf9228870e4f49dbf46ca9b5f83fbb0cbbb7"), Balance: 10_000_000_000},
		},
	}
}

// FakeGenesis returns a genesis for a local network crediting the first
// accounts slots of FakeKey, FakeBalance each. Every node constructing
// a fakenet of the same size derives the identical configuration.
func FakeGenesis(accounts int) Genesis {
	g := Genesis{
		NetworkID: smv.FakeNetworkID,
		Time:      FakeGenesisTime,
	}
	for slot := 0; slot < accounts; slot++ {
		g.Alloc = append(g.Alloc, Allocation{
			Address: smvcrypto.KeyAddress(FakeKey(slot)),
			Balance: FakeBalance,
		})
	}
	return g
}

// ByNetwork resolves the built-in genesis for the given rules.
func ByNetwork(rules smv.Rules) Genesis {
	switch rules.NetworkID {
	case smv.MainNetworkID:
		return MainNetGenesis()
	case smv.TestNetworkID:
		return TestNetGenesis()
	default:
		return FakeGenesis(3)
	}
}

// FakeKey derives a deterministic private key for fakenet slot n: the
// same slot always yields the same key on every machine, so devnet
// nodes agree on the pre-funded accounts without exchanging keys. The
// scalar is the keccak digest of the slot counter, which keeps the
// derivation free of any randomness source.
func FakeKey(n int) *ecdsa.PrivateKey {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], uint64(n)+1)
	key, err := ethcrypto.ToECDSA(smvcrypto.Keccak256(seed[:]).Bytes())
	if err != nil {
		panic(err)
	}
	return key
}
