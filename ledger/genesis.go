package ledger

import (
	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/smv/genesis"
)

// GenesisBlock builds the height-0 block for a genesis config. It is
// fully determined by the config: PrevHash is the genesis sentinel (the
// config hash), so two nodes agree on the genesis block if and only if
// they were booted from the same config. The genesis block carries no
// transactions and no proof-of-work; it is verified by identity, not by
// target.
func GenesisBlock(g *genesis.Genesis) *inter.Block {
	b := &inter.Block{
		Index:    0,
		PrevHash: g.Hash(),
		Time:     g.Time,
	}
	b.Hash = b.CalcHash()
	return b
}
