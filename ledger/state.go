package ledger

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/smvblock/go-smv/crypto"
	"github.com/smvblock/go-smv/inter"
	"github.com/smvblock/go-smv/smv/genesis"
	"github.com/smvblock/go-smv/utils/cser"
)

// Account is the ledger-side view of an address: what it owns and how
// many transactions it has successfully sent.
type Account struct {
	Balance uint64
	Nonce   uint64
}

// State maps addresses to accounts. An absent entry is the zero
// account. The Ledger owns its State exclusively; all mutation goes
// through Apply, so a State is only ever the deterministic result of
// replaying a chain from genesis.
type State struct {
	accounts map[common.Address]Account
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		accounts: make(map[common.Address]Account),
	}
}

// NewGenesisState returns the state right after the genesis minting
// event: allocations applied in address order, all nonces zero.
func NewGenesisState(g *genesis.Genesis) *State {
	s := NewState()
	for _, a := range g.SortedAlloc() {
		s.accounts[a.Address] = Account{Balance: a.Balance}
	}
	return s
}

// GetAccount returns the account of addr, or the zero account.
func (s *State) GetAccount(addr common.Address) Account {
	return s.accounts[addr]
}

// CheckTx reports whether tx is admissible against this state: the
// sender covers amount+fee and the nonce continues the account's
// sequence. Structural validity (signature, amount) is not re-checked
// here.
func (s *State) CheckTx(tx *inter.Transaction) error {
	sender := s.accounts[tx.Sender]

	cost, ok := tx.Cost()
	if !ok || sender.Balance < cost {
		return fmt.Errorf("%w: account %s has %d, needs %d",
			ErrInsufficientBalance, tx.Sender.Hex(), sender.Balance, cost)
	}
	if tx.Nonce != sender.Nonce+1 {
		return fmt.Errorf("%w: account %s expects nonce %d, got %d",
			ErrInvalidNonce, tx.Sender.Hex(), sender.Nonce+1, tx.Nonce)
	}
	return nil
}

// Apply executes tx: debits the sender amount+fee, credits the
// recipient amount and bumps the sender nonce. The fee is burned. It
// re-validates against the current state first, so a check performed
// against a stale snapshot can never corrupt balances; on error the
// state is left untouched.
func (s *State) Apply(tx *inter.Transaction) error {
	if err := s.CheckTx(tx); err != nil {
		return err
	}

	cost, _ := tx.Cost()
	sender := s.accounts[tx.Sender]
	sender.Balance -= cost
	sender.Nonce++
	s.accounts[tx.Sender] = sender

	recipient := s.accounts[tx.Recipient]
	recipient.Balance += tx.Amount
	s.accounts[tx.Recipient] = recipient
	return nil
}

// Copy returns an independent snapshot, used as the miner's scratch
// state while selecting a conflict-free batch.
func (s *State) Copy() *State {
	cp := &State{
		accounts: make(map[common.Address]Account, len(s.accounts)),
	}
	for addr, acc := range s.accounts {
		cp.accounts[addr] = acc
	}
	return cp
}

// Len returns the number of non-zero accounts.
func (s *State) Len() int {
	return len(s.accounts)
}

// TotalBalance sums every account balance. Together with burned fees
// it always equals the genesis supply.
func (s *State) TotalBalance() uint64 {
	var total uint64
	for _, acc := range s.accounts {
		total += acc.Balance
	}
	return total
}

// Root returns a digest of the whole state over its canonical, sorted
// encoding. Identical replays yield identical roots, which the status
// surface and the replay tests rely on.
func (s *State) Root() common.Hash {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})

	raw, err := cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		w.U32(uint32(len(addrs)))
		for _, addr := range addrs {
			acc := s.accounts[addr]
			w.FixedBytes(addr[:])
			w.U64(acc.Balance)
			w.U64(acc.Nonce)
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256(raw)
}
