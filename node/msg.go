package node

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/smvblock/go-smv/inter"
)

// The peer protocol is newline-delimited JSON: one Message per line.
// Transactions and blocks travel as hex blobs of their canonical binary
// encoding, so the JSON layer never influences hashes.
const (
	MsgHello     = "hello"
	MsgGetStatus = "get_status"
	MsgStatus    = "status"
	MsgGetPeers  = "get_peers"
	MsgPeers     = "peers"
	MsgSendTx    = "send_tx"
	MsgTxReceipt = "tx_receipt"
	MsgGetChain  = "get_chain"
	MsgChain     = "chain"
	MsgError     = "error"
)

// maxMsgSize bounds one protocol line read from a peer.
const maxMsgSize = 16 * 1024 * 1024

// Message is the envelope every protocol line carries.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hello introduces a peer: who it is and which network it carries.
// Peers on a different network ID or genesis are dropped right away.
type Hello struct {
	ListenAddr string      `json:"listenAddr"`
	NodeType   Type        `json:"nodeType"`
	NetworkID  uint64      `json:"networkId"`
	Genesis    common.Hash `json:"genesis"`
}

// Status reports the chain tip of a peer.
type Status struct {
	Head      common.Hash `json:"head"`
	Height    uint64      `json:"height"`
	StateRoot common.Hash `json:"stateRoot"`
	Pending   int         `json:"pending"`
}

// Peers lists the peer addresses a node knows about.
type Peers struct {
	Addrs []string `json:"addrs"`
}

// SendTx submits one encoded transaction for pool admission.
type SendTx struct {
	Raw hexutil.Bytes `json:"raw"`
}

// TxReceipt acknowledges a SendTx.
type TxReceipt struct {
	Accepted bool        `json:"accepted"`
	Hash     common.Hash `json:"hash"`
	Error    string      `json:"error,omitempty"`
}

// Chain carries a whole encoded block sequence, genesis first. It is
// both the reply to MsgGetChain and the push sent after mining.
type Chain struct {
	Blocks []hexutil.Bytes `json:"blocks"`
}

// Error reports a rejected request.
type Error struct {
	Error string `json:"error"`
}

// NewMessage wraps a payload into an envelope.
func NewMessage(typ string, payload interface{}) (Message, error) {
	m := Message{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Message{}, err
		}
		m.Payload = raw
	}
	return m, nil
}

// Decode unpacks the payload into out.
func (m Message) Decode(out interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("message %q carries no payload", m.Type)
	}
	return json.Unmarshal(m.Payload, out)
}

// EncodeChain packs blocks into a Chain payload. The estimated wire
// size is checked against the protocol line cap before any encoding
// work is done.
func EncodeChain(blocks []*inter.Block) (Chain, error) {
	est := 0
	for _, b := range blocks {
		est += b.EstimateSize()
	}
	// hex blobs double the binary size on the wire
	if 2*est > maxMsgSize {
		return Chain{}, fmt.Errorf("chain of %d blocks (~%d wire bytes) exceeds the message cap",
			len(blocks), 2*est)
	}
	out := Chain{
		Blocks: make([]hexutil.Bytes, len(blocks)),
	}
	for i, b := range blocks {
		raw, err := b.MarshalBinary()
		if err != nil {
			return Chain{}, fmt.Errorf("failed to encode block %d: %w", b.Index, err)
		}
		out.Blocks[i] = raw
	}
	return out, nil
}

// DecodeChain unpacks a Chain payload into untrusted blocks.
func (c Chain) DecodeChain() ([]*inter.Block, error) {
	blocks := make([]*inter.Block, len(c.Blocks))
	for i, raw := range c.Blocks {
		b := &inter.Block{}
		if err := b.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("malformed block at position %d: %w", i, err)
		}
		blocks[i] = b
	}
	return blocks, nil
}

func writeMessage(w *bufio.Writer, m Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

func readMessage(s *bufio.Scanner) (Message, error) {
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return Message{}, err
		}
		return Message{}, fmt.Errorf("connection closed")
	}
	var m Message
	if err := json.Unmarshal(s.Bytes(), &m); err != nil {
		return Message{}, fmt.Errorf("malformed message: %w", err)
	}
	return m, nil
}

func newLineScanner(r *bufio.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxMsgSize)
	return s
}
