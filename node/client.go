package node

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/smvblock/go-smv/inter"
)

// Client is one protocol connection to a remote node. It is not safe
// for concurrent use; the protocol is strictly request-response per
// connection.
type Client struct {
	conn   net.Conn
	reader *bufio.Scanner
	writer *bufio.Writer
}

// Dial connects to a node and introduces itself with hello.
func Dial(addr string, hello Hello) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	c := &Client{
		conn:   conn,
		reader: newLineScanner(bufio.NewReader(conn)),
		writer: bufio.NewWriter(conn),
	}
	m, err := NewMessage(MsgHello, hello)
	if err != nil {
		c.Close()
		return nil, err
	}
	if err := c.send(m); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Status asks the remote node for its chain tip.
func (c *Client) Status() (Status, error) {
	reply, err := c.roundTrip(Message{Type: MsgGetStatus}, MsgStatus)
	if err != nil {
		return Status{}, err
	}
	var status Status
	err = reply.Decode(&status)
	return status, err
}

// Peers asks the remote node for its peer list.
func (c *Client) Peers() ([]string, error) {
	reply, err := c.roundTrip(Message{Type: MsgGetPeers}, MsgPeers)
	if err != nil {
		return nil, err
	}
	var peers Peers
	if err := reply.Decode(&peers); err != nil {
		return nil, err
	}
	return peers.Addrs, nil
}

// SubmitTx sends a transaction for pool admission and returns the
// remote receipt. A receipt with Accepted false carries the rejection
// reason in Error.
func (c *Client) SubmitTx(tx *inter.Transaction) (TxReceipt, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return TxReceipt{}, err
	}
	m, err := NewMessage(MsgSendTx, SendTx{Raw: raw})
	if err != nil {
		return TxReceipt{}, err
	}
	reply, err := c.roundTrip(m, MsgTxReceipt)
	if err != nil {
		return TxReceipt{}, err
	}
	var receipt TxReceipt
	err = reply.Decode(&receipt)
	return receipt, err
}

// FetchChain downloads the remote node's whole chain. The result is
// untrusted until the ledger replays it.
func (c *Client) FetchChain() ([]*inter.Block, error) {
	reply, err := c.roundTrip(Message{Type: MsgGetChain}, MsgChain)
	if err != nil {
		return nil, err
	}
	var chain Chain
	if err := reply.Decode(&chain); err != nil {
		return nil, err
	}
	return chain.DecodeChain()
}

// PushChain offers a chain to the remote node, without waiting for a
// verdict.
func (c *Client) PushChain(blocks []*inter.Block) error {
	chain, err := EncodeChain(blocks)
	if err != nil {
		return err
	}
	m, err := NewMessage(MsgChain, chain)
	if err != nil {
		return err
	}
	return c.send(m)
}

func (c *Client) send(m Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(connTimeout))
	return writeMessage(c.writer, m)
}

func (c *Client) roundTrip(m Message, wantType string) (Message, error) {
	if err := c.send(m); err != nil {
		return Message{}, err
	}
	c.conn.SetReadDeadline(time.Now().Add(connTimeout))
	reply, err := readMessage(c.reader)
	if err != nil {
		return Message{}, err
	}
	if reply.Type == MsgError {
		var remote Error
		if err := reply.Decode(&remote); err == nil && remote.Error != "" {
			return Message{}, fmt.Errorf("remote rejected %q: %s", m.Type, remote.Error)
		}
	}
	if reply.Type != wantType {
		return Message{}, fmt.Errorf("unexpected reply %q to %q", reply.Type, m.Type)
	}
	return reply, nil
}
