// Package p2p implements the gossip transport and initial-sync state
// machine (spec §4.8): a framed-JSON-over-WebSocket mesh replacing this
// module's libp2p pubsub mesh (core/network.go), since the spec's wire
// protocol is explicitly framed JSON over WebSocket rather than a libp2p
// multiplexed stream set.
package p2p

import (
	"encoding/json"

	"synnergy-network/core"
)

// MessageType identifies the five message kinds spec §4.8's wire table
// defines.
type MessageType string

const (
	Handshake         MessageType = "HANDSHAKE"
	CreateTransaction MessageType = "CREATE_TRANSACTION"
	NewBlock          MessageType = "NEW_BLOCK"
	RequestBlock      MessageType = "REQUEST_BLOCK"
	SendBlock         MessageType = "SEND_BLOCK"
)

// Envelope is the framed JSON message every peer connection exchanges.
type Envelope struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// UnmarshalJSON keeps Data as the payload's raw JSON, so big integers
// (signature r/s, amounts, balances) reach decodeEnvelope intact instead of
// being narrowed to float64.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Type = raw.Type
	e.Data = raw.Data
	return nil
}

// HandshakePayload advertises the sender's own address and its known peer
// addresses so the receiver can extend its own peer table (spec §4.8).
type HandshakePayload struct {
	Peers []string `json:"peers"`
}

// CreateTransactionPayload carries a signed transaction to be validated,
// pooled, and re-gossiped.
type CreateTransactionPayload struct {
	Transaction *core.Transaction `json:"transaction"`
}

// NewBlockPayload announces a newly mined or received block.
type NewBlockPayload struct {
	Block *core.Block `json:"block"`
}

// RequestBlockPayload asks a peer for a specific block by height, used
// during initial sync.
type RequestBlockPayload struct {
	BlockNumber uint64 `json:"blockNumber"`
}

// SendBlockPayload answers a RequestBlockPayload.
type SendBlockPayload struct {
	Block *core.Block `json:"block"`
}
