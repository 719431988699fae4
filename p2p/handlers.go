package p2p

// handlers.go — wires inbound gossip Envelopes into core's validation,
// state-transition, mempool and sync logic (spec §4.8). Grounded on this
// module's blockchain_synchronization.go dispatch loop, adapted from its
// libp2p InboundMsg channel to this package's WebSocket read loop.

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"synnergy-network/core"
)

// Handlers bundles everything a gossip Envelope handler needs: the chain
// head/difficulty bookkeeping, the on-disk stores, the mempool, the sync
// state machine, and a way to restart mining when a new head lands.
type Handlers struct {
	Chain             *core.ChainInfo
	Blocks            *core.BlockStore
	State             *core.StateStore
	Pool              *core.TxPool
	Sync              *SyncManager
	Node              *Node
	Log               *logrus.Logger
	EnableChainRequest bool // spec §4.8: only enter SYNCING when this is set
	OnNewHead         func(*core.Block) // typically Miner.Restart
}

// Dispatch returns the Handler NewNode requires, closing over h.
func (h *Handlers) Dispatch() Handler {
	return func(ctx context.Context, from *Peer, env *Envelope) {
		switch env.Type {
		case Handshake:
			h.handleHandshake(ctx, from, env)
		case CreateTransaction:
			h.handleCreateTransaction(env)
		case NewBlock:
			h.handleNewBlock(from, env)
		case RequestBlock:
			h.handleRequestBlock(from, env)
		case SendBlock:
			h.handleSendBlock(from, env)
		default:
			h.Log.WithField("type", env.Type).Debug("dropping unknown gossip message")
		}
	}
}

// decodeEnvelope re-marshals env.Data into the concrete payload type T. On a
// received Envelope, Data holds the payload's raw JSON (see
// Envelope.UnmarshalJSON), since its shape depends on the Type.
func decodeEnvelope[T any](env *Envelope) (T, bool) {
	var payload T
	raw, err := json.Marshal(env.Data)
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, false
	}
	return payload, true
}

func (h *Handlers) handleHandshake(ctx context.Context, from *Peer, env *Envelope) {
	payload, ok := decodeEnvelope[HandshakePayload](env)
	if !ok {
		return
	}
	fresh := h.Node.Peers().LearnAddresses(payload.Peers)
	for _, addr := range fresh {
		if _, err := h.Node.Dial(ctx, addr); err != nil {
			h.Log.WithError(err).WithField("addr", addr).Debug("gossip-learned peer dial failed")
		}
	}

	// spec §4.8: entering SYNCING is a per-node startup decision gated on
	// ENABLE_CHAIN_REQUEST, not something every inbound handshake triggers.
	if h.EnableChainRequest {
		if began, height := h.Sync.BeginSync(h.Chain.LatestBlock.BlockNumber + 1); began {
			_ = from.Send(&Envelope{Type: RequestBlock, Data: RequestBlockPayload{BlockNumber: height}})
		}
	}
}

func (h *Handlers) handleCreateTransaction(env *Envelope) {
	payload, ok := decodeEnvelope[CreateTransactionPayload](env)
	if !ok || payload.Transaction == nil {
		return
	}
	if err := h.Pool.Add(payload.Transaction, h.State); err != nil {
		h.Log.WithError(err).Debug("dropping invalid gossiped transaction")
		return
	}
	h.Node.Broadcast(env)
}

func (h *Handlers) handleNewBlock(from *Peer, env *Envelope) {
	payload, ok := decodeEnvelope[NewBlockPayload](env)
	if !ok || payload.Block == nil {
		return
	}
	b := payload.Block

	// spec §9 bullet 1: compare against the current head's Hash, not its
	// ParentHash — accepting a block whose parent matches our head's
	// parent (a sibling) is the bug the original description calls out,
	// and is fixed here rather than preserved.
	if h.Chain.LatestBlock == nil || b.ParentHash != h.Chain.LatestBlock.Hash {
		h.Log.Debug("dropping NEW_BLOCK with stale or unknown parent")
		return
	}

	if err := core.VerifyBlock(b, h.Chain, h.State); err != nil {
		h.Log.WithError(err).Debug("dropping invalid NEW_BLOCK")
		return
	}
	if err := core.ApplyBlock(b, h.State, h.Log, true); err != nil {
		h.Log.WithError(err).Error("failed to apply verified block")
		return
	}
	if err := h.Blocks.Put(b); err != nil {
		h.Log.WithError(err).Error("failed to persist block")
		return
	}

	h.Chain.LatestBlock = b
	if next, err := core.NextDifficulty(b, h.Chain, h.Blocks); err == nil {
		h.Chain.Difficulty = next
	}
	h.Pool.Revalidate(h.State)
	h.Sync.Complete()

	if h.OnNewHead != nil {
		h.OnNewHead(b)
	}
	h.Node.Broadcast(env)
}

func (h *Handlers) handleRequestBlock(from *Peer, env *Envelope) {
	// spec §4.8: only serve REQUEST_BLOCK once this node is itself SYNCED,
	// and only for 1 <= blockNumber <= currentHead.
	if h.Sync.State() != Synced {
		return
	}
	payload, ok := decodeEnvelope[RequestBlockPayload](env)
	if !ok {
		return
	}
	head := h.Chain.LatestBlock
	if head == nil || payload.BlockNumber < 1 || payload.BlockNumber > head.BlockNumber {
		return
	}
	b, err := h.Blocks.Get(payload.BlockNumber)
	if err != nil {
		return
	}
	_ = from.Send(&Envelope{Type: SendBlock, Data: SendBlockPayload{Block: b}})
}

func (h *Handlers) handleSendBlock(from *Peer, env *Envelope) {
	payload, ok := decodeEnvelope[SendBlockPayload](env)
	if !ok || payload.Block == nil {
		return
	}
	b := payload.Block

	if err := core.VerifyBlock(b, h.Chain, h.State); err != nil {
		h.Log.WithError(err).Debug("dropping invalid SEND_BLOCK")
		return
	}
	if err := core.ApplyBlock(b, h.State, h.Log, true); err != nil {
		h.Log.WithError(err).Error("failed to apply synced block")
		return
	}
	if err := h.Blocks.Put(b); err != nil {
		h.Log.WithError(err).Error("failed to persist synced block")
		return
	}
	h.Chain.LatestBlock = b
	if next, err := core.NextDifficulty(b, h.Chain, h.Blocks); err == nil {
		h.Chain.Difficulty = next
	}

	nextHeight := h.Sync.AdvanceRequest()
	_ = from.Send(&Envelope{Type: RequestBlock, Data: RequestBlockPayload{BlockNumber: nextHeight}})
}
