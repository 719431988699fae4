package core

// mining.go — the mining coordinator (spec §4.7). Grounded on this module's
// mining_node.go start/stop loop, re-architected as a context-cancellation
// restart instead of a kill-and-respawn OS process: a new head arriving (locally mined or
// gossiped in) cancels the in-flight search and starts a fresh one on top
// of the new head.

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Miner runs one block's worth of proof-of-work search at a time against
// the pool and chain it is given, restarting whenever Restart is called.
type Miner struct {
	chain *ChainInfo
	state *StateStore
	pool  *TxPool
	miner *KeyPair
	log   *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc

	// OnMined is invoked with every block this Miner successfully seals,
	// so the caller (cmd/node/main.go) can apply it locally and gossip it.
	OnMined func(*Block)
}

func NewMiner(chain *ChainInfo, state *StateStore, pool *TxPool, miner *KeyPair, log *logrus.Logger) *Miner {
	return &Miner{chain: chain, state: state, pool: pool, miner: miner, log: log}
}

// Start begins mining continuously on top of the current chain head,
// re-assembling a fresh candidate block each time the previous search
// concludes or is pre-empted. It blocks until ctx is cancelled.
func (m *Miner) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.mineOnce(ctx)
	}
}

func (m *Miner) mineOnce(parentCtx context.Context) {
	searchCtx, cancel := context.WithCancel(parentCtx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	parent := m.chain.LatestBlock
	pending := m.pool.Drain()
	coinbase := m.buildCoinbase(pending)

	candidate := NewCandidateBlock(parent, coinbase, pending, m.chain.Difficulty, time.Now().UnixMilli())

	if err := MineBlock(searchCtx, candidate); err != nil {
		// Pre-empted or otherwise failed: put the unconfirmed transactions
		// back so the next attempt can pick them up.
		m.pool.Requeue(pending)
		return
	}

	if m.OnMined != nil {
		m.OnMined(candidate)
	}
}

func (m *Miner) buildCoinbase(pending []*Transaction) *Transaction {
	fees := new(big.Int)
	for _, tx := range pending {
		fees.Add(fees, tx.Gas)
		if tx.AdditionalData.IsContractCall() {
			fees.Add(fees, tx.AdditionalData.ContractGas)
		}
	}
	reward := new(big.Int).Add(big.NewInt(BlockReward), fees)
	tx := NewTransaction(m.miner.Address, reward, big.NewInt(0), nil, time.Now().UnixNano())
	if err := SignTransaction(tx, MintKeyPair()); err != nil {
		panic("core: failed to sign coinbase: " + err.Error())
	}
	return tx
}

// Restart cancels the in-flight search, if any, so the next loop iteration
// of Start picks up the (presumably updated) chain head. Call this whenever
// a new block is accepted, whether mined locally or received via gossip.
func (m *Miner) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}
