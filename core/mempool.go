package core

// mempool.go — the pending-transaction pool (spec §4.6). Grounded on this
// module's txpool_addtx.go acceptance path, generalized to track cumulative
// per-sender balance commitments (so a sender cannot queue more spending
// than their on-chain balance covers) and to revalidate against a new head
// on every accepted block.

import (
	"math/big"
	"sync"
)

// TxPool holds transactions that have passed ValidateAgainstState but are
// not yet included in a block.
type TxPool struct {
	mu       sync.Mutex
	pending  []*Transaction
	byTime   map[int64]bool
	reserved map[Address]*big.Int // cumulative amount+gas+contractGas already queued per sender
}

func NewTxPool() *TxPool {
	return &TxPool{
		byTime:   make(map[int64]bool),
		reserved: make(map[Address]*big.Int),
	}
}

// Add validates tx against state, then checks it against every other
// transaction already queued from the same sender: the sender's on-chain
// balance must cover the sum of everything they have pending plus this new
// transaction (spec §4.6 — pool-wide, not just per-transaction, balance
// enforcement).
func (p *TxPool) Add(tx *Transaction, state *StateStore) error {
	if err := ValidateAgainstState(tx, state); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.byTime[tx.Timestamp] {
		return ErrReplayedTimestamp
	}

	if tx.Sender != MintAddress() {
		sender, err := state.Get(tx.Sender)
		if err != nil {
			return err
		}
		already := p.reserved[tx.Sender]
		if already == nil {
			already = big.NewInt(0)
		}
		total := new(big.Int).Add(already, tx.Amount)
		total.Add(total, tx.Gas)
		if tx.AdditionalData.IsContractCall() {
			total.Add(total, tx.AdditionalData.ContractGas)
		}
		if sender.Balance.Cmp(total) < 0 {
			return ErrInsufficientFunds
		}
		p.reserved[tx.Sender] = total
	}

	p.byTime[tx.Timestamp] = true
	p.pending = append(p.pending, tx)
	return nil
}

// Drain returns every pending transaction and empties the pool. Called by
// the mining coordinator when assembling a candidate block.
func (p *TxPool) Drain() []*Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	p.byTime = make(map[int64]bool)
	p.reserved = make(map[Address]*big.Int)
	return out
}

// Requeue puts transactions back at the front of the pool, e.g. when a
// candidate block built from them loses a mining race (spec §4.7). It does
// not re-run ValidateAgainstState; callers that requeue after a rejected
// block should call Revalidate instead.
func (p *TxPool) Requeue(txs []*Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range txs {
		p.byTime[tx.Timestamp] = true
	}
	p.pending = append(txs, p.pending...)
}

// Revalidate drops every queued transaction that ValidateAgainstState no
// longer accepts against the post-block state (spec §4.6: "the pool is
// revalidated whenever a new block is applied").
func (p *TxPool) Revalidate(state *StateStore) {
	p.mu.Lock()
	old := p.pending
	p.pending = nil
	p.byTime = make(map[int64]bool)
	p.reserved = make(map[Address]*big.Int)
	p.mu.Unlock()

	for _, tx := range old {
		_ = p.Add(tx, state)
	}
}

// Len reports the number of transactions currently queued.
func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
