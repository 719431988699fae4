package core

// block.go — block construction and the proof-of-work nonce search (spec
// §4.4/§4.7). Grounded on this module's SealMainBlockPOW nonce loop, adapted
// from little-endian header bytes to serialize.go's canonical string
// pre-image and from a byte-threshold target to the hex-leading-zero-nibble
// difficulty scheme spec §3 defines.

import (
	"context"
	"math"
	"math/big"
)

// NewCandidateBlock assembles an unsealed block (Nonce 0, Hash unset) ready
// for mining: the coinbase transaction first, then the supplied pool
// transactions in order, stopping at the first one that would push the
// cumulative contractGas past BlockGasLimit.
func NewCandidateBlock(parent *Block, coinbase *Transaction, pending []*Transaction, difficulty int, timestamp int64) *Block {
	txs := make([]*Transaction, 0, len(pending)+1)
	txs = append(txs, coinbase)

	contractGasUsed := new(big.Int)
	for _, tx := range pending {
		next := new(big.Int).Set(contractGasUsed)
		if tx.AdditionalData.IsContractCall() {
			next.Add(next, tx.AdditionalData.ContractGas)
		}
		if next.Cmp(big.NewInt(BlockGasLimit)) > 0 {
			break
		}
		contractGasUsed = next
		txs = append(txs, tx)
	}

	return &Block{
		BlockNumber:  parent.BlockNumber + 1,
		Timestamp:    timestamp,
		Transactions: txs,
		Difficulty:   difficulty,
		ParentHash:   parent.Hash,
	}
}

// MineBlock searches for a nonce satisfying b.Difficulty leading hex-zero
// nibbles, starting from nonce 0. It returns ctx.Err() if ctx is cancelled
// before a solution is found — the mining coordinator (mining.go) uses this
// to pre-empt a search when a competing block arrives (spec §4.7).
func MineBlock(ctx context.Context, b *Block) error {
	for nonce := uint64(0); nonce < math.MaxUint64; nonce++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		b.Nonce = nonce
		h := BlockHash(b)
		if LeadingZeroNibbles(h) >= b.Difficulty {
			b.Hash = h
			return nil
		}
	}
	return ErrPoWNotMet
}
