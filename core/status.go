package core

// status.go — the read-only chain status view (SPEC_FULL.md §6), mirroring
// this module's consensus_difficulty.go ConsensusStatus shape. Consumed by
// the query-server collaborator (queryserver/) and by log lines.

// ChainStatus is a point-in-time snapshot of node state safe to expose over
// the read-only interface (spec §6).
type ChainStatus struct {
	Height      uint64 `json:"height"`
	HeadHash    string `json:"headHash"`
	Difficulty  int    `json:"difficulty"`
	MempoolSize int    `json:"mempoolSize"`
	Mining      bool   `json:"mining"`
	Syncing     bool   `json:"syncing"`
}

// Snapshot builds a ChainStatus from the live chain/pool state.
func Snapshot(chain *ChainInfo, pool *TxPool, mining bool) ChainStatus {
	head := chain.LatestBlock
	st := ChainStatus{
		Difficulty:  chain.Difficulty,
		MempoolSize: pool.Len(),
		Mining:      mining,
		Syncing:     chain.LatestSyncBlock != nil,
	}
	if head != nil {
		st.Height = head.BlockNumber
		st.HeadHash = head.Hash.Hex()
	}
	return st
}
