package core

import (
	"context"
	"math/big"
	"testing"
	"time"
)

func newBig(n int64) *big.Int { return big.NewInt(n) }

func chainAtGenesis() (*ChainInfo, *Block) {
	g := Genesis()
	return &ChainInfo{LatestBlock: g, Difficulty: InitialDifficulty}, g
}

func TestVerifyBlockAcceptsValidSuccessor(t *testing.T) {
	state := newTestState(t)
	chain, genesis := chainAtGenesis()

	miner, _ := GenerateKeyPair()
	coinbase := NewTransaction(miner.Address, newBig(BlockReward), newBig(0), nil, time.Now().UnixNano())
	if err := SignTransaction(coinbase, MintKeyPair()); err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}

	candidate := NewCandidateBlock(genesis, coinbase, nil, chain.Difficulty, genesis.Timestamp+1000)
	if err := MineBlock(context.Background(), candidate); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}

	if err := VerifyBlock(candidate, chain, state); err != nil {
		t.Fatalf("VerifyBlock: %v", err)
	}
}

func TestVerifyBlockRejectsWrongParentHash(t *testing.T) {
	state := newTestState(t)
	chain, genesis := chainAtGenesis()

	miner, _ := GenerateKeyPair()
	coinbase := NewTransaction(miner.Address, newBig(BlockReward), newBig(0), nil, time.Now().UnixNano())
	_ = SignTransaction(coinbase, MintKeyPair())

	candidate := NewCandidateBlock(genesis, coinbase, nil, chain.Difficulty, genesis.Timestamp+1000)
	candidate.ParentHash = Sha256([]byte("not the genesis hash"))
	if err := MineBlock(context.Background(), candidate); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}

	if err := VerifyBlock(candidate, chain, state); err != ErrBadParentHash {
		t.Fatalf("expected ErrBadParentHash, got %v", err)
	}
}

func TestVerifyBlockRejectsBadCoinbaseAmount(t *testing.T) {
	state := newTestState(t)
	chain, genesis := chainAtGenesis()

	miner, _ := GenerateKeyPair()
	coinbase := NewTransaction(miner.Address, newBig(BlockReward+1), newBig(0), nil, time.Now().UnixNano())
	_ = SignTransaction(coinbase, MintKeyPair())

	candidate := NewCandidateBlock(genesis, coinbase, nil, chain.Difficulty, genesis.Timestamp+1000)
	if err := MineBlock(context.Background(), candidate); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}

	if err := VerifyBlock(candidate, chain, state); err != ErrBadCoinbase {
		t.Fatalf("expected ErrBadCoinbase, got %v", err)
	}
}

func TestVerifyBlockAcceptsContractCallAndPaysContractGasReward(t *testing.T) {
	state := newTestState(t)
	chain, genesis := chainAtGenesis()

	sender, _ := GenerateKeyPair()
	contractAddr, _ := GenerateKeyPair()
	if err := state.Put(sender.Address, &Account{Balance: big.NewInt(1000), Storage: map[string]string{}, Timestamps: map[int64]bool{}}); err != nil {
		t.Fatalf("Put sender: %v", err)
	}
	if err := state.Put(contractAddr.Address, &Account{
		Balance: big.NewInt(0), Body: "HALT", CodeHash: Sha256([]byte("HALT")),
		Storage: map[string]string{}, Timestamps: map[int64]bool{},
	}); err != nil {
		t.Fatalf("Put contract: %v", err)
	}

	invoke := NewTransaction(contractAddr.Address, newBig(0), newBig(MinTxFee),
		&AdditionalData{ContractGas: newBig(MinContractFee)}, time.Now().UnixNano())
	if err := SignTransaction(invoke, sender); err != nil {
		t.Fatalf("SignTransaction invoke: %v", err)
	}

	miner, _ := GenerateKeyPair()
	wantReward := newBig(BlockReward + MinTxFee + MinContractFee)
	coinbase := NewTransaction(miner.Address, wantReward, newBig(0), nil, time.Now().UnixNano())
	if err := SignTransaction(coinbase, MintKeyPair()); err != nil {
		t.Fatalf("SignTransaction coinbase: %v", err)
	}

	candidate := NewCandidateBlock(genesis, coinbase, []*Transaction{invoke}, chain.Difficulty, genesis.Timestamp+1000)
	if err := MineBlock(context.Background(), candidate); err != nil {
		t.Fatalf("MineBlock: %v", err)
	}

	if err := VerifyBlock(candidate, chain, state); err != nil {
		t.Fatalf("VerifyBlock: %v", err)
	}
}

func TestNextDifficultyHoldsBetweenRetargets(t *testing.T) {
	chain := &ChainInfo{Difficulty: InitialDifficulty}
	parent := &Block{BlockNumber: 1}
	d, err := NextDifficulty(parent, chain, nil)
	if err != nil {
		t.Fatalf("NextDifficulty: %v", err)
	}
	if d != InitialDifficulty {
		t.Fatalf("expected difficulty to hold at %d, got %d", InitialDifficulty, d)
	}
}
