package core

import (
	"math/big"
	"testing"
)

func TestTxPoolAddAndDrain(t *testing.T) {
	state := newTestState(t)
	pool := NewTxPool()

	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(1000)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx := NewTransaction(kp.Address, big.NewInt(10), big.NewInt(MinTxFee), nil, 1)
	_ = SignTransaction(tx, kp)

	if err := pool.Add(tx, state); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if pool.Len() != 1 {
		t.Fatalf("expected pool length 1, got %d", pool.Len())
	}

	drained := pool.Drain()
	if len(drained) != 1 {
		t.Fatalf("expected 1 drained tx, got %d", len(drained))
	}
	if pool.Len() != 0 {
		t.Fatal("expected pool to be empty after Drain")
	}
}

func TestTxPoolRejectsCumulativeOverspend(t *testing.T) {
	state := newTestState(t)
	pool := NewTxPool()

	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(20)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx1 := NewTransaction(kp.Address, big.NewInt(10), big.NewInt(MinTxFee), nil, 1)
	_ = SignTransaction(tx1, kp)
	if err := pool.Add(tx1, state); err != nil {
		t.Fatalf("Add tx1: %v", err)
	}

	tx2 := NewTransaction(kp.Address, big.NewInt(10), big.NewInt(MinTxFee), nil, 2)
	_ = SignTransaction(tx2, kp)
	if err := pool.Add(tx2, state); err != ErrInsufficientFunds {
		t.Fatalf("expected second transaction to exceed balance, got %v", err)
	}
}

func TestTxPoolRejectsCumulativeOverspendWithContractGas(t *testing.T) {
	state := newTestState(t)
	pool := NewTxPool()

	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(15)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// amount(0) + gas(MinTxFee=1) + contractGas(MinContractFee=10) == 11,
	// leaving only 4 of the account's 15 balance for anything else queued.
	call := NewTransaction(kp.Address, big.NewInt(0), big.NewInt(MinTxFee),
		&AdditionalData{ContractGas: big.NewInt(MinContractFee)}, 1)
	_ = SignTransaction(call, kp)
	if err := pool.Add(call, state); err != nil {
		t.Fatalf("Add call: %v", err)
	}

	transfer := NewTransaction(kp.Address, big.NewInt(5), big.NewInt(MinTxFee), nil, 2)
	_ = SignTransaction(transfer, kp)
	if err := pool.Add(transfer, state); err != ErrInsufficientFunds {
		t.Fatalf("expected contractGas reservation to push sender over balance, got %v", err)
	}
}

func TestTxPoolRejectsDuplicateTimestamp(t *testing.T) {
	state := newTestState(t)
	pool := NewTxPool()

	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(1000)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx1 := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(MinTxFee), nil, 9)
	_ = SignTransaction(tx1, kp)
	if err := pool.Add(tx1, state); err != nil {
		t.Fatalf("Add tx1: %v", err)
	}

	tx2 := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(MinTxFee), nil, 9)
	_ = SignTransaction(tx2, kp)
	if err := pool.Add(tx2, state); err != ErrReplayedTimestamp {
		t.Fatalf("expected ErrReplayedTimestamp, got %v", err)
	}
}
