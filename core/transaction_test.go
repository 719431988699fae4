package core

import (
	"math/big"
	"testing"

	"github.com/sirupsen/logrus"

	"synnergy-network/internal/testutil"
)

func newTestState(t *testing.T) *StateStore {
	t.Helper()
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox: %v", err)
	}
	t.Cleanup(func() { sb.Cleanup() })

	kv, err := OpenLevelStore(sb.Path("state"), logrus.New())
	if err != nil {
		t.Fatalf("OpenLevelStore: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	return NewStateStore(kv, logrus.New())
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	tx := NewTransaction(kp.Address, big.NewInt(10), big.NewInt(MinTxFee), nil, 1000)
	if err := SignTransaction(tx, kp); err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	if !DeriveAndVerify(tx) {
		t.Fatal("expected signature to verify")
	}
	if tx.Sender != kp.Address {
		t.Fatalf("sender mismatch: got %s want %s", tx.Sender.Hex(), kp.Address.Hex())
	}
}

func TestVerifyRejectsTamperedAmount(t *testing.T) {
	kp, _ := GenerateKeyPair()
	tx := NewTransaction(kp.Address, big.NewInt(10), big.NewInt(MinTxFee), nil, 1000)
	_ = SignTransaction(tx, kp)

	tx.Amount = big.NewInt(999)
	if DeriveAndVerify(tx) {
		t.Fatal("expected tampered transaction to fail verification")
	}
}

func TestValidateAgainstStateUnknownSender(t *testing.T) {
	state := newTestState(t)
	kp, _ := GenerateKeyPair()
	tx := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(MinTxFee), nil, 1)
	_ = SignTransaction(tx, kp)

	if err := ValidateAgainstState(tx, state); err != ErrUnknownSender {
		t.Fatalf("expected ErrUnknownSender, got %v", err)
	}
}

func TestValidateAgainstStateInsufficientFunds(t *testing.T) {
	state := newTestState(t)
	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(5)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx := NewTransaction(kp.Address, big.NewInt(10), big.NewInt(MinTxFee), nil, 1)
	_ = SignTransaction(tx, kp)

	if err := ValidateAgainstState(tx, state); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestValidateAgainstStateReplayedTimestamp(t *testing.T) {
	state := newTestState(t)
	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(1000)
	acct.Timestamps[42] = true
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(MinTxFee), nil, 42)
	_ = SignTransaction(tx, kp)

	if err := ValidateAgainstState(tx, state); err != ErrReplayedTimestamp {
		t.Fatalf("expected ErrReplayedTimestamp, got %v", err)
	}
}

func TestValidateAgainstStateFeeTooLow(t *testing.T) {
	state := newTestState(t)
	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(1000)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(0), nil, 1)
	_ = SignTransaction(tx, kp)

	if err := ValidateAgainstState(tx, state); err != ErrFeeTooLow {
		t.Fatalf("expected ErrFeeTooLow, got %v", err)
	}
}

func TestValidateAgainstStateContractGasBelowFloor(t *testing.T) {
	state := newTestState(t)
	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	acct.Balance = big.NewInt(1000)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(MinTxFee),
		&AdditionalData{ContractGas: big.NewInt(MinContractFee - 1)}, 1)
	_ = SignTransaction(tx, kp)

	if err := ValidateAgainstState(tx, state); err != ErrFeeTooLow {
		t.Fatalf("expected ErrFeeTooLow for contractGas below MinContractFee, got %v", err)
	}
}

func TestValidateAgainstStateIncludesContractGasInBalanceCheck(t *testing.T) {
	state := newTestState(t)
	kp, _ := GenerateKeyPair()
	acct := NewAccount()
	// Covers amount+gas but not the additional contractGas.
	acct.Balance = big.NewInt(1 + MinTxFee + MinContractFee - 1)
	if err := state.Put(kp.Address, acct); err != nil {
		t.Fatalf("Put: %v", err)
	}

	tx := NewTransaction(kp.Address, big.NewInt(1), big.NewInt(MinTxFee),
		&AdditionalData{ContractGas: big.NewInt(MinContractFee)}, 1)
	_ = SignTransaction(tx, kp)

	if err := ValidateAgainstState(tx, state); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds once contractGas is counted, got %v", err)
	}
}

func TestMintSenderBypassesBalanceChecks(t *testing.T) {
	state := newTestState(t)
	tx := NewTransaction(MintAddress(), big.NewInt(0), big.NewInt(0), nil, 7)
	if err := SignTransaction(tx, MintKeyPair()); err != nil {
		t.Fatalf("SignTransaction: %v", err)
	}
	if err := ValidateAgainstState(tx, state); err != nil {
		t.Fatalf("expected MINT transaction to validate, got %v", err)
	}
}
