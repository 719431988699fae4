package core

import (
	"math/big"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestApplyBlockCreditsCoinbaseAndTransfers(t *testing.T) {
	state := newTestState(t)
	log := logrus.New()

	miner, _ := GenerateKeyPair()
	sender, _ := GenerateKeyPair()
	recipient, _ := GenerateKeyPair()

	if err := state.Put(sender.Address, &Account{Balance: big.NewInt(100), Storage: map[string]string{}, Timestamps: map[int64]bool{}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	coinbase := NewTransaction(miner.Address, big.NewInt(BlockReward), big.NewInt(0), nil, 1)
	_ = SignTransaction(coinbase, MintKeyPair())

	transfer := NewTransaction(recipient.Address, big.NewInt(30), big.NewInt(MinTxFee), nil, 2)
	_ = SignTransaction(transfer, sender)

	b := &Block{BlockNumber: 1, Transactions: []*Transaction{coinbase, transfer}}

	if err := ApplyBlock(b, state, log, false); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}

	minerAcct, err := state.Get(miner.Address)
	if err != nil {
		t.Fatalf("Get miner: %v", err)
	}
	if minerAcct.Balance.Cmp(big.NewInt(BlockReward)) != 0 {
		t.Fatalf("expected miner balance %d, got %s", BlockReward, minerAcct.Balance)
	}

	senderAcct, err := state.Get(sender.Address)
	if err != nil {
		t.Fatalf("Get sender: %v", err)
	}
	if senderAcct.Balance.Cmp(big.NewInt(69)) != 0 {
		t.Fatalf("expected sender balance 69, got %s", senderAcct.Balance)
	}
	if !senderAcct.Timestamps[2] {
		t.Fatal("expected sender timestamp 2 to be recorded")
	}

	recipAcct, err := state.Get(recipient.Address)
	if err != nil {
		t.Fatalf("Get recipient: %v", err)
	}
	if recipAcct.Balance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected recipient balance 30, got %s", recipAcct.Balance)
	}
}

func TestApplyBlockDeploysContractOnFirstTransfer(t *testing.T) {
	state := newTestState(t)
	log := logrus.New()

	sender, _ := GenerateKeyPair()
	contractAddr, _ := GenerateKeyPair()

	if err := state.Put(sender.Address, &Account{Balance: big.NewInt(1000), Storage: map[string]string{}, Timestamps: map[int64]bool{}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	coinbase := NewTransaction(sender.Address, big.NewInt(0), big.NewInt(0), nil, 1)
	_ = SignTransaction(coinbase, MintKeyPair())

	deploy := NewTransaction(contractAddr.Address, big.NewInt(0), big.NewInt(MinContractFee),
		&AdditionalData{SCBody: "PUSH 1 HALT"}, 2)
	_ = SignTransaction(deploy, sender)

	b := &Block{BlockNumber: 1, Transactions: []*Transaction{coinbase, deploy}}
	if err := ApplyBlock(b, state, log, false); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}

	acct, err := state.Get(contractAddr.Address)
	if err != nil {
		t.Fatalf("Get contract: %v", err)
	}
	if !acct.IsContract() {
		t.Fatal("expected account to be deployed as a contract")
	}
	if acct.Body != "PUSH 1 HALT" {
		t.Fatalf("unexpected contract body: %q", acct.Body)
	}
}

func TestApplyBlockInvokesContractAndDebitsContractGas(t *testing.T) {
	state := newTestState(t)
	log := logrus.New()

	sender, _ := GenerateKeyPair()
	contractAddr, _ := GenerateKeyPair()

	if err := state.Put(sender.Address, &Account{Balance: big.NewInt(1000), Storage: map[string]string{}, Timestamps: map[int64]bool{}}); err != nil {
		t.Fatalf("Put sender: %v", err)
	}
	if err := state.Put(contractAddr.Address, &Account{
		Balance:    big.NewInt(0),
		Body:       "PUSH 1 PUSH 2 ADD HALT",
		CodeHash:   Sha256([]byte("PUSH 1 PUSH 2 ADD HALT")),
		Storage:    map[string]string{},
		Timestamps: map[int64]bool{},
	}); err != nil {
		t.Fatalf("Put contract: %v", err)
	}

	coinbase := NewTransaction(sender.Address, big.NewInt(0), big.NewInt(0), nil, 1)
	_ = SignTransaction(coinbase, MintKeyPair())

	invoke := NewTransaction(contractAddr.Address, big.NewInt(5), big.NewInt(MinTxFee),
		&AdditionalData{ContractGas: big.NewInt(MinContractFee)}, 2)
	_ = SignTransaction(invoke, sender)

	b := &Block{BlockNumber: 1, Transactions: []*Transaction{coinbase, invoke}}
	if err := ApplyBlock(b, state, log, false); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}

	senderAcct, err := state.Get(sender.Address)
	if err != nil {
		t.Fatalf("Get sender: %v", err)
	}
	wantSenderBalance := big.NewInt(1000 - 5 - MinTxFee - MinContractFee)
	if senderAcct.Balance.Cmp(wantSenderBalance) != 0 {
		t.Fatalf("expected sender balance %s (amount+gas+contractGas debited), got %s", wantSenderBalance, senderAcct.Balance)
	}

	contractAcct, err := state.Get(contractAddr.Address)
	if err != nil {
		t.Fatalf("Get contract: %v", err)
	}
	if contractAcct.Balance.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected contract to receive the call value 5, got %s", contractAcct.Balance)
	}
}
