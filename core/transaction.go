package core

// transaction.go — transaction construction, signing and validation (spec
// §4.2). Grounded on this module's transactions.go HashTx/SignTx/VerifyTx
// trio, adapted to the canonical string encoding in serialize.go and to
// secp256k1/ECDSA instead of the teacher's ed25519 wallet scheme.

import (
	"math/big"
)

// NewTransaction builds an unsigned transaction. Callers must call
// SignTransaction before it is valid.
func NewTransaction(recipient Address, amount, gas *big.Int, ad *AdditionalData, timestamp int64) *Transaction {
	return &Transaction{
		Recipient:      recipient,
		Amount:         amount,
		Gas:            gas,
		AdditionalData: ad,
		Timestamp:      timestamp,
	}
}

// SignTransaction signs tx with kp, attaching both the signature and the
// sender's public key, and populates the derived Sender field.
func SignTransaction(tx *Transaction, kp *KeyPair) error {
	digest := TxHash(tx)
	sig, err := Sign(digest, kp)
	if err != nil {
		return err
	}
	tx.Signature = sig
	tx.SenderPubKey = kp.Public
	tx.Sender = kp.Address
	return nil
}

// DeriveAndVerify recomputes tx.Sender from tx.SenderPubKey and checks the
// signature against the transaction's canonical signing bytes. It mutates
// tx.Sender on success so callers never trust a wire-supplied sender.
func DeriveAndVerify(tx *Transaction) bool {
	if tx.Signature == nil || len(tx.SenderPubKey) == 0 {
		return false
	}
	digest := TxHash(tx)
	if !Verify(digest, tx.SenderPubKey, tx.Signature) {
		return false
	}
	tx.Sender = AddressFromPubKey(tx.SenderPubKey)
	return true
}

// IsWellTyped checks the structural requirements spec §4.2 lists before any
// cryptographic or state-dependent check: recipient/amount/gas/timestamp
// present and non-negative, additionalData (if any) internally consistent.
func (tx *Transaction) IsWellTyped() bool {
	if tx.Amount == nil || tx.Amount.Sign() < 0 {
		return false
	}
	if tx.Gas == nil || tx.Gas.Sign() < 0 {
		return false
	}
	if tx.Timestamp <= 0 {
		return false
	}
	if ad := tx.AdditionalData; ad != nil && ad.ContractGas != nil && ad.ContractGas.Sign() < 0 {
		return false
	}
	return true
}

// RequiredFee returns the minimum plain-transfer gas fee every transaction
// must carry (spec §4.2/§6). Contract calls carry this floor in addition to,
// not instead of, their own contractGas floor — see RequiredContractFee.
func (tx *Transaction) RequiredFee() *big.Int {
	return big.NewInt(MinTxFee)
}

// RequiredContractFee returns the minimum contractGas a contract-call
// transaction must carry (spec §4.2/§6). Only meaningful when
// AdditionalData.IsContractCall() is true.
func (tx *Transaction) RequiredContractFee() *big.Int {
	return big.NewInt(MinContractFee)
}

// ValidateAgainstState performs the full isValid(tx, stateDB) check from
// spec §4.2: well-typedness, signature, sender existence (or MINT), the fee
// floors, replay-timestamp rejection, and balance sufficiency. It does not
// mutate stateDB; callers apply effects separately during block application.
func ValidateAgainstState(tx *Transaction, state *StateStore) error {
	if !tx.IsWellTyped() {
		return ErrInvalidTransaction
	}
	if !DeriveAndVerify(tx) {
		return ErrBadSignature
	}

	if tx.Sender == MintAddress() {
		return nil // coinbase transactions are exempt from balance/fee checks
	}

	sender, err := state.Get(tx.Sender)
	if err != nil {
		if err == ErrNotFound {
			return ErrUnknownSender
		}
		return err
	}

	if sender.Timestamps[tx.Timestamp] {
		return ErrReplayedTimestamp
	}

	if tx.Gas.Cmp(tx.RequiredFee()) < 0 {
		return ErrFeeTooLow
	}
	if tx.AdditionalData.IsContractCall() && tx.AdditionalData.ContractGas.Cmp(tx.RequiredContractFee()) < 0 {
		return ErrFeeTooLow
	}

	total := new(big.Int).Add(tx.Amount, tx.Gas)
	if tx.AdditionalData.IsContractCall() {
		total.Add(total, tx.AdditionalData.ContractGas)
	}
	if sender.Balance.Cmp(total) < 0 {
		return ErrInsufficientFunds
	}

	return nil
}
