package core

// account.go — the state-transition engine (spec §4.3): applying an
// already-verified block's transactions to stateDB. Grounded on this
// module's account_and_balance_operations.go credit/debit pair, generalized
// to the atomic apply-all-or-none batch semantics and contract
// deploy-vs-invoke branching spec §4.3 requires.

import (
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
)

// ApplyBlock applies every transaction in b to state, in order. All effects
// are staged in memory and written to state only after every transaction has
// been staged, so an error while staging leaves state unchanged. The
// coinbase transaction only credits; every other transaction debits the
// sender and credits the recipient, then either deploys the carried scBody
// (recipient has no code yet) or runs the contract interpreter (recipient
// already holds a contract). A contract run that fails leaves the contract's
// storage unchanged and does not undo the transfer or the gas debit.
func ApplyBlock(b *Block, state *StateStore, log *logrus.Logger, enableLogging bool) error {
	pending := make(map[Address]*Account)

	get := func(addr Address) (*Account, error) {
		if a, ok := pending[addr]; ok {
			return a, nil
		}
		a, err := state.GetOrCreate(addr)
		if err != nil {
			return nil, err
		}
		pending[addr] = a
		return a, nil
	}

	coinbase := b.Coinbase()
	recipient, err := get(coinbase.Recipient)
	if err != nil {
		return fmt.Errorf("core: apply coinbase: %w", err)
	}
	recipient.Balance.Add(recipient.Balance, coinbase.Amount)

	for _, tx := range b.Transactions[1:] {
		if err := applyTransaction(tx, get, log, enableLogging); err != nil {
			return fmt.Errorf("core: apply tx at %d: %w", tx.Timestamp, err)
		}
	}

	for addr, acct := range pending {
		if err := state.Put(addr, acct); err != nil {
			return fmt.Errorf("core: persist account %s: %w", addr.Hex(), err)
		}
	}
	return nil
}

func applyTransaction(tx *Transaction, get func(Address) (*Account, error), log *logrus.Logger, enableLogging bool) error {
	sender, err := get(tx.Sender)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(tx.Amount, tx.Gas)
	if tx.AdditionalData.IsContractCall() {
		total.Add(total, tx.AdditionalData.ContractGas)
	}
	sender.Balance.Sub(sender.Balance, total)
	sender.Timestamps[tx.Timestamp] = true

	recipient, err := get(tx.Recipient)
	if err != nil {
		return err
	}
	recipient.Balance.Add(recipient.Balance, tx.Amount)

	switch {
	case tx.AdditionalData != nil && tx.AdditionalData.SCBody != "" && !recipient.IsContract():
		// Transfer carrying code to an account with no code yet: deploy.
		// Whether the account existed before this transfer is not checked.
		recipient.Body = tx.AdditionalData.SCBody
		recipient.CodeHash = Sha256([]byte(tx.AdditionalData.SCBody))
		if enableLogging {
			log.WithField("address", tx.Recipient.Hex()).Debug("contract deployed")
		}
	case recipient.IsContract():
		// Invocation: hand the interpreter the contract's code, the
		// transaction's value/gas and any call-supplied storage writes.
		result, err := Execute(recipient, tx, log, enableLogging)
		if err != nil {
			// A failed run keeps storage as it was; the transfer and the
			// gas debit above still stand.
			if enableLogging {
				log.WithError(err).WithField("address", tx.Recipient.Hex()).Debug("contract execution failed")
			}
			return nil
		}
		for k, v := range result.Storage {
			recipient.Storage[k] = v
		}
	}

	return nil
}
