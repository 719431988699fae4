package core

import "errors"

// Sentinel errors surfaced across validation, state transition and consensus.
// Gossip handlers treat InvalidTransaction/InvalidBlock as drop-silently
// conditions (spec §7); the read-only interface returns them to callers.
var (
	ErrInvalidTransaction = errors.New("core: invalid transaction")
	ErrInvalidBlock       = errors.New("core: invalid block")
	ErrUnknownSender      = errors.New("core: unknown sender account")
	ErrInsufficientFunds  = errors.New("core: insufficient balance")
	ErrReplayedTimestamp  = errors.New("core: timestamp already consumed")
	ErrFeeTooLow          = errors.New("core: fee below minimum")
	ErrGasLimitExceeded   = errors.New("core: block gas limit exceeded")
	ErrBadSignature       = errors.New("core: signature verification failed")
	ErrBadParentHash      = errors.New("core: parent hash mismatch")
	ErrBadDifficulty      = errors.New("core: difficulty mismatch")
	ErrBadHeight          = errors.New("core: block number mismatch")
	ErrBadTimestamp       = errors.New("core: block timestamp out of range")
	ErrBadCoinbase        = errors.New("core: malformed coinbase transaction")
	ErrPoWNotMet          = errors.New("core: hash does not satisfy difficulty target")
	ErrNotFound           = errors.New("core: not found")
)
