package core

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
)

// Chain parameters. These must agree across every node on the network (spec
// §6); values are fixed here as genesis parameters rather than left to each
// operator, per the Open Questions resolution in SPEC_FULL.md §5.
const (
	BlockReward         = 100   // wei, toy units
	BlockGasLimit       = 1_000_000
	MinTxFee            = 1
	MinContractFee      = 10
	RetargetWindow      = 5  // blocks between difficulty retargets
	TargetBlockTimeMS   = 30_000 // 30s per block
	InitialDifficulty   = 2
	MaxAllowedSkewMS    = 15_000 // block.timestamp may lead "now" by this much
)

// GenesisParentHash is the fixed parentHash constant carried by block 0: 64
// hex zero characters, i.e. the all-zero 32-byte Hash.
var GenesisParentHash = Hash{}.Hex()

// Address identifies an account: the SHA-256 digest of a secp256k1 public
// key, rendered as 64 lowercase hex characters on the wire.
type Address [32]byte

// Hash is a generic SHA-256 digest (block hash, tx hash, code hash).
type Hash [32]byte

func (a Address) Hex() string { return hex.EncodeToString(a[:]) }
func (h Hash) Hex() string    { return hex.EncodeToString(h[:]) }
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON renders an Address as its 64-hex-char wire form.
func (a Address) MarshalJSON() ([]byte, error) { return []byte(`"` + a.Hex() + `"`), nil }

// UnmarshalJSON parses an Address from its 64-hex-char wire form.
func (a *Address) UnmarshalJSON(b []byte) error {
	s, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON renders a Hash as its 64-hex-char wire form.
func (h Hash) MarshalJSON() ([]byte, error) { return []byte(`"` + h.Hex() + `"`), nil }

// UnmarshalJSON parses a Hash from its 64-hex-char wire form.
func (h *Hash) UnmarshalJSON(b []byte) error {
	s, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func unquoteJSONString(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}

// ParseAddress decodes a 64-hex-char address. Returns an error for any other
// length, per spec §3's well-typed field requirement.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, ErrInvalidTransaction
	}
	copy(a[:], b)
	return a, nil
}

// ParseHash decodes a 64-hex-char hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(h) {
		return h, ErrInvalidBlock
	}
	copy(h[:], b)
	return h, nil
}

// AdditionalData is the optional, recognized-keys mapping a transaction may
// carry (spec §3). Only contract-related transactions populate it.
type AdditionalData struct {
	ContractGas *big.Int          `json:"contractGas,omitempty"`
	SCBody      string            `json:"scBody,omitempty"`
	StorageMap  map[string]string `json:"storageMap,omitempty"`
}

// IsContractCall reports whether this additional data carries a contract
// invocation (as opposed to a plain deployment-less transfer).
func (ad *AdditionalData) IsContractCall() bool {
	return ad != nil && ad.ContractGas != nil
}

// Signature is the (r, s) pair produced by core/crypto.go's Sign.
type Signature struct {
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// Transaction is the wire and in-memory representation of a transfer,
// contract deployment, or contract call (spec §3).
type Transaction struct {
	Recipient      Address         `json:"recipient"`
	Amount         *big.Int        `json:"amount"`
	Gas            *big.Int        `json:"gas"`
	AdditionalData *AdditionalData `json:"additionalData,omitempty"`
	Timestamp      int64           `json:"timestamp"`
	Signature      *Signature      `json:"signature,omitempty"`

	// SenderPubKey is the sender's compressed secp256k1 public key. It is
	// carried on the wire so nodes can verify Signature and derive Sender
	// without needing signature-recovery support (spec §4.1/§4.2: "the
	// public key embedded ... in the signature").
	SenderPubKey []byte `json:"senderPubKey,omitempty"`

	// Sender is derived, not transmitted: SHA-256(SenderPubKey). Populated by
	// SignTransaction / DeriveAndVerify.
	Sender Address `json:"-"`
}

// Account is the stateDB record for one address (spec §3).
type Account struct {
	Balance    *big.Int          `json:"balance"`
	Body       string            `json:"body,omitempty"`
	Storage    map[string]string `json:"storage,omitempty"`
	Timestamps map[int64]bool    `json:"timestamps,omitempty"`
	CodeHash   Hash              `json:"codeHash,omitempty"`
}

// NewAccount returns a freshly created, zero-balance externally-owned
// account (spec §3: "created on first inbound transfer to a new address").
func NewAccount() *Account {
	return &Account{
		Balance:    big.NewInt(0),
		Storage:    make(map[string]string),
		Timestamps: make(map[int64]bool),
	}
}

// IsContract reports whether the account has deployed contract code.
func (a *Account) IsContract() bool { return a.Body != "" }

// Block is the unit of consensus (spec §3).
type Block struct {
	BlockNumber  uint64         `json:"blockNumber"`
	Timestamp    int64          `json:"timestamp"`
	Transactions []*Transaction `json:"transactions"`
	Difficulty   int            `json:"difficulty"`
	ParentHash   Hash           `json:"parentHash"`
	Nonce        uint64         `json:"nonce"`
	Hash         Hash           `json:"hash"`
}

// Coinbase returns the block's mandatory first transaction, or nil for an
// empty (invalid) block.
func (b *Block) Coinbase() *Transaction {
	if len(b.Transactions) == 0 {
		return nil
	}
	return b.Transactions[0]
}

// ChainInfo tracks the in-memory head-of-chain bookkeeping described in spec
// §3. The transaction pool itself lives in mempool.go's TxPool.
type ChainInfo struct {
	LatestBlock     *Block
	LatestSyncBlock *Block // read by Snapshot for ChainStatus.Syncing; no code path assigns it, so it stays nil
	Difficulty      int
}
