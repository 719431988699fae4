package core

// serialize.go — canonical, deterministic encodings fed to SHA-256 for
// transaction signing and block mining/hashing (spec §4.1). Every node on
// the network must produce byte-identical output for the same logical
// value; field order, decimal rendering of big integers, and lexicographic
// ordering of mapping keys are all bit-exact requirements.

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

func bigOrZero(n *big.Int) *big.Int {
	if n == nil {
		return big.NewInt(0)
	}
	return n
}

// canonicalAdditionalData renders additionalData in fixed key order with
// storageMap keys sorted lexicographically. Absent data renders as "-".
func canonicalAdditionalData(ad *AdditionalData) string {
	if ad == nil {
		return "-"
	}
	var b strings.Builder
	b.WriteString("contractGas=")
	if ad.ContractGas != nil {
		b.WriteString(ad.ContractGas.String())
	}
	b.WriteString(";scBody=")
	b.WriteString(ad.SCBody)
	b.WriteString(";storageMap=")
	keys := make([]string, 0, len(ad.StorageMap))
	for k := range ad.StorageMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%s", k, ad.StorageMap[k])
	}
	return b.String()
}

// TxSigningBytes returns the canonical pre-image used both to sign and to
// verify a transaction. The signature itself (and the sender's derived
// address) is excluded, per spec §4.1.
func TxSigningBytes(tx *Transaction) []byte {
	var b strings.Builder
	b.WriteString("recipient=")
	b.WriteString(tx.Recipient.Hex())
	b.WriteString(";amount=")
	b.WriteString(bigOrZero(tx.Amount).String())
	b.WriteString(";gas=")
	b.WriteString(bigOrZero(tx.Gas).String())
	b.WriteString(";additionalData=")
	b.WriteString(canonicalAdditionalData(tx.AdditionalData))
	b.WriteString(";timestamp=")
	b.WriteString(strconv.FormatInt(tx.Timestamp, 10))
	return []byte(b.String())
}

// TxHash returns SHA-256 of the transaction's signing bytes. This is the
// digest that Sign/Verify operate over; the query server also returns it as
// the txHash of a submitted transaction.
func TxHash(tx *Transaction) Hash {
	return Sha256(TxSigningBytes(tx))
}

// blockPreImageBytes is the canonical encoding used to compute a block's
// hash. hash itself is excluded (it is the output); nonce is included since
// it is part of what the miner varies and what every verifier must recheck.
func blockPreImageBytes(b *Block) []byte {
	var sb strings.Builder
	sb.WriteString("blockNumber=")
	sb.WriteString(strconv.FormatUint(b.BlockNumber, 10))
	sb.WriteString(";timestamp=")
	sb.WriteString(strconv.FormatInt(b.Timestamp, 10))
	sb.WriteString(";difficulty=")
	sb.WriteString(strconv.Itoa(b.Difficulty))
	sb.WriteString(";parentHash=")
	sb.WriteString(b.ParentHash.Hex())
	sb.WriteString(";nonce=")
	sb.WriteString(strconv.FormatUint(b.Nonce, 10))
	sb.WriteString(";transactions=")
	for i, tx := range b.Transactions {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(txFullCanonical(tx))
	}
	return []byte(sb.String())
}

// txFullCanonical includes the signature and sender public key, since a
// transaction's effect on state depends on who actually signed it; this form
// is only ever used as a component of a block's pre-image, never for signing.
func txFullCanonical(tx *Transaction) string {
	var b strings.Builder
	b.Write(TxSigningBytes(tx))
	b.WriteString(";pub=")
	b.WriteString(hexBytes(tx.SenderPubKey))
	b.WriteString(";sig=")
	if tx.Signature != nil && tx.Signature.R != nil && tx.Signature.S != nil {
		b.WriteString(tx.Signature.R.String())
		b.WriteByte(',')
		b.WriteString(tx.Signature.S.String())
	}
	return b.String()
}

func hexBytes(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0x0f]
	}
	return string(out)
}

// BlockHash computes the block's hash from its canonical pre-image.
// Consensus (verifyBlock) recomputes this and compares against the stored
// Hash field; mining search varies Nonce and recomputes this each attempt.
func BlockHash(b *Block) Hash {
	return Sha256(blockPreImageBytes(b))
}

// LeadingZeroNibbles counts leading hex-zero nibbles in h, the quantity
// compared against a block's declared difficulty (spec §3/§4.5).
func LeadingZeroNibbles(h Hash) int {
	count := 0
	for _, b := range h {
		if b == 0 {
			count += 2
			continue
		}
		if b>>4 == 0 {
			count++
		}
		break
	}
	return count
}
