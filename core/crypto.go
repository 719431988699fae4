package core

// crypto.go — SHA-256 hashing and ECDSA-over-secp256k1 signing, grounded on
// the same pairing (crypto/ecdsa + decred's secp256k1 curve implementation)
// this module already used for KYC signature verification.

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyPair bundles a secp256k1 private key with its derived address.
type KeyPair struct {
	Private *ecdsa.PrivateKey
	Public  []byte // compressed, 33 bytes
	Address Address
}

// Sha256Hex returns the lowercase-hex SHA-256 digest of data.
func Sha256Hex(data []byte) string {
	return Sha256(data).Hex()
}

// Sha256 returns the raw SHA-256 digest of data.
func Sha256(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// AddressFromPubKey derives an account address as SHA-256(compressed pubkey),
// matching spec §3's "recipient: ... = SHA-256 of public key".
func AddressFromPubKey(pub []byte) Address {
	return Sha256(pub)
}

// KeyFromPrivateHex reconstructs a KeyPair from a 32-byte hex-encoded private
// scalar. Used both for operator-supplied PRIVATE_KEY config and for the
// well-known MINT key.
func KeyFromPrivateHex(hexKey string) (*KeyPair, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil || len(b) != 32 {
		return nil, ErrInvalidTransaction
	}
	priv := secp256k1.PrivKeyFromBytes(b)
	return keyPairFromPrivKey(priv), nil
}

// GenerateKeyPair creates a new random secp256k1 key, for operators who start
// a node without a configured PRIVATE_KEY (spec §6).
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return keyPairFromPrivKey(priv), nil
}

func keyPairFromPrivKey(priv *secp256k1.PrivateKey) *KeyPair {
	pub := priv.PubKey().SerializeCompressed()
	return &KeyPair{
		Private: priv.ToECDSA(),
		Public:  pub,
		Address: AddressFromPubKey(pub),
	}
}

// Sign produces an ECDSA (r, s) signature over a 32-byte digest.
func Sign(digest Hash, kp *KeyPair) (*Signature, error) {
	r, s, err := ecdsa.Sign(rand.Reader, kp.Private, digest[:])
	if err != nil {
		return nil, err
	}
	return &Signature{R: r, S: s}, nil
}

// Verify checks an ECDSA signature over digest against the given compressed
// public key.
func Verify(digest Hash, pub []byte, sig *Signature) bool {
	if sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	key, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	return ecdsa.Verify(key.ToECDSA(), digest[:], sig.R, sig.S)
}

// MintPrivateKeyHex is the well-known MINT key (spec GLOSSARY): the 32-byte
// scalar 0x00...01. Only a coinbase transaction may be signed with it.
const MintPrivateKeyHex = "0000000000000000000000000000000000000000000000000000000000000001"

var mintKeyPair *KeyPair

func init() {
	kp, err := KeyFromPrivateHex(MintPrivateKeyHex)
	if err != nil {
		panic("core: failed to derive MINT keypair: " + err.Error())
	}
	mintKeyPair = kp
}

// MintKeyPair returns the shared MINT signer used for coinbase transactions.
func MintKeyPair() *KeyPair { return mintKeyPair }

// MintAddress is the sender address every coinbase transaction must carry.
func MintAddress() Address { return mintKeyPair.Address }
