package core

import "math/big"

// Genesis returns the fixed block 0 every node starts from (spec §6):
// a single coinbase transaction crediting MINT's own address, signed by the
// MINT key, at the fixed genesis parentHash and initial difficulty.
func Genesis() *Block {
	mint := MintKeyPair()
	coinbase := NewTransaction(mint.Address, big.NewInt(0), big.NewInt(0), nil, 1)
	if err := SignTransaction(coinbase, mint); err != nil {
		panic("core: failed to sign genesis coinbase: " + err.Error())
	}

	parentHash, err := ParseHash(GenesisParentHash)
	if err != nil {
		panic("core: malformed GenesisParentHash constant")
	}

	b := &Block{
		BlockNumber:  0,
		Timestamp:    0,
		Transactions: []*Transaction{coinbase},
		Difficulty:   InitialDifficulty,
		ParentHash:   parentHash,
		Nonce:        0,
	}
	b.Hash = BlockHash(b)
	return b
}
