// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sigscript

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

// PubKey pairs a parsed secp256k1 public key with the encoding a script
// committed to.  Scripts can embed either the 33-byte compressed or the
// 65-byte uncompressed form of the same point, and the two hash to
// different addresses, so the flag must survive a decode/encode round
// trip.
type PubKey struct {
	Key        *btcec.PublicKey
	Compressed bool
}

// NewPubKey parses serialized public key bytes, inferring the encoding
// from the serialization itself.
func NewPubKey(b []byte) (PubKey, error) {
	key, err := btcec.ParsePubKey(b)
	if err != nil {
		return PubKey{}, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}

	return PubKey{
		Key:        key,
		Compressed: len(b) == btcec.PubKeyBytesLenCompressed,
	}, nil
}

// CompressedPubKey wraps an already-parsed key in its compressed form.
func CompressedPubKey(key *btcec.PublicKey) PubKey {
	return PubKey{Key: key, Compressed: true}
}

// Serialize returns the key in the encoding it was created with.
func (p PubKey) Serialize() []byte {
	if p.Compressed {
		return p.Key.SerializeCompressed()
	}

	return p.Key.SerializeUncompressed()
}

// AddrHash returns the RIPEMD160(SHA256) hash of the serialized key,
// which is the value pay-to-pubkey-hash and pay-to-witness-pubkey-hash
// outputs commit to.
func (p PubKey) AddrHash() [20]byte {
	var hash [20]byte
	copy(hash[:], btcutil.Hash160(p.Serialize()))

	return hash
}

// Equal reports whether two keys are the same point in the same
// encoding.
func (p PubKey) Equal(other PubKey) bool {
	return bytes.Equal(p.Serialize(), other.Serialize())
}
