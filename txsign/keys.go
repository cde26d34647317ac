// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/cryptobuks1/haskoin-core/sigscript"
)

// candidateKey is a private key tagged with the public key encoding a
// script condition matched it under.
type candidateKey struct {
	privKey *btcec.PrivateKey
	pubKey  sigscript.PubKey
}

// expandKeys derives both the compressed and the uncompressed public
// key for every secret.  Scripts can commit to either encoding of the
// same point, so both candidates are considered for every key.
func expandKeys(keys []*btcec.PrivateKey) []candidateKey {
	candidates := make([]candidateKey, 0, len(keys)*2)
	for _, key := range keys {
		candidates = append(candidates, candidateKey{
			privKey: key,
			pubKey: sigscript.PubKey{
				Key:        key.PubKey(),
				Compressed: true,
			},
		})
		candidates = append(candidates, candidateKey{
			privKey: key,
			pubKey: sigscript.PubKey{
				Key:        key.PubKey(),
				Compressed: false,
			},
		})
	}

	return candidates
}

// sigKeys selects the ordered subset of keys usable to sign the given
// output.  Script-hash conditions are resolved through their redeem
// script exactly once; a redeem script that is itself a script-hash
// condition, or a missing redeem script, cannot be resolved.
func sigKeys(out, redeem sigscript.ScriptOutput,
	keys []*btcec.PrivateKey) ([]candidateKey, error) {

	candidates := expandKeys(keys)

	switch o := out.(type) {
	case *sigscript.PayPK:
		if redeem != nil {
			break
		}
		for _, cand := range candidates {
			if cand.pubKey.Equal(o.Key) {
				return []candidateKey{cand}, nil
			}
		}
		return nil, nil

	case *sigscript.PayPKHash:
		if redeem != nil {
			break
		}
		return matchKeyHash(candidates, o.Hash), nil

	case *sigscript.PayWitnessPKHash:
		if redeem != nil {
			break
		}
		return matchKeyHash(candidates, o.Hash), nil

	case *sigscript.PayMulSig:
		if redeem != nil {
			break
		}
		return matchMulSig(candidates, o), nil

	case *sigscript.PayScriptHash, *sigscript.PayWitnessScriptHash:
		if redeem == nil {
			return nil, fmt.Errorf("%w: script-hash output "+
				"without redeem script", ErrUnresolvableKey)
		}
		if sigscript.IsScriptHashOutput(redeem) {
			return nil, fmt.Errorf("%w: redeem script nests "+
				"another script hash", ErrUnresolvableKey)
		}
		// Recurse exactly once, with no further redeem script.
		return sigKeys(redeem, nil, keys)
	}

	return nil, fmt.Errorf("%w: output %T with redeem script %T",
		ErrUnresolvableKey, out, redeem)
}

// matchKeyHash returns the candidates whose public key hashes to the
// committed address hash, preserving discovery order.
func matchKeyHash(candidates []candidateKey, hash [20]byte) []candidateKey {
	var matched []candidateKey
	for _, cand := range candidates {
		if cand.pubKey.AddrHash() == hash {
			matched = append(matched, cand)
		}
	}

	return matched
}

// matchMulSig returns up to Required candidates whose public key appears
// in the multisig key list, preserving discovery order.
func matchMulSig(candidates []candidateKey,
	out *sigscript.PayMulSig) []candidateKey {

	var matched []candidateKey
	for _, cand := range candidates {
		for _, key := range out.Keys {
			if cand.pubKey.Equal(key) {
				matched = append(matched, cand)
				break
			}
		}
		if len(matched) == out.Required {
			break
		}
	}

	return matched
}
