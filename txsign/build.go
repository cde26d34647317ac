// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// buildInput assembles the full unlocking input for one transaction
// slot from a freshly computed signature, merging with any signatures
// already present for multisig conditions.
func buildInput(tx *wire.MsgTx, idx int, si *SigInput,
	sig sigscript.TxSignature, pubKey sigscript.PubKey) (
	sigscript.ScriptInput, error) {

	if idx >= len(tx.TxIn) {
		return nil, fmt.Errorf("%w: index %d with %d inputs",
			ErrIndexOutOfRange, idx, len(tx.TxIn))
	}

	// Script-hash outputs wrap the input built against their redeem
	// script.
	if si.Redeem != nil && sigscript.IsScriptHashOutput(si.PkScript) {
		inner, err := buildSimpleInput(
			tx, idx, si, si.Redeem, sig, pubKey,
		)
		if err != nil {
			return nil, err
		}

		return &sigscript.ScriptHashInput{
			Input:  inner,
			Redeem: si.Redeem,
		}, nil
	}
	if si.Redeem != nil {
		return nil, fmt.Errorf("%w: redeem script for %T output",
			ErrInvalidCombination, si.PkScript)
	}

	inner, err := buildSimpleInput(tx, idx, si, si.PkScript, sig, pubKey)
	if err != nil {
		return nil, err
	}

	return &sigscript.RegularInput{Input: inner}, nil
}

// buildSimpleInput builds the simple input shape demanded by a
// non-script-hash spending condition.
func buildSimpleInput(tx *wire.MsgTx, idx int, si *SigInput,
	out sigscript.ScriptOutput, sig sigscript.TxSignature,
	pubKey sigscript.PubKey) (sigscript.SimpleInput, error) {

	switch o := out.(type) {
	case *sigscript.PayPK:
		return &sigscript.SpendSig{Sig: sig}, nil

	case *sigscript.PayPKHash, *sigscript.PayWitnessPKHash:
		return &sigscript.SpendKeySig{Sig: sig, Key: pubKey}, nil

	case *sigscript.PayMulSig:
		return mergeMulSigInput(tx, idx, si, o, sig)
	}

	return nil, fmt.Errorf("%w: cannot build input for %T output",
		ErrInvalidCombination, out)
}

// mergeMulSigInput reconciles a new multisig signature with the
// signatures other parties already placed on the transaction.  The
// merged list keeps only signatures that verify against one of the
// script's keys, ordered by that key list and capped at the required
// count.  Keys without a matching signature leave their slot absent.
func mergeMulSigInput(tx *wire.MsgTx, idx int, si *SigInput,
	out *sigscript.PayMulSig, sig sigscript.TxSignature) (
	sigscript.SimpleInput, error) {

	candidates := parseExistingSigs(tx, si, idx)
	candidates = append(candidates, sig)

	// Deduplicate on the serialized form; two parties signing with
	// the same key produce the identical deterministic signature.
	seen := fn.NewSet[string]()
	unique := make([]sigscript.TxSignature, 0, len(candidates))
	for _, cand := range candidates {
		if cand.IsEmpty() {
			continue
		}
		key := string(cand.Serialize())
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		unique = append(unique, cand)
	}

	merged := make([]sigscript.TxSignature, 0, out.Required)
	for _, scriptKey := range out.Keys {
		match, err := findVerifyingSig(tx, idx, si, unique, scriptKey)
		if err != nil {
			return nil, err
		}
		if match.IsEmpty() {
			continue
		}
		merged = append(merged, match)
		if len(merged) == out.Required {
			break
		}
	}

	return &sigscript.SpendMulSig{Sigs: merged}, nil
}

// findVerifyingSig returns the first candidate signature that verifies
// against the given script key, recomputing the digest under each
// candidate's own sighash type.
func findVerifyingSig(tx *wire.MsgTx, idx int, si *SigInput,
	candidates []sigscript.TxSignature, scriptKey sigscript.PubKey) (
	sigscript.TxSignature, error) {

	for _, cand := range candidates {
		digest, err := sigHashForType(tx, idx, si, cand.HashType)
		if err != nil {
			return sigscript.TxSignature{}, err
		}
		if cand.Sig.Verify(digest, scriptKey.Key) {
			return cand, nil
		}
	}

	return sigscript.TxSignature{}, nil
}

// parseExistingSigs collects the signatures already present on the
// transaction for this input: the signature list of its current
// sigScript when that decodes as a multisig input, and, for
// witness-flagged inputs, every witness element that parses as a
// signature.  Malformed entries are skipped rather than failing the
// whole extraction, so repeated independent signing calls can each
// contribute their share without agreeing on intermediate state.
func parseExistingSigs(tx *wire.MsgTx, si *SigInput,
	idx int) []sigscript.TxSignature {

	var sigs []sigscript.TxSignature
	scriptSig := tx.TxIn[idx].SignatureScript
	if len(scriptSig) > 0 {
		if in, err := sigscript.ParseInput(scriptSig); err == nil {
			for _, sig := range sigscript.MergeableSigs(in) {
				if !sig.IsEmpty() {
					sigs = append(sigs, sig)
				}
			}
		}
	}

	if !si.isSegwit() {
		return sigs
	}
	for _, element := range tx.TxIn[idx].Witness {
		sig, err := sigscript.ParseTxSignature(element)
		if err != nil {
			continue
		}
		sigs = append(sigs, sig)
	}

	return sigs
}
