// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
)

// inputMatch pairs an item with the index of the transaction input it
// was positionally matched to.
type inputMatch[T any] struct {
	item T
	idx  int
}

// findInputIndices matches items against the transaction's inputs by
// outpoint equality.  Items that match no input, or more than one, are
// silently dropped; callers that need full coverage must pre-validate
// it.  Results are ordered by input index.
func findInputIndices[T any](items []T, outPoint func(T) wire.OutPoint,
	tx *wire.MsgTx) []inputMatch[T] {

	var matches []inputMatch[T]
	for _, item := range items {
		found, idx := -1, 0
		for i, txIn := range tx.TxIn {
			if txIn.PreviousOutPoint != outPoint(item) {
				continue
			}
			if found >= 0 {
				// Ambiguous: drop the item entirely.
				found = -1
				break
			}
			found, idx = i, i
		}
		if found >= 0 {
			matches = append(matches, inputMatch[T]{
				item: item,
				idx:  idx,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].idx < matches[j].idx
	})

	return matches
}

// sigInputEntry pairs a SigInput with its nested-segwit flag.
type sigInputEntry struct {
	si     *SigInput
	nested bool
}

// SignTx signs as many transaction inputs as the given SigInputs and
// keys allow, spending every witness input natively.  The returned
// transaction is a new value; the argument is never modified.  The call
// is all-or-nothing: the first failing (input, key) step aborts it and
// the caller keeps their original transaction.
func SignTx(tx *wire.MsgTx, sigInputs []*SigInput,
	keys []*btcec.PrivateKey) (*wire.MsgTx, error) {

	return signTx(tx, nestedEntries(sigInputs, false), keys)
}

// SignNestedWitnessTx signs like SignTx but wraps every witness input
// in the pay-to-script-hash push form, producing nested-segwit spends
// that legacy-only software can relay.
func SignNestedWitnessTx(tx *wire.MsgTx, sigInputs []*SigInput,
	keys []*btcec.PrivateKey) (*wire.MsgTx, error) {

	return signTx(tx, nestedEntries(sigInputs, true), keys)
}

func nestedEntries(sigInputs []*SigInput, nested bool) []sigInputEntry {
	entries := make([]sigInputEntry, 0, len(sigInputs))
	for _, si := range sigInputs {
		entries = append(entries, sigInputEntry{si: si, nested: nested})
	}

	return entries
}

// signTx folds SignInput over every (matched input, resolved key) pair.
// The fold is intentionally sequential: each step signs the transaction
// produced by the previous one, so a later multisig signature merges
// against the signatures applied before it.
func signTx(tx *wire.MsgTx, entries []sigInputEntry,
	keys []*btcec.PrivateKey) (*wire.MsgTx, error) {

	if len(tx.TxIn) == 0 {
		return nil, ErrNoInputs
	}

	matches := findInputIndices(
		entries, func(e sigInputEntry) wire.OutPoint {
			return e.si.OutPoint
		}, tx,
	)
	log.Debugf("Signing %d of %d transaction inputs", len(matches),
		len(tx.TxIn))

	signed := tx
	for _, match := range matches {
		candidates, err := sigKeys(
			match.item.si.PkScript, match.item.si.Redeem, keys,
		)
		if err != nil {
			return nil, err
		}

		for _, cand := range candidates {
			signed, err = signInput(
				signed, match.idx, match.item.si,
				match.item.nested, cand,
			)
			if err != nil {
				return nil, err
			}
		}
	}

	return signed, nil
}

// SignInput signs a single transaction input with one key and returns a
// new transaction with that input's unlocking data replaced.  The
// compressed flag selects which public key encoding accompanies the
// signature where one is required.
func SignInput(tx *wire.MsgTx, idx int, si *SigInput, nested bool,
	key *btcec.PrivateKey, compressed bool) (*wire.MsgTx, error) {

	return signInput(tx, idx, si, nested, candidateKey{
		privKey: key,
		pubKey: sigscript.PubKey{
			Key:        key.PubKey(),
			Compressed: compressed,
		},
	})
}

func signInput(tx *wire.MsgTx, idx int, si *SigInput, nested bool,
	cand candidateKey) (*wire.MsgTx, error) {

	sig, err := makeSignature(tx, idx, si, cand.privKey)
	if err != nil {
		return nil, err
	}

	in, err := buildInput(tx, idx, si, sig, cand.pubKey)
	if err != nil {
		return nil, err
	}

	if !si.isSegwit() {
		sigScript, err := in.Script()
		if err != nil {
			return nil, err
		}
		signed := tx.Copy()
		signed.TxIn[idx].SignatureScript = sigScript
		return signed, nil
	}

	witnesses, err := updatedWitnessData(tx, idx, si, in)
	if err != nil {
		return nil, err
	}

	signed := tx.Copy()
	for i, witness := range witnesses {
		signed.TxIn[i].Witness = witness
	}

	// A nested spend reveals the witness program in the sigScript as a
	// single push; a native spend leaves the sigScript untouched.
	if nested {
		pkScript, err := si.PkScript.Script()
		if err != nil {
			return nil, err
		}
		sigScript, err := txscript.NewScriptBuilder().
			AddData(pkScript).Script()
		if err != nil {
			return nil, err
		}
		signed.TxIn[idx].SignatureScript = sigScript
	}

	return signed, nil
}
