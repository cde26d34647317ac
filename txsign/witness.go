// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
)

// witnessData extracts the transaction's per-input witness stacks, or
// nil when no input carries a witness.
func witnessData(tx *wire.MsgTx) []wire.TxWitness {
	if !tx.HasWitness() {
		return nil
	}

	witnesses := make([]wire.TxWitness, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		witnesses[i] = txIn.Witness
	}

	return witnesses
}

// updatedWitnessData computes the witness stacks after signing one
// input.  Non-witness inputs leave the existing data unchanged.
func updatedWitnessData(tx *wire.MsgTx, idx int, si *SigInput,
	in sigscript.ScriptInput) ([]wire.TxWitness, error) {

	if !si.isSegwit() {
		return witnessData(tx), nil
	}

	prog, err := sigscript.CalcWitnessProgram(si.PkScript, in)
	if err != nil {
		return nil, err
	}

	return replaceWitnessSlot(
		witnessData(tx), len(tx.TxIn), idx, prog.WitnessStack(),
	)
}

// replaceWitnessSlot sets one input's witness stack.  Nil existing data
// materializes a full-length list of empty stacks first; non-nil data
// must already have exactly one slot per input.
func replaceWitnessSlot(witnesses []wire.TxWitness, numInputs, idx int,
	stack wire.TxWitness) ([]wire.TxWitness, error) {

	if witnesses == nil {
		witnesses = make([]wire.TxWitness, numInputs)
		for i := range witnesses {
			witnesses[i] = wire.TxWitness{}
		}
	}
	if len(witnesses) != numInputs {
		return nil, fmt.Errorf("%w: %d witness stacks for %d inputs",
			ErrWitnessCountMismatch, len(witnesses), numInputs)
	}

	updated := make([]wire.TxWitness, len(witnesses))
	copy(updated, witnesses)
	updated[idx] = stack

	return updated, nil
}
