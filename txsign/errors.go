// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import "errors"

var (
	// ErrNoInputs is returned when a transaction with no inputs is
	// handed to SignTx.  Nothing can be signed, so the whole call
	// aborts before any work is done.
	ErrNoInputs = errors.New("transaction has no inputs")

	// ErrUnresolvableKey is returned when no key-selection rule
	// exists for an output/redeem combination, such as a script-hash
	// output with no redeem script or a redeem script that is itself
	// a script-hash output.
	ErrUnresolvableKey = errors.New("cannot resolve keys for script")

	// ErrIndexOutOfRange is returned when a target input index is not
	// less than the transaction's input count.
	ErrIndexOutOfRange = errors.New("input index out of range")

	// ErrInvalidCombination is returned when input assembly is asked
	// to build an unlocking script for an output/redeem pairing it
	// does not recognize.
	ErrInvalidCombination = errors.New("invalid output/redeem combination")

	// ErrWitnessCountMismatch is returned when a transaction's
	// existing witness data does not have exactly one stack per
	// input.
	ErrWitnessCountMismatch = errors.New("witness count does not match " +
		"input count")

	// ErrMissingUTXO is returned by the PSBT bridge when an input
	// carries neither a witness nor a non-witness UTXO.
	ErrMissingUTXO = errors.New("psbt input is missing utxo information")
)
