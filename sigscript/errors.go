// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sigscript

import "errors"

var (
	// ErrNonStandardScript is returned when a raw script or a
	// (script, witness stack) pairing does not match any of the
	// standard spending conditions modeled by this package.
	ErrNonStandardScript = errors.New("non-standard script")

	// ErrInvalidWitnessProgram is returned when a witness stack does
	// not have the arity or content required by the output it is
	// paired with, or when an (output, input) pairing has no witness
	// representation at all.
	ErrInvalidWitnessProgram = errors.New("invalid witness program")

	// ErrInvalidSignature is returned when signature bytes cannot be
	// decoded as a DER signature followed by a sighash type byte.
	ErrInvalidSignature = errors.New("invalid transaction signature")

	// ErrInvalidPubKey is returned when public key bytes cannot be
	// decoded as a compressed or uncompressed secp256k1 point.
	ErrInvalidPubKey = errors.New("invalid public key")
)
