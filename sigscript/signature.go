// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sigscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
)

// TxSignature is an ECDSA signature over a transaction digest together
// with the sighash type the digest was computed for.  The zero value is
// the distinguished empty signature, used as a placeholder for
// not-yet-filled multisig slots.
type TxSignature struct {
	Sig      *ecdsa.Signature
	HashType txscript.SigHashType
}

// IsEmpty reports whether the signature is the empty placeholder.
func (ts TxSignature) IsEmpty() bool {
	return ts.Sig == nil
}

// Serialize returns the DER-encoded signature with the sighash type
// appended as a single trailing byte.  The empty placeholder serializes
// to the empty byte string, which is how multisig inputs and witness
// stacks represent an unfilled slot.
func (ts TxSignature) Serialize() []byte {
	if ts.IsEmpty() {
		return []byte{}
	}

	return append(ts.Sig.Serialize(), byte(ts.HashType))
}

// ParseTxSignature decodes a DER signature followed by a sighash type
// byte.  Empty input is rejected; callers that treat the empty string as
// a placeholder must check for it before calling.
func ParseTxSignature(b []byte) (TxSignature, error) {
	if len(b) == 0 {
		return TxSignature{}, fmt.Errorf("%w: empty signature",
			ErrInvalidSignature)
	}

	sig, err := ecdsa.ParseDERSignature(b[:len(b)-1])
	if err != nil {
		return TxSignature{}, fmt.Errorf("%w: %v",
			ErrInvalidSignature, err)
	}

	return TxSignature{
		Sig:      sig,
		HashType: txscript.SigHashType(b[len(b)-1]),
	}, nil
}
