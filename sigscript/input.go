// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sigscript

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// SimpleInput is the structured form of an unlocking script for a
// non-script-hash condition: a lone signature (SpendSig), a signature
// with its public key (SpendKeySig), or an ordered multisig signature
// list (SpendMulSig).
type SimpleInput interface {
	isSimpleInput()
}

// SpendSig unlocks a pay-to-pubkey output.
type SpendSig struct {
	Sig TxSignature
}

// SpendKeySig unlocks a pay-to-pubkey-hash or witness-pubkey-hash
// output.
type SpendKeySig struct {
	Sig TxSignature
	Key PubKey
}

// SpendMulSig unlocks a multisig output.  The list may be shorter than
// the script's required count while the input is still gathering
// signatures, and individual entries may be the empty placeholder, but
// present signatures always appear in the same relative order as the
// keys they match.
type SpendMulSig struct {
	Sigs []TxSignature
}

func (*SpendSig) isSimpleInput()    {}
func (*SpendKeySig) isSimpleInput() {}
func (*SpendMulSig) isSimpleInput() {}

// ScriptInput is a complete unlocking script: either a SimpleInput used
// directly (RegularInput) or one wrapped with the redeem script whose
// hash the output commits to (ScriptHashInput).
type ScriptInput interface {
	// Script returns the consensus sigScript encoding of the input.
	Script() ([]byte, error)

	isScriptInput()
}

// RegularInput is a bare unlocking script.
type RegularInput struct {
	Input SimpleInput
}

// ScriptHashInput is an unlocking script for a script-hash output: the
// inner input's pushes followed by a final push of the encoded redeem
// script.
type ScriptHashInput struct {
	Input  SimpleInput
	Redeem ScriptOutput
}

func (*RegularInput) isScriptInput()    {}
func (*ScriptHashInput) isScriptInput() {}

// addSimpleInput appends the pushes of a simple input to a script
// builder.  Multisig inputs lead with an empty push to satisfy the
// extra-element convention of OP_CHECKMULTISIG, and empty placeholder
// signatures encode as empty pushes to keep slot alignment.
func addSimpleInput(builder *txscript.ScriptBuilder, in SimpleInput) error {
	switch si := in.(type) {
	case *SpendSig:
		builder.AddData(si.Sig.Serialize())

	case *SpendKeySig:
		builder.AddData(si.Sig.Serialize())
		builder.AddData(si.Key.Serialize())

	case *SpendMulSig:
		builder.AddOp(txscript.OP_0)
		for _, sig := range si.Sigs {
			builder.AddData(sig.Serialize())
		}

	default:
		return fmt.Errorf("%w: unknown simple input %T",
			ErrNonStandardScript, in)
	}

	return nil
}

// Script returns the sigScript encoding of a bare input.
func (in *RegularInput) Script() ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	if err := addSimpleInput(builder, in.Input); err != nil {
		return nil, err
	}

	return builder.Script()
}

// Script returns the sigScript encoding of a script-hash input.
func (in *ScriptHashInput) Script() ([]byte, error) {
	redeemScript, err := in.Redeem.Script()
	if err != nil {
		return nil, err
	}

	builder := txscript.NewScriptBuilder()
	if err := addSimpleInput(builder, in.Input); err != nil {
		return nil, err
	}
	builder.AddData(redeemScript)

	return builder.Script()
}

// pushedData decodes a push-only script into its pushed elements.
// OP_0 counts as an empty push.
func pushedData(script []byte) ([][]byte, error) {
	ops, err := tokenizeScript(script)
	if err != nil {
		return nil, err
	}

	pushes := make([][]byte, 0, len(ops))
	for _, op := range ops {
		if op.op > txscript.OP_PUSHDATA4 {
			return nil, fmt.Errorf("%w: non-push opcode 0x%02x "+
				"in sigScript", ErrNonStandardScript, op.op)
		}
		if op.data == nil {
			pushes = append(pushes, []byte{})
			continue
		}
		pushes = append(pushes, op.data)
	}

	return pushes, nil
}

// matchSimpleInput structurally decodes pushed sigScript elements as one
// of the simple input shapes.
func matchSimpleInput(pushes [][]byte) (SimpleInput, error) {
	switch {
	// A lone signature spends a pay-to-pubkey output.
	case len(pushes) == 1 && len(pushes[0]) > 0:
		sig, err := ParseTxSignature(pushes[0])
		if err != nil {
			return nil, err
		}
		return &SpendSig{Sig: sig}, nil

	// A signature followed by its public key spends a
	// pay-to-pubkey-hash output.
	case len(pushes) == 2 && len(pushes[0]) > 0:
		sig, err := ParseTxSignature(pushes[0])
		if err != nil {
			return nil, err
		}
		key, err := NewPubKey(pushes[1])
		if err != nil {
			return nil, err
		}
		return &SpendKeySig{Sig: sig, Key: key}, nil

	// An empty element followed by signatures spends a multisig
	// output.  Empty elements after the first are placeholder slots.
	case len(pushes) >= 1 && len(pushes[0]) == 0:
		sigs := make([]TxSignature, 0, len(pushes)-1)
		for _, push := range pushes[1:] {
			if len(push) == 0 {
				sigs = append(sigs, TxSignature{})
				continue
			}
			sig, err := ParseTxSignature(push)
			if err != nil {
				return nil, err
			}
			sigs = append(sigs, sig)
		}
		return &SpendMulSig{Sigs: sigs}, nil
	}

	return nil, fmt.Errorf("%w: unrecognized input shape",
		ErrNonStandardScript)
}

// ParseInput structurally decodes a raw sigScript.  The simple shapes
// are tried first; failing those, the final push is interpreted as a
// redeem script and the preceding pushes as the inner input, yielding a
// ScriptHashInput.
func ParseInput(sigScript []byte) (ScriptInput, error) {
	pushes, err := pushedData(sigScript)
	if err != nil {
		return nil, err
	}

	if in, err := matchSimpleInput(pushes); err == nil {
		return &RegularInput{Input: in}, nil
	}

	if len(pushes) < 2 {
		return nil, fmt.Errorf("%w: unrecognized input shape",
			ErrNonStandardScript)
	}
	log.Tracef("Decoding %d-push sigScript as script-hash spend",
		len(pushes))
	redeem, err := ParseOutput(pushes[len(pushes)-1])
	if err != nil {
		return nil, err
	}
	inner, err := matchSimpleInput(pushes[:len(pushes)-1])
	if err != nil {
		return nil, err
	}

	return &ScriptHashInput{Input: inner, Redeem: redeem}, nil
}

// MergeableSigs returns the signature list of a bare or script-hash
// wrapped multisig input, the only shapes whose signatures can be
// merged with more.  Any other input yields nil.
func MergeableSigs(in ScriptInput) []TxSignature {
	var inner SimpleInput
	switch i := in.(type) {
	case *RegularInput:
		inner = i.Input
	case *ScriptHashInput:
		inner = i.Input
	}

	if ms, ok := inner.(*SpendMulSig); ok {
		return ms.Sigs
	}

	return nil
}
