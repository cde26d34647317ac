// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sigscript

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// WitnessProgram is the structured mirror of a per-input witness stack.
// The variant set is closed: WitnessP2WPKH, WitnessP2WSH and
// EmptyWitnessProgram.
type WitnessProgram interface {
	// WitnessStack returns the literal ordered byte-string stack
	// carried in the transaction's witness field.
	WitnessStack() wire.TxWitness

	isWitnessProgram()
}

// WitnessP2WPKH is the two-element witness of a pay-to-witness-pubkey-hash
// spend: a signature and the public key it belongs to.
type WitnessP2WPKH struct {
	Sig TxSignature
	Key PubKey
}

// WitnessP2WSH is the witness of a pay-to-witness-script-hash spend: the
// inner unlocking stack followed by the serialized witness script.
type WitnessP2WSH struct {
	Stack  wire.TxWitness
	Script []byte
}

// EmptyWitnessProgram is the witness of an input that carries none.
type EmptyWitnessProgram struct{}

func (*WitnessP2WPKH) isWitnessProgram()       {}
func (*WitnessP2WSH) isWitnessProgram()        {}
func (*EmptyWitnessProgram) isWitnessProgram() {}

// WitnessStack returns `[signature, pubkey]`.
func (w *WitnessP2WPKH) WitnessStack() wire.TxWitness {
	return wire.TxWitness{w.Sig.Serialize(), w.Key.Serialize()}
}

// WitnessStack returns the inner stack with the witness script appended.
func (w *WitnessP2WSH) WitnessStack() wire.TxWitness {
	stack := make(wire.TxWitness, 0, len(w.Stack)+1)
	stack = append(stack, w.Stack...)
	stack = append(stack, w.Script)

	return stack
}

// WitnessStack returns the empty stack.
func (w *EmptyWitnessProgram) WitnessStack() wire.TxWitness {
	return wire.TxWitness{}
}

// SimpleInputStack converts a simple input into the witness elements that
// represent it.  Multisig inputs lead with one empty element, mirroring
// the OP_CHECKMULTISIG convention, and empty placeholder signatures
// encode as empty elements so slot alignment survives the round trip.
func SimpleInputStack(in SimpleInput) (wire.TxWitness, error) {
	switch si := in.(type) {
	case *SpendSig:
		return wire.TxWitness{si.Sig.Serialize()}, nil

	case *SpendKeySig:
		return wire.TxWitness{
			si.Sig.Serialize(), si.Key.Serialize(),
		}, nil

	case *SpendMulSig:
		stack := make(wire.TxWitness, 0, len(si.Sigs)+1)
		stack = append(stack, []byte{})
		for _, sig := range si.Sigs {
			stack = append(stack, sig.Serialize())
		}
		return stack, nil
	}

	return nil, fmt.Errorf("%w: unknown simple input %T",
		ErrNonStandardScript, in)
}

// CalcWitnessProgram derives the witness program for an (output, input)
// pairing.  Supported pairings are a witness-pubkey-hash output with a
// key-and-signature input, a witness-script-hash output with a
// script-hash input, and their pay-to-script-hash nested forms.  Any
// other pairing has no witness representation.
func CalcWitnessProgram(out ScriptOutput, in ScriptInput) (WitnessProgram,
	error) {

	switch i := in.(type) {
	case *RegularInput:
		ks, ok := i.Input.(*SpendKeySig)
		if _, isWPKH := out.(*PayWitnessPKHash); isWPKH && ok {
			return &WitnessP2WPKH{Sig: ks.Sig, Key: ks.Key}, nil
		}

	case *ScriptHashInput:
		switch out.(type) {
		case *PayScriptHash, *PayWitnessScriptHash:
		default:
			return nil, fmt.Errorf("%w: output %T cannot nest a "+
				"script-hash input", ErrInvalidWitnessProgram,
				out)
		}

		// A script-hash wrapped key-and-signature input is a nested
		// p2wpkh spend; everything else wraps a full witness script.
		if ks, ok := i.Input.(*SpendKeySig); ok {
			if _, isWSH := out.(*PayWitnessScriptHash); !isWSH {
				return &WitnessP2WPKH{
					Sig: ks.Sig, Key: ks.Key,
				}, nil
			}
		}

		stack, err := SimpleInputStack(i.Input)
		if err != nil {
			return nil, err
		}
		redeemScript, err := i.Redeem.Script()
		if err != nil {
			return nil, err
		}

		return &WitnessP2WSH{Stack: stack, Script: redeemScript}, nil
	}

	return nil, fmt.Errorf("%w: no witness form for output %T with "+
		"input %T", ErrInvalidWitnessProgram, out, in)
}

// ViewWitnessProgram structurally decodes a witness stack against the
// output it spends.  A witness-pubkey-hash output requires exactly two
// elements, a witness-script-hash output requires a non-empty stack
// whose last element is the witness script, and an empty stack on any
// other output decodes to the empty program.
func ViewWitnessProgram(out ScriptOutput, stack wire.TxWitness) (
	WitnessProgram, error) {

	switch out.(type) {
	case *PayWitnessPKHash:
		if len(stack) != 2 {
			return nil, fmt.Errorf("%w: p2wpkh witness needs "+
				"exactly 2 elements, got %d",
				ErrInvalidWitnessProgram, len(stack))
		}
		sig, err := ParseTxSignature(stack[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v",
				ErrInvalidWitnessProgram, err)
		}
		key, err := NewPubKey(stack[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v",
				ErrInvalidWitnessProgram, err)
		}
		return &WitnessP2WPKH{Sig: sig, Key: key}, nil

	case *PayWitnessScriptHash:
		if len(stack) == 0 {
			return nil, fmt.Errorf("%w: p2wsh witness is empty",
				ErrInvalidWitnessProgram)
		}
		inner := make(wire.TxWitness, len(stack)-1)
		copy(inner, stack[:len(stack)-1])
		return &WitnessP2WSH{
			Stack:  inner,
			Script: stack[len(stack)-1],
		}, nil
	}

	if len(stack) == 0 {
		return &EmptyWitnessProgram{}, nil
	}

	return nil, fmt.Errorf("%w: output %T carries a %d-element witness",
		ErrInvalidWitnessProgram, out, len(stack))
}

// DecodeWitnessInput interprets a witness program as a spending
// condition.  For p2wpkh spends the committed output is implied by the
// key itself and nil is returned for it; for p2wsh spends the embedded
// witness script is decoded and returned alongside the inner input.
// Only the pay-to-pubkey, pay-to-pubkey-hash and multisig witness-script
// shapes are standard.
func DecodeWitnessInput(prog WitnessProgram) (ScriptOutput, SimpleInput,
	error) {

	switch p := prog.(type) {
	case *WitnessP2WPKH:
		return nil, &SpendKeySig{Sig: p.Sig, Key: p.Key}, nil

	case *WitnessP2WSH:
		out, err := ParseOutput(p.Script)
		if err != nil {
			return nil, nil, err
		}
		in, err := decodeWitnessStack(out, p.Stack)
		if err != nil {
			return nil, nil, err
		}
		return out, in, nil
	}

	return nil, nil, fmt.Errorf("%w: empty witness program",
		ErrInvalidWitnessProgram)
}

// decodeWitnessStack matches a p2wsh inner stack against the shape its
// witness script demands.
func decodeWitnessStack(out ScriptOutput, stack wire.TxWitness) (
	SimpleInput, error) {

	switch out.(type) {
	case *PayPK:
		if len(stack) != 1 {
			break
		}
		sig, err := ParseTxSignature(stack[0])
		if err != nil {
			return nil, err
		}
		return &SpendSig{Sig: sig}, nil

	case *PayPKHash:
		if len(stack) != 2 {
			break
		}
		sig, err := ParseTxSignature(stack[0])
		if err != nil {
			return nil, err
		}
		key, err := NewPubKey(stack[1])
		if err != nil {
			return nil, err
		}
		return &SpendKeySig{Sig: sig, Key: key}, nil

	case *PayMulSig:
		if len(stack) < 1 || len(stack[0]) != 0 {
			break
		}
		sigs := make([]TxSignature, 0, len(stack)-1)
		for _, element := range stack[1:] {
			if len(element) == 0 {
				sigs = append(sigs, TxSignature{})
				continue
			}
			sig, err := ParseTxSignature(element)
			if err != nil {
				return nil, err
			}
			sigs = append(sigs, sig)
		}
		return &SpendMulSig{Sigs: sigs}, nil
	}

	return nil, fmt.Errorf("%w: witness script %T with %d-element stack",
		ErrNonStandardScript, out, len(stack))
}
