// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sigscript

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ScriptOutput is the structured form of a standard output (locking)
// script.  The set of variants is closed: PayPK, PayPKHash, PayMulSig,
// PayScriptHash, PayWitnessPKHash and PayWitnessScriptHash.
type ScriptOutput interface {
	// Script returns the canonical consensus encoding of the output
	// script.
	Script() ([]byte, error)

	isScriptOutput()
}

// PayPK is a pay-to-pubkey output, spendable by a single signature from
// the embedded key.
type PayPK struct {
	Key PubKey
}

// PayPKHash is a pay-to-pubkey-hash output committing to the hash160 of
// a public key.
type PayPKHash struct {
	Hash [20]byte
}

// PayMulSig is a bare m-of-n multisig output.  Required signatures must
// come from keys in the listed order.
type PayMulSig struct {
	Keys     []PubKey
	Required int
}

// PayScriptHash is a pay-to-script-hash output committing to the
// hash160 of a redeem script.
type PayScriptHash struct {
	Hash [20]byte
}

// PayWitnessPKHash is a version-0 witness output committing to the
// hash160 of a public key.
type PayWitnessPKHash struct {
	Hash [20]byte
}

// PayWitnessScriptHash is a version-0 witness output committing to the
// SHA256 of a witness script.
type PayWitnessScriptHash struct {
	Hash [32]byte
}

func (*PayPK) isScriptOutput()                {}
func (*PayPKHash) isScriptOutput()            {}
func (*PayMulSig) isScriptOutput()            {}
func (*PayScriptHash) isScriptOutput()        {}
func (*PayWitnessPKHash) isScriptOutput()     {}
func (*PayWitnessScriptHash) isScriptOutput() {}

// PayToMultiSig constructs a validated m-of-n multisig output.
func PayToMultiSig(keys []PubKey, required int) (*PayMulSig, error) {
	if required < 1 || required > len(keys) || len(keys) > 16 {
		return nil, fmt.Errorf("%w: invalid %d-of-%d multisig",
			ErrNonStandardScript, required, len(keys))
	}

	return &PayMulSig{Keys: keys, Required: required}, nil
}

// Script returns the canonical `<pubkey> OP_CHECKSIG` encoding.
func (o *PayPK) Script() ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(o.Key.Serialize()).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// Script returns the canonical five-opcode pay-to-pubkey-hash encoding.
func (o *PayPKHash) Script() ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(o.Hash[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// Script returns the canonical `m <pubkeys...> n OP_CHECKMULTISIG`
// encoding.
func (o *PayMulSig) Script() ([]byte, error) {
	builder := txscript.NewScriptBuilder().
		AddInt64(int64(o.Required))
	for _, key := range o.Keys {
		builder.AddData(key.Serialize())
	}

	return builder.
		AddInt64(int64(len(o.Keys))).
		AddOp(txscript.OP_CHECKMULTISIG).
		Script()
}

// Script returns the canonical `OP_HASH160 <hash> OP_EQUAL` encoding.
func (o *PayScriptHash) Script() ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(o.Hash[:]).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// Script returns the version-0 witness program `OP_0 <20-byte hash>`.
func (o *PayWitnessPKHash) Script() ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(o.Hash[:]).
		Script()
}

// Script returns the version-0 witness program `OP_0 <32-byte hash>`.
func (o *PayWitnessScriptHash) Script() ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(o.Hash[:]).
		Script()
}

// IsWitnessOutput reports whether the output is one of the version-0
// segwit variants.
func IsWitnessOutput(out ScriptOutput) bool {
	switch out.(type) {
	case *PayWitnessPKHash, *PayWitnessScriptHash:
		return true
	}

	return false
}

// IsScriptHashOutput reports whether the output commits to a script
// hash, which means spending it requires a further redeem script.
func IsScriptHashOutput(out ScriptOutput) bool {
	switch out.(type) {
	case *PayScriptHash, *PayWitnessScriptHash:
		return true
	}

	return false
}

// scriptOp is one parsed script element: the opcode and, for push
// opcodes, the pushed bytes.
type scriptOp struct {
	op   byte
	data []byte
}

// tokenizeScript splits a raw script into its opcode elements or fails
// if the script is malformed.
func tokenizeScript(script []byte) ([]scriptOp, error) {
	var ops []scriptOp
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		ops = append(ops, scriptOp{
			op:   tokenizer.Opcode(),
			data: tokenizer.Data(),
		})
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonStandardScript, err)
	}

	return ops, nil
}

// ParseOutput decodes a raw output script into its structured variant.
// Scripts that do not match one of the standard templates fail with
// ErrNonStandardScript.
func ParseOutput(pkScript []byte) (ScriptOutput, error) {
	ops, err := tokenizeScript(pkScript)
	if err != nil {
		return nil, err
	}

	if out := matchPayPK(ops); out != nil {
		return out, nil
	}
	if out := matchPayPKHash(ops); out != nil {
		return out, nil
	}
	if out := matchPayScriptHash(ops); out != nil {
		return out, nil
	}
	if out := matchWitness(ops); out != nil {
		return out, nil
	}
	if out := matchPayMulSig(ops); out != nil {
		return out, nil
	}

	return nil, fmt.Errorf("%w: unrecognized output script",
		ErrNonStandardScript)
}

func matchPayPK(ops []scriptOp) ScriptOutput {
	if len(ops) != 2 || ops[1].op != txscript.OP_CHECKSIG {
		return nil
	}
	key, err := NewPubKey(ops[0].data)
	if err != nil {
		return nil
	}

	return &PayPK{Key: key}
}

func matchPayPKHash(ops []scriptOp) ScriptOutput {
	if len(ops) != 5 ||
		ops[0].op != txscript.OP_DUP ||
		ops[1].op != txscript.OP_HASH160 ||
		len(ops[2].data) != 20 ||
		ops[3].op != txscript.OP_EQUALVERIFY ||
		ops[4].op != txscript.OP_CHECKSIG {

		return nil
	}

	out := &PayPKHash{}
	copy(out.Hash[:], ops[2].data)

	return out
}

func matchPayScriptHash(ops []scriptOp) ScriptOutput {
	if len(ops) != 3 ||
		ops[0].op != txscript.OP_HASH160 ||
		len(ops[1].data) != 20 ||
		ops[2].op != txscript.OP_EQUAL {

		return nil
	}

	out := &PayScriptHash{}
	copy(out.Hash[:], ops[1].data)

	return out
}

func matchWitness(ops []scriptOp) ScriptOutput {
	if len(ops) != 2 || ops[0].op != txscript.OP_0 {
		return nil
	}

	switch len(ops[1].data) {
	case 20:
		out := &PayWitnessPKHash{}
		copy(out.Hash[:], ops[1].data)
		return out

	case 32:
		out := &PayWitnessScriptHash{}
		copy(out.Hash[:], ops[1].data)
		return out
	}

	return nil
}

func matchPayMulSig(ops []scriptOp) ScriptOutput {
	if len(ops) < 4 ||
		!txscript.IsSmallInt(ops[0].op) ||
		!txscript.IsSmallInt(ops[len(ops)-2].op) ||
		ops[len(ops)-1].op != txscript.OP_CHECKMULTISIG {

		return nil
	}

	required := txscript.AsSmallInt(ops[0].op)
	total := txscript.AsSmallInt(ops[len(ops)-2].op)
	keyOps := ops[1 : len(ops)-2]
	if total != len(keyOps) || required < 1 || required > total {
		return nil
	}

	keys := make([]PubKey, 0, len(keyOps))
	for _, keyOp := range keyOps {
		key, err := NewPubKey(keyOp.data)
		if err != nil {
			return nil
		}
		keys = append(keys, key)
	}

	return &PayMulSig{Keys: keys, Required: required}
}

// Address renders the output's committed hash or key as network address,
// delegating the encoding entirely to btcutil.  Bare multisig outputs
// have no address form.
func Address(out ScriptOutput, net *chaincfg.Params) (btcutil.Address, error) {
	switch o := out.(type) {
	case *PayPK:
		return btcutil.NewAddressPubKey(o.Key.Serialize(), net)

	case *PayPKHash:
		return btcutil.NewAddressPubKeyHash(o.Hash[:], net)

	case *PayScriptHash:
		return btcutil.NewAddressScriptHashFromHash(o.Hash[:], net)

	case *PayWitnessPKHash:
		return btcutil.NewAddressWitnessPubKeyHash(o.Hash[:], net)

	case *PayWitnessScriptHash:
		return btcutil.NewAddressWitnessScriptHash(o.Hash[:], net)
	}

	return nil, fmt.Errorf("%w: output has no address form",
		ErrNonStandardScript)
}

// PayToAddress converts a btcutil address back into the output variant
// that pays to it.
func PayToAddress(addr btcutil.Address) (ScriptOutput, error) {
	switch a := addr.(type) {
	case *btcutil.AddressPubKey:
		key, err := NewPubKey(a.ScriptAddress())
		if err != nil {
			return nil, err
		}
		return &PayPK{Key: key}, nil

	case *btcutil.AddressPubKeyHash:
		out := &PayPKHash{}
		copy(out.Hash[:], a.ScriptAddress())
		return out, nil

	case *btcutil.AddressScriptHash:
		out := &PayScriptHash{}
		copy(out.Hash[:], a.ScriptAddress())
		return out, nil

	case *btcutil.AddressWitnessPubKeyHash:
		out := &PayWitnessPKHash{}
		copy(out.Hash[:], a.ScriptAddress())
		return out, nil

	case *btcutil.AddressWitnessScriptHash:
		out := &PayWitnessScriptHash{}
		copy(out.Hash[:], a.ScriptAddress())
		return out, nil
	}

	return nil, fmt.Errorf("%w: unsupported address type %T",
		ErrNonStandardScript, addr)
}
