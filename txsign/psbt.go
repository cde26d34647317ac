// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
)

// SigInputsFromPacket derives one SigInput per PSBT input, plus its
// nested-segwit flag, from the UTXO, redeem script and witness script
// metadata a PSBT producer attached.  Inputs missing both UTXO forms
// fail with ErrMissingUTXO.
func SigInputsFromPacket(p *psbt.Packet) ([]*SigInput, []bool, error) {
	sigInputs := make([]*SigInput, 0, len(p.Inputs))
	nested := make([]bool, 0, len(p.Inputs))

	for i := range p.Inputs {
		si, isNested, err := packetSigInput(p, i)
		if err != nil {
			return nil, nil, fmt.Errorf("input %d: %w", i, err)
		}
		sigInputs = append(sigInputs, si)
		nested = append(nested, isNested)
	}

	return sigInputs, nested, nil
}

func packetSigInput(p *psbt.Packet, idx int) (*SigInput, bool, error) {
	pin := &p.Inputs[idx]
	txIn := p.UnsignedTx.TxIn[idx]

	utxo, err := packetUTXO(pin, txIn)
	if err != nil {
		return nil, false, err
	}

	hashType := pin.SighashType
	if hashType == 0 {
		hashType = txscript.SigHashAll
	}

	// A redeem script that is itself a witness program marks a nested
	// segwit spend: the inner program becomes the script being signed
	// and ends up push-wrapped in the final sigScript.
	pkScript := utxo.PkScript
	isNested := false
	if len(pin.RedeemScript) > 0 &&
		txscript.IsWitnessProgram(pin.RedeemScript) {

		pkScript = pin.RedeemScript
		isNested = true
	}

	out, err := sigscript.ParseOutput(pkScript)
	if err != nil {
		return nil, false, err
	}

	var redeem sigscript.ScriptOutput
	switch {
	case len(pin.WitnessScript) > 0:
		redeem, err = sigscript.ParseOutput(pin.WitnessScript)

	case len(pin.RedeemScript) > 0 && !isNested:
		redeem, err = sigscript.ParseOutput(pin.RedeemScript)
	}
	if err != nil {
		return nil, false, err
	}

	return &SigInput{
		PkScript: out,
		Value:    btcutil.Amount(utxo.Value),
		OutPoint: txIn.PreviousOutPoint,
		HashType: hashType,
		Redeem:   redeem,
	}, isNested, nil
}

// packetUTXO locates the output being spent by a PSBT input, preferring
// the compact witness UTXO over the full previous transaction.
func packetUTXO(pin *psbt.PInput, txIn *wire.TxIn) (*wire.TxOut, error) {
	if pin.WitnessUtxo != nil {
		return pin.WitnessUtxo, nil
	}

	if pin.NonWitnessUtxo != nil {
		prevIdx := txIn.PreviousOutPoint.Index
		if prevIdx >= uint32(len(pin.NonWitnessUtxo.TxOut)) {
			return nil, fmt.Errorf("%w: previous output %d not "+
				"in utxo transaction", ErrMissingUTXO, prevIdx)
		}
		return pin.NonWitnessUtxo.TxOut[prevIdx], nil
	}

	return nil, ErrMissingUTXO
}

// SignPacket signs the packet's unsigned transaction directly with the
// given keys, bypassing the partial-signature exchange: the result is a
// finalized transaction, not an updated packet.  The packet itself is
// not modified.
func SignPacket(p *psbt.Packet, keys []*btcec.PrivateKey) (*wire.MsgTx,
	error) {

	sigInputs, nested, err := SigInputsFromPacket(p)
	if err != nil {
		return nil, err
	}

	entries := make([]sigInputEntry, len(sigInputs))
	for i, si := range sigInputs {
		entries[i] = sigInputEntry{si: si, nested: nested[i]}
	}
	log.Debugf("Signing psbt packet with %d inputs", len(entries))

	return signTx(p.UnsignedTx, entries, keys)
}
