// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
)

// SigInput describes one previous output being spent: the locking
// script, the amount it holds, the outpoint used to locate the matching
// transaction input, the sighash type to sign with and, for script-hash
// outputs, the redeem script that unlocks them.  Values are immutable
// once constructed.
type SigInput struct {
	// PkScript is the locking condition of the spent output.  For a
	// nested segwit spend this is the inner witness program, not the
	// wrapping pay-to-script-hash output.
	PkScript sigscript.ScriptOutput

	// Value is the amount held by the spent output, committed to by
	// the BIP143 digest.
	Value btcutil.Amount

	// OutPoint locates the transaction input spending this output.
	// It is only compared for equality, never dereferenced.
	OutPoint wire.OutPoint

	// HashType selects which parts of the transaction the signature
	// commits to.
	HashType txscript.SigHashType

	// Redeem is the script whose hash a script-hash output commits
	// to.  Nil for every other output type.
	Redeem sigscript.ScriptOutput
}

// isSegwit reports whether signing this input follows the witness
// digest rules: the output itself is a witness program, or its redeem
// script is.
func (si *SigInput) isSegwit() bool {
	if sigscript.IsWitnessOutput(si.PkScript) {
		return true
	}

	return si.Redeem != nil && sigscript.IsWitnessOutput(si.Redeem)
}

// sigInputJSON is the wire form of a SigInput.  The redeem field is
// omitted entirely when absent, never emitted as null.
type sigInputJSON struct {
	PkScript string       `json:"pkscript"`
	Value    uint64       `json:"value"`
	OutPoint outPointJSON `json:"outpoint"`
	SigHash  uint32       `json:"sighash"`
	Redeem   string       `json:"redeem,omitempty"`
}

type outPointJSON struct {
	TxID  string `json:"txid"`
	Index uint32 `json:"index"`
}

// MarshalJSON encodes the SigInput with hex scripts and the txid in the
// conventional reversed-hash order.
func (si SigInput) MarshalJSON() ([]byte, error) {
	pkScript, err := si.PkScript.Script()
	if err != nil {
		return nil, err
	}

	aux := sigInputJSON{
		PkScript: hex.EncodeToString(pkScript),
		Value:    uint64(si.Value),
		OutPoint: outPointJSON{
			TxID:  si.OutPoint.Hash.String(),
			Index: si.OutPoint.Index,
		},
		SigHash: uint32(si.HashType),
	}
	if si.Redeem != nil {
		redeemScript, err := si.Redeem.Script()
		if err != nil {
			return nil, err
		}
		aux.Redeem = hex.EncodeToString(redeemScript)
	}

	return json.Marshal(aux)
}

// UnmarshalJSON decodes the structured SigInput encoding produced by
// MarshalJSON.
func (si *SigInput) UnmarshalJSON(b []byte) error {
	var aux sigInputJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	pkScript, err := hex.DecodeString(aux.PkScript)
	if err != nil {
		return fmt.Errorf("invalid pkscript hex: %w", err)
	}
	out, err := sigscript.ParseOutput(pkScript)
	if err != nil {
		return err
	}

	txid, err := chainhash.NewHashFromStr(aux.OutPoint.TxID)
	if err != nil {
		return fmt.Errorf("invalid outpoint txid: %w", err)
	}

	var redeem sigscript.ScriptOutput
	if aux.Redeem != "" {
		redeemScript, err := hex.DecodeString(aux.Redeem)
		if err != nil {
			return fmt.Errorf("invalid redeem hex: %w", err)
		}
		redeem, err = sigscript.ParseOutput(redeemScript)
		if err != nil {
			return fmt.Errorf("invalid redeem script: %w", err)
		}
	}

	*si = SigInput{
		PkScript: out,
		Value:    btcutil.Amount(aux.Value),
		OutPoint: wire.OutPoint{
			Hash:  *txid,
			Index: aux.OutPoint.Index,
		},
		HashType: txscript.SigHashType(aux.SigHash),
		Redeem:   redeem,
	}

	return nil
}
