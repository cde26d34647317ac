// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
)

// sigHashScriptCode determines the script bound into the signature
// digest.  A witness-pubkey-hash output signs over the equivalent
// legacy pay-to-pubkey-hash script per the BIP143 rules; otherwise the
// redeem script takes precedence over the output script when present.
func sigHashScriptCode(si *SigInput) ([]byte, error) {
	if wpkh, ok := si.PkScript.(*sigscript.PayWitnessPKHash); ok {
		pkh := &sigscript.PayPKHash{Hash: wpkh.Hash}
		return pkh.Script()
	}

	if si.Redeem != nil {
		return si.Redeem.Script()
	}

	return si.PkScript.Script()
}

// SigHash computes the 256-bit digest a signature for the given input
// commits to, selecting the BIP143 witness algorithm for witness-flagged
// inputs and the legacy algorithm otherwise.
func SigHash(tx *wire.MsgTx, idx int, si *SigInput) ([]byte, error) {
	scriptCode, err := sigHashScriptCode(si)
	if err != nil {
		return nil, err
	}

	if !si.isSegwit() {
		return txscript.CalcSignatureHash(
			scriptCode, si.HashType, tx, idx,
		)
	}

	pkScript, err := si.PkScript.Script()
	if err != nil {
		return nil, err
	}
	fetcher := txscript.NewCannedPrevOutputFetcher(
		pkScript, int64(si.Value),
	)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	return txscript.CalcWitnessSigHash(
		scriptCode, sigHashes, si.HashType, tx, idx, int64(si.Value),
	)
}

// sigHashForType recomputes the input's digest under a different sighash
// type.  Signatures merged from other parties carry their own type, and
// each must be verified against the digest it actually committed to.
func sigHashForType(tx *wire.MsgTx, idx int, si *SigInput,
	hashType txscript.SigHashType) ([]byte, error) {

	retyped := *si
	retyped.HashType = hashType

	return SigHash(tx, idx, &retyped)
}

// makeSignature signs the input's digest with the given key using
// deterministic RFC6979 ECDSA and tags the result with the requested
// sighash type.
func makeSignature(tx *wire.MsgTx, idx int, si *SigInput,
	key *btcec.PrivateKey) (sigscript.TxSignature, error) {

	digest, err := SigHash(tx, idx, si)
	if err != nil {
		return sigscript.TxSignature{}, err
	}

	return sigscript.TxSignature{
		Sig:      ecdsa.Sign(key, digest),
		HashType: si.HashType,
	}, nil
}
