// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsign

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cryptobuks1/haskoin-core/sigscript"
	"github.com/stretchr/testify/require"
)

const testValue = btcutil.Amount(100_000)

// testKey derives a deterministic private key from a one-byte seed.
func testKey(t *testing.T, seed byte) *btcec.PrivateKey {
	t.Helper()

	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))

	return priv
}

func compressedPubKey(key *btcec.PrivateKey) sigscript.PubKey {
	return sigscript.PubKey{Key: key.PubKey(), Compressed: true}
}

// testOutPoint is a fake previous output reference; it is only ever
// compared for equality.
func testOutPoint(seed byte) wire.OutPoint {
	return wire.OutPoint{
		Hash:  chainhash.Hash{seed},
		Index: uint32(seed),
	}
}

// spendingTx builds a one-input transaction spending the given
// outpoints.
func spendingTx(outPoints ...wire.OutPoint) *wire.MsgTx {
	tx := &wire.MsgTx{Version: 2}
	for _, op := range outPoints {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{PreviousOutPoint: op})
	}
	tx.TxOut = append(tx.TxOut, &wire.TxOut{
		Value:    int64(testValue) - 1_000,
		PkScript: changeScript(),
	})

	return tx
}

// changeScript is a throwaway p2pkh output script for test change.
func changeScript() []byte {
	script := []byte{
		txscript.OP_DUP, txscript.OP_HASH160, txscript.OP_DATA_20,
	}
	script = append(script, make([]byte, 20)...)

	return append(script, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)
}

// checkInputScripts executes the script engine over one input,
// confirming the produced sigScript and witness actually satisfy the
// spent output.
func checkInputScripts(t *testing.T, tx *wire.MsgTx, idx int,
	pkScript []byte, value btcutil.Amount) {

	t.Helper()

	fetcher := txscript.NewCannedPrevOutputFetcher(
		pkScript, int64(value),
	)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	vm, err := txscript.NewEngine(
		pkScript, tx, idx, txscript.StandardVerifyFlags, nil,
		sigHashes, int64(value), fetcher,
	)
	require.NoError(t, err)
	require.NoError(t, vm.Execute(), "input %d does not validate", idx)
}

// mulSigOutput builds a 2-of-3 multisig condition over the given keys.
func mulSigOutput(t *testing.T, keys ...*btcec.PrivateKey) *sigscript.PayMulSig {
	t.Helper()

	pubKeys := make([]sigscript.PubKey, len(keys))
	for i, key := range keys {
		pubKeys[i] = compressedPubKey(key)
	}
	out, err := sigscript.PayToMultiSig(pubKeys, 2)
	require.NoError(t, err)

	return out
}

func TestSignTxStandardOutputs(t *testing.T) {
	t.Parallel()

	key1 := testKey(t, 0x01)
	key2 := testKey(t, 0x02)
	key3 := testKey(t, 0x03)

	mulSig := mulSigOutput(t, key1, key2, key3)
	mulSigScript, err := mulSig.Script()
	require.NoError(t, err)

	var compressedHash, uncompressedHash, redeemHash [20]byte
	copy(compressedHash[:],
		btcutil.Hash160(key1.PubKey().SerializeCompressed()))
	copy(uncompressedHash[:],
		btcutil.Hash160(key1.PubKey().SerializeUncompressed()))
	copy(redeemHash[:], btcutil.Hash160(mulSigScript))
	witnessScriptHash := sha256.Sum256(mulSigScript)

	p2wpkhOut := &sigscript.PayWitnessPKHash{Hash: compressedHash}
	p2wpkhScript, err := p2wpkhOut.Script()
	require.NoError(t, err)
	p2wshOut := &sigscript.PayWitnessScriptHash{Hash: witnessScriptHash}
	p2wshScript, err := p2wshOut.Script()
	require.NoError(t, err)

	var nestedWpkhHash, nestedWshHash [20]byte
	copy(nestedWpkhHash[:], btcutil.Hash160(p2wpkhScript))
	copy(nestedWshHash[:], btcutil.Hash160(p2wshScript))

	testCases := []struct {
		name string
		// pkScript is the spending condition as seen by the signer.
		pkScript sigscript.ScriptOutput
		redeem   sigscript.ScriptOutput
		// chainScript is the output script on chain, which differs
		// from pkScript for nested segwit spends.
		chainScript sigscript.ScriptOutput
		keys        []*btcec.PrivateKey
		nested      bool
	}{{
		name:     "p2pk",
		pkScript: &sigscript.PayPK{Key: compressedPubKey(key1)},
		keys:     []*btcec.PrivateKey{key1},
	}, {
		name:     "p2pkh compressed",
		pkScript: &sigscript.PayPKHash{Hash: compressedHash},
		keys:     []*btcec.PrivateKey{key1},
	}, {
		name:     "p2pkh uncompressed",
		pkScript: &sigscript.PayPKHash{Hash: uncompressedHash},
		keys:     []*btcec.PrivateKey{key1},
	}, {
		name:     "bare multisig",
		pkScript: mulSig,
		keys:     []*btcec.PrivateKey{key1, key2},
	}, {
		name:     "p2sh multisig",
		pkScript: &sigscript.PayScriptHash{Hash: redeemHash},
		redeem:   mulSig,
		keys:     []*btcec.PrivateKey{key1, key2},
	}, {
		name:     "native p2wpkh",
		pkScript: p2wpkhOut,
		keys:     []*btcec.PrivateKey{key1},
	}, {
		name:     "native p2wsh multisig",
		pkScript: p2wshOut,
		redeem:   mulSig,
		keys:     []*btcec.PrivateKey{key1, key2},
	}, {
		name:        "nested p2wpkh",
		pkScript:    p2wpkhOut,
		chainScript: &sigscript.PayScriptHash{Hash: nestedWpkhHash},
		keys:        []*btcec.PrivateKey{key1},
		nested:      true,
	}, {
		name:        "nested p2wsh multisig",
		pkScript:    p2wshOut,
		redeem:      mulSig,
		chainScript: &sigscript.PayScriptHash{Hash: nestedWshHash},
		keys:        []*btcec.PrivateKey{key1, key2},
		nested:      true,
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			op := testOutPoint(0x10)
			tx := spendingTx(op)
			si := &SigInput{
				PkScript: tc.pkScript,
				Value:    testValue,
				OutPoint: op,
				HashType: txscript.SigHashAll,
				Redeem:   tc.redeem,
			}

			sign := SignTx
			if tc.nested {
				sign = SignNestedWitnessTx
			}
			signed, err := sign(tx, []*SigInput{si}, tc.keys)
			require.NoError(t, err)

			// The input transaction is never touched.
			require.Empty(t, tx.TxIn[0].SignatureScript)
			require.Empty(t, tx.TxIn[0].Witness)

			chainOut := tc.chainScript
			if chainOut == nil {
				chainOut = tc.pkScript
			}
			chainScript, err := chainOut.Script()
			require.NoError(t, err)
			checkInputScripts(t, signed, 0, chainScript, testValue)
		})
	}
}

// TestSignTxIncrementalMultisig checks that two cosigners signing in
// separate calls accumulate exactly the required signatures, in the
// order of the script's key list, without clobbering each other.
func TestSignTxIncrementalMultisig(t *testing.T) {
	t.Parallel()

	key1 := testKey(t, 0x01)
	key2 := testKey(t, 0x02)
	key3 := testKey(t, 0x03)
	mulSig := mulSigOutput(t, key1, key2, key3)
	mulSigScript, err := mulSig.Script()
	require.NoError(t, err)

	var redeemHash [20]byte
	copy(redeemHash[:], btcutil.Hash160(mulSigScript))
	p2shOut := &sigscript.PayScriptHash{Hash: redeemHash}

	op := testOutPoint(0x20)
	si := &SigInput{
		PkScript: p2shOut,
		Value:    testValue,
		OutPoint: op,
		HashType: txscript.SigHashAll,
		Redeem:   mulSig,
	}

	verifySigners := func(t *testing.T, tx *wire.MsgTx) {
		in, err := sigscript.ParseInput(tx.TxIn[0].SignatureScript)
		require.NoError(t, err)
		sigs := sigscript.MergeableSigs(in)
		require.Len(t, sigs, 2)

		// Signatures are ordered by the script's key list: key2
		// signed second but key1's signature comes first.
		digest, err := SigHash(tx, 0, si)
		require.NoError(t, err)
		require.True(t, sigs[0].Sig.Verify(digest, key1.PubKey()))
		require.True(t, sigs[1].Sig.Verify(digest, key2.PubKey()))
	}

	t.Run("two separate calls", func(t *testing.T) {
		t.Parallel()

		tx := spendingTx(op)

		// The second cosigner signs in reverse order to prove the
		// merge orders by script keys, not arrival.
		partial, err := SignTx(
			tx, []*SigInput{si}, []*btcec.PrivateKey{key2},
		)
		require.NoError(t, err)

		in, err := sigscript.ParseInput(
			partial.TxIn[0].SignatureScript,
		)
		require.NoError(t, err)
		require.Len(t, sigscript.MergeableSigs(in), 1)

		complete, err := SignTx(
			partial, []*SigInput{si}, []*btcec.PrivateKey{key1},
		)
		require.NoError(t, err)

		verifySigners(t, complete)
		checkInputScripts(t, complete, 0, mustScript(t, p2shOut),
			testValue)
	})

	t.Run("single call with both keys", func(t *testing.T) {
		t.Parallel()

		tx := spendingTx(op)
		complete, err := SignTx(
			tx, []*SigInput{si},
			[]*btcec.PrivateKey{key1, key2},
		)
		require.NoError(t, err)

		verifySigners(t, complete)
		checkInputScripts(t, complete, 0, mustScript(t, p2shOut),
			testValue)
	})
}

// TestSignTxIncrementalWitnessMultisig exercises signature extraction
// from an existing witness stack: the second signer must pick up the
// first signature from the witness, not the sigScript.
func TestSignTxIncrementalWitnessMultisig(t *testing.T) {
	t.Parallel()

	key1 := testKey(t, 0x01)
	key2 := testKey(t, 0x02)
	key3 := testKey(t, 0x03)
	mulSig := mulSigOutput(t, key1, key2, key3)
	mulSigScript, err := mulSig.Script()
	require.NoError(t, err)

	witnessScriptHash := sha256.Sum256(mulSigScript)
	p2wshOut := &sigscript.PayWitnessScriptHash{Hash: witnessScriptHash}

	op := testOutPoint(0x30)
	si := &SigInput{
		PkScript: p2wshOut,
		Value:    testValue,
		OutPoint: op,
		HashType: txscript.SigHashAll,
		Redeem:   mulSig,
	}

	tx := spendingTx(op)
	partial, err := SignTx(
		tx, []*SigInput{si}, []*btcec.PrivateKey{key3},
	)
	require.NoError(t, err)
	require.NotEmpty(t, partial.TxIn[0].Witness)

	complete, err := SignTx(
		partial, []*SigInput{si}, []*btcec.PrivateKey{key1},
	)
	require.NoError(t, err)

	checkInputScripts(t, complete, 0, mustScript(t, p2wshOut), testValue)
}

func mustScript(t *testing.T, out sigscript.ScriptOutput) []byte {
	t.Helper()

	script, err := out.Script()
	require.NoError(t, err)

	return script
}

func TestFindInputIndices(t *testing.T) {
	t.Parallel()

	op0 := testOutPoint(0x01)
	op1 := testOutPoint(0x02)
	op2 := testOutPoint(0x03)
	tx := spendingTx(op0, op1, op2)

	// Input 1 has no matching SigInput, and the list order is
	// reversed relative to the transaction.
	sigInputs := []*SigInput{
		{OutPoint: op2},
		{OutPoint: op0},
	}

	matches := findInputIndices(
		sigInputs, func(si *SigInput) wire.OutPoint {
			return si.OutPoint
		}, tx,
	)
	require.Len(t, matches, 2)
	require.Equal(t, 0, matches[0].idx)
	require.Equal(t, 2, matches[1].idx)

	// An outpoint matching two inputs is ambiguous and dropped.
	dupTx := spendingTx(op0, op0)
	matches = findInputIndices(
		[]*SigInput{{OutPoint: op0}},
		func(si *SigInput) wire.OutPoint { return si.OutPoint },
		dupTx,
	)
	require.Empty(t, matches)
}

func TestSignTxNoInputs(t *testing.T) {
	t.Parallel()

	tx := &wire.MsgTx{Version: 2}
	_, err := SignTx(tx, nil, []*btcec.PrivateKey{testKey(t, 0x01)})
	require.ErrorIs(t, err, ErrNoInputs)
}

func TestBuildInputIndexOutOfRange(t *testing.T) {
	t.Parallel()

	key1 := testKey(t, 0x01)
	op := testOutPoint(0x01)
	tx := spendingTx(op)

	var keyHash [20]byte
	copy(keyHash[:], btcutil.Hash160(key1.PubKey().SerializeCompressed()))
	si := &SigInput{
		PkScript: &sigscript.PayPKHash{Hash: keyHash},
		Value:    testValue,
		OutPoint: op,
		HashType: txscript.SigHashAll,
	}

	_, err := buildInput(
		tx, len(tx.TxIn), si, sigscript.TxSignature{},
		compressedPubKey(key1),
	)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestReplaceWitnessSlotCountMismatch(t *testing.T) {
	t.Parallel()

	// Two witness stacks for a three-input transaction.
	existing := []wire.TxWitness{{}, {}}
	_, err := replaceWitnessSlot(existing, 3, 0, wire.TxWitness{})
	require.ErrorIs(t, err, ErrWitnessCountMismatch)

	// Nil data materializes a full-length list.
	updated, err := replaceWitnessSlot(
		nil, 3, 1, wire.TxWitness{[]byte{0x01}},
	)
	require.NoError(t, err)
	require.Len(t, updated, 3)
	require.Empty(t, updated[0])
	require.Len(t, updated[1], 1)
}

func TestSignInputInvalidCombination(t *testing.T) {
	t.Parallel()

	key1 := testKey(t, 0x01)
	op := testOutPoint(0x01)
	tx := spendingTx(op)

	var keyHash [20]byte
	copy(keyHash[:], btcutil.Hash160(key1.PubKey().SerializeCompressed()))

	// A redeem script on a plain pubkey-hash output is not a
	// recognized combination.
	si := &SigInput{
		PkScript: &sigscript.PayPKHash{Hash: keyHash},
		Value:    testValue,
		OutPoint: op,
		HashType: txscript.SigHashAll,
		Redeem:   &sigscript.PayPK{Key: compressedPubKey(key1)},
	}

	_, err := SignInput(tx, 0, si, false, key1, true)
	require.ErrorIs(t, err, ErrInvalidCombination)
}

// TestSignVerifyRoundTrip checks the digest and signature primitives
// directly: a fresh signature always verifies under the digest it was
// computed for.
func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	key1 := testKey(t, 0x01)
	op := testOutPoint(0x01)
	tx := spendingTx(op)

	var keyHash [20]byte
	copy(keyHash[:], btcutil.Hash160(key1.PubKey().SerializeCompressed()))

	for _, si := range []*SigInput{{
		PkScript: &sigscript.PayPKHash{Hash: keyHash},
		Value:    testValue,
		OutPoint: op,
		HashType: txscript.SigHashAll,
	}, {
		PkScript: &sigscript.PayWitnessPKHash{Hash: keyHash},
		Value:    testValue,
		OutPoint: op,
		HashType: txscript.SigHashSingle,
	}} {
		sig, err := makeSignature(tx, 0, si, key1)
		require.NoError(t, err)
		require.Equal(t, si.HashType, sig.HashType)

		digest, err := SigHash(tx, 0, si)
		require.NoError(t, err)
		require.True(t, sig.Sig.Verify(digest, key1.PubKey()))
	}
}
