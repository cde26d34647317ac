// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txsign signs Bitcoin-style transactions.  Given an unsigned
// transaction, a SigInput describing each previous output being spent,
// and a set of private keys, it computes the deterministic signature
// digests, produces signatures, merges them with any already present on
// the transaction, and assembles the final sigScripts and witness
// stacks for legacy, pay-to-script-hash and version-0 segwit spends.
//
// Signing never mutates the caller's transaction: every step returns a
// fresh copy with one input's unlocking data replaced, and a failed
// SignTx call leaves the caller holding their original value.  Multisig
// inputs can be signed incrementally by independent parties; each
// SignTx call folds its signatures into whatever the previous cosigners
// left on the transaction.
package txsign
