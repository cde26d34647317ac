// Copyright (c) 2024 The haskoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sigscript models the standard Bitcoin spending conditions and
// their unlocking counterparts as closed variant sets, together with the
// codecs that map them to and from raw consensus scripts and segwit
// witness stacks.
//
// A ScriptOutput describes the locking condition of a previous output
// (pay-to-pubkey, pay-to-pubkey-hash, multisig, script-hash and the two
// version-0 witness forms). A ScriptInput describes the data that unlocks
// one of those conditions, either bare (RegularInput) or wrapped with a
// redeem script (ScriptHashInput). The witness program types mirror the
// literal byte-string stack carried in a transaction's witness field for
// segwit spends.
//
// The package deliberately owns no signing logic; see the txsign package
// for the engine that produces and merges signatures over these types.
package sigscript
