package chainmodel

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// mainnetParams are the network parameters addresses are derived
// under.
var mainnetParams = &chaincfg.MainNetParams

// deriveAddress attempts to derive the single address a script_pubkey
// pays to. It returns nil when the script does not match any of the
// standard address-bearing script classes (multisig, bare scripts,
// nonstandard scripts, and OP_RETURN all return nil), matching the
// original's Address::from_script, which only succeeds for a single
// recognized pay-to pattern.
//
// Adapted from bitcoin/derive.go, which derives an address from a
// *known public key* for signing; here the direction is reversed — an
// arbitrary, previously unseen script_pubkey is the input, so the
// derivation goes through txscript.ExtractPkScriptAddrs instead of
// building an address type directly from a pubkey hash.
func deriveAddress(script []byte) *string {
	class, addrs, requiredSigs, err := txscript.ExtractPkScriptAddrs(script, mainnetParams)
	if err != nil {
		return nil
	}

	switch class {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy,
		txscript.WitnessV0PubKeyHashTy, txscript.WitnessV0ScriptHashTy,
		txscript.WitnessV1TaprootTy, txscript.PubKeyTy:
		// These classes resolve to exactly one address.
	default:
		return nil
	}

	if requiredSigs != 1 || len(addrs) != 1 {
		return nil
	}

	encoded := addrs[0].EncodeAddress()
	return &encoded
}

// isProvablyUnspendable reports whether script can never be spent,
// i.e. it is an OP_RETURN data-carrier output.
func isProvablyUnspendable(script []byte) bool {
	if len(script) == 0 {
		return false
	}
	return script[0] == txscript.OP_RETURN
}
