package chainmodel

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddress_P2PKH(t *testing.T) {
	pkHash := bytes.Repeat([]byte{0xaa}, 20)
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pkHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)

	addr := deriveAddress(script)
	require.NotNil(t, addr)

	expected, err := btcutil.NewAddressPubKeyHash(pkHash, &chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, expected.EncodeAddress(), *addr)
}

func TestDeriveAddress_MultisigReturnsNil(t *testing.T) {
	_, pub1 := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x01}, 32))
	_, pub2 := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{0x02}, 32))

	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_2).
		AddData(pub1.SerializeCompressed()).
		AddData(pub2.SerializeCompressed()).
		AddOp(txscript.OP_2).
		AddOp(txscript.OP_CHECKMULTISIG).
		Script()
	require.NoError(t, err)

	assert.Nil(t, deriveAddress(script))
}

func TestDeriveAddress_OpReturnReturnsNil(t *testing.T) {
	script, err := txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN).Script()
	require.NoError(t, err)
	assert.Nil(t, deriveAddress(script))
}

func TestIsProvablyUnspendable(t *testing.T) {
	opReturn, err := txscript.NewScriptBuilder().AddOp(txscript.OP_RETURN).AddData([]byte("x")).Script()
	require.NoError(t, err)
	assert.True(t, isProvablyUnspendable(opReturn))

	p2pkh, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(bytes.Repeat([]byte{0x01}, 20)).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)
	assert.False(t, isProvablyUnspendable(p2pkh))

	assert.False(t, isProvablyUnspendable(nil))
}
