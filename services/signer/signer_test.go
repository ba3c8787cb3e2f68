package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestKeySigner_Sign(t *testing.T) {
	key, err := gethCrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	s, err := NewKeySigner(key)
	require.NoError(t, err)
	assert.Equal(t, gethCrypto.PubkeyToAddress(key.PublicKey), s.Address())

	digest := gethCrypto.Keccak256Hash([]byte("an operation hash"))
	sig, err := s.Sign(digest)
	require.NoError(t, err)

	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	// the signature must recover to the owner over the personal-message hash
	recoverSig := make([]byte, 65)
	copy(recoverSig, sig)
	recoverSig[64] -= 27

	pub, err := gethCrypto.SigToPub(accounts.TextHash(digest.Bytes()), recoverSig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), gethCrypto.PubkeyToAddress(*pub))
}

func TestNewKeySigner_RequiresKey(t *testing.T) {
	_, err := NewKeySigner(nil)
	require.Error(t, err)
}
