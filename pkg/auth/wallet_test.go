package auth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletKey struct {
	priv    *ecdsa.PrivateKey
	address string
}

func newKey(t *testing.T) *walletKey {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &walletKey{
		priv:    priv,
		address: crypto.PubkeyToAddress(priv.PublicKey).Hex(),
	}
}

func signNonce(t *testing.T, key *walletKey, nonce string) string {
	t.Helper()
	sig, err := crypto.Sign(signHash(LoginMessage(nonce)), key.priv)
	require.NoError(t, err)
	// Present the signature the way wallets do, with V as 27/28.
	sig[crypto.RecoveryIDOffset] += 27
	return "0x" + hex.EncodeToString(sig)
}

func TestWalletVerifier_VerifySignature(t *testing.T) {
	key := newKey(t)

	t.Run("Valid signature", func(t *testing.T) {
		w := NewWalletVerifier()
		nonce, err := w.IssueNonce(key.address)
		require.NoError(t, err)

		err = w.VerifySignature(key.address, signNonce(t, key, nonce))
		assert.NoError(t, err)
	})

	t.Run("Nonce is single use", func(t *testing.T) {
		w := NewWalletVerifier()
		nonce, err := w.IssueNonce(key.address)
		require.NoError(t, err)

		sig := signNonce(t, key, nonce)
		require.NoError(t, w.VerifySignature(key.address, sig))

		err = w.VerifySignature(key.address, sig)
		assert.ErrorIs(t, err, ErrNonceNotFound)
	})

	t.Run("Signature from another key", func(t *testing.T) {
		other := newKey(t)

		w := NewWalletVerifier()
		nonce, err := w.IssueNonce(key.address)
		require.NoError(t, err)

		err = w.VerifySignature(key.address, signNonce(t, other, nonce))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Signature over a stale nonce", func(t *testing.T) {
		w := NewWalletVerifier()
		_, err := w.IssueNonce(key.address)
		require.NoError(t, err)

		err = w.VerifySignature(key.address, signNonce(t, key, "deadbeef"))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("No nonce issued", func(t *testing.T) {
		w := NewWalletVerifier()
		err := w.VerifySignature(key.address, "0x00")
		assert.ErrorIs(t, err, ErrNonceNotFound)
	})

	t.Run("Malformed address", func(t *testing.T) {
		w := NewWalletVerifier()
		_, err := w.IssueNonce("not-an-address")
		assert.ErrorIs(t, err, ErrInvalidAddress)

		err = w.VerifySignature("not-an-address", "0x00")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("Case-insensitive address match", func(t *testing.T) {
		w := NewWalletVerifier()
		lower := "0x" + hex.EncodeToString(crypto.PubkeyToAddress(key.priv.PublicKey).Bytes())

		nonce, err := w.IssueNonce(lower)
		require.NoError(t, err)

		err = w.VerifySignature(key.address, signNonce(t, key, nonce))
		assert.NoError(t, err)
	})
}

func TestNormalizeAddress(t *testing.T) {
	key := newKey(t)
	lower := "0x" + hex.EncodeToString(crypto.PubkeyToAddress(key.priv.PublicKey).Bytes())

	got, err := NormalizeAddress(lower)
	assert.NoError(t, err)
	assert.Equal(t, key.address, got)

	_, err = NormalizeAddress("nope")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
