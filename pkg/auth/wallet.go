package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const nonceTTL = 5 * time.Minute

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrNonceNotFound    = errors.New("nonce not issued or expired")
	ErrInvalidSignature = errors.New("signature does not match address")
)

type issuedNonce struct {
	nonce    string
	issuedAt time.Time
}

// WalletVerifier issues one-time login nonces and checks that the
// personal_sign signature over the nonce message recovers to the
// claimed address.
type WalletVerifier struct {
	nonces map[string]issuedNonce
	sync.Mutex
}

func NewWalletVerifier() *WalletVerifier {
	return &WalletVerifier{
		nonces: make(map[string]issuedNonce),
	}
}

func (w *WalletVerifier) IssueNonce(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	w.Lock()
	w.nonces[normalizeAddress(address)] = issuedNonce{
		nonce:    nonce,
		issuedAt: time.Now().UTC(),
	}
	w.Unlock()

	return nonce, nil
}

// VerifySignature consumes the address's pending nonce. A nonce is
// single-use whether or not verification succeeds.
func (w *WalletVerifier) VerifySignature(address, signature string) error {
	if !common.IsHexAddress(address) {
		return ErrInvalidAddress
	}

	key := normalizeAddress(address)

	w.Lock()
	issued, ok := w.nonces[key]
	delete(w.nonces, key)
	w.Unlock()

	if !ok || time.Since(issued.issuedAt) > nonceTTL {
		return ErrNonceNotFound
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, "signature is not hex")
	}
	if len(sig) != crypto.SignatureLength {
		return errors.Wrap(ErrInvalidSignature, "wrong signature length")
	}

	// Wallets return V as 27/28, go-ethereum expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(signHash(LoginMessage(issued.nonce)), sig)
	if err != nil {
		return errors.Wrap(ErrInvalidSignature, err.Error())
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(address) {
		return ErrInvalidSignature
	}

	return nil
}

// LoginMessage is the exact text the client asks the wallet to sign.
func LoginMessage(nonce string) string {
	return fmt.Sprintf("RecycleFi login\nnonce: %s", nonce)
}

// signHash applies the EIP-191 personal_sign envelope before hashing.
func signHash(msg string) []byte {
	data := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256([]byte(data))
}

func normalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// NormalizeAddress returns the checksummed form of a wallet address.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(address).Hex(), nil
}
