package signer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	gethCrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signer produces operation signatures on behalf of an account owner. The
// digest passed to Sign is the raw operation hash, wrapping it into the
// personal-message envelope is the signer's job.
type Signer interface {
	// Address returns the owner address the signatures recover to.
	Address() common.Address
	// Sign returns a 65-byte recoverable signature over the digest.
	Sign(digest common.Hash) ([]byte, error)
}

// KeySigner signs with an in-memory secp256k1 key using the personal-message
// scheme smart accounts verify against.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*KeySigner)(nil)

func NewKeySigner(key *ecdsa.PrivateKey) (*KeySigner, error) {
	if key == nil {
		return nil, fmt.Errorf("signer requires a private key")
	}
	return &KeySigner{
		key:     key,
		address: gethCrypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

// Sign wraps the digest in the personal-message envelope and signs it. The
// recovery byte is shifted into the 27/28 range on-chain verifiers expect.
func (s *KeySigner) Sign(digest common.Hash) ([]byte, error) {
	sig, err := gethCrypto.Sign(accounts.TextHash(digest.Bytes()), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign operation: %w", err)
	}
	sig[64] += 27

	return sig, nil
}
