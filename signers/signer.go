package signers

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zsyncio/zsync-go/eip712"
)

// ErrNoSigners is returned when an aggregate signature is requested with
// zero keys.
var ErrNoSigners = errors.New("signers: at least one key is required")

// Signer turns digests into serialized authorization signatures. A
// serialized signature is one 65-byte r||s||v block for a single-key
// account, or the concatenation of several such blocks for a multi-key
// account.
type Signer interface {
	// Address returns the account address the signatures authorize for.
	Address() common.Address

	// SignDigest signs a 32-byte digest directly.
	SignDigest(digest []byte) ([]byte, error)

	// SignMessage signs the EIP-191 personal-message hash of message.
	SignMessage(message []byte) ([]byte, error)

	// SignTypedData signs the EIP-712 digest of the given typed data.
	SignTypedData(domain *eip712.Domain, types eip712.Types, primaryType string, message map[string]interface{}) ([]byte, error)
}

// ECDSASigner signs with a single secp256k1 private key. Signing is
// deterministic: the same digest and key always produce the same 65 bytes.
type ECDSASigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewECDSASigner creates a signer from a hex-encoded private key, with or
// without a "0x" prefix.
func NewECDSASigner(privateKeyHex string) (*ECDSASigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &ECDSASigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// Address returns the address derived from the signer's public key.
func (s *ECDSASigner) Address() common.Address {
	return s.address
}

// SignDigest signs a 32-byte digest and returns the 65-byte r||s||v block.
func (s *ECDSASigner) SignDigest(digest []byte) ([]byte, error) {
	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	// Recovery id 0/1 becomes the Ethereum v value 27/28.
	signature[64] += 27
	return signature, nil
}

// SignMessage hashes message with the EIP-191 personal-message prefix and
// signs the result.
func (s *ECDSASigner) SignMessage(message []byte) ([]byte, error) {
	return s.SignDigest(accounts.TextHash(message))
}

// SignTypedData computes the EIP-712 digest of the typed data and signs it.
func (s *ECDSASigner) SignTypedData(domain *eip712.Domain, types eip712.Types, primaryType string, message map[string]interface{}) ([]byte, error) {
	digest, err := eip712.HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}
	return s.SignDigest(digest)
}
