package signers

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/zsyncio/zsync-go/eip712"
)

// MultiSigner signs for a smart account whose authorization is the
// concatenation of several single-key signatures. Every key signs the same
// digest; the 65-byte blocks are joined in the exact order the keys were
// supplied. The order is part of the contract with the verifying account:
// it is never reordered or deduplicated here, and signing with the same
// keys in a different order yields a different serialized signature.
type MultiSigner struct {
	address common.Address
	signers []*ECDSASigner
}

// NewMultiSigner creates an aggregate signer for the given smart-account
// address from an ordered list of hex-encoded private keys.
//
// Returns ErrNoSigners when the key list is empty.
func NewMultiSigner(address common.Address, privateKeysHex []string) (*MultiSigner, error) {
	if len(privateKeysHex) == 0 {
		return nil, ErrNoSigners
	}
	signers := make([]*ECDSASigner, len(privateKeysHex))
	for i, keyHex := range privateKeysHex {
		signer, err := NewECDSASigner(keyHex)
		if err != nil {
			return nil, err
		}
		signers[i] = signer
	}
	return &MultiSigner{address: address, signers: signers}, nil
}

// Address returns the smart-account address the aggregate signature
// authorizes for.
func (s *MultiSigner) Address() common.Address {
	return s.address
}

// SignDigest signs the digest with every key and concatenates the blocks
// in key order.
func (s *MultiSigner) SignDigest(digest []byte) ([]byte, error) {
	serialized := make([]byte, 0, 65*len(s.signers))
	for _, signer := range s.signers {
		signature, err := signer.SignDigest(digest)
		if err != nil {
			return nil, err
		}
		serialized = append(serialized, signature...)
	}
	return serialized, nil
}

// SignMessage signs the EIP-191 personal-message hash with every key.
func (s *MultiSigner) SignMessage(message []byte) ([]byte, error) {
	serialized := make([]byte, 0, 65*len(s.signers))
	for _, signer := range s.signers {
		signature, err := signer.SignMessage(message)
		if err != nil {
			return nil, err
		}
		serialized = append(serialized, signature...)
	}
	return serialized, nil
}

// SignTypedData computes the EIP-712 digest once and signs it with every
// key.
func (s *MultiSigner) SignTypedData(domain *eip712.Domain, types eip712.Types, primaryType string, message map[string]interface{}) ([]byte, error) {
	digest, err := eip712.HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}
	return s.SignDigest(digest)
}
