package types

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// EIP712TxType is the type discriminant of the chain's EIP-712
	// transaction envelope.
	EIP712TxType = 0x71

	// SigningDomainName and SigningDomainVersion fix the EIP-712 domain
	// every transaction digest is bound to. They are protocol constants,
	// never caller-supplied.
	SigningDomainName    = "zkSync"
	SigningDomainVersion = "2"

	// DefaultGasPerPubdataLimit is the gas-per-pubdata-byte bound used when
	// a transaction does not set one explicitly.
	DefaultGasPerPubdataLimit = 50_000
)

// ErrMissingChainID is returned when a digest is requested for a
// transaction without a chain id. Chain binding is mandatory: the same
// digest structure must never be replayable across chains, so a missing
// chain id is an error rather than a zero default.
var ErrMissingChainID = errors.New("types: transaction has no chain id")

// PaymasterParams designates a fee sponsor and the ABI-encoded input that
// authorizes it.
type PaymasterParams struct {
	Paymaster      common.Address `json:"paymaster"`
	PaymasterInput hexutil.Bytes  `json:"paymasterInput"`
}

// Fee holds the fee parameters returned by the provider's fee estimation.
type Fee struct {
	GasLimit             *big.Int `json:"gas_limit"`
	GasPerPubdataLimit   *big.Int `json:"gas_per_pubdata_limit"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas"`
}
