// Package accounts composes signing strategies with transaction
// population. Fee estimation and nonce queries are consumed through
// interfaces; the RPC layer behind them is not this package's concern.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zsyncio/zsync-go/signers"
	"github.com/zsyncio/zsync-go/types"
)

// ErrMissingRequiredField is returned when a transaction request omits a
// field population is not allowed to default, such as the destination.
var ErrMissingRequiredField = errors.New("accounts: missing required field")

// BlockTag selects the state a nonce query reads from.
type BlockTag string

const (
	BlockTagLatest  BlockTag = "latest"
	BlockTagPending BlockTag = "pending"
)

// FeeEstimator supplies fee parameters for a partially populated
// transaction. Implementations typically sit on an RPC provider.
type FeeEstimator interface {
	EstimateFee(ctx context.Context, tx *types.Transaction) (*types.Fee, error)
}

// NonceProvider supplies the next nonce for an address.
type NonceProvider interface {
	NonceAt(ctx context.Context, address common.Address, tag BlockTag) (uint64, error)
}

// PayloadSigner turns an authorization digest into a serialized signature.
// Accounts with custom authorization rules supply their own implementation;
// the default adapts a signers.Signer.
type PayloadSigner interface {
	SignPayload(ctx context.Context, digest []byte) ([]byte, error)
}

// TransactionBuilder populates a transaction request into an envelope
// ready for digest computation. The default implementation is the
// account's own PopulateTransaction.
type TransactionBuilder interface {
	BuildTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

// Config assembles an account. Signer is required; FeeEstimator and
// NonceProvider are needed only when population has to fill the
// corresponding fields. PayloadSigner and Builder override the default
// strategies when set.
type Config struct {
	Signer        signers.Signer
	FeeEstimator  FeeEstimator
	NonceProvider NonceProvider
	PayloadSigner PayloadSigner
	Builder       TransactionBuilder
}

// Account binds an address to a signing strategy and a population
// strategy. It holds no mutable state: concurrent signing requests are
// safe without locking.
type Account struct {
	signer        signers.Signer
	estimator     FeeEstimator
	nonces        NonceProvider
	payloadSigner PayloadSigner
	builder       TransactionBuilder
}

// NewAccount creates an account from the given configuration.
func NewAccount(cfg Config) (*Account, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("accounts: signer is required")
	}
	a := &Account{
		signer:        cfg.Signer,
		estimator:     cfg.FeeEstimator,
		nonces:        cfg.NonceProvider,
		payloadSigner: cfg.PayloadSigner,
		builder:       cfg.Builder,
	}
	if a.payloadSigner == nil {
		a.payloadSigner = signerPayload{cfg.Signer}
	}
	return a, nil
}

// Address returns the account address.
func (a *Account) Address() common.Address {
	return a.signer.Address()
}

// PopulateTransaction fills a partial transaction request into a complete
// envelope: from defaults to the account address, the nonce is fetched
// when absent, gas-per-pubdata gets its protocol default, and missing fee
// fields come from the estimator. The destination and chain id are
// required inputs and never defaulted. The input is not mutated; either a
// fully populated copy is returned or, on any failure (including context
// cancellation inside a collaborator), nothing is.
func (a *Account) PopulateTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if tx.To == nil {
		return nil, fmt.Errorf("%w: to", ErrMissingRequiredField)
	}
	if tx.ChainID == nil {
		return nil, types.ErrMissingChainID
	}

	populated := *tx
	if populated.From == nil {
		from := a.signer.Address()
		populated.From = &from
	}
	if populated.Nonce == nil {
		if a.nonces == nil {
			return nil, fmt.Errorf("%w: nonce (no nonce provider configured)", ErrMissingRequiredField)
		}
		nonce, err := a.nonces.NonceAt(ctx, *populated.From, BlockTagPending)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch nonce: %w", err)
		}
		populated.Nonce = new(big.Int).SetUint64(nonce)
	}
	if populated.GasPerPubdata == nil {
		populated.GasPerPubdata = big.NewInt(types.DefaultGasPerPubdataLimit)
	}
	if populated.GasLimit == nil || populated.MaxFeePerGas == nil {
		if a.estimator == nil {
			return nil, fmt.Errorf("%w: gas parameters (no fee estimator configured)", ErrMissingRequiredField)
		}
		fee, err := a.estimator.EstimateFee(ctx, &populated)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate fee: %w", err)
		}
		if populated.GasLimit == nil {
			populated.GasLimit = fee.GasLimit
		}
		if populated.MaxFeePerGas == nil {
			populated.MaxFeePerGas = fee.MaxFeePerGas
		}
		if populated.MaxPriorityFeePerGas == nil {
			populated.MaxPriorityFeePerGas = fee.MaxPriorityFeePerGas
		}
	}
	if populated.MaxPriorityFeePerGas == nil {
		populated.MaxPriorityFeePerGas = big.NewInt(0)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &populated, nil
}

// BuildTransaction implements TransactionBuilder with the default
// population strategy.
func (a *Account) BuildTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	return a.PopulateTransaction(ctx, tx)
}

// SignTransaction populates the request, computes its authorization
// digest, signs it, and returns the populated envelope together with the
// serialized signature.
func (a *Account) SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, []byte, error) {
	builder := a.builder
	if builder == nil {
		builder = a
	}
	populated, err := builder.BuildTransaction(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	digest, err := populated.Digest()
	if err != nil {
		return nil, nil, err
	}
	signature, err := a.payloadSigner.SignPayload(ctx, digest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return populated, signature, nil
}

// EncodeTransaction signs the request and serializes it into its raw
// broadcast bytes.
func (a *Account) EncodeTransaction(ctx context.Context, tx *types.Transaction) ([]byte, error) {
	populated, signature, err := a.SignTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	return populated.Encode(signature)
}

// signerPayload adapts a signers.Signer to the PayloadSigner capability.
type signerPayload struct {
	signer signers.Signer
}

func (p signerPayload) SignPayload(_ context.Context, digest []byte) ([]byte, error) {
	return p.signer.SignDigest(digest)
}
