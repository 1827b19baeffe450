package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/zsyncio/zsync-go/eip712"
)

// TransactionTypeName is the primary type every transaction digest is
// computed against.
const TransactionTypeName = "Transaction"

// TransactionTypes is the fixed schema of the transaction envelope. It is a
// constant of the protocol: callers never supply or extend it, and field
// order here is the field order on the wire. Addresses travel as uint256
// per the account-abstraction convention of the chain.
var TransactionTypes = eip712.Types{
	TransactionTypeName: {
		{Name: "txType", Type: "uint256"},
		{Name: "from", Type: "uint256"},
		{Name: "to", Type: "uint256"},
		{Name: "gasLimit", Type: "uint256"},
		{Name: "gasPerPubdataByteLimit", Type: "uint256"},
		{Name: "maxFeePerGas", Type: "uint256"},
		{Name: "maxPriorityFeePerGas", Type: "uint256"},
		{Name: "paymaster", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "factoryDeps", Type: "bytes32[]"},
		{Name: "paymasterInput", Type: "bytes"},
	},
}

// Transaction is the chain-specific envelope signed for authorization.
// Pointer fields distinguish "absent" from "zero"; absent numeric fields
// resolve to zero and absent byte fields to empty when the signing input is
// built.
type Transaction struct {
	From    *common.Address `json:"from,omitempty"`
	To      *common.Address `json:"to,omitempty"`
	Nonce   *big.Int        `json:"nonce,omitempty"`
	Value   *big.Int        `json:"value,omitempty"`
	Data    hexutil.Bytes   `json:"data,omitempty"`
	ChainID *big.Int        `json:"chainId,omitempty"`

	GasLimit             *big.Int `json:"gasLimit,omitempty"`
	MaxFeePerGas         *big.Int `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas,omitempty"`
	GasPerPubdata        *big.Int `json:"gasPerPubdata,omitempty"`

	// FactoryDeps carries the bytecode hashes of contracts this
	// transaction depends on.
	FactoryDeps []common.Hash `json:"factoryDeps,omitempty"`

	PaymasterParams *PaymasterParams `json:"paymasterParams,omitempty"`
}

// SigningMessage builds the typed-data message for the transaction schema.
// Every omitted numeric field becomes zero and every omitted byte field
// becomes empty, so the message always carries the full declared field set.
func (tx *Transaction) SigningMessage() map[string]interface{} {
	paymaster := big.NewInt(0)
	paymasterInput := []byte{}
	if tx.PaymasterParams != nil {
		paymaster = addressToInt(&tx.PaymasterParams.Paymaster)
		paymasterInput = tx.PaymasterParams.PaymasterInput
	}
	deps := make([]interface{}, len(tx.FactoryDeps))
	for i, dep := range tx.FactoryDeps {
		deps[i] = dep
	}
	data := []byte(tx.Data)
	if data == nil {
		data = []byte{}
	}
	return map[string]interface{}{
		"txType":                 big.NewInt(EIP712TxType),
		"from":                   addressToInt(tx.From),
		"to":                     addressToInt(tx.To),
		"gasLimit":               orZero(tx.GasLimit),
		"gasPerPubdataByteLimit": orZero(tx.GasPerPubdata),
		"maxFeePerGas":           orZero(tx.MaxFeePerGas),
		"maxPriorityFeePerGas":   orZero(tx.MaxPriorityFeePerGas),
		"paymaster":              paymaster,
		"nonce":                  orZero(tx.Nonce),
		"value":                  orZero(tx.Value),
		"data":                   data,
		"factoryDeps":            deps,
		"paymasterInput":         paymasterInput,
	}
}

// Domain returns the fixed signing domain bound to the transaction's chain.
func (tx *Transaction) Domain() (*eip712.Domain, error) {
	if tx.ChainID == nil {
		return nil, ErrMissingChainID
	}
	return &eip712.Domain{
		Name:    SigningDomainName,
		Version: SigningDomainVersion,
		ChainID: tx.ChainID,
	}, nil
}

// Digest computes the 32-byte authorization digest of the transaction:
// the EIP-712 hash of its signing message under the chain-bound domain.
//
// Returns ErrMissingChainID when the transaction carries no chain id.
func (tx *Transaction) Digest() ([]byte, error) {
	domain, err := tx.Domain()
	if err != nil {
		return nil, err
	}
	return eip712.HashTypedData(domain, TransactionTypes, TransactionTypeName, tx.SigningMessage())
}

// Encode serializes the signed transaction into its raw broadcast form:
// the type discriminant followed by the RLP of the envelope fields with the
// authorization signature attached.
func (tx *Transaction) Encode(signature []byte) ([]byte, error) {
	if tx.ChainID == nil {
		return nil, ErrMissingChainID
	}
	to := []byte{}
	if tx.To != nil {
		to = tx.To.Bytes()
	}
	from := []byte{}
	if tx.From != nil {
		from = tx.From.Bytes()
	}
	data := []byte(tx.Data)
	if data == nil {
		data = []byte{}
	}
	gasPerPubdata := tx.GasPerPubdata
	if gasPerPubdata == nil {
		gasPerPubdata = big.NewInt(DefaultGasPerPubdataLimit)
	}
	paymasterFields := []interface{}{}
	if tx.PaymasterParams != nil {
		paymasterFields = []interface{}{
			tx.PaymasterParams.Paymaster.Bytes(),
			[]byte(tx.PaymasterParams.PaymasterInput),
		}
	}
	deps := tx.FactoryDeps
	if deps == nil {
		deps = []common.Hash{}
	}

	fields := []interface{}{
		orZero(tx.Nonce),
		orZero(tx.MaxPriorityFeePerGas),
		orZero(tx.MaxFeePerGas),
		orZero(tx.GasLimit),
		to,
		orZero(tx.Value),
		data,
		// Signature slot: chain id plays the role of v, r and s stay empty
		// since authorization travels in the custom-signature field below.
		tx.ChainID,
		[]byte{},
		[]byte{},
		tx.ChainID,
		from,
		gasPerPubdata,
		deps,
		signature,
		paymasterFields,
	}
	encoded, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}
	return append([]byte{EIP712TxType}, encoded...), nil
}

func addressToInt(addr *common.Address) *big.Int {
	if addr == nil {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(addr.Bytes())
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
