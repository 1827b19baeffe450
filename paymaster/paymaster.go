// Package paymaster encodes fee-sponsorship parameters into the ABI call
// payloads the paymaster contract interface expects. Encoding is a pure
// function of its inputs: no network or state access.
package paymaster

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/zsyncio/zsync-go/types"
)

// ErrInvalidInput is returned when a flow is missing a value its ABI shape
// requires.
var ErrInvalidInput = errors.New("paymaster: invalid flow input")

// flowABIJSON describes the two functions of the paymaster flow interface.
const flowABIJSON = `[
	{"type":"function","name":"general","stateMutability":"nonpayable","inputs":[
		{"name":"input","type":"bytes"}]},
	{"type":"function","name":"approvalBased","stateMutability":"nonpayable","inputs":[
		{"name":"_token","type":"address"},
		{"name":"_minAllowance","type":"uint256"},
		{"name":"_innerInput","type":"bytes"}]}
]`

var flowABI = mustFlowABI()

func mustFlowABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(flowABIJSON))
	if err != nil {
		panic(fmt.Sprintf("paymaster: invalid flow ABI: %v", err))
	}
	return parsed
}

// Flow is a discriminated paymaster-flow input. The two implementations
// are GeneralFlow and ApprovalBasedFlow.
type Flow interface {
	encodeInput() ([]byte, error)
}

// GeneralFlow sponsors fees unconditionally; InnerInput is passed through
// to the paymaster's general(bytes) entry point.
type GeneralFlow struct {
	InnerInput []byte
}

func (f GeneralFlow) encodeInput() ([]byte, error) {
	inner := f.InnerInput
	if inner == nil {
		inner = []byte{}
	}
	input, err := flowABI.Pack("general", inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return input, nil
}

// ApprovalBasedFlow sponsors fees in exchange for an ERC-20 allowance of at
// least MinimalAllowance on Token.
type ApprovalBasedFlow struct {
	Token            common.Address
	MinimalAllowance *big.Int
	InnerInput       []byte
}

func (f ApprovalBasedFlow) encodeInput() ([]byte, error) {
	if f.MinimalAllowance == nil {
		return nil, fmt.Errorf("%w: minimal allowance is required", ErrInvalidInput)
	}
	inner := f.InnerInput
	if inner == nil {
		inner = []byte{}
	}
	input, err := flowABI.Pack("approvalBased", f.Token, f.MinimalAllowance, inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return input, nil
}

// GetParams encodes a flow against the paymaster address, producing the
// parameters attached to a transaction envelope.
func GetParams(paymaster common.Address, flow Flow) (*types.PaymasterParams, error) {
	if flow == nil {
		return nil, fmt.Errorf("%w: flow is required", ErrInvalidInput)
	}
	input, err := flow.encodeInput()
	if err != nil {
		return nil, err
	}
	return &types.PaymasterParams{
		Paymaster:      paymaster,
		PaymasterInput: input,
	}, nil
}

// DecodeApprovalBased recovers the token, minimal allowance, and inner
// input from an approvalBased paymaster input. Callers use it to verify a
// round trip or inspect a sponsored envelope.
func DecodeApprovalBased(input []byte) (common.Address, *big.Int, []byte, error) {
	method := flowABI.Methods["approvalBased"]
	if len(input) < 4 || string(input[:4]) != string(method.ID) {
		return common.Address{}, nil, nil, fmt.Errorf("%w: not an approvalBased input", ErrInvalidInput)
	}
	values, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return common.Address{}, nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	token, ok1 := values[0].(common.Address)
	allowance, ok2 := values[1].(*big.Int)
	inner, ok3 := values[2].([]byte)
	if !ok1 || !ok2 || !ok3 {
		return common.Address{}, nil, nil, fmt.Errorf("%w: unexpected argument shapes", ErrInvalidInput)
	}
	return token, allowance, inner, nil
}
