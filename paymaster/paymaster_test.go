package paymaster_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/zsyncio/zsync-go/paymaster"
)

var sponsor = common.HexToAddress("0x0265d9a5af8af5fe070933e5e549d8fef08e09f4")

func TestGeneralFlow(t *testing.T) {
	t.Run("Input carries the general selector", func(t *testing.T) {
		params, err := paymaster.GetParams(sponsor, paymaster.GeneralFlow{InnerInput: []byte{0x42}})
		require.NoError(t, err)
		require.Equal(t, sponsor, params.Paymaster)

		selector := crypto.Keccak256([]byte("general(bytes)"))[:4]
		require.Equal(t, selector, []byte(params.PaymasterInput[:4]))
	})

	t.Run("Nil inner input encodes as empty bytes", func(t *testing.T) {
		withNil, err := paymaster.GetParams(sponsor, paymaster.GeneralFlow{})
		require.NoError(t, err)
		withEmpty, err := paymaster.GetParams(sponsor, paymaster.GeneralFlow{InnerInput: []byte{}})
		require.NoError(t, err)
		require.Equal(t, withEmpty.PaymasterInput, withNil.PaymasterInput)
	})
}

func TestApprovalBasedFlow(t *testing.T) {
	token := common.HexToAddress("0x65c899b5fb8eb9ae4da51d67e1fc417c7cb7e964")

	t.Run("Round trip recovers the inputs", func(t *testing.T) {
		flow := paymaster.ApprovalBasedFlow{
			Token:            token,
			MinimalAllowance: big.NewInt(1_000_000),
			InnerInput:       []byte{0xde, 0xad, 0xbe, 0xef},
		}
		params, err := paymaster.GetParams(sponsor, flow)
		require.NoError(t, err)

		selector := crypto.Keccak256([]byte("approvalBased(address,uint256,bytes)"))[:4]
		require.Equal(t, selector, []byte(params.PaymasterInput[:4]))

		gotToken, gotAllowance, gotInner, err := paymaster.DecodeApprovalBased(params.PaymasterInput)
		require.NoError(t, err)
		require.Equal(t, token, gotToken)
		require.Equal(t, flow.MinimalAllowance, gotAllowance)
		require.Equal(t, flow.InnerInput, gotInner)
	})

	t.Run("Allowance is required", func(t *testing.T) {
		_, err := paymaster.GetParams(sponsor, paymaster.ApprovalBasedFlow{Token: token})
		require.ErrorIs(t, err, paymaster.ErrInvalidInput)
	})

	t.Run("Encoding is pure", func(t *testing.T) {
		flow := paymaster.ApprovalBasedFlow{Token: token, MinimalAllowance: big.NewInt(1)}
		first, err := paymaster.GetParams(sponsor, flow)
		require.NoError(t, err)
		second, err := paymaster.GetParams(sponsor, flow)
		require.NoError(t, err)
		require.Equal(t, first.PaymasterInput, second.PaymasterInput)
	})

	t.Run("General input does not decode as approval based", func(t *testing.T) {
		params, err := paymaster.GetParams(sponsor, paymaster.GeneralFlow{})
		require.NoError(t, err)
		_, _, _, err = paymaster.DecodeApprovalBased(params.PaymasterInput)
		require.ErrorIs(t, err, paymaster.ErrInvalidInput)
	})
}

func TestGetParams(t *testing.T) {
	t.Run("Nil flow rejected", func(t *testing.T) {
		_, err := paymaster.GetParams(sponsor, nil)
		require.ErrorIs(t, err, paymaster.ErrInvalidInput)
	})
}
