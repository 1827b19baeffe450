package eip712_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/zsyncio/zsync-go/eip712"
)

// mailTypes is the reference example from the EIP-712 specification; the
// expected hashes below are the specification's own test vectors.
var mailTypes = eip712.Types{
	"Person": {
		{Name: "name", Type: "string"},
		{Name: "wallet", Type: "address"},
	},
	"Mail": {
		{Name: "from", Type: "Person"},
		{Name: "to", Type: "Person"},
		{Name: "contents", Type: "string"},
	},
}

func mailMessage() map[string]interface{} {
	return map[string]interface{}{
		"from": map[string]interface{}{
			"name":   "Cow",
			"wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826",
		},
		"to": map[string]interface{}{
			"name":   "Bob",
			"wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
		},
		"contents": "Hello, Bob!",
	}
}

func mailDomain() *eip712.Domain {
	return &eip712.Domain{
		Name:              "Ether Mail",
		Version:           "1",
		ChainID:           big.NewInt(1),
		VerifyingContract: "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC",
	}
}

func TestTypeString(t *testing.T) {
	t.Run("Referenced types sorted after the primary type", func(t *testing.T) {
		encoded, err := eip712.TypeString(mailTypes, "Mail")
		require.NoError(t, err)
		require.Equal(t, "Mail(Person from,Person to,string contents)Person(string name,address wallet)", encoded)
	})

	t.Run("Shared reference included exactly once", func(t *testing.T) {
		types := eip712.Types{
			"Inner": {{Name: "x", Type: "uint256"}},
			"Left":  {{Name: "inner", Type: "Inner"}},
			"Right": {{Name: "inner", Type: "Inner"}},
			"Outer": {{Name: "l", Type: "Left"}, {Name: "r", Type: "Right"}},
		}
		encoded, err := eip712.TypeString(types, "Outer")
		require.NoError(t, err)
		require.Equal(t, "Outer(Left l,Right r)Inner(uint256 x)Left(Inner inner)Right(Inner inner)", encoded)
	})

	t.Run("Array reference pulls in the element type", func(t *testing.T) {
		types := eip712.Types{
			"Item":  {{Name: "id", Type: "uint256"}},
			"Batch": {{Name: "items", Type: "Item[]"}},
		}
		encoded, err := eip712.TypeString(types, "Batch")
		require.NoError(t, err)
		require.Equal(t, "Batch(Item[] items)Item(uint256 id)", encoded)
	})

	t.Run("Unknown primary type", func(t *testing.T) {
		_, err := eip712.TypeString(mailTypes, "Nope")
		require.ErrorIs(t, err, eip712.ErrUnknownType)
	})

	t.Run("Unknown field type", func(t *testing.T) {
		types := eip712.Types{
			"Thing": {{Name: "x", Type: "Missing"}},
		}
		_, err := eip712.TypeString(types, "Thing")
		require.ErrorIs(t, err, eip712.ErrUnknownType)
	})
}

func TestCycleRejection(t *testing.T) {
	t.Run("Direct self reference", func(t *testing.T) {
		types := eip712.Types{
			"Node": {{Name: "next", Type: "Node"}},
		}
		_, err := eip712.TypeString(types, "Node")
		require.ErrorIs(t, err, eip712.ErrCyclicType)
	})

	t.Run("Mutual reference", func(t *testing.T) {
		types := eip712.Types{
			"A": {{Name: "b", Type: "B"}},
			"B": {{Name: "a", Type: "A"}},
		}
		_, err := eip712.TypeString(types, "A")
		require.ErrorIs(t, err, eip712.ErrCyclicType)
		_, err = eip712.TypeHash(types, "A")
		require.ErrorIs(t, err, eip712.ErrCyclicType)
	})

	t.Run("Self reference through an array is allowed", func(t *testing.T) {
		types := eip712.Types{
			"Tree": {{Name: "children", Type: "Tree[]"}, {Name: "value", Type: "uint256"}},
		}
		encoded, err := eip712.TypeString(types, "Tree")
		require.NoError(t, err)
		require.Equal(t, "Tree(Tree[] children,uint256 value)", encoded)
	})
}

func TestHashTypedData(t *testing.T) {
	t.Run("EIP-712 reference vectors", func(t *testing.T) {
		separator, err := eip712.DomainSeparator(mailDomain())
		require.NoError(t, err)
		require.Equal(t,
			"0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f",
			hexutil.Encode(separator))

		structHash, err := eip712.HashStruct(mailTypes, "Mail", mailMessage())
		require.NoError(t, err)
		require.Equal(t,
			"0xc52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e",
			hexutil.Encode(structHash))

		digest, err := eip712.HashTypedData(mailDomain(), mailTypes, "Mail", mailMessage())
		require.NoError(t, err)
		require.Equal(t,
			"0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2",
			hexutil.Encode(digest))
	})

	t.Run("Person vector", func(t *testing.T) {
		domain := &eip712.Domain{Name: "Example", Version: "1", ChainID: big.NewInt(270)}
		types := eip712.Types{
			"Person": {
				{Name: "name", Type: "string"},
				{Name: "age", Type: "uint8"},
			},
		}
		message := map[string]interface{}{"name": "John", "age": big.NewInt(30)}
		digest, err := eip712.HashTypedData(domain, types, "Person", message)
		require.NoError(t, err)
		require.Equal(t,
			"0xd55464ca0b57ebf17bc52f16cad5e0ccddfc5632bbbb803946592ead3a6bbafb",
			hexutil.Encode(digest))
	})

	t.Run("Deterministic across calls", func(t *testing.T) {
		first, err := eip712.HashTypedData(mailDomain(), mailTypes, "Mail", mailMessage())
		require.NoError(t, err)
		second, err := eip712.HashTypedData(mailDomain(), mailTypes, "Mail", mailMessage())
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("Every domain field is hash relevant", func(t *testing.T) {
		base, err := eip712.DomainSeparator(mailDomain())
		require.NoError(t, err)

		variants := []*eip712.Domain{
			{Name: "Other Mail", Version: "1", ChainID: big.NewInt(1), VerifyingContract: "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"},
			{Name: "Ether Mail", Version: "2", ChainID: big.NewInt(1), VerifyingContract: "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"},
			{Name: "Ether Mail", Version: "1", ChainID: big.NewInt(2), VerifyingContract: "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"},
			{Name: "Ether Mail", Version: "1", ChainID: big.NewInt(1), VerifyingContract: "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
			{Name: "Ether Mail", Version: "1", ChainID: big.NewInt(1)},
		}
		for _, variant := range variants {
			separator, err := eip712.DomainSeparator(variant)
			require.NoError(t, err)
			require.NotEqual(t, base, separator)
		}
	})

	t.Run("Extra message fields do not affect the hash", func(t *testing.T) {
		base, err := eip712.HashStruct(mailTypes, "Mail", mailMessage())
		require.NoError(t, err)

		padded := mailMessage()
		padded["unrelated"] = "ignored"
		withExtra, err := eip712.HashStruct(mailTypes, "Mail", padded)
		require.NoError(t, err)
		require.Equal(t, base, withExtra)
	})

	t.Run("Missing declared field", func(t *testing.T) {
		short := mailMessage()
		delete(short, "contents")
		_, err := eip712.HashStruct(mailTypes, "Mail", short)
		require.ErrorIs(t, err, eip712.ErrEncoding)
	})

	t.Run("Value of the wrong kind", func(t *testing.T) {
		bad := mailMessage()
		bad["contents"] = true
		_, err := eip712.HashStruct(mailTypes, "Mail", bad)
		require.ErrorIs(t, err, eip712.ErrEncoding)
	})
}

func TestEncodeValue(t *testing.T) {
	t.Run("Empty array hashes to the empty hash", func(t *testing.T) {
		word, err := eip712.EncodeValue(eip712.Types{}, "uint256[]", []interface{}{})
		require.NoError(t, err)
		// keccak256 of zero bytes
		require.Equal(t,
			"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
			hexutil.Encode(word))
	})

	t.Run("Fixed array length enforced", func(t *testing.T) {
		_, err := eip712.EncodeValue(eip712.Types{}, "uint256[2]", []interface{}{big.NewInt(1)})
		require.ErrorIs(t, err, eip712.ErrEncoding)
	})

	t.Run("Boolean words", func(t *testing.T) {
		word, err := eip712.EncodeValue(eip712.Types{}, "bool", true)
		require.NoError(t, err)
		require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", hexutil.Encode(word))
	})

	t.Run("Address left padded", func(t *testing.T) {
		word, err := eip712.EncodeValue(eip712.Types{}, "address", "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
		require.NoError(t, err)
		require.Equal(t, "0x000000000000000000000000cd2a3d9f938e13cd947ec05abc7fe734df8dd826", hexutil.Encode(word))
	})

	t.Run("Fixed bytes demand the exact length", func(t *testing.T) {
		_, err := eip712.EncodeValue(eip712.Types{}, "bytes32", []byte{0x01})
		require.ErrorIs(t, err, eip712.ErrEncoding)
	})

	t.Run("Integer overflow rejected", func(t *testing.T) {
		_, err := eip712.EncodeValue(eip712.Types{}, "uint8", big.NewInt(256))
		require.ErrorIs(t, err, eip712.ErrEncoding)
	})

	t.Run("Negative value rejected for unsigned", func(t *testing.T) {
		_, err := eip712.EncodeValue(eip712.Types{}, "uint256", big.NewInt(-1))
		require.ErrorIs(t, err, eip712.ErrEncoding)
	})

	t.Run("Unsized integer alias rejected", func(t *testing.T) {
		_, err := eip712.EncodeValue(eip712.Types{}, "uint", big.NewInt(1))
		require.Error(t, err)
	})
}

func TestErrorsAreDistinguishable(t *testing.T) {
	types := eip712.Types{
		"A": {{Name: "b", Type: "B"}},
		"B": {{Name: "a", Type: "A"}},
	}
	_, err := eip712.TypeString(types, "A")
	require.True(t, errors.Is(err, eip712.ErrCyclicType))
	require.False(t, errors.Is(err, eip712.ErrUnknownType))
	require.False(t, errors.Is(err, eip712.ErrEncoding))
}
