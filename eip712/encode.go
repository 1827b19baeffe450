package eip712

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// TypeString builds the canonical EIP-712 type string for primaryType: the
// primary type's own encoding followed by every transitively referenced
// struct type, sorted lexicographically by name.
//
// Args:
//
//	types: The struct type definitions
//	primaryType: The name of the type being encoded
//
// Returns:
//
//	Canonical type string, e.g. "Mail(Person from,Person to)Person(string name)"
//	ErrUnknownType if primaryType or a referenced type is not declared
//	ErrCyclicType if the reference graph contains a non-array cycle
func TypeString(types Types, primaryType string) (string, error) {
	deps, err := collectTypes(types, primaryType)
	if err != nil {
		return "", err
	}
	sort.Strings(deps)
	deps = append([]string{primaryType}, deps...)

	var buf strings.Builder
	for _, name := range deps {
		buf.WriteString(name)
		buf.WriteString("(")
		for i, field := range types[name] {
			if i > 0 {
				buf.WriteString(",")
			}
			buf.WriteString(field.Type)
			buf.WriteString(" ")
			buf.WriteString(field.Name)
		}
		buf.WriteString(")")
	}
	return buf.String(), nil
}

// TypeHash returns keccak256 of the canonical type string for primaryType.
func TypeHash(types Types, primaryType string) ([]byte, error) {
	encoded, err := TypeString(types, primaryType)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256([]byte(encoded)), nil
}

// collectTypes gathers every struct type transitively referenced from
// primaryType, excluding primaryType itself. Traversal uses an explicit
// visited set so adversarial schemas cannot drive unbounded recursion, and
// rejects any cycle that runs through non-array fields: such a type can
// never be flattened into a finite value encoding.
func collectTypes(types Types, primaryType string) ([]string, error) {
	if _, ok := types[primaryType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, primaryType)
	}

	visited := map[string]bool{primaryType: true}
	var deps []string
	queue := []string{primaryType}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, field := range types[name] {
			base := baseType(field.Type)
			if _, ok := types[base]; !ok {
				if !isPrimitiveType(base) {
					return nil, fmt.Errorf("%w: %q in field %s.%s", ErrUnknownType, field.Type, name, field.Name)
				}
				continue
			}
			if !visited[base] {
				visited[base] = true
				deps = append(deps, base)
				queue = append(queue, base)
			}
		}
	}

	// Cycle check over the non-array reference edges. Arrays are excluded:
	// a struct holding an array of its own type still encodes to a finite
	// value, whereas a plain self-reference nests without bound.
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(visited))
	var walk func(name string) error
	walk = func(name string) error {
		color[name] = grey
		for _, field := range types[name] {
			if isArrayType(field.Type) {
				continue
			}
			if _, ok := types[field.Type]; !ok {
				continue
			}
			switch color[field.Type] {
			case grey:
				return fmt.Errorf("%w: %q reachable from itself via field %s.%s", ErrCyclicType, field.Type, name, field.Name)
			case white:
				if err := walk(field.Type); err != nil {
					return err
				}
			}
		}
		color[name] = black
		return nil
	}
	for name := range visited {
		if color[name] == white {
			if err := walk(name); err != nil {
				return nil, err
			}
		}
	}
	return deps, nil
}

// HashStruct hashes a struct instance: keccak256(typeHash || enc(field_1)
// || ... || enc(field_n)), fields taken in declared schema order.
//
// Args:
//
//	types: The struct type definitions
//	primaryType: The name of the struct type message conforms to
//	message: Field name -> value; extra entries are ignored
//
// Returns:
//
//	32-byte struct hash
//	ErrEncoding if a declared field is missing or of the wrong kind
func HashStruct(types Types, primaryType string, message map[string]interface{}) ([]byte, error) {
	encoded, err := encodeData(types, primaryType, message)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encoded), nil
}

// encodeData produces typeHash || the 32-byte word of every declared field.
// Values supplied in message but not declared in the schema do not
// participate and cannot affect the hash.
func encodeData(types Types, primaryType string, message map[string]interface{}) ([]byte, error) {
	typeHash, err := TypeHash(types, primaryType)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(typeHash)
	for _, field := range types[primaryType] {
		value, ok := message[field.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing value for field %s.%s", ErrEncoding, primaryType, field.Name)
		}
		word, err := EncodeValue(types, field.Type, value)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", primaryType, field.Name, err)
		}
		buf.Write(word)
	}
	return buf.Bytes(), nil
}

// EncodeValue encodes a single value of the given type into its 32-byte
// EIP-712 word: primitives per ABI rules, struct values as their struct
// hash, arrays as the hash of their concatenated element words (the empty
// array hashes to keccak256("")).
func EncodeValue(types Types, typ string, value interface{}) ([]byte, error) {
	if isArrayType(typ) {
		return encodeArray(types, typ, value)
	}
	if _, ok := types[typ]; ok {
		msg, ok := value.(map[string]interface{})
		if !ok {
			return nil, mismatch(typ, value)
		}
		return HashStruct(types, typ, msg)
	}
	return encodePrimitive(typ, value)
}

func encodeArray(types Types, typ string, value interface{}) ([]byte, error) {
	elems, ok := toSlice(value)
	if !ok {
		return nil, mismatch(typ, value)
	}
	if open := strings.LastIndex(typ, "["); typ[open+1:len(typ)-1] != "" {
		size, err := strconv.Atoi(typ[open+1 : len(typ)-1])
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: malformed array type %q", ErrUnknownType, typ)
		}
		if len(elems) != size {
			return nil, fmt.Errorf("%w: array of type %q needs %d elements, got %d", ErrEncoding, typ, size, len(elems))
		}
	}
	elemType := typ[:strings.LastIndex(typ, "[")]
	var buf bytes.Buffer
	for _, elem := range elems {
		word, err := EncodeValue(types, elemType, elem)
		if err != nil {
			return nil, err
		}
		buf.Write(word)
	}
	return crypto.Keccak256(buf.Bytes()), nil
}

func encodePrimitive(typ string, value interface{}) ([]byte, error) {
	switch typ {
	case "address":
		switch v := value.(type) {
		case common.Address:
			return common.LeftPadBytes(v.Bytes(), 32), nil
		case string:
			if !common.IsHexAddress(v) {
				return nil, mismatch(typ, value)
			}
			return common.LeftPadBytes(common.HexToAddress(v).Bytes(), 32), nil
		}
		return nil, mismatch(typ, value)
	case "bool":
		b, ok := value.(bool)
		if !ok {
			return nil, mismatch(typ, value)
		}
		if b {
			return math.PaddedBigBytes(common.Big1, 32), nil
		}
		return math.PaddedBigBytes(common.Big0, 32), nil
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, mismatch(typ, value)
		}
		return crypto.Keccak256([]byte(s)), nil
	case "bytes":
		b, err := toBytes(value)
		if err != nil {
			return nil, mismatch(typ, value)
		}
		return crypto.Keccak256(b), nil
	}
	if size, ok := fixedBytesSize(typ); ok {
		b, err := toBytes(value)
		if err != nil {
			return nil, mismatch(typ, value)
		}
		if len(b) != size {
			return nil, fmt.Errorf("%w: %q needs %d bytes, got %d", ErrEncoding, typ, size, len(b))
		}
		// Fixed-size byte arrays are left-aligned in their word.
		return common.RightPadBytes(b, 32), nil
	}
	if strings.HasPrefix(typ, "uint") || strings.HasPrefix(typ, "int") {
		return encodeInteger(typ, value)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

func encodeInteger(typ string, value interface{}) ([]byte, error) {
	signed := strings.HasPrefix(typ, "int")
	sizeStr := strings.TrimPrefix(strings.TrimPrefix(typ, "uint"), "int")
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 8 || size > 256 || size%8 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}

	var b *big.Int
	switch v := value.(type) {
	case *big.Int:
		b = v
	case *math.HexOrDecimal256:
		b = (*big.Int)(v)
	case string:
		var parsed math.HexOrDecimal256
		if err := parsed.UnmarshalText([]byte(v)); err != nil {
			return nil, mismatch(typ, value)
		}
		b = (*big.Int)(&parsed)
	case float64:
		if float64(int64(v)) != v {
			return nil, mismatch(typ, value)
		}
		b = big.NewInt(int64(v))
	case int:
		b = big.NewInt(int64(v))
	case int64:
		b = big.NewInt(v)
	case uint64:
		b = new(big.Int).SetUint64(v)
	}
	if b == nil {
		return nil, mismatch(typ, value)
	}
	if b.BitLen() > size {
		return nil, fmt.Errorf("%w: value overflows %q", ErrEncoding, typ)
	}
	if !signed && b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value for unsigned type %q", ErrEncoding, typ)
	}
	return math.U256Bytes(new(big.Int).Set(b)), nil
}

// DomainSeparator hashes the domain against a type synthesized from the
// fields actually present, in the canonical order name, version, chainId,
// verifyingContract, salt.
func DomainSeparator(domain *Domain) ([]byte, error) {
	types := Types{DomainTypeName: domain.Fields()}
	return HashStruct(types, DomainTypeName, domain.Map())
}

// HashTypedData computes the final EIP-712 signing digest:
// keccak256(0x19 0x01 || domainSeparator || hashStruct(message)). The two
// prefix bytes are a fixed constant of the scheme; a digest computed
// without them will never verify against standard tooling.
//
// Args:
//
//	domain: The domain separator parameters
//	types: The struct type definitions
//	primaryType: The name of the type message conforms to
//	message: The message data to hash
//
// Returns:
//
//	32-byte digest suitable for signing or verification
func HashTypedData(domain *Domain, types Types, primaryType string, message map[string]interface{}) ([]byte, error) {
	structHash, err := HashStruct(types, primaryType, message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}
	separator, err := DomainSeparator(domain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}
	raw := []byte{0x19, 0x01}
	raw = append(raw, separator...)
	raw = append(raw, structHash...)
	return crypto.Keccak256(raw), nil
}

// isPrimitiveType reports whether typ is one of the atomic or dynamic
// types EIP-712 admits. Unsized "uint"/"int" aliases are rejected: the
// canonical type string only ever carries sized integers.
func isPrimitiveType(typ string) bool {
	switch typ {
	case "address", "bool", "string", "bytes":
		return true
	}
	if _, ok := fixedBytesSize(typ); ok {
		return true
	}
	if strings.HasPrefix(typ, "uint") || strings.HasPrefix(typ, "int") {
		sizeStr := strings.TrimPrefix(strings.TrimPrefix(typ, "uint"), "int")
		size, err := strconv.Atoi(sizeStr)
		return err == nil && size >= 8 && size <= 256 && size%8 == 0
	}
	return false
}

func fixedBytesSize(typ string) (int, bool) {
	if !strings.HasPrefix(typ, "bytes") || typ == "bytes" {
		return 0, false
	}
	size, err := strconv.Atoi(strings.TrimPrefix(typ, "bytes"))
	if err != nil || size < 1 || size > 32 {
		return 0, false
	}
	return size, true
}

func toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case hexutil.Bytes:
		return v, nil
	case common.Hash:
		return v.Bytes(), nil
	case string:
		return hexutil.Decode(v)
	}
	return nil, fmt.Errorf("not a byte value")
}

func toSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []common.Hash:
		out := make([]interface{}, len(v))
		for i, h := range v {
			out[i] = h
		}
		return out, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func mismatch(typ string, value interface{}) error {
	return fmt.Errorf("%w: provided value %v does not match type %q", ErrEncoding, value, typ)
}
