package eip712

import (
	"math/big"
	"strings"
)

// Field is a single member of a struct type: a field name plus its
// solidity-style type, e.g. {Name: "owner", Type: "address"} or
// {Name: "deps", Type: "bytes32[]"}.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Types maps a struct type name to its ordered field list. Field order is
// significant: encoding always follows the declared order, never the order
// values happen to be supplied in.
type Types map[string][]Field

// Domain holds the EIP-712 domain separator parameters. Any subset of
// fields may be set; only set fields participate in the domain type string
// and the separator hash.
type Domain struct {
	Name              string   `json:"name,omitempty"`
	Version           string   `json:"version,omitempty"`
	ChainID           *big.Int `json:"chainId,omitempty"`
	VerifyingContract string   `json:"verifyingContract,omitempty"`
	Salt              string   `json:"salt,omitempty"`
}

// DomainTypeName is the well-known name of the domain struct type.
const DomainTypeName = "EIP712Domain"

// Fields returns the domain's type definition, restricted to the fields
// actually set, in the canonical order name, version, chainId,
// verifyingContract, salt.
func (d *Domain) Fields() []Field {
	fields := make([]Field, 0, 5)
	if d.Name != "" {
		fields = append(fields, Field{Name: "name", Type: "string"})
	}
	if d.Version != "" {
		fields = append(fields, Field{Name: "version", Type: "string"})
	}
	if d.ChainID != nil {
		fields = append(fields, Field{Name: "chainId", Type: "uint256"})
	}
	if d.VerifyingContract != "" {
		fields = append(fields, Field{Name: "verifyingContract", Type: "address"})
	}
	if d.Salt != "" {
		fields = append(fields, Field{Name: "salt", Type: "bytes32"})
	}
	return fields
}

// Map returns the set fields as a message map suitable for struct hashing.
func (d *Domain) Map() map[string]interface{} {
	msg := make(map[string]interface{})
	if d.Name != "" {
		msg["name"] = d.Name
	}
	if d.Version != "" {
		msg["version"] = d.Version
	}
	if d.ChainID != nil {
		msg["chainId"] = d.ChainID
	}
	if d.VerifyingContract != "" {
		msg["verifyingContract"] = d.VerifyingContract
	}
	if d.Salt != "" {
		msg["salt"] = d.Salt
	}
	return msg
}

// isArrayType reports whether typ is an array type, fixed or dynamic.
func isArrayType(typ string) bool {
	return strings.HasSuffix(typ, "]")
}

// baseType strips a trailing array suffix: "Person[3]" -> "Person",
// "bytes32[]" -> "bytes32". Non-array types pass through unchanged.
func baseType(typ string) string {
	if idx := strings.Index(typ, "["); idx >= 0 {
		return typ[:idx]
	}
	return typ
}
