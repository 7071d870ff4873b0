package token

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies an agent account. The zero value is the null
// address and is never a valid participant in a transfer.
type Address [20]byte

// ZeroAddress is the null account.
var ZeroAddress Address

// ParseAddress decodes a 0x-prefixed or bare 40-digit hex string.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*len(a) {
		return a, fmt.Errorf("token: address must be %d hex digits, got %q", 2*len(a), s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("token: invalid address %q: %w", s, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustAddress is ParseAddress that panics on error. For tests and
// fixed well-known accounts.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler so addresses encode
// as hex strings in CBOR, JSON and YAML.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
