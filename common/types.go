// Package common defines the fixed-width primitive types shared across the
// node: addresses, hashes, and byte slices, plus their JSON hex encoding.
package common

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
)

const (
	// AddressLength is the expected length of an Ethereum account address.
	AddressLength = 20
	// HashLength is the expected length of a B256 hash.
	HashLength = 32
)

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress returns Address with byte values of s.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Address", input, a[:])
}

// Hash represents a 32-byte Keccak256/B256 hash.
type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

func (h *Hash) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Hash", input, h[:])
}

// Big endian helper: compare two hashes lexicographically.
func (h Hash) Cmp(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func unmarshalFixedText(typname string, input, out []byte) error {
	s := string(input)
	s = strings.TrimPrefix(s, "\"")
	s = strings.TrimSuffix(s, "\"")
	raw := FromHex(s)
	if len(raw) != len(out) {
		return fmt.Errorf("%s: invalid length %d, want %d", typname, len(raw), len(out))
	}
	copy(out, raw)
	return nil
}

// FromHex returns the bytes represented by the hexadecimal string s,
// tolerating an optional 0x/0X prefix and an odd number of digits.
func FromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Bytes is a byte slice that marshals to 0x-prefixed even-length hex.
type Bytes []byte

func (b Bytes) String() string { return "0x" + hex.EncodeToString(b) }

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(input []byte) error {
	raw := FromHex(stripQuotes(string(input)))
	*b = raw
	return nil
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, "\"")
	s = strings.TrimSuffix(s, "\"")
	return s
}

// IsHexString reports whether v looks like it was intended to be a hex
// string type (used by reflection-based strict JSON decoding in internal/ethapi).
func IsHexString(v reflect.Value) bool {
	return v.Kind() == reflect.String && has0xPrefix(v.String())
}
