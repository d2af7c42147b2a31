// Package hexutil implements the 0x-prefixed, minimal-hex JSON encoding used
// by the EIP-1474 JSON-RPC conventions: integers never carry leading zeros
// except for the literal zero value, which encodes as "0x0"; byte slices
// always encode to an even number of hex digits.
package hexutil

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

var ErrEmptyString = fmt.Errorf("hexutil: empty hex string")
var ErrMissingPrefix = fmt.Errorf("hexutil: hex string without 0x prefix")
var ErrOddLength = fmt.Errorf("hexutil: hex string of odd length")
var ErrEmptyNumber = fmt.Errorf("hexutil: hex number with no digits")
var ErrLeadingZero = fmt.Errorf("hexutil: hex number with leading zero digits")
var ErrUint64Range = fmt.Errorf("hexutil: hex number exceeds 64 bits")
var ErrSyntax = fmt.Errorf("hexutil: invalid hex string")

// Uint64 marshals/unmarshals a uint64 as minimal 0x-hex.
type Uint64 uint64

func (u Uint64) String() string { return EncodeUint64(uint64(u)) }

func (u Uint64) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Uint64) UnmarshalText(input []byte) error {
	v, err := DecodeUint64(trimQuotes(string(input)))
	if err != nil {
		return err
	}
	*u = Uint64(v)
	return nil
}

// Big marshals/unmarshals a big.Int as minimal 0x-hex (unsigned).
type Big big.Int

func (b *Big) String() string { return EncodeBig((*big.Int)(b)) }

func (b Big) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Big) UnmarshalText(input []byte) error {
	v, err := DecodeBig(trimQuotes(string(input)))
	if err != nil {
		return err
	}
	*b = Big(*v)
	return nil
}

func (b *Big) ToInt() *big.Int { return (*big.Int)(b) }

// Bytes marshals/unmarshals a byte slice as an even-length 0x-hex string.
type Bytes []byte

func (b Bytes) String() string { return EncodeBytes(b) }

func (b Bytes) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bytes) UnmarshalText(input []byte) error {
	raw, err := DecodeBytes(trimQuotes(string(input)))
	if err != nil {
		return err
	}
	*b = raw
	return nil
}

func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, "\"")
	s = strings.TrimSuffix(s, "\"")
	return s
}

// EncodeUint64 encodes i as minimal 0x-hex; zero encodes as "0x0".
func EncodeUint64(i uint64) string {
	enc := make([]byte, 2, 10)
	copy(enc, "0x")
	enc = strconvAppendUint(enc, i)
	return string(enc)
}

func strconvAppendUint(dst []byte, i uint64) []byte {
	if i == 0 {
		return append(dst, '0')
	}
	s := fmt.Sprintf("%x", i)
	return append(dst, s...)
}

// EncodeBig encodes i as minimal 0x-hex; nil and zero both encode as "0x0".
// Negative numbers are not valid Ethereum JSON-RPC integers and panic.
func EncodeBig(i *big.Int) string {
	if i == nil {
		return "0x0"
	}
	if i.Sign() < 0 {
		panic("hexutil: EncodeBig of negative value")
	}
	if i.Sign() == 0 {
		return "0x0"
	}
	return "0x" + i.Text(16)
}

// EncodeBytes encodes b as an even-length 0x-hex string ("0x" for empty).
func EncodeBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeUint64 decodes a 0x-hex string into a uint64.
func DecodeUint64(input string) (uint64, error) {
	raw, err := checkNumberText(input)
	if err != nil {
		return 0, err
	}
	if len(raw) > 16 {
		return 0, ErrUint64Range
	}
	var v uint64
	for _, c := range []byte(raw) {
		d, ok := decodeNibble(c)
		if !ok {
			return 0, ErrSyntax
		}
		v = v<<4 | uint64(d)
	}
	return v, nil
}

// DecodeBig decodes a 0x-hex string into a big.Int.
func DecodeBig(input string) (*big.Int, error) {
	raw, err := checkNumberText(input)
	if err != nil {
		return nil, err
	}
	if raw == "0" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, ErrSyntax
	}
	return v, nil
}

// DecodeBytes decodes an even-length 0x-hex string into bytes.
func DecodeBytes(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, ErrEmptyString
	}
	if !has0xPrefix(input) {
		return nil, ErrMissingPrefix
	}
	input = input[2:]
	if len(input)%2 != 0 {
		return nil, ErrOddLength
	}
	return hex.DecodeString(input)
}

func checkNumberText(input string) (raw string, err error) {
	if len(input) == 0 {
		return "", ErrEmptyString
	}
	if !has0xPrefix(input) {
		return "", ErrMissingPrefix
	}
	input = input[2:]
	if len(input) == 0 {
		return "", ErrEmptyNumber
	}
	if len(input) > 1 && input[0] == '0' {
		return "", ErrLeadingZero
	}
	return input, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func decodeNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
