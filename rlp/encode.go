// Package rlp implements the Ethereum Recursive Length Prefix encoding,
// used as the wire format for transactions, receipts, logs, and headers.
//
// Encoding rules (see the Ethereum Yellow Paper, appendix B):
//   - a single byte in [0x00, 0x7f] encodes itself.
//   - a string 0-55 bytes long encodes as a single byte 0x80+len followed by
//     the string; longer strings are length-prefixed with their own
//     minimal big-endian length encoding.
//   - lists follow the same two-tier length prefixing starting at 0xc0.
package rlp

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// RawValue represents an already RLP-encoded value; Encode copies it
// through verbatim and Decode hands back the raw bytes of the next value
// without interpreting them.
type RawValue []byte

var rawValueType = reflect.TypeOf(RawValue{})

// Encoder is implemented by types that know how to RLP-encode themselves.
type Encoder interface {
	EncodeRLP() ([]byte, error)
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	if enc, ok := val.(Encoder); ok {
		return enc.EncodeRLP()
	}
	if raw, ok := val.(RawValue); ok {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
	return encodeValue(reflect.ValueOf(val))
}

func encodeValue(v reflect.Value) ([]byte, error) {
	if !v.IsValid() {
		return encodeString(nil), nil
	}
	if v.Type() == rawValueType {
		raw := v.Interface().(RawValue)
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
	if v.CanInterface() {
		if enc, ok := v.Interface().(Encoder); ok {
			return enc.EncodeRLP()
		}
	}

	kind := v.Kind()
	if t := v.Type(); t == reflect.TypeOf(big.Int{}) || t == reflect.TypeOf(uint256.Int{}) {
		kind = reflect.Invalid // encoded as integers by the default branch
	}
	switch kind {
	case reflect.Ptr:
		if v.IsNil() {
			return encodeValue(reflect.Zero(v.Type().Elem()))
		}
		return encodeValue(v.Elem())
	case reflect.Bool:
		if v.Bool() {
			return []byte{0x01}, nil
		}
		return encodeString(nil), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeUint(v.Uint()), nil
	case reflect.String:
		return encodeString([]byte(v.String())), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeString(v.Bytes()), nil
		}
		return encodeList(v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return encodeString(b), nil
		}
		return encodeList(v)
	case reflect.Struct:
		return encodeStruct(v)
	case reflect.Interface:
		if v.IsNil() {
			return encodeString(nil), nil
		}
		return encodeValue(v.Elem())
	default:
		if bi, ok := v.Interface().(big.Int); ok {
			return encodeBigInt(&bi), nil
		}
		if bi, ok := v.Interface().(*big.Int); ok {
			return encodeBigInt(bi), nil
		}
		if u, ok := v.Interface().(uint256.Int); ok {
			return encodeString(minimalBytes(u.Bytes())), nil
		}
		if u, ok := v.Interface().(*uint256.Int); ok {
			if u == nil {
				return encodeString(nil), nil
			}
			return encodeString(minimalBytes(u.Bytes())), nil
		}
		return nil, fmt.Errorf("rlp: unsupported type %s", v.Type())
	}
}

func encodeList(v reflect.Value) ([]byte, error) {
	var body []byte
	for i := 0; i < v.Len(); i++ {
		item, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		body = append(body, item...)
	}
	return wrapList(body), nil
}

func encodeStruct(v reflect.Value) ([]byte, error) {
	t := v.Type()
	var body []byte
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		if tag := f.Tag.Get("rlp"); tag == "-" {
			continue
		}
		item, err := encodeValue(v.Field(i))
		if err != nil {
			return nil, fmt.Errorf("rlp: field %s: %w", f.Name, err)
		}
		body = append(body, item...)
	}
	return wrapList(body), nil
}

func wrapList(body []byte) []byte {
	return append(encodeLength(0xc0, len(body)), body...)
}

// WrapList wraps an already RLP-encoded sequence of values (the
// concatenation of each item's own encoding) in a list length prefix. It is
// used by types with variable field arity (e.g. a block header whose
// hardfork-gated fields are appended conditionally) that build their body
// by hand instead of through the generic reflection-based encoder.
func WrapList(body []byte) []byte { return wrapList(body) }

func encodeUint(i uint64) []byte {
	if i == 0 {
		return encodeString(nil)
	}
	if i < 0x80 {
		return []byte{byte(i)}
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)
	start := 0
	for start < 8 && buf[start] == 0 {
		start++
	}
	return encodeString(buf[start:])
}

func encodeBigInt(i *big.Int) []byte {
	if i == nil || i.Sign() == 0 {
		return encodeString(nil)
	}
	if i.Sign() < 0 {
		panic("rlp: cannot encode negative big.Int")
	}
	return encodeString(i.Bytes())
}

func encodeString(s []byte) []byte {
	if len(s) == 1 && s[0] < 0x80 {
		return []byte{s[0]}
	}
	return append(encodeLength(0x80, len(s)), s...)
}

// encodeLength returns the length-prefix bytes for a string/list payload of
// the given length, using base as the short-form marker (0x80 for strings,
// 0xc0 for lists).
func encodeLength(base byte, n int) []byte {
	if n < 56 {
		return []byte{base + byte(n)}
	}
	lenBytes := bigEndianMinimal(uint64(n))
	return append([]byte{base + 55 + byte(len(lenBytes))}, lenBytes...)
}

// minimalBytes strips leading zero bytes from a big-endian byte slice.
func minimalBytes(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func bigEndianMinimal(n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	start := 0
	for start < 7 && buf[start] == 0 {
		start++
	}
	return buf[start:]
}
