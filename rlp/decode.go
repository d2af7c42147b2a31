package rlp

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Decoder is implemented by types that know how to decode their own RLP
// representation from a single raw value (string or list payload).
type Decoder interface {
	DecodeRLP(raw []byte, isList bool) error
}

// DecodeBytes parses the RLP encoding in b into val, which must be a
// non-nil pointer. The full input must be consumed.
func DecodeBytes(b []byte, val interface{}) error {
	item, rest, err := splitOne(b)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("rlp: %d trailing bytes after value", len(rest))
	}
	return decodeInto(item, reflect.ValueOf(val))
}

// item is one parsed RLP value: its kind (string/list), and for strings the
// raw content, for lists the byte range of the list body (still RLP-encoded
// child items, consumed one at a time by decodeInto).
type item struct {
	isList  bool
	content []byte // string content, or list body bytes
}

func splitOne(b []byte) (it item, rest []byte, err error) {
	if len(b) == 0 {
		return item{}, nil, fmt.Errorf("rlp: unexpected end of input")
	}
	prefix := b[0]
	switch {
	case prefix < 0x80:
		return item{isList: false, content: b[:1]}, b[1:], nil
	case prefix < 0xb8:
		size := int(prefix - 0x80)
		if len(b) < 1+size {
			return item{}, nil, fmt.Errorf("rlp: string too short")
		}
		return item{isList: false, content: b[1 : 1+size]}, b[1+size:], nil
	case prefix < 0xc0:
		lenlen := int(prefix - 0xb7)
		size, n, err := readLength(b[1:], lenlen)
		if err != nil {
			return item{}, nil, err
		}
		start := 1 + n
		if len(b) < start+size {
			return item{}, nil, fmt.Errorf("rlp: long string too short")
		}
		return item{isList: false, content: b[start : start+size]}, b[start+size:], nil
	case prefix < 0xf8:
		size := int(prefix - 0xc0)
		if len(b) < 1+size {
			return item{}, nil, fmt.Errorf("rlp: list too short")
		}
		return item{isList: true, content: b[1 : 1+size]}, b[1+size:], nil
	default:
		lenlen := int(prefix - 0xf7)
		size, n, err := readLength(b[1:], lenlen)
		if err != nil {
			return item{}, nil, err
		}
		start := 1 + n
		if len(b) < start+size {
			return item{}, nil, fmt.Errorf("rlp: long list too short")
		}
		return item{isList: true, content: b[start : start+size]}, b[start+size:], nil
	}
}

func readLength(b []byte, n int) (size int, consumed int, err error) {
	if len(b) < n {
		return 0, 0, fmt.Errorf("rlp: length prefix too short")
	}
	var buf [8]byte
	copy(buf[8-n:], b[:n])
	size64 := binary.BigEndian.Uint64(buf[:])
	if n > 0 && b[0] == 0 {
		return 0, 0, fmt.Errorf("rlp: non-canonical length prefix")
	}
	return int(size64), n, nil
}

// listItems splits a list body into its child items.
func listItems(body []byte) ([]item, error) {
	var items []item
	for len(body) > 0 {
		it, rest, err := splitOne(body)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		body = rest
	}
	return items, nil
}

func decodeInto(it item, v reflect.Value) error {
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("rlp: decode target must be a non-nil pointer")
	}
	if v.Type() == reflect.PtrTo(rawValueType) {
		raw, err := reencode(it)
		if err != nil {
			return err
		}
		v.Elem().Set(reflect.ValueOf(RawValue(raw)))
		return nil
	}
	if dec, ok := v.Interface().(Decoder); ok {
		return dec.DecodeRLP(it.content, it.isList)
	}
	return decodeValue(it, v.Elem())
}

func reencode(it item) ([]byte, error) {
	if !it.isList {
		return encodeString(it.content), nil
	}
	return wrapList(it.content), nil
}

func decodeValue(it item, v reflect.Value) error {
	if v.CanAddr() && v.Addr().CanInterface() {
		if dec, ok := v.Addr().Interface().(Decoder); ok {
			return dec.DecodeRLP(it.content, it.isList)
		}
	}
	kind := v.Kind()
	if t := v.Type(); t == reflect.TypeOf(big.Int{}) || t == reflect.TypeOf(uint256.Int{}) {
		kind = reflect.Invalid // decoded as integers by the default branch
	}
	switch kind {
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeValue(it, v.Elem())
	case reflect.Bool:
		if it.isList {
			return fmt.Errorf("rlp: expected string for bool, got list")
		}
		v.SetBool(len(it.content) == 1 && it.content[0] == 1)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if it.isList {
			return fmt.Errorf("rlp: expected string for uint, got list")
		}
		n, err := decodeUint(it.content)
		if err != nil {
			return err
		}
		v.SetUint(n)
		return nil
	case reflect.String:
		if it.isList {
			return fmt.Errorf("rlp: expected string, got list")
		}
		v.SetString(string(it.content))
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if it.isList {
				return fmt.Errorf("rlp: expected string for bytes, got list")
			}
			buf := make([]byte, len(it.content))
			copy(buf, it.content)
			v.SetBytes(buf)
			return nil
		}
		if !it.isList {
			return fmt.Errorf("rlp: expected list for slice, got string")
		}
		items, err := listItems(it.content)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(v.Type(), len(items), len(items))
		for i, ci := range items {
			if err := decodeValue(ci, out.Index(i)); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if it.isList {
				return fmt.Errorf("rlp: expected string for byte array, got list")
			}
			if len(it.content) != v.Len() {
				return fmt.Errorf("rlp: byte array length mismatch: got %d want %d", len(it.content), v.Len())
			}
			reflect.Copy(v, reflect.ValueOf(it.content))
			return nil
		}
		if !it.isList {
			return fmt.Errorf("rlp: expected list for array, got string")
		}
		items, err := listItems(it.content)
		if err != nil {
			return err
		}
		if len(items) != v.Len() {
			return fmt.Errorf("rlp: array length mismatch: got %d want %d", len(items), v.Len())
		}
		for i, ci := range items {
			if err := decodeValue(ci, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		if !it.isList {
			return fmt.Errorf("rlp: expected list for struct, got string")
		}
		items, err := listItems(it.content)
		if err != nil {
			return err
		}
		t := v.Type()
		idx := 0
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || f.Tag.Get("rlp") == "-" {
				continue
			}
			if idx >= len(items) {
				return fmt.Errorf("rlp: too few elements for struct %s", t.Name())
			}
			if err := decodeValue(items[idx], v.Field(i)); err != nil {
				return fmt.Errorf("rlp: field %s: %w", f.Name, err)
			}
			idx++
		}
		return nil
	default:
		if v.Type() == reflect.TypeOf(big.Int{}) {
			if it.isList {
				return fmt.Errorf("rlp: expected string for big.Int, got list")
			}
			v.Set(reflect.ValueOf(*new(big.Int).SetBytes(it.content)))
			return nil
		}
		if v.Type() == reflect.TypeOf(uint256.Int{}) {
			if it.isList {
				return fmt.Errorf("rlp: expected string for uint256.Int, got list")
			}
			if len(it.content) > 32 {
				return fmt.Errorf("rlp: uint256 overflow")
			}
			var u uint256.Int
			u.SetBytes(it.content)
			v.Set(reflect.ValueOf(u))
			return nil
		}
		return fmt.Errorf("rlp: unsupported decode type %s", v.Type())
	}
}

func decodeUint(content []byte) (uint64, error) {
	if len(content) > 8 {
		return 0, fmt.Errorf("rlp: uint64 overflow")
	}
	if len(content) > 0 && content[0] == 0 {
		return 0, fmt.Errorf("rlp: non-canonical integer encoding")
	}
	var buf [8]byte
	copy(buf[8-len(content):], content)
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Split parses the first RLP value in b and returns its "isList" flag, its
// payload (the bytes after its length prefix), and the remaining
// unconsumed bytes. It is used by callers (such as
// typed-transaction envelope decoding) that need to peek at a value's shape
// before committing to a concrete Go type.
func Split(b []byte) (isList bool, content []byte, rest []byte, err error) {
	it, rest, err := splitOne(b)
	if err != nil {
		return false, nil, nil, err
	}
	return it.isList, it.content, rest, nil
}

// ListSize returns the encoded size of the given list content length.
func ListSize(contentLen int) int {
	return len(encodeLength(0xc0, contentLen)) + contentLen
}

// SplitList splits a list body (as returned by Split's content for a list
// value) into the full, independently-decodable RLP encoding of each child
// item. It is used by types with hardfork-gated variable field arity (e.g.
// Header) that decode by hand rather than through the generic
// reflection-based decoder.
func SplitList(body []byte) ([]RawValue, error) {
	items, err := listItems(body)
	if err != nil {
		return nil, err
	}
	out := make([]RawValue, len(items))
	for i, it := range items {
		re, err := reencode(it)
		if err != nil {
			return nil, err
		}
		out[i] = re
	}
	return out, nil
}
