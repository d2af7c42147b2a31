package types

import (
	"github.com/ethdevnode/edr/common"
	"github.com/ethdevnode/edr/crypto"
)

// BloomByteLength is the number of bytes in an Ethereum log Bloom filter
// (2048 bits).
const BloomByteLength = 256

// Bloom is the 2048-bit log Bloom filter attached to every block header and
// transaction receipt.
type Bloom [BloomByteLength]byte

// CreateBloom computes the Bloom filter covering every log's address and
// topics.
func CreateBloom(logs []*Log) Bloom {
	var b Bloom
	for _, log := range logs {
		b.add(log.Address.Bytes())
		for _, topic := range log.Topics {
			b.add(topic.Bytes())
		}
	}
	return b
}

// add ORs the three bits derived from keccak256(data) into the filter, per
// the Yellow Paper's M3:2048 construction.
func (b *Bloom) add(data []byte) {
	h := crypto.Keccak256(data)
	for i := 0; i < 3; i++ {
		bitIndex := (uint(h[i*2])<<8 | uint(h[i*2+1])) & 2047
		byteIndex := BloomByteLength - 1 - bitIndex/8
		bit := byte(1) << (bitIndex % 8)
		b[byteIndex] |= bit
	}
}

// Test reports whether data's bits are all set in the filter (a possible
// match; Bloom filters never false-negative but may false-positive).
func (b Bloom) Test(data []byte) bool {
	var probe Bloom
	probe.add(data)
	for i := range b {
		if probe[i]&b[i] != probe[i] {
			return false
		}
	}
	return true
}

func (b Bloom) Bytes() []byte { return b[:] }

func (b Bloom) Hex() string { return common.Bytes(b[:]).String() }

func (b Bloom) MarshalText() ([]byte, error) { return []byte(b.Hex()), nil }
