// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/veldtprotocol/veldt/veldt"
)

// Key is anything that can derive a slot position.
type Key interface {
	Bytes() []byte
}

// Mapping is a keyed slot collection of a ledger, similar to a mapping in
// contract storage. Values are RLP encoded; an absent entry decodes to the
// zero value of V.
type Mapping[K Key, V any] struct {
	context *Context
	basePos veldt.Bytes32
}

// NewMapping creates a mapping rooted at the given position.
func NewMapping[K Key, V any](context *Context, pos veldt.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

// Get loads the value stored under the key.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	position := veldt.Blake2b(key.Bytes(), m.basePos.Bytes())
	err = m.context.state.DecodeStorage(m.context.address, position, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		slots := (uint64(len(raw)) + 31) / 32
		m.context.Meter(OpRead, slots)
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value under the key. Zero-length encodings clear the slot.
func (m *Mapping[K, V]) Set(key K, value V) error {
	position := veldt.Blake2b(key.Bytes(), m.basePos.Bytes())
	return m.context.state.EncodeStorage(m.context.address, position, func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		slots := (uint64(len(val)) + 31) / 32
		m.context.Meter(OpWrite, slots)
		return val, nil
	})
}
