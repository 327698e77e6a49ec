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

// Value is a wrapper for storage and retrieval of an arbitrary RLP-encodable
// value at a fixed slot. An absent value decodes to the zero value of V.
type Value[V any] struct {
	context *Context
	pos     veldt.Bytes32
}

// NewValue creates a Value at the given slot.
func NewValue[V any](context *Context, pos veldt.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

// Get loads the stored value.
func (v *Value[V]) Get() (value V, err error) {
	err = v.context.state.DecodeStorage(v.context.address, v.pos, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		slots := (uint64(len(raw)) + 31) / 32
		v.context.Meter(OpRead, slots)
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Set stores the value.
func (v *Value[V]) Set(value V) error {
	return v.context.state.EncodeStorage(v.context.address, v.pos, func() ([]byte, error) {
		val, err := rlp.EncodeToBytes(value)
		if err != nil {
			return nil, err
		}
		slots := (uint64(len(val)) + 31) / 32
		v.context.Meter(OpWrite, slots)
		return val, nil
	})
}
