// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/veldtprotocol/veldt/veldt"
)

// Address is a wrapper for storage and retrieval of an address at a fixed slot.
type Address struct {
	context *Context
	pos     veldt.Bytes32
}

// NewAddress creates an Address at the given slot.
func NewAddress(context *Context, pos veldt.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

// Get loads the stored address. An empty slot reads as the zero address.
func (a *Address) Get() (veldt.Address, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return veldt.Address{}, err
	}
	a.context.Meter(OpRead, 1)
	return veldt.BytesToAddress(storage.Bytes()), nil
}

// Set stores the address. A nil addr clears the slot.
func (a *Address) Set(addr *veldt.Address) {
	var storage veldt.Bytes32
	if addr != nil {
		storage = veldt.BytesToBytes32(addr.Bytes())
	}
	a.context.Meter(OpWrite, 1)
	a.context.state.SetStorage(a.context.address, a.pos, storage)
}
