// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/veldt"
)

// Uint256 is a wrapper for storage and retrieval of an unsigned 256-bit
// integer at a fixed slot. If the provided value exceeds 256 bits it will be
// truncated to fit into veldt.Bytes32.
type Uint256 struct {
	context *Context
	pos     veldt.Bytes32
}

// NewUint256 creates a Uint256 at the given slot.
func NewUint256(context *Context, pos veldt.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

// Get loads the stored value. An empty slot reads as zero.
func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	u.context.Meter(OpRead, 1)
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

// Set stores the value.
func (u *Uint256) Set(value *big.Int) {
	u.context.Meter(OpWrite, 1)
	u.context.state.SetStorage(u.context.address, u.pos, veldt.BytesToBytes32(value.Bytes()))
}

// Add increases the stored value by value.
func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Add(storage, value)
	u.Set(storage)
	return nil
}

// Sub decreases the stored value by value.
// It fails without writing if the result would be negative.
func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Sub(storage, value)
	if storage.Sign() < 0 {
		return errors.Errorf("uint256 underflow at slot %s", u.pos.AbbrevString())
	}
	u.Set(storage)
	return nil
}
