// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

// Params binder of the governance params ledger.
// Values are keyed by well-known slots (see veldt.Key*).
type Params struct {
	ctx    *storage.Context
	values *storage.Mapping[veldt.Bytes32, *big.Int]
}

var slotValues = veldt.BytesToBytes32([]byte("params"))

// New creates a params binder at the given ledger address.
func New(addr veldt.Address, state *state.State) *Params {
	ctx := storage.NewContext(addr, state, nil)
	return &Params{
		ctx:    ctx,
		values: storage.NewMapping[veldt.Bytes32, *big.Int](ctx, slotValues),
	}
}

// Get gets the param value for the given key. An unset param reads as zero.
func (p *Params) Get(key veldt.Bytes32) (*big.Int, error) {
	v, err := p.values.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get param")
	}
	return v, nil
}

// Set sets the param value for the given key.
func (p *Params) Set(key veldt.Bytes32, value *big.Int) error {
	if err := p.values.Set(key, value); err != nil {
		return errors.Wrap(err, "failed to set param")
	}
	return nil
}

// GetAddress gets the param value for the given key as an address.
func (p *Params) GetAddress(key veldt.Bytes32) (veldt.Address, error) {
	v, err := p.Get(key)
	if err != nil {
		return veldt.Address{}, err
	}
	return veldt.BytesToAddress(v.Bytes()), nil
}

// SetAddress sets the param value for the given key from an address.
func (p *Params) SetAddress(key veldt.Bytes32, addr veldt.Address) error {
	return p.Set(key, new(big.Int).SetBytes(addr.Bytes()))
}
