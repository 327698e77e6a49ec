// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/veldt"
)

// MeterFunc observes slot access of a ledger.
type MeterFunc func(op Op, slots uint64)

// Op kind of slot access.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

// Context scopes slot access to one ledger address.
type Context struct {
	address veldt.Address
	state   *state.State
	meter   MeterFunc
}

// NewContext creates a context bound to the given ledger address.
func NewContext(address veldt.Address, state *state.State, meter MeterFunc) *Context {
	return &Context{
		address: address,
		state:   state,
		meter:   meter,
	}
}

// Address returns the ledger address the context is bound to.
func (c *Context) Address() veldt.Address {
	return c.address
}

// State returns the underlying state.
func (c *Context) State() *state.State {
	return c.state
}

// Meter reports a slot access to the configured meter, if any.
func (c *Context) Meter(op Op, slots uint64) {
	if c.meter != nil {
		c.meter(op, slots)
	}
}
