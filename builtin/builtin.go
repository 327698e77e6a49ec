// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/veldtprotocol/veldt/builtin/params"
	"github.com/veldtprotocol/veldt/builtin/staking"
	"github.com/veldtprotocol/veldt/builtin/token"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/veldt"
)

// Well-known addresses of the builtin ledgers.
var (
	ParamsAddress  = veldt.BytesToAddress([]byte("Params"))
	TokenAddress   = veldt.BytesToAddress([]byte("Token"))
	StakingAddress = veldt.BytesToAddress([]byte("Staking"))
)

// ParamsWithState binds the params ledger to the given state.
func ParamsWithState(st *state.State) *params.Params {
	return params.New(ParamsAddress, st)
}

// TokenWithState binds the token ledger to the given state.
func TokenWithState(st *state.State) *token.Token {
	return token.New(TokenAddress, st)
}

// StakingWithState binds the staking ledger to the given state.
func StakingWithState(st *state.State, opts ...staking.Option) *staking.Staking {
	return staking.New(StakingAddress, st, ParamsWithState(st), TokenWithState(st), opts...)
}
