// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtprotocol/veldt/builtin"
	"github.com/veldtprotocol/veldt/lvldb"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/veldt"
)

func TestWellKnownAddressesAreDistinct(t *testing.T) {
	assert.NotEqual(t, builtin.ParamsAddress, builtin.TokenAddress)
	assert.NotEqual(t, builtin.TokenAddress, builtin.StakingAddress)
	assert.NotEqual(t, builtin.ParamsAddress, builtin.StakingAddress)
}

func TestBindersShareState(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	alice := veldt.BytesToAddress([]byte("alice"))
	node := veldt.BytesToAddress([]byte("node"))

	require.NoError(t, builtin.ParamsWithState(st).Set(veldt.KeyStartTime, big.NewInt(1000)))
	require.NoError(t, builtin.TokenWithState(st).Mint(alice, big.NewInt(500)))

	stk := builtin.StakingWithState(st)
	require.NoError(t, stk.Nodes().Allow(node))
	require.NoError(t, stk.Schedule().Set(0, big.NewInt(10)))

	// the staking binder sees the params and balances written above
	epoch, err := stk.CurrentEpoch(1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), epoch)

	require.NoError(t, stk.Stake(alice, veldt.Address{}, node, big.NewInt(100), 1000))

	custody, err := builtin.TokenWithState(st).Get(builtin.StakingAddress)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), custody)
}
