// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochstats

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtprotocol/veldt/lvldb"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	acct  = veldt.BytesToAddress([]byte("account"))
	other = veldt.BytesToAddress([]byte("other"))
	nodeA = veldt.BytesToAddress([]byte("node-a"))
)

func newTestService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	sctx := storage.NewContext(veldt.BytesToAddress([]byte("epochstats")), state.New(db), nil)
	return New(sctx)
}

func TestDeltasAccumulateWithinEpoch(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.RecordStake(3, acct, big.NewInt(100)))
	require.NoError(t, s.RecordStake(3, acct, big.NewInt(50)))
	require.NoError(t, s.RecordStake(3, other, big.NewInt(25)))
	require.NoError(t, s.RecordUnstake(3, acct, big.NewInt(30)))

	staked, unstaked, err := s.TotalDelta(3)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(175), staked)
	assert.Equal(t, big.NewInt(30), unstaked)

	staked, unstaked, err = s.AccountDelta(3, acct)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), staked)
	assert.Equal(t, big.NewInt(30), unstaked)

	staked, unstaked, err = s.AccountDelta(3, other)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), staked)
	assert.Zero(t, unstaked.Sign())
}

func TestEpochsAreIndependent(t *testing.T) {
	s := newTestService(t)

	require.NoError(t, s.RecordStake(1, acct, big.NewInt(100)))

	staked, unstaked, err := s.TotalDelta(2)
	require.NoError(t, err)
	assert.Zero(t, staked.Sign())
	assert.Zero(t, unstaked.Sign())

	staked, _, err = s.AccountDelta(2, acct)
	require.NoError(t, err)
	assert.Zero(t, staked.Sign())
}

func TestSlashedNodesPerEpoch(t *testing.T) {
	s := newTestService(t)

	nodeB := veldt.BytesToAddress([]byte("node-b"))
	require.NoError(t, s.RecordSlash(4, nodeA))
	require.NoError(t, s.RecordSlash(4, nodeB))

	slashed, err := s.SlashedNodes(4)
	require.NoError(t, err)
	assert.Equal(t, []veldt.Address{nodeA, nodeB}, slashed)

	slashed, err = s.SlashedNodes(5)
	require.NoError(t, err)
	assert.Empty(t, slashed)
}
