// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtprotocol/veldt/builtin/staking/epochstats"
	"github.com/veldtprotocol/veldt/builtin/staking/schedule"
	"github.com/veldtprotocol/veldt/lvldb"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	acct  = veldt.BytesToAddress([]byte("account"))
	nodeA = veldt.BytesToAddress([]byte("node-a"))
)

type stubStakes map[veldt.Address]*big.Int

func (s stubStakes) Edge(_, node veldt.Address) (*big.Int, error) {
	if amount, ok := s[node]; ok {
		return amount, nil
	}
	return new(big.Int), nil
}

type stubNodes map[veldt.Address]*big.Int

func (s stubNodes) TotalStake(node veldt.Address) (*big.Int, error) {
	if amount, ok := s[node]; ok {
		return amount, nil
	}
	return new(big.Int), nil
}

type testEnv struct {
	service  *Service
	schedule *schedule.Schedule
	stats    *epochstats.Service
}

func newTestEnv(t *testing.T, edges stubStakes, totals stubNodes) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	sctx := storage.NewContext(veldt.BytesToAddress([]byte("accrual")), state.New(db), nil)
	sched := schedule.New(sctx)
	stats := epochstats.New(sctx)
	return &testEnv{
		service:  New(sctx, sched, stats, edges, totals),
		schedule: sched,
		stats:    stats,
	}
}

func TestReplayPersistsCheckpoint(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.stats.RecordStake(0, acct, big.NewInt(100)))

	cp, err := env.service.Replay(acct, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cp.Epoch)
	assert.Equal(t, big.NewInt(300), cp.RewardAcc)
	assert.Equal(t, big.NewInt(100), cp.UserStakeAcc)
	assert.Equal(t, big.NewInt(100), cp.TotalStakeAcc)

	stored, err := env.service.Checkpoint(acct)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stored.Epoch)
	assert.Equal(t, big.NewInt(300), stored.RewardAcc)
}

func TestReplayIsIncremental(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.stats.RecordStake(0, acct, big.NewInt(100)))

	_, err := env.service.Replay(acct, 2)
	require.NoError(t, err)
	cp, err := env.service.Replay(acct, 5)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), cp.RewardAcc)

	// replaying to an already-passed epoch is a no-op
	cp, err = env.service.Replay(acct, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), cp.Epoch)
	assert.Equal(t, big.NewInt(500), cp.RewardAcc)
}

func TestReplaySkipsEmptyEpochs(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.stats.RecordStake(4, acct, big.NewInt(100)))

	// epochs 0..3 carry no stake at all; nothing accrues for them
	cp, err := env.service.Replay(acct, 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), cp.RewardAcc)
}

func TestReplayProportionalShare(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	other := veldt.BytesToAddress([]byte("other"))
	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.stats.RecordStake(0, acct, big.NewInt(25)))
	require.NoError(t, env.stats.RecordStake(0, other, big.NewInt(75)))

	cp, err := env.service.Replay(acct, 1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), cp.RewardAcc)
	assert.Equal(t, big.NewInt(25), cp.UserStakeAcc)
	assert.Equal(t, big.NewInt(100), cp.TotalStakeAcc)
}

func TestReplayAppliesRateEntriesDuringWalk(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.schedule.Set(3, big.NewInt(200)))
	require.NoError(t, env.stats.RecordStake(0, acct, big.NewInt(100)))

	cp, err := env.service.Replay(acct, 5)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), cp.RewardAcc)
}

// A walk starting past a rate-change epoch never sees that entry; the rate
// re-seeds from epoch 0 at the start of every walk.
func TestReplayReseedsRateFromEpochZero(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.schedule.Set(1, big.NewInt(300)))
	require.NoError(t, env.stats.RecordStake(0, acct, big.NewInt(100)))

	_, err := env.service.Replay(acct, 3)
	require.NoError(t, err)

	cp, err := env.service.Replay(acct, 5)
	require.NoError(t, err)
	// 100 + 300 + 300 from the first walk, then 2x100 from the second
	assert.Equal(t, big.NewInt(900), cp.RewardAcc)
}

func TestReplayExcludesSlashedNode(t *testing.T) {
	env := newTestEnv(t,
		stubStakes{nodeA: big.NewInt(50)},
		stubNodes{nodeA: big.NewInt(50)},
	)

	require.NoError(t, env.schedule.Set(0, big.NewInt(100)))
	require.NoError(t, env.stats.RecordStake(0, acct, big.NewInt(50)))
	require.NoError(t, env.stats.RecordStake(0, veldt.BytesToAddress([]byte("other")), big.NewInt(50)))
	require.NoError(t, env.stats.RecordSlash(1, nodeA))

	cp, err := env.service.Replay(acct, 3)
	require.NoError(t, err)
	// epoch 0 earns half the rate, the slash zeroes the stake from epoch 1 on
	assert.Equal(t, big.NewInt(50), cp.RewardAcc)
	assert.Zero(t, cp.UserStakeAcc.Sign())
	assert.Equal(t, big.NewInt(50), cp.TotalStakeAcc)
}

func TestWithdrawnLedger(t *testing.T) {
	env := newTestEnv(t, stubStakes{}, stubNodes{})

	w, err := env.service.Withdrawn(acct)
	require.NoError(t, err)
	assert.Zero(t, w.Sign())

	require.NoError(t, env.service.AddWithdrawn(acct, big.NewInt(70)))
	require.NoError(t, env.service.AddWithdrawn(acct, big.NewInt(30)))

	w, err = env.service.Withdrawn(acct)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), w)
}
