// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veldtprotocol/veldt/builtin/params"
	"github.com/veldtprotocol/veldt/builtin/token"
	"github.com/veldtprotocol/veldt/lvldb"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/veldt"
)

const (
	testStart       = uint64(1000)
	testEpochLength = uint64(100)
	testDelay       = uint64(700)
)

var (
	executor = veldt.BytesToAddress([]byte("executor"))
	alice    = veldt.BytesToAddress([]byte("alice"))
	bob      = veldt.BytesToAddress([]byte("bob"))
	node1    = veldt.BytesToAddress([]byte("node-1"))
	node2    = veldt.BytesToAddress([]byte("node-2"))
)

// ts returns the wall clock at the start of the given epoch.
func ts(epoch uint64) uint64 {
	return testStart + epoch*testEpochLength
}

type testEnv struct {
	staking *Staking
	token   *token.Token
	params  *params.Params
}

// newTestEnv builds a staking ledger over in-memory storage, started at
// testStart with reward rate0 at epoch 0, node1/node2 allowed and the listed
// accounts funded.
func newTestEnv(t *testing.T, rate0 *big.Int, funds map[veldt.Address]*big.Int, opts ...Option) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	st := state.New(db)
	ps := params.New(veldt.BytesToAddress([]byte("Params")), st)
	tk := token.New(veldt.BytesToAddress([]byte("Token")), st)
	stk := New(veldt.BytesToAddress([]byte("Staking")), st, ps, tk, opts...)

	require.NoError(t, ps.SetAddress(veldt.KeyExecutorAddress, executor))
	require.NoError(t, ps.Set(veldt.KeyStartTime, new(big.Int).SetUint64(testStart)))
	require.NoError(t, ps.Set(veldt.KeyEpochLength, new(big.Int).SetUint64(testEpochLength)))
	require.NoError(t, ps.Set(veldt.KeyUnstakeDelay, new(big.Int).SetUint64(testDelay)))
	require.NoError(t, stk.Schedule().Set(0, rate0))
	require.NoError(t, stk.Nodes().Allow(node1))
	require.NoError(t, stk.Nodes().Allow(node2))
	for addr, balance := range funds {
		require.NoError(t, tk.Mint(addr, balance))
	}

	return &testEnv{staking: stk, token: tk, params: ps}
}

type TestFunc func(t *testing.T)

// TestSequence runs staking operations in order, failing fast on the first
// unexpected outcome.
type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (seq *TestSequence) AddFunc(f TestFunc) *TestSequence {
	seq.mu.Lock()
	defer seq.mu.Unlock()

	seq.funcs = append(seq.funcs, f)
	return seq
}

func (seq *TestSequence) Stake(account, node veldt.Address, amount int64, now uint64) *TestSequence {
	return seq.AddFunc(func(t *testing.T) {
		err := seq.env.staking.Stake(account, veldt.Address{}, node, big.NewInt(amount), now)
		if err != nil {
			t.Fatalf("failed to stake %d from %s on %s: %v", amount, account, node, err)
		}
		t.Logf("staked %d from %s on %s", amount, account, node)
	})
}

func (seq *TestSequence) Unstake(account, node veldt.Address, amount int64, now uint64) *TestSequence {
	return seq.AddFunc(func(t *testing.T) {
		err := seq.env.staking.Unstake(account, node, big.NewInt(amount), now)
		if err != nil {
			t.Fatalf("failed to unstake %d from %s on %s: %v", amount, account, node, err)
		}
		t.Logf("unstaked %d from %s on %s", amount, account, node)
	})
}

func (seq *TestSequence) Slash(node veldt.Address, now uint64) *TestSequence {
	return seq.AddFunc(func(t *testing.T) {
		if err := seq.env.staking.Slash(executor, node, now); err != nil {
			t.Fatalf("failed to slash %s: %v", node, err)
		}
		t.Logf("slashed %s", node)
	})
}

func (seq *TestSequence) SetRewardRate(rate int64, now uint64) *TestSequence {
	return seq.AddFunc(func(t *testing.T) {
		if err := seq.env.staking.SetRewardRate(executor, big.NewInt(rate), now); err != nil {
			t.Fatalf("failed to set reward rate %d: %v", rate, err)
		}
		t.Logf("reward rate set to %d", rate)
	})
}

func (seq *TestSequence) ExpectReward(account veldt.Address, expected int64, now uint64) *TestSequence {
	return seq.AddFunc(func(t *testing.T) {
		owed, _, err := seq.env.staking.WithdrawableReward(account, now)
		if err != nil {
			t.Fatalf("failed to query reward of %s: %v", account, err)
		}
		if owed.Cmp(big.NewInt(expected)) != 0 {
			t.Fatalf("reward of %s: expected %d, got %s", account, expected, owed)
		}
		t.Logf("reward of %s is %s", account, owed)
	})
}

func (seq *TestSequence) Run(t *testing.T) {
	seq.mu.Lock()
	defer seq.mu.Unlock()

	for _, f := range seq.funcs {
		f(t)
	}
}
