// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtprotocol/veldt/lvldb"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	addr = veldt.BytesToAddress([]byte("ledger"))
	key  = veldt.BytesToBytes32([]byte("slot"))
)

func newTestState(t *testing.T) (*state.State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return state.New(db), db
}

func TestStorageRoundTrip(t *testing.T) {
	st, _ := newTestState(t)

	value := veldt.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)

	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// unwritten slots read as zero
	got, err = st.GetStorage(addr, veldt.BytesToBytes32([]byte("other")))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestSetZeroClearsSlot(t *testing.T) {
	st, _ := newTestState(t)

	st.SetStorage(addr, key, veldt.BytesToBytes32([]byte("value")))
	st.SetStorage(addr, key, veldt.Bytes32{})

	raw, err := st.GetRawStorage(addr, key)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newTestState(t)

	v1 := veldt.BytesToBytes32([]byte("v1"))
	v2 := veldt.BytesToBytes32([]byte("v2"))

	st.SetStorage(addr, key, v1)
	chk := st.NewCheckpoint()
	st.SetStorage(addr, key, v2)

	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v2, got)

	st.RevertTo(chk)
	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestNestedCheckpoints(t *testing.T) {
	st, _ := newTestState(t)

	v1 := veldt.BytesToBytes32([]byte("v1"))

	st.SetStorage(addr, key, v1)
	outer := st.NewCheckpoint()
	st.SetStorage(addr, key, veldt.BytesToBytes32([]byte("v2")))
	inner := st.NewCheckpoint()
	st.SetStorage(addr, key, veldt.BytesToBytes32([]byte("v3")))

	st.RevertTo(inner)
	got, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, veldt.BytesToBytes32([]byte("v2")), got)

	st.RevertTo(outer)
	got, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestStageCommitPersists(t *testing.T) {
	st, db := newTestState(t)

	value := veldt.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)
	require.NoError(t, st.Stage().Commit())

	// a fresh state over the same store sees the committed slot
	st2 := state.New(db)
	got, err := st2.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestRevertedWritesAreNotCommitted(t *testing.T) {
	st, db := newTestState(t)

	v1 := veldt.BytesToBytes32([]byte("v1"))
	st.SetStorage(addr, key, v1)

	chk := st.NewCheckpoint()
	st.SetStorage(addr, key, veldt.BytesToBytes32([]byte("v2")))
	st.RevertTo(chk)

	require.NoError(t, st.Stage().Commit())

	st2 := state.New(db)
	got, err := st2.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestCommitDeletesClearedSlots(t *testing.T) {
	st, db := newTestState(t)

	st.SetStorage(addr, key, veldt.BytesToBytes32([]byte("value")))
	require.NoError(t, st.Stage().Commit())

	st2 := state.New(db)
	st2.SetStorage(addr, key, veldt.Bytes32{})
	require.NoError(t, st2.Stage().Commit())

	st3 := state.New(db)
	got, err := st3.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
