// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage_test

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

var ledger = veldt.BytesToAddress([]byte("ledger"))

func newTestContext(t *testing.T, meter storage.MeterFunc) *storage.Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return storage.NewContext(ledger, state.New(db), meter)
}

type record struct {
	Label  string
	Amount *big.Int
}

func TestMappingRoundTrip(t *testing.T) {
	sctx := newTestContext(t, nil)
	m := storage.NewMapping[veldt.Address, *record](sctx, veldt.BytesToBytes32([]byte("records")))

	k := veldt.BytesToAddress([]byte("key"))
	require.NoError(t, m.Set(k, &record{Label: "first", Amount: big.NewInt(42)}))

	got, err := m.Get(k)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Label)
	assert.Equal(t, big.NewInt(42), got.Amount)
}

func TestMappingAbsentDecodesZero(t *testing.T) {
	sctx := newTestContext(t, nil)
	m := storage.NewMapping[veldt.Address, *record](sctx, veldt.BytesToBytes32([]byte("records")))

	got, err := m.Get(veldt.BytesToAddress([]byte("missing")))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Label)
	assert.Nil(t, got.Amount)
}

func TestMappingKeysAreIsolated(t *testing.T) {
	sctx := newTestContext(t, nil)
	m := storage.NewMapping[veldt.Address, *big.Int](sctx, veldt.BytesToBytes32([]byte("amounts")))

	k1 := veldt.BytesToAddress([]byte("k1"))
	k2 := veldt.BytesToAddress([]byte("k2"))
	require.NoError(t, m.Set(k1, big.NewInt(1)))

	got, err := m.Get(k2)
	require.NoError(t, err)
	assert.Zero(t, got.Sign())
}

func TestMappingsAtDistinctSlotsDoNotCollide(t *testing.T) {
	sctx := newTestContext(t, nil)
	m1 := storage.NewMapping[veldt.Address, *big.Int](sctx, veldt.BytesToBytes32([]byte("m1")))
	m2 := storage.NewMapping[veldt.Address, *big.Int](sctx, veldt.BytesToBytes32([]byte("m2")))

	k := veldt.BytesToAddress([]byte("key"))
	require.NoError(t, m1.Set(k, big.NewInt(1)))
	require.NoError(t, m2.Set(k, big.NewInt(2)))

	got, err := m1.Get(k)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), got)
}

func TestUint256(t *testing.T) {
	sctx := newTestContext(t, nil)
	u := storage.NewUint256(sctx, veldt.BytesToBytes32([]byte("counter")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Zero(t, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(40)))

	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), v)

	// underflow leaves the stored value untouched
	require.Error(t, u.Sub(big.NewInt(61)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), v)
}

func TestAddressSlot(t *testing.T) {
	sctx := newTestContext(t, nil)
	a := storage.NewAddress(sctx, veldt.BytesToBytes32([]byte("owner")))

	got, err := a.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	owner := veldt.BytesToAddress([]byte("owner-addr"))
	a.Set(&owner)

	got, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestValueSlot(t *testing.T) {
	sctx := newTestContext(t, nil)
	v := storage.NewValue[[]uint64](sctx, veldt.BytesToBytes32([]byte("epochs")))

	got, err := v.Get()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, v.Set([]uint64{0, 4, 9}))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 4, 9}, got)
}

func TestMeterObservesAccess(t *testing.T) {
	var reads, writes uint64
	sctx := newTestContext(t, func(op storage.Op, slots uint64) {
		switch op {
		case storage.OpRead:
			reads += slots
		case storage.OpWrite:
			writes += slots
		}
	})

	u := storage.NewUint256(sctx, veldt.BytesToBytes32([]byte("counter")))
	require.NoError(t, u.Add(big.NewInt(1)))

	assert.NotZero(t, reads)
	assert.NotZero(t, writes)
}
