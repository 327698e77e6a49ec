// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldtprotocol/veldt/stackedmap"
)

func TestStackedMap(t *testing.T) {
	src := map[string]string{"base": "src-value"}
	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	sm.Push()
	sm.Put("k1", "v1")

	v, found, err := sm.Get("k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", v)

	// falls through to the source for unwritten keys
	v, found, err = sm.Get("base")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "src-value", v)

	_, found, err = sm.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	// a higher level shadows a lower one
	sm.Push()
	sm.Put("k1", "v1-2")
	v, _, err = sm.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "v1-2", v)

	sm.Pop()
	v, _, err = sm.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
}

func TestPopTo(t *testing.T) {
	sm := stackedmap.New(func(string) (string, bool, error) {
		return "", false, nil
	})

	sm.Push()
	sm.Put("k", "v0")
	depth := sm.Push()
	sm.Put("k", "v1")
	sm.Push()
	sm.Put("k", "v2")

	sm.PopTo(depth)
	assert.Equal(t, depth, sm.Depth())

	v, found, err := sm.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v0", v)
}

func TestPutSameKeyTwiceInOneLevel(t *testing.T) {
	sm := stackedmap.New(func(string) (string, bool, error) {
		return "", false, nil
	})

	sm.Push()
	sm.Put("k", "a")
	sm.Put("k", "b")

	v, _, err := sm.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	sm.Pop()
	_, found, err := sm.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJournal(t *testing.T) {
	sm := stackedmap.New(func(string) (string, bool, error) {
		return "", false, nil
	})

	sm.Push()
	sm.Put("a", "1")
	sm.Push()
	sm.Put("b", "2")
	sm.Put("a", "3")

	var got []string
	sm.Journal(func(key, value string) bool {
		got = append(got, key+"="+value)
		return true
	})
	assert.Equal(t, []string{"a=1", "b=2", "a=3"}, got)

	// popped levels leave the journal
	sm.Pop()
	got = got[:0]
	sm.Journal(func(key, value string) bool {
		got = append(got, key+"="+value)
		return true
	})
	assert.Equal(t, []string{"a=1"}, got)
}
