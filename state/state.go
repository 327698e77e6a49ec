// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/veldtprotocol/veldt/kv"
	"github.com/veldtprotocol/veldt/stackedmap"
	"github.com/veldtprotocol/veldt/veldt"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type slotKey struct {
	addr veldt.Address
	key  veldt.Bytes32
}

func (k slotKey) storeKey() []byte {
	b := make([]byte, 0, veldt.AddressLength+32)
	b = append(b, k.addr.Bytes()...)
	return append(b, k.key.Bytes()...)
}

// State manages the ledger state.
// All slot writes are journaled, so any revision of the state can be
// reverted without touching the backing store. Reads fall through to the
// backing store for slots never written in this instance.
type State struct {
	store kv.GetPutter
	sm    *stackedmap.StackedMap[slotKey, rlp.RawValue]
}

// New creates a state instance over the given store.
func New(store kv.GetPutter) *State {
	state := &State{store: store}
	state.sm = stackedmap.New(state.storeGetter)
	// base revision; never popped
	state.sm.Push()
	return state
}

// storeGetter implements stackedmap.MapGetter.
func (s *State) storeGetter(key slotKey) (rlp.RawValue, bool, error) {
	data, err := s.store.Get(key.storeKey())
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// GetStorage returns the storage value for the given address and key.
func (s *State) GetStorage(addr veldt.Address, key veldt.Bytes32) (veldt.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return veldt.Bytes32{}, &Error{err}
	}
	if len(raw) == 0 {
		return veldt.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return veldt.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return veldt.Blake2b(raw), nil
	}
	return veldt.BytesToBytes32(content), nil
}

// SetStorage sets the storage value for the given address and key.
func (s *State) SetStorage(addr veldt.Address, key, value veldt.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns the storage value in rlp raw for the given address and key.
func (s *State) GetRawStorage(addr veldt.Address, key veldt.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(slotKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage sets the storage value in rlp raw.
func (s *State) SetRawStorage(addr veldt.Address, key veldt.Bytes32, raw rlp.RawValue) {
	s.sm.Put(slotKey{addr, key}, raw)
}

// EncodeStorage sets the storage value encoded by the given enc method.
func (s *State) EncodeStorage(addr veldt.Address, key veldt.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes the storage value.
func (s *State) DecodeStorage(addr veldt.Address, key veldt.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return &Error{err}
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns the checkpoint id.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint.
// The checkpoint id and all later ones are invalidated after the revert.
func (s *State) RevertTo(checkpointID int) {
	s.sm.PopTo(checkpointID)
}

// Stage collects all journaled changes for committing to the backing store.
func (s *State) Stage() *Stage {
	changes := make(map[slotKey]rlp.RawValue)
	s.sm.Journal(func(key slotKey, value rlp.RawValue) bool {
		changes[key] = value
		return true
	})
	return newStage(s.store, changes)
}
