// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/veldtprotocol/veldt/kv"
)

// Stage abstracts committing journaled state changes to the backing store.
type Stage struct {
	store   kv.GetPutter
	changes map[slotKey]rlp.RawValue
}

func newStage(store kv.GetPutter, changes map[slotKey]rlp.RawValue) *Stage {
	return &Stage{store: store, changes: changes}
}

// Len returns the count of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit writes all changes into the backing store in one batch.
func (s *Stage) Commit() error {
	batch := s.store.NewBatch()
	for key, raw := range s.changes {
		if len(raw) == 0 {
			if err := batch.Delete(key.storeKey()); err != nil {
				return &Error{err}
			}
			continue
		}
		if err := batch.Put(key.storeKey(), raw); err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
