// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/state"
)

// Builder helper to build the genesis ledger state.
type Builder struct {
	timestamp  uint64
	stateProcs []func(*state.State) error
}

// Timestamp sets the launch timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State appends a state process, called in order during Build.
func (b *Builder) State(proc func(*state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build applies all state processes to the given state. On failure the state
// is reverted to its condition before Build.
func (b *Builder) Build(st *state.State) error {
	chk := st.NewCheckpoint()
	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			st.RevertTo(chk)
			return errors.Wrap(err, "failed to execute genesis state process")
		}
	}
	return nil
}
