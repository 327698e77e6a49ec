// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"encoding/binary"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	slotEntries = veldt.BytesToBytes32([]byte("reward-entries"))
	slotEpochs  = veldt.BytesToBytes32([]byte("reward-epochs"))
)

type epochKey uint64

func (k epochKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// Schedule is the sparse per-epoch reward schedule. An entry set at epoch e
// stays in force for every later epoch until the next entry. Entries may be
// set for past epochs and rewrite accrual retroactively on the next replay.
type Schedule struct {
	entries *storage.Mapping[epochKey, *big.Int]
	epochs  *storage.Value[[]uint64]
}

func New(sctx *storage.Context) *Schedule {
	return &Schedule{
		entries: storage.NewMapping[epochKey, *big.Int](sctx, slotEntries),
		epochs:  storage.NewValue[[]uint64](sctx, slotEpochs),
	}
}

// Set records the reward rate taking effect at the given epoch.
func (s *Schedule) Set(epoch uint64, rate *big.Int) error {
	if err := s.entries.Set(epochKey(epoch), rate); err != nil {
		return errors.Wrap(err, "failed to set reward entry")
	}
	epochs, err := s.epochs.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get reward epochs")
	}
	i := sort.Search(len(epochs), func(i int) bool { return epochs[i] >= epoch })
	if i < len(epochs) && epochs[i] == epoch {
		return nil
	}
	epochs = append(epochs, 0)
	copy(epochs[i+1:], epochs[i:])
	epochs[i] = epoch
	if err := s.epochs.Set(epochs); err != nil {
		return errors.Wrap(err, "failed to set reward epochs")
	}
	return nil
}

// EntryAt returns the entry set exactly at the given epoch, if any.
func (s *Schedule) EntryAt(epoch uint64) (*big.Int, bool, error) {
	epochs, err := s.epochs.Get()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to get reward epochs")
	}
	i := sort.Search(len(epochs), func(i int) bool { return epochs[i] >= epoch })
	if i >= len(epochs) || epochs[i] != epoch {
		return new(big.Int), false, nil
	}
	rate, err := s.entries.Get(epochKey(epoch))
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to get reward entry")
	}
	return rate, true, nil
}

// RateAt returns the rate in force at the given epoch, resolved by floor
// lookup over the set entries. With no entry at or before the epoch the rate
// is zero.
func (s *Schedule) RateAt(epoch uint64) (*big.Int, error) {
	epochs, err := s.epochs.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward epochs")
	}
	i := sort.Search(len(epochs), func(i int) bool { return epochs[i] > epoch })
	if i == 0 {
		return new(big.Int), nil
	}
	rate, err := s.entries.Get(epochKey(epochs[i-1]))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward entry")
	}
	return rate, nil
}

// Epochs returns the epochs carrying an entry, in ascending order.
func (s *Schedule) Epochs() ([]uint64, error) {
	epochs, err := s.epochs.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward epochs")
	}
	return epochs, nil
}
