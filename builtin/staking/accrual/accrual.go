// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/builtin/staking/epochstats"
	"github.com/veldtprotocol/veldt/builtin/staking/schedule"
	"github.com/veldtprotocol/veldt/metrics"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var metricReplayEpochs = metrics.LazyLoadHistogram("accrual_replay_epochs", []int64{0, 1, 2, 5, 10, 50, 100, 500, 1000})

var (
	slotCheckpoints = veldt.BytesToBytes32([]byte("accrual-checkpoints"))
	slotWithdrawn   = veldt.BytesToBytes32([]byte("reward-withdrawn"))
)

// Checkpoint is the per-account replay snapshot. Epoch is the exclusive upper
// bound of the last replay; RewardAcc is the cumulative reward earned through
// it. UserStakeAcc and TotalStakeAcc are the account's and the system's
// running active-stake accumulators as of Epoch.
type Checkpoint struct {
	Epoch         uint64
	RewardAcc     *big.Int
	UserStakeAcc  *big.Int
	TotalStakeAcc *big.Int
}

func (cp *Checkpoint) normalize() {
	if cp.RewardAcc == nil {
		cp.RewardAcc = new(big.Int)
	}
	if cp.UserStakeAcc == nil {
		cp.UserStakeAcc = new(big.Int)
	}
	if cp.TotalStakeAcc == nil {
		cp.TotalStakeAcc = new(big.Int)
	}
}

// StakeReader resolves the stake an account holds against a node.
type StakeReader interface {
	Edge(account, node veldt.Address) (*big.Int, error)
}

// NodeReader resolves a node's recorded total stake.
type NodeReader interface {
	TotalStake(node veldt.Address) (*big.Int, error)
}

// Service is the reward accrual engine. It lazily replays an account's
// checkpoint through elapsed epochs, consuming the per-epoch deltas and the
// reward schedule.
type Service struct {
	checkpoints *storage.Mapping[veldt.Address, *Checkpoint]
	withdrawn   *storage.Mapping[veldt.Address, *big.Int]
	schedule    *schedule.Schedule
	stats       *epochstats.Service
	stakes      StakeReader
	nodes       NodeReader
}

func New(sctx *storage.Context, sched *schedule.Schedule, stats *epochstats.Service, stakes StakeReader, nodes NodeReader) *Service {
	return &Service{
		checkpoints: storage.NewMapping[veldt.Address, *Checkpoint](sctx, slotCheckpoints),
		withdrawn:   storage.NewMapping[veldt.Address, *big.Int](sctx, slotWithdrawn),
		schedule:    sched,
		stats:       stats,
		stakes:      stakes,
		nodes:       nodes,
	}
}

// Checkpoint returns the account's stored checkpoint, a zero checkpoint for
// accounts that never replayed.
func (s *Service) Checkpoint(account veldt.Address) (*Checkpoint, error) {
	cp, err := s.checkpoints.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get checkpoint")
	}
	cp.normalize()
	return cp, nil
}

// Withdrawn returns the cumulative reward already paid to the account.
func (s *Service) Withdrawn(account veldt.Address) (*big.Int, error) {
	w, err := s.withdrawn.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get withdrawn rewards")
	}
	return w, nil
}

// AddWithdrawn records a reward payout to the account.
func (s *Service) AddWithdrawn(account veldt.Address, amount *big.Int) error {
	w, err := s.Withdrawn(account)
	if err != nil {
		return err
	}
	if err := s.withdrawn.Set(account, new(big.Int).Add(w, amount)); err != nil {
		return errors.Wrap(err, "failed to set withdrawn rewards")
	}
	return nil
}

// Replay advances the account's checkpoint through every epoch before upto,
// accumulating reward one epoch at a time, and persists the result.
//
// The working rate is seeded from the epoch-0 entry at the start of every
// walk; only entries at or after the checkpoint epoch are picked up during
// the walk itself. Rate changes that landed strictly between epoch 0 and the
// checkpoint epoch are therefore not seen, matching the reference ledger.
func (s *Service) Replay(account veldt.Address, upto uint64) (*Checkpoint, error) {
	cp, err := s.Checkpoint(account)
	if err != nil {
		return nil, err
	}
	if cp.Epoch >= upto {
		return cp, nil
	}
	metricReplayEpochs().Observe(int64(upto - cp.Epoch))

	rate, _, err := s.schedule.EntryAt(0)
	if err != nil {
		return nil, err
	}
	changes, err := s.schedule.Epochs()
	if err != nil {
		return nil, err
	}
	next := sort.Search(len(changes), func(i int) bool { return changes[i] >= cp.Epoch })

	for epoch := cp.Epoch; epoch < upto; epoch++ {
		if next < len(changes) && changes[next] == epoch {
			if rate, _, err = s.schedule.EntryAt(epoch); err != nil {
				return nil, err
			}
			next++
		}

		accStaked, accUnstaked, err := s.stats.AccountDelta(epoch, account)
		if err != nil {
			return nil, err
		}
		cp.UserStakeAcc.Add(cp.UserStakeAcc, accStaked)
		cp.UserStakeAcc.Sub(cp.UserStakeAcc, accUnstaked)

		totStaked, totUnstaked, err := s.stats.TotalDelta(epoch)
		if err != nil {
			return nil, err
		}
		cp.TotalStakeAcc.Add(cp.TotalStakeAcc, totStaked)
		cp.TotalStakeAcc.Sub(cp.TotalStakeAcc, totUnstaked)

		slashed, err := s.stats.SlashedNodes(epoch)
		if err != nil {
			return nil, err
		}
		for _, node := range slashed {
			edge, err := s.stakes.Edge(account, node)
			if err != nil {
				return nil, err
			}
			cp.UserStakeAcc.Sub(cp.UserStakeAcc, edge)

			nodeStake, err := s.nodes.TotalStake(node)
			if err != nil {
				return nil, err
			}
			cp.TotalStakeAcc.Sub(cp.TotalStakeAcc, nodeStake)
		}

		if cp.TotalStakeAcc.Sign() == 0 {
			continue
		}
		share := new(big.Int).Mul(cp.UserStakeAcc, rate)
		share.Quo(share, cp.TotalStakeAcc)
		cp.RewardAcc.Add(cp.RewardAcc, share)
	}

	cp.Epoch = upto
	if err := s.checkpoints.Set(account, cp); err != nil {
		return nil, errors.Wrap(err, "failed to set checkpoint")
	}
	return cp, nil
}
