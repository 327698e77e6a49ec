// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"

	"github.com/veldtprotocol/veldt/builtin/params"
	"github.com/veldtprotocol/veldt/builtin/staking/accrual"
	"github.com/veldtprotocol/veldt/builtin/staking/epochstats"
	"github.com/veldtprotocol/veldt/builtin/staking/nodes"
	"github.com/veldtprotocol/veldt/builtin/staking/reverts"
	"github.com/veldtprotocol/veldt/builtin/staking/schedule"
	"github.com/veldtprotocol/veldt/builtin/staking/stakes"
	"github.com/veldtprotocol/veldt/builtin/staking/withdrawals"
	"github.com/veldtprotocol/veldt/builtin/token"
	"github.com/veldtprotocol/veldt/log"
	"github.com/veldtprotocol/veldt/metrics"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	metricOps        = metrics.LazyLoadCounterVec("staking_ops_count", []string{"op"})
	metricSlotAccess = metrics.LazyLoadCounterVec("staking_slot_access_count", []string{"op"})
)

// Staking binder of the stake-weighted reward ledger.
// Every mutating entry point runs under one lock and one state checkpoint, so
// a call either fully applies or leaves the ledger untouched. Entry points
// take the clock explicitly; epochs derive from it and the configured start
// time.
type Staking struct {
	addr   veldt.Address
	state  *state.State
	params *params.Params
	token  *token.Token

	nodes       *nodes.Service
	stakes      *stakes.Service
	stats       *epochstats.Service
	schedule    *schedule.Schedule
	accrual     *accrual.Service
	withdrawals *withdrawals.Service

	sink Sink
	mu   sync.Mutex
}

// Option configures a Staking binder.
type Option func(*Staking)

// WithSink routes audit events to the given sink.
func WithSink(sink Sink) Option {
	return func(s *Staking) {
		s.sink = sink
	}
}

// New creates a staking binder at the given ledger address.
func New(addr veldt.Address, st *state.State, ps *params.Params, tk *token.Token, opts ...Option) *Staking {
	sctx := storage.NewContext(addr, st, meter)

	s := &Staking{
		addr:        addr,
		state:       st,
		params:      ps,
		token:       tk,
		nodes:       nodes.New(sctx),
		stakes:      stakes.New(sctx),
		stats:       epochstats.New(sctx),
		schedule:    schedule.New(sctx),
		withdrawals: withdrawals.New(sctx),
	}
	s.accrual = accrual.New(sctx, s.schedule, s.stats, s.stakes, s.nodes)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

func meter(op storage.Op, slots uint64) {
	label := "read"
	if op == storage.OpWrite {
		label = "write"
	}
	metricSlotAccess().AddWithLabel(int64(slots), map[string]string{"op": label})
}

// Address returns the ledger address stake custody is held at.
func (s *Staking) Address() veldt.Address {
	return s.addr
}

// Schedule returns the reward schedule, for genesis seeding.
func (s *Staking) Schedule() *schedule.Schedule {
	return s.schedule
}

// Nodes returns the node registry, for genesis seeding.
func (s *Staking) Nodes() *nodes.Service {
	return s.nodes
}

// CurrentEpoch derives the epoch index from the clock.
// It fails before the configured start time.
func (s *Staking) CurrentEpoch(now uint64) (uint64, error) {
	start, err := s.params.Get(veldt.KeyStartTime)
	if err != nil {
		return 0, err
	}
	if start.Sign() == 0 || !start.IsUint64() || now < start.Uint64() {
		return 0, reverts.ErrNotStarted
	}
	length, err := s.epochLength()
	if err != nil {
		return 0, err
	}
	return (now - start.Uint64()) / length, nil
}

func (s *Staking) epochLength() (uint64, error) {
	length, err := s.params.Get(veldt.KeyEpochLength)
	if err != nil {
		return 0, err
	}
	if length.Sign() == 0 {
		return veldt.EpochLength, nil
	}
	return length.Uint64(), nil
}

func (s *Staking) unstakeDelay() (uint64, error) {
	delay, err := s.params.Get(veldt.KeyUnstakeDelay)
	if err != nil {
		return 0, err
	}
	if delay.Sign() == 0 {
		return veldt.UnstakeDelay, nil
	}
	return delay.Uint64(), nil
}

func (s *Staking) requireActive() error {
	paused, err := s.params.Get(veldt.KeyPaused)
	if err != nil {
		return err
	}
	if paused.Sign() != 0 {
		return reverts.ErrPaused
	}
	return nil
}

func (s *Staking) requireExecutor(caller veldt.Address) error {
	executor, err := s.params.GetAddress(veldt.KeyExecutorAddress)
	if err != nil {
		return err
	}
	if executor != caller {
		return reverts.ErrNotExecutor
	}
	return nil
}

// transact runs fn under the lock and a state checkpoint, reverting every
// write when fn fails.
func (s *Staking) transact(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chk := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(chk)
		return err
	}
	return nil
}

func (s *Staking) emit(ev *Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ev); err != nil {
		log.Warn("failed to record staking event", "kind", ev.Kind, "err", err)
	}
}

// Stake places amount of the caller's balance against the node, credited to
// account. A zero account stakes for the caller itself. The stake starts
// earning from the next fully elapsed epoch.
func (s *Staking) Stake(caller, account, node veldt.Address, amount *big.Int, now uint64) error {
	var epoch uint64
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		if node.IsZero() {
			return reverts.ErrZeroAddressNode
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrAmountNotPositive
		}
		var err error
		if epoch, err = s.CurrentEpoch(now); err != nil {
			return err
		}
		n, err := s.nodes.Get(node)
		if err != nil {
			return err
		}
		if n.Slashed {
			return reverts.ErrNodeIsSlashed
		}
		if !n.Allowed {
			return reverts.ErrNodeIsNotAllowed
		}
		if account.IsZero() {
			account = caller
		}

		if _, err := s.accrual.Replay(account, epoch); err != nil {
			return err
		}

		ok, err := s.token.Transfer(caller, s.addr, amount)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrInsufficientBalance
		}

		if err := s.stakes.AddStake(account, node, amount); err != nil {
			return err
		}
		if err := s.nodes.AddStake(node, amount); err != nil {
			return err
		}
		return s.stats.RecordStake(epoch, account, amount)
	})
	if err != nil {
		return err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "stake"})
	log.Debug("stake placed", "account", account, "node", node, "amount", amount, "epoch", epoch)
	s.emit(&Event{Kind: EventStaked, Account: account, Node: node, Amount: amount, Epoch: epoch, Time: now})
	return nil
}

// Unstake schedules amount of the caller's stake against the node for
// withdrawal after the unstake delay. The stake stops earning from the
// current epoch's deltas onward.
func (s *Staking) Unstake(caller, node veldt.Address, amount *big.Int, now uint64) error {
	var epoch uint64
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrAmountNotPositive
		}
		var err error
		if epoch, err = s.CurrentEpoch(now); err != nil {
			return err
		}
		n, err := s.nodes.Get(node)
		if err != nil {
			return err
		}
		if n.Slashed {
			return reverts.ErrNodeIsSlashed
		}
		edge, err := s.stakes.Edge(caller, node)
		if err != nil {
			return err
		}
		if amount.Cmp(edge) > 0 {
			return reverts.NewAmountExceedsStake(amount, edge)
		}

		if _, err := s.accrual.Replay(caller, epoch); err != nil {
			return err
		}

		if err := s.stakes.SubStake(caller, node, amount); err != nil {
			return err
		}
		if err := s.nodes.SubStake(node, amount); err != nil {
			return err
		}
		if err := s.stats.RecordUnstake(epoch, caller, amount); err != nil {
			return err
		}
		return s.withdrawals.Add(caller, amount, now)
	})
	if err != nil {
		return err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "unstake"})
	log.Debug("unstake requested", "account", caller, "node", node, "amount", amount, "epoch", epoch)
	s.emit(&Event{Kind: EventUnstaked, Account: caller, Node: node, Amount: amount, Epoch: epoch, Time: now})
	return nil
}

// WithdrawUnstaked pays out every matured unstake request of the caller and
// returns the total. Each request is consumed at most once.
func (s *Staking) WithdrawUnstaked(caller veldt.Address, now uint64) (*big.Int, error) {
	var total *big.Int
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		delay, err := s.unstakeDelay()
		if err != nil {
			return err
		}
		if total, err = s.withdrawals.Claim(caller, now, delay); err != nil {
			return err
		}
		if total.Sign() == 0 {
			return reverts.ErrNoWithdrawableStake
		}
		ok, err := s.token.Transfer(s.addr, caller, total)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrInsufficientBalance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "withdraw_unstaked"})
	log.Debug("unstaked value withdrawn", "account", caller, "amount", total)
	s.emit(&Event{Kind: EventWithdrawn, Account: caller, Amount: total, Time: now})
	return total, nil
}

// Slash irreversibly penalizes the node. Its stake stops earning from the
// current epoch onward and moves into the slashed pool; new stake and unstake
// against it are rejected from now on.
func (s *Staking) Slash(caller, node veldt.Address, now uint64) error {
	var epoch uint64
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		if err := s.requireExecutor(caller); err != nil {
			return err
		}
		var err error
		if epoch, err = s.CurrentEpoch(now); err != nil {
			return err
		}
		n, err := s.nodes.Get(node)
		if err != nil {
			return err
		}
		if n.Slashed {
			return reverts.ErrNodeIsSlashed
		}
		if !n.Known {
			return reverts.ErrNodeIsUnknown
		}
		if err := s.nodes.MarkSlashed(node); err != nil {
			return err
		}
		return s.stats.RecordSlash(epoch, node)
	})
	if err != nil {
		return err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "slash"})
	log.Info("node slashed", "node", node, "epoch", epoch)
	s.emit(&Event{Kind: EventSlashed, Node: node, Epoch: epoch, Time: now})
	return nil
}

// WithdrawSlashedStakes pays the whole not-yet-withdrawn slashed pool to the
// executor and returns the amount.
func (s *Staking) WithdrawSlashedStakes(caller veldt.Address, now uint64) (*big.Int, error) {
	var amount *big.Int
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		if err := s.requireExecutor(caller); err != nil {
			return err
		}
		var err error
		if amount, err = s.nodes.WithdrawableSlashed(); err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return reverts.ErrNoWithdrawableSlashedStakes
		}
		if err := s.nodes.AddSlashedWithdrawn(amount); err != nil {
			return err
		}
		ok, err := s.token.Transfer(s.addr, caller, amount)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrInsufficientBalance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "withdraw_slashed"})
	log.Info("slashed pool withdrawn", "amount", amount)
	s.emit(&Event{Kind: EventSlashedPoolWithdrawn, Account: caller, Amount: amount, Time: now})
	return amount, nil
}

// SetRewardRate records a new per-epoch reward taking effect at the current
// epoch. It rejects a rate equal to the currently effective one.
func (s *Staking) SetRewardRate(caller veldt.Address, rate *big.Int, now uint64) error {
	var epoch uint64
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		if err := s.requireExecutor(caller); err != nil {
			return err
		}
		var err error
		if epoch, err = s.CurrentEpoch(now); err != nil {
			return err
		}
		effective, err := s.schedule.RateAt(epoch)
		if err != nil {
			return err
		}
		if effective.Cmp(rate) == 0 {
			return reverts.ErrEpochRewardDidntChange
		}
		return s.schedule.Set(epoch, rate)
	})
	if err != nil {
		return err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "set_reward_rate"})
	log.Info("reward rate changed", "rate", rate, "epoch", epoch)
	s.emit(&Event{Kind: EventRewardRate, Amount: rate, Epoch: epoch, Time: now})
	return nil
}

// WithdrawReward mints the caller's accrued but unpaid reward and returns
// the amount. Only fully elapsed epochs contribute.
func (s *Staking) WithdrawReward(caller veldt.Address, now uint64) (*big.Int, error) {
	var owed *big.Int
	err := s.transact(func() error {
		if err := s.requireActive(); err != nil {
			return err
		}
		epoch, err := s.CurrentEpoch(now)
		if err != nil {
			return err
		}
		cp, err := s.accrual.Replay(caller, epoch)
		if err != nil {
			return err
		}
		withdrawn, err := s.accrual.Withdrawn(caller)
		if err != nil {
			return err
		}
		owed = new(big.Int).Sub(cp.RewardAcc, withdrawn)
		if owed.Sign() <= 0 {
			return reverts.ErrNoWithdrawableRewards
		}
		if err := s.accrual.AddWithdrawn(caller, owed); err != nil {
			return err
		}
		return s.token.Mint(caller, owed)
	})
	if err != nil {
		return nil, err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "withdraw_reward"})
	log.Debug("reward withdrawn", "account", caller, "amount", owed)
	s.emit(&Event{Kind: EventRewardPaid, Account: caller, Amount: owed, Time: now})
	return owed, nil
}

// WithdrawableReward returns the reward the account could withdraw now, plus
// the replayed checkpoint for auditing. The replay runs against a scratch
// checkpoint and persists nothing.
func (s *Staking) WithdrawableReward(account veldt.Address, now uint64) (*big.Int, *accrual.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	epoch, err := s.CurrentEpoch(now)
	if err != nil {
		return nil, nil, err
	}

	chk := s.state.NewCheckpoint()
	defer s.state.RevertTo(chk)

	cp, err := s.accrual.Replay(account, epoch)
	if err != nil {
		return nil, nil, err
	}
	withdrawn, err := s.accrual.Withdrawn(account)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Sub(cp.RewardAcc, withdrawn), cp, nil
}

// NodeStake returns the node's recorded total stake.
func (s *Staking) NodeStake(node veldt.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes.TotalStake(node)
}

// AccountStake returns the account's total stake split into the part against
// active nodes and the part trapped against slashed ones.
func (s *Staking) AccountStake(account veldt.Address) (active, slashed *big.Int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.stakes.Account(account)
	if err != nil {
		return nil, nil, err
	}
	slashed, err = s.stakes.SlashedStake(account, func(node veldt.Address) (bool, error) {
		n, err := s.nodes.Get(node)
		if err != nil {
			return false, err
		}
		return n.Slashed, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Sub(acc.TotalStake, slashed), slashed, nil
}

// ActiveStakes lists nodes carrying active stake.
func (s *Staking) ActiveStakes() ([]*nodes.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes.ActiveStakes()
}

// SlashedStakes lists slashed nodes with their frozen stake.
func (s *Staking) SlashedStakes() ([]*nodes.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes.SlashedStakes()
}

// PendingUnstakes returns the caller's outstanding unstake requests.
func (s *Staking) PendingUnstakes(account veldt.Address) ([]*withdrawals.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withdrawals.Pending(account)
}

// AllowNode admits the node to receive stake.
func (s *Staking) AllowNode(caller, node veldt.Address) error {
	return s.transact(func() error {
		if err := s.requireExecutor(caller); err != nil {
			return err
		}
		if node.IsZero() {
			return reverts.ErrZeroAddressNode
		}
		return s.nodes.Allow(node)
	})
}

// RevokeNode blocks new stake against the node. Existing stake keeps earning
// and can still be unstaked.
func (s *Staking) RevokeNode(caller, node veldt.Address) error {
	return s.transact(func() error {
		if err := s.requireExecutor(caller); err != nil {
			return err
		}
		return s.nodes.Revoke(node)
	})
}

// SetPaused toggles the pause flag. While paused every mutating entry point
// rejects with ErrPaused.
func (s *Staking) SetPaused(caller veldt.Address, paused bool) error {
	return s.transact(func() error {
		if err := s.requireExecutor(caller); err != nil {
			return err
		}
		v := big.NewInt(0)
		if paused {
			v = big.NewInt(1)
		}
		return s.params.Set(veldt.KeyPaused, v)
	})
}
