// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodes

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/builtin/staking/linkedlist"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

// Node is the per-operator record.
// Known is set on the first stake ever placed against the node and never
// cleared, even when all stake is withdrawn. Slashed transitions false->true
// exactly once; TotalStake is frozen from that point on.
type Node struct {
	Allowed    bool
	Slashed    bool
	Known      bool
	TotalStake *big.Int
}

// IsEmpty returns whether the record can be treated as nonexistent.
func (n *Node) IsEmpty() bool {
	return !n.Allowed && !n.Slashed && !n.Known && n.TotalStake.Sign() == 0
}

// Entry pairs a node address with its recorded total stake, for listings.
type Entry struct {
	Node  veldt.Address
	Stake *big.Int
}

var (
	slotNodes = veldt.BytesToBytes32([]byte("nodes"))
	// active nodes linked list
	slotActiveHead = veldt.BytesToBytes32([]byte("nodes-active-head"))
	slotActiveTail = veldt.BytesToBytes32([]byte("nodes-active-tail"))
	slotActiveSize = veldt.BytesToBytes32([]byte("nodes-active-size"))
	// slashed nodes linked list
	slotSlashedHead = veldt.BytesToBytes32([]byte("nodes-slashed-head"))
	slotSlashedTail = veldt.BytesToBytes32([]byte("nodes-slashed-tail"))
	slotSlashedSize = veldt.BytesToBytes32([]byte("nodes-slashed-size"))
	// slashed pool accounting
	slotSlashedTotal     = veldt.BytesToBytes32([]byte("slashed-total"))
	slotSlashedWithdrawn = veldt.BytesToBytes32([]byte("slashed-withdrawn"))
)

// Service manages node records, the active/slashed listings and the
// slashed-pool accounting.
type Service struct {
	nodes   *storage.Mapping[veldt.Address, *Node]
	active  *linkedlist.LinkedList
	slashed *linkedlist.LinkedList

	slashedTotal     *storage.Uint256
	slashedWithdrawn *storage.Uint256
}

func New(sctx *storage.Context) *Service {
	return &Service{
		nodes:            storage.NewMapping[veldt.Address, *Node](sctx, slotNodes),
		active:           linkedlist.NewLinkedList(sctx, slotActiveHead, slotActiveTail, slotActiveSize),
		slashed:          linkedlist.NewLinkedList(sctx, slotSlashedHead, slotSlashedTail, slotSlashedSize),
		slashedTotal:     storage.NewUint256(sctx, slotSlashedTotal),
		slashedWithdrawn: storage.NewUint256(sctx, slotSlashedWithdrawn),
	}
}

// Get returns the node record, a zero record if the node was never seen.
func (s *Service) Get(node veldt.Address) (*Node, error) {
	n, err := s.nodes.Get(node)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get node")
	}
	if n.TotalStake == nil {
		n.TotalStake = new(big.Int)
	}
	return n, nil
}

func (s *Service) set(node veldt.Address, entry *Node) error {
	if err := s.nodes.Set(node, entry); err != nil {
		return errors.Wrap(err, "failed to set node")
	}
	return nil
}

// TotalStake returns the node's recorded total stake.
func (s *Service) TotalStake(node veldt.Address) (*big.Int, error) {
	n, err := s.Get(node)
	if err != nil {
		return nil, err
	}
	return n.TotalStake, nil
}

// Allow admits the node to receive stake.
func (s *Service) Allow(node veldt.Address) error {
	n, err := s.Get(node)
	if err != nil {
		return err
	}
	n.Allowed = true
	return s.set(node, n)
}

// Revoke removes the node from the allow list. Existing stake is untouched.
func (s *Service) Revoke(node veldt.Address) error {
	n, err := s.Get(node)
	if err != nil {
		return err
	}
	n.Allowed = false
	return s.set(node, n)
}

// AddStake increases the node's total stake and tracks it in the active list.
func (s *Service) AddStake(node veldt.Address, amount *big.Int) error {
	n, err := s.Get(node)
	if err != nil {
		return err
	}
	wasZero := n.TotalStake.Sign() == 0
	n.TotalStake = new(big.Int).Add(n.TotalStake, amount)
	n.Known = true
	if err := s.set(node, n); err != nil {
		return err
	}
	if wasZero {
		return s.active.Add(node)
	}
	return nil
}

// SubStake decreases the node's total stake, dropping it from the active
// list when it reaches zero.
func (s *Service) SubStake(node veldt.Address, amount *big.Int) error {
	n, err := s.Get(node)
	if err != nil {
		return err
	}
	if n.TotalStake.Cmp(amount) < 0 {
		return errors.New("node stake underflow")
	}
	n.TotalStake = new(big.Int).Sub(n.TotalStake, amount)
	if err := s.set(node, n); err != nil {
		return err
	}
	if n.TotalStake.Sign() == 0 {
		return s.active.Remove(node)
	}
	return nil
}

// MarkSlashed flags the node as slashed, moves it from the active to the
// slashed listing and adds its frozen stake to the claimable slashed pool.
func (s *Service) MarkSlashed(node veldt.Address) error {
	n, err := s.Get(node)
	if err != nil {
		return err
	}
	n.Slashed = true
	if err := s.set(node, n); err != nil {
		return err
	}
	if err := s.active.Remove(node); err != nil {
		return err
	}
	if err := s.slashed.Add(node); err != nil {
		return err
	}
	return s.slashedTotal.Add(n.TotalStake)
}

// WithdrawableSlashed returns the part of the slashed pool not yet withdrawn.
func (s *Service) WithdrawableSlashed() (*big.Int, error) {
	total, err := s.slashedTotal.Get()
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.slashedWithdrawn.Get()
	if err != nil {
		return nil, err
	}
	return total.Sub(total, withdrawn), nil
}

// AddSlashedWithdrawn records a withdrawal from the slashed pool.
func (s *Service) AddSlashedWithdrawn(amount *big.Int) error {
	return s.slashedWithdrawn.Add(amount)
}

// ActiveStakes lists nodes carrying active stake, in insertion order.
func (s *Service) ActiveStakes() ([]*Entry, error) {
	return s.list(s.active)
}

// SlashedStakes lists slashed nodes with their frozen stake, in slash order.
func (s *Service) SlashedStakes() ([]*Entry, error) {
	return s.list(s.slashed)
}

func (s *Service) list(l *linkedlist.LinkedList) ([]*Entry, error) {
	var entries []*Entry
	err := l.Iter(func(addr veldt.Address) error {
		n, err := s.Get(addr)
		if err != nil {
			return err
		}
		entries = append(entries, &Entry{Node: addr, Stake: n.TotalStake})
		return nil
	})
	return entries, err
}
