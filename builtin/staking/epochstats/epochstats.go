// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochstats

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	slotTotalStaked     = veldt.BytesToBytes32([]byte("epoch-total-staked"))
	slotTotalUnstaked   = veldt.BytesToBytes32([]byte("epoch-total-unstaked"))
	slotAccountStaked   = veldt.BytesToBytes32([]byte("epoch-account-staked"))
	slotAccountUnstaked = veldt.BytesToBytes32([]byte("epoch-account-unstaked"))
	slotSlashed         = veldt.BytesToBytes32([]byte("epoch-slashed"))
)

type epochKey uint64

func (k epochKey) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return b[:]
}

// Service keeps the append-only per-epoch deltas the accrual replay consumes.
// Each epoch records total staked/unstaked amounts, per-account staked/unstaked
// amounts and the nodes slashed during it.
type Service struct {
	totalStaked     *storage.Mapping[epochKey, *big.Int]
	totalUnstaked   *storage.Mapping[epochKey, *big.Int]
	accountStaked   *storage.Mapping[veldt.Bytes32, *big.Int]
	accountUnstaked *storage.Mapping[veldt.Bytes32, *big.Int]
	slashed         *storage.Mapping[epochKey, []veldt.Address]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		totalStaked:     storage.NewMapping[epochKey, *big.Int](sctx, slotTotalStaked),
		totalUnstaked:   storage.NewMapping[epochKey, *big.Int](sctx, slotTotalUnstaked),
		accountStaked:   storage.NewMapping[veldt.Bytes32, *big.Int](sctx, slotAccountStaked),
		accountUnstaked: storage.NewMapping[veldt.Bytes32, *big.Int](sctx, slotAccountUnstaked),
		slashed:         storage.NewMapping[epochKey, []veldt.Address](sctx, slotSlashed),
	}
}

func accountKey(account veldt.Address, epoch uint64) veldt.Bytes32 {
	return veldt.Blake2b(account.Bytes(), epochKey(epoch).Bytes())
}

// RecordStake adds a stake delta to the epoch's total and account aggregates.
func (s *Service) RecordStake(epoch uint64, account veldt.Address, amount *big.Int) error {
	if err := add(s.totalStaked, epochKey(epoch), amount); err != nil {
		return errors.Wrap(err, "failed to record total staked")
	}
	if err := add(s.accountStaked, accountKey(account, epoch), amount); err != nil {
		return errors.Wrap(err, "failed to record account staked")
	}
	return nil
}

// RecordUnstake adds an unstake delta to the epoch's total and account
// aggregates.
func (s *Service) RecordUnstake(epoch uint64, account veldt.Address, amount *big.Int) error {
	if err := add(s.totalUnstaked, epochKey(epoch), amount); err != nil {
		return errors.Wrap(err, "failed to record total unstaked")
	}
	if err := add(s.accountUnstaked, accountKey(account, epoch), amount); err != nil {
		return errors.Wrap(err, "failed to record account unstaked")
	}
	return nil
}

// RecordSlash appends the node to the epoch's slash list.
func (s *Service) RecordSlash(epoch uint64, node veldt.Address) error {
	list, err := s.slashed.Get(epochKey(epoch))
	if err != nil {
		return errors.Wrap(err, "failed to get slashed nodes")
	}
	if err := s.slashed.Set(epochKey(epoch), append(list, node)); err != nil {
		return errors.Wrap(err, "failed to set slashed nodes")
	}
	return nil
}

// TotalDelta returns the total staked and unstaked amounts of the epoch.
func (s *Service) TotalDelta(epoch uint64) (staked, unstaked *big.Int, err error) {
	if staked, err = s.totalStaked.Get(epochKey(epoch)); err != nil {
		return nil, nil, errors.Wrap(err, "failed to get total staked")
	}
	if unstaked, err = s.totalUnstaked.Get(epochKey(epoch)); err != nil {
		return nil, nil, errors.Wrap(err, "failed to get total unstaked")
	}
	return staked, unstaked, nil
}

// AccountDelta returns the account's staked and unstaked amounts of the epoch.
func (s *Service) AccountDelta(epoch uint64, account veldt.Address) (staked, unstaked *big.Int, err error) {
	if staked, err = s.accountStaked.Get(accountKey(account, epoch)); err != nil {
		return nil, nil, errors.Wrap(err, "failed to get account staked")
	}
	if unstaked, err = s.accountUnstaked.Get(accountKey(account, epoch)); err != nil {
		return nil, nil, errors.Wrap(err, "failed to get account unstaked")
	}
	return staked, unstaked, nil
}

// SlashedNodes returns the nodes slashed during the epoch, in slash order.
func (s *Service) SlashedNodes(epoch uint64) ([]veldt.Address, error) {
	list, err := s.slashed.Get(epochKey(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slashed nodes")
	}
	return list, nil
}

func add[K storage.Key](m *storage.Mapping[K, *big.Int], key K, amount *big.Int) error {
	cur, err := m.Get(key)
	if err != nil {
		return err
	}
	return m.Set(key, new(big.Int).Add(cur, amount))
}
