// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

// Account is the per-staker record. TotalStake includes stake against
// now-slashed nodes; the active part is derived on demand. Nodes lists every
// node the account ever staked against, in first-stake order.
type Account struct {
	TotalStake *big.Int
	Nodes      []veldt.Address
}

var (
	slotEdges    = veldt.BytesToBytes32([]byte("stake-edges"))
	slotAccounts = veldt.BytesToBytes32([]byte("stake-accounts"))
)

// Service manages stake edges and per-account totals.
type Service struct {
	edges    *storage.Mapping[veldt.Bytes32, *big.Int]
	accounts *storage.Mapping[veldt.Address, *Account]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		edges:    storage.NewMapping[veldt.Bytes32, *big.Int](sctx, slotEdges),
		accounts: storage.NewMapping[veldt.Address, *Account](sctx, slotAccounts),
	}
}

func edgeKey(account, node veldt.Address) veldt.Bytes32 {
	return veldt.Blake2b(account.Bytes(), node.Bytes())
}

// Edge returns the stake the account holds against the node.
func (s *Service) Edge(account, node veldt.Address) (*big.Int, error) {
	amount, err := s.edges.Get(edgeKey(account, node))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake edge")
	}
	return amount, nil
}

// Account returns the per-staker record, a zero record for unknown accounts.
func (s *Service) Account(account veldt.Address) (*Account, error) {
	acc, err := s.accounts.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	if acc.TotalStake == nil {
		acc.TotalStake = new(big.Int)
	}
	return acc, nil
}

// AddStake increases the edge and the account total.
func (s *Service) AddStake(account, node veldt.Address, amount *big.Int) error {
	edge, err := s.Edge(account, node)
	if err != nil {
		return err
	}
	if err := s.edges.Set(edgeKey(account, node), new(big.Int).Add(edge, amount)); err != nil {
		return errors.Wrap(err, "failed to set stake edge")
	}

	acc, err := s.Account(account)
	if err != nil {
		return err
	}
	acc.TotalStake = new(big.Int).Add(acc.TotalStake, amount)
	tracked := false
	for _, n := range acc.Nodes {
		if n == node {
			tracked = true
			break
		}
	}
	if !tracked {
		acc.Nodes = append(acc.Nodes, node)
	}
	if err := s.accounts.Set(account, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

// SubStake decreases the edge and the account total.
// The caller must have checked the edge covers the amount.
func (s *Service) SubStake(account, node veldt.Address, amount *big.Int) error {
	edge, err := s.Edge(account, node)
	if err != nil {
		return err
	}
	if edge.Cmp(amount) < 0 {
		return errors.New("stake edge underflow")
	}
	if err := s.edges.Set(edgeKey(account, node), new(big.Int).Sub(edge, amount)); err != nil {
		return errors.Wrap(err, "failed to set stake edge")
	}

	acc, err := s.Account(account)
	if err != nil {
		return err
	}
	acc.TotalStake = new(big.Int).Sub(acc.TotalStake, amount)
	if err := s.accounts.Set(account, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

// SlashedStake sums the account's edges against nodes matching isSlashed.
func (s *Service) SlashedStake(account veldt.Address, isSlashed func(veldt.Address) (bool, error)) (*big.Int, error) {
	acc, err := s.Account(account)
	if err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, node := range acc.Nodes {
		slashed, err := isSlashed(node)
		if err != nil {
			return nil, err
		}
		if !slashed {
			continue
		}
		edge, err := s.Edge(account, node)
		if err != nil {
			return nil, err
		}
		total.Add(total, edge)
	}
	return total, nil
}
