// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package withdrawals

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var slotQueues = veldt.BytesToBytes32([]byte("unstake-queues"))

// Request is a pending unstake awaiting maturity.
type Request struct {
	Amount      *big.Int
	RequestedAt uint64
}

// Service keeps the per-account queue of pending unstake requests.
type Service struct {
	queues *storage.Mapping[veldt.Address, []*Request]
}

func New(sctx *storage.Context) *Service {
	return &Service{
		queues: storage.NewMapping[veldt.Address, []*Request](sctx, slotQueues),
	}
}

// Add appends a request to the account's queue.
func (s *Service) Add(account veldt.Address, amount *big.Int, now uint64) error {
	queue, err := s.queues.Get(account)
	if err != nil {
		return errors.Wrap(err, "failed to get unstake queue")
	}
	queue = append(queue, &Request{Amount: amount, RequestedAt: now})
	if err := s.queues.Set(account, queue); err != nil {
		return errors.Wrap(err, "failed to set unstake queue")
	}
	return nil
}

// Claim consumes every matured request and returns their sum. A request
// matures once now - RequestedAt >= delay; each request is consumed at most
// once. A zero sum means nothing has matured.
func (s *Service) Claim(account veldt.Address, now, delay uint64) (*big.Int, error) {
	queue, err := s.queues.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unstake queue")
	}

	total := new(big.Int)
	remaining := queue[:0]
	for _, req := range queue {
		if now >= req.RequestedAt && now-req.RequestedAt >= delay {
			total.Add(total, req.Amount)
			continue
		}
		remaining = append(remaining, req)
	}
	if total.Sign() == 0 {
		return total, nil
	}
	if err := s.queues.Set(account, remaining); err != nil {
		return nil, errors.Wrap(err, "failed to set unstake queue")
	}
	return total, nil
}

// Pending returns the account's outstanding requests, oldest first.
func (s *Service) Pending(account veldt.Address) ([]*Request, error) {
	queue, err := s.queues.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unstake queue")
	}
	return queue, nil
}
