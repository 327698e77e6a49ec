// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/veldtprotocol/veldt/veldt"
)

// Event kinds recorded by the staking ledger.
const (
	EventStaked               = "staked"
	EventUnstaked             = "unstaked"
	EventWithdrawn            = "withdrawn"
	EventSlashed              = "slashed"
	EventRewardRate           = "reward_rate"
	EventRewardPaid           = "reward_paid"
	EventSlashedPoolWithdrawn = "slashed_pool_withdrawn"
)

// Event is an audit record of a completed mutation.
type Event struct {
	Kind    string
	Account veldt.Address
	Node    veldt.Address
	Amount  *big.Int
	Epoch   uint64
	Time    uint64
}

// Sink receives events after the mutation they describe has been applied.
// Sink failures are logged and never roll back the ledger.
type Sink interface {
	Record(ev *Event) error
}
