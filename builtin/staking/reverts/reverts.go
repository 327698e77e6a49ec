// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrRevert is a precondition violation detected before any mutation.
// It is always reported synchronously to the caller; it never indicates a
// partially applied operation.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Named revert conditions of the staking ledger.
var (
	ErrZeroAddressNode             = New("node is the zero address")
	ErrNodeIsNotAllowed            = New("node is not allowed")
	ErrNodeIsSlashed               = New("node is slashed")
	ErrNodeIsUnknown               = New("node is unknown")
	ErrAmountNotPositive           = New("amount is not positive")
	ErrNotStarted                  = New("staking has not started")
	ErrNoWithdrawableStake         = New("no withdrawable stake")
	ErrNoWithdrawableSlashedStakes = New("no withdrawable slashed stakes")
	ErrNoWithdrawableRewards       = New("no withdrawable rewards")
	ErrEpochRewardDidntChange      = New("epoch reward didn't change")
	ErrPaused                      = New("staking is paused")
	ErrNotExecutor                 = New("caller is not the executor")
	ErrInsufficientBalance         = New("insufficient balance")
)

// AmountExceedsStake reports an unstake request larger than the caller's
// stake against the node.
type AmountExceedsStake struct {
	Requested *big.Int
	Available *big.Int
}

func NewAmountExceedsStake(requested, available *big.Int) *AmountExceedsStake {
	return &AmountExceedsStake{
		Requested: new(big.Int).Set(requested),
		Available: new(big.Int).Set(available),
	}
}

func (e *AmountExceedsStake) Error() string {
	return fmt.Sprintf("amount exceeds stake: requested %v, available %v", e.Requested, e.Available)
}

// IsRevertErr reports whether err is a revert condition.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return true
	}
	var ae *AmountExceedsStake
	return errors.As(e, &ae)
}
