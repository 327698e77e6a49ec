// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/storage"
	"github.com/veldtprotocol/veldt/veldt"
)

var (
	slotBalances = veldt.Keccak256([]byte("balances"))
	slotSupply   = veldt.Keccak256([]byte("token-supply"))
)

// Token binder of the value-transfer ledger.
// It keeps per-account balances and the total supply. The staking ledger uses
// it to take custody of staked value and to pay out rewards.
type Token struct {
	ctx      *storage.Context
	balances *storage.Mapping[veldt.Address, *big.Int]
	supply   *storage.Uint256
}

// New creates a token binder at the given ledger address.
func New(addr veldt.Address, state *state.State) *Token {
	ctx := storage.NewContext(addr, state, nil)
	return &Token{
		ctx:      ctx,
		balances: storage.NewMapping[veldt.Address, *big.Int](ctx, slotBalances),
		supply:   storage.NewUint256(ctx, slotSupply),
	}
}

// Get returns the balance of the given account.
func (t *Token) Get(addr veldt.Address) (*big.Int, error) {
	b, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return b, nil
}

// TotalSupply returns the total token supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

// Mint credits the account and grows the total supply.
func (t *Token) Mint(addr veldt.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := t.Get(addr)
	if err != nil {
		return err
	}
	if err := t.balances.Set(addr, new(big.Int).Add(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return t.supply.Add(amount)
}

// Transfer moves amount from one account to another.
// It returns false without mutating when the sender balance is insufficient.
func (t *Token) Transfer(from, to veldt.Address, amount *big.Int) (bool, error) {
	if amount.Sign() == 0 {
		return true, nil
	}
	fromBalance, err := t.Get(from)
	if err != nil {
		return false, err
	}
	if fromBalance.Cmp(amount) < 0 {
		return false, nil
	}
	// persist the debit before reading the credit side, so a transfer to
	// self nets to zero instead of crediting against the stale balance
	if err := t.balances.Set(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return false, errors.Wrap(err, "failed to set balance")
	}
	toBalance, err := t.Get(to)
	if err != nil {
		return false, err
	}
	if err := t.balances.Set(to, new(big.Int).Add(toBalance, amount)); err != nil {
		return false, errors.Wrap(err, "failed to set balance")
	}
	return true, nil
}
