// Copyright (c) 2025 The Veldt developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/veldtprotocol/veldt/builtin"
	"github.com/veldtprotocol/veldt/state"
	"github.com/veldtprotocol/veldt/veldt"
)

// CustomGenesis is the YAML description of a custom network launch.
// Balances and the reward are decimal strings so arbitrarily large values
// survive the trip through YAML.
type CustomGenesis struct {
	LaunchTime     uint64    `yaml:"launchTime"`
	EpochLength    uint64    `yaml:"epochLength"`
	UnstakeDelay   uint64    `yaml:"unstakeDelay"`
	Executor       string    `yaml:"executor"`
	RewardPerEpoch string    `yaml:"rewardPerEpoch"`
	Accounts       []Account `yaml:"accounts"`
	Nodes          []string  `yaml:"nodes"`
}

// Account funds one address at launch.
type Account struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// LoadCustomGenesis decodes a CustomGenesis document, rejecting unknown
// fields.
func LoadCustomGenesis(r io.Reader) (*CustomGenesis, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var gen CustomGenesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "failed to decode custom genesis")
	}
	return &gen, nil
}

// NewCustomNet builds the genesis of a custom network.
func NewCustomNet(gen *CustomGenesis) (*Builder, error) {
	if gen.LaunchTime == 0 {
		return nil, errors.New("launchTime must be set")
	}
	executor, err := veldt.ParseAddress(gen.Executor)
	if err != nil {
		return nil, errors.Wrap(err, "invalid executor address")
	}

	reward := new(big.Int)
	if gen.RewardPerEpoch != "" {
		if _, ok := reward.SetString(gen.RewardPerEpoch, 10); !ok {
			return nil, errors.Errorf("invalid rewardPerEpoch %q", gen.RewardPerEpoch)
		}
	}

	type funded struct {
		addr    veldt.Address
		balance *big.Int
	}
	accounts := make([]funded, 0, len(gen.Accounts))
	for _, acc := range gen.Accounts {
		addr, err := veldt.ParseAddress(acc.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid account address %q", acc.Address)
		}
		balance, ok := new(big.Int).SetString(acc.Balance, 10)
		if !ok || balance.Sign() < 0 {
			return nil, errors.Errorf("invalid balance %q for account %s", acc.Balance, addr)
		}
		accounts = append(accounts, funded{addr: *addr, balance: balance})
	}

	nodes := make([]veldt.Address, 0, len(gen.Nodes))
	for _, raw := range gen.Nodes {
		addr, err := veldt.ParseAddress(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid node address %q", raw)
		}
		nodes = append(nodes, *addr)
	}

	builder := new(Builder).
		Timestamp(gen.LaunchTime).
		State(func(st *state.State) error {
			ps := builtin.ParamsWithState(st)
			if err := ps.SetAddress(veldt.KeyExecutorAddress, *executor); err != nil {
				return err
			}
			if err := ps.Set(veldt.KeyStartTime, new(big.Int).SetUint64(gen.LaunchTime)); err != nil {
				return err
			}
			if gen.EpochLength != 0 {
				if err := ps.Set(veldt.KeyEpochLength, new(big.Int).SetUint64(gen.EpochLength)); err != nil {
					return err
				}
			}
			if gen.UnstakeDelay != 0 {
				if err := ps.Set(veldt.KeyUnstakeDelay, new(big.Int).SetUint64(gen.UnstakeDelay)); err != nil {
					return err
				}
			}
			return nil
		}).
		State(func(st *state.State) error {
			tk := builtin.TokenWithState(st)
			for _, acc := range accounts {
				if err := tk.Mint(acc.addr, acc.balance); err != nil {
					return err
				}
			}
			return nil
		}).
		State(func(st *state.State) error {
			stk := builtin.StakingWithState(st)
			for _, node := range nodes {
				if err := stk.Nodes().Allow(node); err != nil {
					return err
				}
			}
			// schedule always carries an entry at epoch 0
			return stk.Schedule().Set(0, reward)
		})

	return builder, nil
}
