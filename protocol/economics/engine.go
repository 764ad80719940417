// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package economics ties the frozen ledger, the delegation registry and the
// seed-nonce store into the block-application engine: per-operation mutations
// during a block, and cycle-end settlement.
package economics

import (
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/log"
	"github.com/kiln-chain/kiln/protocol/delegation"
	"github.com/kiln-chain/kiln/protocol/frozen"
	"github.com/kiln-chain/kiln/protocol/seed"
	"github.com/kiln-chain/kiln/state"
)

var logger = log.WithContext("pkg", "economics")

// Well-known storage entity addresses of the protocol ledgers.
var (
	FrozenAddress     = kiln.BytesToAddress([]byte("kiln.ledger.frozen"))
	DelegationAddress = kiln.BytesToAddress([]byte("kiln.ledger.delegation"))
	SeedAddress       = kiln.BytesToAddress([]byte("kiln.ledger.seed"))
	SupplyAddress     = kiln.BytesToAddress([]byte("kiln.ledger.supply"))
)

// Engine applies protocol economics to a state instance.
type Engine struct {
	state    *state.State
	ledger   *frozen.Ledger
	registry *delegation.Registry
	nonces   *seed.Store
	supply   *supplyLedger
}

// New create a new instance over the given state.
func New(state *state.State) *Engine {
	return &Engine{
		state:    state,
		ledger:   frozen.New(FrozenAddress, state),
		registry: delegation.New(DelegationAddress, state),
		nonces:   seed.New(SeedAddress, state),
		supply:   newSupplyLedger(SupplyAddress, state),
	}
}

// Ledger returns the frozen balance ledger.
func (e *Engine) Ledger() *frozen.Ledger { return e.ledger }

// Registry returns the delegation registry.
func (e *Engine) Registry() *delegation.Registry { return e.registry }

// Nonces returns the seed-nonce store.
func (e *Engine) Nonces() *seed.Store { return e.nonces }

// TotalIssued returns the cumulative amount of tokens ever issued.
func (e *Engine) TotalIssued() (kiln.Tez, error) { return e.supply.issued.Get() }

// TotalBurned returns the cumulative amount of tokens ever burned.
func (e *Engine) TotalBurned() (kiln.Tez, error) { return e.supply.burned.Get() }

// Mint credits a spendable balance out of thin air, recording the issuance.
// Used for the genesis allocation.
func (e *Engine) Mint(addr kiln.Address, amount kiln.Tez) error {
	balance, err := e.state.GetBalance(addr)
	if err != nil {
		return err
	}
	sum, err := balance.Add(amount)
	if err != nil {
		return err
	}
	if err := e.state.SetBalance(addr, sum); err != nil {
		return err
	}
	return e.supply.issue(amount)
}

// FreezeDeposit moves amount from the delegate's spendable balance into its
// frozen deposit for the cycle. The staking weight does not change: frozen
// deposits keep counting toward it.
func (e *Engine) FreezeDeposit(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	balance, err := e.state.GetBalance(delegate)
	if err != nil {
		return err
	}
	if balance < amount {
		return &BalanceTooLowError{Delegate: delegate, Balance: balance, Required: amount}
	}

	checkpoint := e.state.NewCheckpoint()
	if err := e.freezeDeposit(delegate, cycle, balance, amount); err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (e *Engine) freezeDeposit(delegate kiln.Address, cycle kiln.Cycle, balance, amount kiln.Tez) error {
	if err := e.state.SetBalance(delegate, balance-amount); err != nil {
		return err
	}
	return e.ledger.CreditDeposit(delegate, cycle, amount)
}

// AddFees credits collected operation fees to the delegate's frozen fees for
// the cycle. Fees are new stake for the delegate and enter its weight now.
// The fee payers live outside this subsystem, so fees count as tracked
// inflow for supply bookkeeping.
func (e *Engine) AddFees(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	if amount == 0 {
		return nil
	}
	checkpoint := e.state.NewCheckpoint()
	if err := e.addFees(delegate, cycle, amount); err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (e *Engine) addFees(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	if err := e.ledger.CreditFees(delegate, cycle, amount); err != nil {
		return err
	}
	if err := e.registry.AddStake(delegate, amount); err != nil {
		return err
	}
	return e.supply.issue(amount)
}

// AddRewards issues amount into the delegate's frozen rewards for the cycle.
// Rewards enter the staking weight only at unfreeze.
func (e *Engine) AddRewards(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	if amount == 0 {
		return nil
	}
	checkpoint := e.state.NewCheckpoint()
	if err := e.addRewards(delegate, cycle, amount); err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (e *Engine) addRewards(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	if err := e.ledger.CreditRewards(delegate, cycle, amount); err != nil {
		return err
	}
	return e.supply.issue(amount)
}

// SetDelegate changes a contract's delegation via the manager entry point.
func (e *Engine) SetDelegate(contract kiln.Address, delegate *kiln.Address, current kiln.Cycle) error {
	return e.registry.SetDelegate(contract, delegate, current)
}

// SetDelegateFromScript changes a script-originated contract's delegation,
// bypassing the delegatable flag.
func (e *Engine) SetDelegateFromScript(contract kiln.Address, delegate *kiln.Address, current kiln.Cycle) error {
	return e.registry.SetDelegateFromScript(contract, delegate, current)
}

// ApplyBlock applies the economics of one baked block: the baker's security
// deposit and reward freeze for the block's cycle, collected fees accrue, and
// a commitment-level block must carry exactly one seed-nonce commitment.
func (e *Engine) ApplyBlock(baker kiln.Address, level uint32, commitment *kiln.Bytes32, fees kiln.Tez) error {
	if kiln.IsCommitmentLevel(level) != (commitment != nil) {
		return &InvalidCommitmentError{Level: level}
	}
	cycle := kiln.CycleOf(level)

	checkpoint := e.state.NewCheckpoint()
	if err := e.applyBlock(baker, level, cycle, commitment, fees); err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (e *Engine) applyBlock(baker kiln.Address, level uint32, cycle kiln.Cycle, commitment *kiln.Bytes32, fees kiln.Tez) error {
	balance, err := e.state.GetBalance(baker)
	if err != nil {
		return err
	}
	if balance < kiln.BlockSecurityDeposit {
		return &BalanceTooLowError{Delegate: baker, Balance: balance, Required: kiln.BlockSecurityDeposit}
	}
	if err := e.freezeDeposit(baker, cycle, balance, kiln.BlockSecurityDeposit); err != nil {
		return err
	}
	if err := e.addRewards(baker, cycle, kiln.BlockReward); err != nil {
		return err
	}
	if fees > 0 {
		if err := e.addFees(baker, cycle, fees); err != nil {
			return err
		}
	}
	if commitment != nil {
		if err := e.nonces.RecordCommitment(level, baker, *commitment); err != nil {
			return err
		}
	}
	return e.registry.Renew(baker, cycle)
}

// RevealNonce validates a seed-nonce revelation included by revealer in a
// block of the current cycle. A valid reveal pays the revelation tip into the
// revealer's frozen rewards.
func (e *Engine) RevealNonce(revealer kiln.Address, level uint32, preimage []byte, current kiln.Cycle) error {
	checkpoint := e.state.NewCheckpoint()

	c, err := e.nonces.Reveal(level, preimage, current)
	if err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}
	if err := e.addRewards(revealer, current, kiln.SeedNonceRevelationTip); err != nil {
		e.state.RevertTo(checkpoint)
		return err
	}

	logger.Debug("seed nonce revealed",
		"level", c.Level, "committer", c.Committer, "revealer", revealer)
	return nil
}

// Punish forfeits the whole frozen triple of (delegate, cycle). The amounts
// are burned out of supply. Used for denunciations.
func (e *Engine) Punish(delegate kiln.Address, cycle kiln.Cycle) (*frozen.Balance, error) {
	checkpoint := e.state.NewCheckpoint()

	balance, err := e.punish(delegate, cycle)
	if err != nil {
		e.state.RevertTo(checkpoint)
		return nil, err
	}
	return balance, nil
}

func (e *Engine) punish(delegate kiln.Address, cycle kiln.Cycle) (*frozen.Balance, error) {
	balance, err := e.ledger.Punish(delegate, cycle, e.registry)
	if err != nil {
		return nil, err
	}
	total, err := balance.Total()
	if err != nil {
		return nil, err
	}
	if total > 0 {
		if err := e.supply.burn(total); err != nil {
			return nil, err
		}
		logger.Info("punished delegate", "delegate", delegate, "cycle", cycle, "forfeited", total)
	}
	return balance, nil
}
