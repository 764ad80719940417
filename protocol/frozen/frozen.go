// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package frozen implements the frozen balance ledger. Security deposits,
// collected fees and earned rewards are held per (delegate, cycle) until the
// cycle matures, then either returned to the spendable balance or forfeited.
package frozen

import (
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/sstore"
	"github.com/kiln-chain/kiln/state"
)

var (
	depositsSlot = sstore.Slot("deposits")
	feesSlot     = sstore.Slot("fees")
	rewardsSlot  = sstore.Slot("rewards")

	depositCyclesSlot = sstore.Slot("deposits.cycles")
	feeCyclesSlot     = sstore.Slot("fees.cycles")
	rewardCyclesSlot  = sstore.Slot("rewards.cycles")
)

// RollKeeper adjusts a delegate's staking weight. It is implemented by the
// delegation registry.
type RollKeeper interface {
	AddStake(delegate kiln.Address, amount kiln.Tez) error
	RemoveStake(delegate kiln.Address, amount kiln.Tez) error
}

// Balance is the frozen triple of a delegate for one cycle.
type Balance struct {
	Deposit kiln.Tez
	Fees    kiln.Tez
	Rewards kiln.Tez
}

// IsZero returns true if all three components are zero.
func (b *Balance) IsZero() bool {
	return b.Deposit == 0 && b.Fees == 0 && b.Rewards == 0
}

// Total returns the checked sum of the three components.
func (b *Balance) Total() (kiln.Tez, error) {
	sum, err := b.Deposit.Add(b.Fees)
	if err != nil {
		return 0, err
	}
	return sum.Add(b.Rewards)
}

// CycleBalance pairs a cycle with its frozen balance.
type CycleBalance struct {
	Cycle   kiln.Cycle
	Balance Balance
}

type balanceKey struct {
	delegate kiln.Address
	cycle    kiln.Cycle
}

func (k balanceKey) Bytes() []byte {
	return append(k.delegate.Bytes(), k.cycle.Bytes()...)
}

// Ledger provides access to the frozen balances of all delegates.
type Ledger struct {
	addr  kiln.Address
	state *state.State

	deposits *sstore.Mapping[balanceKey, kiln.Tez]
	fees     *sstore.Mapping[balanceKey, kiln.Tez]
	rewards  *sstore.Mapping[balanceKey, kiln.Tez]
	ctx      *sstore.Context
}

// New create a new instance.
func New(addr kiln.Address, state *state.State) *Ledger {
	ctx := sstore.NewContext(addr, state)
	return &Ledger{
		addr:     addr,
		state:    state,
		deposits: sstore.NewMapping[balanceKey, kiln.Tez](ctx, depositsSlot),
		fees:     sstore.NewMapping[balanceKey, kiln.Tez](ctx, feesSlot),
		rewards:  sstore.NewMapping[balanceKey, kiln.Tez](ctx, rewardsSlot),
		ctx:      ctx,
	}
}

// cycles returns the per-delegate cycle index of one balance kind.
func (l *Ledger) cycles(kindSlot kiln.Bytes32, delegate kiln.Address) *sstore.CycleList {
	return sstore.NewCycleList(l.ctx, kiln.Blake2b(delegate.Bytes(), kindSlot.Bytes()))
}

// Deposit returns the frozen deposit of the delegate for the cycle, zero if absent.
func (l *Ledger) Deposit(delegate kiln.Address, cycle kiln.Cycle) (kiln.Tez, error) {
	return l.deposits.Get(balanceKey{delegate, cycle})
}

// Fees returns the frozen fees of the delegate for the cycle, zero if absent.
func (l *Ledger) Fees(delegate kiln.Address, cycle kiln.Cycle) (kiln.Tez, error) {
	return l.fees.Get(balanceKey{delegate, cycle})
}

// Rewards returns the frozen rewards of the delegate for the cycle, zero if absent.
func (l *Ledger) Rewards(delegate kiln.Address, cycle kiln.Cycle) (kiln.Tez, error) {
	return l.rewards.Get(balanceKey{delegate, cycle})
}

// Balance returns the frozen triple of the delegate for the cycle.
func (l *Ledger) Balance(delegate kiln.Address, cycle kiln.Cycle) (*Balance, error) {
	deposit, err := l.Deposit(delegate, cycle)
	if err != nil {
		return nil, err
	}
	fees, err := l.Fees(delegate, cycle)
	if err != nil {
		return nil, err
	}
	rewards, err := l.Rewards(delegate, cycle)
	if err != nil {
		return nil, err
	}
	return &Balance{Deposit: deposit, Fees: fees, Rewards: rewards}, nil
}

func (l *Ledger) credit(
	m *sstore.Mapping[balanceKey, kiln.Tez],
	kindSlot kiln.Bytes32,
	delegate kiln.Address,
	cycle kiln.Cycle,
	amount kiln.Tez,
) error {
	key := balanceKey{delegate, cycle}
	current, err := m.Get(key)
	if err != nil {
		return err
	}
	sum, err := current.Add(amount)
	if err != nil {
		return err
	}
	if err := m.Set(key, sum); err != nil {
		return err
	}
	return l.cycles(kindSlot, delegate).Insert(cycle)
}

// CreditDeposit adds amount to the frozen deposit of (delegate, cycle).
func (l *Ledger) CreditDeposit(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	return l.credit(l.deposits, depositCyclesSlot, delegate, cycle, amount)
}

// CreditFees adds amount to the frozen fees of (delegate, cycle).
func (l *Ledger) CreditFees(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	return l.credit(l.fees, feeCyclesSlot, delegate, cycle, amount)
}

// CreditRewards adds amount to the frozen rewards of (delegate, cycle).
func (l *Ledger) CreditRewards(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) error {
	return l.credit(l.rewards, rewardCyclesSlot, delegate, cycle, amount)
}

func (l *Ledger) burn(
	m *sstore.Mapping[balanceKey, kiln.Tez],
	kindSlot kiln.Bytes32,
	delegate kiln.Address,
	cycle kiln.Cycle,
	amount kiln.Tez,
) (kiln.Tez, error) {
	key := balanceKey{delegate, cycle}
	current, err := m.Get(key)
	if err != nil {
		return 0, err
	}
	// the penalty cannot exceed what is actually frozen
	if amount > current {
		amount = current
	}
	if amount == 0 {
		return 0, nil
	}
	remaining := current - amount
	if remaining == 0 {
		if err := m.Delete(key); err != nil {
			return 0, err
		}
		if err := l.cycles(kindSlot, delegate).Remove(cycle); err != nil {
			return 0, err
		}
		return amount, nil
	}
	if err := m.Set(key, remaining); err != nil {
		return 0, err
	}
	return amount, nil
}

// BurnFees removes up to amount from the frozen fees of (delegate, cycle),
// clamped to the available amount. It returns the amount actually burned.
func (l *Ledger) BurnFees(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) (kiln.Tez, error) {
	return l.burn(l.fees, feeCyclesSlot, delegate, cycle, amount)
}

// BurnRewards removes up to amount from the frozen rewards of (delegate, cycle),
// clamped to the available amount. It returns the amount actually burned.
func (l *Ledger) BurnRewards(delegate kiln.Address, cycle kiln.Cycle, amount kiln.Tez) (kiln.Tez, error) {
	return l.burn(l.rewards, rewardCyclesSlot, delegate, cycle, amount)
}

func (l *Ledger) remove(delegate kiln.Address, cycle kiln.Cycle) error {
	key := balanceKey{delegate, cycle}
	if err := l.deposits.Delete(key); err != nil {
		return err
	}
	if err := l.fees.Delete(key); err != nil {
		return err
	}
	if err := l.rewards.Delete(key); err != nil {
		return err
	}
	if err := l.cycles(depositCyclesSlot, delegate).Remove(cycle); err != nil {
		return err
	}
	if err := l.cycles(feeCyclesSlot, delegate).Remove(cycle); err != nil {
		return err
	}
	return l.cycles(rewardCyclesSlot, delegate).Remove(cycle)
}

// Unfreeze returns the matured triple of (delegate, cycle) to the delegate's
// spendable balance and removes the entries. The rewards portion is added to
// the staking weight; deposit and fees were already weighted while frozen.
// Either the full unfreeze completes or none of it is observable.
func (l *Ledger) Unfreeze(delegate kiln.Address, cycle kiln.Cycle, rolls RollKeeper) (*Balance, error) {
	checkpoint := l.state.NewCheckpoint()

	balance, err := l.unfreeze(delegate, cycle, rolls)
	if err != nil {
		l.state.RevertTo(checkpoint)
		return nil, err
	}
	return balance, nil
}

func (l *Ledger) unfreeze(delegate kiln.Address, cycle kiln.Cycle, rolls RollKeeper) (*Balance, error) {
	balance, err := l.Balance(delegate, cycle)
	if err != nil {
		return nil, err
	}
	total, err := balance.Total()
	if err != nil {
		return nil, err
	}
	if total > 0 {
		spendable, err := l.state.GetBalance(delegate)
		if err != nil {
			return nil, err
		}
		newBalance, err := spendable.Add(total)
		if err != nil {
			return nil, err
		}
		if err := l.state.SetBalance(delegate, newBalance); err != nil {
			return nil, err
		}
	}
	if balance.Rewards > 0 {
		if err := rolls.AddStake(delegate, balance.Rewards); err != nil {
			return nil, err
		}
	}
	if err := l.remove(delegate, cycle); err != nil {
		return nil, err
	}
	return balance, nil
}

// Punish forfeits the frozen triple of (delegate, cycle). Deposit and fees
// leave the staking weight; the returned amounts are burned by the caller,
// not transferred. Either the full punishment completes or none of it is
// observable.
func (l *Ledger) Punish(delegate kiln.Address, cycle kiln.Cycle, rolls RollKeeper) (*Balance, error) {
	checkpoint := l.state.NewCheckpoint()

	balance, err := l.punish(delegate, cycle, rolls)
	if err != nil {
		l.state.RevertTo(checkpoint)
		return nil, err
	}
	return balance, nil
}

func (l *Ledger) punish(delegate kiln.Address, cycle kiln.Cycle, rolls RollKeeper) (*Balance, error) {
	balance, err := l.Balance(delegate, cycle)
	if err != nil {
		return nil, err
	}
	weighted, err := balance.Deposit.Add(balance.Fees)
	if err != nil {
		return nil, err
	}
	if weighted > 0 {
		if err := rolls.RemoveStake(delegate, weighted); err != nil {
			return nil, err
		}
	}
	if err := l.remove(delegate, cycle); err != nil {
		return nil, err
	}
	return balance, nil
}

// BalanceByCycle returns the full frozen snapshot of the delegate, one entry
// per cycle in ascending order. Kinds absent for a cycle default to zero.
func (l *Ledger) BalanceByCycle(delegate kiln.Address) ([]*CycleBalance, error) {
	depositCycles, err := l.cycles(depositCyclesSlot, delegate).All()
	if err != nil {
		return nil, err
	}
	feeCycles, err := l.cycles(feeCyclesSlot, delegate).All()
	if err != nil {
		return nil, err
	}
	rewardCycles, err := l.cycles(rewardCyclesSlot, delegate).All()
	if err != nil {
		return nil, err
	}

	merged := mergeCycles(mergeCycles(depositCycles, feeCycles), rewardCycles)

	snapshot := make([]*CycleBalance, 0, len(merged))
	for _, cycle := range merged {
		balance, err := l.Balance(delegate, cycle)
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, &CycleBalance{Cycle: cycle, Balance: *balance})
	}
	return snapshot, nil
}

// HasFrozenBalance returns true iff any component of (delegate, cycle) is nonzero.
func (l *Ledger) HasFrozenBalance(delegate kiln.Address, cycle kiln.Cycle) (bool, error) {
	balance, err := l.Balance(delegate, cycle)
	if err != nil {
		return false, err
	}
	return !balance.IsZero(), nil
}

// mergeCycles merges two ascending cycle slices, dropping duplicates.
func mergeCycles(a, b []kiln.Cycle) []kiln.Cycle {
	merged := make([]kiln.Cycle, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			merged = append(merged, a[i])
			i++
		case a[i] > b[j]:
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	return append(merged, b[j:]...)
}
