// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package delegation implements the delegation registry: contract→delegate
// links, the per-delegate delegator index, roll-weighted staking balances and
// the delegate activation lifecycle.
package delegation

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/frozen"
	"github.com/kiln-chain/kiln/protocol/sstore"
	"github.com/kiln-chain/kiln/state"
)

var (
	forwardSlot = sstore.Slot("delegate")
	entriesSlot = sstore.Slot("delegates")
	nodesSlot   = sstore.Slot("delegators")

	headKey = sstore.Slot("delegates.head")
	tailKey = sstore.Slot("delegates.tail")

	delegatorsHeadSlot = sstore.Slot("delegators.head")
	delegatorsTailSlot = sstore.Slot("delegators.tail")
)

// Registry provides access to all delegation state.
type Registry struct {
	addr  kiln.Address
	state *state.State

	forward *sstore.Mapping[kiln.Address, kiln.Address]
	entries *sstore.Mapping[kiln.Address, *entry]
	nodes   *sstore.Mapping[linkKey, *node]
}

// New create a new instance.
func New(addr kiln.Address, state *state.State) *Registry {
	ctx := sstore.NewContext(addr, state)
	return &Registry{
		addr:    addr,
		state:   state,
		forward: sstore.NewMapping[kiln.Address, kiln.Address](ctx, forwardSlot),
		entries: sstore.NewMapping[kiln.Address, *entry](ctx, entriesSlot),
		nodes:   sstore.NewMapping[linkKey, *node](ctx, nodesSlot),
	}
}

func (r *Registry) getAddressPtr(key kiln.Bytes32) (addr *kiln.Address, err error) {
	err = r.state.DecodeStorage(r.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &addr)
	})
	return
}

func (r *Registry) setAddressPtr(key kiln.Bytes32, addr *kiln.Address) error {
	return r.state.EncodeStorage(r.addr, key, func() ([]byte, error) {
		if addr == nil {
			return nil, nil
		}
		return rlp.EncodeToBytes(addr)
	})
}

func (r *Registry) delegatorsHeadKey(delegate kiln.Address) kiln.Bytes32 {
	return kiln.Blake2b(delegate.Bytes(), delegatorsHeadSlot.Bytes())
}

func (r *Registry) delegatorsTailKey(delegate kiln.Address) kiln.Bytes32 {
	return kiln.Blake2b(delegate.Bytes(), delegatorsTailSlot.Bytes())
}

// Delegate returns the delegate the contract points to, or nil.
func (r *Registry) Delegate(contract kiln.Address) (*kiln.Address, error) {
	has, err := r.forward.Has(contract)
	if err != nil || !has {
		return nil, err
	}
	d, err := r.forward.Get(contract)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// IsDelegatable reports whether a manager operation may change the contract's
// delegation. Implicit accounts are never delegatable; originated contracts
// carry an explicit flag set at origination.
func (r *Registry) IsDelegatable(contract kiln.Address) (bool, error) {
	return r.state.GetDelegatable(contract)
}

// Registered reports whether the address is a registered delegate.
func (r *Registry) Registered(delegate kiln.Address) (bool, error) {
	return r.entries.Has(delegate)
}

// IsActive reports whether the delegate is registered and active.
func (r *Registry) IsActive(delegate kiln.Address) (bool, error) {
	e, err := r.entries.Get(delegate)
	if err != nil {
		return false, err
	}
	return e.Active, nil
}

// GracePeriod returns the cycle at which the delegate becomes deactivatable.
func (r *Registry) GracePeriod(delegate kiln.Address) (kiln.Cycle, error) {
	e, err := r.entries.Get(delegate)
	if err != nil {
		return 0, err
	}
	return kiln.Cycle(e.GracePeriod), nil
}

// SetDelegate changes the delegation of a contract via the manager entry
// point, which enforces the contract's delegatable flag.
func (r *Registry) SetDelegate(contract kiln.Address, delegate *kiln.Address, current kiln.Cycle) error {
	return r.setDelegate(contract, delegate, current, false)
}

// SetDelegateFromScript changes the delegation of a script-originated
// contract. Script originations are always delegation-eligible, so the
// delegatable flag is not consulted. This asymmetry with SetDelegate is
// protocol policy.
func (r *Registry) SetDelegateFromScript(contract kiln.Address, delegate *kiln.Address, current kiln.Cycle) error {
	return r.setDelegate(contract, delegate, current, true)
}

func (r *Registry) setDelegate(contract kiln.Address, delegate *kiln.Address, current kiln.Cycle, fromScript bool) error {
	if delegate == nil {
		return r.clearDelegate(contract, fromScript)
	}
	d := *delegate
	self := contract == d

	// the target must have a revealed public key
	pub, err := r.state.GetPublicKey(d)
	if err != nil {
		return err
	}
	if len(pub) == 0 {
		return &UnregisteredDelegateError{Delegate: d}
	}
	registered, err := r.Registered(d)
	if err != nil {
		return err
	}
	if !registered && !self {
		return &UnregisteredDelegateError{Delegate: d}
	}
	if !fromScript && !self {
		delegatable, err := r.IsDelegatable(contract)
		if err != nil {
			return err
		}
		if !delegatable {
			return &UndelegatableContractError{Contract: contract}
		}
	}

	cur, err := r.Delegate(contract)
	if err != nil {
		return err
	}
	if cur != nil && *cur == d {
		if !self {
			return &UnchangedDelegateError{Contract: contract, Delegate: d}
		}
		active, err := r.IsActive(d)
		if err != nil {
			return err
		}
		if active {
			return &AlreadyActiveError{Delegate: d}
		}
		return r.reactivate(d, current)
	}

	balance, err := r.state.GetBalance(contract)
	if err != nil {
		return err
	}
	if self && balance == 0 {
		return &EmptyDelegateAccountError{Delegate: d}
	}

	checkpoint := r.state.NewCheckpoint()

	if err := r.relink(contract, cur, d, balance, self, registered, current); err != nil {
		r.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

func (r *Registry) relink(
	contract kiln.Address,
	cur *kiln.Address,
	d kiln.Address,
	balance kiln.Tez,
	self, registered bool,
	current kiln.Cycle,
) error {
	if cur != nil {
		if err := r.unlink(*cur, contract, balance); err != nil {
			return err
		}
	}
	if err := r.forward.Set(contract, d); err != nil {
		return err
	}
	if self && !registered {
		if err := r.register(d, current); err != nil {
			return err
		}
	}
	return r.link(d, contract, balance)
}

func (r *Registry) clearDelegate(contract kiln.Address, fromScript bool) error {
	registered, err := r.Registered(contract)
	if err != nil {
		return err
	}
	if registered {
		return &NoDeletionError{Delegate: contract}
	}
	if !fromScript {
		delegatable, err := r.IsDelegatable(contract)
		if err != nil {
			return err
		}
		if !delegatable {
			return &UndelegatableContractError{Contract: contract}
		}
	}
	cur, err := r.Delegate(contract)
	if err != nil {
		return err
	}
	if cur == nil {
		return nil
	}
	balance, err := r.state.GetBalance(contract)
	if err != nil {
		return err
	}

	checkpoint := r.state.NewCheckpoint()

	if err := r.unlink(*cur, contract, balance); err == nil {
		err = r.forward.Delete(contract)
	} else {
		r.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// register creates the delegate entry, appends it to the delegate list and
// marks it active until the grace period lapses.
func (r *Registry) register(delegate kiln.Address, current kiln.Cycle) error {
	e := &entry{
		Active:      true,
		GracePeriod: uint32(current + kiln.DelegateGracePeriod),
	}

	tailPtr, err := r.getAddressPtr(tailKey)
	if err != nil {
		return err
	}
	e.Prev = tailPtr

	if err := r.setAddressPtr(tailKey, &delegate); err != nil {
		return err
	}
	if tailPtr == nil {
		if err := r.setAddressPtr(headKey, &delegate); err != nil {
			return err
		}
	} else {
		tailEntry, err := r.entries.Get(*tailPtr)
		if err != nil {
			return err
		}
		tailEntry.Next = &delegate
		if err := r.entries.Set(*tailPtr, tailEntry); err != nil {
			return err
		}
	}
	return r.entries.Set(delegate, e)
}

func (r *Registry) reactivate(delegate kiln.Address, current kiln.Cycle) error {
	e, err := r.entries.Get(delegate)
	if err != nil {
		return err
	}
	e.Active = true
	e.GracePeriod = uint32(current + kiln.DelegateGracePeriod)
	return r.entries.Set(delegate, e)
}

// Renew extends the delegate's grace period on observed activity.
func (r *Registry) Renew(delegate kiln.Address, current kiln.Cycle) error {
	registered, err := r.Registered(delegate)
	if err != nil || !registered {
		return err
	}
	e, err := r.entries.Get(delegate)
	if err != nil {
		return err
	}
	grace := uint32(current + kiln.DelegateGracePeriod)
	if grace > e.GracePeriod {
		e.GracePeriod = grace
	}
	return r.entries.Set(delegate, e)
}

// TryDeactivate transitions the delegate to inactive if its grace period has
// lapsed at the ending cycle. It returns whether the transition happened.
func (r *Registry) TryDeactivate(delegate kiln.Address, ending kiln.Cycle) (bool, error) {
	e, err := r.entries.Get(delegate)
	if err != nil {
		return false, err
	}
	if !e.Active || kiln.Cycle(e.GracePeriod) > ending {
		return false, nil
	}
	e.Active = false
	if err := r.entries.Set(delegate, e); err != nil {
		return false, err
	}
	return true, nil
}

// link adds the contract to the delegate's delegator list and moves its
// balance into the staking weight.
func (r *Registry) link(delegate, contract kiln.Address, balance kiln.Tez) error {
	if balance > 0 {
		if err := r.AddStake(delegate, balance); err != nil {
			return err
		}
	}

	n := &node{}
	tailPtr, err := r.getAddressPtr(r.delegatorsTailKey(delegate))
	if err != nil {
		return err
	}
	n.Prev = tailPtr

	if err := r.setAddressPtr(r.delegatorsTailKey(delegate), &contract); err != nil {
		return err
	}
	if tailPtr == nil {
		if err := r.setAddressPtr(r.delegatorsHeadKey(delegate), &contract); err != nil {
			return err
		}
	} else {
		tailNode, err := r.nodes.Get(linkKey{delegate, *tailPtr})
		if err != nil {
			return err
		}
		tailNode.Next = &contract
		if err := r.nodes.Set(linkKey{delegate, *tailPtr}, tailNode); err != nil {
			return err
		}
	}
	return r.nodes.Set(linkKey{delegate, contract}, n)
}

// unlink removes the contract from the delegate's delegator list and moves
// its balance out of the staking weight.
func (r *Registry) unlink(delegate, contract kiln.Address, balance kiln.Tez) error {
	if balance > 0 {
		if err := r.RemoveStake(delegate, balance); err != nil {
			return err
		}
	}

	n, err := r.nodes.Get(linkKey{delegate, contract})
	if err != nil {
		return err
	}

	if n.Prev == nil {
		if err := r.setAddressPtr(r.delegatorsHeadKey(delegate), n.Next); err != nil {
			return err
		}
	} else {
		prevNode, err := r.nodes.Get(linkKey{delegate, *n.Prev})
		if err != nil {
			return err
		}
		prevNode.Next = n.Next
		if err := r.nodes.Set(linkKey{delegate, *n.Prev}, prevNode); err != nil {
			return err
		}
	}
	if n.Next == nil {
		if err := r.setAddressPtr(r.delegatorsTailKey(delegate), n.Prev); err != nil {
			return err
		}
	} else {
		nextNode, err := r.nodes.Get(linkKey{delegate, *n.Next})
		if err != nil {
			return err
		}
		nextNode.Prev = n.Prev
		if err := r.nodes.Set(linkKey{delegate, *n.Next}, nextNode); err != nil {
			return err
		}
	}
	return r.nodes.Delete(linkKey{delegate, contract})
}

// DelegatedContracts returns all contracts delegated to the delegate, in
// link order.
func (r *Registry) DelegatedContracts(delegate kiln.Address) ([]kiln.Address, error) {
	ptr, err := r.getAddressPtr(r.delegatorsHeadKey(delegate))
	if err != nil {
		return nil, err
	}
	var contracts []kiln.Address
	for ptr != nil {
		contracts = append(contracts, *ptr)
		n, err := r.nodes.Get(linkKey{delegate, *ptr})
		if err != nil {
			return nil, err
		}
		ptr = n.Next
	}
	return contracts, nil
}

// AddStake adds amount to the delegate's staking weight, converting whole
// rolls as the change accumulates. The delegate must be registered.
func (r *Registry) AddStake(delegate kiln.Address, amount kiln.Tez) error {
	has, err := r.entries.Has(delegate)
	if err != nil {
		return err
	}
	if !has {
		return &UnregisteredDelegateError{Delegate: delegate}
	}
	e, err := r.entries.Get(delegate)
	if err != nil {
		return err
	}
	change, err := kiln.Tez(e.Change).Add(amount)
	if err != nil {
		return err
	}
	e.Rolls += uint64(change / kiln.TokensPerRoll)
	e.Change = uint64(change % kiln.TokensPerRoll)
	return r.entries.Set(delegate, e)
}

// RemoveStake removes amount from the delegate's staking weight, breaking
// rolls as needed. Removing more than the staking balance is an underflow
// failure. The delegate must be registered.
func (r *Registry) RemoveStake(delegate kiln.Address, amount kiln.Tez) error {
	has, err := r.entries.Has(delegate)
	if err != nil {
		return err
	}
	if !has {
		return &UnregisteredDelegateError{Delegate: delegate}
	}
	e, err := r.entries.Get(delegate)
	if err != nil {
		return err
	}
	staking := kiln.Tez(e.Rolls)*kiln.TokensPerRoll + kiln.Tez(e.Change)
	remaining, err := staking.Sub(amount)
	if err != nil {
		return err
	}
	e.Rolls = uint64(remaining / kiln.TokensPerRoll)
	e.Change = uint64(remaining % kiln.TokensPerRoll)
	return r.entries.Set(delegate, e)
}

// StakingBalance returns the delegate's roll-weighted stake.
func (r *Registry) StakingBalance(delegate kiln.Address) (kiln.Tez, error) {
	e, err := r.entries.Get(delegate)
	if err != nil {
		return 0, err
	}
	return kiln.Tez(e.Rolls)*kiln.TokensPerRoll + kiln.Tez(e.Change), nil
}

// Rolls returns the number of whole rolls owned by the delegate.
func (r *Registry) Rolls(delegate kiln.Address) (uint64, error) {
	e, err := r.entries.Get(delegate)
	if err != nil {
		return 0, err
	}
	return e.Rolls, nil
}

// DelegatedBalance returns the stake contributed by other contracts only:
// staking balance minus the delegate's own spendable balance and its own
// frozen deposits and fees. Own holdings can exceed the staking weight,
// since credits to the delegate enter the weight only on stake events, so
// the difference clamps at zero.
func (r *Registry) DelegatedBalance(delegate kiln.Address, ledger *frozen.Ledger) (kiln.Tez, error) {
	staking, err := r.StakingBalance(delegate)
	if err != nil {
		return 0, err
	}
	own, err := r.state.GetBalance(delegate)
	if err != nil {
		return 0, err
	}
	snapshot, err := ledger.BalanceByCycle(delegate)
	if err != nil {
		return 0, err
	}
	for _, cb := range snapshot {
		if own, err = own.Add(cb.Balance.Deposit); err != nil {
			return 0, err
		}
		if own, err = own.Add(cb.Balance.Fees); err != nil {
			return 0, err
		}
	}
	if own >= staking {
		return 0, nil
	}
	return staking - own, nil
}

// ForEach walks the registered delegate list in registration order until cb
// returns false.
func (r *Registry) ForEach(cb func(*Delegate) bool) error {
	ptr, err := r.getAddressPtr(headKey)
	if err != nil {
		return err
	}
	for ptr != nil {
		e, err := r.entries.Get(*ptr)
		if err != nil {
			return err
		}
		if !cb(&Delegate{
			Address:     *ptr,
			Active:      e.Active,
			GracePeriod: kiln.Cycle(e.GracePeriod),
			Rolls:       e.Rolls,
			Change:      kiln.Tez(e.Change),
		}) {
			return nil
		}
		ptr = e.Next
	}
	return nil
}
