// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-chain/kiln/errs"
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/lvldb"
	"github.com/kiln-chain/kiln/state"
)

var registryAddr = kiln.BytesToAddress([]byte("delegation-registry"))

func newTestRegistry(t *testing.T) (*Registry, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	return New(registryAddr, st), st
}

// newDelegate funds an implicit account, reveals its key and self-delegates.
func newDelegate(t *testing.T, r *Registry, st *state.State, name string, balance kiln.Tez, current kiln.Cycle) kiln.Address {
	d := kiln.BytesToAddress([]byte(name))
	require.NoError(t, st.SetBalance(d, balance))
	require.NoError(t, st.SetPublicKey(d, []byte(name+"-pub")))
	require.NoError(t, r.SetDelegate(d, &d, current))
	return d
}

// newOriginated creates a funded originated contract.
func newOriginated(t *testing.T, st *state.State, name string, balance kiln.Tez, delegatable bool) kiln.Address {
	c := kiln.BytesToAddress([]byte(name))
	require.NoError(t, st.SetBalance(c, balance))
	require.NoError(t, st.SetContractKind(c, state.KindOriginated))
	require.NoError(t, st.SetDelegatable(c, delegatable))
	return c
}

func TestSelfDelegationRegisters(t *testing.T) {
	r, st := newTestRegistry(t)
	d := newDelegate(t, r, st, "baker", 10_000, 3)

	registered, err := r.Registered(d)
	require.NoError(t, err)
	assert.True(t, registered)

	active, err := r.IsActive(d)
	require.NoError(t, err)
	assert.True(t, active)

	grace, err := r.GracePeriod(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.Cycle(3)+kiln.DelegateGracePeriod, grace)

	cur, err := r.Delegate(d)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, d, *cur)

	staking, err := r.StakingBalance(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(10_000), staking)
}

func TestSelfDelegationUnrevealedKey(t *testing.T) {
	r, st := newTestRegistry(t)
	d := kiln.BytesToAddress([]byte("no-key"))
	require.NoError(t, st.SetBalance(d, 100))

	err := r.SetDelegate(d, &d, 0)
	var unregistered *UnregisteredDelegateError
	require.ErrorAs(t, err, &unregistered)
	assert.Equal(t, errs.Permanent, unregistered.Class())
}

func TestSelfDelegationEmptyBalance(t *testing.T) {
	r, st := newTestRegistry(t)
	d := kiln.BytesToAddress([]byte("broke"))
	require.NoError(t, st.SetPublicKey(d, []byte("pub")))

	err := r.SetDelegate(d, &d, 0)
	var empty *EmptyDelegateAccountError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, errs.Temporary, empty.Class())
}

func TestReSelfDelegation(t *testing.T) {
	r, st := newTestRegistry(t)
	d := newDelegate(t, r, st, "baker", 10_000, 0)

	// active delegate cannot re-register
	err := r.SetDelegate(d, &d, 1)
	var already *AlreadyActiveError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, errs.Temporary, already.Class())

	// once inactive, re-self-delegation reactivates
	deactivated, err := r.TryDeactivate(d, kiln.DelegateGracePeriod)
	require.NoError(t, err)
	assert.True(t, deactivated)

	require.NoError(t, r.SetDelegate(d, &d, 20))

	active, err := r.IsActive(d)
	require.NoError(t, err)
	assert.True(t, active)

	grace, err := r.GracePeriod(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.Cycle(20)+kiln.DelegateGracePeriod, grace)
}

func TestDelegateOriginated(t *testing.T) {
	r, st := newTestRegistry(t)
	d := newDelegate(t, r, st, "baker", 10_000, 0)
	c := newOriginated(t, st, "vault", 5_000, true)

	require.NoError(t, r.SetDelegate(c, &d, 0))

	staking, err := r.StakingBalance(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(15_000), staking)

	contracts, err := r.DelegatedContracts(d)
	require.NoError(t, err)
	assert.Equal(t, []kiln.Address{d, c}, contracts)

	// repeating the same delegation is rejected
	err = r.SetDelegate(c, &d, 0)
	var unchanged *UnchangedDelegateError
	require.ErrorAs(t, err, &unchanged)
	assert.Equal(t, errs.Temporary, unchanged.Class())
}

func TestDelegateToUnregistered(t *testing.T) {
	r, st := newTestRegistry(t)
	c := newOriginated(t, st, "vault", 5_000, true)

	// revealed key but never self-delegated
	target := kiln.BytesToAddress([]byte("not-a-baker"))
	require.NoError(t, st.SetPublicKey(target, []byte("pub")))
	require.NoError(t, st.SetBalance(target, 100))

	err := r.SetDelegate(c, &target, 0)
	var unregistered *UnregisteredDelegateError
	require.ErrorAs(t, err, &unregistered)
}

func TestUndelegatableContract(t *testing.T) {
	r, st := newTestRegistry(t)
	d := newDelegate(t, r, st, "baker", 10_000, 0)
	c := newOriginated(t, st, "locked", 5_000, false)

	err := r.SetDelegate(c, &d, 0)
	var undelegatable *UndelegatableContractError
	require.ErrorAs(t, err, &undelegatable)
	assert.Equal(t, errs.Permanent, undelegatable.Class())

	// the script entry point bypasses the delegatable flag
	require.NoError(t, r.SetDelegateFromScript(c, &d, 0))

	staking, err := r.StakingBalance(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(15_000), staking)
}

func TestClearDelegate(t *testing.T) {
	r, st := newTestRegistry(t)
	d := newDelegate(t, r, st, "baker", 10_000, 0)

	// a registered delegate cannot clear itself
	err := r.SetDelegate(d, nil, 0)
	var noDeletion *NoDeletionError
	require.ErrorAs(t, err, &noDeletion)
	assert.Equal(t, errs.Permanent, noDeletion.Class())

	// delegatable originated contract can clear
	c := newOriginated(t, st, "vault", 5_000, true)
	require.NoError(t, r.SetDelegate(c, &d, 0))
	require.NoError(t, r.SetDelegate(c, nil, 0))

	cur, err := r.Delegate(c)
	require.NoError(t, err)
	assert.Nil(t, cur)

	staking, err := r.StakingBalance(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(10_000), staking)

	// non-delegatable contract clears only via the script entry point
	locked := newOriginated(t, st, "locked", 2_000, false)
	require.NoError(t, r.SetDelegateFromScript(locked, &d, 0))

	err = r.SetDelegate(locked, nil, 0)
	var undelegatable *UndelegatableContractError
	require.ErrorAs(t, err, &undelegatable)

	require.NoError(t, r.SetDelegateFromScript(locked, nil, 0))
}

func TestRedelegationMovesStake(t *testing.T) {
	r, st := newTestRegistry(t)
	d1 := newDelegate(t, r, st, "baker-1", 10_000, 0)
	d2 := newDelegate(t, r, st, "baker-2", 20_000, 0)

	c1 := newOriginated(t, st, "vault-1", 1_000, true)
	c2 := newOriginated(t, st, "vault-2", 2_000, true)
	c3 := newOriginated(t, st, "vault-3", 3_000, true)
	require.NoError(t, r.SetDelegate(c1, &d1, 0))
	require.NoError(t, r.SetDelegate(c2, &d1, 0))
	require.NoError(t, r.SetDelegate(c3, &d1, 0))

	// unlink a middle node
	require.NoError(t, r.SetDelegate(c2, &d2, 0))

	staking, err := r.StakingBalance(d1)
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(14_000), staking)

	staking, err = r.StakingBalance(d2)
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(22_000), staking)

	contracts, err := r.DelegatedContracts(d1)
	require.NoError(t, err)
	assert.Equal(t, []kiln.Address{d1, c1, c3}, contracts)

	contracts, err = r.DelegatedContracts(d2)
	require.NoError(t, err)
	assert.Equal(t, []kiln.Address{d2, c2}, contracts)
}

func TestRollAccounting(t *testing.T) {
	r, st := newTestRegistry(t)
	d := newDelegate(t, r, st, "baker", 10_000, 0)

	half := kiln.TokensPerRoll / 2
	require.NoError(t, r.AddStake(d, 2*kiln.TokensPerRoll+half))

	rolls, err := r.Rolls(d)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rolls)

	staking, err := r.StakingBalance(d)
	require.NoError(t, err)
	assert.Equal(t, 2*kiln.TokensPerRoll+half+10_000, staking)

	// removing breaks a roll back into change
	require.NoError(t, r.RemoveStake(d, kiln.TokensPerRoll))
	rolls, err = r.Rolls(d)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rolls)

	staking, err = r.StakingBalance(d)
	require.NoError(t, err)
	assert.Equal(t, kiln.TokensPerRoll+half+10_000, staking)

	// removing more than the staking balance underflows
	err = r.RemoveStake(d, 10*kiln.TokensPerRoll)
	var underflow *kiln.SubtractionUnderflowError
	require.ErrorAs(t, err, &underflow)
}

func TestStakeRequiresRegistration(t *testing.T) {
	r, _ := newTestRegistry(t)
	ghost := kiln.BytesToAddress([]byte("ghost"))

	err := r.AddStake(ghost, kiln.TokensPerRoll)
	assert.True(t, errs.IsID(err, "contract.manager.unregistered_delegate"))

	err = r.RemoveStake(ghost, kiln.TokensPerRoll)
	assert.True(t, errs.IsID(err, "contract.manager.unregistered_delegate"))

	// the failed calls must not materialize a registry entry
	registered, err := r.Registered(ghost)
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestForEach(t *testing.T) {
	r, st := newTestRegistry(t)
	d1 := newDelegate(t, r, st, "baker-1", 1_000, 0)
	d2 := newDelegate(t, r, st, "baker-2", 2_000, 0)
	d3 := newDelegate(t, r, st, "baker-3", 3_000, 0)

	var seen []kiln.Address
	require.NoError(t, r.ForEach(func(d *Delegate) bool {
		seen = append(seen, d.Address)
		assert.True(t, d.Active)
		return true
	}))
	assert.Equal(t, []kiln.Address{d1, d2, d3}, seen)

	// early stop
	seen = seen[:0]
	require.NoError(t, r.ForEach(func(d *Delegate) bool {
		seen = append(seen, d.Address)
		return false
	}))
	assert.Equal(t, []kiln.Address{d1}, seen)
}
