// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package economics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-chain/kiln/errs"
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/lvldb"
	"github.com/kiln-chain/kiln/protocol/seed"
	"github.com/kiln-chain/kiln/state"
)

func newTestEngine(t *testing.T) (*Engine, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	return New(st), st
}

// newBaker mints a funded, registered delegate.
func newBaker(t *testing.T, e *Engine, st *state.State, name string, balance kiln.Tez) kiln.Address {
	d := kiln.BytesToAddress([]byte(name))
	require.NoError(t, e.Mint(d, balance))
	require.NoError(t, st.SetPublicKey(d, []byte(name+"-pub")))
	require.NoError(t, e.SetDelegate(d, &d, 0))
	return d
}

// held sums the spendable and frozen balances of the accounts.
func held(t *testing.T, e *Engine, st *state.State, addrs ...kiln.Address) kiln.Tez {
	var total kiln.Tez
	for _, addr := range addrs {
		spendable, err := st.GetBalance(addr)
		require.NoError(t, err)
		total += spendable

		snapshot, err := e.Ledger().BalanceByCycle(addr)
		require.NoError(t, err)
		for _, cb := range snapshot {
			sum, err := cb.Balance.Total()
			require.NoError(t, err)
			total += sum
		}
	}
	return total
}

// requireConservation checks issued-minus-burned equals what the accounts hold.
func requireConservation(t *testing.T, e *Engine, st *state.State, addrs ...kiln.Address) {
	issued, err := e.TotalIssued()
	require.NoError(t, err)
	burned, err := e.TotalBurned()
	require.NoError(t, err)
	assert.Equal(t, issued-burned, held(t, e, st, addrs...))
}

func TestFreezeDeposit(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", 1000*kiln.OneToken)

	require.NoError(t, e.FreezeDeposit(baker, 0, kiln.BlockSecurityDeposit))

	spendable, err := st.GetBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, 1000*kiln.OneToken-kiln.BlockSecurityDeposit, spendable)

	deposit, err := e.Ledger().Deposit(baker, 0)
	require.NoError(t, err)
	assert.Equal(t, kiln.BlockSecurityDeposit, deposit)

	// frozen deposits keep counting toward the staking weight
	staking, err := e.Registry().StakingBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, 1000*kiln.OneToken, staking)

	requireConservation(t, e, st, baker)
}

func TestFreezeDepositBalanceTooLow(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", kiln.OneToken)

	err := e.FreezeDeposit(baker, 0, kiln.BlockSecurityDeposit)
	var tooLow *BalanceTooLowError
	require.ErrorAs(t, err, &tooLow)
	assert.Equal(t, errs.Temporary, tooLow.Class())
	assert.True(t, errs.IsID(err, "contract.balance_too_low_for_deposit"))

	// nothing moved
	spendable, err := st.GetBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, kiln.OneToken, spendable)
}

func TestDelegatedBalanceClampsAtOwnHoldings(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", 1000*kiln.OneToken)

	// credits after registration stay out of the staking weight until a
	// stake event, so own holdings can exceed it
	require.NoError(t, e.Mint(baker, 500*kiln.OneToken))

	delegated, err := e.Registry().DelegatedBalance(baker, e.Ledger())
	require.NoError(t, err)
	assert.Equal(t, kiln.Tez(0), delegated)
}

func TestApplyBlockCommitmentRequired(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", 1000*kiln.OneToken)
	hash := seed.NonceHash([]byte("nonce"))

	// a commitment-level block must carry a commitment
	err := e.ApplyBlock(baker, kiln.BlocksPerCommitment, nil, 0)
	assert.True(t, errs.IsID(err, "block.invalid_commitment"))

	// and a non-commitment-level block must not
	err = e.ApplyBlock(baker, kiln.BlocksPerCommitment+1, &hash, 0)
	assert.True(t, errs.IsID(err, "block.invalid_commitment"))

	require.NoError(t, e.ApplyBlock(baker, kiln.BlocksPerCommitment, &hash, 0))

	c, err := e.Nonces().Get(kiln.BlocksPerCommitment)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, baker, c.Committer)
}

func TestCommitRevealHappyPath(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", 1000*kiln.OneToken)
	preimage := []byte("the-nonce")
	hash := seed.NonceHash(preimage)
	level := kiln.BlocksPerCommitment // cycle 0

	fees := 3 * kiln.OneToken
	require.NoError(t, e.ApplyBlock(baker, level, &hash, fees))
	requireConservation(t, e, st, baker)

	// revealed during cycle 1 by the same baker
	require.NoError(t, e.RevealNonce(baker, level, preimage, 1))

	// reward balance grew by block reward plus the revelation tip
	rewards0, err := e.Ledger().Rewards(baker, 0)
	require.NoError(t, err)
	assert.Equal(t, kiln.BlockReward, rewards0)
	rewards1, err := e.Ledger().Rewards(baker, 1)
	require.NoError(t, err)
	assert.Equal(t, kiln.SeedNonceRevelationTip, rewards1)
	requireConservation(t, e, st, baker)

	// after preserved-cycles further cycle ends, cycle 0 matures
	for ending := kiln.Cycle(1); ending <= kiln.PreservedCycles; ending++ {
		_, err := e.EndCycle(ending)
		require.NoError(t, err)
	}

	spendable, err := st.GetBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, 1000*kiln.OneToken+kiln.BlockReward+fees, spendable)

	// frozen entries for cycle 0 are gone, lookups default to zero
	has, err := e.Ledger().HasFrozenBalance(baker, 0)
	require.NoError(t, err)
	assert.False(t, has)

	requireConservation(t, e, st, baker)
}

func TestMissedRevealScenario(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", 1000*kiln.OneToken)
	hash := seed.NonceHash([]byte("never-revealed"))
	level := kiln.BlocksPerCommitment // cycle 0

	fees := 3 * kiln.OneToken
	require.NoError(t, e.ApplyBlock(baker, level, &hash, fees))

	// cycle 1 ends without a reveal: fees and rewards of cycle 0 burn,
	// the deposit is untouched
	s, err := e.EndCycle(1)
	require.NoError(t, err)
	assert.Equal(t, fees, s.BurnedFees)
	assert.Equal(t, kiln.BlockReward, s.BurnedRewards)
	assert.Equal(t, []kiln.Address{baker}, s.MissedReveals)

	balance, err := e.Ledger().Balance(baker, 0)
	require.NoError(t, err)
	assert.Equal(t, kiln.BlockSecurityDeposit, balance.Deposit)
	assert.Equal(t, kiln.Tez(0), balance.Fees)
	assert.Equal(t, kiln.Tez(0), balance.Rewards)

	// the burned stake left the staking weight with the fees
	staking, err := e.Registry().StakingBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, 1000*kiln.OneToken, staking)

	// revealing after the sweep is too late
	err = e.RevealNonce(baker, level, []byte("never-revealed"), 2)
	assert.True(t, errs.IsID(err, "nonce.too_late_revelation"))

	requireConservation(t, e, st, baker)

	// maturity still returns the deposit
	for ending := kiln.Cycle(2); ending <= kiln.PreservedCycles; ending++ {
		_, err := e.EndCycle(ending)
		require.NoError(t, err)
	}
	spendable, err := st.GetBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, 1000*kiln.OneToken, spendable)
	requireConservation(t, e, st, baker)
}

func TestPunish(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "baker", 1000*kiln.OneToken)

	require.NoError(t, e.ApplyBlock(baker, kiln.BlocksPerCommitment+1, nil, 2*kiln.OneToken))

	forfeited, err := e.Punish(baker, 0)
	require.NoError(t, err)
	assert.Equal(t, kiln.BlockSecurityDeposit, forfeited.Deposit)
	assert.Equal(t, 2*kiln.OneToken, forfeited.Fees)
	assert.Equal(t, kiln.BlockReward, forfeited.Rewards)

	// deposit and fees left the staking weight
	staking, err := e.Registry().StakingBalance(baker)
	require.NoError(t, err)
	assert.Equal(t, 1000*kiln.OneToken-kiln.BlockSecurityDeposit, staking)

	requireConservation(t, e, st, baker)
}

func TestDeactivationAtSettlement(t *testing.T) {
	e, st := newTestEngine(t)
	baker := newBaker(t, e, st, "idle-baker", 10*kiln.OneToken)

	grace, err := e.Registry().GracePeriod(baker)
	require.NoError(t, err)

	s, err := e.EndCycle(grace - 1)
	require.NoError(t, err)
	assert.Empty(t, s.Deactivated)

	s, err = e.EndCycle(grace)
	require.NoError(t, err)
	assert.Equal(t, []kiln.Address{baker}, s.Deactivated)

	active, err := e.Registry().IsActive(baker)
	require.NoError(t, err)
	assert.False(t, active)
}

// Settlement outcomes per delegate must not depend on registration order.
func TestSettlementOrderIndependence(t *testing.T) {
	run := func(names []string) map[string]kiln.Tez {
		t.Helper()
		e, st := newTestEngine(t)

		bakers := make(map[string]kiln.Address, len(names))
		for _, name := range names {
			bakers[name] = newBaker(t, e, st, name, 1000*kiln.OneToken)
		}
		// alice bakes and misses her reveal; bob bakes a plain block
		aliceHash := seed.NonceHash([]byte("lost"))
		require.NoError(t, e.ApplyBlock(bakers["alice"], kiln.BlocksPerCommitment, &aliceHash, kiln.OneToken))
		require.NoError(t, e.ApplyBlock(bakers["bob"], kiln.BlocksPerCommitment+1, nil, 2*kiln.OneToken))

		for ending := kiln.Cycle(1); ending <= kiln.PreservedCycles; ending++ {
			_, err := e.EndCycle(ending)
			require.NoError(t, err)
		}

		out := make(map[string]kiln.Tez, len(names))
		for name, addr := range bakers {
			spendable, err := st.GetBalance(addr)
			require.NoError(t, err)
			out[name] = spendable
		}
		return out
	}

	assert.Equal(t, run([]string{"alice", "bob"}), run([]string{"bob", "alice"}))
}
