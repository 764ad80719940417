// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package economics

import (
	"math"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/metrics"
	"github.com/kiln-chain/kiln/protocol/delegation"
)

var (
	metricSettlements     = metrics.LazyLoadCounter("settlements_total")
	metricBurned          = metrics.LazyLoadCounter("settlement_burned_total")
	metricUnfrozen        = metrics.LazyLoadCounter("settlement_unfrozen_total")
	metricActiveDelegates = metrics.LazyLoadGauge("active_delegates")
)

// Settlement summarizes the effects of one cycle-end.
type Settlement struct {
	Ending        kiln.Cycle
	BurnedFees    kiln.Tez
	BurnedRewards kiln.Tez
	MissedReveals []kiln.Address
	Unfrozen      kiln.Tez
	Deactivated   []kiln.Address
}

// EndCycle settles the cycle that just ended: delegates with an unrevealed
// nonce from the cycle whose reveal window closed lose their frozen fees and
// rewards of that cycle, the matured cycle's frozen balances are returned,
// and delegates whose grace period lapsed are deactivated. Either the whole
// settlement completes or none of it is observable.
func (e *Engine) EndCycle(ending kiln.Cycle) (*Settlement, error) {
	checkpoint := e.state.NewCheckpoint()

	s, err := e.endCycle(ending)
	if err != nil {
		e.state.RevertTo(checkpoint)
		return nil, err
	}

	metricSettlements().Add(1)
	metricBurned().Add(int64(s.BurnedFees + s.BurnedRewards))
	metricUnfrozen().Add(int64(s.Unfrozen))

	logger.Info("cycle settled",
		"cycle", ending,
		"missedReveals", len(s.MissedReveals),
		"burned", s.BurnedFees+s.BurnedRewards,
		"unfrozen", s.Unfrozen,
		"deactivated", len(s.Deactivated))
	return s, nil
}

func (e *Engine) endCycle(ending kiln.Cycle) (*Settlement, error) {
	s := &Settlement{Ending: ending}

	if ending >= 1 {
		if err := e.punishMissedReveals(ending-1, s); err != nil {
			return nil, err
		}
	}

	// Every registered delegate is revisited exactly once per settlement.
	var delegates []kiln.Address
	if err := e.registry.ForEach(func(d *delegation.Delegate) bool {
		delegates = append(delegates, d.Address)
		return true
	}); err != nil {
		return nil, err
	}

	matured := kiln.Cycle(0)
	hasMatured := ending >= kiln.PreservedCycles
	if hasMatured {
		matured = ending - kiln.PreservedCycles
	}

	active := 0
	for _, d := range delegates {
		if hasMatured {
			balance, err := e.ledger.Unfreeze(d, matured, e.registry)
			if err != nil {
				return nil, err
			}
			total, err := balance.Total()
			if err != nil {
				return nil, err
			}
			if s.Unfrozen, err = s.Unfrozen.Add(total); err != nil {
				return nil, err
			}
		}
		deactivated, err := e.registry.TryDeactivate(d, ending)
		if err != nil {
			return nil, err
		}
		if deactivated {
			s.Deactivated = append(s.Deactivated, d)
		} else {
			isActive, err := e.registry.IsActive(d)
			if err != nil {
				return nil, err
			}
			if isActive {
				active++
			}
		}
	}
	metricActiveDelegates().Set(int64(active))
	return s, nil
}

// punishMissedReveals burns the frozen fees and rewards, never the deposit,
// of every delegate that committed a nonce in the cycle and let its reveal
// window close.
func (e *Engine) punishMissedReveals(revealCycle kiln.Cycle, s *Settlement) error {
	missing, err := e.nonces.MissingNonces(revealCycle)
	if err != nil {
		return err
	}
	for _, c := range missing {
		fees, err := e.ledger.BurnFees(c.Committer, revealCycle, kiln.Tez(math.MaxUint64))
		if err != nil {
			return err
		}
		if fees > 0 {
			// burned fees leave the staking weight with them
			if err := e.registry.RemoveStake(c.Committer, fees); err != nil {
				return err
			}
		}
		rewards, err := e.ledger.BurnRewards(c.Committer, revealCycle, kiln.Tez(math.MaxUint64))
		if err != nil {
			return err
		}
		burned, err := fees.Add(rewards)
		if err != nil {
			return err
		}
		if burned > 0 {
			if err := e.supply.burn(burned); err != nil {
				return err
			}
		}
		if s.BurnedFees, err = s.BurnedFees.Add(fees); err != nil {
			return err
		}
		if s.BurnedRewards, err = s.BurnedRewards.Add(rewards); err != nil {
			return err
		}
		s.MissedReveals = append(s.MissedReveals, c.Committer)

		logger.Warn("unrevealed seed nonce",
			"level", c.Level, "committer", c.Committer, "burned", burned)
	}
	return e.nonces.Discard(revealCycle)
}
