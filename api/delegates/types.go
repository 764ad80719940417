// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegates

import (
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/frozen"
)

// Summary is the list form of a registered delegate.
type Summary struct {
	Address        kiln.Address `json:"address"`
	Active         bool         `json:"active"`
	GracePeriod    kiln.Cycle   `json:"gracePeriod"`
	Rolls          uint64       `json:"rolls"`
	StakingBalance kiln.Tez     `json:"stakingBalance"`
}

// Detail adds the derived balances of a single delegate.
type Detail struct {
	Summary
	DelegatedBalance   kiln.Tez       `json:"delegatedBalance"`
	DelegatedContracts []kiln.Address `json:"delegatedContracts"`
}

// FrozenBalance is one cycle's frozen holdings.
type FrozenBalance struct {
	Cycle   kiln.Cycle `json:"cycle"`
	Deposit kiln.Tez   `json:"deposit"`
	Fees    kiln.Tez   `json:"fees"`
	Rewards kiln.Tez   `json:"rewards"`
}

func convertFrozen(entries []*frozen.CycleBalance) []*FrozenBalance {
	out := make([]*FrozenBalance, 0, len(entries))
	for _, e := range entries {
		out = append(out, &FrozenBalance{
			Cycle:   e.Cycle,
			Deposit: e.Balance.Deposit,
			Fees:    e.Balance.Fees,
			Rewards: e.Balance.Rewards,
		})
	}
	return out
}
