// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/kiln-chain/kiln/kiln"
)

// entry is the stored record of a registered delegate.
type entry struct {
	Rolls       uint64
	Change      uint64
	GracePeriod uint32
	Active      bool
	Prev        *kiln.Address `rlp:"nil"`
	Next        *kiln.Address `rlp:"nil"`
}

// node links one delegated contract into its delegate's delegator list.
type node struct {
	Prev *kiln.Address `rlp:"nil"`
	Next *kiln.Address `rlp:"nil"`
}

// Delegate is the externally visible view of a registered delegate.
type Delegate struct {
	Address     kiln.Address
	Active      bool
	GracePeriod kiln.Cycle
	Rolls       uint64
	Change      kiln.Tez
}

// StakingBalance returns rolls*tokens-per-roll plus the sub-roll change.
func (d *Delegate) StakingBalance() kiln.Tez {
	return kiln.Tez(d.Rolls)*kiln.TokensPerRoll + d.Change
}

type linkKey struct {
	delegate kiln.Address
	contract kiln.Address
}

func (k linkKey) Bytes() []byte {
	return append(k.delegate.Bytes(), k.contract.Bytes()...)
}
