// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package economics

import (
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/sstore"
	"github.com/kiln-chain/kiln/state"
)

var (
	issuedSlot = sstore.Slot("supply.issued")
	burnedSlot = sstore.Slot("supply.burned")
)

// supplyLedger tracks issuance and burn totals so conservation is checkable:
// spendable + frozen across all accounts always equals issued minus burned.
type supplyLedger struct {
	issued *sstore.Tez
	burned *sstore.Tez
}

func newSupplyLedger(addr kiln.Address, state *state.State) *supplyLedger {
	ctx := sstore.NewContext(addr, state)
	return &supplyLedger{
		issued: sstore.NewTez(ctx, issuedSlot),
		burned: sstore.NewTez(ctx, burnedSlot),
	}
}

func (s *supplyLedger) issue(amount kiln.Tez) error {
	return s.issued.Add(amount)
}

func (s *supplyLedger) burn(amount kiln.Tez) error {
	return s.burned.Add(amount)
}
