// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package economics

import (
	"fmt"

	"github.com/kiln-chain/kiln/errs"
	"github.com/kiln-chain/kiln/kiln"
)

// BalanceTooLowError is returned when a delegate's spendable balance cannot
// cover a required security deposit.
type BalanceTooLowError struct {
	Delegate kiln.Address `json:"delegate"`
	Balance  kiln.Tez     `json:"balance"`
	Required kiln.Tez     `json:"required"`
}

func (e *BalanceTooLowError) Error() string {
	return fmt.Sprintf("delegate %v balance %v is too low for deposit %v", e.Delegate, e.Balance, e.Required)
}
func (e *BalanceTooLowError) ErrorID() string   { return "contract.balance_too_low_for_deposit" }
func (e *BalanceTooLowError) Class() errs.Class { return errs.Temporary }

// InvalidCommitmentError is returned when a block at a commitment level lacks
// a seed-nonce commitment, or carries one off the commitment spacing.
type InvalidCommitmentError struct {
	Level uint32 `json:"level"`
}

func (e *InvalidCommitmentError) Error() string {
	return fmt.Sprintf("invalid seed-nonce commitment in block at level %d", e.Level)
}
func (e *InvalidCommitmentError) ErrorID() string   { return "block.invalid_commitment" }
func (e *InvalidCommitmentError) Class() errs.Class { return errs.Permanent }
