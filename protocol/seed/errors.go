// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seed

import (
	"fmt"

	"github.com/kiln-chain/kiln/errs"
	"github.com/kiln-chain/kiln/kiln"
)

// TooLateRevelationError is returned when the reveal window of the commitment
// has already closed.
type TooLateRevelationError struct {
	Level   uint32     `json:"level"`
	Current kiln.Cycle `json:"current_cycle"`
}

func (e *TooLateRevelationError) Error() string {
	return fmt.Sprintf("nonce revelation of level %d is too late in cycle %d", e.Level, e.Current)
}
func (e *TooLateRevelationError) ErrorID() string   { return "nonce.too_late_revelation" }
func (e *TooLateRevelationError) Class() errs.Class { return errs.Temporary }

// TooEarlyRevelationError is returned when the commitment's cycle has not
// ended yet.
type TooEarlyRevelationError struct {
	Level   uint32     `json:"level"`
	Current kiln.Cycle `json:"current_cycle"`
}

func (e *TooEarlyRevelationError) Error() string {
	return fmt.Sprintf("nonce revelation of level %d is too early in cycle %d", e.Level, e.Current)
}
func (e *TooEarlyRevelationError) ErrorID() string   { return "nonce.too_early_revelation" }
func (e *TooEarlyRevelationError) Class() errs.Class { return errs.Temporary }

// NoCommitmentError is returned when no commitment exists at the level.
type NoCommitmentError struct {
	Level uint32 `json:"level"`
}

func (e *NoCommitmentError) Error() string {
	return fmt.Sprintf("no nonce commitment found at level %d", e.Level)
}
func (e *NoCommitmentError) ErrorID() string   { return "nonce.no_commitment_found" }
func (e *NoCommitmentError) Class() errs.Class { return errs.Permanent }

// UnexpectedNonceError is returned when the revealed preimage does not hash
// to the committed value.
type UnexpectedNonceError struct {
	Level uint32 `json:"level"`
}

func (e *UnexpectedNonceError) Error() string {
	return fmt.Sprintf("nonce of level %d does not match its commitment", e.Level)
}
func (e *UnexpectedNonceError) ErrorID() string   { return "nonce.unexpected" }
func (e *UnexpectedNonceError) Class() errs.Class { return errs.Permanent }

// PreviouslyRevealedError is returned on a second reveal of the same
// commitment.
type PreviouslyRevealedError struct {
	Level uint32 `json:"level"`
}

func (e *PreviouslyRevealedError) Error() string {
	return fmt.Sprintf("nonce of level %d was previously revealed", e.Level)
}
func (e *PreviouslyRevealedError) ErrorID() string   { return "nonce.previously_revealed" }
func (e *PreviouslyRevealedError) Class() errs.Class { return errs.Permanent }
