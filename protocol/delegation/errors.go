// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"fmt"

	"github.com/kiln-chain/kiln/errs"
	"github.com/kiln-chain/kiln/kiln"
)

// NoDeletionError is returned when clearing the delegation of a registered
// delegate account. Registered delegates cannot unregister.
type NoDeletionError struct {
	Delegate kiln.Address `json:"delegate"`
}

func (e *NoDeletionError) Error() string {
	return fmt.Sprintf("delegate deletion is forbidden: %v", e.Delegate)
}
func (e *NoDeletionError) ErrorID() string   { return "delegate.no_deletion" }
func (e *NoDeletionError) Class() errs.Class { return errs.Permanent }

// UndelegatableContractError is returned when a manager operation changes the
// delegation of a contract that does not allow it.
type UndelegatableContractError struct {
	Contract kiln.Address `json:"contract"`
}

func (e *UndelegatableContractError) Error() string {
	return fmt.Sprintf("contract is not delegatable: %v", e.Contract)
}
func (e *UndelegatableContractError) ErrorID() string   { return "contract.undelegatable_contract" }
func (e *UndelegatableContractError) Class() errs.Class { return errs.Permanent }

// UnregisteredDelegateError is returned when delegating to an account that is
// not a registered delegate, or whose public key is unrevealed.
type UnregisteredDelegateError struct {
	Delegate kiln.Address `json:"delegate"`
}

func (e *UnregisteredDelegateError) Error() string {
	return fmt.Sprintf("not a registered delegate: %v", e.Delegate)
}
func (e *UnregisteredDelegateError) ErrorID() string {
	return "contract.manager.unregistered_delegate"
}
func (e *UnregisteredDelegateError) Class() errs.Class { return errs.Permanent }

// AlreadyActiveError is returned on re-self-delegation of an active delegate.
type AlreadyActiveError struct {
	Delegate kiln.Address `json:"delegate"`
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("delegate is already active: %v", e.Delegate)
}
func (e *AlreadyActiveError) ErrorID() string   { return "delegate.already_active" }
func (e *AlreadyActiveError) Class() errs.Class { return errs.Temporary }

// UnchangedDelegateError is returned when a contract re-delegates to its
// current delegate.
type UnchangedDelegateError struct {
	Contract kiln.Address `json:"contract"`
	Delegate kiln.Address `json:"delegate"`
}

func (e *UnchangedDelegateError) Error() string {
	return fmt.Sprintf("contract %v is already delegated to %v", e.Contract, e.Delegate)
}
func (e *UnchangedDelegateError) ErrorID() string   { return "delegate.unchanged" }
func (e *UnchangedDelegateError) Class() errs.Class { return errs.Temporary }

// EmptyDelegateAccountError is returned on self-delegation of an account with
// no spendable balance.
type EmptyDelegateAccountError struct {
	Delegate kiln.Address `json:"delegate"`
}

func (e *EmptyDelegateAccountError) Error() string {
	return fmt.Sprintf("cannot register delegate with empty balance: %v", e.Delegate)
}
func (e *EmptyDelegateAccountError) ErrorID() string   { return "contract.empty_delegate_account" }
func (e *EmptyDelegateAccountError) Class() errs.Class { return errs.Temporary }
