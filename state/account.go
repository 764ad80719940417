// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/kv"
)

// ContractKind distinguishes implicit accounts (key hashes) from originated
// contracts.
type ContractKind uint8

const (
	// KindImplicit is an account directly controlled by a key pair.
	KindImplicit ContractKind = iota
	// KindOriginated is a contract created by an origination operation.
	// Only originated contracts carry the delegatable flag.
	KindOriginated
)

// Account is the consensus representation of an account.
// RLP encoded objects are stored in the account space of the kv store.
type Account struct {
	Balance     uint64 // spendable balance in micro-tokens
	PublicKey   []byte // revealed public key, empty until a reveal operation
	Kind        ContractKind
	Delegatable bool // meaningful only when Kind is KindOriginated
}

// IsEmpty returns if an account is empty.
// An empty account has zero balance, no revealed key and implicit kind.
func (a *Account) IsEmpty() bool {
	return a.Balance == 0 &&
		len(a.PublicKey) == 0 &&
		a.Kind == KindImplicit &&
		!a.Delegatable
}

func emptyAccount() *Account {
	return &Account{}
}

// loadAccount loads an account by address. Missing accounts load as empty.
func loadAccount(src kv.Getter, addr kiln.Address) (*Account, error) {
	data, err := src.Get(accountKey(addr))
	if err != nil {
		if src.IsNotFound(err) {
			return emptyAccount(), nil
		}
		return nil, err
	}
	var acc Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// saveAccount writes an account into the putter, deleting the slot when the
// account becomes empty.
func saveAccount(dst kv.Putter, addr kiln.Address, acc *Account) error {
	if acc.IsEmpty() {
		return dst.Delete(accountKey(addr))
	}
	data, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return err
	}
	return dst.Put(accountKey(addr), data)
}
