// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state implements the versioned protocol context.
//
// All protocol operations are pure functions over a State: mutations collect
// in an in-memory journal with checkpoint/revert semantics and only reach
// the underlying kv store when the enclosing block application stages and
// commits. A failed operation reverts to its checkpoint, so partial updates
// are never observable.
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/kv"
	"github.com/kiln-chain/kiln/stackedmap"
)

const (
	accountSpace = "a"
	storageSpace = "s"

	cachedAccounts = 1024
)

func accountKey(addr kiln.Address) []byte {
	return append([]byte(accountSpace), addr.Bytes()...)
}

func storageSpaceKey(entity kiln.Address, key kiln.Bytes32) []byte {
	k := make([]byte, 0, 1+kiln.AddressLength+32)
	k = append(k, storageSpace...)
	k = append(k, entity.Bytes()...)
	return append(k, key.Bytes()...)
}

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// State manages the protocol context.
type State struct {
	db    kv.GetPutter
	cache *lru.Cache // account cache of the committed layer
	sm    *stackedmap.StackedMap
}

// New create state object.
func New(db kv.GetPutter) *State {
	cache, _ := lru.New(cachedAccounts)
	state := State{
		db:    db,
		cache: cache,
	}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.cacheGetter(key)
	})

	// the bottom checkpoint, everything before Stage
	state.sm.Push()
	return &state
}

type storageKey struct {
	entity kiln.Address
	key    kiln.Bytes32
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case kiln.Address: // get account
		if cached, ok := s.cache.Get(k); ok {
			return cached.(*Account), true, nil
		}
		acc, err := loadAccount(s.db, k)
		if err != nil {
			return nil, false, err
		}
		s.cache.Add(k, acc)
		return acc, true, nil
	case storageKey: // get raw storage
		data, err := s.db.Get(storageSpaceKey(k.entity, k.key))
		if err != nil {
			if s.db.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(data), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// getAccount gets account by address. the returned account should not be modified.
func (s *State) getAccount(addr kiln.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

// getAccountCopy get a copy of account by address.
func (s *State) getAccountCopy(addr kiln.Address) (Account, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return Account{}, err
	}
	return *acc, nil
}

func (s *State) updateAccount(addr kiln.Address, acc *Account) {
	s.sm.Put(addr, acc)
}

// GetBalance returns the spendable balance for the given address.
func (s *State) GetBalance(addr kiln.Address) (kiln.Tez, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return 0, &Error{err}
	}
	return kiln.Tez(acc.Balance), nil
}

// SetBalance set the spendable balance for the given address.
func (s *State) SetBalance(addr kiln.Address, balance kiln.Tez) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Balance = uint64(balance)
	s.updateAccount(addr, &cpy)
	return nil
}

// GetPublicKey returns the revealed public key of an implicit account, or
// nil when the key is not yet revealed.
func (s *State) GetPublicKey(addr kiln.Address) ([]byte, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return acc.PublicKey, nil
}

// SetPublicKey records the revealed public key for the given address.
func (s *State) SetPublicKey(addr kiln.Address, pub []byte) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.PublicKey = pub
	s.updateAccount(addr, &cpy)
	return nil
}

// GetContractKind returns whether the account is implicit or originated.
func (s *State) GetContractKind(addr kiln.Address) (ContractKind, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return KindImplicit, &Error{err}
	}
	return acc.Kind, nil
}

// SetContractKind marks the account implicit or originated.
func (s *State) SetContractKind(addr kiln.Address, kind ContractKind) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Kind = kind
	s.updateAccount(addr, &cpy)
	return nil
}

// GetDelegatable returns the delegatable flag of an originated contract.
// Implicit accounts are never delegatable.
func (s *State) GetDelegatable(addr kiln.Address) (bool, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return acc.Kind == KindOriginated && acc.Delegatable, nil
}

// SetDelegatable set the delegatable flag, fixed at origination.
func (s *State) SetDelegatable(addr kiln.Address, delegatable bool) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Delegatable = delegatable
	s.updateAccount(addr, &cpy)
	return nil
}

// Exists returns whether an account exists at the given address.
// See Account.IsEmpty()
func (s *State) Exists(addr kiln.Address) (bool, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return !acc.IsEmpty(), nil
}

// GetRawStorage returns storage value in rlp raw for given entity and key.
func (s *State) GetRawStorage(entity kiln.Address, key kiln.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{entity, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw. Empty raw deletes the slot.
func (s *State) SetRawStorage(entity kiln.Address, key kiln.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{entity, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(entity kiln.Address, key kiln.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(entity, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(entity kiln.Address, key kiln.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(entity, key)
	if err != nil {
		return &Error{err}
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to commit all changes to the kv store.
func (s *State) Stage() (*Stage, error) {
	accounts := make(map[kiln.Address]*Account)
	storages := make(map[storageKey]rlp.RawValue)

	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case kiln.Address:
			accounts[key] = v.(*Account)
		case storageKey:
			storages[key] = v.(rlp.RawValue)
		}
		return true
	})

	batch := s.db.NewBatch()
	for addr, acc := range accounts {
		if err := saveAccount(batch, addr, acc); err != nil {
			return nil, &Error{err}
		}
	}
	for key, raw := range storages {
		if len(raw) == 0 {
			if err := batch.Delete(storageSpaceKey(key.entity, key.key)); err != nil {
				return nil, &Error{err}
			}
			continue
		}
		if err := batch.Put(storageSpaceKey(key.entity, key.key), raw); err != nil {
			return nil, &Error{err}
		}
	}

	touched := make([]kiln.Address, 0, len(accounts))
	for addr := range accounts {
		touched = append(touched, addr)
	}
	return &Stage{
		batch:   batch,
		cache:   s.cache,
		touched: touched,
	}, nil
}
