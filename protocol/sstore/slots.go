// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sstore

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kiln-chain/kiln/kiln"
)

// Tez is a wrapper for storage and retrieval of a single balance slot.
type Tez struct {
	context *Context
	pos     kiln.Bytes32
}

func NewTez(context *Context, pos kiln.Bytes32) *Tez {
	return &Tez{context: context, pos: pos}
}

func (t *Tez) Get() (value kiln.Tez, err error) {
	err = t.context.state.DecodeStorage(t.context.address, t.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, (*uint64)(&value))
	})
	return
}

func (t *Tez) Set(value kiln.Tez) error {
	return t.context.state.EncodeStorage(t.context.address, t.pos, func() ([]byte, error) {
		if value == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(uint64(value))
	})
}

// Add increases the slot by amount, failing on overflow.
func (t *Tez) Add(amount kiln.Tez) error {
	value, err := t.Get()
	if err != nil {
		return err
	}
	sum, err := value.Add(amount)
	if err != nil {
		return err
	}
	return t.Set(sum)
}

// Sub decreases the slot by amount, failing on underflow.
func (t *Tez) Sub(amount kiln.Tez) error {
	value, err := t.Get()
	if err != nil {
		return err
	}
	diff, err := value.Sub(amount)
	if err != nil {
		return err
	}
	return t.Set(diff)
}

// Uint32 is a wrapper for storage and retrieval of a small counter slot.
type Uint32 struct {
	context *Context
	pos     kiln.Bytes32
}

func NewUint32(context *Context, pos kiln.Bytes32) *Uint32 {
	return &Uint32{context: context, pos: pos}
}

func (u *Uint32) Get() (value uint32, err error) {
	err = u.context.state.DecodeStorage(u.context.address, u.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (u *Uint32) Set(value uint32) error {
	return u.context.state.EncodeStorage(u.context.address, u.pos, func() ([]byte, error) {
		if value == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(value)
	})
}

// Address is a wrapper for storage and retrieval of a single address slot.
// A nil set clears the slot; a cleared slot reads back as the zero address.
type Address struct {
	context *Context
	pos     kiln.Bytes32
}

func NewAddress(context *Context, pos kiln.Bytes32) *Address {
	return &Address{context: context, pos: pos}
}

func (a *Address) Get() (value kiln.Address, err error) {
	err = a.context.state.DecodeStorage(a.context.address, a.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		var b []byte
		if err := rlp.DecodeBytes(raw, &b); err != nil {
			return err
		}
		value = kiln.BytesToAddress(b)
		return nil
	})
	return
}

func (a *Address) Set(addr *kiln.Address) error {
	return a.context.state.EncodeStorage(a.context.address, a.pos, func() ([]byte, error) {
		if addr == nil || addr.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(addr.Bytes())
	})
}
