// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sstore provides typed storage accessors for protocol services,
// similar to declaring fields and mappings in a contract. Each service owns a
// storage entity address; positions are derived from slot names and keys.
package sstore

import (
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/state"
)

// Context binds a storage entity address to a state instance.
type Context struct {
	address kiln.Address
	state   *state.State
}

func NewContext(address kiln.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() kiln.Address {
	return c.address
}

// Slot derives a storage position from a slot name.
func Slot(name string) kiln.Bytes32 {
	return kiln.Blake2b([]byte(name))
}
