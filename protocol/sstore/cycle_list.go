// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sstore

import (
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kiln-chain/kiln/kiln"
)

// CycleList stores a small ascending set of cycle numbers at a single slot.
// The protocol keeps at most a handful of live cycles per delegate, so the
// whole list is read and written as one value.
type CycleList struct {
	context *Context
	pos     kiln.Bytes32
}

func NewCycleList(context *Context, pos kiln.Bytes32) *CycleList {
	return &CycleList{context: context, pos: pos}
}

// All returns the stored cycles in ascending order.
func (l *CycleList) All() (cycles []kiln.Cycle, err error) {
	err = l.context.state.DecodeStorage(l.context.address, l.pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		var stored []uint32
		if err := rlp.DecodeBytes(raw, &stored); err != nil {
			return err
		}
		cycles = make([]kiln.Cycle, len(stored))
		for i, c := range stored {
			cycles[i] = kiln.Cycle(c)
		}
		return nil
	})
	return
}

func (l *CycleList) save(cycles []kiln.Cycle) error {
	return l.context.state.EncodeStorage(l.context.address, l.pos, func() ([]byte, error) {
		if len(cycles) == 0 {
			return nil, nil
		}
		stored := make([]uint32, len(cycles))
		for i, c := range cycles {
			stored[i] = uint32(c)
		}
		return rlp.EncodeToBytes(stored)
	})
}

// Insert adds the cycle to the list, keeping it sorted. Inserting a cycle
// already present is a no-op.
func (l *CycleList) Insert(cycle kiln.Cycle) error {
	cycles, err := l.All()
	if err != nil {
		return err
	}
	i := sort.Search(len(cycles), func(i int) bool { return cycles[i] >= cycle })
	if i < len(cycles) && cycles[i] == cycle {
		return nil
	}
	cycles = append(cycles, 0)
	copy(cycles[i+1:], cycles[i:])
	cycles[i] = cycle
	return l.save(cycles)
}

// Remove drops the cycle from the list. Removing an absent cycle is a no-op.
func (l *CycleList) Remove(cycle kiln.Cycle) error {
	cycles, err := l.All()
	if err != nil {
		return err
	}
	i := sort.Search(len(cycles), func(i int) bool { return cycles[i] >= cycle })
	if i >= len(cycles) || cycles[i] != cycle {
		return nil
	}
	return l.save(append(cycles[:i], cycles[i+1:]...))
}
