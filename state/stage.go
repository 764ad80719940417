// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/kv"
)

// Stage collects all journaled changes, ready to be committed to the kv
// store in one batch.
type Stage struct {
	batch   kv.Batch
	cache   *lru.Cache
	touched []kiln.Address
}

// Commit commits the batch. Touched accounts are evicted from the committed
// layer cache so later reads observe the new values.
func (s *Stage) Commit() error {
	if err := s.batch.Write(); err != nil {
		return &Error{err}
	}
	for _, addr := range s.touched {
		s.cache.Remove(addr)
	}
	return nil
}
