// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package seed implements the seed-nonce commit-reveal state machine. A block
// baked at a commitment level carries a nonce hash; the preimage must be
// revealed during the following cycle or the committer's frozen fees and
// rewards for the commitment cycle are forfeited at settlement.
package seed

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/sstore"
	"github.com/kiln-chain/kiln/state"
)

var (
	commitmentsSlot = sstore.Slot("commitments")
	levelsSlot      = sstore.Slot("commitments.levels")
)

type levelKey uint32

func (k levelKey) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(k))
	return b[:]
}

// commitment is the stored record of one seed-nonce commitment.
type commitment struct {
	Committer kiln.Address
	Hash      kiln.Bytes32
	Revealed  bool
}

// Commitment is the externally visible view of a stored commitment.
type Commitment struct {
	Level     uint32
	Committer kiln.Address
	Hash      kiln.Bytes32
	Revealed  bool
}

// NonceHash computes the commitment hash of a nonce preimage.
func NonceHash(preimage []byte) kiln.Bytes32 {
	return kiln.Blake2b(preimage)
}

// Store provides access to all seed-nonce commitments.
type Store struct {
	addr  kiln.Address
	state *state.State

	commits *sstore.Mapping[levelKey, *commitment]
	ctx     *sstore.Context
}

// New create a new instance.
func New(addr kiln.Address, state *state.State) *Store {
	ctx := sstore.NewContext(addr, state)
	return &Store{
		addr:    addr,
		state:   state,
		commits: sstore.NewMapping[levelKey, *commitment](ctx, commitmentsSlot),
		ctx:     ctx,
	}
}

// levels reads the commitment levels recorded for a cycle, in block order.
func (s *Store) levels(cycle kiln.Cycle) (levels []uint32, err error) {
	pos := kiln.Blake2b(cycle.Bytes(), levelsSlot.Bytes())
	err = s.state.DecodeStorage(s.addr, pos, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &levels)
	})
	return
}

func (s *Store) saveLevels(cycle kiln.Cycle, levels []uint32) error {
	pos := kiln.Blake2b(cycle.Bytes(), levelsSlot.Bytes())
	return s.state.EncodeStorage(s.addr, pos, func() ([]byte, error) {
		if len(levels) == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(levels)
	})
}

// RecordCommitment stores the nonce hash committed by the baker of the block
// at the given level. Levels not on the commitment spacing, and levels
// already committed, are rejected.
func (s *Store) RecordCommitment(level uint32, committer kiln.Address, hash kiln.Bytes32) error {
	if !kiln.IsCommitmentLevel(level) {
		return errors.Errorf("level %d is not a commitment level", level)
	}
	has, err := s.commits.Has(levelKey(level))
	if err != nil {
		return err
	}
	if has {
		return errors.Errorf("commitment already recorded at level %d", level)
	}
	if err := s.commits.Set(levelKey(level), &commitment{Committer: committer, Hash: hash}); err != nil {
		return err
	}
	cycle := kiln.CycleOf(level)
	levels, err := s.levels(cycle)
	if err != nil {
		return err
	}
	return s.saveLevels(cycle, append(levels, level))
}

// Get returns the commitment at the level, or nil.
func (s *Store) Get(level uint32) (*Commitment, error) {
	has, err := s.commits.Has(levelKey(level))
	if err != nil || !has {
		return nil, err
	}
	c, err := s.commits.Get(levelKey(level))
	if err != nil {
		return nil, err
	}
	return &Commitment{Level: level, Committer: c.Committer, Hash: c.Hash, Revealed: c.Revealed}, nil
}

// Reveal validates a nonce revelation for the commitment at the level and
// marks it revealed. Validation order is fixed: the timing of the reveal is
// checked before the commitment is even looked up, then the preimage, then
// the revealed flag. On success the consumed commitment is returned so the
// caller can pay the revelation tip.
func (s *Store) Reveal(level uint32, preimage []byte, current kiln.Cycle) (*Commitment, error) {
	committed := kiln.CycleOf(level)
	if current > committed+1 {
		return nil, &TooLateRevelationError{Level: level, Current: current}
	}
	if current <= committed {
		return nil, &TooEarlyRevelationError{Level: level, Current: current}
	}

	has, err := s.commits.Has(levelKey(level))
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, &NoCommitmentError{Level: level}
	}
	c, err := s.commits.Get(levelKey(level))
	if err != nil {
		return nil, err
	}
	if NonceHash(preimage) != c.Hash {
		return nil, &UnexpectedNonceError{Level: level}
	}
	if c.Revealed {
		return nil, &PreviouslyRevealedError{Level: level}
	}

	c.Revealed = true
	if err := s.commits.Set(levelKey(level), c); err != nil {
		return nil, err
	}
	return &Commitment{Level: level, Committer: c.Committer, Hash: c.Hash, Revealed: true}, nil
}

// MissingNonces returns the commitments of the cycle that were never
// revealed, in block order. Settlement burns their committers' frozen fees
// and rewards once the reveal window closes.
func (s *Store) MissingNonces(cycle kiln.Cycle) ([]*Commitment, error) {
	levels, err := s.levels(cycle)
	if err != nil {
		return nil, err
	}
	var missing []*Commitment
	for _, level := range levels {
		c, err := s.commits.Get(levelKey(level))
		if err != nil {
			return nil, err
		}
		if !c.Revealed {
			missing = append(missing, &Commitment{Level: level, Committer: c.Committer, Hash: c.Hash})
		}
	}
	return missing, nil
}

// Discard drops all commitments of the cycle once it is settled.
func (s *Store) Discard(cycle kiln.Cycle) error {
	levels, err := s.levels(cycle)
	if err != nil {
		return err
	}
	for _, level := range levels {
		if err := s.commits.Delete(levelKey(level)); err != nil {
			return err
		}
	}
	return s.saveLevels(cycle, nil)
}
