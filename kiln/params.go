// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kiln

import "encoding/binary"

// Cycle numbers a fixed-length span of blocks. It is the unit of settlement
// and of the seed-nonce reveal window.
type Cycle uint32

// Bytes returns the big-endian form of the cycle number, used as a storage
// sub-key.
func (c Cycle) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(c))
	return b[:]
}

// Protocol constants. Consensus-critical: changing any of these forks the
// chain.
const (
	// BlocksPerCycle is the length of a cycle in blocks.
	BlocksPerCycle uint32 = 4096

	// BlocksPerCommitment spaces the levels at which a baked block must
	// carry a seed-nonce commitment.
	BlocksPerCommitment uint32 = 32

	// PreservedCycles is how many cycles a frozen balance matures before
	// it becomes spendable again.
	PreservedCycles Cycle = 5

	// DelegateGracePeriod is how many cycles of inactivity a delegate is
	// granted before cycle-end settlement deactivates it.
	DelegateGracePeriod Cycle = PreservedCycles + 2
)

var (
	// TokensPerRoll is the size of one unit of staking weight.
	TokensPerRoll = 8_000 * OneToken

	// BlockSecurityDeposit is frozen from a baker when its block is applied.
	BlockSecurityDeposit = 512 * OneToken

	// EndorsementSecurityDeposit is frozen per endorsement slot.
	EndorsementSecurityDeposit = 64 * OneToken

	// BlockReward is issued to the baker, frozen until maturity.
	BlockReward = 16 * OneToken

	// SeedNonceRevelationTip is issued to the baker including a valid
	// nonce revelation.
	SeedNonceRevelationTip = OneToken / 8
)

// CycleOf returns the cycle a block level belongs to.
func CycleOf(level uint32) Cycle {
	return Cycle(level / BlocksPerCycle)
}

// FirstLevelOfCycle returns the level at which the cycle starts.
func FirstLevelOfCycle(c Cycle) uint32 {
	return uint32(c) * BlocksPerCycle
}

// LastLevelOfCycle returns the last level inside the cycle.
func LastLevelOfCycle(c Cycle) uint32 {
	return (uint32(c)+1)*BlocksPerCycle - 1
}

// IsCommitmentLevel reports whether a block at the given level must carry a
// seed-nonce commitment.
func IsCommitmentLevel(level uint32) bool {
	return level > 0 && level%BlocksPerCommitment == 0
}
