// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kiln

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleOf(t *testing.T) {
	assert.Equal(t, Cycle(0), CycleOf(0))
	assert.Equal(t, Cycle(0), CycleOf(BlocksPerCycle-1))
	assert.Equal(t, Cycle(1), CycleOf(BlocksPerCycle))
	assert.Equal(t, Cycle(2), CycleOf(2*BlocksPerCycle+1))
}

func TestCycleBounds(t *testing.T) {
	for _, c := range []Cycle{0, 1, 7} {
		assert.Equal(t, c, CycleOf(FirstLevelOfCycle(c)))
		assert.Equal(t, c, CycleOf(LastLevelOfCycle(c)))
		assert.Equal(t, c+1, CycleOf(LastLevelOfCycle(c)+1))
	}
}

func TestIsCommitmentLevel(t *testing.T) {
	assert.False(t, IsCommitmentLevel(0))
	assert.False(t, IsCommitmentLevel(1))
	assert.True(t, IsCommitmentLevel(BlocksPerCommitment))
	assert.True(t, IsCommitmentLevel(BlocksPerCommitment*3))
	assert.False(t, IsCommitmentLevel(BlocksPerCommitment+1))
}
