// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/lvldb"
	"github.com/kiln-chain/kiln/state"
)

var (
	storeAddr = kiln.BytesToAddress([]byte("seed-store"))
	committer = kiln.BytesToAddress([]byte("baker"))
	preimage  = []byte("the-nonce-preimage")
)

func newTestStore(t *testing.T) *Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(storeAddr, state.New(db))
}

func TestRecordCommitment(t *testing.T) {
	store := newTestStore(t)
	level := kiln.BlocksPerCommitment

	require.NoError(t, store.RecordCommitment(level, committer, NonceHash(preimage)))

	c, err := store.Get(level)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, committer, c.Committer)
	assert.False(t, c.Revealed)

	// one commitment attempt per level
	assert.Error(t, store.RecordCommitment(level, committer, NonceHash(preimage)))

	// off-spacing levels are rejected
	assert.Error(t, store.RecordCommitment(level+1, committer, NonceHash(preimage)))

	missing, err := store.MissingNonces(0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, level, missing[0].Level)
}

func TestRevealPrecedence(t *testing.T) {
	store := newTestStore(t)
	level := kiln.BlocksPerCommitment // cycle 0

	require.NoError(t, store.RecordCommitment(level, committer, NonceHash(preimage)))

	// too early: commitment cycle has not ended
	_, err := store.Reveal(level, preimage, 0)
	var tooEarly *TooEarlyRevelationError
	require.ErrorAs(t, err, &tooEarly)

	// too late: past the end of cycle c+1; timing outranks a bad preimage
	_, err = store.Reveal(level, []byte("wrong"), 2)
	var tooLate *TooLateRevelationError
	require.ErrorAs(t, err, &tooLate)

	// absent commitment
	_, err = store.Reveal(2*kiln.BlocksPerCommitment, preimage, 1)
	var noCommitment *NoCommitmentError
	require.ErrorAs(t, err, &noCommitment)

	// wrong preimage
	_, err = store.Reveal(level, []byte("wrong"), 1)
	var unexpected *UnexpectedNonceError
	require.ErrorAs(t, err, &unexpected)

	// success
	c, err := store.Reveal(level, preimage, 1)
	require.NoError(t, err)
	assert.Equal(t, committer, c.Committer)
	assert.True(t, c.Revealed)

	// duplicate reveal
	_, err = store.Reveal(level, preimage, 1)
	var previously *PreviouslyRevealedError
	require.ErrorAs(t, err, &previously)

	missing, err := store.MissingNonces(0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRevealWindowBoundaries(t *testing.T) {
	store := newTestStore(t)

	// commitment in cycle 3
	level := kiln.FirstLevelOfCycle(3) + kiln.BlocksPerCommitment
	require.NoError(t, store.RecordCommitment(level, committer, NonceHash(preimage)))

	// the whole of cycle 4 is the reveal window; cycle 5 is out
	_, err := store.Reveal(level, preimage, 3)
	var tooEarly *TooEarlyRevelationError
	require.ErrorAs(t, err, &tooEarly)

	_, err = store.Reveal(level, preimage, 5)
	var tooLate *TooLateRevelationError
	require.ErrorAs(t, err, &tooLate)

	_, err = store.Reveal(level, preimage, 4)
	require.NoError(t, err)
}

func TestMissingNonces(t *testing.T) {
	store := newTestStore(t)

	l1 := kiln.BlocksPerCommitment
	l2 := 2 * kiln.BlocksPerCommitment
	l3 := 3 * kiln.BlocksPerCommitment
	other := kiln.BytesToAddress([]byte("other-baker"))

	require.NoError(t, store.RecordCommitment(l1, committer, NonceHash([]byte("n1"))))
	require.NoError(t, store.RecordCommitment(l2, other, NonceHash([]byte("n2"))))
	require.NoError(t, store.RecordCommitment(l3, committer, NonceHash([]byte("n3"))))

	_, err := store.Reveal(l2, []byte("n2"), 1)
	require.NoError(t, err)

	missing, err := store.MissingNonces(0)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, l1, missing[0].Level)
	assert.Equal(t, l3, missing[1].Level)
}

func TestDiscard(t *testing.T) {
	store := newTestStore(t)
	level := kiln.BlocksPerCommitment

	require.NoError(t, store.RecordCommitment(level, committer, NonceHash(preimage)))
	require.NoError(t, store.Discard(0))

	c, err := store.Get(level)
	require.NoError(t, err)
	assert.Nil(t, c)

	missing, err := store.MissingNonces(0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
