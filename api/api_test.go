// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-chain/kiln/api/nonces"
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/lvldb"
	"github.com/kiln-chain/kiln/protocol/economics"
	"github.com/kiln-chain/kiln/protocol/seed"
	"github.com/kiln-chain/kiln/state"
)

func newTestServer(t *testing.T) (*httptest.Server, *economics.Engine, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	engine := economics.New(st)

	ts := httptest.NewServer(New(engine, Options{AllowedOrigins: "*"}))
	t.Cleanup(ts.Close)
	return ts, engine, st
}

func httpGetJSON(t *testing.T, url string, v any) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	if v != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, v))
	}
	return res.StatusCode
}

func applyBlock(t *testing.T, engine *economics.Engine, st *state.State, hash kiln.Bytes32) kiln.Address {
	baker := kiln.BytesToAddress([]byte("baker"))
	require.NoError(t, engine.Mint(baker, 1000*kiln.OneToken))
	require.NoError(t, st.SetPublicKey(baker, []byte("baker-pub")))
	require.NoError(t, engine.SetDelegate(baker, &baker, 0))
	require.NoError(t, engine.ApplyBlock(baker, kiln.BlocksPerCommitment, &hash, 2*kiln.OneToken))
	return baker
}

func TestSupplyEndpoint(t *testing.T) {
	ts, engine, st := newTestServer(t)
	applyBlock(t, engine, st, seed.NonceHash([]byte("nonce")))

	var supply struct {
		Issued      kiln.Tez `json:"issued"`
		Burned      kiln.Tez `json:"burned"`
		Circulating kiln.Tez `json:"circulating"`
	}
	code := httpGetJSON(t, ts.URL+"/supply", &supply)
	require.Equal(t, http.StatusOK, code)

	// genesis mint + block reward + fee inflow, nothing burned yet
	assert.Equal(t, 1000*kiln.OneToken+kiln.BlockReward+2*kiln.OneToken, supply.Issued)
	assert.Equal(t, kiln.Tez(0), supply.Burned)
	assert.Equal(t, supply.Issued, supply.Circulating)
}

func TestNonceEndpoints(t *testing.T) {
	ts, engine, st := newTestServer(t)
	hash := seed.NonceHash([]byte("nonce"))
	baker := applyBlock(t, engine, st, hash)

	var c nonces.Commitment
	code := httpGetJSON(t, fmt.Sprintf("%s/nonces/%d", ts.URL, kiln.BlocksPerCommitment), &c)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, kiln.BlocksPerCommitment, c.Level)
	assert.Equal(t, baker, c.Committer)
	assert.Equal(t, hash, c.Hash)
	assert.False(t, c.Revealed)

	// no commitment recorded at the next slot
	code = httpGetJSON(t, fmt.Sprintf("%s/nonces/%d", ts.URL, 2*kiln.BlocksPerCommitment), nil)
	assert.Equal(t, http.StatusNotFound, code)

	var missing []*nonces.Commitment
	code = httpGetJSON(t, ts.URL+"/nonces/missing/0", &missing)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, missing, 1)
	assert.Equal(t, kiln.BlocksPerCommitment, missing[0].Level)
}
