// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegates

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/lvldb"
	"github.com/kiln-chain/kiln/protocol/economics"
	"github.com/kiln-chain/kiln/state"
)

func newTestServer(t *testing.T) (*httptest.Server, *economics.Engine, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	engine := economics.New(st)

	router := mux.NewRouter()
	New(engine).Mount(router, "/delegates")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, engine, st
}

func newBaker(t *testing.T, engine *economics.Engine, st *state.State, name string, balance kiln.Tez) kiln.Address {
	d := kiln.BytesToAddress([]byte(name))
	require.NoError(t, engine.Mint(d, balance))
	require.NoError(t, st.SetPublicKey(d, []byte(name+"-pub")))
	require.NoError(t, engine.SetDelegate(d, &d, 0))
	return d
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	return body, res.StatusCode
}

func TestListDelegates(t *testing.T) {
	ts, engine, st := newTestServer(t)
	alice := newBaker(t, engine, st, "alice", 9000*kiln.OneToken)
	newBaker(t, engine, st, "bob", 100*kiln.OneToken)

	body, code := httpGet(t, ts.URL+"/delegates")
	require.Equal(t, http.StatusOK, code)

	var list []*Summary
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, alice, list[0].Address)
	assert.True(t, list[0].Active)
	assert.Equal(t, uint64(1), list[0].Rolls)
	assert.Equal(t, 9000*kiln.OneToken, list[0].StakingBalance)
}

func TestGetDelegate(t *testing.T) {
	ts, engine, st := newTestServer(t)
	baker := newBaker(t, engine, st, "baker", 9000*kiln.OneToken)

	// an originated contract delegating to the baker
	holder := kiln.BytesToAddress([]byte("holder"))
	require.NoError(t, engine.Mint(holder, 500*kiln.OneToken))
	require.NoError(t, st.SetContractKind(holder, state.KindOriginated))
	require.NoError(t, st.SetDelegatable(holder, true))
	require.NoError(t, engine.SetDelegate(holder, &baker, 0))

	body, code := httpGet(t, ts.URL+"/delegates/"+baker.String())
	require.Equal(t, http.StatusOK, code)

	var detail Detail
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, baker, detail.Address)
	assert.Equal(t, 9500*kiln.OneToken, detail.StakingBalance)
	assert.Equal(t, 500*kiln.OneToken, detail.DelegatedBalance)
	// the self-delegation is listed too, in link order
	assert.Equal(t, []kiln.Address{baker, holder}, detail.DelegatedContracts)
	assert.Equal(t, kiln.DelegateGracePeriod, detail.GracePeriod)
}

func TestGetDelegateNotRegistered(t *testing.T) {
	ts, _, _ := newTestServer(t)

	unknown := kiln.BytesToAddress([]byte("nobody"))
	_, code := httpGet(t, ts.URL+"/delegates/"+unknown.String())
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetDelegateBadAddress(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, code := httpGet(t, ts.URL+"/delegates/not-an-address")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetFrozenBalances(t *testing.T) {
	ts, engine, st := newTestServer(t)
	baker := newBaker(t, engine, st, "baker", 1000*kiln.OneToken)

	require.NoError(t, engine.FreezeDeposit(baker, 0, kiln.BlockSecurityDeposit))
	require.NoError(t, engine.AddFees(baker, 0, 3*kiln.OneToken))
	require.NoError(t, engine.FreezeDeposit(baker, 2, kiln.BlockSecurityDeposit/2))

	body, code := httpGet(t, ts.URL+"/delegates/"+baker.String()+"/frozen")
	require.Equal(t, http.StatusOK, code)

	var entries []*FrozenBalance
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, kiln.Cycle(0), entries[0].Cycle)
	assert.Equal(t, kiln.BlockSecurityDeposit, entries[0].Deposit)
	assert.Equal(t, 3*kiln.OneToken, entries[0].Fees)
	assert.Equal(t, kiln.Cycle(2), entries[1].Cycle)
	assert.Equal(t, kiln.BlockSecurityDeposit/2, entries[1].Deposit)
}
