// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package nonces exposes the commit-reveal bookkeeping over HTTP.
package nonces

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/kiln-chain/kiln/api/restutil"
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/economics"
	"github.com/kiln-chain/kiln/protocol/seed"
)

// Commitment is the JSON form of a recorded seed-nonce commitment.
type Commitment struct {
	Level     uint32       `json:"level"`
	Committer kiln.Address `json:"committer"`
	Hash      kiln.Bytes32 `json:"hash"`
	Revealed  bool         `json:"revealed"`
}

func convert(c *seed.Commitment) *Commitment {
	return &Commitment{
		Level:     c.Level,
		Committer: c.Committer,
		Hash:      c.Hash,
		Revealed:  c.Revealed,
	}
}

type Nonces struct {
	engine *economics.Engine
}

func New(engine *economics.Engine) *Nonces {
	return &Nonces{engine}
}

func (n *Nonces) handleGetCommitment(w http.ResponseWriter, req *http.Request) error {
	level, err := parseUint32(mux.Vars(req)["level"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "level"))
	}
	c, err := n.engine.Nonces().Get(level)
	if err != nil {
		return err
	}
	if c == nil {
		return restutil.NotFound(errors.New("no commitment at level"))
	}
	return restutil.WriteJSON(w, convert(c))
}

func (n *Nonces) handleGetMissing(w http.ResponseWriter, req *http.Request) error {
	cycle, err := parseUint32(mux.Vars(req)["cycle"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "cycle"))
	}
	missing, err := n.engine.Nonces().MissingNonces(kiln.Cycle(cycle))
	if err != nil {
		return err
	}
	list := make([]*Commitment, 0, len(missing))
	for _, c := range missing {
		list = append(list, convert(c))
	}
	return restutil.WriteJSON(w, list)
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (n *Nonces) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/missing/{cycle}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(n.handleGetMissing))
	sub.Path("/{level}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(n.handleGetCommitment))
}
