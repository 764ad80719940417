// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegates

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/kiln-chain/kiln/api/restutil"
	"github.com/kiln-chain/kiln/kiln"
	"github.com/kiln-chain/kiln/protocol/delegation"
	"github.com/kiln-chain/kiln/protocol/economics"
)

type Delegates struct {
	engine *economics.Engine
}

func New(engine *economics.Engine) *Delegates {
	return &Delegates{engine}
}

func (d *Delegates) handleGetDelegates(w http.ResponseWriter, _ *http.Request) error {
	list := make([]*Summary, 0)
	err := d.engine.Registry().ForEach(func(entry *delegation.Delegate) bool {
		list = append(list, &Summary{
			Address:        entry.Address,
			Active:         entry.Active,
			GracePeriod:    entry.GracePeriod,
			Rolls:          entry.Rolls,
			StakingBalance: entry.StakingBalance(),
		})
		return true
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func (d *Delegates) handleGetDelegate(w http.ResponseWriter, req *http.Request) error {
	addr, err := d.parseAddress(req)
	if err != nil {
		return err
	}
	registry := d.engine.Registry()

	registered, err := registry.Registered(*addr)
	if err != nil {
		return err
	}
	if !registered {
		return restutil.NotFound(errors.New("delegate not registered"))
	}

	active, err := registry.IsActive(*addr)
	if err != nil {
		return err
	}
	grace, err := registry.GracePeriod(*addr)
	if err != nil {
		return err
	}
	rolls, err := registry.Rolls(*addr)
	if err != nil {
		return err
	}
	staking, err := registry.StakingBalance(*addr)
	if err != nil {
		return err
	}
	delegated, err := registry.DelegatedBalance(*addr, d.engine.Ledger())
	if err != nil {
		return err
	}
	contracts, err := registry.DelegatedContracts(*addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Detail{
		Summary: Summary{
			Address:        *addr,
			Active:         active,
			GracePeriod:    grace,
			Rolls:          rolls,
			StakingBalance: staking,
		},
		DelegatedBalance:   delegated,
		DelegatedContracts: contracts,
	})
}

func (d *Delegates) handleGetFrozenBalances(w http.ResponseWriter, req *http.Request) error {
	addr, err := d.parseAddress(req)
	if err != nil {
		return err
	}
	entries, err := d.engine.Ledger().BalanceByCycle(*addr)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertFrozen(entries))
}

func (d *Delegates) parseAddress(req *http.Request) (*kiln.Address, error) {
	addr, err := kiln.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return nil, restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

func (d *Delegates) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(d.handleGetDelegates))
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(d.handleGetDelegate))
	sub.Path("/{address}/frozen").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(d.handleGetFrozenBalances))
}
