// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the HTTP read surface over the protocol engine.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kiln-chain/kiln/api/delegates"
	"github.com/kiln-chain/kiln/api/nonces"
	"github.com/kiln-chain/kiln/api/restutil"
	"github.com/kiln-chain/kiln/log"
	"github.com/kiln-chain/kiln/metrics"
	"github.com/kiln-chain/kiln/protocol/economics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableMetrics   bool
	EnableReqLogger bool
}

// New returns the api handler.
func New(engine *economics.Engine, opts Options) http.Handler {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	delegates.New(engine).
		Mount(router, "/delegates")
	nonces.New(engine).
		Mount(router, "/nonces")

	router.Path("/supply").Methods(http.MethodGet).
		HandlerFunc(restutil.WrapHandlerFunc(supplyHandler(engine)))

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler
}

func supplyHandler(engine *economics.Engine) restutil.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		issued, err := engine.TotalIssued()
		if err != nil {
			return err
		}
		burned, err := engine.TotalBurned()
		if err != nil {
			return err
		}
		return restutil.WriteJSON(w, restutil.M{
			"issued":      issued,
			"burned":      burned,
			"circulating": issued - burned,
		})
	}
}
