// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package signer

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kiln-chain/kiln/cry"
	"github.com/kiln-chain/kiln/log"
	"github.com/kiln-chain/kiln/metrics"
)

var logger = log.WithContext("pkg", "signer")

var (
	metricSignCount = metrics.LazyLoadCounterVec("signer_request_count", []string{"cmd", "ok"})
	metricConnGauge = metrics.LazyLoadGauge("signer_connection_count")
)

// Server answers sign and public-key requests with keys unlocked from a
// keystore. Keys stay unlocked for the lifetime of the server.
type Server struct {
	keystore *cry.Keystore

	mu   sync.RWMutex
	keys map[string]cry.PrivateKey
}

// NewServer creates a server over the given keystore. No keys are unlocked
// yet.
func NewServer(keystore *cry.Keystore) *Server {
	return &Server{
		keystore: keystore,
		keys:     make(map[string]cry.PrivateKey),
	}
}

// Unlock loads the key stored under alias and keeps it available for
// requests.
func (s *Server) Unlock(alias, passphrase string) error {
	key, err := s.keystore.Load(alias, passphrase)
	if err != nil {
		return errors.WithMessagef(err, "unlock %q", alias)
	}
	s.mu.Lock()
	s.keys[alias] = key
	s.mu.Unlock()
	logger.Info("key unlocked", "alias", alias, "scheme", key.Scheme(), "addr", key.Address())
	return nil
}

func (s *Server) key(alias string) (cry.PrivateKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[alias]
	return key, ok
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// The listener is closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})
	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			group.Go(func() error {
				defer conn.Close()
				metricConnGauge().Add(1)
				defer metricConnGauge().Add(-1)

				// cut the connection when shutting down
				done := make(chan struct{})
				defer close(done)
				go func() {
					select {
					case <-ctx.Done():
						conn.Close()
					case <-done:
					}
				}()

				s.ServeConn(conn)
				return nil
			})
		}
	})
	return group.Wait()
}

// ServeConn answers requests on a single connection until it fails or
// closes.
func (s *Server) ServeConn(conn net.Conn) {
	for {
		var req request
		if err := readMessage(conn, &req); err != nil {
			return
		}
		res := s.dispatch(&req)
		metricSignCount().AddWithLabel(1, map[string]string{
			"cmd": cmdName(req.Cmd),
			"ok":  okLabel(res.Err == ""),
		})
		if err := writeMessage(conn, res); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req *request) *response {
	key, ok := s.key(req.Alias)
	if !ok {
		return &response{Err: "unknown or locked key alias"}
	}
	switch req.Cmd {
	case cmdSign:
		sig, err := key.Sign(req.Data)
		if err != nil {
			return &response{Err: err.Error()}
		}
		return &response{Scheme: string(key.Scheme()), Data: sig}
	case cmdPublicKey:
		return &response{Scheme: string(key.Scheme()), Data: key.Public()}
	default:
		return &response{Err: "unknown command"}
	}
}

func cmdName(cmd uint8) string {
	switch cmd {
	case cmdSign:
		return "sign"
	case cmdPublicKey:
		return "pubkey"
	default:
		return "unknown"
	}
}

func okLabel(ok bool) string {
	if ok {
		return "true"
	}
	return "false"
}
