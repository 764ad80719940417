// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// kiln-signer runs the remote signing daemon and manages its keystore.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/kiln-chain/kiln/cry"
	"github.com/kiln-chain/kiln/log"
	"github.com/kiln-chain/kiln/metrics"
	"github.com/kiln-chain/kiln/signer"
)

var (
	version   string
	gitCommit string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	if gitCommit == "" {
		return version + "-dev"
	}
	return fmt.Sprintf("%s-%.8s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "kiln-signer",
		Usage:     "Remote signing daemon for Kiln",
		Copyright: "2026 The Kiln developers",
		Commands: []cli.Command{
			{
				Name:  "genkey",
				Usage: "generate a key and store it encrypted in the keystore",
				Flags: []cli.Flag{
					keystoreFlag,
					schemeFlag,
					aliasFlag,
					passphraseFlag,
				},
				Action: genkeyAction,
			},
			{
				Name:  "list",
				Usage: "list stored keys",
				Flags: []cli.Flag{
					keystoreFlag,
				},
				Action: listAction,
			},
			{
				Name:  "serve",
				Usage: "run the signing server",
				Flags: []cli.Flag{
					keystoreFlag,
					addrFlag,
					configFlag,
					verbosityFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(verbosity int) {
	lvl := new(slog.LevelVar)
	switch verbosity {
	case 0:
		lvl.Set(log.LevelError)
	case 1:
		lvl.Set(log.LevelWarn)
	case 2:
		lvl.Set(log.LevelInfo)
	case 3:
		lvl.Set(log.LevelDebug)
	default:
		lvl.Set(log.LevelTrace)
	}
	log.SetRootHandler(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true))
}

func genkeyAction(ctx *cli.Context) error {
	alias := ctx.String(aliasFlag.Name)
	if alias == "" {
		return errors.New("-alias is required")
	}
	ks, err := cry.NewKeystore(ctx.String(keystoreFlag.Name))
	if err != nil {
		return err
	}
	key, err := cry.GenerateKey(cry.Scheme(ctx.String(schemeFlag.Name)))
	if err != nil {
		return err
	}
	if err := ks.Store(alias, key, ctx.String(passphraseFlag.Name)); err != nil {
		return err
	}
	fmt.Printf("%s\t%s\t%s\n", alias, key.Scheme(), key.Address())
	return nil
}

func listAction(ctx *cli.Context) error {
	ks, err := cry.NewKeystore(ctx.String(keystoreFlag.Name))
	if err != nil {
		return err
	}
	entries, err := ks.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\n", e.Alias, e.Scheme, e.Address)
	}
	return nil
}

func serveAction(cliCtx *cli.Context) error {
	initLogger(cliCtx.Int(verbosityFlag.Name))

	listen := cliCtx.String(addrFlag.Name)
	keystoreDir := cliCtx.String(keystoreFlag.Name)
	metricsOn := cliCtx.Bool(enableMetricsFlag.Name)
	metricsAddr := cliCtx.String(metricsAddrFlag.Name)

	var cfg *Config
	if path := cliCtx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = loadConfig(path); err != nil {
			return err
		}
		if cfg.Listen != "" {
			listen = cfg.Listen
		}
		if cfg.Keystore != "" {
			keystoreDir = cfg.Keystore
		}
		if cfg.Metrics.Enabled {
			metricsOn = true
		}
		if cfg.Metrics.Addr != "" {
			metricsAddr = cfg.Metrics.Addr
		}
	}

	ks, err := cry.NewKeystore(keystoreDir)
	if err != nil {
		return err
	}
	server := signer.NewServer(ks)
	if cfg != nil {
		for _, u := range cfg.Unlock {
			if err := server.Unlock(u.Alias, u.Passphrase); err != nil {
				return err
			}
		}
	}

	if metricsOn {
		metrics.InitializePrometheusMetrics()
		go func() {
			logger.Info("metrics server started", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, metrics.HTTPHandler()); err != nil {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
	}

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	logger.Info("signer listening", "addr", listener.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, listener)
}
