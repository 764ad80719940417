// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"
)

func defaultKeystoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kiln-signer"
	}
	return filepath.Join(home, ".kiln-signer", "keystore")
}

var (
	keystoreFlag = cli.StringFlag{
		Name:  "keystore",
		Value: defaultKeystoreDir(),
		Usage: "keystore directory path",
	}
	addrFlag = cli.StringFlag{
		Name:  "addr",
		Value: "127.0.0.1:7732",
		Usage: "listen address",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "config file path (yaml)",
	}
	schemeFlag = cli.StringFlag{
		Name:  "scheme",
		Value: "ed25519",
		Usage: "signature scheme (ed25519|secp256k1)",
	}
	aliasFlag = cli.StringFlag{
		Name:  "alias",
		Usage: "key alias",
	}
	passphraseFlag = cli.StringFlag{
		Name:  "passphrase",
		Usage: "key passphrase",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-4)",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
)
