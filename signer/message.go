// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package signer

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// request commands
const (
	cmdSign uint8 = iota + 1
	cmdPublicKey
)

type request struct {
	Cmd   uint8
	Alias string
	Data  []byte
}

type response struct {
	Err    string
	Scheme string
	Data   []byte
}

func writeMessage(w io.Writer, msg any) error {
	payload, err := rlp.EncodeToBytes(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

func readMessage(r io.Reader, msg any) error {
	payload, err := ReadFrame(r)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(payload, msg)
}
