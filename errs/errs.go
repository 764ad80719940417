// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package errs defines the classification scheme shared by all protocol
// failures. Each domain package owns its concrete error types; this package
// only fixes the common shape: a stable string identifier, a permanence
// class and an optional structured payload for RPC reporting.
package errs

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Class tells whether an operation failing with this error may become valid
// if retried against a later context.
type Class uint8

const (
	// Permanent marks input or logic errors. Retrying the same operation
	// can never succeed.
	Permanent Class = iota
	// Temporary marks state-dependent errors. The same operation may
	// succeed against a different context.
	Temporary
)

func (c Class) String() string {
	if c == Permanent {
		return "permanent"
	}
	return "temporary"
}

// ProtocolError is implemented by every typed protocol failure.
type ProtocolError interface {
	error
	// ErrorID returns the stable identifier, e.g. "delegate.no_deletion".
	ErrorID() string
	// Class returns the permanence classification.
	Class() Class
}

// IsID reports whether err (or any error it wraps) is a protocol error with
// the given identifier.
func IsID(err error, id string) bool {
	var perr ProtocolError
	if errors.As(err, &perr) {
		return perr.ErrorID() == id
	}
	return false
}

// Classify extracts the classification of err. The second return value is
// false when err carries no protocol error.
func Classify(err error) (Class, bool) {
	var perr ProtocolError
	if errors.As(err, &perr) {
		return perr.Class(), true
	}
	return 0, false
}

// JSON renders err the way RPC responses expect it. Protocol errors carry
// their identifier and class next to the payload fields of the concrete
// type; plain errors degrade to a message-only object.
func JSON(err error) json.RawMessage {
	var perr ProtocolError
	if errors.As(err, &perr) {
		payload, jerr := json.Marshal(perr)
		if jerr != nil || len(payload) == 0 {
			payload = []byte("{}")
		}
		head, _ := json.Marshal(map[string]string{
			"id":   perr.ErrorID(),
			"kind": perr.Class().String(),
			"msg":  perr.Error(),
		})
		if string(payload) == "{}" {
			return head
		}
		// splice payload fields after the head fields
		merged := append(head[:len(head)-1], ',')
		merged = append(merged, payload[1:]...)
		return merged
	}
	raw, _ := json.Marshal(map[string]string{"msg": err.Error()})
	return raw
}
