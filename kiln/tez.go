// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kiln

import (
	"fmt"
	"math"

	"github.com/kiln-chain/kiln/errs"
)

// Tez is a token amount with micro-token granularity. It is never negative;
// arithmetic is checked and fails explicitly instead of wrapping.
type Tez uint64

const (
	// MicroToken is the smallest representable amount.
	MicroToken Tez = 1
	// OneToken is one whole token.
	OneToken Tez = 1_000_000
)

// String formats the amount in whole tokens with micro-token precision.
func (a Tez) String() string {
	return fmt.Sprintf("%d.%06d", uint64(a)/uint64(OneToken), uint64(a)%uint64(OneToken))
}

// Add returns a+b, or an overflow error.
func (a Tez) Add(b Tez) (Tez, error) {
	if a > math.MaxUint64-b {
		return 0, &AdditionOverflowError{A: a, B: b}
	}
	return a + b, nil
}

// Sub returns a-b, or an underflow error.
func (a Tez) Sub(b Tez) (Tez, error) {
	if b > a {
		return 0, &SubtractionUnderflowError{A: a, B: b}
	}
	return a - b, nil
}

// AdditionOverflowError is returned when the sum of two amounts exceeds the
// representable range.
type AdditionOverflowError struct {
	A Tez `json:"amount"`
	B Tez `json:"addend"`
}

var _ errs.ProtocolError = (*AdditionOverflowError)(nil)

func (e *AdditionOverflowError) Error() string {
	return fmt.Sprintf("addition of %v and %v overflows", e.A, e.B)
}
func (e *AdditionOverflowError) ErrorID() string { return "tez.addition_overflow" }
func (e *AdditionOverflowError) Class() errs.Class {
	return errs.Permanent
}

// SubtractionUnderflowError is returned when subtraction would produce a
// negative amount.
type SubtractionUnderflowError struct {
	A Tez `json:"amount"`
	B Tez `json:"subtrahend"`
}

var _ errs.ProtocolError = (*SubtractionUnderflowError)(nil)

func (e *SubtractionUnderflowError) Error() string {
	return fmt.Sprintf("subtraction of %v from %v underflows", e.B, e.A)
}
func (e *SubtractionUnderflowError) ErrorID() string { return "tez.subtraction_underflow" }
func (e *SubtractionUnderflowError) Class() errs.Class {
	return errs.Permanent
}
