// Copyright (c) 2026 The Kiln developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	SetRootHandler(NewTerminalHandler(&buf, false))
	defer SetRootHandler(DiscardHandler())

	logger := WithContext("pkg", "log")
	logger.Info("hello", "n", 42, "s", "world")

	out := buf.String()
	assert.Contains(t, out, "INFO ")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, `pkg="log"`)
	assert.Contains(t, out, "n=42")
	assert.Contains(t, out, `s="world"`)
}

func TestTerminalHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelWarn)
	SetRootHandler(NewTerminalHandlerWithLevel(&buf, &lvl, false))
	defer SetRootHandler(DiscardHandler())

	Root().Debug("dropped")
	Root().Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestLogfmtBigNumbers(t *testing.T) {
	var buf bytes.Buffer
	SetRootHandler(LogfmtHandler(&buf))
	defer SetRootHandler(DiscardHandler())

	Root().Info("numbers",
		"big", new(big.Int).SetUint64(123456789),
		"u256", uint256.NewInt(987654321),
		"nilbig", (*big.Int)(nil),
	)

	out := buf.String()
	assert.Contains(t, out, "big=123456789")
	assert.Contains(t, out, "u256=987654321")
	assert.Contains(t, out, "nilbig=<nil>")
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "trace", LevelString(LevelTrace))
	assert.Equal(t, "error", LevelString(LevelError))
}

func TestWithContextLazy(t *testing.T) {
	logger := WithContext("pkg", "lazy")

	var buf bytes.Buffer
	SetRootHandler(NewTerminalHandler(&buf, false))
	defer SetRootHandler(DiscardHandler())

	logger.Info("after handler set")
	assert.True(t, strings.Contains(buf.String(), "after handler set"))
}
