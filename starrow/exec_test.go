// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package starrow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/Query-farm/starrow/starrow"
)

func TestEvalExpression(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	v, err := sess.Eval(`1 + 2`, nil)
	require.NoError(t, err)
	assert.Equal(t, "3", v.String())
}

func TestRunPredeclared(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	opts := &starrow.RunOptions{
		Predeclared: starlark.StringDict{"n": starlark.MakeInt(5)},
	}
	v, err := sess.Eval(`n * 2`, opts)
	require.NoError(t, err)
	assert.Equal(t, "10", v.String())
}

func TestRunPrint(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	var lines []string
	opts := &starrow.RunOptions{
		Print: func(_ *starlark.Thread, msg string) { lines = append(lines, msg) },
	}
	_, err := sess.Run("print.star", `print("hello")`, opts)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0])
}

func TestRunStepLimit(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	opts := &starrow.RunOptions{MaxSteps: 100}
	_, err := sess.Run("spin.star", `
def spin():
    x = 0
    for i in range(1000000):
        x += 1
    return x

total = spin()
`, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many steps")
}

func TestRunTimeout(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	opts := &starrow.RunOptions{
		MaxSteps: 1 << 60,
		Timeout:  50 * time.Millisecond,
	}
	_, err := sess.Run("spin.star", `
def spin():
    x = 0
    for i in range(1 << 40):
        x += 1
    return x

total = spin()
`, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunSyntaxError(t *testing.T) {
	sess := starrow.NewSession()
	defer sess.Close()

	_, err := sess.Run("bad.star", `def (:`, nil)
	require.Error(t, err)
}
