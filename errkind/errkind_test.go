// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package errkind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	require := require.New(t)

	err := fmt.Errorf("%w: identity alice", ErrNotFound)
	require.True(errors.Is(err, ErrNotFound))
}

func TestIsFatal(t *testing.T) {
	require := require.New(t)

	require.True(IsFatal(&FinalityRegression{Old: 2, New: 0}))
	require.True(IsFatal(&CausalOrderViolation{Detail: "x"}))
	require.True(IsFatal(&Internal{Detail: "x"}))
	require.False(IsFatal(ErrNotFound))
	require.False(IsFatal(fmt.Errorf("%w: x", ErrGasExhausted)))
}

func TestTrustGateBlockedDetail_Unwraps(t *testing.T) {
	require := require.New(t)

	err := &TrustGateBlockedDetail{Required: 0.5, Actual: 0.1}
	require.True(errors.Is(err, ErrTrustGateBlocked))
}
