// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEvent_ContentAddressed(t *testing.T) {
	require := require.New(t)

	alice := mkCreator("alice")
	a := NewEvent(alice, nil, Custom("test", []byte("payload")), 0)
	b := NewEvent(alice, nil, Custom("test", []byte("payload")), 0)
	require.Equal(a.ID, b.ID)

	c := NewEvent(alice, nil, Custom("test", []byte("different")), 0)
	require.NotEqual(a.ID, c.ID)

	d := NewEvent(alice, nil, Transfer([]byte("payload")), 0)
	require.NotEqual(a.ID, d.ID, "payload kind must distinguish otherwise-identical content")
}

func TestFinalityLevel_OrdersCorrectly(t *testing.T) {
	require := require.New(t)
	require.True(Nascent < Validated)
	require.True(Validated < Witnessed)
	require.True(Witnessed < Anchored)
	require.True(Anchored < Eternal)
}
