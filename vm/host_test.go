// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"testing"

	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/trust"
	"github.com/stretchr/testify/require"
)

func TestStubHost_DefaultIsPermissive(t *testing.T) {
	require := require.New(t)

	h := NewStubHost()
	ok, err := h.ResolveDID("did:erynoa:self:anyone")
	require.NoError(err)
	require.True(ok)

	v, err := h.GetTrustVector("did:erynoa:self:anyone")
	require.NoError(err)
	require.Equal(trust.NewcomerVector(), v)
}

func TestStubHost_WithBalance(t *testing.T) {
	require := require.New(t)

	h := NewStubHost().WithBalance("did:erynoa:self:alice", 42)
	bal, err := h.GetBalance("did:erynoa:self:alice")
	require.NoError(err)
	require.Equal(42.0, bal)

	ok, err := h.ResolveDID("did:erynoa:self:stranger")
	require.NoError(err)
	require.False(ok, "registering one DID makes the host strict about unknown DIDs")
}

func TestStubHost_WithCredential(t *testing.T) {
	require := require.New(t)

	h := NewStubHost().WithCredential("did:erynoa:self:alice", "verified-human")
	ok, err := h.HasCredential("did:erynoa:self:alice", "verified-human")
	require.NoError(err)
	require.True(ok)

	ok, err = h.HasCredential("did:erynoa:self:alice", "other")
	require.NoError(err)
	require.False(ok)
}

func TestStoreOf_FallsBackToUnsupported(t *testing.T) {
	require := require.New(t)

	store := StoreOf(NewStubHost())
	_, err := store.StoreGet("profiles", "alice")
	require.ErrorIs(err, errkind.ErrNotSupported)

	err = store.StorePut("profiles", "alice", String("x"))
	require.ErrorIs(err, errkind.ErrNotSupported)

	_, err = store.StoreCount("profiles")
	require.ErrorIs(err, errkind.ErrNotSupported)
}

func TestStubHost_Logging(t *testing.T) {
	require := require.New(t)

	h := NewStubHost()
	require.NoError(h.Log("a"))
	require.NoError(h.Log("b"))
	require.Equal([]string{"a", "b"}, h.GetLogs())
}
