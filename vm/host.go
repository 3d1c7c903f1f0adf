// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"sync"

	"github.com/erynoa/core/trust"
)

// HostInterface is the sandbox boundary (§4.4): the only way bytecode can
// observe state outside its own stack and constants. Every method an
// implementation does not support must return errkind.ErrNotFound-wrapped
// errors rather than panicking — the VM has no other way to fail safely.
type HostInterface interface {
	GetTrustVector(did string) (trust.Vector6D, error)
	HasCredential(did, credential string) (bool, error)
	GetBalance(did string) (float64, error)
	ResolveDID(did string) (bool, error)
	GetTimestamp() (uint64, error)
	Log(message string) error
}

// StubHost is a deterministic, in-memory HostInterface implementation for
// tests and local `vm run` invocations, grounded on the original
// implementation's own stub host: known_dids empty means permissive
// (every DID resolves, unknown DIDs get a conservative Newcomer trust
// vector); once any DID is registered, unknown DIDs fail to resolve.
type StubHost struct {
	UnsupportedStore

	mu sync.Mutex

	defaultTrust   trust.Vector6D
	trustOverrides map[string]trust.Vector6D
	balances       map[string]float64
	credentials    map[string]map[string]bool
	knownDIDs      map[string]bool
	timestamp      uint64
	logs           []string
}

// NewStubHost constructs a StubHost with the conservative Newcomer trust
// vector as its default.
func NewStubHost() *StubHost {
	return &StubHost{
		defaultTrust:   trust.NewcomerVector(),
		trustOverrides: make(map[string]trust.Vector6D),
		balances:       make(map[string]float64),
		credentials:    make(map[string]map[string]bool),
		knownDIDs:      make(map[string]bool),
	}
}

// WithTrust registers an explicit trust vector for did.
func (h *StubHost) WithTrust(did string, v trust.Vector6D) *StubHost {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.knownDIDs[did] = true
	h.trustOverrides[did] = v
	return h
}

// WithBalance registers a balance for did.
func (h *StubHost) WithBalance(did string, balance float64) *StubHost {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.knownDIDs[did] = true
	h.balances[did] = balance
	return h
}

// WithCredential marks did as holding credential.
func (h *StubHost) WithCredential(did, credential string) *StubHost {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.knownDIDs[did] = true
	if h.credentials[did] == nil {
		h.credentials[did] = make(map[string]bool)
	}
	h.credentials[did][credential] = true
	return h
}

// WithTimestamp fixes the clock GetTimestamp returns.
func (h *StubHost) WithTimestamp(ts uint64) *StubHost {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timestamp = ts
	return h
}

// GetLogs returns every message passed to Log, in call order.
func (h *StubHost) GetLogs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.logs...)
}

func (h *StubHost) GetTrustVector(did string) (trust.Vector6D, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if v, ok := h.trustOverrides[did]; ok {
		return v, nil
	}
	if len(h.knownDIDs) == 0 {
		return h.defaultTrust, nil
	}
	if !h.knownDIDs[did] {
		return trust.NewcomerVector(), nil
	}
	return h.defaultTrust, nil
}

func (h *StubHost) HasCredential(did, credential string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.credentials[did][credential], nil
}

func (h *StubHost) GetBalance(did string) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.balances[did], nil
}

func (h *StubHost) ResolveDID(did string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.knownDIDs) == 0 {
		return true, nil
	}
	return h.knownDIDs[did], nil
}

func (h *StubHost) GetTimestamp() (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timestamp, nil
}

func (h *StubHost) Log(message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, message)
	return nil
}
