// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xid implements UniversalId: a 32-byte content-addressed identifier
// carrying a one-byte kind tag and a 31-byte content hash.
package xid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind tags the first byte of a UniversalId.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindEvent
	KindIdentity
	KindRealm
	KindContribution
	KindAttestation
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindIdentity:
		return "identity"
	case KindRealm:
		return "realm"
	case KindContribution:
		return "contribution"
	case KindAttestation:
		return "attestation"
	default:
		return "unknown"
	}
}

// ID is a 32-byte content-addressed identifier: byte 0 is the Kind, bytes
// 1..31 are a content hash. Equality is bytewise; ordering is total (by raw
// bytes, which orders by Kind first since it occupies byte 0).
type ID [32]byte

// Nil is the zero ID, used as a sentinel "absent" value.
var Nil ID

// New derives an ID of the given kind from arbitrary content bytes via
// SHA-256, truncated to the 31 hash bytes the format allows.
func New(kind Kind, content []byte) ID {
	sum := sha256.Sum256(content)
	var id ID
	id[0] = byte(kind)
	copy(id[1:], sum[:31])
	return id
}

// Kind returns the id's kind tag.
func (id ID) Kind() Kind {
	return Kind(id[0])
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}

// Compare returns -1, 0, or 1 following the total order over raw bytes.
func (id ID) Compare(other ID) int {
	for i := range id {
		if id[i] < other[i] {
			return -1
		}
		if id[i] > other[i] {
			return 1
		}
	}
	return 0
}

// Less reports whether id sorts before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

// String renders the id as "<kind>:<hex>".
func (id ID) String() string {
	return fmt.Sprintf("%s:%s", id.Kind(), hex.EncodeToString(id[1:]))
}

// Bytes returns the raw 32 bytes.
func (id ID) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, id[:])
	return out
}

// Parse reconstructs an ID from its raw 32-byte representation.
func Parse(b []byte) (ID, error) {
	var id ID
	if len(b) != 32 {
		return id, fmt.Errorf("xid: expected 32 bytes, got %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

func kindFromString(s string) (Kind, bool) {
	switch s {
	case "event":
		return KindEvent, true
	case "identity":
		return KindIdentity, true
	case "realm":
		return KindRealm, true
	case "contribution":
		return KindContribution, true
	case "attestation":
		return KindAttestation, true
	default:
		return KindUnknown, false
	}
}

// ParseString is String's inverse: it parses the "<kind>:<hex>" form back
// into an ID, for CLI arguments and HTTP path parameters.
func ParseString(s string) (ID, error) {
	kindName, hexPart, ok := strings.Cut(s, ":")
	if !ok {
		return Nil, fmt.Errorf("xid: %q is not in <kind>:<hex> form", s)
	}
	kind, ok := kindFromString(kindName)
	if !ok {
		return Nil, fmt.Errorf("xid: unknown kind %q", kindName)
	}
	sum, err := hex.DecodeString(hexPart)
	if err != nil {
		return Nil, fmt.Errorf("xid: invalid hex in %q: %w", s, err)
	}
	if len(sum) != 31 {
		return Nil, fmt.Errorf("xid: expected 31 hash bytes, got %d", len(sum))
	}
	var id ID
	id[0] = byte(kind)
	copy(id[1:], sum)
	return id, nil
}
