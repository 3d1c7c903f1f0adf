// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package event implements the Event Engine (C2): a causal DAG of events
// with monotonically advancing finality levels.
package event

import (
	"fmt"

	"github.com/erynoa/core/xid"
)

// FinalityLevel is a totally ordered progression an event's finality can
// only move forward through (Κ10): Nascent < Validated < Witnessed <
// Anchored < Eternal.
type FinalityLevel uint8

const (
	Nascent FinalityLevel = iota
	Validated
	Witnessed
	Anchored
	Eternal
)

func (f FinalityLevel) String() string {
	switch f {
	case Nascent:
		return "nascent"
	case Validated:
		return "validated"
	case Witnessed:
		return "witnessed"
	case Anchored:
		return "anchored"
	case Eternal:
		return "eternal"
	default:
		return "unknown"
	}
}

// Valid reports whether f is one of the defined levels.
func (f FinalityLevel) Valid() bool {
	return f <= Eternal
}

// Event is one node of the causal DAG (§3).
type Event struct {
	ID        xid.ID
	Parents   []xid.ID
	Creator   xid.ID
	Payload   Payload
	Finality  FinalityLevel
	Timestamp uint64 // logical clock value at admission
}

// NewEvent derives an Event's ID from its creator, parents, and payload, so
// identical content always produces the same ID (content addressing).
func NewEvent(creator xid.ID, parents []xid.ID, payload Payload, timestamp uint64) *Event {
	buf := make([]byte, 0, len(payload.Data)+len(payload.Type)+len(parents)*32+33)
	buf = append(buf, creator.Bytes()...)
	for _, p := range parents {
		buf = append(buf, p.Bytes()...)
	}
	buf = append(buf, byte(payload.Kind))
	buf = append(buf, payload.Type...)
	buf = append(buf, payload.Data...)
	id := xid.New(xid.KindEvent, buf)
	return &Event{
		ID:        id,
		Parents:   parents,
		Creator:   creator,
		Payload:   payload,
		Finality:  Nascent,
		Timestamp: timestamp,
	}
}

func (e *Event) String() string {
	return fmt.Sprintf("event{%s finality=%s parents=%d}", e.ID, e.Finality, len(e.Parents))
}
