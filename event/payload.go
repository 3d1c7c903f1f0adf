// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package event

// PayloadKind discriminates the closed set of event payload variants (§3).
type PayloadKind uint8

const (
	PayloadTransfer PayloadKind = iota
	PayloadAttest
	PayloadDelegate
	PayloadCredentialIssue
	PayloadCustom
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadTransfer:
		return "transfer"
	case PayloadAttest:
		return "attest"
	case PayloadDelegate:
		return "delegate"
	case PayloadCredentialIssue:
		return "credential_issue"
	case PayloadCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Payload is the tagged variant an event carries. Type is only meaningful for
// PayloadCustom (a free-form event-type string, e.g. "violation.spam"); Data
// is the variant's opaque body.
type Payload struct {
	Kind PayloadKind
	Type string
	Data []byte
}

// Transfer builds a Transfer payload.
func Transfer(data []byte) Payload {
	return Payload{Kind: PayloadTransfer, Data: data}
}

// Attest builds an Attest payload.
func Attest(data []byte) Payload {
	return Payload{Kind: PayloadAttest, Data: data}
}

// Delegate builds a Delegate payload.
func Delegate(data []byte) Payload {
	return Payload{Kind: PayloadDelegate, Data: data}
}

// CredentialIssue builds a CredentialIssue payload.
func CredentialIssue(data []byte) Payload {
	return Payload{Kind: PayloadCredentialIssue, Data: data}
}

// Custom builds a Custom payload with a free-form event-type string.
func Custom(eventType string, data []byte) Payload {
	return Payload{Kind: PayloadCustom, Type: eventType, Data: data}
}
