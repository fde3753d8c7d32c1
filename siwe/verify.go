package siwe

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	nonceKey   = "Nonce"
	addressKey = "address"
)

// Reason classifies why a payload was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMissingField
	ReasonMissingNonce
	ReasonNonceMismatch
	ReasonUnexpected
	ReasonSignature
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMissingField:
		return "missing_field"
	case ReasonMissingNonce:
		return "missing_nonce"
	case ReasonNonceMismatch:
		return "nonce_mismatch"
	case ReasonUnexpected:
		return "unexpected_error"
	case ReasonSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// WalletAuthPayload is the successful result of a wallet auth command.
type WalletAuthPayload struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Address   string `json:"address"`
	Version   int    `json:"version"`
}

// MessageData holds what was extracted from a valid message. It encodes as a
// flat object: the parsed key lines plus "address".
type MessageData struct {
	Address string
	Fields  map[string]string
}

func (d MessageData) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(d.Fields)+1)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[addressKey] = d.Address
	return json.Marshal(out)
}

// Result is the outcome of Verify. It is a value, never an error.
type Result struct {
	IsValid bool         `json:"isValid"`
	Error   string       `json:"error,omitempty"`
	Reason  Reason       `json:"-"`
	Data    *MessageData `json:"siweMessageData,omitempty"`
}

func invalid(reason Reason, msg string) Result {
	return Result{Reason: reason, Error: msg}
}

// Verify checks that the message in payload carries the expected nonce and
// extracts the lower-cased signing address.
//
// The signature is NOT checked here. Callers must have verified it for the
// payload address beforehand; Validator enforces that ordering.
func Verify(payload *WalletAuthPayload, nonce string) Result {
	if res, ok := checkPayload(payload); !ok {
		return res
	}
	return guard(func() Result {
		return verifyMessage(payload, nonce)
	})
}

func checkPayload(payload *WalletAuthPayload) (Result, bool) {
	switch {
	case payload == nil:
		return invalid(ReasonMissingField, "No payload provided"), false
	case payload.Message == "":
		return invalid(ReasonMissingField, "No message in payload"), false
	case payload.Signature == "":
		return invalid(ReasonMissingField, "No signature in payload"), false
	case payload.Address == "":
		return invalid(ReasonMissingField, "No address in payload"), false
	}
	return Result{}, true
}

func verifyMessage(payload *WalletAuthPayload, nonce string) Result {
	msg := ParseMessage(payload.Message)

	got, ok := msg.Lookup(nonceKey)
	if !ok {
		return invalid(ReasonMissingNonce, "No nonce found in message")
	}

	// Nonces are anti-replay tokens, not secrets.
	if got != nonce {
		return invalid(ReasonNonceMismatch, fmt.Sprintf("Nonce mismatch. Got: %s, Expected: %s", got, nonce))
	}

	address, ok := msg.Lookup(addressKey)
	if !ok {
		address = payload.Address
	}

	fields := msg.Values()
	delete(fields, addressKey)

	return Result{
		IsValid: true,
		Data: &MessageData{
			Address: strings.ToLower(address),
			Fields:  fields,
		},
	}
}

// guard turns a panic inside fn into an invalid result.
func guard(fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = invalid(ReasonUnexpected, panicMessage(r))
		}
	}()
	return fn()
}

func panicMessage(r interface{}) string {
	switch v := r.(type) {
	case error:
		if msg := v.Error(); msg != "" {
			return msg
		}
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		if msg := v.String(); msg != "" {
			return msg
		}
	}
	return "Unknown verification error"
}
