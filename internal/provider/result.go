package provider

import (
	"encoding/json"
	"fmt"

	"ddnsup/internal/response"
)

// Status is the outcome of a provider call
type Status int

const (
	// StatusFailure means the record was not updated
	StatusFailure Status = iota
	// StatusSuccess means the provider confirmed the update
	StatusSuccess
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failure"
}

// Result is the parsed provider reply. Address is set on success, Message
// may be set on failure.
type Result struct {
	Status  Status
	Address string
	Message string
}

// Success returns a successful result confirming address
func Success(address string) Result {
	return Result{Status: StatusSuccess, Address: address}
}

// Failure returns a failed result with an optional message
func Failure(message string) Result {
	return Result{Status: StatusFailure, Message: message}
}

// OK reports whether the update was applied
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// ParseResult decodes a reply body. Anything other than a well-formed
// document with Status "success" and a non-empty Address is a failure.
// Field names must match exactly; a lower-case "status" is not a Status.
func ParseResult(body []byte) Result {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return Failure(fmt.Sprintf("malformed provider response: %v", err))
	}

	var fields [3]string
	for i, key := range []string{"Status", "Message", "Address"} {
		v, err := stringField(doc, key)
		if err != nil {
			return Failure(fmt.Sprintf("malformed provider response: %v", err))
		}
		fields[i] = v
	}
	resp := response.New(fields[0], fields[1], response.WithHostInfo("", fields[2]))

	if !resp.IsSuccess() {
		return Failure(resp.Message)
	}
	if resp.Address == "" {
		return Failure("provider reported success without an address")
	}
	return Success(resp.Address)
}

// stringField returns doc[key] as a string, "" when absent or null
func stringField(doc map[string]json.RawMessage, key string) (string, error) {
	raw, ok := doc[key]
	if !ok {
		return "", nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("field %s: %w", key, err)
	}
	if s == nil {
		return "", nil
	}
	return *s, nil
}
