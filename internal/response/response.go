// Package response defines the JSON document returned by the update endpoint.
package response

import "encoding/json"

// Status values carried in Response.Status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type (
	// Response is the body of every update endpoint reply
	Response struct {
		Status   string
		Message  string
		Hostname string `json:",omitempty"`
		Address  string `json:",omitempty"`
		Result   string `json:",omitempty"`
	}

	// Modifier sets optional fields on a Response
	Modifier func(*Response)
)

// New builds a response with the given status and message
func New(status, message string, mods ...Modifier) *Response {
	resp := Response{
		Status:  status,
		Message: message,
	}

	for _, mod := range mods {
		mod(&resp)
	}

	return &resp
}

// Success builds a success response
func Success(message string, mods ...Modifier) *Response {
	return New(StatusSuccess, message, mods...)
}

// Error builds an error response
func Error(message string, mods ...Modifier) *Response {
	return New(StatusError, message, mods...)
}

// WithHostInfo records the updated hostname and address
func WithHostInfo(hostname, address string) Modifier {
	return func(resp *Response) {
		resp.Hostname = hostname
		resp.Address = address
	}
}

// WithResult attaches the DNS backend's result or error text
func WithResult(res string) Modifier {
	return func(resp *Response) {
		resp.Result = res
	}
}

// IsSuccess reports whether the status is exactly "success"
func (resp *Response) IsSuccess() bool {
	return resp.Status == StatusSuccess
}

// String returns the JSON encoding
func (resp *Response) String() string {
	text, err := json.Marshal(resp)
	if err != nil {
		// only string fields, cannot fail
		panic(err)
	}

	return string(text)
}
