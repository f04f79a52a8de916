// Package entity defines the response shapes of the web layer.
package entity

// Msg is the panel's JSON envelope.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// APIError is the REST API error body. The detail string is deliberately
// generic; internal failures are logged server-side only.
type APIError struct {
	Detail string `json:"detail"`
}
