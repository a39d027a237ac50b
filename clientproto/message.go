// Package clientproto defines the Chrome-DevTools-style wire shapes spoken
// on the client side of the bridge, plus the Callback sink the translator
// consumes but never bootstraps.
package clientproto

import "github.com/goccy/go-json"

// Request is a client-issued command: `{id, method, params}`.
type Request struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ErrorBody is the error payload of a failed Response.
type ErrorBody struct {
	Message string `json:"message"`
}

// Response answers a Request by ID with either Result or Error, never both.
type Response struct {
	ID     int         `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// Event is a server-pushed notification with no ID: `{method, params}`.
type Event struct {
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// OK builds a successful Response.
func OK(id int, result interface{}) Response {
	if result == nil {
		result = struct{}{}
	}
	return Response{ID: id, Result: result}
}

// Errorf builds a failed Response carrying message.
func Errorf(id int, message string) Response {
	return Response{ID: id, Error: &ErrorBody{Message: message}}
}

// Callback is the client transport collaborator injected into the bridge:
// it is consumed as a sink, never bootstrapped. Implementations live
// outside this module; the translator only calls these three methods.
type Callback interface {
	// SendChromeMessage writes one already-encoded client wire message
	// (a Request echo, Response, or Event) to the client transport.
	SendChromeMessage(message []byte) error

	// Notify surfaces a toast-level notification to the user, independent
	// of the structured wire channel.
	Notify(level, message string) error

	// Output appends one already-formatted line to the user-visible output
	// pane. category is the mapped severity/channel (e.g. "log", "error")
	// used to route the line within a multi-channel output pane.
	Output(category, line string) error
}

// Send marshals and writes a Response via cb.
func Send(cb Callback, response Response) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return cb.SendChromeMessage(data)
}

// Emit marshals and writes an Event via cb.
func Emit(cb Callback, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return cb.SendChromeMessage(data)
}
