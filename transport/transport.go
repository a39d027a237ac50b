// Package transport implements the framed transport: a length-prefixed
// JSON decoder/encoder over a stdio-attached adapter child process, with
// request/response correlation by sequence number and asynchronous
// event/error/exit streams.
package transport

import (
	"context"

	"github.com/viant/dbgadapter"
)

// DispatchRequest handles an adapter-initiated request (the rare reverse
// channel some adapters use). The default behavior, if none is supplied,
// is to respond with an empty success.
type DispatchRequest func(ctx context.Context, request *dbgadapter.Request) *dbgadapter.Response

// Transport is what AdapterSession (package session) is built on: send a
// request and await its response, or push a response for a reverse-channel
// request, while events/errors/exit are observed independently.
type Transport interface {
	// Send transmits request, assigning it a fresh sequence number, and
	// blocks until the matching response arrives or the context/run timeout
	// expires.
	Send(ctx context.Context, command string, arguments interface{}) (*dbgadapter.Response, error)

	// SendResponse answers a reverse-direction request from the adapter.
	SendResponse(ctx context.Context, response *dbgadapter.Response) error

	// Events streams adapter-pushed events in arrival order.
	Events() <-chan *dbgadapter.Event

	// ServerErrors streams non-terminal protocol errors (ProtocolFramingError):
	// malformed headers, bodies that fail to parse.
	ServerErrors() <-chan error

	// Exit closes when the underlying transport has terminated, after every
	// pending request has been failed with TransportClosedError.
	Exit() <-chan struct{}

	// Close releases the transport. Idempotent.
	Close() error
}
