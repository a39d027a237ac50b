// Package dbgadapter implements the adapter-side wire protocol used to talk
// to a stdio-attached debug adapter process: length-prefixed JSON frames
// carrying requests, responses and events.
package dbgadapter

import (
	"github.com/goccy/go-json"
)

// MessageType identifies which of the three adapter-protocol message shapes
// a frame decodes to.
type MessageType string

const (
	MessageTypeRequest  MessageType = "request"
	MessageTypeResponse MessageType = "response"
	MessageTypeEvent    MessageType = "event"
)

// Request is an adapter-protocol request, sent either by us (typed methods
// in package session) or, rarely, by the adapter itself over the reverse
// channel.
type Request struct {
	Seq       int             `json:"seq"`
	Type      MessageType     `json:"type"`
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response is an adapter-protocol response, correlated back to a Request by
// RequestSeq.
type Response struct {
	Seq        int             `json:"seq"`
	Type       MessageType     `json:"type"`
	RequestSeq int             `json:"request_seq"`
	Success    bool            `json:"success"`
	Command    string          `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Event is an asynchronous adapter-protocol event (stopped, continued,
// output, thread, breakpoint, initialized, terminated, exited, ...).
type Event struct {
	Seq   int             `json:"seq"`
	Type  MessageType     `json:"type"`
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// probe is the minimal shape needed to classify a raw frame by type without
// paying for a full unmarshal into Request/Response/Event.
type probe struct {
	Type MessageType `json:"type"`
}

// Classify returns the MessageType of a raw adapter-protocol frame.
func Classify(data []byte) MessageType {
	p := probe{}
	_ = json.Unmarshal(data, &p)
	return p.Type
}

// NewRequest builds a Request with the given sequence number and command.
// Arguments are marshaled permissively: strings/[]byte/json.RawMessage pass
// through untouched, everything else is marshaled.
func NewRequest(seq int, command string, arguments interface{}) (*Request, error) {
	raw, err := asArguments(arguments)
	if err != nil {
		return nil, err
	}
	return &Request{Seq: seq, Type: MessageTypeRequest, Command: command, Arguments: raw}, nil
}

func asArguments(arguments interface{}) (json.RawMessage, error) {
	if arguments == nil {
		return nil, nil
	}
	switch actual := arguments.(type) {
	case string:
		return json.RawMessage(actual), nil
	case []byte:
		return actual, nil
	case json.RawMessage:
		return actual, nil
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}
