package transport

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/viant/dbgadapter"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// newLoopbackClient wires a Client to an in-process fake adapter that reads
// requests off one pipe and writes responses onto another, exercising the
// real Content-Length framing end to end.
func newLoopbackClient(t *testing.T, respond func(req *dbgadapter.Request) *dbgadapter.Response) *Client {
	t.Helper()
	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	client := New(clientIn, clientOut, nopCloser{clientOut}, WithRunTimeout(2*time.Second))

	go func() {
		dec := NewDecoder(bufio.NewReader(serverIn))
		w := NewFrameWriter(serverOut)
		for {
			data, err := dec.ReadFrame()
			if err != nil {
				return
			}
			req := &dbgadapter.Request{}
			if err := json.Unmarshal(data, req); err != nil {
				return
			}
			resp := respond(req)
			resp.RequestSeq = req.Seq
			resp.Type = dbgadapter.MessageTypeResponse
			resp.Command = req.Command
			_ = w.WriteMessage(resp)
		}
	}()
	return client
}

func TestClient_SendSuccess(t *testing.T) {
	client := newLoopbackClient(t, func(req *dbgadapter.Request) *dbgadapter.Response {
		return &dbgadapter.Response{Success: true, Body: []byte(`{"ok":true}`)}
	})
	defer client.Close()

	resp, err := client.Send(context.Background(), "initialize", map[string]string{"clientID": "test"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %+v", resp)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
}

func TestClient_SendFailure(t *testing.T) {
	client := newLoopbackClient(t, func(req *dbgadapter.Request) *dbgadapter.Response {
		return &dbgadapter.Response{Success: false, Message: "boom"}
	})
	defer client.Close()

	_, err := client.Send(context.Background(), "continue", nil)
	if err == nil {
		t.Fatal("expected an error for a failed adapter response")
	}
	adapterErr, ok := err.(*dbgadapter.AdapterError)
	if !ok {
		t.Fatalf("expected *dbgadapter.AdapterError, got %T: %v", err, err)
	}
	if adapterErr.Message != "boom" {
		t.Fatalf("unexpected message: %s", adapterErr.Message)
	}
}

func TestClient_SeqMonotonicAndDense(t *testing.T) {
	var seqs []int
	client := newLoopbackClient(t, func(req *dbgadapter.Request) *dbgadapter.Response {
		seqs = append(seqs, req.Seq)
		return &dbgadapter.Response{Success: true}
	})
	defer client.Close()

	for i := 0; i < 5; i++ {
		if _, err := client.Send(context.Background(), "noop", nil); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	for i, s := range seqs {
		if s != i+1 {
			t.Fatalf("sequence not dense/monotonic: got %v", seqs)
		}
	}
}

func TestClient_TransportClosedFailsPending(t *testing.T) {
	serverIn, clientOut := io.Pipe()
	clientIn, _ := io.Pipe()
	client := New(clientIn, clientOut, nopCloser{clientOut}, WithRunTimeout(time.Second))

	go func() {
		buf := make([]byte, 1)
		_, _ = serverIn.Read(buf)
		_ = clientIn.Close() // simulate the adapter process exiting mid-request
	}()

	_, err := client.Send(context.Background(), "launch", nil)
	if err == nil {
		t.Fatal("expected an error once the transport closes mid-request")
	}
}

func TestClient_Events(t *testing.T) {
	_, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()
	client := New(clientIn, clientOut, nopCloser{clientOut})
	defer client.Close()

	w := NewFrameWriter(serverOut)
	go func() {
		_ = w.WriteMessage(&dbgadapter.Event{Type: dbgadapter.MessageTypeEvent, Event: "initialized"})
	}()

	select {
	case evt := <-client.Events():
		if evt.Event != "initialized" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
