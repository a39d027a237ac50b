package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/viant/dbgadapter"
)

// Client is the concrete Transport implementation: a length-prefixed JSON
// decoder reading the adapter child's stdout, a serializing encoder
// writing its stdin, and the pending-request table that correlates the
// two.
type Client struct {
	writer          *FrameWriter
	decoder         *Decoder
	closer          io.Closer
	pending         *PendingRequests
	seq             uint64
	dispatchRequest DispatchRequest
	logger          dbgadapter.Logger
	runTimeout      time.Duration

	events       chan *dbgadapter.Event
	serverErrors chan error
	exit         chan struct{}
	exitOnce     sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithDispatchRequest overrides the default empty-success handling of
// adapter-initiated requests.
func WithDispatchRequest(fn DispatchRequest) Option {
	return func(c *Client) { c.dispatchRequest = fn }
}

// WithLogger sets the logger used for ProtocolFramingError reporting.
func WithLogger(logger dbgadapter.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRunTimeout bounds how long Send waits for a response before failing
// with a TransportClosedError-shaped timeout.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Client) { c.runTimeout = d }
}

// New wraps stdout/stdin of an already-spawned adapter child process
// (process supervision is out of scope; this consumes an existing pipe
// pair) in a framed Transport. closer is invoked on Close and should
// terminate the underlying pipes (e.g. the process's Stdin writer).
func New(stdout io.Reader, stdin io.Writer, closer io.Closer, opts ...Option) *Client {
	c := &Client{
		writer:       NewFrameWriter(stdin),
		decoder:      NewDecoder(bufio.NewReaderSize(stdout, 64*1024)),
		closer:       closer,
		pending:      NewPendingRequests(),
		logger:       dbgadapter.DefaultLogger,
		runTimeout:   30 * time.Second,
		events:       make(chan *dbgadapter.Event, 64),
		serverErrors: make(chan error, 16),
		exit:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

func (c *Client) nextSeq() int {
	return int(atomic.AddUint64(&c.seq, 1))
}

// Send implements Transport.
func (c *Client) Send(ctx context.Context, command string, arguments interface{}) (*dbgadapter.Response, error) {
	request, err := dbgadapter.NewRequest(c.nextSeq(), command, arguments)
	if err != nil {
		return nil, err
	}
	trip := c.pending.Add(request)
	if err := c.writer.WriteMessage(request); err != nil {
		c.pending.Match(request.Seq)
		return nil, fmt.Errorf("failed to send %q request: %w", command, err)
	}
	return trip.Wait(ctx, c.runTimeout)
}

// SendResponse implements Transport.
func (c *Client) SendResponse(_ context.Context, response *dbgadapter.Response) error {
	response.Type = dbgadapter.MessageTypeResponse
	return c.writer.WriteMessage(response)
}

// Events implements Transport.
func (c *Client) Events() <-chan *dbgadapter.Event { return c.events }

// ServerErrors implements Transport.
func (c *Client) ServerErrors() <-chan error { return c.serverErrors }

// Exit implements Transport.
func (c *Client) Exit() <-chan struct{} { return c.exit }

// Close implements Transport.
func (c *Client) Close() error {
	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}
	c.signalExit(dbgadapter.NewTransportClosedError(nil))
	return err
}

func (c *Client) signalExit(cause error) {
	c.exitOnce.Do(func() {
		c.pending.FailAll(cause)
		close(c.exit)
	})
}

func (c *Client) readLoop() {
	for {
		data, err := c.decoder.ReadFrame()
		if err != nil {
			var framingErr *dbgadapter.ProtocolFramingError
			if errors.As(err, &framingErr) {
				c.reportServerError(err)
				continue
			}
			if err == io.EOF {
				err = nil
			}
			c.signalExit(dbgadapter.NewTransportClosedError(err))
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) reportServerError(err error) {
	if c.logger != nil {
		c.logger.Errorf("%v", err)
	}
	select {
	case c.serverErrors <- err:
	default:
	}
}

func (c *Client) dispatch(data []byte) {
	switch dbgadapter.Classify(data) {
	case dbgadapter.MessageTypeEvent:
		event := &dbgadapter.Event{}
		if err := json.Unmarshal(data, event); err != nil {
			c.reportServerError(dbgadapter.NewProtocolFramingError(err))
			return
		}
		select {
		case c.events <- event:
		default:
			// events channel saturated; drop the oldest rather than block
			// the decode loop (the transport must keep reading to avoid
			// starving in-flight responses).
			select {
			case <-c.events:
			default:
			}
			c.events <- event
		}
	case dbgadapter.MessageTypeResponse:
		response := &dbgadapter.Response{}
		if err := json.Unmarshal(data, response); err != nil {
			c.reportServerError(dbgadapter.NewProtocolFramingError(err))
			return
		}
		trip, ok := c.pending.Match(response.RequestSeq)
		if !ok {
			c.reportServerError(dbgadapter.NewProtocolFramingError(fmt.Errorf("no pending request for request_seq %d", response.RequestSeq)))
			return
		}
		trip.SetResponse(response)
	case dbgadapter.MessageTypeRequest:
		request := &dbgadapter.Request{}
		if err := json.Unmarshal(data, request); err != nil {
			c.reportServerError(dbgadapter.NewProtocolFramingError(err))
			return
		}
		c.serveReverseRequest(request)
	default:
		c.reportServerError(dbgadapter.NewProtocolFramingError(fmt.Errorf("unrecognized frame type")))
	}
}

func (c *Client) serveReverseRequest(request *dbgadapter.Request) {
	var response *dbgadapter.Response
	if c.dispatchRequest != nil {
		response = c.dispatchRequest(context.Background(), request)
	} else {
		response = &dbgadapter.Response{RequestSeq: request.Seq, Success: true, Command: request.Command}
	}
	if response.RequestSeq == 0 {
		response.RequestSeq = request.Seq
	}
	if response.Command == "" {
		response.Command = request.Command
	}
	if err := c.SendResponse(context.Background(), response); err != nil && c.logger != nil {
		c.logger.Errorf("failed to send reverse-channel response: %v", err)
	}
}
