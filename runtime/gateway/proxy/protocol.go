package proxy

import (
	"context"
	"io"
	"sync"

	"github.com/jonwraymond/snippetexec/internal/codec"
)

// MessageType identifies a message on a proxy connection.
type MessageType string

// Gateway message types.
const (
	MsgQuery            MessageType = "query"
	MsgMetric           MessageType = "metric"
	MsgCallFunction     MessageType = "call_function"
	MsgSearchFunctions  MessageType = "search_functions"
	MsgDescribeFunction MessageType = "describe_function"
	MsgResponse         MessageType = "response"
	MsgError            MessageType = "error"
)

// Message is the unit exchanged over a Connection. Requests and their
// responses share an ID.
type Message struct {
	Type    MessageType    `cbor:"type" json:"type"`
	ID      string         `cbor:"id" json:"id"`
	Payload map[string]any `cbor:"payload,omitempty" json:"payload,omitempty"`
}

// Connection carries messages across a process boundary.
//
// Contract:
// - Concurrency: Send may be called concurrently with Receive.
// - Context: Send and Receive honor cancellation where the transport allows.
// - Errors: a closed connection returns ErrConnectionClosed.
type Connection interface {
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// StreamConnection is a Connection over a pair of byte streams, typically
// a worker's stdin and stdout. Messages are CBOR encoded back to back.
type StreamConnection struct {
	sendMu sync.Mutex
	enc    *codec.Encoder
	dec    *codec.Decoder
	closer io.Closer
}

// NewStreamConnection returns a connection reading from r and writing to
// w. closer, if non-nil, is closed by Close.
func NewStreamConnection(r io.Reader, w io.Writer, closer io.Closer) *StreamConnection {
	return &StreamConnection{
		enc:    codec.NewEncoder(w),
		dec:    codec.NewDecoder(r),
		closer: closer,
	}
}

// Send encodes msg onto the stream.
func (c *StreamConnection) Send(_ context.Context, msg Message) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.enc.Encode(msg)
}

// Receive decodes the next message. It is not safe for concurrent use
// with itself.
func (c *StreamConnection) Receive(_ context.Context) (Message, error) {
	var msg Message
	if err := c.dec.Decode(&msg); err != nil {
		if err == io.EOF {
			return Message{}, ErrConnectionClosed
		}
		return Message{}, err
	}
	return msg, nil
}

// Close closes the underlying closer.
func (c *StreamConnection) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
