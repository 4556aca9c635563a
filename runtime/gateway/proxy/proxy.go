// Package proxy provides a gateway that serializes runtime.Gateway calls
// over a Connection, and the dispatcher that answers them on the other
// side. Worker processes use it to reach the parent's data sources.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/frame"
)

// Errors for proxy gateway operations.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrProtocol         = errors.New("protocol error")
)

// RemoteError is an error returned by the other side of the connection.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Config configures a proxy gateway.
type Config struct {
	// Connection is the underlying connection to use.
	Connection Connection
}

// Gateway implements runtime.Gateway by serializing requests over a
// connection. Responses are handed to it through DeliverResponse by
// whoever reads the connection.
type Gateway struct {
	conn      Connection
	requestID atomic.Uint64
	pending   sync.Map // map[string]chan Message
	closed    atomic.Bool
	closeMu   sync.Mutex
}

// New creates a new proxy gateway with the given configuration.
func New(cfg Config) *Gateway {
	return &Gateway{conn: cfg.Connection}
}

// Query sends a query request over the connection.
func (g *Gateway) Query(ctx context.Context, sql string, args []any) (*frame.Table, error) {
	resp, err := g.request(ctx, MsgQuery, map[string]any{
		"sql":  sql,
		"args": args,
	})
	if err != nil {
		return nil, err
	}
	return decodeTable(resp.Payload["table"])
}

// Metric sends a metric request over the connection.
func (g *Gateway) Metric(ctx context.Context, name string) (float64, error) {
	resp, err := g.request(ctx, MsgMetric, map[string]any{"name": name})
	if err != nil {
		return 0, err
	}
	v, ok := frame.Float(resp.Payload["value"])
	if !ok {
		return 0, fmt.Errorf("%w: metric value is %T", ErrProtocol, resp.Payload["value"])
	}
	return v, nil
}

// CallFunction sends a function call over the connection.
func (g *Gateway) CallFunction(ctx context.Context, id string, args map[string]any) (any, error) {
	resp, err := g.request(ctx, MsgCallFunction, map[string]any{
		"id":   id,
		"args": args,
	})
	if err != nil {
		return nil, err
	}
	return resp.Payload["value"], nil
}

// SearchFunctions sends a search request over the connection.
func (g *Gateway) SearchFunctions(ctx context.Context, query string, limit int) ([]index.Summary, error) {
	resp, err := g.request(ctx, MsgSearchFunctions, map[string]any{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	results, ok := resp.Payload["results"].([]any)
	if !ok {
		return nil, nil
	}
	summaries := make([]index.Summary, 0, len(results))
	for _, r := range results {
		if m, ok := r.(map[string]any); ok {
			summaries = append(summaries, index.Summary{
				ID:               getString(m, "id"),
				Name:             getString(m, "name"),
				Namespace:        getString(m, "namespace"),
				ShortDescription: getString(m, "shortDescription"),
				Tags:             getStrings(m, "tags"),
			})
		}
	}
	return summaries, nil
}

// DescribeFunction sends a describe request over the connection.
func (g *Gateway) DescribeFunction(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	resp, err := g.request(ctx, MsgDescribeFunction, map[string]any{
		"id":    id,
		"level": string(level),
	})
	if err != nil {
		return tooldoc.ToolDoc{}, err
	}
	return tooldoc.ToolDoc{
		Summary: getString(resp.Payload, "summary"),
		Notes:   getString(resp.Payload, "notes"),
	}, nil
}

// Close closes the underlying connection and fails pending requests.
func (g *Gateway) Close() error {
	g.closeMu.Lock()
	defer g.closeMu.Unlock()

	if g.closed.Load() {
		return nil
	}
	g.closed.Store(true)
	return g.conn.Close()
}

// request sends a request and waits for the response.
func (g *Gateway) request(ctx context.Context, msgType MessageType, payload map[string]any) (Message, error) {
	if g.closed.Load() {
		return Message{}, ErrConnectionClosed
	}
	id := strconv.FormatUint(g.requestID.Add(1), 10)

	msg := Message{
		Type:    msgType,
		ID:      id,
		Payload: payload,
	}

	// Create response channel
	respCh := make(chan Message, 1)
	g.pending.Store(id, respCh)
	defer g.pending.Delete(id)

	if err := g.conn.Send(ctx, msg); err != nil {
		return Message{}, err
	}

	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case resp := <-respCh:
		if resp.Type == MsgError {
			errMsg := getString(resp.Payload, "error")
			if errMsg == "" {
				errMsg = "unknown error"
			}
			return Message{}, &RemoteError{Message: errMsg}
		}
		return resp, nil
	}
}

// DeliverResponse delivers a response to a pending request.
// This is called by the connection reader when a response is received.
func (g *Gateway) DeliverResponse(msg Message) error {
	ch, ok := g.pending.Load(msg.ID)
	if !ok {
		return fmt.Errorf("%w: no pending request for ID %s", ErrProtocol, msg.ID)
	}

	select {
	case ch.(chan Message) <- msg:
		return nil
	default:
		return fmt.Errorf("%w: response channel full for ID %s", ErrProtocol, msg.ID)
	}
}

// getString safely extracts a string from a map.
func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getStrings(m map[string]any, key string) []string {
	if s, ok := m[key].([]string); ok {
		return s
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
