package proxy

import (
	"context"
	"fmt"

	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/runtime"
)

// Handle answers one gateway request with gw and returns the response
// message. Failures become MsgError responses.
func Handle(ctx context.Context, gw runtime.Gateway, msg Message) Message {
	payload, err := dispatch(ctx, gw, msg)
	if err != nil {
		return Message{Type: MsgError, ID: msg.ID, Payload: map[string]any{"error": err.Error()}}
	}
	return Message{Type: MsgResponse, ID: msg.ID, Payload: payload}
}

// IsRequest reports whether t is a gateway request type.
func IsRequest(t MessageType) bool {
	switch t {
	case MsgQuery, MsgMetric, MsgCallFunction, MsgSearchFunctions, MsgDescribeFunction:
		return true
	}
	return false
}

func dispatch(ctx context.Context, gw runtime.Gateway, msg Message) (map[string]any, error) {
	if gw == nil {
		return nil, fmt.Errorf("%w: no gateway", ErrProtocol)
	}
	p := msg.Payload
	if p == nil {
		p = map[string]any{}
	}

	switch msg.Type {
	case MsgQuery:
		args, _ := p["args"].([]any)
		table, err := gw.Query(ctx, getString(p, "sql"), args)
		if err != nil {
			return nil, err
		}
		return map[string]any{"table": encodeTable(table)}, nil

	case MsgMetric:
		v, err := gw.Metric(ctx, getString(p, "name"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil

	case MsgCallFunction:
		args, _ := p["args"].(map[string]any)
		v, err := gw.CallFunction(ctx, getString(p, "id"), args)
		if err != nil {
			return nil, err
		}
		return map[string]any{"value": v}, nil

	case MsgSearchFunctions:
		found, err := gw.SearchFunctions(ctx, getString(p, "query"), getInt(p, "limit"))
		if err != nil {
			return nil, err
		}
		results := make([]any, len(found))
		for i, s := range found {
			results[i] = map[string]any{
				"id":               s.ID,
				"name":             s.Name,
				"namespace":        s.Namespace,
				"shortDescription": s.ShortDescription,
				"tags":             s.Tags,
			}
		}
		return map[string]any{"results": results}, nil

	case MsgDescribeFunction:
		doc, err := gw.DescribeFunction(ctx, getString(p, "id"), tooldoc.DetailLevel(getString(p, "level")))
		if err != nil {
			return nil, err
		}
		return map[string]any{"summary": doc.Summary, "notes": doc.Notes}, nil
	}
	return nil, fmt.Errorf("%w: unexpected message type %q", ErrProtocol, msg.Type)
}

func encodeTable(t *frame.Table) map[string]any {
	if t == nil {
		return nil
	}
	rows := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r
	}
	return map[string]any{"columns": t.Columns, "rows": rows}
}

func decodeTable(v any) (*frame.Table, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: table payload is %T", ErrProtocol, v)
	}
	columns := getStrings(m, "columns")
	rawRows, _ := m["rows"].([]any)
	rows := make([][]any, len(rawRows))
	for i, r := range rawRows {
		row, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: table row %d is %T", ErrProtocol, i, r)
		}
		rows[i] = row
	}
	return frame.NewTable(columns, rows)
}
