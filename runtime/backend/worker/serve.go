package worker

import (
	"context"
	"fmt"
	"io"

	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime/gateway/proxy"
	"github.com/jonwraymond/snippetexec/script"
)

// Serve is the worker side of the protocol. It reads one execute message
// from r, runs the snippet, and writes the result to w. Gateway calls are
// forwarded to the parent over the same streams.
//
// The snippet is validated and classified here so oversized outputs never
// cross the pipe.
func Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	conn := proxy.NewStreamConnection(r, w, nil)

	msg, err := conn.Receive(ctx)
	if err != nil {
		return fmt.Errorf("reading execute message: %w", err)
	}
	if msg.Type != MsgExecute {
		return fmt.Errorf("%w: expected %q message, got %q", proxy.ErrProtocol, MsgExecute, msg.Type)
	}
	j, err := jobFromPayload(msg.Payload)
	if err != nil {
		return err
	}

	opts := script.Options{
		Allow:            capability.NewAllowList(j.Allow...),
		Timeout:          j.Timeout,
		MaxStdoutBytes:   j.MaxStdoutBytes,
		MaxCallStackSize: j.MaxCallStackSize,
		MaxOutputCells:   j.MaxOutputCells,
	}
	if j.Gateway {
		gw := proxy.New(proxy.Config{Connection: conn})
		go deliver(ctx, conn, gw)
		opts.Gateway = gw
	}

	out := script.Run(ctx, j.Code, opts)
	env := out.Envelope(j.MaxOutputCells)
	packed, err := packResult(env)
	if err != nil {
		packed, _ = packResult(result.FromError(&result.OrchestrationFailureError{
			Message: "encoding result", Err: err,
		}))
	}
	return conn.Send(ctx, proxy.Message{
		Type: MsgResult,
		ID:   msg.ID,
		Payload: map[string]any{
			"envelope": packed,
			"stdout":   out.Stdout,
		},
	})
}

// deliver routes gateway responses from the parent to the waiting calls.
func deliver(ctx context.Context, conn proxy.Connection, gw *proxy.Gateway) {
	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return
		}
		if msg.Type == proxy.MsgResponse || msg.Type == proxy.MsgError {
			_ = gw.DeliverResponse(msg)
		}
	}
}
