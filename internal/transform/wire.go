package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/vmihailenco/msgpack/v5"

	"tsxload/internal/config"
	"tsxload/internal/dialect"
	"tsxload/internal/trace"
)

// Wire protocol: the client writes one wireRequest to the engine's stdin and
// reads one wireResponse from its stdout, both msgpack-encoded.

const wireVersion uint16 = 1

type wireRequest struct {
	Version uint16         `msgpack:"v"`
	Source  string         `msgpack:"source"`
	URL     string         `msgpack:"url"`
	Dialect string         `msgpack:"dialect"`
	Config  *config.Config `msgpack:"config"`
}

type wireMessage struct {
	Text     string `msgpack:"text"`
	HasLoc   bool   `msgpack:"has_loc"`
	File     string `msgpack:"file,omitempty"`
	Line     int    `msgpack:"line,omitempty"`
	Column   int    `msgpack:"column,omitempty"`
	LineText string `msgpack:"line_text,omitempty"`
}

type wireResponse struct {
	Version  uint16        `msgpack:"v"`
	Code     string        `msgpack:"code"`
	Warnings []wireMessage `msgpack:"warnings,omitempty"`
	Errors   []wireMessage `msgpack:"errors,omitempty"`
	// Failure is set when the engine could not run at all.
	Failure string `msgpack:"failure,omitempty"`
}

// ErrProtocol reports a malformed or incompatible engine exchange.
var ErrProtocol = errors.New("transform engine protocol error")

func toWireMessages(msgs []Message) []wireMessage {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		w := wireMessage{Text: m.Text}
		if m.Location != nil {
			w.HasLoc = true
			w.File = m.Location.File
			w.Line = m.Location.Line
			w.Column = m.Location.Column
			w.LineText = m.Location.LineText
		}
		out = append(out, w)
	}
	return out
}

func fromWireMessages(msgs []wireMessage) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, 0, len(msgs))
	for _, w := range msgs {
		m := Message{Text: w.Text}
		if w.HasLoc {
			m.Location = &Location{File: w.File, Line: w.Line, Column: w.Column, LineText: w.LineText}
		}
		out = append(out, m)
	}
	return out
}

// Exec runs an external engine process per request.
type Exec struct {
	Path string
	Args []string
	// Env is appended to the current process environment.
	Env []string
	// Stderr receives the engine's stderr; nil discards it.
	Stderr io.Writer
}

// Transform implements Engine.
func (e *Exec) Transform(ctx context.Context, req Request) (Result, error) {
	var in bytes.Buffer
	err := msgpack.NewEncoder(&in).Encode(&wireRequest{
		Version: wireVersion,
		Source:  req.Source,
		URL:     req.URL,
		Dialect: req.Dialect.String(),
		Config:  req.Config,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode transform request: %w", err)
	}

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeEngine, "exec", trace.CurrentSpan(ctx))
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Stdin = &in
	cmd.Stdout = &out
	cmd.Stderr = e.Stderr
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	err = cmd.Run()
	span.End(req.URL)
	if err != nil {
		return Result{}, fmt.Errorf("transform engine %s: %w", e.Path, err)
	}

	var resp wireResponse
	if err := msgpack.NewDecoder(&out).Decode(&resp); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrProtocol, err)
	}
	if resp.Version != wireVersion {
		return Result{}, fmt.Errorf("%w: response version %d, want %d", ErrProtocol, resp.Version, wireVersion)
	}
	if resp.Failure != "" {
		return Result{}, fmt.Errorf("transform engine %s: %s", e.Path, resp.Failure)
	}
	if len(resp.Errors) > 0 {
		return Result{}, &Error{Errors: fromWireMessages(resp.Errors), Warnings: fromWireMessages(resp.Warnings)}
	}
	return Result{Code: resp.Code, Warnings: fromWireMessages(resp.Warnings)}, nil
}

// Serve answers one wire request read from r by running engine and writing
// the response to w. Transform failures travel in the response; the returned
// error covers only I/O and protocol problems.
func Serve(ctx context.Context, r io.Reader, w io.Writer, engine Engine) error {
	var req wireRequest
	if err := msgpack.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("%w: decode request: %v", ErrProtocol, err)
	}
	if req.Version != wireVersion {
		return fmt.Errorf("%w: request version %d, want %d", ErrProtocol, req.Version, wireVersion)
	}

	resp := wireResponse{Version: wireVersion}
	res, err := engine.Transform(ctx, Request{
		Source:  req.Source,
		URL:     req.URL,
		Dialect: dialect.FromFormat(req.Dialect),
		Config:  req.Config,
	})
	var terr *Error
	switch {
	case errors.As(err, &terr):
		resp.Errors = toWireMessages(terr.Errors)
		resp.Warnings = toWireMessages(terr.Warnings)
	case err != nil:
		resp.Failure = err.Error()
	default:
		resp.Code = res.Code
		resp.Warnings = toWireMessages(res.Warnings)
	}

	if err := msgpack.NewEncoder(w).Encode(&resp); err != nil {
		return fmt.Errorf("encode transform response: %w", err)
	}
	return nil
}
