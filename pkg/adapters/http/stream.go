package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
)

// eventSink is a stage writing each instruction payload as a server-sent event.
type eventSink struct {
	lc      *pipeline.Lifecycle
	w       io.Writer
	flusher http.Flusher
}

var _ ports.Stage = (*eventSink)(nil)

func newEventSink(w io.Writer, flusher http.Flusher, opts ...pipeline.Option) *eventSink {
	return &eventSink{
		lc:      pipeline.NewLifecycle("sse", domain.KindInstruction, opts...),
		w:       w,
		flusher: flusher,
	}
}

func (s *eventSink) Kind() string                       { return "sse" }
func (s *eventSink) Accepts() domain.PayloadKind        { return domain.KindInstruction }
func (s *eventSink) Emits() domain.PayloadKind          { return "" }
func (s *eventSink) State() domain.StageState           { return s.lc.State() }
func (s *eventSink) Validate(doc config.Document) error { return nil }

func (s *eventSink) Init(ctx context.Context, doc config.Document, downstream []ports.Stage) error {
	return s.lc.Init(ctx, downstream)
}

func (s *eventSink) Start(ctx context.Context) error  { return s.lc.Start(ctx) }
func (s *eventSink) Finish(ctx context.Context) error { return s.lc.Finish(ctx) }
func (s *eventSink) Deinit(ctx context.Context) error { return s.lc.Deinit(ctx) }

func (s *eventSink) Accept(ctx context.Context, p domain.Payload) error {
	if err := s.lc.CheckAccept(ctx, p); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return s.lc.Reject(ctx, pipeline.OpAccept, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: payload\ndata: %s\n\n", data); err != nil {
		return s.lc.Reject(ctx, pipeline.OpAccept, err)
	}
	s.flusher.Flush()
	s.lc.Accepted(ctx)
	return nil
}

// CompileStream handles the POST /compile/stream request (SSE).
// Configuration errors are reported before the stream opens; rejected layers
// arrive as "error" events and the stream ends with a "done" event.
func (s *Server) CompileStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("CompileStream: Streaming not supported")
		return
	}

	body, ok := s.decode(w, r)
	if !ok {
		return
	}
	if err := s.Engine.Validate(body.Config); err != nil {
		s.fail(w, "CompileStream", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := newEventSink(w, flusher, s.Engine.StageOptions()...)
	err := s.Engine.Compile(r.Context(), body.Config, body.Layers, sink)
	if err != nil {
		s.logger.Warn("CompileStream: stream ended with errors", "error", err)
		for _, e := range unjoin(err) {
			data, _ := json.Marshal(ErrorResponse{Error: e.Error()})
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		}
	}
	fmt.Fprintf(w, "event: done\ndata: {}\n\n")
	flusher.Flush()
}
