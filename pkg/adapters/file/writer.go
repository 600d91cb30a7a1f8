package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/aretw0/gcoder/pkg/schema"
)

// Kind is the registry key of the file sink.
const Kind = "file"

// Register declares the file sink in reg. It has no configuration keys.
func Register(reg *registry.Registry) {
	reg.Register(Kind, schema.Schema{})
}

// Writer is a sink stage writing every instruction payload as text.
// Output is buffered and flushed when the final payload arrives.
type Writer struct {
	lc     *pipeline.Lifecycle
	buf    *bufio.Writer
	closer io.Closer
	lines  int
}

var _ ports.Stage = (*Writer)(nil)

// NewWriter creates a sink writing to w. The caller owns w.
func NewWriter(w io.Writer, opts ...pipeline.Option) *Writer {
	return &Writer{
		lc:  pipeline.NewLifecycle(Kind, domain.KindInstruction, opts...),
		buf: bufio.NewWriter(w),
	}
}

// Create opens path for writing, creating parent directories, and returns a sink
// that closes the file on Deinit.
func Create(path string, opts ...pipeline.Option) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to ensure output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w := NewWriter(f, opts...)
	w.closer = f
	return w, nil
}

func (w *Writer) Kind() string                       { return Kind }
func (w *Writer) Accepts() domain.PayloadKind        { return domain.KindInstruction }
func (w *Writer) Emits() domain.PayloadKind          { return "" }
func (w *Writer) State() domain.StageState           { return w.lc.State() }
func (w *Writer) Validate(doc config.Document) error { return nil }

// Lines returns how many lines were written in the current stream.
func (w *Writer) Lines() int { return w.lines }

func (w *Writer) Init(ctx context.Context, doc config.Document, downstream []ports.Stage) error {
	if err := w.lc.CheckInit(ctx); err != nil {
		return err
	}
	w.lines = 0
	return w.lc.Init(ctx, downstream)
}

func (w *Writer) Start(ctx context.Context) error { return w.lc.Start(ctx) }

// Accept writes the payload lines.
func (w *Writer) Accept(ctx context.Context, p domain.Payload) error {
	if err := w.lc.CheckAccept(ctx, p); err != nil {
		return err
	}
	in := p.(*domain.InstructionPayload)
	if _, err := w.buf.WriteString(in.Text()); err != nil {
		return w.lc.Reject(ctx, pipeline.OpAccept, fmt.Errorf("failed to write payload: %w", err))
	}
	w.lines += len(in.Lines)
	if in.Final {
		if err := w.buf.Flush(); err != nil {
			return w.lc.Reject(ctx, pipeline.OpAccept, fmt.Errorf("failed to flush output: %w", err))
		}
	}
	w.lc.Accepted(ctx)
	return nil
}

// Finish flushes any buffered output.
func (w *Writer) Finish(ctx context.Context) error {
	if err := w.lc.CheckFinish(ctx); err != nil {
		return err
	}
	flushErr := w.buf.Flush()
	return errors.Join(flushErr, w.lc.Finish(ctx))
}

// Deinit flushes and, for sinks made by Create, closes the file.
func (w *Writer) Deinit(ctx context.Context) error {
	if err := w.lc.CheckDeinit(ctx); err != nil {
		return err
	}
	errs := []error{w.buf.Flush()}
	if w.closer != nil {
		errs = append(errs, w.closer.Close())
		w.closer = nil
	}
	errs = append(errs, w.lc.Deinit(ctx))
	return errors.Join(errs...)
}
