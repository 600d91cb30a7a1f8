package cli

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/internal/presentation/graph"
	"github.com/aretw0/gcoder/pkg/adapters/file"
	"github.com/aretw0/gcoder/pkg/adapters/memory"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/pipeline"
	"github.com/aretw0/gcoder/pkg/ports"
	"github.com/aretw0/gcoder/pkg/stages/coder"
)

// GraphOptions selects what the graph command draws.
// When both paths are set the chain is run once and each stage is styled
// by the furthest state it reached.
type GraphOptions struct {
	ConfigPath string
	LayersPath string
}

// PrintGraph writes a Mermaid flowchart of the compile pipeline to w.
func PrintGraph(ctx context.Context, w io.Writer, opts GraphOptions) error {
	if opts.ConfigPath == "" || opts.LayersPath == "" {
		engine := createEngine(false, logging.NewNop())
		_, err := io.WriteString(w, graph.GenerateMermaid(chain(engine.Coder()), nil))
		return err
	}

	doc, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	layers, err := file.LoadGeometry(opts.LayersPath)
	if err != nil {
		return err
	}

	tr := newTracker()
	engine := createEngine(false, logging.NewNop())
	stages := []ports.Stage{
		coder.New(engine.Registry(), coder.WithHooks(tr.hooks())),
		memory.NewCollector(pipeline.WithHooks(tr.hooks())),
	}
	p, err := pipeline.New(stages)
	if err != nil {
		return err
	}
	// Rejections are part of the picture, not a failure of the command.
	runErr := p.Run(ctx, doc, slices.Values(file.Payloads(layers)))
	if domain.IsFatal(runErr) || isInterrupted(runErr) {
		return runErr
	}

	_, err = io.WriteString(w, graph.GenerateMermaid(stages, tr.overlay(stages)))
	return err
}

func chain(c ports.Stage) []ports.Stage {
	return []ports.Stage{c, memory.NewCollector()}
}

// tracker records the furthest state and the rejection count of each stage kind.
type tracker struct {
	mu       sync.Mutex
	furthest map[string]domain.StageState
	rejected map[string]int
}

func newTracker() *tracker {
	return &tracker{furthest: map[string]domain.StageState{}, rejected: map[string]int{}}
}

func (t *tracker) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if e.To > t.furthest[e.Stage] {
				t.furthest[e.Stage] = e.To
			}
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.rejected[e.Stage]++
		},
	}
}

func (t *tracker) overlay(stages []ports.Stage) *graph.GraphOverlay {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := &graph.GraphOverlay{States: map[int]domain.StageState{}, Rejected: map[int]int{}}
	for i, s := range stages {
		o.States[i] = t.furthest[s.Kind()]
		o.Rejected[i] = t.rejected[s.Kind()]
	}
	return o
}
