// Package pipeline provides the lifecycle bookkeeping shared by every stage and
// a driver that runs a linear chain of stages over a sequence of payloads.
//
// Stages hold a Lifecycle as a field and delegate state checks, downstream
// propagation and hook firing to it:
//
//	type Sink struct {
//		lc *pipeline.Lifecycle
//	}
//
//	func (s *Sink) Start(ctx context.Context) error {
//		return s.lc.Start(ctx)
//	}
package pipeline
