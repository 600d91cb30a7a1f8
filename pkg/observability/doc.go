/*
Package observability turns stage lifecycle hooks into Prometheus metrics and
structured log records.

	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	stage := coder.New(nil, coder.WithHooks(m.Hooks()))

Exported metrics (namespace "gcoder"):

  - gcoder_stage_transitions_total{stage,op,to}
  - gcoder_payloads_emitted_total{stage,phase}
  - gcoder_lines_emitted_total{stage}
  - gcoder_payload_lines{stage}
  - gcoder_rejections_total{stage,op,reason}
*/
package observability
