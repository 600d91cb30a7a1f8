package domain

import "strings"

// Phase identifies which part of a stream an instruction payload belongs to.
type Phase string

const (
	PhaseHeader       Phase = "header"
	PhaseMachineInit  Phase = "machine_init"
	PhaseExtruderInit Phase = "extruder_init"
	PhasePlatformInit Phase = "platform_init"
	PhaseHoming       Phase = "homing"
	PhaseWarmup       Phase = "warmup"
	PhaseAnchor       Phase = "anchor"
	PhaseLayer        Phase = "layer"
	PhaseFooter       Phase = "footer"
	PhaseAbort        Phase = "abort" // synthesized when a stream is torn down without Finish
)

// InstructionPayload is an ordered block of instruction lines.
// Receivers must treat it as read-only.
type InstructionPayload struct {
	Phase Phase    `json:"phase"`
	Lines []string `json:"lines"`
	// Final marks the last payload of a stream.
	Final bool `json:"final,omitempty"`
}

// Kind implements Payload.
func (p *InstructionPayload) Kind() PayloadKind { return KindInstruction }

func (p *InstructionPayload) payload() {}

// Text renders the payload one command per line, newline terminated.
func (p *InstructionPayload) Text() string {
	if len(p.Lines) == 0 {
		return ""
	}
	return strings.Join(p.Lines, "\n") + "\n"
}
