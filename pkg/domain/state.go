package domain

// StageState is the lifecycle position of a pipeline stage.
type StageState int

const (
	StateUninitialized StageState = iota
	StateInitialized
	StateStreaming
	StateFinished
)

func (s StageState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateStreaming:
		return "streaming"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
