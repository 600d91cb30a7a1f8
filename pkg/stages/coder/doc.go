// Package coder implements the G-coder pipeline stage.
//
// The stage accepts one geometry payload per layer and emits instruction
// payloads: seven opening payloads at Start, one layer payload per accepted
// geometry payload, and a final footer payload at Finish.
package coder
