// Package compiler turns layer geometry into instruction payloads.
//
// A Compiler is bound to one Configuration. It produces the opening bracketing
// payloads of a stream, one layer payload per geometry payload, and either the
// footer or an abort payload at the end.
package compiler
