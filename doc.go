/*
Package gcoder compiles layered toolpaths into G-code for multi-extruder 3D printers.

It is built as a streaming pipeline: a producer pushes geometry payloads (one per layer) into a
G-coder stage, which converts each one into an instruction payload and forwards it to the next
stage (an in-memory collector, a file writer or a Redis list). Every stage follows the same
lifecycle: Init with a configuration, Start, Accept any number of payloads, Finish, Deinit.

# Concept

The stage chain is driven synchronously by a single producer. A stage only starts forwarding
once its downstream stages have started, and it closes the stream with a footer before
propagating Finish. Tearing a stage down while a stream is still open emits a final abort
payload that cools the machine down.

Configuration is a plain document (YAML or JSON) validated against the requirements each stage
kind declares in a Registry. Missing keys and wrong value kinds are reported together, by key
path, before anything is emitted.

# Key Features

  - Deterministic Output: the same configuration and layers always produce byte-identical text.
  - Strict Contracts: lifecycle calls made out of order fail with a protocol violation and leave the stage untouched.
  - Recoverable Rejections: a layer that references more extruders than configured is rejected on its own; the stream continues.
  - Observability: lifecycle hooks feed structured logs and Prometheus collectors.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/gcoder"
	)

	func main() {
		eng := gcoder.New()
		err := eng.CompileFiles(context.Background(), "machine.yaml", "layers.yaml", os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
	}
*/
package gcoder
