/*
Package ports defines the interfaces pipeline stages implement.

A Stage is one link of a linear push pipeline. Producers call the lifecycle
operations in order:

	Init -> Start -> Accept* -> Finish -> Deinit

Start and Finish propagate to the downstream stages given at Init. Deinit does
not; whoever built the chain tears every stage down.

RunStageContract checks any Stage implementation against these rules.
*/
package ports
