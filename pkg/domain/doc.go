/*
Package domain contains the core data model of the G-code pipeline.

It defines the entities that flow between pipeline stages and the typed errors every
stage reports. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Configuration: the validated machine profile (platform, extruders, scaling).
  - GeometryPayload: per-extruder polygons for one layer, the unit a compiler accepts.
  - InstructionPayload: a block of instruction lines, the unit a compiler emits.
  - Payload: the closed set of payload kinds, matched by tag instead of by cast.
  - StageState: the lifecycle position of a stage.
*/
package domain
