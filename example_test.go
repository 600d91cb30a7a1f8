package gcoder_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/pkg/adapters/memory"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
)

const machine = `
gcoder: {comments: false}
scalingFactor: 1
platform:
  temperature: 110
  waitingPosition: {x: 52, y: -57.5, z: 10}
extruders:
  - nozzleZOffset: 0
    fastFeedRate: 900
    fastExtrusionSpeed: 3
    defaultExtrusionSpeed: 3
    extrusionTemperature: 220
    reversalExtrusionSpeed: 35
    coordinateSystemOffsetX: 0
`

// ExampleEngine_Compile streams one square layer into an in-memory collector
// and lists the phases of the resulting program.
func ExampleEngine_Compile() {
	doc, err := config.Parse([]byte(machine), config.FormatYAML)
	if err != nil {
		log.Fatal(err)
	}

	square := &domain.GeometryPayload{
		PositionZ: 0.2,
		Paths: [][]domain.Polygon{{
			{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		}},
	}

	eng := gcoder.New()
	sink := memory.NewCollector(eng.StageOptions()...)
	if err := eng.Compile(context.Background(), doc, []*domain.GeometryPayload{square}, sink); err != nil {
		log.Fatal(err)
	}

	for _, p := range sink.Payloads() {
		fmt.Println(p.Phase, len(p.Lines) > 0, p.Final)
	}
	// Output:
	// header true false
	// machine_init true false
	// extruder_init true false
	// platform_init true false
	// homing true false
	// warmup true false
	// anchor true false
	// layer true false
	// footer true true
}

// ExampleEngine_CompileText prints the moves of a single-extruder layer.
func ExampleEngine_CompileText() {
	doc, err := config.Parse([]byte(machine), config.FormatYAML)
	if err != nil {
		log.Fatal(err)
	}

	layer := &domain.GeometryPayload{
		PositionZ: 0.2,
		Paths:     [][]domain.Polygon{{{{X: 0, Y: 0}, {X: 10, Y: 0}}}},
	}

	text, err := gcoder.New().CompileText(context.Background(), doc, []*domain.GeometryPayload{layer})
	if err != nil {
		log.Fatal(err)
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "G1 ") && strings.HasSuffix(line, "F900") {
			fmt.Println(line)
		}
	}
	// Output:
	// G1 X0 Y0 Z0.2 F900
	// G1 X10 Y0 Z0.2 F900
}
