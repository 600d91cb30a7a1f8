package http

import (
	"strings"
	"sync"

	"github.com/aretw0/gcoder"
	"github.com/getkin/kin-openapi/openapi3"
)

var (
	specOnce sync.Once
	spec     *openapi3.T
)

// Spec returns the OpenAPI 3 description of the routes served by NewHandler.
func Spec() *openapi3.T {
	specOnce.Do(func() { spec = buildSpec() })
	return spec
}

func ref(name string, s *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, s)
}

func jsonResponse(description string, s *openapi3.SchemaRef) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description).WithJSONSchemaRef(s)}
}

func buildSpec() *openapi3.T {
	point := openapi3.NewObjectSchema().
		WithProperty("x", openapi3.NewFloat64Schema()).
		WithProperty("y", openapi3.NewFloat64Schema()).
		WithRequired([]string{"x", "y"})
	polygon := openapi3.NewArraySchema().WithItems(point)
	layer := openapi3.NewObjectSchema().
		WithProperty("positionZ", openapi3.NewFloat64Schema()).
		WithProperty("paths", openapi3.NewArraySchema().WithItems(openapi3.NewArraySchema().WithItems(polygon))).
		WithRequired([]string{"positionZ", "paths"})
	compileRequest := openapi3.NewObjectSchema().
		WithProperty("config", openapi3.NewObjectSchema().WithAnyAdditionalProperties()).
		WithPropertyRef("layers", openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(layer))).
		WithRequired([]string{"config", "layers"})
	compileResponse := openapi3.NewObjectSchema().
		WithProperty("gcode", openapi3.NewStringSchema()).
		WithProperty("lines", openapi3.NewIntegerSchema()).
		WithProperty("errors", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
	errorResponse := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("keys", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))
	requirements := openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())

	schemas := openapi3.Schemas{
		"Layer":           openapi3.NewSchemaRef("", layer),
		"CompileRequest":  openapi3.NewSchemaRef("", compileRequest),
		"CompileResponse": openapi3.NewSchemaRef("", compileResponse),
		"Error":           openapi3.NewSchemaRef("", errorResponse),
		"Requirements":    openapi3.NewSchemaRef("", requirements),
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "gcoder API",
			Description: "Compiles layered toolpaths into G-code.",
			Version:     strings.TrimSpace(gcoder.Version),
		},
		Components: &openapi3.Components{Schemas: schemas},
		Paths:      openapi3.NewPaths(),
	}

	compileBody := &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchemaRef(ref("CompileRequest", compileRequest))}
	invalid := jsonResponse("Configuration rejected", ref("Error", errorResponse))

	compile := openapi3.NewOperation()
	compile.OperationID = "compile"
	compile.Summary = "Compile layers into a G-code program"
	compile.RequestBody = compileBody
	compile.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, jsonResponse("Compiled program; rejected layers are listed in errors", ref("CompileResponse", compileResponse))),
		openapi3.WithStatus(422, invalid),
	)
	doc.AddOperation("/compile", "POST", compile)

	stream := openapi3.NewOperation()
	stream.OperationID = "compileStream"
	stream.Summary = "Compile layers and stream instruction payloads as server-sent events"
	stream.RequestBody = compileBody
	stream.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("One event per instruction payload").
			WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/event-stream"}))}),
		openapi3.WithStatus(422, invalid),
	)
	doc.AddOperation("/compile/stream", "POST", stream)

	validate := openapi3.NewOperation()
	validate.OperationID = "validate"
	validate.Summary = "Validate a configuration document"
	validate.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(openapi3.NewObjectSchema().WithAnyAdditionalProperties())}
	validate.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, jsonResponse("Configuration accepted", openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithProperty("valid", openapi3.NewBoolSchema())))),
		openapi3.WithStatus(422, invalid),
	)
	doc.AddOperation("/validate", "POST", validate)

	list := openapi3.NewOperation()
	list.OperationID = "listRequirements"
	list.Summary = "Configuration keys required by every stage kind"
	list.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, jsonResponse("Requirements by stage kind",
			openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithAdditionalProperties(requirements)))),
	)
	doc.AddOperation("/requirements", "GET", list)

	get := openapi3.NewOperation()
	get.OperationID = "getRequirements"
	get.Summary = "Configuration keys required by one stage kind"
	get.Parameters = openapi3.Parameters{
		{Value: openapi3.NewPathParameter("kind").WithSchema(openapi3.NewStringSchema())},
	}
	get.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, jsonResponse("Key paths mapped to value kinds", ref("Requirements", requirements))),
		openapi3.WithStatus(404, jsonResponse("Unknown stage kind", ref("Error", errorResponse))),
	)
	doc.AddOperation("/requirements/{kind}", "GET", get)

	health := openapi3.NewOperation()
	health.OperationID = "getHealth"
	health.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, jsonResponse("Service is up", openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema())))),
	)
	doc.AddOperation("/health", "GET", health)

	info := openapi3.NewOperation()
	info.OperationID = "getInfo"
	info.Responses = openapi3.NewResponses(
		openapi3.WithStatus(200, jsonResponse("Build information", openapi3.NewSchemaRef("", openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())))),
	)
	doc.AddOperation("/info", "GET", info)

	return doc
}
