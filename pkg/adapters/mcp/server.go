package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gcoder"
	"github.com/aretw0/gcoder/internal/logging"
	"github.com/aretw0/gcoder/pkg/adapters/file"
	"github.com/aretw0/gcoder/pkg/config"
	"github.com/aretw0/gcoder/pkg/domain"
	"github.com/aretw0/gcoder/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const requirementsURI = "gcoder://requirements"

// CompileArgs are the arguments of the compile_gcode tool.
type CompileArgs struct {
	Config string `json:"config" jsonschema_description:"Machine configuration document (YAML or JSON)"`
	Layers string `json:"layers" jsonschema_description:"Layer document: {layers: [{positionZ, paths}]} (YAML or JSON)"`
	Format string `json:"format,omitempty" jsonschema_description:"Document format: yaml (default, also reads JSON) or json"`
}

// CompileResult aligns with the HTTP compile response.
type CompileResult struct {
	GCode  string   `json:"gcode" jsonschema_description:"The compiled G-code program"`
	Lines  int      `json:"lines" jsonschema_description:"Number of instruction lines"`
	Errors []string `json:"errors,omitempty" jsonschema_description:"Rejected layers; the program is complete without them"`
}

// ValidateArgs are the arguments of the validate_config tool.
type ValidateArgs struct {
	Config string `json:"config" jsonschema_description:"Machine configuration document (YAML or JSON)"`
	Format string `json:"format,omitempty" jsonschema_description:"Document format: yaml (default) or json"`
}

// ValidateResult reports the outcome of validate_config.
type ValidateResult struct {
	Valid bool     `json:"valid"`
	Keys  []string `json:"keys,omitempty" jsonschema_description:"Key paths that failed validation"`
	Error string   `json:"error,omitempty"`
}

// Engine defines the interface required by the MCP server.
type Engine interface {
	CompileText(ctx context.Context, doc config.Document, layers []*domain.GeometryPayload) (string, error)
	Validate(doc config.Document) error
	Registry() *registry.Registry
}

var _ Engine = (*gcoder.Engine)(nil)

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("gcoder-mcp", strings.TrimSpace(gcoder.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: compile_gcode
	compileTool := mcp.NewTool("compile_gcode",
		mcp.WithDescription("Compile layered toolpaths into a G-code program for the configured machine."),
		mcp.WithString("config", mcp.Required(), mcp.Description("Machine configuration document (YAML or JSON)")),
		mcp.WithString("layers", mcp.Required(), mcp.Description("Layer document: {layers: [{positionZ, paths}]}")),
		mcp.WithString("format", mcp.Description("Document format: yaml (default) or json")),
		mcp.WithOutputSchema[CompileResult](),
	)
	s.mcpServer.AddTool(compileTool, mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: validate_config
	validateTool := mcp.NewTool("validate_config",
		mcp.WithDescription("Check a machine configuration and list every missing or mistyped key."),
		mcp.WithString("config", mcp.Required(), mcp.Description("Machine configuration document (YAML or JSON)")),
		mcp.WithString("format", mcp.Description("Document format: yaml (default) or json")),
		mcp.WithOutputSchema[ValidateResult](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: get_requirements
	s.mcpServer.AddTool(mcp.NewTool("get_requirements",
		mcp.WithDescription("List the configuration keys a stage kind requires. Omit kind to list every kind."),
		mcp.WithString("kind", mcp.Description("Stage kind, e.g. gcoder")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind := request.GetString("kind", "")
		data, err := s.requirements(kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func parseFormat(f string) (config.Format, error) {
	switch strings.ToLower(f) {
	case "", "yaml", "yml":
		return config.FormatYAML, nil
	case "json":
		return config.FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", f)
	}
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args CompileArgs) (CompileResult, error) {
	format, err := parseFormat(args.Format)
	if err != nil {
		return CompileResult{}, err
	}
	doc, err := config.Parse([]byte(args.Config), format)
	if err != nil {
		return CompileResult{}, err
	}
	layers, err := file.ParseGeometry([]byte(args.Layers), format)
	if err != nil {
		return CompileResult{}, err
	}

	text, err := s.engine.CompileText(ctx, doc, layers)
	res := CompileResult{GCode: text, Lines: strings.Count(text, "\n")}
	if err != nil {
		if text == "" || domain.IsFatal(err) {
			return CompileResult{}, err
		}
		s.logger.Warn("MCP Compile: layers rejected", "error", err)
		for _, e := range unjoin(err) {
			res.Errors = append(res.Errors, e.Error())
		}
	}
	return res, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (ValidateResult, error) {
	format, err := parseFormat(args.Format)
	if err != nil {
		return ValidateResult{}, err
	}
	doc, err := config.Parse([]byte(args.Config), format)
	if err != nil {
		return ValidateResult{}, err
	}

	err = s.engine.Validate(doc)
	if err == nil {
		return ValidateResult{Valid: true}, nil
	}
	res := ValidateResult{Error: err.Error()}
	var invalid *domain.ConfigInvalidError
	if errors.As(err, &invalid) {
		res.Keys = invalid.Keys
	}
	return res, nil
}

func (s *Server) requirements(kind string) ([]byte, error) {
	reg := s.engine.Registry()
	if kind != "" {
		req, ok := reg.Requirements(kind)
		if !ok {
			return nil, fmt.Errorf("unknown stage kind: %s", kind)
		}
		return json.Marshal(req)
	}
	all := make(map[string]map[string]string)
	for _, k := range reg.Kinds() {
		req, _ := reg.Requirements(k)
		all[k] = req.Flatten()
	}
	return json.Marshal(all)
}

func (s *Server) registerResources() {
	// EXPOSE: gcoder://requirements
	s.mcpServer.AddResource(mcp.NewResource(requirementsURI, "Stage Requirements",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.requirements("")
		if err != nil {
			return nil, fmt.Errorf("failed to list requirements: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      requirementsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
