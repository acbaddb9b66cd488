// Package mcp provides an MCP (Model Context Protocol) server for mvx.
// This allows AI agents to run consistency analysis and query the registries
// through MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mvx/internal/config"
	"mvx/internal/output"
	"mvx/internal/pipeline"
)

// Server wraps the MCP server with mvx-specific functionality
type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	workDir   string
}

// Config holds server configuration
type Config struct {
	// WorkDir is the project directory analyzed by the tools.
	WorkDir string
}

// New creates a new MCP server for mvx
func New(cfg Config) (*Server, error) {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = "."
	}

	appCfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		"mvx",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       appCfg,
		workDir:   workDir,
	}

	s.registerAnalyzeTool()
	s.registerGapsTool()
	s.registerEntitiesTool()

	return s, nil
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// registerAnalyzeTool registers the mvx_analyze tool
func (s *Server) registerAnalyzeTool() {
	tool := mcp.NewTool("mvx_analyze",
		mcp.WithDescription("Run the model-view consistency analysis. Returns the full report: structural errors, duplicates, gaps, unimplemented computes, and severity."),
		mcp.WithString("mode",
			mcp.Description("Pipeline mode: analyze (default) or propose"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleAnalyze)
}

// registerGapsTool registers the mvx_gaps tool
func (s *Server) registerGapsTool() {
	tool := mcp.NewTool("mvx_gaps",
		mcp.WithDescription("List fields referenced by views but missing from their entity declarations, with the referencing views."),
		mcp.WithString("entity",
			mcp.Description("Filter to one entity name"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleGaps)
}

// registerEntitiesTool registers the mvx_entities tool
func (s *Server) registerEntitiesTool() {
	tool := mcp.NewTool("mvx_entities",
		mcp.WithDescription("Dump the entity registry: model names, extension targets, and resolved field declarations."),
		mcp.WithString("name",
			mcp.Description("Filter to one entity name"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleEntities)
}

func (s *Server) run(ctx context.Context, mode pipeline.Mode) (*pipeline.Outcome, error) {
	in := pipeline.Input{
		ModelRoots: resolveRoots(s.workDir, s.cfg.Scan.ModelRoots),
		ViewRoots:  resolveRoots(s.workDir, s.cfg.Scan.ViewRoots),
		Exclude:    s.cfg.Scan.Exclude,
	}
	return pipeline.Run(ctx, s.cfg, in, mode)
}

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	modeArg, _ := args["mode"].(string)
	mode, err := pipeline.ParseMode(modeArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Apply mutates sources; that stays behind the CLI's explicit flag.
	if mode == pipeline.ModeApply {
		return mcp.NewToolResultError("apply mode is not available over MCP"), nil
	}

	out, err := s.run(ctx, mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.result(out.Report)
}

func (s *Server) handleGaps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	entity, _ := args["entity"].(string)

	out, err := s.run(ctx, pipeline.ModeAnalyze)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gaps := out.Report.Findings.Gaps
	if entity != "" {
		filtered := gaps[:0:0]
		for _, g := range gaps {
			if g.Entity == entity {
				filtered = append(filtered, g)
			}
		}
		gaps = filtered
	}

	return s.result(map[string]interface{}{"gaps": gaps})
}

func (s *Server) handleEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)

	out, err := s.run(ctx, pipeline.ModeAnalyze)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if name != "" {
		ent := out.Entities.Get(name)
		if ent == nil {
			return mcp.NewToolResultError("unknown entity: " + name), nil
		}
		return s.result(ent)
	}

	entities := make([]interface{}, 0, len(out.Entities.Entities))
	for _, n := range out.Entities.Names() {
		entities = append(entities, out.Entities.Entities[n])
	}
	return s.result(map[string]interface{}{"entities": entities})
}

// result serializes v as YAML tool output.
func (s *Server) result(v interface{}) (*mcp.CallToolResult, error) {
	var b strings.Builder
	if err := output.FormatYAML.Encode(&b, v); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

// resolveRoots joins relative roots onto the work dir.
func resolveRoots(workDir string, roots []string) []string {
	resolved := make([]string, 0, len(roots))
	for _, root := range roots {
		if filepath.IsAbs(root) {
			resolved = append(resolved, root)
			continue
		}
		resolved = append(resolved, filepath.Join(workDir, root))
	}
	return resolved
}
