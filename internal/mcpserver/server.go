// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes trademark search and analysis tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/marca/internal/apperr"
	"github.com/starford/marca/internal/models"
	"github.com/starford/marca/internal/scoring"
)

// Backend is the analysis service as seen by the tools.
type Backend interface {
	AnalyzeQuery(ctx context.Context, q models.SearchQuery) (*models.TrademarkAnalysis, error)
	Search(ctx context.Context, q models.SearchQuery) (*models.SearchResult, error)
	Health() models.HealthStatus
}

// PolicySource returns the scoring policy currently in effect.
type PolicySource interface {
	Policy() scoring.Policy
}

// Server wraps the MCP server with the trademark tools.
type Server struct {
	mcp     *server.MCPServer
	svc     Backend
	policy  PolicySource
	version string
}

// New creates a new MCP server with all tools registered.
func New(svc Backend, policy PolicySource, version string) *Server {
	s := &Server{svc: svc, policy: policy, version: version}

	s.mcp = server.NewMCPServer(
		"Marca",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_trademark",
		mcp.WithDescription("Score how likely a trademark name is to be registrable. "+
			"Searches the registry for similar marks and returns a 0-100 viability score, "+
			"per-candidate similarity, recommendations, and a projected timeline. "+
			"See the "+PolicyURI+" resource for how the score is computed."),
		mcp.WithString("marca", mcp.Required(), mcp.Description("Trademark name to analyze")),
		mcp.WithString("ncl", mcp.Description("Optional Nice class code (e.g. 25)")),
		mcp.WithString("tipo", mcp.Description("Optional mark type filter")),
	), s.analyzeTrademark)

	s.mcp.AddTool(mcp.NewTool("search_registry",
		mcp.WithDescription("Search the trademark registry and return the raw candidate marks."),
		mcp.WithString("marca", mcp.Required(), mcp.Description("Trademark name to search")),
		mcp.WithString("ncl", mcp.Description("Optional Nice class code")),
		mcp.WithString("tipo", mcp.Description("Optional mark type filter")),
		mcp.WithNumber("pagina", mcp.Description("Result page, starting at 1")),
	), s.searchRegistry)

	s.mcp.AddTool(mcp.NewTool("registry_health",
		mcp.WithDescription("Report registry session state and cache size."),
	), s.registryHealth)

	s.mcp.AddResource(
		mcp.NewResource(PolicyURI, "Scoring Policy",
			mcp.WithResourceDescription("Status sets and thresholds used to compute viability scores."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPolicyResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func queryFrom(req mcp.CallToolRequest) (models.SearchQuery, error) {
	name, err := req.RequireString("marca")
	if err != nil {
		return models.SearchQuery{}, apperr.Validation("mcp.query", err.Error())
	}
	return models.NewSearchQuery(
		name,
		req.GetString("ncl", ""),
		req.GetString("tipo", ""),
		req.GetInt("pagina", 1),
	)
}

func (s *Server) analyzeTrademark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := queryFrom(req)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	analysis, err := s.svc.AnalyzeQuery(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	return jsonResult(analysis)
}

func (s *Server) searchRegistry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := queryFrom(req)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	res, err := s.svc.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	return jsonResult(res)
}

func (s *Server) registryHealth(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Health())
}

func (s *Server) readPolicyResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PolicyURI,
			MIMEType: "text/markdown",
			Text:     RenderPolicy(s.policy.Policy()),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
