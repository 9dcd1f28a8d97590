// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the property-retrieval tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Leocrydis/SENomexLayers/internal/api"
)

// Server wraps the MCP server with the resolver tools.
type Server struct {
	mcp *server.MCPServer
	svc *api.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *api.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"SENomexLayers",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_layers",
		mcp.WithDescription("Resolve the NOMEX_LAYERS properties for a batch of part identifiers. "+
			"Returns one line per match plus diagnostics for identifiers that failed."),
		mcp.WithString("identifiers", mcp.Required(), mcp.Description("Comma-separated part identifiers, e.g. 7xxxyy01,7xxxyy02")),
	), s.resolveLayers)

	s.mcp.AddTool(mcp.NewTool("read_part_properties",
		mcp.WithDescription("Read every custom property of one part file."),
		mcp.WithString("identifier", mcp.Required(), mcp.Description("Part identifier (file stem under the search root)")),
	), s.readPartProperties)

	s.mcp.AddTool(mcp.NewTool("list_parts",
		mcp.WithDescription("List the part files under the configured search root."),
	), s.listParts)

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

func (s *Server) resolveLayers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("identifiers")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return mcp.NewToolResultError("identifiers is empty"), nil
	}

	res, err := s.svc.Resolve(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	for _, m := range res.Matches {
		b.WriteString(m.Line())
		b.WriteByte('\n')
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(&b, "# %s: %s\n", d.Identifier, d.Error)
	}
	if b.Len() == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readPartProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	props, err := s.svc.PartProperties(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type item struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	items := make([]item, 0, len(props))
	for _, p := range props {
		items = append(items, item{Name: p.Name, Value: p.Text()})
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listParts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parts, err := s.svc.ListParts()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(parts) == 0 {
		return mcp.NewToolResultText("no part files found"), nil
	}
	var paths []string
	for _, p := range parts {
		paths = append(paths, p.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}
