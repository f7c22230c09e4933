// Package server exposes the command store as MCP tools over stdio
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AbdouB/memorybox/internal/db"
	"github.com/AbdouB/memorybox/internal/search"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Memory Box"
	// serverVersion identifies the MCP server version.
	serverVersion = "1.0.0"
)

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
}

// New wires the command store's operations into a configured MCP server.
func New(repo *db.CommandRepository) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	engine := search.New(repo)

	mcp.AddTool(mcpServer, AddCommandTool(), AddCommandHandler(repo))
	mcp.AddTool(mcpServer, SearchCommandsTool(), SearchCommandsHandler(engine))
	mcp.AddTool(mcpServer, GetCommandTool(), GetCommandHandler(repo))
	mcp.AddTool(mcpServer, DeleteCommandTool(), DeleteCommandHandler(repo))
	mcp.AddTool(mcpServer, ListTagsTool(), ListTagsHandler(repo))
	mcp.AddTool(mcpServer, ListCategoriesTool(), ListCategoriesHandler(repo))

	return &Server{mcpServer: mcpServer}
}

// Run serves MCP over stdio until the context ends.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
