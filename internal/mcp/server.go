// Package mcp exposes the store's operations as MCP tools, for clients
// that drive the organizer over stdio or HTTP.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/maokki/wikinotes/internal/view"
)

const serverInstructions = `wikinotes organizes tagged notes into named categories.

Use list_categories and get_overview to orient, search_items for
case-insensitive substring search over names, descriptions, and tags,
and the create/update/delete tools to change data. export_backup returns
a JSON snapshot of everything; import_backup replaces the whole dataset
with a previously exported snapshot.`

// Config contains server configuration.
type Config struct {
	Adapter *view.Adapter
	Logger  *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and
// middleware. Tool handlers go through the view adapter, so every read
// reflects the state after the last mutation.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "wikinotes",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Adapter)

	return server
}
