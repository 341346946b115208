// Package testserver assembles a full stack (in-memory slot, store, view
// adapter, MCP server) with a connected client session, for tests that
// exercise the consumer surface end to end.
package testserver

import (
	"context"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/maokki/wikinotes/internal/mcp"
	"github.com/maokki/wikinotes/internal/slot"
	"github.com/maokki/wikinotes/internal/view"
	"github.com/maokki/wikinotes/internal/wiki"
)

type TestServer struct {
	Slot    *slot.Memory
	Store   *wiki.Store
	Adapter *view.Adapter
	Session *sdkmcp.ClientSession
}

func New(t *testing.T) *TestServer {
	t.Helper()
	ctx := context.Background()

	mem := slot.NewMemory()
	store := wiki.NewStore(mem, nil)
	adapter := view.NewAdapter(ctx, store)
	server := mcp.NewServer(mcp.Config{Adapter: adapter})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "wikinotes-test",
		Version: "0.0.1",
	}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = clientSession.Close()
		_ = serverSession.Wait()
	})

	return &TestServer{
		Slot:    mem,
		Store:   store,
		Adapter: adapter,
		Session: clientSession,
	}
}

// CallTool invokes a tool and returns its structured output, failing the
// test on transport or tool errors.
func (ts *TestServer) CallTool(t *testing.T, name string, args map[string]any) map[string]any {
	t.Helper()
	res := ts.callTool(t, name, args)
	require.False(t, res.IsError, "tool %s failed: %v", name, res.Content)
	out, _ := res.StructuredContent.(map[string]any)
	return out
}

// CallToolExpectError invokes a tool expecting a tool-level error and
// returns the error text.
func (ts *TestServer) CallToolExpectError(t *testing.T, name string, args map[string]any) string {
	t.Helper()
	res := ts.callTool(t, name, args)
	require.True(t, res.IsError, "tool %s unexpectedly succeeded", name)
	for _, content := range res.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func (ts *TestServer) callTool(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := ts.Session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	return res
}
