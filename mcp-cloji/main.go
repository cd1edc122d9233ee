// Command mcp-cloji exposes a running cloji core to MCP clients over stdio.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	cloji "github.com/yosbelms/cloji/core"
)

// client serializes requests over one core connection.
type client struct {
	mu   sync.Mutex
	conn net.Conn
}

// send sends a request to the core and returns the response.
func (c *client) send(req map[string]any) (map[string]any, error) {
	req["id"] = cloji.NextID()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := cloji.WriteMsg(c.conn, req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := cloji.ReadMsg(c.conn)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

// call sends req and turns the response into a tool result.
func (c *client) call(req map[string]any) (*mcp.CallToolResult, error) {
	resp, err := c.send(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

// formatResult turns a core response into an MCP tool result. Printed
// output travels as a second text block.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	var result *mcp.CallToolResult
	if ok, _ := resp["ok"].(bool); ok {
		out, err := json.MarshalIndent(resp["value"], "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		result = mcp.NewToolResultText(string(out))
	} else {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		result = mcp.NewToolResultError(errMsg)
	}
	if output, _ := resp["output"].(string); output != "" {
		result.Content = append(result.Content, mcp.NewTextContent("output:\n"+output))
	}
	return result, nil
}

func (c *client) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("src")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.call(map[string]any{"op": "eval", "src": src})
}

func (c *client) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("src")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := map[string]any{"op": "run", "src": src}
	if raw, ok := request.GetArguments()["globals"]; ok && raw != nil {
		globals, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("globals must be an object"), nil
		}
		req["globals"] = globals
	}
	return c.call(req)
}

func (c *client) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.call(map[string]any{"op": "get", "name": name})
}

func (c *client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.call(map[string]any{"op": "reset"})
}

func (c *client) handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if n := request.GetFloat("n", -1); n >= 0 {
		req["n"] = n
	}
	return c.call(req)
}

func newServer(c *client) *server.MCPServer {
	s := server.NewMCPServer(
		"cloji",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("cloji_eval",
			mcp.WithDescription("Evaluate cloji source in the persistent session. Definitions survive across calls. Returns the value of the last expression."),
			mcp.WithString("src",
				mcp.Required(),
				mcp.Description("cloji source, e.g. (defn sq [x] (* x x)) (sq 4)"),
			),
		),
		c.handleEval,
	)

	s.AddTool(
		mcp.NewTool("cloji_run",
			mcp.WithDescription("Evaluate cloji source in a fresh isolated script. Nothing is kept afterwards."),
			mcp.WithString("src",
				mcp.Required(),
				mcp.Description("cloji source to run"),
			),
			mcp.WithObject("globals",
				mcp.Description("Extra read-only globals for this run"),
			),
		),
		c.handleRun,
	)

	s.AddTool(
		mcp.NewTool("cloji_get",
			mcp.WithDescription("Read a binding from the session. Dotted paths such as user.name are allowed."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Binding name or dotted path"),
			),
		),
		c.handleGet,
	)

	s.AddTool(
		mcp.NewTool("cloji_reset",
			mcp.WithDescription("Discard the session and start a new one. Traces are kept."),
		),
		c.handleReset,
	)

	s.AddTool(
		mcp.NewTool("cloji_traces",
			mcp.WithDescription("Return recent evaluations with their results, errors and call frames, oldest first."),
			mcp.WithNumber("n",
				mcp.Description("Number of traces to return (default: all)"),
			),
		),
		c.handleTraces,
	)

	return s
}

func main() {
	sockPath := os.Getenv("CLOJI_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/cloji.sock"
	}

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		log.Fatalf("connect to %s: %v", sockPath, err)
	}
	defer conn.Close()
	log.Printf("connected to cloji core: %s", sockPath)

	if err := server.ServeStdio(newServer(&client{conn: conn})); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
