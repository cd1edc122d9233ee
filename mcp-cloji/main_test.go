package main

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	cloji "github.com/yosbelms/cloji/core"
)

func newClient(t *testing.T) *client {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "core.sock")
	core, err := cloji.NewCore(sock, map[string]any{"base": 100.0})
	if err != nil {
		t.Fatal(err)
	}
	go core.Run()
	t.Cleanup(core.Shutdown)

	conn, err := net.Dial("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{conn: conn}
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func texts(t *testing.T, res *mcp.CallToolResult) []string {
	t.Helper()
	out := make([]string, len(res.Content))
	for i, c := range res.Content {
		tc, ok := c.(mcp.TextContent)
		if !ok {
			t.Fatalf("content %d is %T, not text", i, c)
		}
		out[i] = tc.Text
	}
	return out
}

func TestEvalTool(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	res, err := c.handleEval(ctx, request(map[string]any{"src": "(def x (+ base 1))"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || texts(t, res)[0] != "101" {
		t.Fatalf("unexpected result %v", texts(t, res))
	}

	res, _ = c.handleEval(ctx, request(map[string]any{"src": `(print "x is" x) {:x x}`}))
	got := texts(t, res)
	if len(got) != 2 || got[0] != "{\n  \"x\": 101\n}" || got[1] != "output:\nx is 101\n" {
		t.Fatalf("unexpected result %q", got)
	}

	res, _ = c.handleGet(ctx, request(map[string]any{"name": "x"}))
	if res.IsError || texts(t, res)[0] != "101" {
		t.Fatalf("get: unexpected result %v", texts(t, res))
	}

	res, _ = c.handleReset(ctx, request(nil))
	if res.IsError {
		t.Fatalf("reset failed: %v", texts(t, res))
	}
	res, _ = c.handleGet(ctx, request(map[string]any{"name": "x"}))
	if !res.IsError {
		t.Fatal("expected x to be gone after reset")
	}
}

func TestEvalToolErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	res, _ := c.handleEval(ctx, request(map[string]any{}))
	if !res.IsError {
		t.Fatal("expected missing src to fail")
	}
	res, _ = c.handleEval(ctx, request(map[string]any{"src": "(missing)"}))
	if !res.IsError || !strings.Contains(texts(t, res)[0], "missing is not defined") {
		t.Fatalf("unexpected result %v", texts(t, res))
	}
}

func TestRunTool(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	res, _ := c.handleRun(ctx, request(map[string]any{
		"src":     "(def y 2) (+ base y n)",
		"globals": map[string]any{"n": 3.0},
	}))
	if res.IsError || texts(t, res)[0] != "105" {
		t.Fatalf("unexpected result %v", texts(t, res))
	}
	res, _ = c.handleGet(ctx, request(map[string]any{"name": "y"}))
	if !res.IsError {
		t.Fatal("run must not touch the session")
	}
	res, _ = c.handleRun(ctx, request(map[string]any{"src": "1", "globals": "nope"}))
	if !res.IsError {
		t.Fatal("expected non-object globals to fail")
	}
}

func TestTracesTool(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	for _, src := range []string{"1", "2", "3"} {
		c.handleEval(ctx, request(map[string]any{"src": src}))
	}
	res, _ := c.handleTraces(ctx, request(map[string]any{"n": 2.0}))
	text := texts(t, res)[0]
	if res.IsError || strings.Contains(text, `"source": "1"`) || !strings.Contains(text, `"source": "3"`) {
		t.Fatalf("unexpected traces %s", text)
	}
	res, _ = c.handleTraces(ctx, request(nil))
	if !strings.Contains(texts(t, res)[0], `"source": "1"`) {
		t.Fatalf("expected all traces, got %s", texts(t, res)[0])
	}
}
