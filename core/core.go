package cloji

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

// Trace records one evaluation handled by the server.
type Trace struct {
	Source    string
	Result    any
	Error     string
	Frames    []Frame
	Timestamp string // RFC 3339
}

// ToMap converts a Trace to plain data for the traces op.
func (t *Trace) ToMap() map[string]any {
	frames := make([]any, len(t.Frames))
	for i, f := range t.Frames {
		frames[i] = map[string]any{"ident": f.Ident, "line": float64(f.Line)}
	}
	m := map[string]any{
		"source":    t.Source,
		"timestamp": t.Timestamp,
		"frames":    frames,
		"error":     nil,
	}
	if res, err := Export(t.Result); err == nil {
		m["result"] = res
	} else {
		m["result"] = Inspect(t.Result)
	}
	if t.Error != "" {
		m["error"] = t.Error
	}
	return m
}

// Core serves scripts over a unix socket. One actor goroutine owns the
// session script, so evaluations never run concurrently.
type Core struct {
	globals   map[string]any
	session   *Script
	requests  chan coreRequest
	listener  net.Listener
	traces    []Trace
	maxTraces int

	done     chan struct{}
	stopOnce sync.Once
}

type coreRequest struct {
	msg      map[string]any
	response chan map[string]any
}

// NewCore listens on sockPath. globals are injected read-only into the
// session and into every isolated run.
func NewCore(sockPath string, globals map[string]any) (*Core, error) {
	// Clean up a stale socket
	os.Remove(sockPath)

	c := &Core{
		globals:   globals,
		requests:  make(chan coreRequest, 64),
		maxTraces: 1000,
		done:      make(chan struct{}),
	}
	c.session = NewScript(globals, true)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	c.listener = listener
	return c, nil
}

// Run starts the actor and accepts connections. Blocks until shutdown.
func (c *Core) Run() {
	go c.actorLoop()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			return
		}
		go c.handleConnection(conn)
	}
}

// Shutdown stops accepting connections and ends the actor. Requests still
// in flight are answered with an error. Safe to call more than once.
func (c *Core) Shutdown() {
	c.stopOnce.Do(func() {
		c.listener.Close()
		close(c.done)
	})
}

func (c *Core) actorLoop() {
	for {
		select {
		case req := <-c.requests:
			req.response <- c.handleRequest(req.msg)
		case <-c.done:
			return
		}
	}
}

// sendToActor reports false once the core is shutting down. The requests
// channel is never closed, so late senders cannot panic.
func (c *Core) sendToActor(msg map[string]any) (map[string]any, bool) {
	select {
	case <-c.done:
		return nil, false
	default:
	}
	resp := make(chan map[string]any, 1)
	select {
	case c.requests <- coreRequest{msg: msg, response: resp}:
	case <-c.done:
		return nil, false
	}
	select {
	case r := <-resp:
		return r, true
	case <-c.done:
		return nil, false
	}
}

func (c *Core) handleRequest(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)

	op, _ := msg["op"].(string)
	switch op {
	case "":
		return c.coreManual(id)
	case "eval":
		return c.handleEval(id, msg)
	case "run":
		return c.handleRun(id, msg)
	case "get":
		return c.handleGet(id, msg)
	case "reset":
		c.session = NewScript(c.globals, true)
		return map[string]any{"id": id, "ok": true, "value": "reset"}
	case "traces":
		return c.handleTraces(id, msg)
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func (c *Core) coreManual(id string) map[string]any {
	forms := make([]any, 0)
	for _, name := range CoreNames() {
		forms = append(forms, name)
	}
	globals := make([]any, 0, len(c.globals))
	for _, name := range c.session.Scope().Names() {
		if c.session.Scope().IsReadOnly(name) {
			globals = append(globals, name)
		}
	}
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    "cloji-core",
			"version": "1.0.0",
			"ops": map[string]any{
				"eval":   "Evaluate source in the persistent session. Params: src (string)",
				"run":    "Evaluate source in a fresh isolated script. Params: src (string), globals (object, optional)",
				"get":    "Read a session binding, dotted paths allowed. Params: name (string)",
				"reset":  "Discard the session and start a new one.",
				"traces": "Return the most recent evaluation traces. Params: n (number, optional)",
			},
			"forms":   forms,
			"globals": globals,
		},
	}
}

func (c *Core) handleEval(id string, msg map[string]any) map[string]any {
	src, ok := msg["src"].(string)
	if !ok {
		return errorResponse(id, "eval: missing 'src' string")
	}
	return c.evaluate(id, c.session, src)
}

func (c *Core) handleRun(id string, msg map[string]any) map[string]any {
	src, ok := msg["src"].(string)
	if !ok {
		return errorResponse(id, "run: missing 'src' string")
	}
	globals := make(map[string]any, len(c.globals))
	for k, v := range c.globals {
		globals[k] = v
	}
	if extra, ok := msg["globals"].(map[string]any); ok {
		for k, v := range extra {
			globals[k] = Import(v)
		}
	}
	return c.evaluate(id, NewScript(globals, true), src)
}

func (c *Core) evaluate(id string, sc *Script, src string) map[string]any {
	var out bytes.Buffer
	sc.SetOutput(&out)
	defer sc.SetOutput(nil)

	trace := &Trace{
		Source:    src,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	res, err := sc.Exec(src)
	if err != nil {
		trace.Error = err.Error()
		trace.Frames = FramesOf(err)
		c.appendTrace(trace)
		resp := errorResponse(id, err.Error())
		resp["output"] = out.String()
		return resp
	}

	trace.Result = res.Value
	c.appendTrace(trace)

	val, err := Export(res.Value)
	if err != nil {
		return errorResponse(id, fmt.Sprintf("serialize result: %s", err))
	}
	return map[string]any{"id": id, "ok": true, "value": val, "output": out.String()}
}

func (c *Core) handleGet(id string, msg map[string]any) map[string]any {
	name, ok := msg["name"].(string)
	if !ok {
		return errorResponse(id, "get: missing 'name' string")
	}
	v, err := c.session.Scope().Get(name)
	if err != nil {
		return errorResponse(id, err.Error())
	}
	val, err := Export(v)
	if err != nil {
		return errorResponse(id, fmt.Sprintf("serialize %s: %s", name, err))
	}
	return map[string]any{"id": id, "ok": true, "value": val}
}

// handleTraces returns the last n traces, oldest first.
func (c *Core) handleTraces(id string, msg map[string]any) map[string]any {
	n := len(c.traces)
	if raw, exists := msg["n"]; exists {
		limit, ok := raw.(float64)
		if !ok || limit < 0 {
			return errorResponse(id, "traces: 'n' must be a non-negative number")
		}
		if int(limit) < n {
			n = int(limit)
		}
	}
	start := len(c.traces) - n
	result := make([]any, n)
	for i := 0; i < n; i++ {
		result[i] = c.traces[start+i].ToMap()
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

// appendTrace adds a trace and enforces the maxTraces cap.
func (c *Core) appendTrace(t *Trace) {
	c.traces = append(c.traces, *t)
	if len(c.traces) > c.maxTraces {
		excess := len(c.traces) - c.maxTraces
		c.traces = c.traces[excess:]
	}
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}

func (c *Core) handleConnection(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("read client message: %v", err)
			}
			return
		}

		resp, ok := c.sendToActor(msg)
		if !ok {
			id, _ := msg["id"].(string)
			WriteMsg(conn, errorResponse(id, "core is shutting down"))
			return
		}
		if err := WriteMsg(conn, resp); err != nil {
			log.Printf("write client response: %v", err)
			return
		}
	}
}
