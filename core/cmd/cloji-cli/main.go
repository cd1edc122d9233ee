// Command cloji-cli sends one request to a running cloji core and prints
// the response as indented JSON.
//
//	cloji-cli '(+ 1 2)'                   evaluate in the session
//	echo '{"op":"traces","n":5}' | cloji-cli
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	cloji "github.com/yosbelms/cloji/core"
)

const usage = `usage: cloji-cli [src]
  with src:    sends {"op":"eval","src":src}
  without src: reads one JSON request object from stdin`

func main() {
	sockPath := os.Getenv("CLOJI_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/cloji.sock"
	}

	msg, err := buildRequest(os.Args[1:], os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		os.Exit(2)
	}

	resp, err := roundTrip(sockPath, msg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	if ok, _ := resp["ok"].(bool); !ok {
		os.Exit(1)
	}
}

// buildRequest turns the command line, or stdin when there are no
// arguments, into a request carrying an id.
func buildRequest(args []string, stdin io.Reader) (map[string]any, error) {
	var msg map[string]any
	switch len(args) {
	case 0:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("parse request: %w", err)
		}
		if msg == nil {
			return nil, errors.New("request must be a JSON object")
		}
	case 1:
		msg = map[string]any{"op": "eval", "src": args[0]}
	default:
		return nil, errors.New("too many arguments")
	}
	if _, ok := msg["id"]; !ok {
		msg["id"] = cloji.NextID()
	}
	return msg, nil
}

func roundTrip(sockPath string, msg map[string]any) (map[string]any, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := cloji.WriteMsg(conn, msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := cloji.ReadMsg(conn)
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return resp, nil
}
