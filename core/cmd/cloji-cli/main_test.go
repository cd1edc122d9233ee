package main

import (
	"path/filepath"
	"strings"
	"testing"

	cloji "github.com/yosbelms/cloji/core"
)

func TestBuildRequest(t *testing.T) {
	msg, err := buildRequest([]string{"(+ 1 2)"}, strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if msg["op"] != "eval" || msg["src"] != "(+ 1 2)" || msg["id"] == nil {
		t.Fatalf("unexpected request %v", msg)
	}

	msg, err = buildRequest(nil, strings.NewReader(`{"id":"mine","op":"traces"}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg["id"] != "mine" || msg["op"] != "traces" {
		t.Fatalf("unexpected request %v", msg)
	}
}

func TestBuildRequestErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{"null body", nil, "null"},
		{"array body", nil, "[1]"},
		{"bad json", nil, "{"},
		{"empty stdin", nil, ""},
		{"too many args", []string{"a", "b"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildRequest(tt.args, strings.NewReader(tt.stdin)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "core.sock")
	core, err := cloji.NewCore(sock, nil)
	if err != nil {
		t.Fatal(err)
	}
	go core.Run()
	defer core.Shutdown()

	msg, _ := buildRequest([]string{"(* 6 7)"}, nil)
	resp, err := roundTrip(sock, msg)
	if err != nil {
		t.Fatal(err)
	}
	if resp["ok"] != true || resp["value"] != 42.0 || resp["id"] != msg["id"] {
		t.Fatalf("unexpected response %v", resp)
	}

	if _, err := roundTrip(filepath.Join(t.TempDir(), "missing.sock"), msg); err == nil {
		t.Fatal("expected connect error")
	}
}
