package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	cloji "github.com/yosbelms/cloji/core"
)

const (
	defaultHistory = ".cloji_history"
	promptMain     = "cloji> "
	promptCont     = "  ...> "
)

func repl(sc *cloji.Script, histPath string) int {
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, defaultHistory)
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	fmt.Println("cloji REPL. Type :quit to exit.")
	for {
		src, ok := readForm(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(src)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit":
			return 0
		case strings.HasPrefix(trimmed, ":"):
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}
		run(sc, src, os.Stdout, os.Stderr, true)
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}
}

type prompter interface {
	Prompt(prompt string) (string, error)
}

// readForm reads lines until they parse or fail to parse for a reason
// other than an open bracket. ok is false at end of input.
func readForm(p prompter, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		current := prompt
		if b.Len() > 0 {
			current = cont
		}
		line, err := p.Prompt(current)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C drops the pending input.
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := cloji.Parse(src); cloji.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
