// Command cloji runs cloji scripts from a file, an expression, standard
// input or an interactive prompt.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/yosbelms/cloji/config"
	cloji "github.com/yosbelms/cloji/core"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("cloji: ")

	expr := flag.String("e", "", "evaluate `expr` and print the result")
	cfgPath := flag.String("config", os.Getenv("CLOJI_CONFIG"), "YAML config `file`")
	swallow := flag.Bool("swallow", false, "report runtime errors without failing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cloji [flags] [script.clj]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var cfg *config.Config
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	globals, release, err := cfg.ScriptGlobals()
	if err != nil {
		log.Fatal(err)
	}

	throwOnErr := !(*swallow || (cfg != nil && cfg.SwallowErrors))
	sc := cloji.NewScript(globals, throwOnErr)

	var code int
	switch {
	case *expr != "":
		code = run(sc, *expr, os.Stdout, os.Stderr, true)
	case flag.NArg() > 0:
		src, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		code = run(sc, string(src), os.Stdout, os.Stderr, false)
	case term.IsTerminal(int(os.Stdin.Fd())):
		history := ""
		if cfg != nil {
			history = cfg.HistoryFile
		}
		code = repl(sc, history)
	default:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal(err)
		}
		code = run(sc, string(src), os.Stdout, os.Stderr, false)
	}
	release()
	os.Exit(code)
}

// run executes src and returns the exit code. The result is printed when
// echo is set and it is not undefined.
func run(sc *cloji.Script, src string, out, errOut io.Writer, echo bool) int {
	res, err := sc.Exec(src)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if res.Err != nil {
		fmt.Fprintln(errOut, res.Err)
	}
	if echo && res.Value != cloji.Undefined {
		fmt.Fprintln(out, cloji.Inspect(res.Value))
	}
	return 0
}
