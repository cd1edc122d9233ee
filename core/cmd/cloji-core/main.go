package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yosbelms/cloji/config"
	cloji "github.com/yosbelms/cloji/core"
)

func main() {
	var cfg *config.Config
	if path := os.Getenv("CLOJI_CONFIG"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	sockPath := os.Getenv("CLOJI_SOCK")
	if sockPath == "" && cfg != nil {
		sockPath = cfg.Socket
	}
	if sockPath == "" {
		sockPath = "/tmp/cloji.sock"
	}

	globals, release, err := cfg.ScriptGlobals()
	if err != nil {
		log.Fatalf("build globals: %v", err)
	}

	core, err := cloji.NewCore(sockPath, globals)
	if err != nil {
		log.Fatalf("failed to start core: %v", err)
	}

	// Handle shutdown signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		core.Shutdown()
		release()
		os.Exit(0)
	}()

	log.Printf("cloji core listening on %s (%d globals)", sockPath, len(globals))
	core.Run()
}
