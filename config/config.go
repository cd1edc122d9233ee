// Package config loads the YAML file shared by the cloji commands.
//
//	socket: /tmp/cloji.sock
//	history_file: ~/.cloji_history
//	swallow_errors: false
//	modules: [clock, sqlite]
//	globals:
//	  greeting: hello
//	  limits: {max: 10}
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	cloji "github.com/yosbelms/cloji/core"
	"github.com/yosbelms/cloji/mods/clock"
	"github.com/yosbelms/cloji/mods/sqlite"
)

type Config struct {
	Path          string         `yaml:"-"`
	Socket        string         `yaml:"socket"`
	HistoryFile   string         `yaml:"history_file"`
	SwallowErrors bool           `yaml:"swallow_errors"`
	Modules       []string       `yaml:"modules"`
	Globals       map[string]any `yaml:"globals"`
}

// knownModules maps a module name to its constructor. The returned func
// releases whatever the module holds.
var knownModules = map[string]func() (map[string]any, func()){
	"clock": func() (map[string]any, func()) { return clock.Globals(), func() {} },
	"sqlite": func() (map[string]any, func()) {
		m := sqlite.New()
		return m.Globals(), m.Close
	},
}

// ModuleNames lists the modules a config may enable.
func ModuleNames() []string {
	names := make([]string, 0, len(knownModules))
	for name := range knownModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and validates the config at path. An empty file is an empty
// config.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	cfg := &Config{}
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.Path = absPath
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Modules))
	for i, name := range c.Modules {
		name = strings.TrimSpace(name)
		if _, ok := knownModules[name]; !ok {
			return fmt.Errorf("config: unknown module %q (known: %s)", name, strings.Join(ModuleNames(), ", "))
		}
		if seen[name] {
			return fmt.Errorf("config: module %q listed twice", name)
		}
		seen[name] = true
		c.Modules[i] = name
	}
	for name := range c.Globals {
		if name == "" || strings.ContainsAny(name, ". \t\n") {
			return fmt.Errorf("config: invalid global name %q", name)
		}
	}
	if strings.HasPrefix(c.HistoryFile, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			c.HistoryFile = filepath.Join(home, c.HistoryFile[2:])
		}
	}
	return nil
}

// ScriptGlobals builds the globals for a script: the enabled modules first,
// then the config's own globals. The returned func releases module
// resources. A nil Config yields no globals.
func (c *Config) ScriptGlobals() (map[string]any, func(), error) {
	globals := make(map[string]any)
	var closers []func()
	closeAll := func() {
		for _, f := range closers {
			f()
		}
	}
	if c == nil {
		return globals, closeAll, nil
	}

	for _, name := range c.Modules {
		mod, ok := knownModules[name]
		if !ok {
			closeAll()
			return nil, nil, fmt.Errorf("config: unknown module %q", name)
		}
		g, closer := mod()
		closers = append(closers, closer)
		for k, v := range g {
			globals[k] = v
		}
	}
	for k, v := range c.Globals {
		if _, clash := globals[k]; clash {
			closeAll()
			return nil, nil, fmt.Errorf("config: global %q is already provided by a module", k)
		}
		globals[k] = cloji.Import(v)
	}
	return globals, closeAll, nil
}
