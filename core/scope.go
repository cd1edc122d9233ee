package cloji

import (
	"io"
	"os"
	"sort"
	"strings"
)

// Scope is a lexical environment. Names given to NewScope are read-only for
// def in that scope; names bound later are not.
type Scope struct {
	vars     map[string]any
	readOnly map[string]bool
	parent   *Scope
	out      io.Writer
}

func NewScope(vars map[string]any, parent *Scope) *Scope {
	s := &Scope{
		vars:     make(map[string]any, len(vars)),
		readOnly: make(map[string]bool, len(vars)),
		parent:   parent,
	}
	for k, v := range vars {
		s.vars[k] = v
		s.readOnly[k] = true
	}
	return s
}

func (s *Scope) Parent() *Scope { return s.parent }

// IsDefined reports whether name resolves here or in any ancestor.
func (s *Scope) IsDefined(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.vars[name]; ok {
			return true
		}
	}
	return false
}

// IsReadOnly reports whether name is one of this scope's own read-only
// bindings. Ancestors are not consulted.
func (s *Scope) IsReadOnly(name string) bool {
	return s.readOnly[name]
}

// GetVar looks name up through the chain. Unbound names read as Undefined.
func (s *Scope) GetVar(name string) (any, error) {
	if err := guardProp(name); err != nil {
		return nil, err
	}
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, nil
		}
	}
	return Undefined, nil
}

// Get resolves a dotted path. The first segment must be bound.
func (s *Scope) Get(path string) (any, error) {
	name, rest, dotted := strings.Cut(path, ".")
	if !s.IsDefined(name) {
		return nil, &UndefinedVariableError{Name: name}
	}
	v, err := s.GetVar(name)
	if err != nil || !dotted {
		return v, err
	}
	return objectPathGet(v, strings.Split(rest, "."))
}

// Set binds a bare name in this scope, or writes through a dotted path into
// the object the first segment names.
func (s *Scope) Set(path string, value any) (any, error) {
	name, rest, dotted := strings.Cut(path, ".")
	if !dotted {
		s.vars[name] = value
		return value, nil
	}
	base, err := s.GetVar(name)
	if err != nil {
		return nil, err
	}
	if err := objectPathSet(base, strings.Split(rest, "."), value); err != nil {
		return nil, err
	}
	return value, nil
}

// Names lists this scope's own bindings in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetOutput directs print in this scope and its descendants to w.
func (s *Scope) SetOutput(w io.Writer) { s.out = w }

func (s *Scope) output() io.Writer {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.out != nil {
			return sc.out
		}
	}
	return os.Stdout
}
