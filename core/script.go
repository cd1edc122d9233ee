package cloji

import (
	"errors"
	"io"
)

// Script is an execution context. Globals given to NewScript are read-only
// bindings; names a script defines persist across Exec calls.
type Script struct {
	scope      *Scope
	throwOnErr bool
}

func NewScript(globals map[string]any, throwOnErr bool) *Script {
	return &Script{scope: NewScope(globals, coreScope), throwOnErr: throwOnErr}
}

// SetOutput redirects print.
func (sc *Script) SetOutput(w io.Writer) { sc.scope.SetOutput(w) }

func (sc *Script) Scope() *Scope { return sc.scope }

// Result is the outcome of one Exec.
type Result struct {
	Value any
	Err   error // runtime error recorded when the script swallows errors
	scope *Scope
}

// Get reads a binding, dotted paths included, from the script's scope.
func (r *Result) Get(path string) (any, error) { return r.scope.Get(path) }

func (r *Result) Scope() *Scope { return r.scope }

// Exec parses and runs src. Parse errors are always returned. A runtime
// error is returned as a *TracedError when the script throws on errors, and
// recorded on Result.Err otherwise.
func (sc *Script) Exec(src string) (*Result, error) {
	program, err := Parse(src)
	if err != nil {
		return nil, err
	}
	res := &Result{Value: Undefined, scope: sc.scope}
	v, err := executeBlock(sc.scope, program.Children)
	if err != nil {
		te := traced(err)
		if sc.throwOnErr {
			return res, te
		}
		res.Err = te
		return res, nil
	}
	res.Value = v
	return res, nil
}

// Exec runs src in a fresh script over globals.
func Exec(src string, globals map[string]any, throwOnErr bool) (*Result, error) {
	return NewScript(globals, throwOnErr).Exec(src)
}

// IsParseError reports whether err came from the parser.
func IsParseError(err error) bool {
	var se *SyntaxError
	var ube *UnbalancedBracketError
	return errors.As(err, &se) || errors.As(err, &ube)
}
