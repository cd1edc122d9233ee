package cloji

import (
	"errors"
	"fmt"
	"strings"
)

// SyntaxError reports a character the parser cannot tokenize, or an
// unterminated string literal.
type SyntaxError struct {
	Char rune
	Line int
	Pos  int // rune offset into the source
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("syntax error at line %d: unrecognized token %q (code %d) at position %d", e.Line, e.Char, e.Char, e.Pos)
}

// UnbalancedBracketError reports bracket nesting that does not close.
// Unexpected is set for a stray or mismatched closer; otherwise input ended
// with Bracket still open since Line.
type UnbalancedBracketError struct {
	Bracket    rune
	Line       int
	EndLine    int
	Unexpected bool
	Open       rune // innermost opener when a closer does not match it
	OpenLine   int
}

func (e *UnbalancedBracketError) Error() string {
	switch {
	case e.Unexpected && e.Open != 0:
		return fmt.Sprintf("unbalanced brackets: %q at line %d does not close %q opened at line %d", e.Bracket, e.Line, e.Open, e.OpenLine)
	case e.Unexpected:
		return fmt.Sprintf("unbalanced brackets: unexpected %q at line %d", e.Bracket, e.Line)
	default:
		return fmt.Sprintf("unbalanced brackets: %q opened at line %d is never closed (reached line %d)", e.Bracket, e.Line, e.EndLine)
	}
}

type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return e.Name + " is not defined"
}

// ForbiddenAccessError is returned for reads or writes of denylisted
// property names.
type ForbiddenAccessError struct {
	Property string
}

func (e *ForbiddenAccessError) Error() string {
	return "forbidden property " + e.Property
}

type ReadOnlyRebindError struct {
	Name string
}

func (e *ReadOnlyRebindError) Error() string {
	return fmt.Sprintf("trying to set readonly variable '%s'", e.Name)
}

type NotCallableError struct {
	Name string
}

func (e *NotCallableError) Error() string {
	return e.Name + " is not a function"
}

type NotIterableError struct {
	Name string
}

func (e *NotIterableError) Error() string {
	return e.Name + " is not iterable"
}

// InvalidSyntaxError means a node reached the evaluator in a position where
// its kind has no meaning.
type InvalidSyntaxError struct {
	Node *Node
	Msg  string
}

func (e *InvalidSyntaxError) Error() string {
	if e.Msg != "" {
		return "invalid syntax: " + e.Msg
	}
	if e.Node == nil {
		return "invalid syntax"
	}
	return fmt.Sprintf("invalid syntax %s at line %d", e.Node, e.Node.Line)
}

// PropertyAccessError is returned when a property path passes through a
// value that cannot hold properties.
type PropertyAccessError struct {
	Property string
	Target   any
	Write    bool
}

func (e *PropertyAccessError) Error() string {
	verb := "read"
	if e.Write {
		verb = "set"
	}
	return fmt.Sprintf("cannot %s property '%s' of %s", verb, e.Property, Inspect(e.Target))
}

// Frame is one entry of a diagnostic trace.
type Frame struct {
	Ident string `json:"ident"`
	Line  int    `json:"line"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s (%d)", f.Ident, f.Line)
}

// TracedError carries the frames collected while an error unwound through
// enclosing calls, innermost first.
type TracedError struct {
	Err    error
	Frames []Frame
}

func (e *TracedError) Error() string {
	if len(e.Frames) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, len(e.Frames))
	for i, f := range e.Frames {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s \n at %s \n\n -----", e.Err.Error(), strings.Join(parts, "\n at "))
}

func (e *TracedError) Unwrap() error { return e.Err }

// withFrame appends a frame for node to err, wrapping it on first use.
func withFrame(err error, node *Node) error {
	te := traced(err)
	if node != nil {
		te.Frames = append(te.Frames, Frame{Ident: nodeIdent(node), Line: node.Line})
	}
	return te
}

func traced(err error) *TracedError {
	var te *TracedError
	if errors.As(err, &te) {
		return te
	}
	return &TracedError{Err: err}
}

// FramesOf returns the diagnostic frames attached to err, if any.
func FramesOf(err error) []Frame {
	var te *TracedError
	if errors.As(err, &te) {
		return te.Frames
	}
	return nil
}
