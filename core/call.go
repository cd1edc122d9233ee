package cloji

import (
	"fmt"
	"reflect"
)

// Func is a language-defined callable. It receives the caller's scope and
// the raw, unevaluated argument nodes and decides itself what to evaluate.
type Func interface {
	Call(s *Scope, args []*Node) (any, error)
}

// Form is a Func implemented in Go; the core special forms are Forms.
type Form func(s *Scope, args []*Node) (any, error)

func (f Form) Call(s *Scope, args []*Node) (any, error) { return f(s, args) }

// HostFunc is the native shape of a host-defined callable.
type HostFunc func(args ...any) (any, error)

// Closure is a function created by fn. It evaluates in a child of the scope
// it was declared in.
type Closure struct {
	Params *Node // array pattern
	Body   []*Node
	Scope  *Scope
	Name   string
}

func (c *Closure) Call(s *Scope, args []*Node) (any, error) {
	vals, err := structArray(s, args)
	if err != nil {
		return nil, err
	}
	return c.Apply(vals)
}

// Apply runs the closure with already evaluated arguments.
func (c *Closure) Apply(args []any) (any, error) {
	vars := make(map[string]any)
	if c.Params != nil {
		bind := func(name string, v any) error {
			vars[name] = v
			return nil
		}
		if err := destructArray(c.Params.Children, args, bind); err != nil {
			return nil, err
		}
	}
	return executeBlock(NewScope(vars, c.Scope), c.Body)
}

func (c *Closure) String() string {
	if c.Name != "" {
		return "[Function: " + c.Name + "]"
	}
	return "[Function (anonymous)]"
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case Func, HostFunc, func(...any) (any, error), func(...any) any:
		return true
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

// Invoke calls any callable with evaluated arguments. Language-defined
// functions receive the values wrapped in Js nodes.
func Invoke(fn any, args ...any) (any, error) {
	switch f := fn.(type) {
	case *Closure:
		return f.Apply(args)
	case Func:
		nodes := make([]*Node, len(args))
		for i, a := range args {
			nodes[i] = jsNode(a, 0)
		}
		return f.Call(NewScope(nil, coreScope), nodes)
	}
	if !isCallable(fn) {
		return nil, &NotCallableError{Name: Inspect(fn)}
	}
	return callHost(fn, args)
}

// callHost invokes a host-defined callable. Panics are reported as errors.
func callHost(fn any, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("host function panicked: %w", e)
			} else {
				err = fmt.Errorf("host function panicked: %v", r)
			}
		}
	}()

	switch f := fn.(type) {
	case HostFunc:
		return orUndefined(f(args...))
	case func(...any) (any, error):
		return orUndefined(f(args...))
	case func(...any) any:
		return normalize(f(args...)), nil
	case func(...any):
		f(args...)
		return Undefined, nil
	}
	return callReflect(reflect.ValueOf(fn), args)
}

func orUndefined(v any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return normalize(v), nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func callReflect(fv reflect.Value, args []any) (any, error) {
	ft := fv.Type()
	n := ft.NumIn()
	if ft.IsVariadic() {
		n--
	}
	// missing trailing arguments are passed as zero values, extra ones dropped
	if !ft.IsVariadic() && len(args) > n {
		args = args[:n]
	}
	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < len(args) || i < n; i++ {
		var pt reflect.Type
		if i < n {
			pt = ft.In(i)
		} else {
			pt = ft.In(n).Elem()
		}
		var a any
		if i < len(args) {
			a = args[i]
		}
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		in = append(in, v)
	}

	out := fv.Call(in)
	switch len(out) {
	case 0:
		return Undefined, nil
	case 1:
		if ft.Out(0) == errorType {
			if !out[0].IsNil() {
				return nil, out[0].Interface().(error)
			}
			return Undefined, nil
		}
		return normalize(out[0].Interface()), nil
	default:
		last := out[len(out)-1]
		if ft.Out(len(out)-1) == errorType && !last.IsNil() {
			return nil, last.Interface().(error)
		}
		return normalize(out[0].Interface()), nil
	}
}

func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if isNullish(a) {
		if a == Undefined && t.Kind() == reflect.Interface && reflect.TypeOf(a).Implements(t) {
			return reflect.ValueOf(a), nil
		}
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if xs, ok := asSlice(a); ok && t.Kind() == reflect.Slice {
		out := reflect.MakeSlice(t, len(xs), len(xs))
		for i, x := range xs {
			ev, err := convertArg(x, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}
	if m, ok := a.(map[string]any); ok && t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		out := reflect.MakeMapWithSize(t, len(m))
		for k, x := range m {
			ev, err := convertArg(x, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil
	}
	if _, isNum := numeric(a); isNum {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return v.Convert(t), nil
		}
	}
	if _, isStr := a.(string); isStr && t.Kind() == reflect.String {
		return v.Convert(t), nil
	}
	if t.Kind() == reflect.Func && isCallable(a) {
		return adaptFunc(a, t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", Inspect(a), t)
}

// adaptFunc lets a script function be passed where a typed Go func is
// expected. Errors from the script function panic into the host, which is
// the only way a func type without an error result can report them.
func adaptFunc(fn any, t reflect.Type) reflect.Value {
	return reflect.MakeFunc(t, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = normalize(v.Interface())
		}
		res, err := Invoke(fn, args...)
		out := make([]reflect.Value, t.NumOut())
		for i := range out {
			ot := t.Out(i)
			switch {
			case ot == errorType:
				if err != nil {
					out[i] = reflect.ValueOf(&err).Elem()
				} else {
					out[i] = reflect.Zero(ot)
				}
			case i == 0 && err == nil:
				v, cerr := convertArg(res, ot)
				if cerr != nil {
					panic(cerr)
				}
				out[i] = v
			default:
				out[i] = reflect.Zero(ot)
			}
		}
		if err != nil && (t.NumOut() == 0 || t.Out(t.NumOut()-1) != errorType) {
			panic(err)
		}
		return out
	})
}
