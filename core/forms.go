package cloji

import (
	"fmt"
	"math"
	"strings"
)

// coreScope is the root of every script scope. It holds the special forms
// and operators.
var coreScope *Scope

func init() {
	forms := map[string]any{
		"##":     Form(formComment),
		"def":    Form(formDef),
		"set":    Form(formSet),
		"fn":     Form(formFn),
		"defn":   Form(formDefn),
		"jsfn":   Form(formJsfn),
		"print":  Form(formPrint),
		"if":     Form(formIf),
		"cond":   Form(formCond),
		"object": Form(formObject),
		"array":  Form(formArray),
		"new":    Form(formNew),
		"aget":   Form(formAget),
		"aset":   Form(formAset),
		"thread": Form(formThread),
		"doto":   Form(formDoto),
		"not":    Form(formNot),
	}
	for name, op := range operators {
		forms[name] = foldOp(op)
	}
	coreScope = NewScope(forms, nil)
}

// CoreNames lists the special forms and operators every script sees.
func CoreNames() []string { return coreScope.Names() }

func nth(args []*Node, i int) *Node {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func formComment(*Scope, []*Node) (any, error) { return Undefined, nil }

// (def a 1), (def [a b] [2 3])
func formDef(s *Scope, args []*Node) (any, error) {
	target := nth(args, 0)
	if target == nil {
		return nil, &InvalidSyntaxError{Msg: "def requires a name"}
	}
	if target.Type == NodeIdent && s.IsReadOnly(target.Value) {
		return nil, &ReadOnlyRebindError{Name: target.Value}
	}
	return bindTarget(s, target, nth(args, 1), true)
}

// (set a 2), (set obj.name "x"), (set {a b} obj)
func formSet(s *Scope, args []*Node) (any, error) {
	target := nth(args, 0)
	if target == nil {
		return nil, &InvalidSyntaxError{Msg: "set requires a name"}
	}
	return bindTarget(s, target, nth(args, 1), false)
}

func bindTarget(s *Scope, target, valueNode *Node, guard bool) (any, error) {
	v, err := Evaluate(s, valueNode)
	if err != nil {
		return nil, err
	}
	switch target.Type {
	case NodeIdent:
		return s.Set(target.Value, v)
	case NodeArray, NodeObject:
		return Undefined, destruct(target, v, scopeBinder(s, guard))
	}
	return nil, &InvalidSyntaxError{Node: target, Msg: fmt.Sprintf("cannot bind to %s", target.Type)}
}

// (fn [a &more] body...)
func formFn(s *Scope, args []*Node) (any, error) {
	return newClosure(s, "", args)
}

func newClosure(s *Scope, name string, args []*Node) (*Closure, error) {
	params := nth(args, 0)
	if params == nil || params.Type != NodeArray {
		return nil, &InvalidSyntaxError{Node: params, Msg: "fn requires a parameter vector"}
	}
	return &Closure{Params: params, Body: args[1:], Scope: s, Name: name}, nil
}

// (defn name [a] body...)
func formDefn(s *Scope, args []*Node) (any, error) {
	name := nth(args, 0)
	if name == nil || name.Type != NodeIdent {
		return nil, &InvalidSyntaxError{Node: name, Msg: "defn requires a name"}
	}
	if s.IsReadOnly(name.Value) {
		return nil, &ReadOnlyRebindError{Name: name.Value}
	}
	c, err := newClosure(s, name.Value, args[1:])
	if err != nil {
		return nil, err
	}
	return s.Set(name.Value, c)
}

// (jsfn f), (jsfn [a b] body...)
func formJsfn(s *Scope, args []*Node) (any, error) {
	if len(args) == 0 {
		return Undefined, nil
	}
	var fn Func
	if args[0].Type == NodeArray {
		c, err := newClosure(s, "", args)
		if err != nil {
			return nil, err
		}
		fn = c
	} else {
		v, err := Evaluate(s, args[0])
		if err != nil {
			return nil, err
		}
		f, ok := v.(Func)
		if !ok {
			return nil, fmt.Errorf("jsfn: unexpected %s, want a function defined in script", args[0].Type)
		}
		fn = f
	}
	return HostFunc(func(vals ...any) (any, error) {
		nodes := make([]*Node, len(vals))
		for i, v := range vals {
			nodes[i] = jsNode(v, args[0].Line)
		}
		return fn.Call(s, nodes)
	}), nil
}

func formPrint(s *Scope, args []*Node) (any, error) {
	vals, err := evalList(s, args)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = Inspect(v)
	}
	if _, err := fmt.Fprintln(s.output(), strings.Join(parts, " ")); err != nil {
		return nil, err
	}
	return Undefined, nil
}

func formIf(s *Scope, args []*Node) (any, error) {
	cond, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return Evaluate(s, nth(args, 1))
	}
	return Evaluate(s, nth(args, 2))
}

// (cond test1 result1 test2 result2 :else default)
func formCond(s *Scope, args []*Node) (any, error) {
	vals, err := structArray(s, args)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(vals); i += 2 {
		if Truthy(vals[i]) {
			if i+1 < len(vals) {
				return vals[i+1], nil
			}
			return Undefined, nil
		}
	}
	for i, v := range vals {
		if k, ok := v.(*Node); ok && k.Type == NodeKey && k.Value == "else" && i+1 < len(vals) {
			return vals[i+1], nil
		}
	}
	return Undefined, nil
}

func formObject(s *Scope, args []*Node) (any, error) {
	return structObject(s, args)
}

// (array arrayLike mapFn?) builds a new array the way Array.from does.
func formArray(s *Scope, args []*Node) (any, error) {
	src, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	var mapFn any
	if len(args) > 1 {
		if mapFn, err = Evaluate(s, args[1]); err != nil {
			return nil, err
		}
		if isNullish(mapFn) {
			mapFn = nil
		} else if !isCallable(mapFn) {
			return nil, &NotCallableError{Name: nodeIdent(args[1])}
		}
	}
	elems, err := arrayFrom(src)
	if err != nil {
		return nil, err
	}
	if mapFn == nil {
		return elems, nil
	}
	out := newArray(len(elems))
	for i, e := range elems {
		v, err := Invoke(mapFn, e, float64(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func arrayFrom(src any) ([]any, error) {
	if isNullish(src) {
		return nil, &NotIterableError{Name: ToString(src)}
	}
	if xs, ok := asSlice(src); ok {
		return append(newArray(len(xs)), xs...), nil
	}
	switch v := src.(type) {
	case string:
		out := newArray(len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, nil
	case Iterable:
		items := v.Iterate()
		return append(newArray(len(items)), items...), nil
	case map[string]any, PropertyContainer:
		n, err := GetProperty(src, "length")
		if err != nil {
			return nil, err
		}
		size := 0
		if f := toNumber(n); n != Undefined && f > 0 && !math.IsInf(f, 1) {
			size = int(f)
		}
		out := newArray(size)[:size]
		for i := range out {
			if out[i], err = GetProperty(src, fmt.Sprint(i)); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return newArray(0), nil
}

// (new Date 2024 1 28)
func formNew(s *Scope, args []*Node) (any, error) {
	cls, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	var vals []any
	if len(args) > 1 {
		if vals, err = structArray(s, args[1:]); err != nil {
			return nil, err
		}
	}
	if c, ok := cls.(Constructor); ok {
		return c.Construct(vals...)
	}
	if isCallable(cls) {
		return Invoke(cls, vals...)
	}
	return nil, &NotCallableError{Name: nodeIdent(nth(args, 0))}
}

// evalPath evaluates aget/aset path segments. Keys stand for their names.
func evalPath(s *Scope, nodes []*Node) ([]string, error) {
	path := make([]string, len(nodes))
	for i, n := range nodes {
		if n.Type == NodeKey {
			path[i] = n.Value
			continue
		}
		v, err := Evaluate(s, n)
		if err != nil {
			return nil, err
		}
		path[i] = pathKey(v)
	}
	return path, nil
}

// (aget obj :key 0 name)
func formAget(s *Scope, args []*Node) (any, error) {
	obj, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return obj, nil
	}
	path, err := evalPath(s, args[1:])
	if err != nil {
		return nil, err
	}
	return objectPathGet(obj, path)
}

// (aset obj :key 0 value) returns obj.
func formAset(s *Scope, args []*Node) (any, error) {
	if len(args) < 3 {
		return nil, &InvalidSyntaxError{Msg: "aset requires a target, a path and a value"}
	}
	target, err := Evaluate(s, args[0])
	if err != nil {
		return nil, err
	}
	val, err := Evaluate(s, args[len(args)-1])
	if err != nil {
		return nil, err
	}
	path, err := evalPath(s, args[1:len(args)-1])
	if err != nil {
		return nil, err
	}
	if err := objectPathSet(target, path, val); err != nil {
		return nil, err
	}
	return target, nil
}

// splitStep takes a thread/doto step apart into its head and arguments. A
// bare identifier is a call without arguments.
func splitStep(step *Node) (*Node, []*Node, error) {
	switch {
	case step.Type == NodeIdent:
		return step, nil, nil
	case step.Type == NodeSexpr && len(step.Children) > 0:
		return step.Children[0], step.Children[1:], nil
	}
	return nil, nil, &InvalidSyntaxError{Node: step, Msg: "expected a call"}
}

// (thread value (method args...) ...)
func formThread(s *Scope, args []*Node) (any, error) {
	ret, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	for _, step := range nth1(args) {
		head, margs, err := splitStep(step)
		if err != nil {
			return nil, err
		}
		member, err := GetProperty(ret, head.Value)
		if err != nil {
			return nil, withFrame(err, head)
		}
		if !isCallable(member) {
			return nil, withFrame(&NotCallableError{Name: head.Value}, head)
		}
		vals, err := structArray(s, margs)
		if err != nil {
			return nil, err
		}
		if ret, err = Invoke(member, vals...); err != nil {
			return nil, withFrame(err, step)
		}
	}
	return ret, nil
}

// (doto value (fn args...) ...) calls (fn value args...) for each step.
func formDoto(s *Scope, args []*Node) (any, error) {
	ret, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	for _, step := range nth1(args) {
		head, rest, err := splitStep(step)
		if err != nil {
			return nil, err
		}
		if head.Type == NodeIdent {
			f, err := s.Get(head.Value)
			if err != nil {
				return nil, withFrame(err, head)
			}
			if !isCallable(f) {
				return nil, withFrame(&NotCallableError{Name: head.Value}, head)
			}
		}
		children := make([]*Node, 0, len(rest)+2)
		children = append(children, head, jsNode(ret, step.Line))
		children = append(children, rest...)
		if ret, err = Evaluate(s, &Node{Type: NodeSexpr, Children: children, Line: step.Line}); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func nth1(args []*Node) []*Node {
	if len(args) < 2 {
		return nil
	}
	return args[1:]
}

func formNot(s *Scope, args []*Node) (any, error) {
	v, err := Evaluate(s, nth(args, 0))
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}
