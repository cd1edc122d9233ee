package cloji

import (
	"errors"
	"reflect"
	"testing"
)

func testGet(t *testing.T, input string, globals map[string]any, name string, expected any) {
	t.Helper()
	res, err := Exec(input, globals, true)
	if err != nil {
		t.Fatalf("eval %q: %v", input, err)
	}
	v, err := res.Get(name)
	if err != nil {
		t.Fatalf("get %s after %q: %v", name, input, err)
	}
	if !reflect.DeepEqual(v, expected) {
		t.Fatalf("get %s after %q: expected %s, got %s", name, input, Inspect(expected), Inspect(v))
	}
}

func TestObjectLiteral(t *testing.T) {
	testEval(t, "{}", map[string]any{})
	testEval(t, "{:age 10}", map[string]any{"age": 10.0})
	testEval(t, "{:undef :age 10}", map[string]any{"age": 10.0, "undef": Undefined})
	testEval(t, "{:age 10 :undef}", map[string]any{"age": 10.0, "undef": Undefined})
	testEval(t, "{:a (+ 1 2) :b [1 2]}", map[string]any{"a": 3.0, "b": []any{1.0, 2.0}})
}

func TestObjectSpread(t *testing.T) {
	obj := map[string]any{"name": "john"}
	g := map[string]any{"obj": obj}
	testEvalWith(t, "{&obj}", g, map[string]any{"name": "john"})
	testEvalWith(t, "{:age 10 &obj}", g, map[string]any{"age": 10.0, "name": "john"})
	testEvalWith(t, "{&obj :age 10}", g, map[string]any{"age": 10.0, "name": "john"})
	testEvalWith(t, `{&obj :name "peter"}`, g, map[string]any{"name": "peter"})
	testEvalWith(t, `{:name "peter" &obj}`, g, map[string]any{"name": "john"})
	testEvalWith(t, "{:flag &obj}", g, map[string]any{"flag": Undefined, "name": "john"})
}

func TestObjectSpreadCopies(t *testing.T) {
	obj := map[string]any{"name": "john"}
	res, err := Exec(`(def copy {&obj}) (set copy.name "peter") obj.name`, map[string]any{"obj": obj}, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != "john" {
		t.Fatalf("spread must copy, source now has %s", Inspect(res.Value))
	}
}

func TestObjectSpreadNonObject(t *testing.T) {
	g := map[string]any{"n": 5.0, "s": "hi", "z": nil}
	testEvalWith(t, "{&n :a 1}", g, map[string]any{"a": 1.0})
	testEvalWith(t, "{&s :a 1}", g, map[string]any{"a": 1.0})
	testEvalWith(t, "{&z :a 1}", g, map[string]any{"a": 1.0})
	testEvalWith(t, "{&arr}", map[string]any{"arr": []any{"x"}}, map[string]any{"0": "x"})
}

func TestObjectSpreadUndefined(t *testing.T) {
	err := testEvalError(t, "{&missing}", nil)
	var uv *UndefinedVariableError
	if !errors.As(err, &uv) {
		t.Fatalf("expected UndefinedVariableError, got %v", err)
	}
}

func TestArrayLiteral(t *testing.T) {
	testEval(t, "[]", []any{})
	testEval(t, "[3 5]", []any{3.0, 5.0})
	testEval(t, `[1 "a" nil void]`, []any{1.0, "a", nil, Undefined})
}

func TestArraySpread(t *testing.T) {
	g := map[string]any{"arr": []any{7.0, 8.0}}
	testEvalWith(t, "[&arr]", g, []any{7.0, 8.0})
	testEvalWith(t, "[3 4 &arr]", g, []any{3.0, 4.0, 7.0, 8.0})
	testEvalWith(t, "[&arr 3 4 &arr]", g, []any{7.0, 8.0, 3.0, 4.0, 7.0, 8.0})
}

func TestArraySpreadTypedSlice(t *testing.T) {
	testEvalWith(t, "[0 &ns]", map[string]any{"ns": []int{1, 2}}, []any{0.0, 1.0, 2.0})
}

type countdown int

func (c countdown) Iterate() []any {
	out := []any{}
	for i := int(c); i > 0; i-- {
		out = append(out, float64(i))
	}
	return out
}

func TestArraySpreadNonSequenceIterable(t *testing.T) {
	// strings and other iterables pass the check but contribute nothing
	testEvalWith(t, "[1 &s 2]", map[string]any{"s": "abc"}, []any{1.0, 2.0})
	testEvalWith(t, "[1 &c 2]", map[string]any{"c": countdown(3)}, []any{1.0, 2.0})
}

func TestArraySpreadNotIterable(t *testing.T) {
	for _, v := range []any{5.0, map[string]any{}, nil, true} {
		err := testEvalError(t, "[&x]", map[string]any{"x": v})
		var ni *NotIterableError
		if !errors.As(err, &ni) || ni.Name != "x" {
			t.Fatalf("%s: expected NotIterableError for x, got %v", Inspect(v), err)
		}
	}
}

func TestArrayDestructuring(t *testing.T) {
	g := map[string]any{"arr": []any{7.0, 8.0}}
	testGet(t, "(def [head] arr)", g, "head", 7.0)
	testGet(t, "(def [head &tail] arr)", g, "head", 7.0)
	testGet(t, "(def [head &tail] arr)", g, "tail", []any{8.0})
	testGet(t, "(def [&all] arr)", g, "all", []any{7.0, 8.0})
	testGet(t, "(def [a b c] arr)", g, "c", Undefined)
	testGet(t, "(def [a b &rest] arr)", g, "rest", []any{})
	testGet(t, "(set [x y] [1 2])", nil, "y", 2.0)
	testEval(t, "(def [a] [1])", Undefined)
}

func TestArrayDestructuringErrors(t *testing.T) {
	var ni *NotIterableError
	if err := testEvalError(t, "(def [a] 5)", nil); !errors.As(err, &ni) {
		t.Fatalf("expected NotIterableError, got %v", err)
	}
	var pa *PropertyAccessError
	if err := testEvalError(t, "(def [a] nil)", nil); !errors.As(err, &pa) {
		t.Fatalf("expected PropertyAccessError, got %v", err)
	}
	var ise *InvalidSyntaxError
	if err := testEvalError(t, "(def [a :b] [1 2])", nil); !errors.As(err, &ise) {
		t.Fatalf("expected InvalidSyntaxError, got %v", err)
	}
}

// Patterns do not nest: only names and a trailing rest may appear inside.
func TestNestedPatternsAreRejected(t *testing.T) {
	for _, src := range []string{
		"(def [{a}] [{:a 1}])",
		"(def [[a]] [[1]])",
		"(def {[a]} {:a [1]})",
		"(defn g [{a}] a) (g {:a 1})",
	} {
		var ise *InvalidSyntaxError
		if err := testEvalError(t, src, nil); !errors.As(err, &ise) {
			t.Fatalf("%s: expected InvalidSyntaxError, got %v", src, err)
		}
	}
}

func TestObjectDestructuring(t *testing.T) {
	g := map[string]any{"obj": map[string]any{"name": "john", "age": 10.0}}
	testGet(t, "(def {name} obj)", g, "name", "john")
	testGet(t, "(def {name age} obj)", g, "age", 10.0)
	testGet(t, "(def {name &rest} obj)", g, "rest", map[string]any{"age": 10.0})
	testGet(t, "(def {missing} obj)", g, "missing", Undefined)
	testGet(t, "(def {&everything} obj)", g, "everything", map[string]any{"name": "john", "age": 10.0})
}

func TestObjectDestructuringHostObject(t *testing.T) {
	testGet(t, "(def {x y} (new Point 3 4))", map[string]any{"Point": Point}, "y", 4.0)
}

func TestDestructuringGuardsReadOnly(t *testing.T) {
	g := map[string]any{"name": "fixed", "obj": map[string]any{"name": "john"}}
	err := testEvalError(t, "(def {name} obj)", g)
	var ro *ReadOnlyRebindError
	if !errors.As(err, &ro) {
		t.Fatalf("expected ReadOnlyRebindError, got %v", err)
	}
	testGet(t, "(set {name} obj)", g, "name", "john")
}

func TestFnParameterDestructuring(t *testing.T) {
	testEval(t, "((fn [a &rest] rest) 1 2 3)", []any{2.0, 3.0})
	testEval(t, "((fn [&all] all))", []any{})
}
