package cloji

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestScriptPersistsBindings(t *testing.T) {
	sc := NewScript(map[string]any{"base": 10.0}, true)
	if _, err := sc.Exec("(def a 1)"); err != nil {
		t.Fatal(err)
	}
	res, err := sc.Exec("(+ a base)")
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != 11.0 {
		t.Fatalf("expected 11, got %s", Inspect(res.Value))
	}
}

func TestScriptSwallowsRuntimeErrors(t *testing.T) {
	sc := NewScript(nil, false)
	res, err := sc.Exec("(def a 1)\n(boom)")
	if err != nil {
		t.Fatalf("expected error to be recorded, got %v", err)
	}
	if res.Err == nil {
		t.Fatal("expected Result.Err")
	}
	if !strings.Contains(res.Err.Error(), "boom is not defined \n at boom (2)") {
		t.Fatalf("unexpected message %q", res.Err.Error())
	}
	if v, _ := res.Get("a"); v != 1.0 {
		t.Fatalf("bindings made before the error survive, got %s", Inspect(v))
	}
}

func TestScriptAlwaysReturnsParseErrors(t *testing.T) {
	for _, throw := range []bool{true, false} {
		_, err := NewScript(nil, throw).Exec("(a")
		if !IsParseError(err) {
			t.Fatalf("throwOnErr=%v: expected parse error, got %v", throw, err)
		}
	}
}

func TestScriptRuntimeErrorIsTraced(t *testing.T) {
	_, err := Exec("a.b", nil, true)
	var te *TracedError
	if !errors.As(err, &te) {
		t.Fatalf("expected TracedError, got %T", err)
	}
	if IsParseError(err) {
		t.Fatal("runtime errors are not parse errors")
	}
}

func TestScriptPrint(t *testing.T) {
	var buf bytes.Buffer
	sc := NewScript(nil, true)
	sc.SetOutput(&buf)
	res, err := sc.Exec(`(print "a" "b") (print 1 [1 "x"] {:k nil})`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != Undefined {
		t.Fatalf("print returns undefined, got %s", Inspect(res.Value))
	}
	expected := "a b\n1 [ 1, 'x' ] { k: null }\n"
	if buf.String() != expected {
		t.Fatalf("expected %q, got %q", expected, buf.String())
	}
}

func TestScriptPrintInsideFunction(t *testing.T) {
	var buf bytes.Buffer
	sc := NewScript(nil, true)
	sc.SetOutput(&buf)
	if _, err := sc.Exec(`(defn greet [name] (print (+ "hi " name))) (greet "bob")`); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hi bob\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestScriptsAreIsolated(t *testing.T) {
	a := NewScript(nil, true)
	b := NewScript(nil, true)
	if _, err := a.Exec("(def x 1)"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Exec("x"); err == nil {
		t.Fatal("bindings must not leak between scripts")
	}
	if _, err := a.Exec("(def + 1)"); err != nil {
		t.Fatal(err)
	}
	res, err := b.Exec("(+ 1 1)")
	if err != nil || res.Value != 2.0 {
		t.Fatalf("core forms must not be affected by shadowing, got %v, %v", res, err)
	}
}

func TestHostFunctionShapes(t *testing.T) {
	g := map[string]any{
		"host":     HostFunc(func(args ...any) (any, error) { return float64(len(args)), nil }),
		"plain":    func(args ...any) any { return args[0] },
		"typed":    func(a, b int) int { return a * b },
		"pair":     func(s string) (string, error) { return strings.ToUpper(s), nil },
		"variadic": func(prefix string, xs ...float64) float64 { return float64(len(prefix)) + float64(len(xs)) },
		"nothing":  func() {},
	}
	testEvalWith(t, "(host 1 2 3)", g, 3.0)
	testEvalWith(t, `(plain "x")`, g, "x")
	testEvalWith(t, "(typed 6 7)", g, 42.0)
	testEvalWith(t, `(pair "up")`, g, "UP")
	testEvalWith(t, `(variadic "ab" 1 2 3)`, g, 5.0)
	testEvalWith(t, "(nothing)", g, Undefined)
	testEvalError(t, `(typed "a" 1)`, g)
}
