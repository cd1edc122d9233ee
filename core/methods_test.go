package cloji

import (
	"testing"
)

func TestArrayMethods(t *testing.T) {
	g := map[string]any{"xs": []any{1.0, 2.0, 3.0, 4.0}}
	for _, tc := range []struct {
		src  string
		want any
	}{
		{"xs.length", 4.0},
		{"xs.0", 1.0},
		{"xs.9", Undefined},
		{"(xs.map (fn [x i] (* x i)))", []any{0.0, 2.0, 6.0, 12.0}},
		{"(xs.filter (fn [x] (> x 2)))", []any{3.0, 4.0}},
		{"(xs.reduce (fn [a b] (+ a b)))", 10.0},
		{"(xs.reduce (fn [a b] (+ a b)) 10)", 20.0},
		{"(xs.find (fn [x] (> x 1)))", 2.0},
		{"(xs.find (fn [x] (> x 10)))", Undefined},
		{"(xs.findIndex (fn [x] (= x 3)))", 2.0},
		{"(xs.findIndex (fn [x] (= x 30)))", -1.0},
		{"(xs.some (fn [x] (> x 3)))", true},
		{"(xs.every (fn [x] (> x 3)))", false},
		{"(xs.includes 2)", true},
		{"(xs.indexOf 4)", 3.0},
		{"(xs.indexOf 9)", -1.0},
		{`(xs.join "+")`, "1+2+3+4"},
		{"(xs.join)", "1,2,3,4"},
		{"(xs.slice 1 3)", []any{2.0, 3.0}},
		{"(xs.slice (- 0 2))", []any{3.0, 4.0}},
		{"(xs.concat [5] 6)", []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}},
		{"(xs.at (- 0 1))", 4.0},
		{"(xs.at 7)", Undefined},
		{"xs.missing", Undefined},
	} {
		testEvalWith(t, tc.src, g, tc.want)
	}
}

func TestArrayForEach(t *testing.T) {
	var seen []any
	record := func(x any) { seen = append(seen, x) }
	testEvalWith(t, "(xs.forEach (jsfn [x] (record x)))", map[string]any{"record": record, "xs": []any{1.0, 2.0}}, Undefined)
	if len(seen) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(seen))
	}
}

func TestArrayReverseInPlace(t *testing.T) {
	testEval(t, "(def a [1 2 3]) (a.reverse) a", []any{3.0, 2.0, 1.0})
}

func TestArrayCallbackError(t *testing.T) {
	testEvalError(t, "(thread [1 2] (map (fn [x] (missing x))))", nil)
	testEvalError(t, "(thread [1 2] (map 5))", nil)
	testEvalError(t, "(thread [] (reduce (fn [a b] a)))", nil)
}

func TestStringMethods(t *testing.T) {
	g := map[string]any{"s": "Hello, World"}
	for _, tc := range []struct {
		src  string
		want any
	}{
		{"s.length", 12.0},
		{"s.0", "H"},
		{"(s.toUpperCase)", "HELLO, WORLD"},
		{"(s.toLowerCase)", "hello, world"},
		{`(thread "  x " trim)`, "x"},
		{`(s.split ", ")`, []any{"Hello", "World"}},
		{`(s.split "")`, []any{"H", "e", "l", "l", "o", ",", " ", "W", "o", "r", "l", "d"}},
		{`(s.includes "World")`, true},
		{`(s.startsWith "Hell")`, true},
		{`(s.endsWith "x")`, false},
		{`(s.indexOf "o")`, 4.0},
		{`(s.slice 7)`, "World"},
		{`(s.slice (- 0 5) (- 0 1))`, "Worl"},
		{`(s.replace "l" "L")`, "HeLlo, World"},
		{`(s.replaceAll "l" "L")`, "HeLLo, WorLd"},
		{`(s.replaceAll "o" (fn [m] (m.toUpperCase)))`, "HellO, WOrld"},
		{`(s.concat "!" 1)`, "Hello, World!1"},
		{`(s.charAt 4)`, "o"},
		{`(s.charAt 40)`, ""},
	} {
		testEvalWith(t, tc.src, g, tc.want)
	}
}

func TestNumberMethods(t *testing.T) {
	testEval(t, "(def n 3.14159) (n.toFixed 2)", "3.14")
	testEval(t, "(def n 255) (n.toString 16)", "ff")
	testEval(t, "(def n 2.5) (n.toString)", "2.5")
	testEvalError(t, "(def n 1) (n.toFixed (- 0 1))", nil)
}
