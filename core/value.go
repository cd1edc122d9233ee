package cloji

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined is the value of void, of missing bindings and of missing
// properties. It is distinct from nil, which is the script's null.
var Undefined = undefinedType{}

// PropertyContainer is implemented by host objects whose properties scripts
// may read and write through dotted paths, aget and aset.
type PropertyContainer interface {
	GetProperty(key string) (any, bool)
	SetProperty(key string, value any) error
}

// Enumerable containers expose their own keys to object spread and
// destructuring.
type Enumerable interface {
	Keys() []string
}

// Iterable values may be the source of an array spread. Only ordered
// sequences are actually concatenated; see structArray.
type Iterable interface {
	Iterate() []any
}

// Constructor is what new instantiates.
type Constructor interface {
	Construct(args ...any) (any, error)
}

type ConstructorFunc func(args ...any) (any, error)

func (f ConstructorFunc) Construct(args ...any) (any, error) { return f(args...) }

func isNullish(v any) bool {
	return v == nil || v == Undefined
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil, undefinedType:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	}
	if f, ok := numeric(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// numeric converts any Go number kind to float64.
func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case int8, int16, uint8, uint16:
		return reflect.ValueOf(v).Convert(reflect.TypeOf(float64(0))).Float(), true
	}
	return 0, false
}

// toNumber coerces v the way arithmetic does.
func toNumber(v any) float64 {
	if f, ok := numeric(v); ok {
		return f
	}
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		return parseNumeric(s)
	case []any:
		switch len(x) {
		case 0:
			return 0
		case 1:
			return toNumber(x[0])
		}
	}
	return math.NaN()
}

// FormatNumber renders a float the way scripts print numbers: integers
// without a fraction, NaN and Infinity by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes e+06, scripts expect e+6.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		exp = strings.TrimLeft(exp[1:], "0")
		return mant + "e" + string(sign) + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString converts v to its string form as used by + and join.
func ToString(v any) string {
	if f, ok := numeric(v); ok {
		return FormatNumber(f)
	}
	switch x := v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if !isNullish(e) {
				parts[i] = ToString(e)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any, PropertyContainer:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String()
		}
		return "[object Object]"
	case fmt.Stringer:
		return x.String()
	}
	if isCallable(v) {
		return "[function]"
	}
	if xs, ok := asSlice(v); ok {
		return ToString(xs)
	}
	return fmt.Sprint(v)
}

// Inspect renders v for display: strings are quoted inside containers,
// arrays and objects use literal-like notation.
func Inspect(v any) string {
	var b strings.Builder
	inspect(&b, v, false, 0)
	return b.String()
}

func inspect(b *strings.Builder, v any, nested bool, depth int) {
	if depth > 8 {
		b.WriteString("...")
		return
	}
	switch x := v.(type) {
	case string:
		if nested {
			b.WriteString("'" + strings.ReplaceAll(x, "'", `\'`) + "'")
		} else {
			b.WriteString(x)
		}
		return
	case *Node:
		b.WriteString(x.String())
		return
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		inspectObject(b, keys, func(k string) any { return x[k] }, depth)
		return
	}
	if xs, ok := asSlice(v); ok {
		if len(xs) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[ ")
		for i, e := range xs {
			if i > 0 {
				b.WriteString(", ")
			}
			inspect(b, e, true, depth+1)
		}
		b.WriteString(" ]")
		return
	}
	if _, ok := v.(fmt.Stringer); !ok {
		if pc, ok := v.(PropertyContainer); ok {
			if en, ok := v.(Enumerable); ok {
				inspectObject(b, en.Keys(), func(k string) any {
					val, _ := pc.GetProperty(k)
					return val
				}, depth)
				return
			}
		}
		if isCallable(v) {
			b.WriteString("[Function]")
			return
		}
	}
	b.WriteString(ToString(v))
}

func inspectObject(b *strings.Builder, keys []string, get func(string) any, depth int) {
	if len(keys) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k + ": ")
		inspect(b, get(k), true, depth+1)
	}
	b.WriteString(" }")
}

// StrictEqual compares primitives by value and everything else by identity.
func StrictEqual(a, b any) bool {
	fa, aNum := numeric(a)
	fb, bNum := numeric(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case undefinedType:
		return b == Undefined
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	if b == nil {
		return false
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if ra.Kind() == reflect.Slice && ra.Len() != rb.Len() {
			return false
		}
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Type().Comparable() {
		return a == b
	}
	return false
}

// asSlice views any Go slice or array as []any. A []any is returned as is.
func asSlice(v any) ([]any, bool) {
	if xs, ok := v.([]any); ok {
		return xs, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is treated as an opaque host value
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = normalize(rv.Index(i).Interface())
	}
	return out, true
}

// parseNumeric parses decimal or 0x-prefixed hex text. Out of range values
// saturate to ±Infinity (or 0 on underflow); malformed text is NaN.
func parseNumeric(s string) float64 {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if errors.Is(err, strconv.ErrRange) {
			f, _ := strconv.ParseFloat(s+"p0", 64)
			return f
		}
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

// newArray allocates a script array with room for n elements. The capacity
// is never zero, so each array has its own backing store and therefore its
// own identity under StrictEqual.
func newArray(n int) []any {
	return make([]any, 0, max(n, 1))
}

// normalize coerces Go numeric kinds to float64 so scripts see one number type.
func normalize(v any) any {
	if _, ok := v.(float64); ok {
		return v
	}
	if f, ok := numeric(v); ok {
		return f
	}
	return v
}

func isIterable(v any) bool {
	switch v.(type) {
	case string, Iterable:
		return true
	}
	_, ok := asSlice(v)
	return ok
}

// ownKeys lists the enumerable own keys of an object-like value.
func ownKeys(v any) ([]string, bool) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, true
	case Enumerable:
		return x.Keys(), true
	}
	if xs, ok := asSlice(v); ok {
		keys := make([]string, len(xs))
		for i := range xs {
			keys[i] = strconv.Itoa(i)
		}
		return keys, true
	}
	return nil, false
}

// Export converts a script value into plain JSON-safe Go data. Undefined
// becomes nil; callables cannot be exported.
func Export(v any) (any, error) {
	if f, ok := numeric(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		return f, nil
	}
	switch x := v.(type) {
	case nil, undefinedType:
		return nil, nil
	case string, bool:
		return x, nil
	case *Node:
		if x.Type == NodeKey {
			return ":" + x.Value, nil
		}
		return x.String(), nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			j, err := Export(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = j
		}
		return out, nil
	}
	if xs, ok := asSlice(v); ok {
		out := make([]any, len(xs))
		for i, e := range xs {
			j, err := Export(e)
			if err != nil {
				return nil, err
			}
			out[i] = j
		}
		return out, nil
	}
	if isCallable(v) {
		return nil, fmt.Errorf("cannot serialize function to JSON")
	}
	if pc, ok := v.(PropertyContainer); ok {
		if keys, ok := ownKeys(pc); ok {
			out := make(map[string]any, len(keys))
			for _, k := range keys {
				val, _ := pc.GetProperty(k)
				j, err := Export(val)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k, err)
				}
				out[k] = j
			}
			return out, nil
		}
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return nil, fmt.Errorf("cannot serialize %T to JSON", v)
}

// Import converts decoded JSON (or YAML) data into script values.
func Import(v any) any {
	switch x := v.(type) {
	case []any:
		out := newArray(len(x))
		for _, e := range x {
			out = append(out, Import(e))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Import(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = Import(e)
		}
		return out
	}
	return normalize(v)
}
