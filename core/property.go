package cloji

import (
	"math"
	"strconv"
	"unicode/utf8"
)

var forbiddenProps = map[string]bool{
	"prototype":   true,
	"constructor": true,
	"__proto__":   true,
}

func guardProp(name string) error {
	if forbiddenProps[name] {
		return &ForbiddenAccessError{Property: name}
	}
	return nil
}

// GetProperty reads one property of a host value. Missing properties read
// as Undefined; built-in methods come back bound to target.
func GetProperty(target any, key string) (any, error) {
	if err := guardProp(key); err != nil {
		return nil, err
	}
	if isNullish(target) {
		return nil, &PropertyAccessError{Property: key, Target: target}
	}
	switch t := target.(type) {
	case map[string]any:
		if v, ok := t[key]; ok {
			return v, nil
		}
		return Undefined, nil
	case PropertyContainer:
		if v, ok := t.GetProperty(key); ok {
			return normalize(v), nil
		}
		return Undefined, nil
	case string:
		return stringProperty(t, key), nil
	case *Node:
		switch key {
		case "value":
			return t.Value, nil
		case "type":
			return t.Type.String(), nil
		case "line":
			return float64(t.Line), nil
		}
		return Undefined, nil
	}
	if f, ok := numeric(target); ok {
		if m, ok := numberMethods[key]; ok {
			return bindMethod(f, m), nil
		}
		return Undefined, nil
	}
	if xs, ok := asSlice(target); ok {
		return arrayProperty(xs, key), nil
	}
	return Undefined, nil
}

func arrayProperty(xs []any, key string) any {
	if key == "length" {
		return float64(len(xs))
	}
	if i, ok := arrayIndex(key); ok {
		if i < len(xs) {
			return xs[i]
		}
		return Undefined
	}
	if m, ok := arrayMethods[key]; ok {
		return bindMethod(xs, m)
	}
	return Undefined
}

func stringProperty(s, key string) any {
	if key == "length" {
		return float64(utf8.RuneCountInString(s))
	}
	if i, ok := arrayIndex(key); ok {
		rs := []rune(s)
		if i < len(rs) {
			return string(rs[i])
		}
		return Undefined
	}
	if m, ok := stringMethods[key]; ok {
		return bindMethod(s, m)
	}
	return Undefined
}

// arrayIndex parses a canonical non-negative integer key.
func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// SetProperty writes one property of a host value.
func SetProperty(target any, key string, value any) error {
	if err := guardProp(key); err != nil {
		return err
	}
	switch t := target.(type) {
	case map[string]any:
		t[key] = value
		return nil
	case PropertyContainer:
		return t.SetProperty(key, value)
	case []any:
		if i, ok := arrayIndex(key); ok && i < len(t) {
			t[i] = value
			return nil
		}
	}
	return &PropertyAccessError{Property: key, Target: target, Write: true}
}

// objectPathGet walks path from v reading one property per segment.
func objectPathGet(v any, path []string) (any, error) {
	cur := v
	for _, key := range path {
		next, err := GetProperty(cur, key)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// objectPathSet walks all but the last segment of path, then writes value.
func objectPathSet(v any, path []string, value any) error {
	if len(path) == 0 {
		return nil
	}
	cur, err := objectPathGet(v, path[:len(path)-1])
	if err != nil {
		return err
	}
	last := path[len(path)-1]
	if err := guardProp(last); err != nil {
		return err
	}
	return SetProperty(cur, last, value)
}

// pathKey turns an evaluated aget/aset segment into a property name.
func pathKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case *Node:
		return k.Value
	}
	if f, ok := numeric(v); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return ToString(v)
}
