package cloji

import "fmt"

// structObject builds an object from {...} items. Later entries win; a key
// with no value after it (another key, a spread, or the end) is Undefined.
func structObject(s *Scope, items []*Node) (map[string]any, error) {
	obj := make(map[string]any)
	for i := 0; i < len(items); i++ {
		item := items[i]
		switch item.Type {
		case NodeRest:
			src, err := s.Get(item.Value)
			if err != nil {
				return nil, err
			}
			if err := assign(obj, src); err != nil {
				return nil, err
			}
		case NodeKey:
			if i+1 >= len(items) {
				obj[item.Value] = Undefined
				continue
			}
			next := items[i+1]
			if next.Type == NodeKey || next.Type == NodeRest {
				obj[item.Value] = Undefined
				continue
			}
			v, err := Evaluate(s, next)
			if err != nil {
				return nil, err
			}
			obj[item.Value] = v
			i++
		}
	}
	return obj, nil
}

// assign copies the own enumerable properties of src into dst. Values that
// are not objects contribute nothing.
func assign(dst map[string]any, src any) error {
	if _, isStr := src.(string); isStr {
		return nil
	}
	keys, ok := ownKeys(src)
	if !ok {
		return nil
	}
	for _, k := range keys {
		v, err := GetProperty(src, k)
		if err != nil {
			return err
		}
		dst[k] = v
	}
	return nil
}

// structArray evaluates [...] items and call arguments. A spread source must
// be iterable, but only ordered sequences are concatenated.
func structArray(s *Scope, items []*Node) ([]any, error) {
	arr := newArray(len(items))
	for _, item := range items {
		if item.Type != NodeRest {
			v, err := Evaluate(s, item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
			continue
		}
		src, err := s.Get(item.Value)
		if err != nil {
			return nil, err
		}
		if !isIterable(src) {
			return nil, &NotIterableError{Name: item.Value}
		}
		if xs, ok := asSlice(src); ok {
			arr = append(arr, xs...)
		}
	}
	return arr, nil
}

// binder stores one destructured name.
type binder func(name string, v any) error

// destruct binds a def/set/fn target pattern against value.
func destruct(pattern *Node, value any, bind binder) error {
	switch pattern.Type {
	case NodeArray:
		return destructArray(pattern.Children, value, bind)
	case NodeObject:
		return destructObject(pattern.Children, value, bind)
	}
	return &InvalidSyntaxError{Node: pattern, Msg: fmt.Sprintf("cannot destructure into %s", pattern.Type)}
}

// destructArray binds names by position; a trailing rest takes the tail.
func destructArray(items []*Node, value any, bind binder) error {
	if isNullish(value) {
		return &PropertyAccessError{Property: "0", Target: value}
	}
	xs, ok := asSlice(value)
	if !ok {
		if str, isStr := value.(string); isStr {
			for _, r := range str {
				xs = append(xs, string(r))
			}
		} else if it, isIt := value.(Iterable); isIt {
			xs = it.Iterate()
		} else {
			return &NotIterableError{Name: Inspect(value)}
		}
	}
	for i, item := range items {
		switch item.Type {
		case NodeIdent:
			var v any = Undefined
			if i < len(xs) {
				v = xs[i]
			}
			if err := bind(item.Value, v); err != nil {
				return err
			}
		case NodeRest:
			tail := newArray(len(xs) - i)
			if i < len(xs) {
				tail = append(tail, xs[i:]...)
			}
			return bind(item.Value, tail)
		default:
			return &InvalidSyntaxError{Node: item, Msg: fmt.Sprintf("unexpected %s in array pattern", item.Type)}
		}
	}
	return nil
}

// destructObject binds names by key; a trailing rest takes the keys not
// already selected.
func destructObject(items []*Node, value any, bind binder) error {
	if isNullish(value) {
		name := ""
		if len(items) > 0 {
			name = items[0].Value
		}
		return &PropertyAccessError{Property: name, Target: value}
	}
	selected := make(map[string]bool)
	for _, item := range items {
		switch item.Type {
		case NodeIdent:
			v, err := GetProperty(value, item.Value)
			if err != nil {
				return err
			}
			selected[item.Value] = true
			if err := bind(item.Value, v); err != nil {
				return err
			}
		case NodeRest:
			rest := make(map[string]any)
			keys, _ := ownKeys(value)
			for _, k := range keys {
				if selected[k] {
					continue
				}
				v, err := GetProperty(value, k)
				if err != nil {
					return err
				}
				rest[k] = v
			}
			return bind(item.Value, rest)
		default:
			return &InvalidSyntaxError{Node: item, Msg: fmt.Sprintf("unexpected %s in object pattern", item.Type)}
		}
	}
	return nil
}

// scopeBinder binds destructured names into s, optionally refusing to
// rebind s's own read-only names.
func scopeBinder(s *Scope, guard bool) binder {
	return func(name string, v any) error {
		if guard && s.IsReadOnly(name) {
			return &ReadOnlyRebindError{Name: name}
		}
		_, err := s.Set(name, v)
		return err
	}
}
