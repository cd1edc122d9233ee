package cloji

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

type method[T any] func(recv T, args []any) (any, error)

func bindMethod[T any](recv T, m method[T]) HostFunc {
	return func(args ...any) (any, error) { return m(recv, args) }
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// relIndex resolves a possibly negative index argument against length n,
// clamped to [0, n].
func relIndex(v any, n, def int) int {
	if v == Undefined {
		return def
	}
	f := toNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	i := int(math.Trunc(math.Max(math.Min(f, float64(n)), -float64(n)-1)))
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	return i
}

func sameValueZero(a, b any) bool {
	fa, aok := numeric(a)
	fb, bok := numeric(b)
	if aok && bok && math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	return StrictEqual(a, b)
}

// each calls fn with (element index array) for every element until stop
// returns true.
func each(xs []any, fn any, stop func(i int, res any) bool) error {
	if !isCallable(fn) {
		return &NotCallableError{Name: Inspect(fn)}
	}
	for i, x := range xs {
		res, err := Invoke(fn, x, float64(i), xs)
		if err != nil {
			return err
		}
		if stop != nil && stop(i, res) {
			return nil
		}
	}
	return nil
}

var arrayMethods map[string]method[[]any]

func init() {
	arrayMethods = map[string]method[[]any]{
		"map": func(xs []any, args []any) (any, error) {
			out := newArray(len(xs))[:len(xs)]
			err := each(xs, arg(args, 0), func(i int, res any) bool {
				out[i] = res
				return false
			})
			return out, err
		},
		"filter": func(xs []any, args []any) (any, error) {
			out := newArray(0)
			err := each(xs, arg(args, 0), func(i int, res any) bool {
				if Truthy(res) {
					out = append(out, xs[i])
				}
				return false
			})
			return out, err
		},
		"forEach": func(xs []any, args []any) (any, error) {
			return Undefined, each(xs, arg(args, 0), nil)
		},
		"find": func(xs []any, args []any) (any, error) {
			var found any = Undefined
			err := each(xs, arg(args, 0), func(i int, res any) bool {
				if Truthy(res) {
					found = xs[i]
					return true
				}
				return false
			})
			return found, err
		},
		"findIndex": func(xs []any, args []any) (any, error) {
			found := -1.0
			err := each(xs, arg(args, 0), func(i int, res any) bool {
				if Truthy(res) {
					found = float64(i)
					return true
				}
				return false
			})
			return found, err
		},
		"some": func(xs []any, args []any) (any, error) {
			found := false
			err := each(xs, arg(args, 0), func(_ int, res any) bool {
				found = Truthy(res)
				return found
			})
			return found, err
		},
		"every": func(xs []any, args []any) (any, error) {
			all := true
			err := each(xs, arg(args, 0), func(_ int, res any) bool {
				all = Truthy(res)
				return !all
			})
			return all, err
		},
		"reduce": func(xs []any, args []any) (any, error) {
			fn := arg(args, 0)
			if !isCallable(fn) {
				return nil, &NotCallableError{Name: Inspect(fn)}
			}
			start := 0
			var acc any
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(xs) == 0 {
					return nil, errors.New("reduce of empty array with no initial value")
				}
				acc, start = xs[0], 1
			}
			for i := start; i < len(xs); i++ {
				var err error
				if acc, err = Invoke(fn, acc, xs[i], float64(i), xs); err != nil {
					return nil, err
				}
			}
			return acc, nil
		},
		"includes": func(xs []any, args []any) (any, error) {
			for _, x := range xs {
				if sameValueZero(x, arg(args, 0)) {
					return true, nil
				}
			}
			return false, nil
		},
		"indexOf": func(xs []any, args []any) (any, error) {
			for i, x := range xs {
				if StrictEqual(x, arg(args, 0)) {
					return float64(i), nil
				}
			}
			return -1.0, nil
		},
		"join": func(xs []any, args []any) (any, error) {
			sep := ","
			if s := arg(args, 0); s != Undefined {
				sep = ToString(s)
			}
			parts := make([]string, len(xs))
			for i, x := range xs {
				if !isNullish(x) {
					parts[i] = ToString(x)
				}
			}
			return strings.Join(parts, sep), nil
		},
		"slice": func(xs []any, args []any) (any, error) {
			start := relIndex(arg(args, 0), len(xs), 0)
			end := relIndex(arg(args, 1), len(xs), len(xs))
			if end < start {
				end = start
			}
			return append(newArray(end-start), xs[start:end]...), nil
		},
		"concat": func(xs []any, args []any) (any, error) {
			out := append(newArray(len(xs)), xs...)
			for _, a := range args {
				if more, ok := asSlice(a); ok {
					out = append(out, more...)
				} else {
					out = append(out, a)
				}
			}
			return out, nil
		},
		"reverse": func(xs []any, _ []any) (any, error) {
			for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
				xs[i], xs[j] = xs[j], xs[i]
			}
			return xs, nil
		},
		"at": func(xs []any, args []any) (any, error) {
			i := int(toNumber(arg(args, 0)))
			if i < 0 {
				i += len(xs)
			}
			if i < 0 || i >= len(xs) {
				return Undefined, nil
			}
			return xs[i], nil
		},
	}
}

var stringMethods map[string]method[string]

func init() {
	stringMethods = map[string]method[string]{
		"toUpperCase": func(s string, _ []any) (any, error) { return strings.ToUpper(s), nil },
		"toLowerCase": func(s string, _ []any) (any, error) { return strings.ToLower(s), nil },
		"trim":        func(s string, _ []any) (any, error) { return strings.TrimSpace(s), nil },
		"includes": func(s string, args []any) (any, error) {
			return strings.Contains(s, ToString(arg(args, 0))), nil
		},
		"startsWith": func(s string, args []any) (any, error) {
			return strings.HasPrefix(s, ToString(arg(args, 0))), nil
		},
		"endsWith": func(s string, args []any) (any, error) {
			return strings.HasSuffix(s, ToString(arg(args, 0))), nil
		},
		"indexOf": func(s string, args []any) (any, error) {
			i := strings.Index(s, ToString(arg(args, 0)))
			if i < 0 {
				return -1.0, nil
			}
			return float64(len([]rune(s[:i]))), nil
		},
		"split": func(s string, args []any) (any, error) {
			sep := arg(args, 0)
			var parts []string
			if sep == Undefined {
				parts = []string{s}
			} else {
				parts = strings.Split(s, ToString(sep))
			}
			if lim := arg(args, 1); lim != Undefined {
				if n := int(toNumber(lim)); n >= 0 && n < len(parts) {
					parts = parts[:n]
				}
			}
			out := newArray(len(parts))
			for _, p := range parts {
				out = append(out, p)
			}
			return out, nil
		},
		"slice": func(s string, args []any) (any, error) {
			rs := []rune(s)
			start := relIndex(arg(args, 0), len(rs), 0)
			end := relIndex(arg(args, 1), len(rs), len(rs))
			if end < start {
				return "", nil
			}
			return string(rs[start:end]), nil
		},
		"charAt": func(s string, args []any) (any, error) {
			rs := []rune(s)
			i := int(toNumber(arg(args, 0)))
			if arg(args, 0) == Undefined {
				i = 0
			}
			if i < 0 || i >= len(rs) {
				return "", nil
			}
			return string(rs[i]), nil
		},
		"concat": func(s string, args []any) (any, error) {
			var b strings.Builder
			b.WriteString(s)
			for _, a := range args {
				b.WriteString(ToString(a))
			}
			return b.String(), nil
		},
		"replace": func(s string, args []any) (any, error) {
			return replaceString(s, args, 1)
		},
		"replaceAll": func(s string, args []any) (any, error) {
			return replaceString(s, args, -1)
		},
	}
}

func replaceString(s string, args []any, n int) (any, error) {
	pattern := ToString(arg(args, 0))
	repl := arg(args, 1)
	if !isCallable(repl) {
		return strings.Replace(s, pattern, ToString(repl), n), nil
	}
	var b strings.Builder
	rest := s
	for n != 0 {
		i := strings.Index(rest, pattern)
		if i < 0 {
			break
		}
		res, err := Invoke(repl, pattern)
		if err != nil {
			return nil, err
		}
		b.WriteString(rest[:i])
		b.WriteString(ToString(res))
		rest = rest[i+len(pattern):]
		n--
		if pattern == "" {
			break
		}
	}
	b.WriteString(rest)
	return b.String(), nil
}

var numberMethods = map[string]method[float64]{
	"toFixed": func(f float64, args []any) (any, error) {
		d := 0
		if a := arg(args, 0); a != Undefined {
			d = int(toNumber(a))
		}
		if d < 0 || d > 100 {
			return nil, errors.New("toFixed() digits argument must be between 0 and 100")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return FormatNumber(f), nil
		}
		return strconv.FormatFloat(f, 'f', d, 64), nil
	},
	"toString": func(f float64, args []any) (any, error) {
		radix := arg(args, 0)
		if radix == Undefined || toNumber(radix) == 10 {
			return FormatNumber(f), nil
		}
		r := int(toNumber(radix))
		if r < 2 || r > 36 {
			return nil, errors.New("toString() radix must be between 2 and 36")
		}
		if f != math.Trunc(f) {
			return nil, errors.New("toString() with a radix supports integers only")
		}
		return strconv.FormatInt(int64(f), r), nil
	},
}
