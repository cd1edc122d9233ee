package cloji

import (
	"math"
	"strings"
)

type binaryOp func(a, b any) any

var operators = map[string]binaryOp{
	"+":    opAdd,
	"-":    arith(func(a, b float64) float64 { return a - b }),
	"*":    arith(func(a, b float64) float64 { return a * b }),
	"/":    arith(func(a, b float64) float64 { return a / b }),
	"=":    func(a, b any) any { return StrictEqual(a, b) },
	"not=": func(a, b any) any { return !StrictEqual(a, b) },
	"<":    compare(func(c int) bool { return c < 0 }),
	">":    compare(func(c int) bool { return c > 0 }),
	"<=":   compare(func(c int) bool { return c <= 0 }),
	">=":   compare(func(c int) bool { return c >= 0 }),
	"and":  opAnd,
	"or":   opOr,
	"??":   opCoalesce,
}

// foldOp evaluates every operand, then folds op over them from the left.
func foldOp(op binaryOp) Form {
	return func(s *Scope, args []*Node) (any, error) {
		if len(args) == 0 {
			return Undefined, nil
		}
		vals, err := evalList(s, args)
		if err != nil {
			return nil, err
		}
		acc := vals[0]
		for _, v := range vals[1:] {
			acc = op(acc, v)
		}
		return acc, nil
	}
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, undefinedType, bool, string:
		return true
	}
	_, ok := numeric(v)
	return ok
}

func opAdd(a, b any) any {
	_, as := a.(string)
	_, bs := b.(string)
	if as || bs || !isPrimitive(a) || !isPrimitive(b) {
		return ToString(a) + ToString(b)
	}
	return toNumber(a) + toNumber(b)
}

func arith(f func(a, b float64) float64) binaryOp {
	return func(a, b any) any { return f(toNumber(a), toNumber(b)) }
}

// compare orders strings lexically and everything else numerically. NaN
// never satisfies a comparison.
func compare(ok func(c int) bool) binaryOp {
	return func(a, b any) any {
		as, aStr := a.(string)
		bs, bStr := b.(string)
		if aStr && bStr {
			return ok(strings.Compare(as, bs))
		}
		x, y := toNumber(a), toNumber(b)
		if math.IsNaN(x) || math.IsNaN(y) {
			return false
		}
		switch {
		case x < y:
			return ok(-1)
		case x > y:
			return ok(1)
		}
		return ok(0)
	}
}

func opAnd(a, b any) any {
	if Truthy(a) {
		return b
	}
	return a
}

func opOr(a, b any) any {
	if Truthy(a) {
		return a
	}
	return b
}

func opCoalesce(a, b any) any {
	if isNullish(a) {
		return b
	}
	return a
}
