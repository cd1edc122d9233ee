// Package clock gives scripts a Date constructor and a time helper object.
// All calendar fields are reported in UTC.
package clock

import (
	"fmt"
	"time"

	cloji "github.com/yosbelms/cloji/core"
)

// isoLayout matches the output of JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Globals returns the bindings this module injects: Date and time.
func Globals() map[string]any {
	return map[string]any{
		"Date": cloji.ConstructorFunc(construct),
		"time": map[string]any{
			"now":    cloji.HostFunc(timeNow),
			"format": cloji.HostFunc(timeFormat),
			"parse":  cloji.HostFunc(timeParse),
			"add":    cloji.HostFunc(timeAdd),
			"diff":   cloji.HostFunc(timeDiff),
		},
	}
}

// Date is a point in time exposed to scripts as a host object.
type Date struct {
	t time.Time
}

func NewDate(t time.Time) *Date { return &Date{t: t.UTC()} }

func (d *Date) Time() time.Time { return d.t }

func (d *Date) String() string { return d.t.Format(isoLayout) }

func (d *Date) GetProperty(key string) (any, bool) {
	m, ok := dateMethods[key]
	if !ok {
		return nil, false
	}
	return cloji.HostFunc(func(args ...any) (any, error) { return m(d, args) }), true
}

func (d *Date) SetProperty(key string, _ any) error {
	return fmt.Errorf("cannot set property '%s' of Date", key)
}

var dateMethods = map[string]func(d *Date, args []any) (any, error){
	"getTime":     func(d *Date, _ []any) (any, error) { return float64(d.t.UnixMilli()), nil },
	"getFullYear": func(d *Date, _ []any) (any, error) { return float64(d.t.Year()), nil },
	"getMonth":    func(d *Date, _ []any) (any, error) { return float64(d.t.Month() - 1), nil },
	"getDate":     func(d *Date, _ []any) (any, error) { return float64(d.t.Day()), nil },
	"getDay":      func(d *Date, _ []any) (any, error) { return float64(d.t.Weekday()), nil },
	"getHours":    func(d *Date, _ []any) (any, error) { return float64(d.t.Hour()), nil },
	"getMinutes":  func(d *Date, _ []any) (any, error) { return float64(d.t.Minute()), nil },
	"getSeconds":  func(d *Date, _ []any) (any, error) { return float64(d.t.Second()), nil },
	"toISOString": func(d *Date, _ []any) (any, error) { return d.String(), nil },
	"format": func(d *Date, args []any) (any, error) {
		layout, err := stringArg(args, 0, "layout")
		if err != nil {
			return nil, err
		}
		return d.t.Format(layout), nil
	},
	"add": func(d *Date, args []any) (any, error) {
		dur, err := durationArg(args, 0)
		if err != nil {
			return nil, err
		}
		return NewDate(d.t.Add(dur)), nil
	},
}

// construct implements (new Date), (new Date ms), (new Date "iso") and
// (new Date other-date).
func construct(args ...any) (any, error) {
	if len(args) == 0 {
		return NewDate(time.Now()), nil
	}
	switch v := args[0].(type) {
	case float64:
		return NewDate(time.UnixMilli(int64(v))), nil
	case string:
		t, err := parseDate(v)
		if err != nil {
			return nil, err
		}
		return NewDate(t), nil
	case *Date:
		return NewDate(v.t), nil
	}
	return nil, fmt.Errorf("Date: cannot construct from %s", cloji.Inspect(args[0]))
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("Date: invalid date %q", s)
}

// --- time object: unix seconds in, plain values out ---

func timeNow(_ ...any) (any, error) {
	return stamp(time.Now()), nil
}

// (time.format unix layout)
func timeFormat(args ...any) (any, error) {
	t, err := timeArg(args, 0, "time")
	if err != nil {
		return nil, err
	}
	layout, err := stringArg(args, 1, "layout")
	if err != nil {
		return nil, err
	}
	return t.Format(layout), nil
}

// (time.parse value layout)
func timeParse(args ...any) (any, error) {
	value, err := stringArg(args, 0, "value")
	if err != nil {
		return nil, err
	}
	layout, err := stringArg(args, 1, "layout")
	if err != nil {
		return nil, err
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return nil, fmt.Errorf("parse error: %v", err)
	}
	return float64(parsed.Unix()), nil
}

// (time.add unix "2h30m")
func timeAdd(args ...any) (any, error) {
	t, err := timeArg(args, 0, "time")
	if err != nil {
		return nil, err
	}
	dur, err := durationArg(args, 1)
	if err != nil {
		return nil, err
	}
	return stamp(t.Add(dur)), nil
}

// (time.diff from to)
func timeDiff(args ...any) (any, error) {
	from, err := timeArg(args, 0, "from")
	if err != nil {
		return nil, err
	}
	to, err := timeArg(args, 1, "to")
	if err != nil {
		return nil, err
	}
	diff := to.Sub(from)
	return map[string]any{
		"duration": diff.String(),
		"seconds":  diff.Seconds(),
	}, nil
}

func stamp(t time.Time) map[string]any {
	return map[string]any{
		"unix": float64(t.Unix()),
		"iso":  t.UTC().Format(time.RFC3339),
	}
}

// --- argument helpers ---

// timeArg accepts unix seconds or a Date.
func timeArg(args []any, i int, name string) (time.Time, error) {
	if i < len(args) {
		switch v := args[i].(type) {
		case float64:
			return time.Unix(int64(v), 0).UTC(), nil
		case *Date:
			return v.t, nil
		}
	}
	return time.Time{}, fmt.Errorf("missing required field: %s", name)
}

func stringArg(args []any, i int, name string) (string, error) {
	if i < len(args) {
		if s, ok := args[i].(string); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("missing required field: %s", name)
}

func durationArg(args []any, i int) (time.Duration, error) {
	s, err := stringArg(args, i, "duration")
	if err != nil {
		return 0, err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %v", err)
	}
	return dur, nil
}
