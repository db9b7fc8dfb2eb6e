package schemafile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate/rules"
)

type ruleSpec struct {
	name    string
	args    []any
	message string
}

func parseRule(n *yaml.Node) (ruleSpec, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return ruleSpec{name: n.Value}, nil
	case yaml.MappingNode:
	default:
		return ruleSpec{}, fmt.Errorf("%w: line %d: a rule is a name or a mapping", ErrInvalidSchema, n.Line)
	}

	var full bool
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "rule" {
			full = true
		}
	}
	if !full {
		if len(n.Content) != 2 {
			return ruleSpec{}, fmt.Errorf("%w: line %d: shorthand rules have exactly one key", ErrInvalidSchema, n.Line)
		}
		args, err := decodeArgs(n.Content[1])
		if err != nil {
			return ruleSpec{}, err
		}
		return ruleSpec{name: n.Content[0].Value, args: args}, nil
	}

	var r ruleSpec
	err := eachPair(n, func(key string, val *yaml.Node) error {
		switch key {
		case "rule":
			r.name = val.Value
		case "message":
			r.message = val.Value
		case "args":
			args, err := decodeArgs(val)
			if err != nil {
				return err
			}
			r.args = args
		default:
			return fmt.Errorf("%w: line %d: unknown rule key %q", ErrInvalidSchema, val.Line, key)
		}
		return nil
	})
	return r, err
}

func decodeArgs(n *yaml.Node) ([]any, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind == yaml.SequenceNode {
		var out []any
		if err := n.Decode(&out); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSchema, n.Line, err)
		}
		return out, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSchema, n.Line, err)
	}
	return []any{v}, nil
}

type args []any

func (a args) want(n int) error {
	if len(a) != n {
		return fmt.Errorf("want %d argument(s), got %d", n, len(a))
	}
	return nil
}

func (a args) number(i int) (float64, error) {
	switch v := a[i].(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %d: %q is not a number", i+1, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("argument %d: %v is not a number", i+1, v)
	}
}

func (a args) count(i int) (int, error) {
	f, err := a.number(i)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f < 0 {
		return 0, fmt.Errorf("argument %d: %v is not a non-negative integer", i+1, a[i])
	}
	return int(f), nil
}

func (a args) str(i int) (string, error) {
	switch v := a[i].(type) {
	case string:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("argument %d: %v is not a string", i+1, v)
	}
}

func (a args) date(i int) (time.Time, error) {
	if t, ok := a[i].(time.Time); ok {
		return t, nil
	}
	s, err := a.str(i)
	if err != nil {
		return time.Time{}, err
	}
	t, err := rules.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("argument %d: %q is not a date", i+1, s)
	}
	return t, nil
}

func (a args) timeOfDay(i int) (string, error) {
	s, err := a.str(i)
	if err != nil {
		return "", err
	}
	if _, err := rules.ParseTimeOfDay(s); err != nil {
		return "", fmt.Errorf("argument %d: %q is not an HH:mm time", i+1, s)
	}
	return s, nil
}

type builder func(c *rules.Chain, a args, msg []string) error

func noArgs(add func(c *rules.Chain, msg ...string) *rules.Chain) builder {
	return func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(0); err != nil {
			return err
		}
		add(c, msg...)
		return nil
	}
}

func oneFloat(add func(c *rules.Chain, f float64, msg ...string) *rules.Chain) builder {
	return func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(1); err != nil {
			return err
		}
		f, err := a.number(0)
		if err != nil {
			return err
		}
		add(c, f, msg...)
		return nil
	}
}

func oneInt(add func(c *rules.Chain, n int, msg ...string) *rules.Chain) builder {
	return func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(1); err != nil {
			return err
		}
		n, err := a.count(0)
		if err != nil {
			return err
		}
		add(c, n, msg...)
		return nil
	}
}

func oneDate(add func(c *rules.Chain, t time.Time, msg ...string) *rules.Chain) builder {
	return func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(1); err != nil {
			return err
		}
		t, err := a.date(0)
		if err != nil {
			return err
		}
		add(c, t, msg...)
		return nil
	}
}

func oneTime(add func(c *rules.Chain, s string, msg ...string) *rules.Chain) builder {
	return func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(1); err != nil {
			return err
		}
		s, err := a.timeOfDay(0)
		if err != nil {
			return err
		}
		add(c, s, msg...)
		return nil
	}
}

var builders = map[string]builder{
	"required":            noArgs((*rules.Chain).Required),
	"noSpecialCharacters": noArgs((*rules.Chain).NoSpecialCharacters),
	"phoneNumber":         noArgs((*rules.Chain).PhoneNumber),
	"isWholeNumber":       noArgs((*rules.Chain).IsWholeNumber),
	"validEmailAddress":   noArgs((*rules.Chain).ValidEmailAddress),
	"longitude":           noArgs((*rules.Chain).Longitude),
	"latitude":            noArgs((*rules.Chain).Latitude),
	"min":                 oneFloat((*rules.Chain).Min),
	"max":                 oneFloat((*rules.Chain).Max),
	"minLength":           oneInt((*rules.Chain).MinLength),
	"maxLength":           oneInt((*rules.Chain).MaxLength),
	"minArrayOptions":     oneInt((*rules.Chain).MinArrayOptions),
	"maxArrayOptions":     oneInt((*rules.Chain).MaxArrayOptions),
	"minDate":             oneDate((*rules.Chain).MinDate),
	"maxDate":             oneDate((*rules.Chain).MaxDate),
	"minTime":             oneTime((*rules.Chain).MinTime),
	"maxTime":             oneTime((*rules.Chain).MaxTime),
	"requiredIf": func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(1); err != nil {
			return err
		}
		b, ok := a[0].(bool)
		if !ok {
			return fmt.Errorf("argument 1: %v is not a boolean", a[0])
		}
		c.RequiredIf(b, msg...)
		return nil
	},
	"regex": func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(1); err != nil {
			return err
		}
		s, err := a.str(0)
		if err != nil {
			return err
		}
		if _, err := regexp.Compile(s); err != nil {
			return fmt.Errorf("argument 1: %v", err)
		}
		c.Regex(s, msg...)
		return nil
	},
	"numberInRange": func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(2); err != nil {
			return err
		}
		lo, err := a.number(0)
		if err != nil {
			return err
		}
		hi, err := a.number(1)
		if err != nil {
			return err
		}
		c.NumberInRange(lo, hi, msg...)
		return nil
	},
	"lengthInRange": func(c *rules.Chain, a args, msg []string) error {
		if err := a.want(2); err != nil {
			return err
		}
		lo, err := a.count(0)
		if err != nil {
			return err
		}
		hi, err := a.count(1)
		if err != nil {
			return err
		}
		c.LengthInRange(lo, hi, msg...)
		return nil
	},
}

// RuleNames lists the rule names a schema file may use, sorted.
func RuleNames() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r ruleSpec) apply(c *rules.Chain) error {
	b, ok := builders[r.name]
	if !ok {
		return fmt.Errorf("unknown rule %q", r.name)
	}
	var msg []string
	if r.message != "" {
		msg = []string{r.message}
	}
	if err := b(c, args(r.args), msg); err != nil {
		return fmt.Errorf("rule %s: %w", r.name, err)
	}
	return nil
}
