package rules

import (
	"github.com/reoring/formstate/i18n"
)

// ValueRule inspects a single value and returns a non-empty message when the
// value is invalid, or "" when it passes.
type ValueRule func(value any) string

// EntityRule is like ValueRule but also receives the enclosing object the
// field belongs to, which enables cross-field checks.
type EntityRule func(value any, entity map[string]any) string

// RuleInfo describes a rule registered on a Chain. Params carries the
// structured arguments (e.g. {"min": 1}) for schema export and tooling.
type RuleInfo struct {
	Name    string
	Params  map[string]any
	Message string // custom message, "" when the default is used
}

type valueStep struct {
	info RuleInfo
	fn   ValueRule
}

type entityStep struct {
	info RuleInfo
	fn   EntityRule
}

// Chain is an ordered list of value rules followed by entity rules.
//
// Run evaluates every rule and reports the message of the last failing one,
// so rule order encodes priority: the most important rule goes last.
// Builder methods mutate and return the receiver; a Chain must not be changed
// once it is part of a schema in use.
type Chain struct {
	rules       []valueStep
	entityRules []entityStep
}

// New returns an empty Chain.
func New() *Chain { return &Chain{} }

// Run validates value against the chain. entity may be nil when the field has
// no enclosing object.
func (c *Chain) Run(value any, entity map[string]any) string {
	if c == nil {
		return ""
	}
	msg := ""
	for _, r := range c.rules {
		if m := r.fn(value); m != "" {
			msg = m
		}
	}
	for _, r := range c.entityRules {
		if m := r.fn(value, entity); m != "" {
			msg = m
		}
	}
	return msg
}

// Len reports the number of registered rules.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules) + len(c.entityRules)
}

// Rules returns metadata for every registered rule in execution order.
func (c *Chain) Rules() []RuleInfo {
	if c == nil {
		return nil
	}
	out := make([]RuleInfo, 0, c.Len())
	for _, r := range c.rules {
		out = append(out, r.info)
	}
	for _, r := range c.entityRules {
		out = append(out, r.info)
	}
	return out
}

// Has reports whether a rule with the given name is registered.
func (c *Chain) Has(name string) bool {
	for _, ri := range c.Rules() {
		if ri.Name == name {
			return true
		}
	}
	return false
}

func (c *Chain) push(name string, params map[string]any, msg []string, fn ValueRule) *Chain {
	c.rules = append(c.rules, valueStep{info: RuleInfo{Name: name, Params: params, Message: custom(msg)}, fn: fn})
	return c
}

// Custom appends a caller-supplied value rule.
func (c *Chain) Custom(fn ValueRule) *Chain {
	if fn == nil {
		return c
	}
	return c.push("custom", nil, nil, fn)
}

// ValidateWithEntity appends a caller-supplied entity rule. Entity rules run
// after every value rule.
func (c *Chain) ValidateWithEntity(fn EntityRule) *Chain {
	if fn == nil {
		return c
	}
	c.entityRules = append(c.entityRules, entityStep{info: RuleInfo{Name: "entity"}, fn: fn})
	return c
}

func (c *Chain) Required(msg ...string) *Chain {
	return c.push("required", nil, msg, Required(msg...))
}

// RequiredIf applies Required only when isRequired is true.
func (c *Chain) RequiredIf(isRequired bool, msg ...string) *Chain {
	return c.push("requiredIf", map[string]any{"required": isRequired}, msg, RequiredIf(isRequired, msg...))
}

func (c *Chain) Min(minimum float64, msg ...string) *Chain {
	return c.push("min", map[string]any{"min": minimum}, msg, Min(minimum, msg...))
}

func (c *Chain) Max(maximum float64, msg ...string) *Chain {
	return c.push("max", map[string]any{"max": maximum}, msg, Max(maximum, msg...))
}

func (c *Chain) MinLength(minimum int, msg ...string) *Chain {
	return c.push("minLength", map[string]any{"min": minimum}, msg, MinLength(minimum, msg...))
}

func (c *Chain) MaxLength(maximum int, msg ...string) *Chain {
	return c.push("maxLength", map[string]any{"max": maximum}, msg, MaxLength(maximum, msg...))
}

func (c *Chain) MinArrayOptions(minimum int, msg ...string) *Chain {
	return c.push("minArrayOptions", map[string]any{"min": minimum}, msg, MinArrayOptions(minimum, msg...))
}

func (c *Chain) MaxArrayOptions(maximum int, msg ...string) *Chain {
	return c.push("maxArrayOptions", map[string]any{"max": maximum}, msg, MaxArrayOptions(maximum, msg...))
}

// Regex appends a pattern rule. The pattern is matched against the value's
// string form.
func (c *Chain) Regex(pattern string, msg ...string) *Chain {
	return c.push("regex", map[string]any{"pattern": pattern}, msg, Regex(pattern, msg...))
}

func (c *Chain) NoSpecialCharacters(msg ...string) *Chain {
	return c.push("noSpecialCharacters", nil, msg, NoSpecialCharacters(msg...))
}

func (c *Chain) PhoneNumber(msg ...string) *Chain {
	return c.push("phoneNumber", nil, msg, PhoneNumber(msg...))
}

func (c *Chain) IsWholeNumber(msg ...string) *Chain {
	return c.push("isWholeNumber", nil, msg, IsWholeNumber(msg...))
}

func (c *Chain) ValidEmailAddress(msg ...string) *Chain {
	return c.push("validEmailAddress", nil, msg, ValidEmailAddress(msg...))
}

// NumberInRange appends Min then Max sharing the same custom message.
func (c *Chain) NumberInRange(minimum, maximum float64, msg ...string) *Chain {
	return c.Min(minimum, msg...).Max(maximum, msg...)
}

// LengthInRange appends MinLength then MaxLength sharing the same custom message.
func (c *Chain) LengthInRange(minimum, maximum int, msg ...string) *Chain {
	return c.MinLength(minimum, msg...).MaxLength(maximum, msg...)
}

// Longitude bounds the value to [-180, 180].
func (c *Chain) Longitude(msg ...string) *Chain {
	c.push("max", map[string]any{"max": 180.0}, msg, bound(180, false, i18n.CodeLongitudeMax, nil, msg))
	return c.push("min", map[string]any{"min": -180.0}, msg, bound(-180, true, i18n.CodeLongitudeMin, nil, msg))
}

// Latitude bounds the value to [-90, 90].
func (c *Chain) Latitude(msg ...string) *Chain {
	c.push("max", map[string]any{"max": 90.0}, msg, bound(90, false, i18n.CodeLatitudeMax, nil, msg))
	return c.push("min", map[string]any{"min": -90.0}, msg, bound(-90, true, i18n.CodeLatitudeMin, nil, msg))
}

// custom returns the caller-supplied message, if any.
func custom(msg []string) string {
	if len(msg) > 0 {
		return msg[0]
	}
	return ""
}

// message resolves the reported text lazily so language switches apply to
// already-built chains.
func message(msg []string, code string, data map[string]string) string {
	if m := custom(msg); m != "" {
		return m
	}
	return i18n.T(code, data)
}
