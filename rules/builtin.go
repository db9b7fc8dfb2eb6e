package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/reoring/formstate/i18n"
)

var (
	noSpecialCharactersPattern = regexp.MustCompile(`^[0-9A-Za-z\s]*$`)
	phoneNumberPattern         = regexp.MustCompile(`^\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})$`)
	emailPattern               = regexp.MustCompile(`(?i)^(([^<>()\[\].,;:\s@"]+(\.[^<>()\[\].,;:\s@"]+)*)|(".+"))@(([^<>()\[\].,;:\s@"]+\.)+[^<>()\[\].,;:\s@"]{2,})$`)
)

// Required fails for nil, "" and whitespace-only strings.
func Required(msg ...string) ValueRule {
	return func(v any) string {
		if isBlank(v) {
			return message(msg, i18n.CodeRequired, nil)
		}
		return ""
	}
}

// RequiredIf behaves like Required when isRequired is true and always passes
// otherwise.
func RequiredIf(isRequired bool, msg ...string) ValueRule {
	req := Required(msg...)
	return func(v any) string {
		if !isRequired {
			return ""
		}
		return req(v)
	}
}

// Min requires a numeric value >= minimum. Values that cannot be read as a
// number fail with a dedicated message.
func Min(minimum float64, msg ...string) ValueRule {
	return bound(minimum, true, i18n.CodeMin, map[string]string{"min": formatNumber(minimum)}, msg)
}

// Max requires a numeric value <= maximum.
func Max(maximum float64, msg ...string) ValueRule {
	return bound(maximum, false, i18n.CodeMax, map[string]string{"max": formatNumber(maximum)}, msg)
}

func bound(limit float64, lower bool, code string, data map[string]string, msg []string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		n, ok := toNumber(v)
		if !ok {
			if lower {
				return i18n.T(i18n.CodeMinNotNumber, nil)
			}
			return i18n.T(i18n.CodeMaxNotNumber, nil)
		}
		if (lower && n >= limit) || (!lower && n <= limit) {
			return ""
		}
		return message(msg, code, data)
	}
}

// MinLength requires a string of at least minimum characters.
func MinLength(minimum int, msg ...string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return i18n.T(i18n.CodeInvalidText, nil)
		}
		if utf8.RuneCountInString(s) >= minimum {
			return ""
		}
		return message(msg, i18n.CodeMinLength, map[string]string{"min": strconv.Itoa(minimum)})
	}
}

// MaxLength requires a string of at most maximum characters.
func MaxLength(maximum int, msg ...string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			return i18n.T(i18n.CodeInvalidText, nil)
		}
		if utf8.RuneCountInString(s) <= maximum {
			return ""
		}
		return message(msg, i18n.CodeMaxLength, map[string]string{"max": strconv.Itoa(maximum)})
	}
}

// MinArrayOptions requires a slice with at least minimum elements.
func MinArrayOptions(minimum int, msg ...string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		n, ok := collectionLen(v)
		if !ok {
			return i18n.T(i18n.CodeInvalidParameter, nil)
		}
		if n >= minimum {
			return ""
		}
		return message(msg, i18n.CodeMinItems, map[string]string{"min": strconv.Itoa(minimum), "plural": plural(minimum)})
	}
}

// MaxArrayOptions requires a slice with at most maximum elements.
func MaxArrayOptions(maximum int, msg ...string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		n, ok := collectionLen(v)
		if !ok {
			return i18n.T(i18n.CodeInvalidParameter, nil)
		}
		if n <= maximum {
			return ""
		}
		return message(msg, i18n.CodeMaxItems, map[string]string{"max": strconv.Itoa(maximum), "plural": plural(maximum)})
	}
}

// Regex requires the value's string form to match pattern. It panics when
// pattern does not compile, like regexp.MustCompile.
func Regex(pattern string, msg ...string) ValueRule {
	return matchRule(regexp.MustCompile(pattern), i18n.CodePattern, msg)
}

// NoSpecialCharacters allows only ASCII letters, digits and whitespace.
func NoSpecialCharacters(msg ...string) ValueRule {
	return matchRule(noSpecialCharactersPattern, i18n.CodeNoSpecialCharacters, msg)
}

// PhoneNumber accepts ten digits with optional "(", ")", "-", "." or " "
// separators.
func PhoneNumber(msg ...string) ValueRule {
	return matchRule(phoneNumberPattern, i18n.CodePhoneNumber, msg)
}

// ValidEmailAddress accepts common address forms.
func ValidEmailAddress(msg ...string) ValueRule {
	return matchRule(emailPattern, i18n.CodeEmail, msg)
}

func matchRule(re *regexp.Regexp, code string, msg []string) ValueRule {
	return func(v any) string {
		if isEmpty(v) {
			return ""
		}
		if re.MatchString(stringOf(v)) {
			return ""
		}
		return message(msg, code, nil)
	}
}

// IsWholeNumber fails for numbers with a fractional part. Strings and other
// non-numeric input pass.
func IsWholeNumber(msg ...string) ValueRule {
	return func(v any) string {
		if v == nil {
			return ""
		}
		if _, isString := v.(string); isString {
			return ""
		}
		n, ok := toNumber(v)
		if !ok || math.IsNaN(n) {
			return ""
		}
		if math.Mod(n, 1) == 0 {
			return ""
		}
		return message(msg, i18n.CodeWholeNumber, nil)
	}
}

// And passes only when every rule passes; it reports the last failure.
func And(rules ...ValueRule) ValueRule {
	return func(v any) string {
		out := ""
		for _, r := range rules {
			if r == nil {
				continue
			}
			if m := r(v); m != "" {
				out = m
			}
		}
		return out
	}
}

// Or passes if any rule passes. When all fail the first failure is reported.
func Or(rules ...ValueRule) ValueRule {
	return func(v any) string {
		first := ""
		for _, r := range rules {
			if r == nil {
				continue
			}
			m := r(v)
			if m == "" {
				return ""
			}
			if first == "" {
				first = m
			}
		}
		return first
	}
}

// ------- helpers -------

// isEmpty reports the "absent" values every non-required rule treats as valid.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func collectionLen(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	default:
		return 0, false
	}
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
