// Package schema provides constraint types for field validation.
// Constraints are defined in resource schemas and enforced at runtime.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Constraint defines a validation rule for a field.
type Constraint struct {
	// Type is the constraint type (min, gt, max_length, pattern, etc.)
	Type ConstraintType `yaml:"type" json:"type"`

	// Value is the constraint parameter (number, regex pattern, etc.)
	Value any `yaml:"value" json:"value"`

	// Message is the custom error message (optional).
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	re *regexp.Regexp
}

// ConstraintType identifies the type of constraint.
type ConstraintType string

const (
	// Numeric constraints
	ConstraintMin ConstraintType = "min" // value >= bound
	ConstraintMax ConstraintType = "max" // value <= bound
	ConstraintGt  ConstraintType = "gt"  // value > bound
	ConstraintLt  ConstraintType = "lt"  // value < bound

	// Length constraints apply to strings (in runes) and to lists
	ConstraintMinLength ConstraintType = "min_length"
	ConstraintMaxLength ConstraintType = "max_length"
	ConstraintPattern   ConstraintType = "pattern" // Regex pattern match

	// Custom constraints
	ConstraintNotEmpty ConstraintType = "not_empty" // String must not be empty/whitespace
	ConstraintOneOf    ConstraintType = "one_of"    // Value must be one of list (for non-enum validation)
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	KindMissingField        ErrorKind = "missing_field"
	KindTypeMismatch        ErrorKind = "type_mismatch"
	KindConstraintViolation ErrorKind = "constraint_violation"
	KindInvalidEnumValue    ErrorKind = "invalid_enum_value"
	KindUnknownField        ErrorKind = "unknown_field"
)

// ConstraintError represents a validation failure.
type ConstraintError struct {
	// Field is the dotted path of the offending value ("images.1.url").
	Field      string    `json:"field"`
	Kind       ErrorKind `json:"kind"`
	Constraint string    `json:"constraint,omitempty"`
	// In is the request part the value came from, once bound.
	In      string `json:"in,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ConstraintError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a request.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ConstraintError `json:"errors,omitempty"`
}

// NewResult returns an empty, valid result.
func NewResult() ValidationResult {
	return ValidationResult{Valid: true}
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field string, kind ErrorKind, constraint string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ConstraintError{
		Field:      field,
		Kind:       kind,
		Constraint: constraint,
		Value:      value,
		Message:    message,
	})
}

// Merge appends the errors of other, prefixing their field paths.
func (r *ValidationResult) Merge(other ValidationResult, prefix string) {
	if other.Valid {
		return
	}
	r.Valid = false
	for _, e := range other.Errors {
		e.Field = JoinPath(prefix, e.Field)
		r.Errors = append(r.Errors, e)
	}
}

// WithSource stamps every error with the request part it came from.
func (r ValidationResult) WithSource(in string) ValidationResult {
	for i := range r.Errors {
		r.Errors[i].In = in
	}
	return r
}

// Find returns the errors reported for the given field path.
func (r ValidationResult) Find(field string) []ConstraintError {
	var out []ConstraintError
	for _, e := range r.Errors {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

// Error returns a combined error message.
func (r ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// JoinPath joins two dotted path segments.
func JoinPath(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "." + name
	}
}

// Compile checks the constraint configuration and precompiles patterns.
// Constraints are compiled once when a resource is derived.
func (c Constraint) Compile() (Constraint, error) {
	switch c.Type {
	case ConstraintMin, ConstraintMax, ConstraintGt, ConstraintLt:
		if _, err := ToFloat64(c.Value); err != nil {
			return c, fmt.Errorf("%s: bound must be a number", c.Type)
		}
	case ConstraintMinLength, ConstraintMaxLength:
		n, err := toInt(c.Value)
		if err != nil || n < 0 {
			return c, fmt.Errorf("%s: length must be a non-negative integer", c.Type)
		}
	case ConstraintPattern:
		pattern, ok := c.Value.(string)
		if !ok {
			return c, fmt.Errorf("pattern: value must be a string")
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return c, fmt.Errorf("pattern: %w", err)
		}
		c.re = re
	case ConstraintOneOf:
		if _, ok := oneOfValues(c.Value); !ok {
			return c, fmt.Errorf("one_of: value must be a list")
		}
	case ConstraintNotEmpty:
	default:
		return c, fmt.Errorf("unknown constraint type %q", c.Type)
	}
	return c, nil
}

// ValidateConstraint validates a value against a single constraint.
// This is a PURE function.
func ValidateConstraint(fieldName string, value any, c Constraint) *ConstraintError {
	switch c.Type {
	case ConstraintMin:
		return validateBound(fieldName, value, c, func(v, b float64) bool { return v >= b }, "greater than or equal to")
	case ConstraintMax:
		return validateBound(fieldName, value, c, func(v, b float64) bool { return v <= b }, "less than or equal to")
	case ConstraintGt:
		return validateBound(fieldName, value, c, func(v, b float64) bool { return v > b }, "greater than")
	case ConstraintLt:
		return validateBound(fieldName, value, c, func(v, b float64) bool { return v < b }, "less than")
	case ConstraintMinLength:
		return validateMinLength(fieldName, value, c)
	case ConstraintMaxLength:
		return validateMaxLength(fieldName, value, c)
	case ConstraintPattern:
		return validatePattern(fieldName, value, c)
	case ConstraintNotEmpty:
		return validateNotEmpty(fieldName, value, c)
	case ConstraintOneOf:
		return validateOneOf(fieldName, value, c)
	default:
		return nil
	}
}

func violation(field string, c Constraint, value any, msg string) *ConstraintError {
	if c.Message != "" {
		msg = c.Message
	}
	return &ConstraintError{
		Field:      field,
		Kind:       KindConstraintViolation,
		Constraint: string(c.Type),
		Value:      value,
		Message:    msg,
	}
}

func validateBound(field string, value any, c Constraint, ok func(v, b float64) bool, verb string) *ConstraintError {
	bound, err := ToFloat64(c.Value)
	if err != nil {
		return nil
	}

	val, err := ToFloat64(value)
	if err != nil {
		return nil
	}

	if !ok(val, bound) {
		return violation(field, c, value, fmt.Sprintf("must be %s %v", verb, bound))
	}
	return nil
}

// sizeOf returns the rune count of a string or the length of a list.
func sizeOf(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case []string:
		return len(v), true
	case []any:
		return len(v), true
	default:
		return 0, false
	}
}

func validateMinLength(field string, value any, c Constraint) *ConstraintError {
	minLen, err := toInt(c.Value)
	if err != nil {
		return nil
	}

	n, ok := sizeOf(value)
	if !ok {
		return nil
	}

	if n < minLen {
		return violation(field, c, n, fmt.Sprintf("must have at least %d characters or items", minLen))
	}
	return nil
}

func validateMaxLength(field string, value any, c Constraint) *ConstraintError {
	maxLen, err := toInt(c.Value)
	if err != nil {
		return nil
	}

	n, ok := sizeOf(value)
	if !ok {
		return nil
	}

	if n > maxLen {
		return violation(field, c, n, fmt.Sprintf("must have at most %d characters or items", maxLen))
	}
	return nil
}

func validatePattern(field string, value any, c Constraint) *ConstraintError {
	str, ok := value.(string)
	if !ok {
		return nil
	}

	re := c.re
	if re == nil {
		pattern, ok := c.Value.(string)
		if !ok {
			return nil
		}
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return nil
		}
	}

	if !re.MatchString(str) {
		return violation(field, c, value, fmt.Sprintf("must match pattern %q", re.String()))
	}
	return nil
}

func validateNotEmpty(field string, value any, c Constraint) *ConstraintError {
	str, ok := value.(string)
	if !ok {
		return nil
	}

	if strings.TrimSpace(str) == "" {
		return violation(field, c, value, "must not be empty")
	}
	return nil
}

func oneOfValues(v any) ([]any, bool) {
	switch vals := v.(type) {
	case []any:
		return vals, true
	case []string:
		out := make([]any, len(vals))
		for i, s := range vals {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func validateOneOf(field string, value any, c Constraint) *ConstraintError {
	allowedVals, ok := oneOfValues(c.Value)
	if !ok {
		return nil
	}

	strVal := fmt.Sprintf("%v", value)
	for _, allowed := range allowedVals {
		if fmt.Sprintf("%v", allowed) == strVal {
			return nil
		}
	}

	var options []string
	for _, v := range allowedVals {
		options = append(options, fmt.Sprintf("%v", v))
	}
	return violation(field, c, value, fmt.Sprintf("must be one of: %s", strings.Join(options, ", ")))
}

// ToFloat64 converts various numeric types to float64.
func ToFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// toInt converts various types to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}
