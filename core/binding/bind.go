package binding

import (
	"time"

	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/validation"
)

// Args are the validated, typed inputs of a handler.
type Args struct {
	values map[string]any
	set    map[string]bool
}

// NewArgs creates Args from already-typed values, all marked as provided.
// Tests use it to call handlers directly.
func NewArgs(values map[string]any) Args {
	a := Args{values: make(map[string]any, len(values)), set: make(map[string]bool, len(values))}
	for k, v := range values {
		a.values[k] = v
		a.set[k] = true
	}
	return a
}

// Get returns the value of an argument, or nil.
func (a Args) Get(name string) any { return a.values[name] }

// IsSet reports whether the request provided the argument.
func (a Args) IsSet(name string) bool { return a.set[name] }

// String returns a string argument.
func (a Args) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Int returns an int argument.
func (a Args) Int(name string) int64 {
	n, _ := a.values[name].(int64)
	return n
}

// Float returns a float argument.
func (a Args) Float(name string) float64 {
	switch v := a.values[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a bool argument.
func (a Args) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// Time returns a timestamp argument.
func (a Args) Time(name string) time.Time {
	t, _ := a.values[name].(time.Time)
	return t
}

// Strings returns a list argument.
func (a Args) Strings(name string) []string {
	s, _ := a.values[name].([]string)
	return s
}

// Object returns a resource argument.
func (a Args) Object(name string) *schema.Instance {
	o, _ := a.values[name].(*schema.Instance)
	return o
}

// Objects returns a list-of-resources argument.
func (a Args) Objects(name string) []*schema.Instance {
	o, _ := a.values[name].([]*schema.Instance)
	return o
}

// File returns an uploaded file argument.
func (a Args) File(name string) *File {
	f, _ := a.values[name].(*File)
	return f
}

// Bind validates the raw values of a request against the table. All errors
// from all parameters are collected, each stamped with its source.
func (t *Table) Bind(raw Raw, v *validation.Validator) (Args, schema.ValidationResult) {
	args := Args{
		values: make(map[string]any, len(t.Bindings)),
		set:    make(map[string]bool, len(t.Bindings)),
	}
	result := schema.NewResult()

	for _, b := range t.Bindings {
		rv := raw[b.Param.Name]
		value, set, r := bindOne(b, rv, v)

		prefix := b.Key
		if b.Source == SourceBody && !b.Embedded {
			prefix = ""
		}
		sub := schema.NewResult()
		sub.Merge(r, prefix)
		result.Merge(sub.WithSource(string(b.Source)), "")

		if r.Valid {
			args.values[b.Param.Name] = value
			args.set[b.Param.Name] = set
		}
	}

	return args, result
}

func bindOne(b Binding, rv RawValue, v *validation.Validator) (any, bool, schema.ValidationResult) {
	p := b.Param

	missing := !rv.Present || (rv.Value == nil && p.IsObject())
	if missing && (p.IsObject() || b.Source == SourceFile) {
		result := schema.NewResult()
		if p.Required {
			result.AddError("", schema.KindMissingField, "", nil, "field is required")
		}
		return nil, false, result
	}

	switch {
	case b.Source == SourceFile:
		f, ok := rv.Value.(*File)
		if !ok {
			result := schema.NewResult()
			result.AddError("", schema.KindTypeMismatch, "", nil, "must be a file")
			return nil, false, result
		}
		return f, true, schema.NewResult()

	case p.Variant != "":
		inst, result := v.ValidateVariant(p.Variant, rv.Value)
		return inst, true, result

	case p.Type == schema.FieldTypeObjects:
		list, result := v.ValidateList(p.Ref, rv.Value)
		return list, true, result

	case p.Type == schema.FieldTypeObject:
		inst, result := v.Validate(p.Ref, rv.Value)
		return inst, true, result

	default:
		return v.ValidateField(b.Field, rv.Value, rv.Present)
	}
}
