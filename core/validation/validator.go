// Package validation validates raw input against derived resources.
// Every field is visited and all errors are reported together; for each
// field the order is type coercion, then required-ness, then constraints.
package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/ports"
)

// Validator validates input data against resource schemas.
// It is safe for concurrent use; the registry is read-only.
type Validator struct {
	registry *convention.Registry
	clock    ports.Clock
}

// New creates a new validator over the given registry. The clock is read
// for computed defaults, once per instance.
func New(registry *convention.Registry, clock ports.Clock) *Validator {
	return &Validator{
		registry: registry,
		clock:    clock,
	}
}

// Registry returns the registry the validator reads from.
func (v *Validator) Registry() *convention.Registry {
	return v.registry
}

// Validate validates raw data against the named resource.
// The instance is nil when the result is not valid.
func (v *Validator) Validate(resource string, raw any) (*schema.Instance, schema.ValidationResult) {
	d, ok := v.registry.Resource(resource)
	if !ok {
		result := schema.NewResult()
		result.AddError("", schema.KindTypeMismatch, "", resource, fmt.Sprintf("unknown resource: %s", resource))
		return nil, result
	}
	return v.ValidateDerived(d, raw)
}

// ValidateDerived validates raw data against a derived resource.
func (v *Validator) ValidateDerived(d convention.Derived, raw any) (*schema.Instance, schema.ValidationResult) {
	result := schema.NewResult()
	inst := v.validateObject(&result, "", d, raw)
	if !result.Valid {
		return nil, result
	}
	return inst, result
}

// ValidateList validates a list of raw values against the named resource.
func (v *Validator) ValidateList(resource string, raw any) ([]*schema.Instance, schema.ValidationResult) {
	result := schema.NewResult()

	d, ok := v.registry.Resource(resource)
	if !ok {
		result.AddError("", schema.KindTypeMismatch, "", resource, fmt.Sprintf("unknown resource: %s", resource))
		return nil, result
	}

	items, ok := asList(raw)
	if !ok {
		result.AddError("", schema.KindTypeMismatch, "", raw, "must be a list")
		return nil, result
	}

	out := make([]*schema.Instance, 0, len(items))
	for i, item := range items {
		out = append(out, v.validateObject(&result, strconv.Itoa(i), d, item))
	}
	if !result.Valid {
		return nil, result
	}
	return out, result
}

// ValidateVariant reads the discriminator of raw and validates it against
// the resource it selects.
func (v *Validator) ValidateVariant(name string, raw any) (*schema.Instance, schema.ValidationResult) {
	result := schema.NewResult()

	vs, ok := v.registry.Variant(name)
	if !ok {
		result.AddError("", schema.KindTypeMismatch, "", name, fmt.Sprintf("unknown variant set: %s", name))
		return nil, result
	}

	m, ok := raw.(map[string]any)
	if !ok {
		result.AddError("", schema.KindTypeMismatch, "", raw, "must be an object")
		return nil, result
	}

	tagValue, present := m[vs.Discriminator]
	if !present || tagValue == nil {
		result.AddError(vs.Discriminator, schema.KindMissingField, "", nil, "field is required")
		return nil, result
	}

	tag, _ := tagValue.(string)
	target, ok := vs.Mapping[tag]
	if !ok {
		result.AddError(vs.Discriminator, schema.KindInvalidEnumValue, "", tagValue,
			fmt.Sprintf("must be one of: %s", strings.Join(vs.Tags(), ", ")))
		return nil, result
	}

	return v.Validate(target, raw)
}

// ValidateField validates a single value against a derived field.
// present reports whether the input contained the key at all; an absent
// optional field yields its default. set reports whether the returned
// value counts as explicitly provided.
func (v *Validator) ValidateField(field convention.DerivedField, raw any, present bool) (value any, set bool, result schema.ValidationResult) {
	result = schema.NewResult()
	value, set = v.validateField(&result, "", field, raw, present)
	return value, set, result
}

// DefaultFor returns the default value of a field in its typed form.
// Computed defaults are evaluated on every call.
func (v *Validator) DefaultFor(field convention.DerivedField) any {
	if field.DefaultFunc == schema.DefaultFuncNow {
		return v.clock.Now().UTC()
	}
	if field.Default == nil {
		return nil
	}

	// Definitions are checked at parse time, so coercion failures here
	// leave the default as declared.
	result := schema.NewResult()
	val := v.coerce(&result, "", field, field.Default)
	if !result.Valid {
		return field.Default
	}
	return val
}

func (v *Validator) validateObject(result *schema.ValidationResult, path string, d convention.Derived, raw any) *schema.Instance {
	m, ok := raw.(map[string]any)
	if !ok {
		result.AddError(path, schema.KindTypeMismatch, "", raw, "must be an object")
		return nil
	}

	if d.Strict {
		var unknown []string
		for key := range m {
			if _, known := d.FieldByKey(key); !known {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			result.AddError(schema.JoinPath(path, key), schema.KindUnknownField, "", m[key],
				fmt.Sprintf("unknown field '%s' - not defined in %s", key, d.Name))
		}
	}

	inst := schema.NewInstance(d.Name, d.Slots())
	for _, field := range d.Fields {
		raw, present := m[field.Key]
		value, set := v.validateField(result, schema.JoinPath(path, field.Key), field, raw, present)
		if set {
			inst.SetDefault(field.Name, v.DefaultFor(field))
			_ = inst.Set(field.Name, value)
		} else {
			inst.Fill(field.Name, value)
		}
	}
	return inst
}

func (v *Validator) validateField(result *schema.ValidationResult, path string, field convention.DerivedField, raw any, present bool) (any, bool) {
	if !present {
		if field.Required {
			result.AddError(path, schema.KindMissingField, "", nil, "field is required")
			return nil, false
		}
		return v.DefaultFor(field), false
	}

	if raw == nil {
		if !field.Nullable {
			result.AddError(path, schema.KindTypeMismatch, "", nil, "must not be null")
			return nil, false
		}
		return nil, true
	}

	before := len(result.Errors)
	value := v.coerce(result, path, field, raw)
	if len(result.Errors) > before {
		return nil, false
	}

	// Length constraints on objects lists count the raw items.
	checked := value
	if field.Type == schema.FieldTypeObjects {
		checked, _ = asList(raw)
	}
	for _, c := range field.Constraints {
		if err := schema.ValidateConstraint(path, checked, c); err != nil {
			err.Value = raw
			result.Errors = append(result.Errors, *err)
			result.Valid = false
		}
	}
	if len(result.Errors) > before {
		return nil, false
	}

	return value, true
}

// coerce converts raw to the typed form of the field, reporting type errors.
func (v *Validator) coerce(result *schema.ValidationResult, path string, field convention.DerivedField, raw any) any {
	switch field.Type {
	case schema.FieldTypeString:
		s, ok := coerceString(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a string")
			return nil
		}
		return s

	case schema.FieldTypeInt:
		n, ok := coerceInt(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be an integer")
			return nil
		}
		return n

	case schema.FieldTypeFloat:
		f, ok := coerceFloat(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a number")
			return nil
		}
		return f

	case schema.FieldTypeBool:
		b, ok := coerceBool(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a boolean")
			return nil
		}
		return b

	case schema.FieldTypeTimestamp:
		t, ok := coerceTime(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a timestamp")
			return nil
		}
		return t

	case schema.FieldTypeEnum:
		s, ok := coerceString(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a string")
			return nil
		}
		if !containsString(field.Values, s) {
			result.AddError(path, schema.KindInvalidEnumValue, "", raw,
				fmt.Sprintf("must be one of: %s", strings.Join(field.Values, ", ")))
			return nil
		}
		return s

	case schema.FieldTypeStrings, schema.FieldTypeSet:
		items, ok := asList(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a list of strings")
			return nil
		}
		out := make([]string, 0, len(items))
		for i, item := range items {
			s, ok := coerceString(item)
			if !ok {
				result.AddError(schema.JoinPath(path, strconv.Itoa(i)), schema.KindTypeMismatch, "", item, "must be a string")
				continue
			}
			out = append(out, s)
		}
		if field.Type == schema.FieldTypeSet {
			out = dedupe(out)
		}
		return out

	case schema.FieldTypeObject:
		d, ok := v.registry.Resource(field.Ref)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, fmt.Sprintf("unknown resource: %s", field.Ref))
			return nil
		}
		return v.validateObject(result, path, d, raw)

	case schema.FieldTypeObjects:
		d, ok := v.registry.Resource(field.Ref)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, fmt.Sprintf("unknown resource: %s", field.Ref))
			return nil
		}
		items, ok := asList(raw)
		if !ok {
			result.AddError(path, schema.KindTypeMismatch, "", raw, "must be a list")
			return nil
		}
		out := make([]*schema.Instance, 0, len(items))
		for i, item := range items {
			out = append(out, v.validateObject(result, schema.JoinPath(path, strconv.Itoa(i)), d, item))
		}
		return out

	case schema.FieldTypeJSON:
		return raw

	default:
		result.AddError(path, schema.KindTypeMismatch, "", raw, fmt.Sprintf("unsupported type %s", field.Type))
		return nil
	}
}

// containsString checks if a string is in a slice.
func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
