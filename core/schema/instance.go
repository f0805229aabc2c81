package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Instance is a validated value of a resource. It keeps the declared field
// order and remembers which fields the input explicitly provided, so that
// responses can drop fields that were never set.
//
// Values are stored in their typed form: string, int64, float64, bool,
// time.Time, []string, *Instance, []*Instance, or any for json fields.
// A nil value is an explicit null (or an absent optional field without a
// default).
type Instance struct {
	resource string
	names    []string
	keys     map[string]string
	values   map[string]any
	defaults map[string]any
	set      map[string]bool
}

// Slot names one field of an instance and its wire key.
type Slot struct {
	Name string
	Key  string
}

// NewInstance creates an empty instance with the given field slots.
func NewInstance(resource string, slots []Slot) *Instance {
	in := &Instance{
		resource: resource,
		names:    make([]string, 0, len(slots)),
		keys:     make(map[string]string, len(slots)),
		values:   make(map[string]any, len(slots)),
		defaults: make(map[string]any),
		set:      make(map[string]bool),
	}
	for _, s := range slots {
		key := s.Key
		if key == "" {
			key = s.Name
		}
		in.names = append(in.names, s.Name)
		in.keys[s.Name] = key
		in.values[s.Name] = nil
	}
	return in
}

// Resource returns the name of the resource this instance was validated against.
func (in *Instance) Resource() string { return in.resource }

// Fields returns the field names in declaration order.
func (in *Instance) Fields() []string {
	out := make([]string, len(in.names))
	copy(out, in.names)
	return out
}

// Key returns the wire key of a field.
func (in *Instance) Key(name string) string {
	if k, ok := in.keys[name]; ok {
		return k
	}
	return name
}

// Has reports whether the resource declares the field.
func (in *Instance) Has(name string) bool {
	_, ok := in.keys[name]
	return ok
}

// Value returns the value of a field and whether the field is declared.
func (in *Instance) Value(name string) (any, bool) {
	if !in.Has(name) {
		return nil, false
	}
	return in.values[name], true
}

// Get returns the value of a field, or nil.
func (in *Instance) Get(name string) any {
	return in.values[name]
}

// IsSet reports whether the field was explicitly provided (or Set).
func (in *Instance) IsSet(name string) bool {
	return in.set[name]
}

// IsNull reports whether the field holds no value.
func (in *Instance) IsNull(name string) bool {
	return in.values[name] == nil
}

// Set assigns a field and marks it as set.
func (in *Instance) Set(name string, value any) error {
	if !in.Has(name) {
		return fmt.Errorf("%s has no field %q", in.resource, name)
	}
	in.values[name] = value
	in.set[name] = true
	return nil
}

// Fill assigns a default value without marking the field as set.
func (in *Instance) Fill(name string, value any) {
	if !in.Has(name) {
		return
	}
	in.values[name] = value
	in.defaults[name] = value
	delete(in.set, name)
}

// SetDefault records the value Unset restores, without touching the
// current value or its set mark.
func (in *Instance) SetDefault(name string, value any) {
	if !in.Has(name) {
		return
	}
	in.defaults[name] = value
}

// Unset restores the field's default and clears its set mark.
func (in *Instance) Unset(name string) {
	if !in.Has(name) {
		return
	}
	in.values[name] = cloneValue(in.defaults[name])
	delete(in.set, name)
}

// SetFields returns the names of set fields in declaration order.
func (in *Instance) SetFields() []string {
	var out []string
	for _, name := range in.names {
		if in.set[name] {
			out = append(out, name)
		}
	}
	return out
}

// String returns a string field, or "" when null.
func (in *Instance) String(name string) string {
	s, _ := in.values[name].(string)
	return s
}

// Int returns an int field, or 0 when null.
func (in *Instance) Int(name string) int64 {
	n, _ := in.values[name].(int64)
	return n
}

// Float returns a float field, or 0 when null.
func (in *Instance) Float(name string) float64 {
	switch v := in.values[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// Bool returns a bool field, or false when null.
func (in *Instance) Bool(name string) bool {
	b, _ := in.values[name].(bool)
	return b
}

// Time returns a timestamp field, or the zero time when null.
func (in *Instance) Time(name string) time.Time {
	t, _ := in.values[name].(time.Time)
	return t
}

// Strings returns a strings or set field.
func (in *Instance) Strings(name string) []string {
	s, _ := in.values[name].([]string)
	return s
}

// Object returns a nested object field, or nil.
func (in *Instance) Object(name string) *Instance {
	o, _ := in.values[name].(*Instance)
	return o
}

// Objects returns a nested list field.
func (in *Instance) Objects(name string) []*Instance {
	o, _ := in.values[name].([]*Instance)
	return o
}

// Raw returns the set fields keyed by wire key, in a form that validates
// back to an equivalent instance. Nested instances are converted recursively.
// Unset fields are left out so that set-ness survives re-validation.
func (in *Instance) Raw() map[string]any {
	out := make(map[string]any, len(in.set))
	for _, name := range in.names {
		if !in.set[name] {
			continue
		}
		out[in.keys[name]] = rawValue(in.values[name])
	}
	return out
}

// Map returns every field keyed by wire key, including defaults.
func (in *Instance) Map() map[string]any {
	out := make(map[string]any, len(in.names))
	for _, name := range in.names {
		v := in.values[name]
		switch vv := v.(type) {
		case *Instance:
			out[in.keys[name]] = vv.Map()
		case []*Instance:
			list := make([]any, len(vv))
			for i, item := range vv {
				list[i] = item.Map()
			}
			out[in.keys[name]] = list
		default:
			out[in.keys[name]] = v
		}
	}
	return out
}

func rawValue(v any) any {
	switch vv := v.(type) {
	case *Instance:
		if vv == nil {
			return nil
		}
		return vv.Raw()
	case []*Instance:
		list := make([]any, len(vv))
		for i, item := range vv {
			list[i] = item.Raw()
		}
		return list
	case []string:
		list := make([]any, len(vv))
		for i, s := range vv {
			list[i] = s
		}
		return list
	default:
		return v
	}
}

// Clone returns a deep copy of the instance.
func (in *Instance) Clone() *Instance {
	out := &Instance{
		resource: in.resource,
		names:    in.names,
		keys:     in.keys,
		values:   make(map[string]any, len(in.values)),
		defaults: make(map[string]any, len(in.defaults)),
		set:      make(map[string]bool, len(in.set)),
	}
	for k, v := range in.values {
		out.values[k] = cloneValue(v)
	}
	for k, v := range in.defaults {
		out.defaults[k] = cloneValue(v)
	}
	for k, v := range in.set {
		out.set[k] = v
	}
	return out
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case *Instance:
		if vv == nil {
			return vv
		}
		return vv.Clone()
	case []*Instance:
		list := make([]*Instance, len(vv))
		for i, item := range vv {
			list[i] = item.Clone()
		}
		return list
	case []string:
		list := make([]string, len(vv))
		copy(list, vv)
		return list
	default:
		return v
	}
}

// EncodeOptions selects which fields are written when encoding an instance.
// Both options apply to nested instances as well.
type EncodeOptions struct {
	// ExcludeUnset drops fields that were not explicitly set.
	ExcludeUnset bool
	// ExcludeNone drops fields holding no value.
	ExcludeNone bool
}

// MarshalJSON encodes all fields in declaration order.
func (in *Instance) MarshalJSON() ([]byte, error) {
	return in.Encode(EncodeOptions{})
}

// Encode writes the instance as a JSON object in declaration order.
func (in *Instance) Encode(opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := in.encode(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (in *Instance) encode(buf *bytes.Buffer, opts EncodeOptions) error {
	buf.WriteByte('{')
	first := true
	for _, name := range in.names {
		v := in.values[name]
		if opts.ExcludeUnset && !in.set[name] {
			continue
		}
		if opts.ExcludeNone && isNone(v) {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(in.keys[name])
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if err := encodeValue(buf, v, opts); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// EncodeList writes a list of instances as a JSON array.
func EncodeList(list []*Instance, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, list, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any, opts EncodeOptions) error {
	switch vv := v.(type) {
	case *Instance:
		if vv == nil {
			buf.WriteString("null")
			return nil
		}
		return vv.encode(buf, opts)
	case []*Instance:
		buf.WriteByte('[')
		for i, item := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf, opts); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case time.Time:
		b, err := json.Marshal(vv.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

func isNone(v any) bool {
	if v == nil {
		return true
	}
	if o, ok := v.(*Instance); ok && o == nil {
		return true
	}
	return false
}
