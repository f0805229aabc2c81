// Package shaping converts handler values into response bodies.
//
// A value is turned into its raw form (set fields only, so set-ness
// survives) and validated again against the declared response resource.
// Fields the response resource does not declare are dropped; a value that
// does not validate is an error, never a partial body.
package shaping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/validation"
)

// ErrInvalidResponse is returned when a handler value does not match its
// response resource.
var ErrInvalidResponse = errors.New("response does not match its declared resource")

// ResponseError carries the validation errors of an invalid response.
type ResponseError struct {
	Resource string
	Result   schema.ValidationResult
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v %s: %s", ErrInvalidResponse, e.Resource, e.Result.Error())
}

func (e *ResponseError) Unwrap() error { return ErrInvalidResponse }

// Spec is the response declaration of a route.
type Spec struct {
	Resource string
	Variant  string
	List     bool
	schema.EncodeOptions
}

// Shape validates value against spec and encodes it as JSON.
func Shape(v *validation.Validator, spec Spec, value any) ([]byte, error) {
	if spec.Resource == "" && spec.Variant == "" {
		return encodeLoose(value, spec.EncodeOptions)
	}

	raw, err := toRaw(value)
	if err != nil {
		return nil, err
	}

	name := spec.Resource
	if spec.Variant != "" {
		name = spec.Variant
	}

	if spec.List {
		items, ok := raw.([]any)
		if !ok {
			return nil, &ResponseError{Resource: name, Result: typeError(raw, "must be a list")}
		}
		list := make([]*schema.Instance, 0, len(items))
		result := schema.NewResult()
		for i, item := range items {
			inst, r := validateOne(v, spec, item)
			result.Merge(r, fmt.Sprint(i))
			list = append(list, inst)
		}
		if !result.Valid {
			return nil, &ResponseError{Resource: name, Result: result}
		}
		return schema.EncodeList(list, spec.EncodeOptions)
	}

	inst, result := validateOne(v, spec, raw)
	if !result.Valid {
		return nil, &ResponseError{Resource: name, Result: result}
	}
	return inst.Encode(spec.EncodeOptions)
}

func validateOne(v *validation.Validator, spec Spec, raw any) (*schema.Instance, schema.ValidationResult) {
	if spec.Variant != "" {
		return v.ValidateVariant(spec.Variant, raw)
	}
	return v.Validate(spec.Resource, raw)
}

func typeError(raw any, msg string) schema.ValidationResult {
	r := schema.NewResult()
	r.AddError("", schema.KindTypeMismatch, "", raw, msg)
	return r
}

// toRaw converts a handler value to the raw form validation reads.
func toRaw(value any) (any, error) {
	switch v := value.(type) {
	case *schema.Instance:
		if v == nil {
			return nil, nil
		}
		return v.Raw(), nil
	case []*schema.Instance:
		out := make([]any, len(v))
		for i, inst := range v {
			out[i] = inst.Raw()
		}
		return out, nil
	case map[string]any:
		return v, nil
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := toRaw(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		// Structs and other values go through JSON.
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return raw, nil
	}
}

// encodeLoose encodes a value with no declared response resource.
func encodeLoose(value any, opts schema.EncodeOptions) ([]byte, error) {
	switch v := value.(type) {
	case *schema.Instance:
		return v.Encode(opts)
	case []*schema.Instance:
		return schema.EncodeList(v, opts)
	default:
		return json.Marshal(value)
	}
}
