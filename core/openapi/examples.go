package openapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/validation"
)

// CompileSchema compiles the described schema of a resource.
func CompileSchema(reg *convention.Registry, name string) (*jsonschema.Schema, error) {
	s, err := Describe(reg, name)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	url := "file:///resources/" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

// VerifyExamples checks every example of every resource twice: with the
// validator, and against the compiled JSON Schema that Describe produces
// for the resource. All failures are returned together.
func VerifyExamples(v *validation.Validator) error {
	reg := v.Registry()

	var errs []error
	for _, name := range reg.Names() {
		d, _ := reg.Resource(name)
		if len(d.Examples) == 0 {
			continue
		}

		compiled, err := CompileSchema(reg, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		for _, ex := range d.Examples.Names() {
			raw, _ := d.Examples.Get(ex)

			if _, result := v.Validate(name, raw); !result.Valid {
				errs = append(errs, fmt.Errorf("%s example %q: %w", name, ex, result))
			}

			inst, err := jsonValue(raw)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s example %q: %w", name, ex, err))
				continue
			}
			if err := compiled.Validate(inst); err != nil {
				errs = append(errs, fmt.Errorf("%s example %q: schema: %w", name, ex, err))
			}
		}
	}
	return errors.Join(errs...)
}

// jsonValue converts a decoded YAML value to the form the schema
// validator expects.
func jsonValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
