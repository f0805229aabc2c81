package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a catalog from a YAML file.
func ParseFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a catalog from YAML bytes.
func Parse(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse yaml: %w", err)
	}

	for name, res := range cat.Resources {
		res.Name = name
		cat.Resources[name] = res
	}
	for name, vs := range cat.Variants {
		vs.Name = name
		cat.Variants[name] = vs
	}

	if err := Validate(cat); err != nil {
		return Catalog{}, err
	}

	return cat, nil
}

// ParseDir parses all catalog files from a directory, including subdirectories.
func ParseDir(dir string) (Catalog, error) {
	return ParseFS(os.DirFS(dir), ".")
}

// ParseFS parses all .yaml/.yml files under dir in fsys and merges them
// into one catalog. Files are read in lexical order.
func ParseFS(fsys fs.FS, dir string) (Catalog, error) {
	var files []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return Catalog{}, fmt.Errorf("read dir %s: %w", dir, err)
	}
	sort.Strings(files)

	cat := Catalog{
		Resources: make(map[string]Resource),
		Variants:  make(map[string]VariantSet),
	}
	for _, p := range files {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return Catalog{}, fmt.Errorf("read file %s: %w", p, err)
		}
		part, err := Parse(data)
		if err != nil {
			return Catalog{}, fmt.Errorf("%s: %w", path.Base(p), err)
		}
		if err := cat.Merge(part); err != nil {
			return Catalog{}, fmt.Errorf("%s: %w", path.Base(p), err)
		}
	}

	return cat, nil
}

// Validate validates the definitions of a catalog in isolation.
// Cross-resource references are checked when the catalog is derived.
func Validate(cat Catalog) error {
	var errs []string

	for _, name := range cat.ResourceNames() {
		if err := ValidateResource(cat.Resources[name]); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for name, vs := range cat.Variants {
		if !isValidIdentifier(name) {
			errs = append(errs, fmt.Sprintf("variant name %q is not a valid identifier", name))
		}
		if vs.Discriminator == "" {
			errs = append(errs, fmt.Sprintf("variant %q: discriminator is required", name))
		}
		if len(vs.Mapping) == 0 {
			errs = append(errs, fmt.Sprintf("variant %q: mapping must have at least one entry", name))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ValidateResource validates a single resource definition.
func ValidateResource(res Resource) error {
	var errs []string

	if res.Name == "" {
		errs = append(errs, "resource name is required")
	} else if !isValidIdentifier(res.Name) {
		errs = append(errs, fmt.Sprintf("resource name %q is not a valid identifier", res.Name))
	}

	if len(res.Fields) == 0 && res.Extends == "" {
		errs = append(errs, fmt.Sprintf("resource %q: schema must have at least one field", res.Name))
	}

	seen := make(map[string]bool)
	for _, f := range res.Fields {
		if !isValidIdentifier(f.Name) {
			errs = append(errs, fmt.Sprintf("field name %q is not a valid identifier", f.Name))
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Sprintf("field %q declared twice", f.Name))
		}
		seen[f.Name] = true

		if err := ValidateField(f.Name, f.Field); err != nil {
			errs = append(errs, fmt.Sprintf("resource %q: %v", res.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateField validates a single field definition.
func ValidateField(name string, field Field) error {
	// Check type is valid
	if !isValidFieldType(field.Type) {
		return fmt.Errorf("field %q: unknown type %q", name, field.Type)
	}

	// Enum requires values
	if field.Type == FieldTypeEnum && len(field.Values) == 0 {
		return fmt.Errorf("field %q: enum type requires values", name)
	}

	// Nested types require a target
	if field.Type.IsNested() && field.Ref == "" {
		return fmt.Errorf("field %q: %s type requires 'ref' target", name, field.Type)
	}

	if field.DefaultFunc != "" {
		if field.DefaultFunc != DefaultFuncNow {
			return fmt.Errorf("field %q: unknown default_func %q", name, field.DefaultFunc)
		}
		if field.Type != FieldTypeTimestamp {
			return fmt.Errorf("field %q: default_func %q requires a timestamp field", name, field.DefaultFunc)
		}
		if field.Default != nil {
			return fmt.Errorf("field %q: default and default_func are mutually exclusive", name)
		}
	}

	if field.IsRequired() && (field.Default != nil || field.DefaultFunc != "") {
		return fmt.Errorf("field %q: required fields cannot have a default", name)
	}

	// Default must match type (basic validation)
	if field.Default != nil {
		if err := validateDefault(name, field); err != nil {
			return err
		}
	}

	for _, c := range field.Constraints {
		if _, err := c.Compile(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}

	return nil
}

// validateDefault validates that a default value matches the field type.
func validateDefault(name string, field Field) error {
	switch field.Type {
	case FieldTypeInt:
		if _, err := toInt(field.Default); err != nil {
			return fmt.Errorf("field %q: default must be an integer", name)
		}
	case FieldTypeFloat:
		if _, err := ToFloat64(field.Default); err != nil {
			return fmt.Errorf("field %q: default must be a number", name)
		}
	case FieldTypeBool:
		if _, ok := field.Default.(bool); !ok {
			return fmt.Errorf("field %q: default must be a boolean", name)
		}
	case FieldTypeString, FieldTypeTimestamp:
		if _, ok := field.Default.(string); !ok {
			return fmt.Errorf("field %q: default must be a string", name)
		}
	case FieldTypeEnum:
		s, ok := field.Default.(string)
		if !ok {
			return fmt.Errorf("field %q: default must be a string", name)
		}
		found := false
		for _, v := range field.Values {
			if v == s {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("field %q: default %q is not a valid enum value", name, s)
		}
	case FieldTypeStrings, FieldTypeSet:
		list, ok := field.Default.([]any)
		if !ok {
			return fmt.Errorf("field %q: default must be a list", name)
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("field %q: default must be a list of strings", name)
			}
		}
	case FieldTypeObject, FieldTypeObjects:
		return fmt.Errorf("field %q: %s fields cannot have a static default", name, field.Type)
	}
	return nil
}

// isValidIdentifier checks if a string is a valid identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

// isValidFieldType checks if a field type is valid.
func isValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeInt, FieldTypeFloat, FieldTypeBool,
		FieldTypeTimestamp, FieldTypeEnum,
		FieldTypeStrings, FieldTypeSet,
		FieldTypeObject, FieldTypeObjects,
		FieldTypeJSON:
		return true
	default:
		return false
	}
}
