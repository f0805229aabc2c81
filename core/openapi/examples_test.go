package openapi

import (
	"strings"
	"testing"
)

func TestVerifyExamples(t *testing.T) {
	v := testValidator(t, testCatalog)

	if err := VerifyExamples(v); err != nil {
		t.Errorf("VerifyExamples failed: %v", err)
	}
}

func TestVerifyExamples_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		example string
		want    string
	}{
		{
			name:    "constraint",
			example: `{ name: Foo, price: -1 }`,
			want:    `Item example "bad"`,
		},
		{
			name:    "missing required",
			example: `{ price: 3 }`,
			want:    `Item example "bad"`,
		},
		{
			// The validator coerces numeric strings, the schema does not.
			name:    "schema only",
			example: `{ name: Foo, price: "3.5" }`,
			want:    `Item example "bad": schema`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := `
resources:
  Item:
    fields:
      name:  { type: string, required: true }
      price: { type: float, required: true, constraints: [{ type: gt, value: 0 }] }
    examples:
      bad: ` + tt.example + `
`
			v := testValidator(t, yaml)

			err := VerifyExamples(v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCompileSchema_Nested(t *testing.T) {
	reg := testRegistry(t, testCatalog)

	compiled, err := CompileSchema(reg, "Item")
	if err != nil {
		t.Fatalf("CompileSchema failed: %v", err)
	}

	good, _ := jsonValue(map[string]any{
		"name":   "Foo",
		"price":  1,
		"images": []any{map[string]any{"url": "http://a/b.png", "name": "b"}},
	})
	if err := compiled.Validate(good); err != nil {
		t.Errorf("valid item rejected: %v", err)
	}

	bad, _ := jsonValue(map[string]any{
		"name":   "Foo",
		"price":  1,
		"images": []any{map[string]any{"url": "ftp://a/b.png", "name": "b"}},
	})
	if err := compiled.Validate(bad); err == nil {
		t.Error("nested pattern violation accepted")
	}
}
