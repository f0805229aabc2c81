/*
Package schema defines the core types for declarative resource definitions.

A resource is a named, ordered set of typed fields with constraints and
named examples. Resources describe both request bodies and response
shapes; they own no storage.

# Resource Definition

A catalog file declares resources and variant sets in YAML:

	resources:
	  Image:
	    fields:
	      url:  { type: string, required: true, constraints: [{ type: pattern, value: "^https?://" }] }
	      name: { type: string, required: true }

	  Item:
	    strict: false
	    fields:
	      name:   { type: string, required: true }
	      price:  { type: float, required: true, constraints: [{ type: gt, value: 0 }] }
	      tags:   { type: set, default: [] }
	      images: { type: objects, ref: Image }
	    examples:
	      normal: { name: Foo, price: 35.4 }

	  CarItem:
	    extends: BaseItem
	    fields:
	      type: { type: string, default: car }

	variants:
	  AnyItem:
	    discriminator: type
	    mapping: { car: CarItem, plane: PlaneItem }

# Field Types

Supported field types:

  - string:    Text value (no coercion from numbers)
  - int:       Integer value (integral numbers, decimal strings)
  - float:     Floating-point value (numbers, numeric strings)
  - bool:      Boolean value (true/false/1/0/yes/no/on/off)
  - timestamp: Date/time value (RFC 3339, zone-less forms, Unix seconds)
  - enum:      One of a set of values, case-sensitive (requires values)
  - strings:   List of strings
  - set:       List of strings with duplicates removed
  - object:    Nested resource (requires ref)
  - objects:   List of nested resources (requires ref)
  - json:      Free-form JSON value

Fields are optional unless required: true. Optional fields accept an
explicit null unless nullable: false. A default is either static
(default) or computed per instance (default_func: now).

# Instances

Validation produces an Instance: typed values in declaration order plus
the set of fields the input explicitly provided. Responses can drop unset
fields (EncodeOptions.ExcludeUnset) or null fields (ExcludeNone).

# Parsing

Load catalogs from YAML:

	cat, err := schema.ParseFile("resources/items.yaml")
	cat, err := schema.ParseDir("resources/")
	cat, err := schema.ParseFS(embedded, "resources")

All definitions are validated on parse. Cross-resource references are
checked when the catalog is derived (see package convention).
*/
package schema
