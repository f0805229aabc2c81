package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/artpar/contractgate/core/binding"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/pkg/jsonapi"
)

var kindTitles = map[schema.ErrorKind]string{
	schema.KindMissingField:        "Missing Field",
	schema.KindTypeMismatch:        "Type Mismatch",
	schema.KindConstraintViolation: "Constraint Violation",
	schema.KindInvalidEnumValue:    "Invalid Enum Value",
	schema.KindUnknownField:        "Unknown Field",
}

// validationErrors converts a failed validation into one 422 error per
// offending value, each pointing at where the value came from.
func validationErrors(result schema.ValidationResult) []jsonapi.Error {
	errs := make([]jsonapi.Error, 0, len(result.Errors))
	for _, ce := range result.Errors {
		b := jsonapi.ErrValidation(string(ce.Kind), kindTitles[ce.Kind], ce.Message).
			Meta("field", ce.Field)
		if ce.Constraint != "" {
			b.Meta("constraint", ce.Constraint)
		}
		if ce.Value != nil {
			b.Meta("value", ce.Value)
		}
		if ce.In != "" {
			b.Meta("in", ce.In)
		}

		switch binding.Source(ce.In) {
		case binding.SourceBody:
			if ce.Field != "" {
				b.Pointer(jsonapi.Pointer(ce.Field))
			}
		case binding.SourceHeader:
			name, _, _ := strings.Cut(ce.Field, ".")
			b.Header(name)
		default:
			if ce.Field != "" {
				b.Parameter(ce.Field)
			}
		}

		errs = append(errs, b.Build())
	}
	return errs
}

// extractError maps a request extraction failure to its error object.
func extractError(err error, opts binding.ExtractOptions) jsonapi.Error {
	switch {
	case errors.Is(err, binding.ErrBodyTooLarge):
		return jsonapi.ErrPayloadTooLarge(opts.MaxBodyBytes)
	case errors.Is(err, binding.ErrFileTooLarge):
		return jsonapi.ErrPayloadTooLarge(opts.MaxFileBytes)
	case errors.Is(err, binding.ErrMalformedBody):
		return jsonapi.ErrMalformedBody(err.Error())
	case errors.Is(err, binding.ErrUnsupportedBody):
		return jsonapi.NewError(http.StatusUnsupportedMediaType, "unsupported_media_type", "Unsupported Media Type").
			Detail(err.Error()).
			Build()
	default:
		return jsonapi.ErrInternal("")
	}
}
