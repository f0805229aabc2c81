package binding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Extraction errors. The dispatch channel maps them to 400 and 413.
var (
	ErrMalformedBody   = errors.New("malformed request body")
	ErrBodyTooLarge    = errors.New("request body too large")
	ErrFileTooLarge    = errors.New("uploaded file too large")
	ErrUnsupportedBody = errors.New("unsupported content type")
)

// File is an uploaded file, read into memory.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// RawValue is the unvalidated value of one parameter.
type RawValue struct {
	Value   any
	Present bool
}

// Raw holds the extracted values of a request, keyed by parameter name.
type Raw map[string]RawValue

// ExtractOptions bounds what Extract reads into memory.
type ExtractOptions struct {
	// MaxBodyBytes caps the request body. Zero means no limit.
	MaxBodyBytes int64

	// MaxMemory is the multipart memory threshold before parts spill to
	// temporary files.
	MaxMemory int64

	// MaxFileBytes caps a single uploaded file. Zero means no limit.
	MaxFileBytes int64
}

// Extract reads the raw value of every binding from the request.
// Path values come from the chi route context.
func Extract(r *http.Request, t *Table, opts ExtractOptions) (Raw, error) {
	raw := make(Raw, len(t.Bindings))

	if opts.MaxBodyBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(nil, r.Body, opts.MaxBodyBytes)
	}

	if t.HasForm() {
		if err := parseForm(r, opts); err != nil {
			return nil, err
		}
	}

	var (
		body        any
		bodyPresent bool
	)
	if len(t.Body()) > 0 {
		var err error
		if body, bodyPresent, err = readJSON(r); err != nil {
			return nil, err
		}
	}

	query := r.URL.Query()
	for _, b := range t.Bindings {
		switch b.Source {
		case SourcePath:
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				for i, k := range rctx.URLParams.Keys {
					if k == b.Key {
						raw[b.Param.Name] = RawValue{Value: rctx.URLParams.Values[i], Present: true}
					}
				}
			}

		case SourceQuery:
			if vals, ok := query[b.Key]; ok {
				raw[b.Param.Name] = fromStrings(b, vals)
			}

		case SourceHeader:
			if vals := r.Header.Values(b.Key); len(vals) > 0 {
				raw[b.Param.Name] = fromStrings(b, vals)
			}

		case SourceCookie:
			if c, err := r.Cookie(b.Key); err == nil {
				raw[b.Param.Name] = RawValue{Value: c.Value, Present: true}
			}

		case SourceForm:
			if vals, ok := r.PostForm[b.Key]; ok {
				raw[b.Param.Name] = fromStrings(b, vals)
			}

		case SourceFile:
			if r.MultipartForm == nil {
				continue
			}
			headers := r.MultipartForm.File[b.Key]
			if len(headers) == 0 {
				continue
			}
			f, err := readFile(headers[0], opts.MaxFileBytes)
			if err != nil {
				return nil, fmt.Errorf("file %q: %w", b.Key, err)
			}
			raw[b.Param.Name] = RawValue{Value: f, Present: true}

		case SourceBody:
			if !bodyPresent {
				continue
			}
			if !b.Embedded {
				raw[b.Param.Name] = RawValue{Value: body, Present: true}
				continue
			}
			if m, ok := body.(map[string]any); ok {
				if v, ok := m[b.Key]; ok {
					raw[b.Param.Name] = RawValue{Value: v, Present: true}
				}
			}
		}
	}

	return raw, nil
}

// fromStrings returns the first value for scalars and all values for lists.
func fromStrings(b Binding, vals []string) RawValue {
	if b.Param.Type.IsList() {
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		return RawValue{Value: list, Present: true}
	}
	return RawValue{Value: vals[0], Present: true}
}

// readJSON decodes the request body. Numbers are kept as json.Number so
// integers survive without float rounding.
func readJSON(r *http.Request) (any, bool, error) {
	if r.Body == nil {
		return nil, false, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false, bodyError(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err == nil && mt != "application/json" && !strings.HasSuffix(mt, "+json") {
			return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedBody, mt)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if dec.More() {
		return nil, false, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedBody)
	}
	return body, true, nil
}

func parseForm(r *http.Request, opts ExtractOptions) error {
	ct := r.Header.Get("Content-Type")
	mt, _, _ := mime.ParseMediaType(ct)

	var err error
	if mt == "multipart/form-data" {
		maxMemory := opts.MaxMemory
		if maxMemory <= 0 {
			maxMemory = 32 << 20
		}
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", ErrMalformedBody, err)
}

func readFile(fh *multipart.FileHeader, limit int64) (*File, error) {
	if limit > 0 && fh.Size > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, fh.Size, limit)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(content)),
		Content:     content,
	}, nil
}
