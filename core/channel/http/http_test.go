package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"github.com/artpar/contractgate/adapters/clock"
	"github.com/artpar/contractgate/adapters/idgen"
	"github.com/artpar/contractgate/adapters/metrics"
	"github.com/artpar/contractgate/core/binding"
	"github.com/artpar/contractgate/core/convention"
	"github.com/artpar/contractgate/core/openapi"
	"github.com/artpar/contractgate/core/route"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/validation"
)

const testCatalog = `
resources:
  Item:
    fields:
      name:  { type: string, required: true }
      price: { type: float, required: true, constraints: [{ type: gt, value: 0 }] }
      tax:   { type: float }
    examples:
      normal: { name: Foo, price: 35.4 }

  User:
    fields:
      username: { type: string, required: true }
      password: { type: string }

  UserOut:
    fields:
      username: { type: string, required: true }
`

type errorDoc struct {
	Errors []struct {
		Status string         `json:"status"`
		Code   string         `json:"code"`
		Title  string         `json:"title"`
		Detail string         `json:"detail"`
		Meta   map[string]any `json:"meta"`
		Source *struct {
			Pointer   string `json:"pointer"`
			Parameter string `json:"parameter"`
			Header    string `json:"header"`
		} `json:"source"`
	} `json:"errors"`
}

type testEnv struct {
	channel  *Channel
	handler  http.Handler
	metrics  *metrics.Collector
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat, err := schema.Parse([]byte(testCatalog))
	require.NoError(t, err)
	reg, err := convention.DeriveCatalog(cat)
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(promReg)

	c := New(Config{
		Validator: validation.New(reg, clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
		Logger:    zerolog.Nop(),
		IDs:       idgen.NewSequential("req-"),
		Metrics:   m,
		Extract:   binding.ExtractOptions{MaxBodyBytes: 1024, MaxFileBytes: 16},
		Docs:      &DocsConfig{Info: openapi.Info{Title: "test", Version: "1.0.0"}, SwagName: t.Name()},
	})

	items := map[int64]map[string]any{
		1: {"name": "Foo", "price": 35.4},
	}

	routes := []route.Route{
		{
			Method:   http.MethodGet,
			Path:     "/items/{item_id}",
			Response: "Item",
			Params: []binding.Param{
				{Name: "item_id", Type: schema.FieldTypeInt},
				{Name: "q", Type: schema.FieldTypeString},
			},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				item, ok := items[args.Int("item_id")]
				if !ok {
					return route.NotFound("Item", args.Int("item_id"))
				}
				return route.OK(item)
			},
		},
		{
			Method:   http.MethodPost,
			Path:     "/items/",
			Status:   http.StatusCreated,
			Response: "Item",
			Params:   []binding.Param{{Name: "item", Type: schema.FieldTypeObject, Ref: "Item", Required: true}},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.OK(args.Object("item"))
			},
		},
		{
			Method:   http.MethodPost,
			Path:     "/users/",
			Response: "UserOut",
			Params:   []binding.Param{{Name: "user", Type: schema.FieldTypeObject, Ref: "User", Required: true}},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.OK(args.Object("user"))
			},
		},
		{
			Method: http.MethodGet,
			Path:   "/agent/",
			Params: []binding.Param{{Name: "user_agent", Type: schema.FieldTypeString, In: binding.SourceHeader, Required: true}},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.OK(map[string]any{"User-Agent": args.String("user_agent")})
			},
		},
		{
			Method: http.MethodGet,
			Path:   "/unicorns/{name}",
			Params: []binding.Param{{Name: "name", Type: schema.FieldTypeString}},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.Signal(route.DomainSignal{Name: "unicorn", Data: map[string]any{"name": args.String("name")}})
			},
		},
		{
			Method: http.MethodGet,
			Path:   "/ghosts/",
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.Signal(route.DomainSignal{Name: "ghost", Reason: "boo"})
			},
		},
		{
			Method: http.MethodGet,
			Path:   "/broken/",
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.Fail(errors.New("database password is hunter2"))
			},
		},
		{
			Method:   http.MethodGet,
			Path:     "/misshapen/",
			Response: "Item",
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.OK(map[string]any{"name": "Foo"})
			},
		},
		{
			Method: http.MethodGet,
			Path:   "/panic/",
			Handler: func(ctx context.Context, args route.Args) route.Result {
				panic("boom")
			},
		},
		{
			Method: http.MethodDelete,
			Path:   "/items/{item_id}",
			Status: http.StatusNoContent,
			Params: []binding.Param{{Name: "item_id", Type: schema.FieldTypeInt}},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.OK(nil)
			},
		},
		{
			Method: http.MethodPost,
			Path:   "/files/",
			Params: []binding.Param{
				{Name: "file", In: binding.SourceFile, Type: schema.FieldTypeString, Required: true},
				{Name: "token", In: binding.SourceForm, Type: schema.FieldTypeString, Required: true},
			},
			Handler: func(ctx context.Context, args route.Args) route.Result {
				return route.OK(map[string]any{
					"filename": args.File("file").Filename,
					"size":     args.File("file").Size,
					"token":    args.String("token"),
				})
			},
		},
	}
	for _, rt := range routes {
		require.NoError(t, c.Register(rt), "%s %s", rt.Method, rt.Path)
	}

	c.HandleSignal("unicorn", func(w http.ResponseWriter, r *http.Request, sig route.DomainSignal) {
		WriteJSON(w, http.StatusTeapot, map[string]any{"message": "Oops! " + sig.Data["name"].(string) + " did something."})
	})

	return &testEnv{channel: c, handler: c.Handler(), metrics: m, registry: promReg}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) errorDoc {
	t.Helper()
	assert.Equal(t, "application/vnd.api+json", rec.Header().Get("Content-Type"))
	var doc errorDoc
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	require.NotEmpty(t, doc.Errors)
	return doc
}

func TestDispatch_Value(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/items/1?q=foo", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"Foo","price":35.4,"tax":null}`, rec.Body.String())
}

func TestDispatch_PathTypeMismatch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/items/foo", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := decodeErrors(t, rec)
	e := doc.Errors[0]
	assert.Equal(t, "type_mismatch", e.Code)
	assert.Equal(t, "422", e.Status)
	require.NotNil(t, e.Source)
	assert.Equal(t, "item_id", e.Source.Parameter)
	assert.Equal(t, "path", e.Meta["in"])
	assert.Equal(t, "foo", e.Meta["value"])
}

func TestDispatch_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	doc := decodeErrors(t, rec)
	assert.Equal(t, "not_found", doc.Errors[0].Code)
	assert.Contains(t, doc.Errors[0].Detail, "42")
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.NotFound.WithLabelValues("Item")))
}

func TestDispatch_Body(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/items/", strings.NewReader(`{"name":"Foo","price":"3.5","extra":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"name":"Foo","price":3.5,"tax":null}`, rec.Body.String())
}

func TestDispatch_BodyValidation(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/items/", strings.NewReader(`{"price":-1}`))
	rec := env.do(req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := decodeErrors(t, rec)
	require.Len(t, doc.Errors, 2)

	byCode := map[string]string{}
	for _, e := range doc.Errors {
		require.NotNil(t, e.Source)
		byCode[e.Code] = e.Source.Pointer
	}
	assert.Equal(t, "/name", byCode["missing_field"])
	assert.Equal(t, "/price", byCode["constraint_violation"])

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ValidationFailures.WithLabelValues("POST /items/", "missing_field")))
}

func TestDispatch_MissingBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/items/", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := decodeErrors(t, rec)
	assert.Equal(t, "missing_field", doc.Errors[0].Code)
}

func TestValidationErrors(t *testing.T) {
	result := schema.ValidationResult{Errors: []schema.ConstraintError{
		{Field: "price", Kind: schema.KindTypeMismatch, In: "body", Value: "abc", Message: "must be a number"},
		{Field: "user-agent", Kind: schema.KindMissingField, In: "header", Message: "field is required"},
		{Field: "q", Kind: schema.KindConstraintViolation, Constraint: "max_length", In: "query", Message: "too long"},
		{Field: "x", Kind: "custom", Message: "odd"},
	}}

	errs := validationErrors(result)
	require.Len(t, errs, 4)

	assert.Equal(t, "Type Mismatch", errs[0].Title)
	assert.Equal(t, "422", errs[0].Status)
	assert.Equal(t, "must be a number", errs[0].Detail)
	assert.Equal(t, "/price", errs[0].Source.Pointer)
	assert.Equal(t, "abc", errs[0].Meta["value"])

	assert.Equal(t, "Missing Field", errs[1].Title)
	assert.Equal(t, "user-agent", errs[1].Source.Header)

	assert.Equal(t, "Constraint Violation", errs[2].Title)
	assert.Equal(t, "max_length", errs[2].Meta["constraint"])
	assert.Equal(t, "q", errs[2].Source.Parameter)

	assert.Equal(t, "Validation Failed", errs[3].Title)
	assert.Equal(t, "custom", errs[3].Code)
}

func TestDispatch_ExtractErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
		code        string
	}{
		{"malformed", `{"name":`, "application/json", http.StatusBadRequest, "malformed_body"},
		{"trailing data", `{} {}`, "application/json", http.StatusBadRequest, "malformed_body"},
		{"unsupported", `name=Foo`, "text/plain", http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"too large", `{"name":"` + strings.Repeat("x", 2048) + `"}`, "application/json", http.StatusRequestEntityTooLarge, "payload_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/items/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := env.do(req)

			assert.Equal(t, tt.status, rec.Code)
			doc := decodeErrors(t, rec)
			assert.Equal(t, tt.code, doc.Errors[0].Code)
		})
	}
}

func TestDispatch_ResponseFiltering(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(`{"username":"john","password":"secret"}`))
	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"john"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestDispatch_Header(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/agent/", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	rec := env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"User-Agent":"curl/8.0"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/agent/", nil)
	req.Header.Del("User-Agent")
	rec = env.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := decodeErrors(t, rec)
	require.NotNil(t, doc.Errors[0].Source)
	assert.Equal(t, "user-agent", doc.Errors[0].Source.Header)
}

func TestDispatch_Signals(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/unicorns/yolo", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"message":"Oops! yolo did something."}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/ghosts/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	doc := decodeErrors(t, rec)
	assert.Equal(t, "domain_signal", doc.Errors[0].Code)
	assert.Equal(t, "boo", doc.Errors[0].Detail)
	assert.Equal(t, "ghost", doc.Errors[0].Meta["signal"])

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.DomainSignals.WithLabelValues("unicorn", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.DomainSignals.WithLabelValues("ghost", "false")))
}

func TestDispatch_FailureHidesCause(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/broken/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	doc := decodeErrors(t, rec)
	assert.Equal(t, "internal_error", doc.Errors[0].Code)
}

func TestDispatch_InvalidResponse(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/misshapen/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"name":"Foo"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ResponseErrors.WithLabelValues("GET /misshapen/")))
}

func TestDispatch_Panic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/panic/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	decodeErrors(t, rec)
}

func TestDispatch_NoContent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/items/1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func multipartBody(t *testing.T, filename string, content []byte, token string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("token", token))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDispatch_Upload(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, "a.txt", []byte("hello"), "abc")
	req := httptest.NewRequest(http.MethodPost, "/files/", body)
	req.Header.Set("Content-Type", ct)
	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"filename":"a.txt","size":5,"token":"abc"}`, rec.Body.String())

	body, ct = multipartBody(t, "big.txt", bytes.Repeat([]byte("x"), 64), "abc")
	req = httptest.NewRequest(http.MethodPost, "/files/", body)
	req.Header.Set("Content-Type", ct)
	rec = env.do(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t)
	noop := func(ctx context.Context, args route.Args) route.Result { return route.OK(nil) }

	tests := []struct {
		name string
		rt   route.Route
		want error
	}{
		{"duplicate", route.Route{Method: "get", Path: "/items/{id}", Params: []binding.Param{{Name: "id", Type: schema.FieldTypeInt}}, Handler: noop}, ErrDuplicateRoute},
		{"method", route.Route{Method: "TRACE", Path: "/x", Handler: noop}, ErrInvalidRoute},
		{"path", route.Route{Method: "GET", Path: "x", Handler: noop}, ErrInvalidRoute},
		{"handler", route.Route{Method: "GET", Path: "/x"}, ErrInvalidRoute},
		{"response", route.Route{Method: "GET", Path: "/x", Response: "Nope", Handler: noop}, convention.ErrUnknownResource},
		{"placeholder", route.Route{Method: "GET", Path: "/x/{id}", Handler: noop}, binding.ErrUnboundPlaceholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.channel.Register(tt.rt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuiltins(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	decodeErrors(t, rec)

	rec = env.do(httptest.NewRequest(http.MethodPatch, "/items/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	decodeErrors(t, rec)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	inbound := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", inbound)
	rec = env.do(req)
	assert.Equal(t, inbound, rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "<script>")
	rec = env.do(req)
	assert.Equal(t, "req-2", rec.Header().Get("X-Request-Id"))
}

func TestMetricsMiddleware_RoutePattern(t *testing.T) {
	env := newTestEnv(t)

	env.do(httptest.NewRequest(http.MethodGet, "/items/1", nil))
	env.do(httptest.NewRequest(http.MethodGet, "/items/2", nil))

	got := testutil.ToFloat64(env.metrics.RequestsTotal.WithLabelValues("GET", "/items/{item_id}", "2xx"))
	assert.Equal(t, 1.0, got)
	got = testutil.ToFloat64(env.metrics.RequestsTotal.WithLabelValues("GET", "/items/{item_id}", "4xx"))
	assert.Equal(t, 1.0, got)
}

func TestSchemaEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/_schema/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Meta struct {
			Count     int `json:"count"`
			Resources []struct {
				Name     string `json:"name"`
				Examples int    `json:"examples"`
			} `json:"resources"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Meta.Count)
	assert.Equal(t, "Item", list.Meta.Resources[0].Name)
	assert.Equal(t, 1, list.Meta.Resources[0].Examples)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/_schema/Item", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var item struct {
		Meta struct {
			Resource string `json:"resource"`
			Fields   []struct {
				Name        string `json:"name"`
				Constraints []struct {
					Type    string `json:"type"`
					Message string `json:"message"`
				} `json:"constraints"`
			} `json:"fields"`
			Schema map[string]any `json:"schema"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "Item", item.Meta.Resource)
	require.Len(t, item.Meta.Fields, 3)
	assert.Equal(t, "Value must be greater than 0", item.Meta.Fields[1].Constraints[0].Message)
	assert.Equal(t, openapi.JSONSchemaDialect, item.Meta.Schema["$schema"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/_schema/Nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenAPIEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Host = "api.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Servers []struct{ URL string }    `json:"servers"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, openapi.Version, doc.OpenAPI)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://api.example.com", doc.Servers[0].URL)
	assert.Contains(t, doc.Paths, "/items/{item_id}")
	assert.Contains(t, doc.Paths["/items/{item_id}"], "delete")

	// Routes registered later show up after invalidation.
	require.NoError(t, env.channel.Register(route.Route{
		Method:  http.MethodGet,
		Path:    "/late/",
		Handler: func(ctx context.Context, args route.Args) route.Result { return route.OK(nil) },
	}))
	rec = env.do(httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/late/")

	published, err := swag.ReadDoc(t.Name())
	require.NoError(t, err)
	assert.Contains(t, published, "/late/")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.1.0")

	rec = env.do(httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/docs/index.html", rec.Header().Get("Location"))
}
