package app

import (
	"fmt"
	"net/http"

	"github.com/artpar/contractgate/core/binding"
	httpchannel "github.com/artpar/contractgate/core/channel/http"
	"github.com/artpar/contractgate/core/route"
	"github.com/artpar/contractgate/core/schema"
)

// Registrar is the part of a dispatch channel the API registers with.
type Registrar interface {
	Register(r route.Route) error
	HandleSignal(name string, h httpchannel.SignalHandler)
}

// Register mounts every route and the unicorn signal handler.
func Register(r Registrar, h *Handlers) error {
	for _, rt := range Routes(h) {
		if err := r.Register(rt); err != nil {
			return fmt.Errorf("register %s: %w", rt.OperationID(), err)
		}
	}
	r.HandleSignal(SignalUnicorn, UnicornSignal)
	return nil
}

// UnicornSignal answers the unicorn signal with a teapot.
func UnicornSignal(w http.ResponseWriter, r *http.Request, sig route.DomainSignal) {
	name, _ := sig.Data["name"].(string)
	httpchannel.WriteJSON(w, http.StatusTeapot, map[string]string{
		"message": fmt.Sprintf("Oops! %s did something. There goes a rainbow...", name),
	})
}

func gt(v any) schema.Constraint {
	return schema.Constraint{Type: schema.ConstraintGt, Value: v}
}

func min0() schema.Constraint {
	return schema.Constraint{Type: schema.ConstraintMin, Value: 0}
}

func minLen(n int) schema.Constraint {
	return schema.Constraint{Type: schema.ConstraintMinLength, Value: n}
}

func maxLen(n int) schema.Constraint {
	return schema.Constraint{Type: schema.ConstraintMaxLength, Value: n}
}

// Routes returns the route table.
func Routes(h *Handlers) []route.Route {
	itemID := binding.Param{Name: "item_id", Type: schema.FieldTypeInt, Description: "The ID of the item to get", Constraints: []schema.Constraint{min0()}}
	projectID := binding.Param{Name: "project_id", Type: schema.FieldTypeInt, Description: "Unique id of the project"}
	query := binding.Param{
		Name:        "q",
		Type:        schema.FieldTypeString,
		Title:       "Query string",
		Description: "Query string for the items to search in the database that have a good match",
		Constraints: []schema.Constraint{minLen(3), maxLen(50)},
	}

	return []route.Route{
		{
			Method:  http.MethodGet,
			Path:    "/",
			Name:    "root",
			Summary: "Say hello",
			Handler: h.Root,
		},

		// Projects
		{
			Method:       http.MethodGet,
			Path:         "/projects",
			Name:         "list_projects",
			Summary:      "Get projects",
			Description:  "Returns a list of all projects.",
			Tags:         []string{"projects"},
			Response:     "Project",
			ResponseList: true,
			Handler:      h.ListProjects,
		},
		{
			Method:      http.MethodGet,
			Path:        "/project/{project_id}",
			Name:        "get_project",
			Summary:     "Get project by id",
			Description: "Returns the project with its id, name, creation time, last worked time and total time.",
			Tags:        []string{"projects"},
			Params:      []binding.Param{projectID},
			Response:    "Project",
			Handler:     h.GetProject,
		},
		{
			Method:       http.MethodGet,
			Path:         "/children/{project_id}",
			Name:         "get_children",
			Summary:      "Get children",
			Description:  "Returns the sub-projects of a project.",
			Tags:         []string{"projects"},
			Params:       []binding.Param{projectID},
			Response:     "Project",
			ResponseList: true,
			Handler:      h.ListChildren,
		},
		{
			Method:  http.MethodPost,
			Path:    "/project",
			Name:    "create_project",
			Summary: "Create new project",
			Tags:    []string{"projects"},
			Params: []binding.Param{
				{Name: "project", Type: schema.FieldTypeObject, Ref: "Project", Required: true},
			},
			Response: "Project",
			Handler:  h.CreateProject,
		},
		{
			Method:  http.MethodPut,
			Path:    "/project/{project_id}",
			Name:    "update_project",
			Summary: "Update existing project",
			Tags:    []string{"projects"},
			Params: []binding.Param{
				projectID,
				{Name: "project", Type: schema.FieldTypeObject, Ref: "Project", Required: true},
			},
			Response: "Project",
			Handler:  h.UpdateProject,
		},

		// Items
		{
			Method:  http.MethodGet,
			Path:    "/items/",
			Name:    "list_items",
			Summary: "List items",
			Tags:    []string{"items"},
			Params: []binding.Param{
				{Name: "skip", Type: schema.FieldTypeInt, Default: 0, Constraints: []schema.Constraint{min0()}},
				{Name: "limit", Type: schema.FieldTypeInt, Default: 10, Constraints: []schema.Constraint{min0()}},
			},
			Handler: h.ListItems,
		},
		{
			Method:  http.MethodGet,
			Path:    "/items/{item_id}",
			Name:    "read_item",
			Summary: "Read an item",
			Tags:    []string{"items"},
			Params: []binding.Param{
				itemID,
				query,
				{Name: "short", Type: schema.FieldTypeBool, Default: false},
			},
			Handler: h.GetItem,
		},
		{
			Method:  http.MethodGet,
			Path:    "/items/index/{index}",
			Name:    "read_item_by_index",
			Summary: "Read an item by position",
			Tags:    []string{"items"},
			Params:  []binding.Param{{Name: "index", Type: schema.FieldTypeInt}},
			Handler: h.GetItemByIndex,
		},
		{
			Method:  http.MethodGet,
			Path:    "/models/{model_name}",
			Name:    "get_model",
			Summary: "Describe a model",
			Tags:    []string{"models"},
			Params: []binding.Param{
				{Name: "model_name", Type: schema.FieldTypeEnum, Values: []string{ModelAlexnet, ModelResnet, ModelLenet}},
			},
			Handler: h.GetModel,
		},
		{
			Method:      http.MethodPost,
			Path:        "/items/",
			Name:        "create_item",
			Summary:     "Create an item",
			Description: "Create an item with all the information. The response adds the price including tax when a tax is given.",
			Tags:        []string{"items"},
			Status:      http.StatusCreated,
			Params: []binding.Param{
				{Name: "item", Type: schema.FieldTypeObject, Ref: "Item", Required: true},
			},
			Handler: h.CreateItem,
		},
		{
			Method:  http.MethodPut,
			Path:    "/items/{item_id}",
			Name:    "update_item",
			Summary: "Update an item",
			Tags:    []string{"items"},
			Params: []binding.Param{
				itemID,
				query,
				{Name: "item", Type: schema.FieldTypeObject, Ref: "Item", Required: true},
			},
			Handler: h.UpdateItem,
		},
		{
			Method:  http.MethodPut,
			Path:    "/items/{item_id}/embedded",
			Name:    "update_item_embedded",
			Summary: "Update an item sent under its key",
			Tags:    []string{"items"},
			Params: []binding.Param{
				itemID,
				{Name: "item", Type: schema.FieldTypeObject, Ref: "Item", Required: true, Embed: true},
			},
			Handler: h.UpdateItemEmbedded,
		},
		{
			Method:  http.MethodPut,
			Path:    "/items/{item_id}/owner",
			Name:    "update_item_owner",
			Summary: "Update an item and its owner",
			Tags:    []string{"items"},
			Params: []binding.Param{
				itemID,
				{Name: "item", Type: schema.FieldTypeObject, Ref: "Item", Required: true, Embed: true},
				{Name: "user", Type: schema.FieldTypeObject, Ref: "User", Required: true, Embed: true},
				{Name: "importance", Type: schema.FieldTypeInt, In: binding.SourceBody, Required: true, Constraints: []schema.Constraint{gt(0)}},
			},
			Handler: h.UpdateItemOwner,
		},
		{
			Method:       http.MethodGet,
			Path:         "/items/{item_id}/summary",
			Name:         "read_item_summary",
			Summary:      "Read the fields of an item that were set",
			Tags:         []string{"items"},
			Params:       []binding.Param{{Name: "item_id", Type: schema.FieldTypeString}},
			Response:     "Item",
			ExcludeUnset: true,
			Handler:      h.GetCatalogItem,
		},
		{
			Method:      http.MethodGet,
			Path:        "/items/{item_id}/public",
			Name:        "read_item_public",
			Summary:     "Read the fields of an item that hold a value",
			Tags:        []string{"items"},
			Params:      []binding.Param{{Name: "item_id", Type: schema.FieldTypeString}},
			Response:    "Item",
			ExcludeNone: true,
			Handler:     h.GetCatalogItem,
		},
		{
			Method:  http.MethodPost,
			Path:    "/items/variants",
			Name:    "create_variant_item",
			Summary: "Create a car or a plane",
			Tags:    []string{"items"},
			Params: []binding.Param{
				{Name: "item", Variant: "AnyItem", Required: true},
			},
			ResponseVariant: "AnyItem",
			Handler:         h.CreateVariantItem,
		},
		{
			Method:  http.MethodPost,
			Path:    "/offers/",
			Name:    "create_offer",
			Summary: "Create an offer of items",
			Tags:    []string{"items"},
			Params: []binding.Param{
				{Name: "offer", Type: schema.FieldTypeObject, Ref: "Offer", Required: true},
			},
			Response: "Offer",
			Handler:  h.CreateOffer,
		},
		{
			Method:     http.MethodGet,
			Path:       "/elements/",
			Name:       "read_elements",
			Summary:    "List elements",
			Tags:       []string{"items"},
			Deprecated: true,
			Handler:    h.ListElements,
		},
		{
			Method:  http.MethodGet,
			Path:    "/teapot",
			Name:    "teapot",
			Summary: "Brew coffee",
			Status:  http.StatusTeapot,
			Handler: h.Teapot,
		},

		// Users
		{
			Method:  http.MethodPost,
			Path:    "/users/",
			Name:    "create_user",
			Summary: "Create a user",
			Tags:    []string{"users"},
			Params: []binding.Param{
				{Name: "user", Type: schema.FieldTypeObject, Ref: "UserIn", Required: true},
			},
			Response: "UserOut",
			Handler:  h.CreateUser,
		},

		// Request parts
		{
			Method:  http.MethodGet,
			Path:    "/headers/agent",
			Name:    "read_user_agent",
			Summary: "Read the User-Agent header",
			Tags:    []string{"requests"},
			Params: []binding.Param{
				{Name: "user_agent", Type: schema.FieldTypeString, In: binding.SourceHeader},
			},
			Handler: h.ReadUserAgent,
		},
		{
			Method:  http.MethodGet,
			Path:    "/cookies/ads",
			Name:    "read_ads_cookie",
			Summary: "Read the ads cookie",
			Tags:    []string{"requests"},
			Params: []binding.Param{
				{Name: "ads_id", Type: schema.FieldTypeString, In: binding.SourceCookie},
			},
			Handler: h.ReadAdsCookie,
		},
		{
			Method:  http.MethodPost,
			Path:    "/login/",
			Name:    "login",
			Summary: "Log in with a form",
			Tags:    []string{"requests"},
			Params: []binding.Param{
				{Name: "username", Type: schema.FieldTypeString, In: binding.SourceForm, Required: true},
				{Name: "password", Type: schema.FieldTypeString, In: binding.SourceForm, Required: true},
			},
			Handler: h.Login,
		},
		{
			Method:  http.MethodPost,
			Path:    "/files/",
			Name:    "create_file",
			Summary: "Measure an uploaded file",
			Tags:    []string{"files"},
			Params: []binding.Param{
				{Name: "file", In: binding.SourceFile, Required: true, Description: "A file read as bytes"},
			},
			Handler: h.FileSize,
		},
		{
			Method:  http.MethodPost,
			Path:    "/uploadfile/",
			Name:    "create_upload_file",
			Summary: "Describe an uploaded file",
			Tags:    []string{"files"},
			Params: []binding.Param{
				{Name: "file", In: binding.SourceFile, Required: true, Description: "A file read as UploadFile"},
			},
			Handler: h.UploadFile,
		},

		// Unicorns
		{
			Method:  http.MethodGet,
			Path:    "/unicorns/{name}",
			Name:    "read_unicorn",
			Summary: "Read a unicorn",
			Tags:    []string{"unicorns"},
			Params:  []binding.Param{{Name: "name", Type: schema.FieldTypeString}},
			Handler: h.ReadUnicorn,
		},
	}
}
