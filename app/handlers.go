package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/artpar/contractgate/core/route"
	"github.com/artpar/contractgate/core/schema"
	"github.com/artpar/contractgate/core/validation"
	"github.com/artpar/contractgate/ports"
)

// SignalUnicorn is raised for the one unicorn name the API refuses.
const SignalUnicorn = "unicorn"

// Model names accepted by the models route.
const (
	ModelAlexnet = "alexnet"
	ModelResnet  = "resnet"
	ModelLenet   = "lenet"
)

// Handlers implements the API routes over the seed data.
type Handlers struct {
	seed      *Seed
	validator *validation.Validator
	hasher    ports.Hasher
	clock     ports.Clock
	logger    zerolog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(seed *Seed, v *validation.Validator, hasher ports.Hasher, clock ports.Clock, logger zerolog.Logger) *Handlers {
	return &Handlers{
		seed:      seed,
		validator: v,
		hasher:    hasher,
		clock:     clock,
		logger:    logger.With().Str("service", "app").Logger(),
	}
}

// Root returns the greeting.
func (h *Handlers) Root(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{"message": "Hello World"})
}

// -----------------------------------------------------------------------------
// Projects
// -----------------------------------------------------------------------------

// ListProjects returns all projects.
func (h *Handlers) ListProjects(ctx context.Context, args route.Args) route.Result {
	return route.OK(h.seed.ProjectList())
}

// GetProject returns the project with the given id.
func (h *Handlers) GetProject(ctx context.Context, args route.Args) route.Result {
	return route.OK(h.seed.Project(args.Int("project_id")))
}

// ListChildren returns the sub-projects of a project.
func (h *Handlers) ListChildren(ctx context.Context, args route.Args) route.Result {
	return route.OK(h.seed.ProjectList())
}

// Parent returns the parent of a project. Projects have no hierarchy, so
// there never is one.
func (h *Handlers) Parent(ctx context.Context, projectID int64) (*schema.Instance, bool) {
	return nil, false
}

// CreateProject stores nothing; it stamps the new project and returns it.
func (h *Handlers) CreateProject(ctx context.Context, args route.Args) route.Result {
	p := args.Object("project").Clone()
	err := errors.Join(
		p.Set("id", int64(111)),
		p.Set("created", h.clock.Now()),
		p.Set("last_worked", nil),
		p.Set("total_time", int64(0)),
	)
	if err != nil {
		return route.Fail(err)
	}
	return route.OK(p)
}

// UpdateProject returns the project under the id from the path.
func (h *Handlers) UpdateProject(ctx context.Context, args route.Args) route.Result {
	p := args.Object("project").Clone()
	if err := p.Set("id", args.Int("project_id")); err != nil {
		return route.Fail(err)
	}
	return route.OK(p)
}

// -----------------------------------------------------------------------------
// Items
// -----------------------------------------------------------------------------

// ListItems returns a window of the item list.
func (h *Handlers) ListItems(ctx context.Context, args route.Args) route.Result {
	items := h.seed.Items
	n := int64(len(items))
	skip := min(args.Int("skip"), n)
	end := skip + min(args.Int("limit"), n-skip)

	out := make([]map[string]any, 0, end-skip)
	for _, item := range items[skip:end] {
		out = append(out, map[string]any{"item_name": item["item_name"]})
	}
	return route.OK(out)
}

// GetItem echoes the item id with the optional query.
func (h *Handlers) GetItem(ctx context.Context, args route.Args) route.Result {
	item := map[string]any{"item_id": args.Int("item_id")}
	if args.IsSet("q") {
		item["q"] = args.String("q")
	}
	if !args.Bool("short") {
		item["description"] = "This is an amazing item that has a long description"
	}
	return route.OK(item)
}

// GetItemByIndex returns an item by its position in the item list.
func (h *Handlers) GetItemByIndex(ctx context.Context, args route.Args) route.Result {
	i := args.Int("index")
	if i < 0 || i >= int64(len(h.seed.Items)) {
		return route.NotFound("Item", i)
	}
	return route.OK(map[string]any{"item_name": h.seed.Items[i]["item_name"]})
}

// GetModel describes a model by name.
func (h *Handlers) GetModel(ctx context.Context, args route.Args) route.Result {
	name := args.String("model_name")
	var message string
	switch name {
	case ModelAlexnet:
		message = "Deep Learning FTW!"
	case ModelLenet:
		message = "LeCNN all the images"
	default:
		message = "Have some residuals"
	}
	return route.OK(map[string]any{"model_name": name, "message": message})
}

// CreateItem returns the item with its price including tax.
func (h *Handlers) CreateItem(ctx context.Context, args route.Args) route.Result {
	item := args.Object("item")
	out := item.Map()
	if !item.IsNull("tax") {
		out["price_with_tax"] = item.Float("price") + item.Float("tax")
	}
	return route.OK(out)
}

// UpdateItem merges the item id into the item.
func (h *Handlers) UpdateItem(ctx context.Context, args route.Args) route.Result {
	out := map[string]any{"item_id": args.Int("item_id")}
	for k, v := range args.Object("item").Map() {
		out[k] = v
	}
	if args.IsSet("q") {
		out["q"] = args.String("q")
	}
	return route.OK(out)
}

// UpdateItemEmbedded returns the item under its key.
func (h *Handlers) UpdateItemEmbedded(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{
		"item_id": args.Int("item_id"),
		"item":    args.Object("item"),
	})
}

// UpdateItemOwner returns the item, its owner and the importance.
func (h *Handlers) UpdateItemOwner(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{
		"item_id":    args.Int("item_id"),
		"item":       args.Object("item"),
		"user":       args.Object("user"),
		"importance": args.Int("importance"),
	})
}

// GetCatalogItem returns a catalog item as stored.
func (h *Handlers) GetCatalogItem(ctx context.Context, args route.Args) route.Result {
	key := args.String("item_id")
	item, ok := h.seed.Catalog[key]
	if !ok {
		return route.NotFound("Item", key)
	}
	return route.OK(item.Clone())
}

// CreateVariantItem returns the car or plane it was given.
func (h *Handlers) CreateVariantItem(ctx context.Context, args route.Args) route.Result {
	return route.OK(args.Object("item"))
}

// CreateOffer returns the offer it was given.
func (h *Handlers) CreateOffer(ctx context.Context, args route.Args) route.Result {
	return route.OK(args.Object("offer"))
}

// ListElements returns the element list.
func (h *Handlers) ListElements(ctx context.Context, args route.Args) route.Result {
	return route.OK([]map[string]any{{"item_id": "Foo"}})
}

// Teapot refuses to brew coffee.
func (h *Handlers) Teapot(ctx context.Context, args route.Args) route.Result {
	return route.WithStatus(http.StatusTeapot, map[string]any{"message": "I'm a teapot"})
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

// CreateUser hashes the password and returns the stored form; the route's
// response resource drops the hash.
func (h *Handlers) CreateUser(ctx context.Context, args route.Args) route.Result {
	in := args.Object("user")

	hash, err := h.hasher.Hash(in.String("password"))
	if err != nil {
		return route.Fail(fmt.Errorf("hash password: %w", err))
	}

	raw := map[string]any{
		"username":        in.String("username"),
		"hashed_password": string(hash),
		"email":           in.String("email"),
		"full_name":       in.Get("full_name"),
	}
	stored, result := h.validator.Validate("UserInDB", raw)
	if !result.Valid {
		return route.Fail(fmt.Errorf("build stored user: %w", result))
	}

	h.logger.Debug().Str("username", in.String("username")).Msg("user saved! ..not really")
	return route.OK(stored)
}

// -----------------------------------------------------------------------------
// Request parts
// -----------------------------------------------------------------------------

// ReadUserAgent echoes the User-Agent header.
func (h *Handlers) ReadUserAgent(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{"User-Agent": args.Get("user_agent")})
}

// ReadAdsCookie echoes the ads_id cookie.
func (h *Handlers) ReadAdsCookie(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{"ads_id": args.Get("ads_id")})
}

// Login echoes the username of a form login.
func (h *Handlers) Login(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{"username": args.String("username")})
}

// FileSize returns the size of an uploaded file.
func (h *Handlers) FileSize(ctx context.Context, args route.Args) route.Result {
	return route.OK(map[string]any{"file_size": args.File("file").Size})
}

// UploadFile describes an uploaded file.
func (h *Handlers) UploadFile(ctx context.Context, args route.Args) route.Result {
	f := args.File("file")
	return route.OK(map[string]any{
		"filename":     f.Filename,
		"content_type": f.ContentType,
		"size":         f.Size,
	})
}

// -----------------------------------------------------------------------------
// Unicorns
// -----------------------------------------------------------------------------

// ReadUnicorn returns the unicorn, unless it is yolo.
func (h *Handlers) ReadUnicorn(ctx context.Context, args route.Args) route.Result {
	name := args.String("name")
	if name == "yolo" {
		return route.Signal(route.DomainSignal{
			Name:   SignalUnicorn,
			Reason: "yolo is not a unicorn",
			Data:   map[string]any{"name": name},
		})
	}
	return route.OK(map[string]any{"unicorn_name": name})
}
