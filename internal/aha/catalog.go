package aha

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
)

// IdeaSearch selects ideas either by text or by relation to an idea or a
// feature. Query takes precedence.
type IdeaSearch struct {
	Query     string
	IdeaID    string
	FeatureID string
	Limit     int
}

// ListProducts lists the products of the account.
func (c *Client) ListProducts(ctx context.Context, limit int) (Page[Product], error) {
	resp, err := c.do(ctx, http.MethodGet, "/products", pipeline.Query{"per_page": perPage(limit)}, nil)
	if err != nil {
		return Page[Product]{}, err
	}
	page, err := decodePage[Product](resp, "products")
	if err != nil {
		return Page[Product]{}, err
	}
	return firstN(page, limit), nil
}

// SearchIdeas searches ideas by text or lists related ideas.
func (c *Client) SearchIdeas(ctx context.Context, s IdeaSearch) (Page[Idea], error) {
	query := pipeline.Query{"per_page": perPage(s.Limit)}
	path := "/ideas"
	if q := strings.TrimSpace(s.Query); q != "" {
		query["q"] = q
	} else {
		ideaID := strings.TrimSpace(s.IdeaID)
		featureID := strings.TrimSpace(s.FeatureID)
		if ideaID == "" && featureID == "" {
			return Page[Idea]{}, fmt.Errorf("%w: one of query, idea_id or feature_id is required", ErrInvalidArgument)
		}
		if ideaID != "" {
			query["idea_id"] = ideaID
		}
		if featureID != "" {
			query["feature_id"] = featureID
		}
		path = "/ideas/related"
	}

	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return Page[Idea]{}, err
	}
	page, err := decodePage[Idea](resp, "ideas")
	if err != nil {
		return Page[Idea]{}, err
	}
	return firstN(page, s.Limit), nil
}

// ListReleases lists the releases of a product, or of the default product.
func (c *Client) ListReleases(ctx context.Context, productID string, limit int) (Page[Release], error) {
	product, err := c.product(productID)
	if err != nil {
		return Page[Release]{}, err
	}
	id, err := requireID("product_id", product)
	if err != nil {
		return Page[Release]{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/products/"+id+"/releases", pipeline.Query{"per_page": perPage(limit)}, nil)
	if err != nil {
		return Page[Release]{}, err
	}
	page, err := decodePage[Release](resp, "releases")
	if err != nil {
		return Page[Release]{}, err
	}
	return firstN(page, limit), nil
}

// GetRelease fetches one release.
func (c *Client) GetRelease(ctx context.Context, releaseID string) (Release, error) {
	id, err := requireID("release_id", releaseID)
	if err != nil {
		return Release{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/releases/"+id, nil, nil)
	if err != nil {
		return Release{}, err
	}
	return decodeOne[Release](resp, "release")
}

// ListEpics lists the epics of a product, or of the default product.
func (c *Client) ListEpics(ctx context.Context, productID string, limit int) (Page[Epic], error) {
	product, err := c.product(productID)
	if err != nil {
		return Page[Epic]{}, err
	}
	id, err := requireID("product_id", product)
	if err != nil {
		return Page[Epic]{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/products/"+id+"/epics", pipeline.Query{"per_page": perPage(limit)}, nil)
	if err != nil {
		return Page[Epic]{}, err
	}
	page, err := decodePage[Epic](resp, "epics")
	if err != nil {
		return Page[Epic]{}, err
	}
	return firstN(page, limit), nil
}

// GetEpic fetches one epic.
func (c *Client) GetEpic(ctx context.Context, epicID string) (Epic, error) {
	id, err := requireID("epic_id", epicID)
	if err != nil {
		return Epic{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/epics/"+id, nil, nil)
	if err != nil {
		return Epic{}, err
	}
	return decodeOne[Epic](resp, "epic")
}

// ListUsers lists account users.
func (c *Client) ListUsers(ctx context.Context, limit int) (Page[User], error) {
	resp, err := c.do(ctx, http.MethodGet, "/users", pipeline.Query{"per_page": perPage(limit)}, nil)
	if err != nil {
		return Page[User]{}, err
	}
	page, err := decodePage[User](resp, "users")
	if err != nil {
		return Page[User]{}, err
	}
	return firstN(page, limit), nil
}

// CurrentUser returns the user the API key belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/me", nil, nil)
	if err != nil {
		return User{}, err
	}
	return decodeOne[User](resp, "user")
}
