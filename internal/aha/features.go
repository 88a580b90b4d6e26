package aha

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
)

// FeatureSearch filters a feature listing. The scope is the first of
// ReleaseID, EpicID and ProductID that is set, otherwise the whole account.
type FeatureSearch struct {
	Query     string
	ProductID string
	ReleaseID string
	EpicID    string
	Status    string
	Assignee  string
	Tags      string
	Limit     int
}

// FeatureInput is the writable part of a feature. Zero fields are omitted.
type FeatureInput struct {
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description,omitempty"`
	WorkflowStatus string         `json:"workflow_status,omitempty"`
	AssignedToUser string         `json:"assigned_to_user,omitempty"`
	ReleaseID      string         `json:"release_id,omitempty"`
	EpicID         string         `json:"epic_id,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Score          *float64       `json:"score,omitempty"`
	CustomFields   map[string]any `json:"custom_fields,omitempty"`
}

// Empty reports whether no field is set.
func (in FeatureInput) Empty() bool {
	return in.Name == "" && in.Description == "" && in.WorkflowStatus == "" &&
		in.AssignedToUser == "" && in.ReleaseID == "" && in.EpicID == "" &&
		len(in.Tags) == 0 && in.Score == nil && len(in.CustomFields) == 0
}

type featureEnvelope struct {
	Feature FeatureInput `json:"feature"`
}

// SearchFeatures lists features matching s.
func (c *Client) SearchFeatures(ctx context.Context, s FeatureSearch) (Page[Feature], error) {
	path := "/features"
	for _, scope := range []struct{ prefix, id string }{
		{"/releases/", s.ReleaseID},
		{"/epics/", s.EpicID},
		{"/products/", s.ProductID},
	} {
		if id := strings.TrimSpace(scope.id); id != "" {
			path = scope.prefix + url.PathEscape(id) + "/features"
			break
		}
	}

	query := pipeline.Query{"per_page": perPage(s.Limit)}
	for key, value := range map[string]string{
		"q":        s.Query,
		"status":   s.Status,
		"assignee": s.Assignee,
		"tags":     s.Tags,
	} {
		if value = strings.TrimSpace(value); value != "" {
			query[key] = value
		}
	}

	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return Page[Feature]{}, err
	}
	page, err := decodePage[Feature](resp, "features")
	if err != nil {
		return Page[Feature]{}, err
	}
	return firstN(page, s.Limit), nil
}

// GetFeature fetches one feature by id or reference number.
func (c *Client) GetFeature(ctx context.Context, featureID string) (Feature, error) {
	id, err := requireID("feature_id", featureID)
	if err != nil {
		return Feature{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/features/"+id, nil, nil)
	if err != nil {
		return Feature{}, err
	}
	return decodeOne[Feature](resp, "feature")
}

// CreateFeature creates a feature. Name is required.
func (c *Client) CreateFeature(ctx context.Context, in FeatureInput) (Feature, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Feature{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	resp, err := c.do(ctx, http.MethodPost, "/features", nil, featureEnvelope{Feature: in})
	if err != nil {
		return Feature{}, err
	}
	return decodeOne[Feature](resp, "feature")
}

// UpdateFeature applies the non-zero fields of in.
func (c *Client) UpdateFeature(ctx context.Context, featureID string, in FeatureInput) (Feature, error) {
	id, err := requireID("feature_id", featureID)
	if err != nil {
		return Feature{}, err
	}
	if in.Empty() {
		return Feature{}, fmt.Errorf("%w: no update fields provided", ErrInvalidArgument)
	}
	resp, err := c.do(ctx, http.MethodPut, "/features/"+id, nil, featureEnvelope{Feature: in})
	if err != nil {
		return Feature{}, err
	}
	return decodeOne[Feature](resp, "feature")
}

// DeleteFeature deletes a feature.
func (c *Client) DeleteFeature(ctx context.Context, featureID string) error {
	id, err := requireID("feature_id", featureID)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, "/features/"+id, nil, nil)
	return err
}

// ListReleaseFeatures lists the features of a release.
func (c *Client) ListReleaseFeatures(ctx context.Context, releaseID string, includeCompleted bool, limit int) (Page[Feature], error) {
	id, err := requireID("release_id", releaseID)
	if err != nil {
		return Page[Feature]{}, err
	}
	query := pipeline.Query{"per_page": perPage(limit)}
	if !includeCompleted {
		query["exclude_completed"] = true
	}
	resp, err := c.do(ctx, http.MethodGet, "/releases/"+id+"/features", query, nil)
	if err != nil {
		return Page[Feature]{}, err
	}
	page, err := decodePage[Feature](resp, "features")
	if err != nil {
		return Page[Feature]{}, err
	}
	return firstN(page, limit), nil
}

// ListEpicFeatures lists the features of an epic.
func (c *Client) ListEpicFeatures(ctx context.Context, epicID string, limit int) (Page[Feature], error) {
	id, err := requireID("epic_id", epicID)
	if err != nil {
		return Page[Feature]{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, "/epics/"+id+"/features", pipeline.Query{"per_page": perPage(limit)}, nil)
	if err != nil {
		return Page[Feature]{}, err
	}
	page, err := decodePage[Feature](resp, "features")
	if err != nil {
		return Page[Feature]{}, err
	}
	return firstN(page, limit), nil
}

// UpdateFeatureStatus moves a feature to a workflow status by name.
func (c *Client) UpdateFeatureStatus(ctx context.Context, featureID, status string) (Feature, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return Feature{}, fmt.Errorf("%w: status is required", ErrInvalidArgument)
	}
	return c.UpdateFeature(ctx, featureID, FeatureInput{WorkflowStatus: status})
}

// UpdateFeatureScore sets the feature score.
func (c *Client) UpdateFeatureScore(ctx context.Context, featureID string, score float64) (Feature, error) {
	return c.UpdateFeature(ctx, featureID, FeatureInput{Score: &score})
}

// SetFeatureTags replaces the feature tags, or merges tags into the current
// set when replace is false. The merge keeps existing order and appends new
// tags without duplicates.
func (c *Client) SetFeatureTags(ctx context.Context, featureID string, tags []string, replace bool) (Feature, error) {
	tags = MergeTags(nil, tags)
	if len(tags) == 0 {
		return Feature{}, fmt.Errorf("%w: at least one tag is required", ErrInvalidArgument)
	}
	if !replace {
		current, err := c.GetFeature(ctx, featureID)
		if err != nil {
			return Feature{}, err
		}
		tags = MergeTags(current.Tags, tags)
	}
	return c.UpdateFeature(ctx, featureID, FeatureInput{Tags: tags})
}
