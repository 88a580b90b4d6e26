package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/codex-k8s/aha-mcp-server/internal/aha"
	"github.com/codex-k8s/aha-mcp-server/internal/format"
)

// Default result limits.
const (
	searchLimit  = 20
	listingLimit = 50
)

const kindInvalidArgument = "invalid_argument"

// argumentError is a client-side rejection rendered from a fixed message key.
type argumentError struct {
	key    string
	detail string
}

func (e *argumentError) Error() string {
	return e.detail
}

var (
	errConfirmRequired  = &argumentError{key: "tool.confirm_delete", detail: "deletion requires confirm=true"}
	errNoUpdateFields   = &argumentError{key: "tool.no_update_fields", detail: "no update fields provided"}
	errCustomFieldsJSON = &argumentError{key: "tool.custom_fields_json", detail: "custom_fields must be a JSON object"}
)

type handlers struct {
	client *aha.Client
}

func (h handlers) searchFeatures(ctx context.Context, in searchFeaturesInput) (string, error) {
	limit := orDefault(in.Limit, searchLimit)
	page, err := h.client.SearchFeatures(ctx, aha.FeatureSearch{
		Query:     in.Query,
		ProductID: in.ProductID,
		ReleaseID: in.ReleaseID,
		EpicID:    in.EpicID,
		Status:    in.Status,
		Assignee:  in.Assignee,
		Tags:      in.Tags,
		Limit:     limit,
	})
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No features found matching the search criteria.", nil
	}
	return format.Features(page, limit, ""), nil
}

func (h handlers) getFeature(ctx context.Context, in featureIDInput) (string, error) {
	feature, err := h.client.GetFeature(ctx, in.FeatureID)
	if err != nil {
		return "", err
	}
	return format.FeatureDetail(feature), nil
}

func (h handlers) createFeature(ctx context.Context, in createFeatureInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", aha.ErrInvalidArgument)
	}
	fields, err := parseCustomFields(in.CustomFields)
	if err != nil {
		return "", err
	}
	feature, err := h.client.CreateFeature(ctx, aha.FeatureInput{
		Name:           name,
		Description:    in.Description,
		ReleaseID:      strings.TrimSpace(in.ReleaseID),
		EpicID:         strings.TrimSpace(in.EpicID),
		AssignedToUser: strings.TrimSpace(in.Assignee),
		Tags:           aha.SplitTags(in.Tags),
		CustomFields:   fields,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully created feature: %s - %s\n\n%s",
		fallback(feature.ReferenceNum, "N/A"), fallback(feature.Name, name), format.FeatureDetail(feature)), nil
}

func (h handlers) updateFeature(ctx context.Context, in updateFeatureInput) (string, error) {
	fields, err := parseCustomFields(in.CustomFields)
	if err != nil {
		return "", err
	}
	update := aha.FeatureInput{
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		WorkflowStatus: strings.TrimSpace(in.Status),
		AssignedToUser: strings.TrimSpace(in.Assignee),
		ReleaseID:      strings.TrimSpace(in.ReleaseID),
		EpicID:         strings.TrimSpace(in.EpicID),
		CustomFields:   fields,
	}
	if update.Empty() {
		return "", errNoUpdateFields
	}
	feature, err := h.client.UpdateFeature(ctx, in.FeatureID, update)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully updated feature: %s - %s\n\n%s",
		fallback(feature.ReferenceNum, in.FeatureID), fallback(feature.Name, "Feature"), format.FeatureDetail(feature)), nil
}

func (h handlers) deleteFeature(ctx context.Context, in deleteFeatureInput) (string, error) {
	if !in.Confirm {
		return "", errConfirmRequired
	}
	if err := h.client.DeleteFeature(ctx, in.FeatureID); err != nil {
		return "", err
	}
	return "Successfully deleted feature: " + strings.TrimSpace(in.FeatureID), nil
}

func (h handlers) listFeaturesByRelease(ctx context.Context, in releaseFeaturesInput) (string, error) {
	limit := orDefault(in.Limit, listingLimit)
	includeCompleted := in.IncludeCompleted == nil || *in.IncludeCompleted
	page, err := h.client.ListReleaseFeatures(ctx, in.ReleaseID, includeCompleted, limit)
	if err != nil {
		return "", err
	}
	releaseID := strings.TrimSpace(in.ReleaseID)
	if len(page.Items) == 0 {
		return "No features found in release: " + releaseID, nil
	}
	return format.Features(page, limit, " in release "+releaseID), nil
}

func (h handlers) listFeaturesByEpic(ctx context.Context, in epicFeaturesInput) (string, error) {
	limit := orDefault(in.Limit, listingLimit)
	page, err := h.client.ListEpicFeatures(ctx, in.EpicID, limit)
	if err != nil {
		return "", err
	}
	epicID := strings.TrimSpace(in.EpicID)
	if len(page.Items) == 0 {
		return "No features found in epic: " + epicID, nil
	}
	return format.Features(page, limit, " in epic "+epicID), nil
}

func (h handlers) updateFeatureStatus(ctx context.Context, in featureStatusInput) (string, error) {
	feature, err := h.client.UpdateFeatureStatus(ctx, in.FeatureID, in.Status)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully updated status for %s - %s to: %s",
		fallback(feature.ReferenceNum, in.FeatureID),
		fallback(feature.Name, "Feature"),
		fallback(feature.WorkflowStatus.Name, strings.TrimSpace(in.Status))), nil
}

func (h handlers) addFeatureTags(ctx context.Context, in featureTagsInput) (string, error) {
	feature, err := h.client.SetFeatureTags(ctx, in.FeatureID, aha.SplitTags(in.Tags), in.Replace)
	if err != nil {
		return "", err
	}
	verb := "added"
	if in.Replace {
		verb = "replaced"
	}
	return fmt.Sprintf("Successfully %s tags for %s - %s\nCurrent tags: %s",
		verb,
		fallback(feature.ReferenceNum, in.FeatureID),
		fallback(feature.Name, "Feature"),
		strings.Join(feature.Tags, ", ")), nil
}

func (h handlers) updateFeatureScore(ctx context.Context, in featureScoreInput) (string, error) {
	feature, err := h.client.UpdateFeatureScore(ctx, in.FeatureID, in.Score)
	if err != nil {
		return "", err
	}
	score := in.Score
	if feature.Score.Set {
		score = feature.Score.Value
	}
	return fmt.Sprintf("Successfully updated score for %s - %s to: %s",
		fallback(feature.ReferenceNum, in.FeatureID),
		fallback(feature.Name, "Feature"),
		humanize.Ftoa(score)), nil
}

func (h handlers) listProducts(ctx context.Context, in limitInput) (string, error) {
	limit := orDefault(in.Limit, listingLimit)
	page, err := h.client.ListProducts(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No products found in the workspace.", nil
	}
	return format.Products(page, limit), nil
}

func (h handlers) getRelatedIdeas(ctx context.Context, in relatedIdeasInput) (string, error) {
	limit := orDefault(in.Limit, searchLimit)
	page, err := h.client.SearchIdeas(ctx, aha.IdeaSearch{
		Query:     in.Query,
		IdeaID:    in.IdeaID,
		FeatureID: in.FeatureID,
		Limit:     limit,
	})
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No related ideas found.", nil
	}
	return format.Ideas(page, limit), nil
}

func (h handlers) listReleases(ctx context.Context, in productScopedInput) (string, error) {
	limit := orDefault(in.Limit, listingLimit)
	page, err := h.client.ListReleases(ctx, in.ProductID, limit)
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No releases found.", nil
	}
	return format.Releases(page, limit), nil
}

func (h handlers) getRelease(ctx context.Context, in releaseIDInput) (string, error) {
	release, err := h.client.GetRelease(ctx, in.ReleaseID)
	if err != nil {
		return "", err
	}
	return format.ReleaseDetail(release), nil
}

func (h handlers) listEpics(ctx context.Context, in productScopedInput) (string, error) {
	limit := orDefault(in.Limit, listingLimit)
	page, err := h.client.ListEpics(ctx, in.ProductID, limit)
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No epics found.", nil
	}
	return format.Epics(page, limit), nil
}

func (h handlers) getEpic(ctx context.Context, in epicIDInput) (string, error) {
	epic, err := h.client.GetEpic(ctx, in.EpicID)
	if err != nil {
		return "", err
	}
	return format.EpicDetail(epic), nil
}

func (h handlers) listUsers(ctx context.Context, in limitInput) (string, error) {
	limit := orDefault(in.Limit, listingLimit)
	page, err := h.client.ListUsers(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(page.Items) == 0 {
		return "No users found.", nil
	}
	return format.Users(page, limit), nil
}

func (h handlers) getCurrentUser(ctx context.Context, _ emptyInput) (string, error) {
	user, err := h.client.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return format.UserDetail(user), nil
}

// parseCustomFields decodes the custom_fields argument, which must be a JSON
// object when present.
func parseCustomFields(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return nil, errCustomFieldsJSON
	}
	return fields, nil
}

func orDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return strings.TrimSpace(def)
	}
	return value
}
