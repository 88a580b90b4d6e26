package tools

type searchFeaturesInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Text search query for feature names, descriptions or content"`
	ProductID string `json:"product_id,omitempty" jsonschema:"Filter by product ID"`
	ReleaseID string `json:"release_id,omitempty" jsonschema:"Filter by release ID"`
	EpicID    string `json:"epic_id,omitempty" jsonschema:"Filter by epic ID"`
	Status    string `json:"status,omitempty" jsonschema:"Filter by workflow status, e.g. In Development or Shipped"`
	Assignee  string `json:"assignee,omitempty" jsonschema:"Filter by assignee name"`
	Tags      string `json:"tags,omitempty" jsonschema:"Filter by tags (comma-separated)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type featureIDInput struct {
	FeatureID string `json:"feature_id" jsonschema:"Feature ID or reference number, e.g. PRJ1-1234"`
}

type createFeatureInput struct {
	Name         string `json:"name" jsonschema:"Feature name"`
	Description  string `json:"description,omitempty" jsonschema:"Feature description or requirements"`
	ReleaseID    string `json:"release_id,omitempty" jsonschema:"Release to assign the feature to"`
	EpicID       string `json:"epic_id,omitempty" jsonschema:"Epic to assign the feature to"`
	Assignee     string `json:"assignee,omitempty" jsonschema:"User to assign the feature to"`
	Tags         string `json:"tags,omitempty" jsonschema:"Tags to add (comma-separated)"`
	CustomFields string `json:"custom_fields,omitempty" jsonschema:"Custom field values as a JSON object string"`
	RequestID    string `json:"request_id,omitempty" jsonschema:"Idempotency key; repeating a call with the same key and arguments returns the first result"`
}

type updateFeatureInput struct {
	FeatureID    string `json:"feature_id" jsonschema:"Feature ID or reference number"`
	Name         string `json:"name,omitempty" jsonschema:"New feature name"`
	Description  string `json:"description,omitempty" jsonschema:"New feature description"`
	Status       string `json:"status,omitempty" jsonschema:"New workflow status"`
	Assignee     string `json:"assignee,omitempty" jsonschema:"New assignee"`
	ReleaseID    string `json:"release_id,omitempty" jsonschema:"New release assignment"`
	EpicID       string `json:"epic_id,omitempty" jsonschema:"New epic assignment"`
	CustomFields string `json:"custom_fields,omitempty" jsonschema:"Custom field updates as a JSON object string"`
	RequestID    string `json:"request_id,omitempty" jsonschema:"Idempotency key"`
}

type deleteFeatureInput struct {
	FeatureID string `json:"feature_id" jsonschema:"Feature ID or reference number"`
	Confirm   bool   `json:"confirm,omitempty" jsonschema:"Must be true to delete"`
	RequestID string `json:"request_id,omitempty" jsonschema:"Idempotency key"`
}

type releaseFeaturesInput struct {
	ReleaseID        string `json:"release_id" jsonschema:"Release ID or reference number"`
	IncludeCompleted *bool  `json:"include_completed,omitempty" jsonschema:"Include completed features (default true)"`
	Limit            int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type epicFeaturesInput struct {
	EpicID string `json:"epic_id" jsonschema:"Epic ID or reference number"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type featureStatusInput struct {
	FeatureID string `json:"feature_id" jsonschema:"Feature ID or reference number"`
	Status    string `json:"status" jsonschema:"New workflow status"`
	RequestID string `json:"request_id,omitempty" jsonschema:"Idempotency key"`
}

type featureTagsInput struct {
	FeatureID string `json:"feature_id" jsonschema:"Feature ID or reference number"`
	Tags      string `json:"tags" jsonschema:"Tags to add (comma-separated)"`
	Replace   bool   `json:"replace,omitempty" jsonschema:"Replace existing tags instead of adding"`
	RequestID string `json:"request_id,omitempty" jsonschema:"Idempotency key"`
}

type featureScoreInput struct {
	FeatureID string  `json:"feature_id" jsonschema:"Feature ID or reference number"`
	Score     float64 `json:"score" jsonschema:"New score value"`
	RequestID string  `json:"request_id,omitempty" jsonschema:"Idempotency key"`
}

type limitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type relatedIdeasInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Text search over idea content, e.g. API or mobile"`
	IdeaID    string `json:"idea_id,omitempty" jsonschema:"Idea ID to find related ideas for"`
	FeatureID string `json:"feature_id,omitempty" jsonschema:"Feature ID to find related ideas for"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type productScopedInput struct {
	ProductID string `json:"product_id,omitempty" jsonschema:"Product ID or reference prefix (defaults to the configured product)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
}

type releaseIDInput struct {
	ReleaseID string `json:"release_id" jsonschema:"Release ID or reference number"`
}

type epicIDInput struct {
	EpicID string `json:"epic_id" jsonschema:"Epic ID or reference number"`
}

type emptyInput struct{}
