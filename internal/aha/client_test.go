package aha

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/aha-mcp-server/internal/clock"
	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
)

type fakeExecutor struct {
	requests  []pipeline.Request
	responses []string
	err       error
}

func (f *fakeExecutor) Execute(_ context.Context, req pipeline.Request) (*pipeline.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	body := `{}`
	if n := len(f.requests) - 1; n < len(f.responses) {
		body = f.responses[n]
	} else if len(f.responses) > 0 {
		body = f.responses[len(f.responses)-1]
	}
	resp, failure := pipeline.Classify(http.StatusOK, []byte(body), nil)
	if failure != nil {
		return nil, failure
	}
	resp.Attempts = 1
	return resp, nil
}

func (f *fakeExecutor) last(t *testing.T) pipeline.Request {
	t.Helper()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func TestSearchFeaturesScopes(t *testing.T) {
	tests := []struct {
		name   string
		search FeatureSearch
		path   string
	}{
		{"account", FeatureSearch{Query: "login"}, "/features"},
		{"product", FeatureSearch{ProductID: "PRJ1"}, "/products/PRJ1/features"},
		{"epic wins over product", FeatureSearch{ProductID: "PRJ1", EpicID: "E-1"}, "/epics/E-1/features"},
		{"release wins", FeatureSearch{ProductID: "PRJ1", EpicID: "E-1", ReleaseID: "R 1"}, "/releases/R%201/features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			_, err := New(exec, "").SearchFeatures(context.Background(), tt.search)
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, exec.last(t).Method())
			assert.Equal(t, tt.path, exec.last(t).Path())
		})
	}
}

func TestSearchFeaturesQuery(t *testing.T) {
	exec := &fakeExecutor{responses: []string{`{"features":[{"reference_num":"A-1"},{"reference_num":"A-2"},{"reference_num":"A-3"}],"pagination":{"total_records":42}}`}}
	page, err := New(exec, "").SearchFeatures(context.Background(), FeatureSearch{
		Query:  " login ",
		Status: "Shipped",
		Tags:   "a,b",
		Limit:  2,
	})
	require.NoError(t, err)

	q := exec.last(t).Query()
	assert.Equal(t, "login", q.Get("q"))
	assert.Equal(t, "Shipped", q.Get("status"))
	assert.Equal(t, "a,b", q.Get("tags"))
	assert.Equal(t, "2", q.Get("per_page"))
	assert.False(t, q.Has("assignee"))

	require.Len(t, page.Items, 2)
	assert.Equal(t, 42, page.Total)
	assert.True(t, page.Truncated(2))
}

func TestPerPageIsCapped(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := New(exec, "").ListProducts(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, "200", exec.last(t).Query().Get("per_page"))

	_, err = New(exec, "").ListUsers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "20", exec.last(t).Query().Get("per_page"))
}

func TestGetFeatureWrappedAndBare(t *testing.T) {
	for _, body := range []string{
		`{"feature":{"reference_num":"PRJ1-1","name":"Login","description":{"body":"Rich"},"tags":[{"name":"auth"}]}}`,
		`{"reference_num":"PRJ1-1","name":"Login","description":"Rich","tags":["auth"]}`,
	} {
		exec := &fakeExecutor{responses: []string{body}}
		f, err := New(exec, "").GetFeature(context.Background(), "PRJ1-1")
		require.NoError(t, err)
		assert.Equal(t, "PRJ1-1", f.ReferenceNum)
		assert.Equal(t, "Login", f.Name)
		assert.Equal(t, Text("Rich"), f.Description)
		assert.Equal(t, Tags{"auth"}, f.Tags)
		assert.Equal(t, "/features/PRJ1-1", exec.last(t).Path())
	}
}

func TestCreateFeatureBody(t *testing.T) {
	exec := &fakeExecutor{responses: []string{`{"feature":{"reference_num":"PRJ1-9","name":"New"}}`}}
	score := 7.0
	f, err := New(exec, "").CreateFeature(context.Background(), FeatureInput{
		Name:         "New",
		ReleaseID:    "R-1",
		Tags:         []string{"x", "y"},
		Score:        &score,
		CustomFields: map[string]any{"team": "core"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PRJ1-9", f.ReferenceNum)

	req := exec.last(t)
	assert.Equal(t, http.MethodPost, req.Method())
	assert.Equal(t, "/features", req.Path())
	assert.JSONEq(t, `{"feature":{"name":"New","release_id":"R-1","tags":["x","y"],"score":7,"custom_fields":{"team":"core"}}}`, string(req.Body()))
}

func TestValidationHappensBeforeRequests(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, "")
	ctx := context.Background()

	_, err := c.CreateFeature(ctx, FeatureInput{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.UpdateFeature(ctx, "PRJ1-1", FeatureInput{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.GetFeature(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, c.DeleteFeature(ctx, ""), ErrInvalidArgument)
	_, err = c.UpdateFeatureStatus(ctx, "PRJ1-1", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.SetFeatureTags(ctx, "PRJ1-1", []string{" ", ""}, true)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.SearchIdeas(ctx, IdeaSearch{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.ListReleases(ctx, "", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, exec.requests)
}

func TestUpdateFeatureStatusAndScore(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, "")

	_, err := c.UpdateFeatureStatus(context.Background(), "PRJ1-1", "Shipped")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, exec.last(t).Method())
	assert.JSONEq(t, `{"feature":{"workflow_status":"Shipped"}}`, string(exec.last(t).Body()))

	_, err = c.UpdateFeatureScore(context.Background(), "PRJ1-1", 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feature":{"score":0}}`, string(exec.last(t).Body()))
}

func TestSetFeatureTagsMerge(t *testing.T) {
	exec := &fakeExecutor{responses: []string{
		`{"feature":{"reference_num":"PRJ1-1","tags":[{"name":"b"},{"name":"a"}]}}`,
		`{"feature":{"reference_num":"PRJ1-1","tags":["b","a","c"]}}`,
	}}
	f, err := New(exec, "").SetFeatureTags(context.Background(), "PRJ1-1", []string{"a", "c", "C"}, false)
	require.NoError(t, err)

	require.Len(t, exec.requests, 2)
	assert.Equal(t, http.MethodGet, exec.requests[0].Method())
	assert.Equal(t, http.MethodPut, exec.requests[1].Method())
	assert.JSONEq(t, `{"feature":{"tags":["b","a","c"]}}`, string(exec.requests[1].Body()))
	assert.Equal(t, Tags{"b", "a", "c"}, f.Tags)
}

func TestSetFeatureTagsReplaceSkipsRead(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := New(exec, "").SetFeatureTags(context.Background(), "PRJ1-1", []string{"x"}, true)
	require.NoError(t, err)
	require.Len(t, exec.requests, 1)
	assert.JSONEq(t, `{"feature":{"tags":["x"]}}`, string(exec.requests[0].Body()))
}

func TestListReleaseFeaturesExcludesCompleted(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, "")

	_, err := c.ListReleaseFeatures(context.Background(), "R-1", false, 50)
	require.NoError(t, err)
	assert.Equal(t, "true", exec.last(t).Query().Get("exclude_completed"))

	_, err = c.ListReleaseFeatures(context.Background(), "R-1", true, 50)
	require.NoError(t, err)
	assert.False(t, exec.last(t).Query().Has("exclude_completed"))
	assert.Equal(t, "/releases/R-1/features", exec.last(t).Path())
}

func TestSearchIdeasEndpoints(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, "")

	_, err := c.SearchIdeas(context.Background(), IdeaSearch{Query: "mobile", FeatureID: "F-1"})
	require.NoError(t, err)
	assert.Equal(t, "/ideas", exec.last(t).Path())
	assert.Equal(t, "mobile", exec.last(t).Query().Get("q"))
	assert.False(t, exec.last(t).Query().Has("feature_id"))

	_, err = c.SearchIdeas(context.Background(), IdeaSearch{FeatureID: "F-1"})
	require.NoError(t, err)
	assert.Equal(t, "/ideas/related", exec.last(t).Path())
	assert.Equal(t, "F-1", exec.last(t).Query().Get("feature_id"))
}

func TestDefaultProduct(t *testing.T) {
	exec := &fakeExecutor{}
	c := New(exec, "PRJ1")

	_, err := c.ListReleases(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, "/products/PRJ1/releases", exec.last(t).Path())

	_, err = c.ListEpics(context.Background(), "OTHER", 10)
	require.NoError(t, err)
	assert.Equal(t, "/products/OTHER/epics", exec.last(t).Path())
}

func TestSingleResourcePaths(t *testing.T) {
	exec := &fakeExecutor{responses: []string{`{"user":{"id":1,"name":"Ann","email":"ann@example.com"}}`}}
	c := New(exec, "")
	ctx := context.Background()

	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, ID("1"), u.ID)
	assert.Equal(t, "/me", exec.last(t).Path())

	_, err = c.GetRelease(ctx, "R-1")
	require.NoError(t, err)
	assert.Equal(t, "/releases/R-1", exec.last(t).Path())

	_, err = c.GetEpic(ctx, "E-1")
	require.NoError(t, err)
	assert.Equal(t, "/epics/E-1", exec.last(t).Path())

	require.NoError(t, c.DeleteFeature(ctx, "F-1"))
	assert.Equal(t, http.MethodDelete, exec.last(t).Method())
}

func TestPipelineErrorsPassThrough(t *testing.T) {
	failure := &pipeline.Error{Kind: pipeline.KindNotFound, StatusCode: 404, Message: "resource not found (HTTP 404)"}
	exec := &fakeExecutor{err: failure}
	_, err := New(exec, "").GetFeature(context.Background(), "X-1")
	assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
}

func TestClientOverRealPipeline(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"feature":{"reference_num":"PRJ1-5","name":"Renamed","workflow_status":{"name":"Done"}}}`)
	}))
	t.Cleanup(srv.Close)

	cfg := pipeline.DefaultConfig()
	cfg.BaseURL = srv.URL + "/api/v1"
	cfg.Credential = "key"
	cfg.PacingDelay = 0
	p, err := pipeline.New(cfg, pipeline.WithClock(clock.NewManual(time.Unix(0, 0))))
	require.NoError(t, err)

	f, err := New(p, "").UpdateFeature(context.Background(), "PRJ1-5", FeatureInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/features/PRJ1-5", gotPath)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, map[string]any{"feature": map[string]any{"name": "Renamed"}}, gotBody)
	assert.Equal(t, "Done", f.WorkflowStatus.Name)
}
