package aha

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureDecodingVariants(t *testing.T) {
	raw := `{
		"id": 6776,
		"reference_num": "PRJ1-1",
		"name": "Login",
		"description": {"body": "<p>text</p>"},
		"workflow_status": {"name": "In development"},
		"requirements": {"assigned_to_user": {"name": "Req Owner"}},
		"release": "R1",
		"progress": 40,
		"score": "12.5",
		"tags": "a, b,,c",
		"custom_fields": [{"name": "Team", "value": "Core"}]
	}`
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(raw), &f))

	assert.Equal(t, ID("6776"), f.ID)
	assert.Equal(t, Text("<p>text</p>"), f.Description)
	assert.Equal(t, "In development", f.WorkflowStatus.Name)
	assert.Equal(t, "Req Owner", f.AssigneeName())
	assert.Equal(t, "R1", f.Release.Label())
	assert.Equal(t, Number{Value: 40, Set: true}, f.Progress)
	assert.Equal(t, Number{Value: 12.5, Set: true}, f.Score)
	assert.Equal(t, Tags{"a", "b", "c"}, f.Tags)
	require.Len(t, f.CustomFields, 1)
	assert.Equal(t, "Core", f.CustomFields[0].Value)
}

func TestAssigneePrecedence(t *testing.T) {
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(`{"owner":"Olga","assigned_to_user":{"name":"Ann"}}`), &f))
	assert.Equal(t, "Ann", f.AssigneeName())

	f = Feature{}
	require.NoError(t, json.Unmarshal([]byte(`{"owner":"Olga"}`), &f))
	assert.Equal(t, "Olga", f.AssigneeName())

	assert.Empty(t, Feature{}.AssigneeName())
}

func TestNullsAndOddValues(t *testing.T) {
	var f Feature
	require.NoError(t, json.Unmarshal([]byte(`{"description":null,"tags":null,"score":null,"progress":"n/a","release":null,"tags":[1,{"name":"ok"}]}`), &f))
	assert.Empty(t, f.Description)
	assert.False(t, f.Score.Set)
	assert.False(t, f.Progress.Set)
	assert.Equal(t, Ref{}, f.Release)
	assert.Equal(t, Tags{"ok"}, f.Tags)
}

func TestRefLabel(t *testing.T) {
	assert.Equal(t, "n", Ref{Name: "n", ReferenceNum: "r"}.Label())
	assert.Equal(t, "r", Ref{ReferenceNum: "r", ID: "1"}.Label())
	assert.Equal(t, "1", Ref{ID: "1"}.Label())
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, MergeTags([]string{"b", "a"}, []string{"A", "c", " c "}))
	assert.Empty(t, MergeTags(nil, []string{" "}))
	assert.Equal(t, []string{"x"}, MergeTags([]string{"x", "X"}, nil))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitTags(" a ,, b ,"))
	assert.Nil(t, SplitTags("  "))
}
