package tools

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Tool names.
const (
	ToolSearchFeatures        = "search_features"
	ToolGetFeature            = "get_feature"
	ToolCreateFeature         = "create_feature"
	ToolUpdateFeature         = "update_feature"
	ToolDeleteFeature         = "delete_feature"
	ToolListFeaturesByRelease = "list_features_by_release"
	ToolListFeaturesByEpic    = "list_features_by_epic"
	ToolUpdateFeatureStatus   = "update_feature_status"
	ToolAddFeatureTags        = "add_feature_tags"
	ToolUpdateFeatureScore    = "update_feature_score"
	ToolListProducts          = "list_products"
	ToolGetRelatedIdeas       = "get_related_ideas"
	ToolListReleases          = "list_releases"
	ToolGetRelease            = "get_release"
	ToolListEpics             = "list_epics"
	ToolGetEpic               = "get_epic"
	ToolListUsers             = "list_users"
	ToolGetCurrentUser        = "get_current_user"
)

type effect int

const (
	readOnly effect = iota
	additive
	overwrite
	destructive
)

// Info describes a registered tool.
type Info struct {
	Name        string
	Title       string
	Description string
	Mutating    bool
}

type toolSpec struct {
	name        string
	title       string
	action      string
	description string
	effect      effect
}

func (s toolSpec) mutating() bool {
	return s.effect != readOnly
}

func (s toolSpec) tool() *mcp.Tool {
	openWorld := true
	annotations := &mcp.ToolAnnotations{
		Title:         s.title,
		OpenWorldHint: &openWorld,
	}
	switch s.effect {
	case readOnly:
		annotations.ReadOnlyHint = true
	case additive:
		no := false
		annotations.DestructiveHint = &no
	case overwrite, destructive:
		yes := true
		annotations.DestructiveHint = &yes
		annotations.IdempotentHint = true
	}
	return &mcp.Tool{
		Name:        s.name,
		Title:       s.title,
		Description: s.description,
		Annotations: annotations,
	}
}

var specs = []toolSpec{
	{
		name:   ToolSearchFeatures,
		title:  "Search features",
		action: "searching features",
		description: "Search for FEATURES in the Aha! workspace. Features are development work items that " +
			"engineering teams implement. Filters narrow the scope to a release, epic or product. " +
			"For customer requests and feedback use get_related_ideas instead.",
		effect: readOnly,
	},
	{
		name:   ToolGetFeature,
		title:  "Get feature",
		action: "retrieving feature",
		description: "Get full details of one FEATURE by ID or reference number (e.g. PRJ1-1234), " +
			"including assignee, status, description and custom fields.",
		effect: readOnly,
	},
	{
		name:        ToolCreateFeature,
		title:       "Create feature",
		action:      "creating feature",
		description: "Create a new FEATURE in Aha!. Features are development work items, not ideas.",
		effect:      additive,
	},
	{
		name:        ToolUpdateFeature,
		title:       "Update feature",
		action:      "updating feature",
		description: "Update fields of an existing feature. Only the supplied fields change.",
		effect:      overwrite,
	},
	{
		name:        ToolDeleteFeature,
		title:       "Delete feature",
		action:      "deleting feature",
		description: "Delete a feature. Requires confirm=true.",
		effect:      destructive,
	},
	{
		name:        ToolListFeaturesByRelease,
		title:       "List release features",
		action:      "listing features by release",
		description: "List the features of a release.",
		effect:      readOnly,
	},
	{
		name:        ToolListFeaturesByEpic,
		title:       "List epic features",
		action:      "listing features by epic",
		description: "List the features of an epic.",
		effect:      readOnly,
	},
	{
		name:        ToolUpdateFeatureStatus,
		title:       "Update feature status",
		action:      "updating feature status",
		description: "Move a feature to another workflow status by name.",
		effect:      overwrite,
	},
	{
		name:        ToolAddFeatureTags,
		title:       "Add feature tags",
		action:      "updating feature tags",
		description: "Add tags to a feature, or replace its tags when replace=true.",
		effect:      overwrite,
	},
	{
		name:        ToolUpdateFeatureScore,
		title:       "Update feature score",
		action:      "updating feature score",
		description: "Set the score of a feature.",
		effect:      overwrite,
	},
	{
		name:   ToolListProducts,
		title:  "List products",
		action: "retrieving products",
		description: "List the products of the workspace with their IDs and reference prefixes " +
			"(the PRJ1- part of feature references).",
		effect: readOnly,
	},
	{
		name:   ToolGetRelatedIdeas,
		title:  "Search ideas",
		action: "retrieving related ideas",
		description: "Search IDEAS (customer requests, feedback, suggestions) by text, or list ideas related " +
			"to an idea or a feature. Text search via query is the most reliable. For development work " +
			"items use search_features instead.",
		effect: readOnly,
	},
	{
		name:        ToolListReleases,
		title:       "List releases",
		action:      "listing releases",
		description: "List the releases of a product.",
		effect:      readOnly,
	},
	{
		name:        ToolGetRelease,
		title:       "Get release",
		action:      "retrieving release",
		description: "Get details of one release.",
		effect:      readOnly,
	},
	{
		name:        ToolListEpics,
		title:       "List epics",
		action:      "listing epics",
		description: "List the epics of a product.",
		effect:      readOnly,
	},
	{
		name:        ToolGetEpic,
		title:       "Get epic",
		action:      "retrieving epic",
		description: "Get details of one epic.",
		effect:      readOnly,
	},
	{
		name:        ToolListUsers,
		title:       "List users",
		action:      "listing users",
		description: "List the users of the account.",
		effect:      readOnly,
	},
	{
		name:        ToolGetCurrentUser,
		title:       "Current user",
		action:      "retrieving current user",
		description: "Show the user the configured API key belongs to.",
		effect:      readOnly,
	},
}

func specByName(name string) toolSpec {
	for _, s := range specs {
		if s.name == name {
			return s
		}
	}
	panic("unknown tool " + name)
}

// Catalog lists every tool the server registers.
func Catalog() []Info {
	out := make([]Info, 0, len(specs))
	for _, s := range specs {
		out = append(out, Info{Name: s.name, Title: s.title, Description: s.description, Mutating: s.mutating()})
	}
	return out
}
