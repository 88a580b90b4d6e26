// Package format renders API records as the plain text returned by tools.
package format

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/codex-k8s/aha-mcp-server/internal/aha"
)

// Description length limits for listings.
const (
	productDescriptionLimit = 100
	ideaDescriptionLimit    = 150
	epicDescriptionLimit    = 150
)

// FeatureSummary renders the short multi-line form used in listings.
func FeatureSummary(f aha.Feature) string {
	lines := []string{
		fmt.Sprintf("Feature: %s - %s", or(f.ReferenceNum, "N/A"), or(f.Name, "Unnamed Feature")),
		"Status: " + or(f.WorkflowStatus.Name, "Unknown"),
		"Assignee: " + or(f.AssigneeName(), "Unassigned"),
		"Release: " + or(f.Release.Label(), "No Release"),
		"Tags: " + tags(f.Tags),
	}
	return strings.Join(lines, "\n")
}

// FeatureDetail renders every known field of a feature.
func FeatureDetail(f aha.Feature) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feature: %s - %s\n", or(f.ReferenceNum, "N/A"), or(f.Name, "Unnamed Feature"))
	fmt.Fprintf(&b, "Description: %s\n", or(string(f.Description), "No description"))
	fmt.Fprintf(&b, "Status: %s\n", or(f.WorkflowStatus.Name, "Unknown"))
	fmt.Fprintf(&b, "Assignee: %s\n", or(f.AssigneeName(), "Unassigned"))
	fmt.Fprintf(&b, "Release: %s\n", or(f.Release.Label(), "No Release"))
	fmt.Fprintf(&b, "Epic: %s\n", or(f.Epic.Label(), "No Epic"))
	fmt.Fprintf(&b, "Progress: %s%%\n", number(f.Progress, "0"))
	fmt.Fprintf(&b, "Score: %s\n", number(f.Score, "No Score"))
	fmt.Fprintf(&b, "Tags: %s\n", tags(f.Tags))
	fmt.Fprintf(&b, "Created: %s\n", f.CreatedAt)
	fmt.Fprintf(&b, "Updated: %s", f.UpdatedAt)
	if f.URL != "" {
		fmt.Fprintf(&b, "\nURL: %s", f.URL)
	}
	if len(f.CustomFields) > 0 {
		b.WriteString("\n\nCustom Fields:")
		for _, field := range f.CustomFields {
			fmt.Fprintf(&b, "\n- %s: %s", or(field.Name, or(field.Key, "Unknown Field")), value(field.Value))
		}
	}
	return b.String()
}

// Features renders a feature listing. scope is appended to the heading,
// e.g. " in release PRJ1-R-1".
func Features(page aha.Page[aha.Feature], limit int, scope string) string {
	parts := make([]string, 0, len(page.Items))
	for _, f := range page.Items {
		parts = append(parts, FeatureSummary(f))
	}
	return listing(page.Total, "feature(s)"+scope, parts, page.Truncated(limit), limit)
}

// Products renders a product listing.
func Products(page aha.Page[aha.Product], limit int) string {
	parts := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		var b strings.Builder
		fmt.Fprintf(&b, "Product: %s (ID: %s)\n", or(p.Name, "Unnamed Product"), or(string(p.ID), "N/A"))
		fmt.Fprintf(&b, "  Reference Prefix: %s\n", or(p.ReferencePrefix, "N/A"))
		fmt.Fprintf(&b, "  Created: %s", p.CreatedAt)
		if p.Description != "" {
			fmt.Fprintf(&b, "\n  Description: %s", Truncate(string(p.Description), productDescriptionLimit))
		}
		parts = append(parts, b.String())
	}
	return listing(page.Total, "product(s)", parts, page.Truncated(limit), limit)
}

// Ideas renders an idea listing.
func Ideas(page aha.Page[aha.Idea], limit int) string {
	parts := make([]string, 0, len(page.Items))
	for _, idea := range page.Items {
		var b strings.Builder
		fmt.Fprintf(&b, "Idea: %s - %s\n", or(idea.ReferenceNum, "N/A"), or(idea.Name, "Unnamed Idea"))
		fmt.Fprintf(&b, "  ID: %s\n", or(string(idea.ID), "N/A"))
		fmt.Fprintf(&b, "  Status: %s\n", or(idea.WorkflowStatus.Name, "Unknown"))
		fmt.Fprintf(&b, "  Category: %s\n", or(idea.Category.Name, "No Category"))
		fmt.Fprintf(&b, "  Score: %s\n", number(idea.Score, "No Score"))
		if idea.Votes.Set {
			fmt.Fprintf(&b, "  Votes: %s\n", humanize.Comma(int64(idea.Votes.Value)))
		}
		fmt.Fprintf(&b, "  Created: %s", idea.CreatedAt)
		if idea.Description != "" {
			fmt.Fprintf(&b, "\n  Description: %s", Truncate(string(idea.Description), ideaDescriptionLimit))
		}
		parts = append(parts, b.String())
	}
	return listing(page.Total, "related idea(s)", parts, page.Truncated(limit), limit)
}

// ReleaseDetail renders one release.
func ReleaseDetail(r aha.Release) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Release: %s - %s\n", or(r.ReferenceNum, "N/A"), or(r.Name, "Unnamed Release"))
	fmt.Fprintf(&b, "  ID: %s\n", or(string(r.ID), "N/A"))
	fmt.Fprintf(&b, "  Status: %s\n", or(r.WorkflowStatus.Name, "Unknown"))
	fmt.Fprintf(&b, "  Start: %s\n", or(r.StartDate, "Not set"))
	fmt.Fprintf(&b, "  Release Date: %s\n", or(r.ReleaseDate, "Not set"))
	fmt.Fprintf(&b, "  Released: %s\n", yesNo(r.Released))
	fmt.Fprintf(&b, "  Progress: %s%%", number(r.Progress, "0"))
	if r.Parking {
		b.WriteString("\n  Parking lot: yes")
	}
	if r.Theme != "" {
		fmt.Fprintf(&b, "\n  Theme: %s", r.Theme)
	}
	if r.URL != "" {
		fmt.Fprintf(&b, "\n  URL: %s", r.URL)
	}
	return b.String()
}

// Releases renders a release listing.
func Releases(page aha.Page[aha.Release], limit int) string {
	parts := make([]string, 0, len(page.Items))
	for _, r := range page.Items {
		parts = append(parts, ReleaseDetail(r))
	}
	return listing(page.Total, "release(s)", parts, page.Truncated(limit), limit)
}

// EpicDetail renders one epic.
func EpicDetail(e aha.Epic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Epic: %s - %s\n", or(e.ReferenceNum, "N/A"), or(e.Name, "Unnamed Epic"))
	fmt.Fprintf(&b, "  ID: %s\n", or(string(e.ID), "N/A"))
	fmt.Fprintf(&b, "  Status: %s\n", or(e.WorkflowStatus.Name, "Unknown"))
	fmt.Fprintf(&b, "  Release: %s\n", or(e.Release.Label(), "No Release"))
	fmt.Fprintf(&b, "  Assignee: %s\n", or(e.AssignedToUser.Name, "Unassigned"))
	fmt.Fprintf(&b, "  Progress: %s%%\n", number(e.Progress, "0"))
	fmt.Fprintf(&b, "  Tags: %s", tags(e.Tags))
	if e.Description != "" {
		fmt.Fprintf(&b, "\n  Description: %s", Truncate(string(e.Description), epicDescriptionLimit))
	}
	return b.String()
}

// Epics renders an epic listing.
func Epics(page aha.Page[aha.Epic], limit int) string {
	parts := make([]string, 0, len(page.Items))
	for _, e := range page.Items {
		parts = append(parts, EpicDetail(e))
	}
	return listing(page.Total, "epic(s)", parts, page.Truncated(limit), limit)
}

// UserDetail renders one user.
func UserDetail(u aha.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User: %s (ID: %s)\n", or(u.Name, "Unnamed User"), or(string(u.ID), "N/A"))
	fmt.Fprintf(&b, "  Email: %s\n", or(u.Email, "N/A"))
	fmt.Fprintf(&b, "  Created: %s", u.CreatedAt)
	return b.String()
}

// Users renders a user listing.
func Users(page aha.Page[aha.User], limit int) string {
	parts := make([]string, 0, len(page.Items))
	for _, u := range page.Items {
		parts = append(parts, UserDetail(u))
	}
	return listing(page.Total, "user(s)", parts, page.Truncated(limit), limit)
}

// Truncate shortens s to at most limit runes, ending with "...".
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if limit <= 3 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func listing(total int, noun string, parts []string, truncated bool, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %s %s:\n\n", humanize.Comma(int64(total)), noun)
	b.WriteString(strings.Join(parts, "\n\n"))
	if truncated {
		fmt.Fprintf(&b, "\n\n(Showing first %d results)", limit)
	}
	return b.String()
}

func or(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func tags(list aha.Tags) string {
	if len(list) == 0 {
		return "None"
	}
	return strings.Join(list, ", ")
}

func number(n aha.Number, fallback string) string {
	if !n.Set {
		return fallback
	}
	return humanize.Ftoa(n.Value)
}

func value(v any) string {
	switch t := v.(type) {
	case nil:
		return "No Value"
	case string:
		return or(t, "No Value")
	case float64:
		return humanize.Ftoa(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, value(item))
		}
		return strings.Join(items, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
