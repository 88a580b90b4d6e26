package aha

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a rich-text field. The API sends either a plain string or an
// object with a body.
type Text string

// UnmarshalJSON accepts "text" and {"body": "text"}.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var obj struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = Text(obj.Body)
	return nil
}

// ID is an identifier the API renders as a string or a number.
type ID string

// UnmarshalJSON accepts "123" and 123.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Ref is an embedded reference to another record such as a workflow
// status, user, release or epic. A bare string is read as the name.
type Ref struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	ReferenceNum string `json:"reference_num"`
	Email        string `json:"email"`
}

// UnmarshalJSON accepts "name" and {"id":..,"name":..}.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref{Name: s}
		return nil
	}
	type plain Ref
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*r = Ref(out)
	return nil
}

// Label returns the name, falling back to the reference number or id.
func (r Ref) Label() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.ReferenceNum != "":
		return r.ReferenceNum
	default:
		return string(r.ID)
	}
}

// Tags is a tag list. The API sends plain strings or {"name": ...} objects,
// and occasionally a single comma-separated string.
type Tags []string

// UnmarshalJSON accepts ["a"], [{"name":"a"}] and "a,b".
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = SplitTags(s)
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Tags, 0, len(items))
	for _, item := range items {
		var ref Ref
		if err := json.Unmarshal(item, &ref); err != nil {
			continue
		}
		if name := strings.TrimSpace(ref.Name); name != "" {
			out = append(out, name)
		}
	}
	*t = out
	return nil
}

// Number is a numeric field the API may render as a number or a string.
// Set is false when the field was absent or not numeric.
type Number struct {
	Value float64
	Set   bool
}

// UnmarshalJSON accepts 12, 12.5 and "12.5".
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = Number{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	*n = Number{Value: v, Set: true}
	return nil
}

// CustomField is one custom field value on a record.
type CustomField struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// Feature is a development work item.
type Feature struct {
	ID             ID            `json:"id"`
	ReferenceNum   string        `json:"reference_num"`
	Name           string        `json:"name"`
	Description    Text          `json:"description"`
	WorkflowStatus Ref           `json:"workflow_status"`
	AssignedToUser Ref           `json:"assigned_to_user"`
	Assignee       Ref           `json:"assignee"`
	AssignedTo     Ref           `json:"assigned_to"`
	Owner          Ref           `json:"owner"`
	Requirements   *Requirements `json:"requirements"`
	Release        Ref           `json:"release"`
	Epic           Ref           `json:"epic"`
	Progress       Number        `json:"progress"`
	Score          Number        `json:"score"`
	Tags           Tags          `json:"tags"`
	CustomFields   []CustomField `json:"custom_fields"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
	URL            string        `json:"url"`
}

// Requirements holds the nested requirement block some feature payloads
// carry. Only the assignee is read.
type Requirements struct {
	AssignedToUser Ref `json:"assigned_to_user"`
}

// AssigneeName returns the first assignee found across the fields the API
// uses for it, or "".
func (f Feature) AssigneeName() string {
	for _, ref := range []Ref{f.AssignedToUser, f.Assignee, f.AssignedTo, f.Owner} {
		if ref.Name != "" {
			return ref.Name
		}
	}
	if f.Requirements != nil {
		return f.Requirements.AssignedToUser.Name
	}
	return ""
}

// Release is a release record.
type Release struct {
	ID             ID     `json:"id"`
	ReferenceNum   string `json:"reference_num"`
	Name           string `json:"name"`
	StartDate      string `json:"start_date"`
	ReleaseDate    string `json:"release_date"`
	Released       bool   `json:"released"`
	Parking        bool   `json:"parking_lot"`
	WorkflowStatus Ref    `json:"workflow_status"`
	Progress       Number `json:"progress"`
	Theme          Text   `json:"theme"`
	CreatedAt      string `json:"created_at"`
	URL            string `json:"url"`
}

// Epic is an epic record.
type Epic struct {
	ID             ID     `json:"id"`
	ReferenceNum   string `json:"reference_num"`
	Name           string `json:"name"`
	Description    Text   `json:"description"`
	WorkflowStatus Ref    `json:"workflow_status"`
	Release        Ref    `json:"release"`
	AssignedToUser Ref    `json:"assigned_to_user"`
	Progress       Number `json:"progress"`
	Tags           Tags   `json:"tags"`
	CreatedAt      string `json:"created_at"`
	URL            string `json:"url"`
}

// Product is a workspace.
type Product struct {
	ID              ID     `json:"id"`
	ReferencePrefix string `json:"reference_prefix"`
	Name            string `json:"name"`
	Description     Text   `json:"description"`
	CreatedAt       string `json:"created_at"`
	URL             string `json:"url"`
}

// Idea is a customer request or suggestion.
type Idea struct {
	ID             ID     `json:"id"`
	ReferenceNum   string `json:"reference_num"`
	Name           string `json:"name"`
	Description    Text   `json:"description"`
	WorkflowStatus Ref    `json:"workflow_status"`
	Category       Ref    `json:"category"`
	Score          Number `json:"score"`
	Votes          Number `json:"votes"`
	CreatedAt      string `json:"created_at"`
	URL            string `json:"url"`
}

// User is an account member.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Page is one page of a listing. Total is the server-reported record count
// when available, otherwise the number of items received.
type Page[T any] struct {
	Items []T
	Total int
}

// Truncated reports whether more records exist than were requested.
func (p Page[T]) Truncated(limit int) bool {
	return p.Total > limit
}

type pagination struct {
	TotalRecords int `json:"total_records"`
	TotalPages   int `json:"total_pages"`
	CurrentPage  int `json:"current_page"`
}
