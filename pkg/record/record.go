// Package record turns normalized Behance objects into the flat content
// records the store consumes.
package record

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"behancesync/pkg/behance"
)

// Record type discriminators
const (
	TypeProject = "BehanceProjects"
	TypeUser    = "BehanceUser"
)

// RootParent marks records that hang directly off the source
const RootParent = "__SOURCE__"

// AvatarSize is the user image rendition used as the avatar
const AvatarSize = "276"

// Internal is the bookkeeping block of a record
type Internal struct {
	Type          string `json:"type"`
	ContentDigest string `json:"contentDigest"`
}

// Record is one content record. Fields are flattened next to the metadata
// members when encoded.
type Record struct {
	ID       string
	Parent   string
	Children []string
	Internal Internal
	Fields   map[string]any
}

var reserved = map[string]bool{"id": true, "parent": true, "children": true, "internal": true}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		if reserved[k] {
			return nil, fmt.Errorf("record %s: field %q collides with record metadata", r.ID, k)
		}
		out[k] = v
	}
	children := r.Children
	if children == nil {
		children = []string{}
	}
	out["id"] = r.ID
	out["parent"] = r.Parent
	out["children"] = children
	out["internal"] = r.Internal
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var rec Record
	for key, dst := range map[string]any{
		"id":       &rec.ID,
		"parent":   &rec.Parent,
		"children": &rec.Children,
		"internal": &rec.Internal,
	} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("record member %q: %w", key, err)
			}
			delete(raw, key)
		}
	}

	rec.Fields = make(map[string]any, len(raw))
	for k, v := range raw {
		rec.Fields[k] = v
	}
	*r = rec
	return nil
}

// Digest returns the lowercase hex MD5 of v's JSON encoding. Behance types
// and maps encode with sorted keys, so equal values give equal digests.
func Digest(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode for digest: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// projectExtraFields maps record field names to raw project members
var projectExtraFields = map[string]string{
	"published":     "published_on",
	"created":       "created_on",
	"modified":      "modified_on",
	"conceived":     "conceived_on",
	"privacy":       "privacy",
	"areas":         "fields",
	"matureContent": "mature_content",
	"matureAccess":  "mature_access",
	"stats":         "stats",
	"canvasWidth":   "canvas_width",
	"tags":          "tags",
	"description":   "description",
	"editorVersion": "editor_version",
	"allowComments": "allow_comments",
	"shortURL":      "short_url",
	"copyright":     "copyright",
	"tools":         "tools",
	"styles":        "styles",
	"creatorID":     "creator_id",
}

var userExtraFields = map[string]string{
	"url":         "url",
	"website":     "website",
	"company":     "company",
	"areas":       "fields",
	"stats":       "stats",
	"links":       "links",
	"sections":    "sections",
	"socialMedia": "social_links",
}

// copyExtra sets fields[name] to the raw member for each mapping present in extra
func copyExtra(fields map[string]any, extra behance.Extra, mapping map[string]string) {
	for name, member := range mapping {
		if raw := extra.Get(member); raw != nil {
			fields[name] = raw
		}
	}
}

// BuildProjectRecord projects a normalized, mirrored project into a record.
// The digest covers the whole project, not just the projected fields.
func BuildProjectRecord(p behance.Project) (*Record, error) {
	digest, err := Digest(p)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}

	fields := map[string]any{
		"projectID": p.ID,
	}
	// Members the API sent are projected even when empty
	if p.Name != "" || p.Has("name") {
		fields["name"] = p.Name
	}
	if p.URL != "" || p.Has("url") {
		fields["url"] = p.URL
	}
	if p.Covers != nil || p.Has("covers") {
		fields["covers"] = p.Covers
	}
	if p.Owners != nil || p.Has("owners") {
		fields["owners"] = p.Owners
	}
	if p.Modules != nil || p.Has("modules") {
		fields["modules"] = p.Modules
	}
	copyExtra(fields, p.Extra, projectExtraFields)

	return &Record{
		ID:       strconv.FormatInt(p.ID, 10),
		Parent:   RootParent,
		Children: []string{},
		Internal: Internal{Type: TypeProject, ContentDigest: digest},
		Fields:   fields,
	}, nil
}

// BuildUserRecord projects a user profile into a record
func BuildUserRecord(u behance.User) (*Record, error) {
	digest, err := Digest(u)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}

	names := map[string]any{}
	if u.Username != "" {
		names["username"] = u.Username
	}
	for name, member := range map[string]string{
		"firstName":   "first_name",
		"lastName":    "last_name",
		"displayName": "display_name",
	} {
		if raw := u.Extra.Get(member); raw != nil {
			names[name] = raw
		}
	}

	place := map[string]any{}
	for _, member := range []string{"city", "state", "country", "location"} {
		if raw := u.Extra.Get(member); raw != nil {
			place[member] = raw
		}
	}

	fields := map[string]any{
		"userID": u.ID,
		"names":  names,
		"place":  place,
	}
	if avatar, ok := u.Images[AvatarSize]; ok {
		fields["avatar"] = avatar
	}
	copyExtra(fields, u.Extra, userExtraFields)

	return &Record{
		ID:       strconv.FormatInt(u.ID, 10),
		Parent:   RootParent,
		Children: []string{},
		Internal: Internal{Type: TypeUser, ContentDigest: digest},
		Fields:   fields,
	}, nil
}
