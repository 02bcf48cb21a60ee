package behance

import (
	"encoding/json"
	"fmt"
)

// Module variants the pipeline understands. Anything else passes through.
const (
	ModuleImage           = "image"
	ModuleMediaCollection = "media_collection"
)

// SizeOriginal is the normalized sizes key of the full-resolution rendition
const SizeOriginal = "size_original"

// ProjectSummary is one entry of a user's project list
type ProjectSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Project is a full project as returned by /projects/{id}. Only the members
// the pipeline rewrites or reads are typed; the rest are kept in Extra.
// Typed members the API sent are encoded even when empty.
type Project struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name,omitempty"`
	URL     string            `json:"url,omitempty"`
	Covers  map[string]string `json:"covers,omitempty"`
	Owners  []Owner           `json:"owners,omitempty"`
	Modules []Module          `json:"modules,omitempty"`
	Extra   Extra             `json:"-"`

	present presence
}

type projectFields Project

// Has reports whether the API sent the typed member name, even if empty
func (p Project) Has(name string) bool {
	return p.present.has(name)
}

func (p *Project) UnmarshalJSON(data []byte) error {
	return decodeObject(data, (*projectFields)(p), &p.Extra, &p.present)
}

func (p Project) MarshalJSON() ([]byte, error) {
	return encodeObject(projectFields(p), p.Extra, p.present)
}

// Owner is a project owner's profile as embedded in a project
type Owner struct {
	ID       int64             `json:"id,omitempty"`
	Username string            `json:"username,omitempty"`
	Images   map[string]string `json:"images,omitempty"`
	Extra    Extra             `json:"-"`

	present presence
}

type ownerFields Owner

func (o *Owner) UnmarshalJSON(data []byte) error {
	return decodeObject(data, (*ownerFields)(o), &o.Extra, &o.present)
}

func (o Owner) MarshalJSON() ([]byte, error) {
	return encodeObject(ownerFields(o), o.Extra, o.present)
}

// Image is any image-bearing object: an image module or one component of a
// media collection. LocalFile is set once the asset has been mirrored.
type Image struct {
	Src        string                     `json:"src,omitempty"`
	Sizes      map[string]string          `json:"sizes,omitempty"`
	Dimensions map[string]json.RawMessage `json:"dimensions,omitempty"`
	LocalFile  string                     `json:"localFile,omitempty"`
	Extra      Extra                      `json:"-"`

	present presence
}

type imageFields Image

func (i *Image) UnmarshalJSON(data []byte) error {
	return decodeObject(data, (*imageFields)(i), &i.Extra, &i.present)
}

func (i Image) MarshalJSON() ([]byte, error) {
	return encodeObject(imageFields(i), i.Extra, i.present)
}

// MediaCollection is a module grouping several images
type MediaCollection struct {
	Components []Image `json:"components,omitempty"`
	Extra      Extra   `json:"-"`

	present presence
}

type mediaCollectionFields MediaCollection

func (m *MediaCollection) UnmarshalJSON(data []byte) error {
	return decodeObject(data, (*mediaCollectionFields)(m), &m.Extra, &m.present)
}

func (m MediaCollection) MarshalJSON() ([]byte, error) {
	return encodeObject(mediaCollectionFields(m), m.Extra, m.present)
}

// Module is one content block of a project. Exactly one of Image,
// Collection or Raw is set, matching Type. The "type" member itself stays in
// the variant's Extra (or in Raw) so it round-trips untouched.
type Module struct {
	Type       string
	Image      *Image
	Collection *MediaCollection
	Raw        json.RawMessage
}

func (m *Module) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("module: %w", err)
	}

	*m = Module{Type: head.Type}
	switch head.Type {
	case ModuleImage:
		m.Image = &Image{}
		return m.Image.UnmarshalJSON(data)
	case ModuleMediaCollection:
		m.Collection = &MediaCollection{}
		return m.Collection.UnmarshalJSON(data)
	default:
		m.Raw = append(json.RawMessage(nil), data...)
		return nil
	}
}

func (m Module) MarshalJSON() ([]byte, error) {
	switch {
	case m.Image != nil:
		return m.Image.MarshalJSON()
	case m.Collection != nil:
		return m.Collection.MarshalJSON()
	case m.Raw != nil:
		return m.Raw, nil
	default:
		return json.Marshal(map[string]string{"type": m.Type})
	}
}

// User is a profile as returned by /users/{username}
type User struct {
	ID       int64             `json:"id"`
	Username string            `json:"username,omitempty"`
	Images   map[string]string `json:"images,omitempty"`
	Extra    Extra             `json:"-"`

	present presence
}

type userFields User

func (u *User) UnmarshalJSON(data []byte) error {
	return decodeObject(data, (*userFields)(u), &u.Extra, &u.present)
}

func (u User) MarshalJSON() ([]byte, error) {
	return encodeObject(userFields(u), u.Extra, u.present)
}

// Response envelopes
type projectsResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type userResponse struct {
	User *User `json:"user"`
}

type projectResponse struct {
	Project *Project `json:"project"`
}
