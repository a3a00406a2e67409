// Package stac models the STAC 1.0.0 Collection and Item documents written
// by canelevation, with the point-cloud and projection extensions.
package stac

import (
	"encoding/json"
	"fmt"
	"time"
)

// Version is the stac_version of every document.
const Version = "1.0.0"

// Extension schema URIs.
const (
	PointcloudExtension = "https://stac-extensions.github.io/pointcloud/v1.0.0/schema.json"
	ProjectionExtension = "https://stac-extensions.github.io/projection/v1.1.0/schema.json"
)

// Link relation types.
const (
	RelRoot    = "root"
	RelSelf    = "self"
	RelLicense = "license"
	RelParent  = "parent"
)

// Media types.
const (
	MediaTypeJSON   = "application/json"
	MediaTypeBinary = "application/octet-stream"
)

// Provider roles.
const (
	RoleHost      = "host"
	RoleLicensor  = "licensor"
	RoleProcessor = "processor"
	RoleProducer  = "producer"
)

// Link is a STAC link object.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Provider is an organization that captured, processed or hosts the data.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Asset is a file referenced by an Item.
type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Time is a UTC timestamp encoded as RFC 3339 with a Z suffix.
type Time struct {
	time.Time
}

// NewTime wraps t, converting it to UTC.
func NewTime(t time.Time) *Time {
	return &Time{t.UTC()}
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05.999999Z"))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("stac: invalid datetime %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

func findLink(links []Link, rel string) (Link, bool) {
	for _, l := range links {
		if l.Rel == rel {
			return l, true
		}
	}
	return Link{}, false
}

// setLink replaces the first link with the same rel, or appends.
func setLink(links []Link, link Link) []Link {
	out := make([]Link, 0, len(links)+1)
	replaced := false
	for _, l := range links {
		if l.Rel == link.Rel && !replaced {
			out = append(out, link)
			replaced = true
			continue
		}
		out = append(out, l)
	}
	if !replaced {
		out = append(out, link)
	}
	return out
}
