package stac

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
)

// CollectionFile is the file name a collection is saved under.
const CollectionFile = "collection.json"

// Collection is a STAC Collection.
type Collection struct {
	Type           string     `json:"type"`
	StacVersion    string     `json:"stac_version"`
	StacExtensions []string   `json:"stac_extensions"`
	ID             string     `json:"id"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description"`
	Keywords       []string   `json:"keywords,omitempty"`
	License        string     `json:"license"`
	Providers      []Provider `json:"providers,omitempty"`
	Extent         Extent     `json:"extent"`
	Links          []Link     `json:"links"`
}

// Extent is the spatial and temporal coverage of a collection.
type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// SpatialExtent holds bounding boxes as [west, south, east, north].
type SpatialExtent struct {
	BBox [][]float64 `json:"bbox"`
}

// TemporalExtent holds [start, end] intervals; a nil end is open.
type TemporalExtent struct {
	Interval [][]*Time `json:"interval"`
}

// NewCollection creates a collection with the STAC boilerplate filled in.
func NewCollection(id, description, license string) *Collection {
	return &Collection{
		Type:           "Collection",
		StacVersion:    Version,
		StacExtensions: []string{},
		ID:             id,
		Description:    description,
		License:        license,
		Links:          []Link{},
	}
}

// BoundToBBox converts a bound to a STAC bbox.
func BoundToBBox(b orb.Bound) []float64 {
	return []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// AddLink appends a link.
func (c *Collection) AddLink(l Link) {
	c.Links = append(c.Links, l)
}

// SelfHref returns the self link target, or "".
func (c *Collection) SelfHref() string {
	l, _ := findLink(c.Links, RelSelf)
	return l.Href
}

// Encode prepares the collection document for dir: the self link is set
// to the absolute output path and the root link points at the file itself.
// It returns the output path and the encoded JSON without touching disk.
func (c *Collection) Encode(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("stac: resolve %s: %w", dir, err)
	}
	path := filepath.Join(absDir, CollectionFile)

	c.Links = setLink(c.Links, Link{Rel: RelRoot, Href: "./" + CollectionFile, Type: MediaTypeJSON, Title: c.Title})
	c.Links = setLink(c.Links, Link{Rel: RelSelf, Href: filepath.ToSlash(path), Type: MediaTypeJSON})

	data, err := marshal(c)
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

// Save writes the collection to <dir>/collection.json.
func (c *Collection) Save(dir string) (string, error) {
	path, data, err := c.Encode(dir)
	if err != nil {
		return "", err
	}
	if err := WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// LoadCollection reads a collection document.
func LoadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stac: read collection: %w", err)
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("stac: decode collection %s: %w", path, err)
	}
	if c.Type != "Collection" {
		return nil, fmt.Errorf("stac: %s is a %q, not a Collection", path, c.Type)
	}
	return &c, nil
}
