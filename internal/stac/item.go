package stac

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// Item is a STAC Item, a GeoJSON Feature.
type Item struct {
	Type           string            `json:"type"`
	StacVersion    string            `json:"stac_version"`
	StacExtensions []string          `json:"stac_extensions"`
	ID             string            `json:"id"`
	Geometry       *geojson.Geometry `json:"geometry"`
	BBox           []float64         `json:"bbox"`
	Properties     Properties        `json:"properties"`
	Links          []Link            `json:"links"`
	Assets         map[string]Asset  `json:"assets"`
	Collection     string            `json:"collection,omitempty"`
}

// Properties are the Item properties written by canelevation. Extension
// blocks are embedded so their fields sit at the top level of the object.
type Properties struct {
	Datetime  *Time      `json:"datetime"`
	Campaign  string     `json:"canelevation:campaign,omitempty"`
	Providers []Provider `json:"providers,omitempty"`

	*Pointcloud
	*Projection
}

// Pointcloud holds the point-cloud extension fields.
type Pointcloud struct {
	Count      int64                 `json:"pc:count"`
	Type       string                `json:"pc:type"`
	Encoding   string                `json:"pc:encoding"`
	Schemas    []PointcloudSchema    `json:"pc:schemas"`
	Density    *float64              `json:"pc:density,omitempty"`
	Statistics []PointcloudStatistic `json:"pc:statistics,omitempty"`
}

// PointcloudSchema describes one point dimension.
type PointcloudSchema struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// PointcloudStatistic summarises one dimension.
type PointcloudStatistic struct {
	Name     string   `json:"name"`
	Position *int     `json:"position,omitempty"`
	Average  *float64 `json:"average,omitempty"`
	Count    *int64   `json:"count,omitempty"`
	Maximum  *float64 `json:"maximum,omitempty"`
	Minimum  *float64 `json:"minimum,omitempty"`
	Stddev   *float64 `json:"stddev,omitempty"`
	Variance *float64 `json:"variance,omitempty"`
}

// Projection holds the projection extension fields.
type Projection struct {
	EPSG     int             `json:"proj:epsg"`
	WKT2     string          `json:"proj:wkt2,omitempty"`
	BBox     []float64       `json:"proj:bbox,omitempty"`
	PROJJSON json.RawMessage `json:"proj:projjson,omitempty"`
}

// NewItem creates an item with the STAC boilerplate filled in.
func NewItem(id string) *Item {
	return &Item{
		Type:           "Feature",
		StacVersion:    Version,
		StacExtensions: []string{},
		ID:             id,
		Links:          []Link{},
		Assets:         map[string]Asset{},
	}
}

// SetPointcloud attaches the point-cloud extension.
func (i *Item) SetPointcloud(pc *Pointcloud) {
	i.Properties.Pointcloud = pc
	i.addExtension(PointcloudExtension)
}

// SetProjection attaches the projection extension.
func (i *Item) SetProjection(p *Projection) {
	i.Properties.Projection = p
	i.addExtension(ProjectionExtension)
}

func (i *Item) addExtension(uri string) {
	if !slices.Contains(i.StacExtensions, uri) {
		i.StacExtensions = append(i.StacExtensions, uri)
	}
}

// SelfHref returns the self link target, or "".
func (i *Item) SelfHref() string {
	l, _ := findLink(i.Links, RelSelf)
	return l.Href
}

// Encode prepares the item document for dir: the self link is set to the
// absolute output path and local asset hrefs are made relative to dir.
// The receiver's assets are left untouched.
func (i *Item) Encode(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("stac: resolve %s: %w", dir, err)
	}
	path := filepath.Join(absDir, i.ID+".json")

	out := *i
	out.Links = setLink(i.Links, Link{Rel: RelSelf, Href: filepath.ToSlash(path), Type: MediaTypeJSON})
	out.Assets = make(map[string]Asset, len(i.Assets))
	for key, a := range i.Assets {
		a.Href, err = relativeHref(absDir, a.Href)
		if err != nil {
			return "", nil, err
		}
		out.Assets[key] = a
	}

	data, err := marshal(&out)
	if err != nil {
		return "", nil, err
	}
	i.Links = out.Links
	return path, data, nil
}

// Save writes the item to <dir>/<id>.json.
func (i *Item) Save(dir string) (string, error) {
	path, data, err := i.Encode(dir)
	if err != nil {
		return "", err
	}
	if err := WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// LoadItem reads an item document.
func LoadItem(path string) (*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stac: read item: %w", err)
	}
	var i Item
	if err := json.Unmarshal(data, &i); err != nil {
		return nil, fmt.Errorf("stac: decode item %s: %w", path, err)
	}
	if i.Type != "Feature" {
		return nil, fmt.Errorf("stac: %s is a %q, not an Item", path, i.Type)
	}
	return &i, nil
}

// IsRemote reports whether href is a URL rather than a local path.
func IsRemote(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	// Single letter schemes are Windows drive letters.
	return len(u.Scheme) > 1
}

func relativeHref(absDir, href string) (string, error) {
	if IsRemote(href) || href == "" {
		return href, nil
	}
	abs, err := filepath.Abs(href)
	if err != nil {
		return "", fmt.Errorf("stac: resolve asset %s: %w", href, err)
	}
	rel, err := filepath.Rel(absDir, abs)
	if err != nil {
		return filepath.ToSlash(abs), nil
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}
