package pointcloud

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// SRS is the spatial reference block a reader reports.
type SRS struct {
	CompoundWKT string          `json:"compoundwkt,omitempty"`
	WKT         string          `json:"wkt,omitempty"`
	PROJJSON    json.RawMessage `json:"json,omitempty"`
}

// HasPROJJSON reports whether the block carries a PROJJSON object.
func (s *SRS) HasPROJJSON() bool {
	if s == nil {
		return false
	}
	trimmed := strings.TrimSpace(string(s.PROJJSON))
	return strings.HasPrefix(trimmed, "{")
}

// Header is the reader metadata of one file. It is either a *FullHeader or
// a *QuickHeader.
type Header interface {
	Bounds() orb.Bound
	SpatialReference() string
	SRSBlock() *SRS
	isHeader()
}

// FullHeader is read from an executed pipeline.
type FullHeader struct {
	Count        int64   `json:"count"`
	SpatialRef   string  `json:"spatialreference"`
	MinX         float64 `json:"minx"`
	MinY         float64 `json:"miny"`
	MaxX         float64 `json:"maxx"`
	MaxY         float64 `json:"maxy"`
	CreationYear int     `json:"creation_year"`
	CreationDOY  int     `json:"creation_doy"`
	SRS          *SRS    `json:"srs,omitempty"`

	Schema []Dimension `json:"-"`
}

func (*FullHeader) isHeader() {}

// Bounds implements Header.
func (h *FullHeader) Bounds() orb.Bound {
	return orb.Bound{Min: orb.Point{h.MinX, h.MinY}, Max: orb.Point{h.MaxX, h.MaxY}}
}

// SpatialReference implements Header.
func (h *FullHeader) SpatialReference() string { return h.SpatialRef }

// SRSBlock implements Header.
func (h *FullHeader) SRSBlock() *SRS { return h.SRS }

// QuickHeader is read from the header summary only.
type QuickHeader struct {
	NumPoints  int64 `json:"num_points"`
	SRS        *SRS  `json:"srs,omitempty"`
	BoundsInfo struct {
		MinX float64 `json:"minx"`
		MinY float64 `json:"miny"`
		MaxX float64 `json:"maxx"`
		MaxY float64 `json:"maxy"`
	} `json:"bounds"`
	Dimensions string `json:"dimensions"`
}

func (*QuickHeader) isHeader() {}

// Bounds implements Header.
func (h *QuickHeader) Bounds() orb.Bound {
	b := h.BoundsInfo
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// SpatialReference implements Header.
func (h *QuickHeader) SpatialReference() string {
	if h.SRS == nil {
		return ""
	}
	return h.SRS.CompoundWKT
}

// SRSBlock implements Header.
func (h *QuickHeader) SRSBlock() *SRS { return h.SRS }

// DimensionNames splits the comma-separated dimension list.
func (h *QuickHeader) DimensionNames() []string {
	var names []string
	for _, name := range strings.Split(h.Dimensions, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FullHeader decodes the reader block of executed pipeline metadata.
func (m Metadata) FullHeader() (*FullHeader, error) {
	key, err := m.ReaderKey()
	if err != nil {
		return nil, err
	}
	var h FullHeader
	if err := json.Unmarshal(m[key], &h); err != nil {
		return nil, fmt.Errorf("pointcloud: decode %s: %w", key, err)
	}
	return &h, nil
}

// QuickHeader decodes the reader block of header summary metadata.
func (m Metadata) QuickHeader() (*QuickHeader, error) {
	key, err := m.ReaderKey()
	if err != nil {
		return nil, err
	}
	var h QuickHeader
	if err := json.Unmarshal(m[key], &h); err != nil {
		return nil, fmt.Errorf("pointcloud: decode %s: %w", key, err)
	}
	return &h, nil
}
