// Package pointcloud defines the boundary between the item builder and the
// point-cloud processing library: readers, pipelines, header metadata and
// statistics.
package pointcloud

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sort"
	"strings"
)

var (
	// ErrNoReaderKey is returned when no top-level metadata key names a reader.
	ErrNoReaderKey = errors.New("pointcloud: no reader key in metadata")

	// ErrNoStatistics is returned when a stats pipeline reports no statistics.
	ErrNoStatistics = errors.New("pointcloud: no statistics in metadata")
)

// Library is the point-cloud processing library.
type Library interface {
	// Execute runs a pipeline and returns its per-stage metadata.
	Execute(ctx context.Context, p Pipeline) (*Execution, error)
	// Schema returns the point layout the reader produces.
	Schema(ctx context.Context, r Reader) ([]Dimension, error)
	// QuickInfo reads only the header summary, keyed by reader name.
	QuickInfo(ctx context.Context, r Reader) (Metadata, error)
}

// Reader selects the file to read and, optionally, the reader driver.
type Reader struct {
	Href string
	Type string
}

// MarshalJSON encodes the reader as the bare href, or as a stage object
// when a driver override is set.
func (r Reader) MarshalJSON() ([]byte, error) {
	if r.Type == "" {
		return json.Marshal(r.Href)
	}
	return json.Marshal(struct {
		Type     string `json:"type"`
		Filename string `json:"filename"`
	}{r.Type, r.Href})
}

// Driver returns the override type, else the driver inferred from the
// file extension.
func (r Reader) Driver() string {
	if r.Type != "" {
		return r.Type
	}
	return InferDriver(r.Href)
}

var extensionDrivers = map[string]string{
	"las":     "readers.las",
	"laz":     "readers.las",
	"e57":     "readers.e57",
	"ply":     "readers.ply",
	"pcd":     "readers.pcd",
	"bpf":     "readers.bpf",
	"txt":     "readers.text",
	"csv":     "readers.text",
	"xyz":     "readers.text",
	"json":    "readers.ept",
	"tif":     "readers.gdal",
	"tiff":    "readers.gdal",
	"sqlite":  "readers.gpkg",
	"gpkg":    "readers.gpkg",
	"pts":     "readers.pts",
	"ptx":     "readers.ptx",
	"obj":     "readers.obj",
	"draco":   "readers.draco",
	"mbio":    "readers.mbio",
	"h5":      "readers.hdf",
	"fbi":     "readers.fbi",
	"nitf":    "readers.nitf",
	"ntf":     "readers.nitf",
	"sbet":    "readers.sbet",
	"tindex":  "readers.tindex",
	"bin":     "readers.terrasolid",
	"qi":      "readers.qfit",
	"i3s":     "readers.i3s",
	"slpk":    "readers.slpk",
	"stac":    "readers.stac",
	"memfile": "readers.memoryview",
}

// InferDriver guesses the reader driver from href's extension the way the
// library does when none is given. COPC files are recognised by their
// double extension.
func InferDriver(href string) string {
	base := strings.ToLower(path.Base(stripQuery(href)))
	if strings.HasSuffix(base, ".copc.laz") {
		return "readers.copc"
	}
	if base == "ept.json" {
		return "readers.ept"
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	if d, ok := extensionDrivers[ext]; ok {
		return d
	}
	return "readers.auto"
}

func stripQuery(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i]
	}
	return href
}

// Filter is a pipeline filter stage.
type Filter map[string]any

// HeadFilter keeps the first count points.
func HeadFilter(count int) Filter {
	return Filter{"type": "filters.head", "count": count}
}

// StatsFilter computes per-dimension statistics.
func StatsFilter() Filter {
	return Filter{"type": "filters.stats"}
}

// Pipeline is a reader followed by filter stages, encoded as a JSON array.
type Pipeline struct {
	Reader  Reader
	Filters []Filter
}

// NewPipeline creates a pipeline.
func NewPipeline(r Reader, filters ...Filter) Pipeline {
	return Pipeline{Reader: r, Filters: filters}
}

// MarshalJSON implements json.Marshaler.
func (p Pipeline) MarshalJSON() ([]byte, error) {
	stages := make([]any, 0, len(p.Filters)+1)
	stages = append(stages, p.Reader)
	for _, f := range p.Filters {
		stages = append(stages, f)
	}
	return json.Marshal(stages)
}

// Metadata maps stage names to their raw metadata block.
type Metadata map[string]json.RawMessage

// ReaderKey returns the first key, in sorted order, that names a reader.
func (m Metadata) ReaderKey() (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(k, "readers") {
			return k, nil
		}
	}
	return "", ErrNoReaderKey
}

// Execution is the result of running a pipeline.
type Execution struct {
	Metadata Metadata
}

// Dimension is one entry of the point layout.
type Dimension struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// Statistic holds the summary statistics of one dimension.
type Statistic struct {
	Name     string  `json:"name"`
	Position int     `json:"position"`
	Average  float64 `json:"average"`
	Count    int64   `json:"count"`
	Maximum  float64 `json:"maximum"`
	Minimum  float64 `json:"minimum"`
	Stddev   float64 `json:"stddev"`
	Variance float64 `json:"variance"`
}

// Statistics extracts filters.stats results from pipeline metadata.
func (m Metadata) Statistics() ([]Statistic, error) {
	raw, ok := m["filters.stats"]
	if !ok {
		return nil, ErrNoStatistics
	}
	var block struct {
		Statistic []Statistic `json:"statistic"`
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}
	if block.Statistic == nil {
		return nil, ErrNoStatistics
	}
	return block.Statistic, nil
}
