package canelevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"canelevation/internal/crs"
	"canelevation/internal/logger"
	"canelevation/internal/metadata"
	"canelevation/internal/pointcloud"
	"canelevation/internal/reproject"
	"canelevation/internal/stac"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultPointcloudType is the pc:type used when none is given.
const DefaultPointcloudType = "lidar"

// geometryDecimals is the precision of reprojected item coordinates.
const geometryDecimals = 6

// MetadataSource loads dataset metadata from a path or URL.
type MetadataSource interface {
	Load(ctx context.Context, locator string) (*metadata.Dataset, error)
}

// Reprojector transforms a native bound to a geographic polygon.
type Reprojector interface {
	BoundToGeographic(src *crs.CRS, b orb.Bound) (orb.Polygon, error)
}

// Builder creates CanElevation STAC records.
type Builder struct {
	catalog     Catalog
	metadata    MetadataSource
	library     pointcloud.Library
	reprojector Reprojector
	log         *logger.Logger
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(meta MetadataSource, lib pointcloud.Library, rp Reprojector, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Discard()
	}
	return &Builder{
		catalog:     Defaults(),
		metadata:    meta,
		library:     lib,
		reprojector: rp,
		log:         log,
	}
}

// CreateCollection builds the CanElevation collection from the metadata
// at locator, a local file or a URL.
func (b *Builder) CreateCollection(ctx context.Context, locator string) (*stac.Collection, error) {
	if locator == "" {
		locator = b.catalog.MetadataURL()
	}
	b.log.Info("creating collection", "metadata", locator)

	ds, err := b.metadata.Load(ctx, locator)
	if err != nil {
		return nil, err
	}

	c := stac.NewCollection(b.catalog.CollectionID(), ds.Description, ds.LicenseID)
	c.Title = ds.Title
	c.Keywords = b.catalog.Keywords()
	c.Providers = []stac.Provider{{
		Name:  ds.Provider,
		Roles: []string{stac.RoleHost, stac.RoleLicensor, stac.RoleProcessor, stac.RoleProducer},
		URL:   b.catalog.ProviderURL(),
	}}

	var end *stac.Time
	if ds.End != nil {
		end = stac.NewTime(*ds.End)
	}
	c.Extent = stac.Extent{
		Spatial:  stac.SpatialExtent{BBox: [][]float64{stac.BoundToBBox(ds.BBox)}},
		Temporal: stac.TemporalExtent{Interval: [][]*stac.Time{{stac.NewTime(ds.Start), end}}},
	}
	c.AddLink(stac.Link{Rel: stac.RelLicense, Href: ds.LicenseURL, Title: ds.LicenseTitle})

	return c, nil
}

// ItemOptions control how an item is built.
type ItemOptions struct {
	// Reader overrides the reader driver, e.g. "readers.copc".
	Reader string
	// Quick reads only the header summary.
	Quick bool
	// PointcloudType is the pc:type value, DefaultPointcloudType if empty.
	PointcloudType string
	// ComputeStatistics runs a statistics pass over every point.
	ComputeStatistics bool
	// Providers are added to the item properties.
	Providers []stac.Provider
}

// headerFacts are the mode-dependent values of an item.
type headerFacts struct {
	count    int64
	schemas  []stac.PointcloudSchema
	datetime time.Time
}

// CreateItem builds an item from the point-cloud file at href.
func (b *Builder) CreateItem(ctx context.Context, href string, opts ItemOptions) (*stac.Item, error) {
	reader := pointcloud.Reader{Href: href, Type: opts.Reader}
	log := b.log.With("href", href, "quick", opts.Quick)
	log.Info("creating item")

	header, err := b.readHeader(ctx, reader, opts.Quick)
	if err != nil {
		return nil, err
	}

	id, encoding := ItemID(href)
	facts, err := describe(header, id)
	if err != nil {
		return nil, err
	}

	src, err := crs.Parse(header.SpatialReference())
	if err != nil {
		return nil, fmt.Errorf("parse spatial reference of %s: %w", href, err)
	}

	native := header.Bounds()
	poly, err := b.reprojector.BoundToGeographic(src, native)
	if err != nil {
		return nil, err
	}
	poly = reproject.Round(poly, geometryDecimals)

	item := stac.NewItem(id)
	item.Geometry = geojson.NewGeometry(poly)
	item.BBox = stac.BoundToBBox(poly.Bound())
	item.Properties.Datetime = stac.NewTime(facts.datetime)
	item.Properties.Campaign = Campaign(id)
	if len(opts.Providers) > 0 {
		item.Properties.Providers = slices.Clone(opts.Providers)
	}
	item.Assets["pointcloud"] = stac.Asset{
		Href:  href,
		Type:  stac.MediaTypeBinary,
		Title: encoding + " point cloud",
		Roles: []string{"data"},
	}

	pcType := opts.PointcloudType
	if pcType == "" {
		pcType = DefaultPointcloudType
	}
	pc := &stac.Pointcloud{
		Count:    facts.count,
		Type:     pcType,
		Encoding: encoding,
		Schemas:  facts.schemas,
	}
	if opts.ComputeStatistics {
		log.Info("computing statistics")
		if pc.Statistics, err = b.statistics(ctx, reader); err != nil {
			return nil, err
		}
	}
	item.SetPointcloud(pc)

	if code, err := src.EPSG(); err == nil {
		item.SetProjection(projection(code, src, header.SRSBlock(), native))
	} else {
		log.Warn("projection extension omitted", "crs", src.String(), "reason", err)
	}

	return item, nil
}

func (b *Builder) readHeader(ctx context.Context, reader pointcloud.Reader, quick bool) (pointcloud.Header, error) {
	if quick {
		meta, err := b.library.QuickInfo(ctx, reader)
		if err != nil {
			return nil, fmt.Errorf("read header summary of %s: %w", reader.Href, err)
		}
		return meta.QuickHeader()
	}

	exec, err := b.library.Execute(ctx, pointcloud.NewPipeline(reader, pointcloud.HeadFilter(0)))
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", reader.Href, err)
	}
	h, err := exec.Metadata.FullHeader()
	if err != nil {
		return nil, err
	}
	if h.Schema, err = b.library.Schema(ctx, reader); err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", reader.Href, err)
	}
	return h, nil
}

// describe maps the mode-specific header fields. Quick headers only list
// dimension names, so their schema entries are zero-size signed stubs.
func describe(h pointcloud.Header, id string) (headerFacts, error) {
	switch h := h.(type) {
	case *pointcloud.FullHeader:
		dt, err := HeaderDate(h.CreationYear, h.CreationDOY)
		if err != nil {
			return headerFacts{}, err
		}
		schemas := make([]stac.PointcloudSchema, len(h.Schema))
		for i, d := range h.Schema {
			schemas[i] = stac.PointcloudSchema{Name: d.Name, Size: d.Size, Type: d.Type}
		}
		return headerFacts{count: h.Count, schemas: schemas, datetime: dt}, nil

	case *pointcloud.QuickHeader:
		names := h.DimensionNames()
		schemas := make([]stac.PointcloudSchema, len(names))
		for i, name := range names {
			schemas[i] = stac.PointcloudSchema{Name: name, Size: 0, Type: "signed"}
		}
		return headerFacts{count: h.NumPoints, schemas: schemas, datetime: QuickDate(id)}, nil

	default:
		return headerFacts{}, fmt.Errorf("canelevation: unsupported header %T", h)
	}
}

func (b *Builder) statistics(ctx context.Context, reader pointcloud.Reader) ([]stac.PointcloudStatistic, error) {
	exec, err := b.library.Execute(ctx, pointcloud.NewPipeline(reader, pointcloud.StatsFilter()))
	if err != nil {
		return nil, fmt.Errorf("compute statistics of %s: %w", reader.Href, err)
	}
	stats, err := exec.Metadata.Statistics()
	if err != nil {
		return nil, err
	}

	out := make([]stac.PointcloudStatistic, len(stats))
	for i, s := range stats {
		out[i] = stac.PointcloudStatistic{
			Name:     s.Name,
			Position: &s.Position,
			Average:  &s.Average,
			Count:    &s.Count,
			Maximum:  &s.Maximum,
			Minimum:  &s.Minimum,
			Stddev:   &s.Stddev,
			Variance: &s.Variance,
		}
	}
	return out, nil
}

func projection(code int, src *crs.CRS, srs *pointcloud.SRS, native orb.Bound) *stac.Projection {
	p := &stac.Projection{
		EPSG: code,
		WKT2: src.WKT(),
		BBox: stac.BoundToBBox(native),
	}
	if p.WKT2 == "" && srs != nil {
		p.WKT2 = srs.WKT
	}
	if srs.HasPROJJSON() {
		p.PROJJSON = slices.Clone(srs.PROJJSON)
	}
	return p
}

// LoadProviders reads a JSON array of providers from path.
func LoadProviders(path string) ([]stac.Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers: %w", err)
	}
	var providers []stac.Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("decode providers %s: %w", path, err)
	}
	for i, p := range providers {
		if p.Name == "" {
			return nil, fmt.Errorf("decode providers %s: entry %d: %w", path, i, errProviderName)
		}
	}
	return providers, nil
}

var errProviderName = errors.New("provider name is required")
