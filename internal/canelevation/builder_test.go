package canelevation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"canelevation/internal/config"
	"canelevation/internal/crs"
	"canelevation/internal/metadata"
	"canelevation/internal/pdal"
	"canelevation/internal/pdal/pdaltest"
	"canelevation/internal/pointcloud"
	"canelevation/internal/stac"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fortMcMurray = "AB_FortMcMurray2018_20180518_NAD83CSRS_UTMZ12_1km_E4760_N62940_CQL1_CLASS.copc.laz"

// fakeReprojector returns a fixed geographic box around Autzen Stadium.
type fakeReprojector struct {
	src *crs.CRS
	in  orb.Bound
	err error
}

func (f *fakeReprojector) BoundToGeographic(src *crs.CRS, b orb.Bound) (orb.Polygon, error) {
	f.src, f.in = src, b
	if f.err != nil {
		return nil, f.err
	}
	return orb.Polygon{{
		{-123.07553891, 44.04977534},
		{-123.06196712, 44.04983612},
		{-123.06188273, 44.06227401},
		{-123.07546059, 44.06221318},
		{-123.07553891, 44.04977534},
	}}, nil
}

// fakeLibrary serves canned metadata.
type fakeLibrary struct {
	quick pointcloud.Metadata
	full  pointcloud.Metadata
	stats pointcloud.Metadata
}

func (f *fakeLibrary) Execute(_ context.Context, p pointcloud.Pipeline) (*pointcloud.Execution, error) {
	if p.Filters[0]["type"] == "filters.stats" {
		return &pointcloud.Execution{Metadata: f.stats}, nil
	}
	return &pointcloud.Execution{Metadata: f.full}, nil
}

func (f *fakeLibrary) Schema(context.Context, pointcloud.Reader) ([]pointcloud.Dimension, error) {
	return []pointcloud.Dimension{{Name: "X", Size: 8, Type: "floating"}}, nil
}

func (f *fakeLibrary) QuickInfo(context.Context, pointcloud.Reader) (pointcloud.Metadata, error) {
	return f.quick, nil
}

func newPDALBuilder(t *testing.T) (*Builder, *pdaltest.Fake, *fakeReprojector) {
	t.Helper()
	fake := pdaltest.Install(t)
	lib := pdal.New(config.PDALConfig{Binary: fake.Binary, Timeout: time.Minute}, nil)
	rp := &fakeReprojector{}
	return NewBuilder(metadata.NewLoader(nil, nil), lib, rp, nil), fake, rp
}

func TestCreateItem_Full(t *testing.T) {
	b, fake, rp := newPDALBuilder(t)

	item, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{})
	require.NoError(t, err)

	assert.JSONEq(t, `["autzen_trim.las",{"type":"filters.head","count":0}]`, fake.LastPipeline())
	assert.Equal(t, "autzen_trim", item.ID)
	assert.Equal(t, time.Date(2015, 9, 10, 0, 0, 0, 0, time.UTC), item.Properties.Datetime.Time)
	assert.Equal(t, UnknownCampaign, item.Properties.Campaign)
	assert.Empty(t, item.Properties.Providers)

	pc := item.Properties.Pointcloud
	require.NotNil(t, pc)
	assert.EqualValues(t, 110000, pc.Count)
	assert.Equal(t, "lidar", pc.Type)
	assert.Equal(t, "las", pc.Encoding)
	assert.Len(t, pc.Schemas, 16)
	assert.Equal(t, stac.PointcloudSchema{Name: "Intensity", Size: 2, Type: "unsigned"}, pc.Schemas[3])
	assert.Nil(t, pc.Statistics)

	native := orb.Bound{Min: orb.Point{635577.79, 848882.15}, Max: orb.Point{639003.73, 853537.66}}
	assert.Equal(t, native, rp.in)
	code, err := rp.src.EPSG()
	require.NoError(t, err)
	assert.Equal(t, 2994, code)

	proj := item.Properties.Projection
	require.NotNil(t, proj)
	assert.Equal(t, 2994, proj.EPSG)
	assert.Contains(t, proj.WKT2, `PROJCS["NAD83(HARN) / Oregon GIC Lambert (ft)"`)
	assert.Equal(t, []float64{635577.79, 848882.15, 639003.73, 853537.66}, proj.BBox)
	assert.Contains(t, string(proj.PROJJSON), `"ProjectedCRS"`)
	assert.Equal(t, []string{stac.PointcloudExtension, stac.ProjectionExtension}, item.StacExtensions)

	assert.Equal(t, []float64{-123.075539, 44.049775, -123.061883, 44.062274}, item.BBox)
	ring := item.Geometry.Geometry().(orb.Polygon)[0]
	assert.Equal(t, orb.Point{-123.075539, 44.049775}, ring[0])
	assert.True(t, item.BBox[0] >= -180 && item.BBox[2] <= 180 && item.BBox[1] >= -90 && item.BBox[3] <= 90)

	asset := item.Assets["pointcloud"]
	assert.Equal(t, "autzen_trim.las", asset.Href)
	assert.Equal(t, "application/octet-stream", asset.Type)
	assert.Equal(t, "las point cloud", asset.Title)
	assert.Equal(t, []string{"data"}, asset.Roles)
}

func TestCreateItem_Quick(t *testing.T) {
	b, fake, _ := newPDALBuilder(t)

	item, err := b.CreateItem(context.Background(), fortMcMurray, ItemOptions{Quick: true, PointcloudType: "eopc"})
	require.NoError(t, err)

	assert.Equal(t, []string{"info --summary " + fortMcMurray}, fake.Calls())
	assert.Equal(t, "AB_FortMcMurray2018_20180518_NAD83CSRS_UTMZ12_1km_E4760_N62940_CQL1_CLASS", item.ID)
	assert.Equal(t, "AB_FortMcMurray2018_2018", item.Properties.Campaign)
	assert.Equal(t, time.Date(2018, 5, 18, 0, 0, 0, 0, time.UTC), item.Properties.Datetime.Time)

	pc := item.Properties.Pointcloud
	assert.Equal(t, "laz", pc.Encoding)
	assert.Equal(t, "eopc", pc.Type)
	assert.EqualValues(t, 110000, pc.Count)
	require.Len(t, pc.Schemas, 16)
	for _, s := range pc.Schemas {
		assert.Equal(t, 0, s.Size)
		assert.Equal(t, "signed", s.Type)
	}
	assert.Equal(t, "X", pc.Schemas[0].Name)
	assert.Equal(t, "laz point cloud", item.Assets["pointcloud"].Title)
}

func TestCreateItem_QuickWithoutDate(t *testing.T) {
	b, _, _ := newPDALBuilder(t)
	item, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{Quick: true})
	require.NoError(t, err)
	assert.Equal(t, QuickModeDate(), item.Properties.Datetime.Time)
}

func TestCreateItem_Statistics(t *testing.T) {
	b, fake, _ := newPDALBuilder(t)

	item, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{ComputeStatistics: true})
	require.NoError(t, err)
	assert.JSONEq(t, `["autzen_trim.las",{"type":"filters.stats"}]`, fake.LastPipeline())

	stats := item.Properties.Statistics
	require.Len(t, stats, 4)
	assert.Equal(t, "Z", stats[2].Name)
	require.NotNil(t, stats[2].Maximum)
	assert.Equal(t, 615.26, *stats[2].Maximum)
	assert.Equal(t, 1, *stats[1].Position)
}

func TestCreateItem_NoStatistics(t *testing.T) {
	b, fake, _ := newPDALBuilder(t)
	fake.SetFixture(pdaltest.Stats, []byte(`{"metadata":{"readers.las":{}}}`))

	_, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{ComputeStatistics: true})
	assert.ErrorIs(t, err, pointcloud.ErrNoStatistics)
}

func TestCreateItem_ReaderOverride(t *testing.T) {
	b, fake, _ := newPDALBuilder(t)

	_, err := b.CreateItem(context.Background(), "tile.laz", ItemOptions{Reader: "readers.copc"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"readers.copc","filename":"tile.laz"},{"type":"filters.head","count":0}]`, fake.LastPipeline())
	assert.Contains(t, fake.Calls(), "info --schema --driver readers.copc tile.laz")
}

func TestCreateItem_Providers(t *testing.T) {
	b, _, _ := newPDALBuilder(t)
	providers, err := LoadProviders(filepath.Join("testdata", "providers.json"))
	require.NoError(t, err)

	item, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{Providers: providers})
	require.NoError(t, err)
	require.Len(t, item.Properties.Providers, 2)
	assert.Equal(t, "Alberta Environment and Parks", item.Properties.Providers[0].Name)

	providers[0].Name = "mutated"
	assert.Equal(t, "Alberta Environment and Parks", item.Properties.Providers[0].Name)
}

func TestCreateItem_Idempotent(t *testing.T) {
	b, _, _ := newPDALBuilder(t)
	dir := t.TempDir()

	first, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{})
	require.NoError(t, err)
	second, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{})
	require.NoError(t, err)

	_, a, err := first.Encode(dir)
	require.NoError(t, err)
	_, c, err := second.Encode(dir)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(c))
}

func TestCreateItem_LibraryFailure(t *testing.T) {
	b, fake, _ := newPDALBuilder(t)
	fake.Fail("readers.las: Unable to open stream")

	_, err := b.CreateItem(context.Background(), "missing.las", ItemOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to open stream")
}

func TestCreateItem_ReprojectionFailure(t *testing.T) {
	fake := pdaltest.Install(t)
	lib := pdal.New(config.PDALConfig{Binary: fake.Binary}, nil)
	boom := errors.New("proj: no operation")
	b := NewBuilder(nil, lib, &fakeReprojector{err: boom}, nil)

	_, err := b.CreateItem(context.Background(), "autzen_trim.las", ItemOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestCreateItem_NoReaderKey(t *testing.T) {
	lib := &fakeLibrary{
		full:  pointcloud.Metadata{"filters.head": json.RawMessage(`{}`)},
		quick: pointcloud.Metadata{"summary": json.RawMessage(`{}`)},
	}
	b := NewBuilder(nil, lib, &fakeReprojector{}, nil)

	_, err := b.CreateItem(context.Background(), "a.las", ItemOptions{})
	assert.ErrorIs(t, err, pointcloud.ErrNoReaderKey)

	_, err = b.CreateItem(context.Background(), "a.las", ItemOptions{Quick: true})
	assert.ErrorIs(t, err, pointcloud.ErrNoReaderKey)
}

func TestCreateItem_UnresolvedEPSG(t *testing.T) {
	wkt, err := os.ReadFile(filepath.Join("..", "crs", "testdata", "compound.wkt"))
	require.NoError(t, err)
	summary, err := json.Marshal(map[string]any{
		"num_points": 12,
		"srs":        map[string]string{"compoundwkt": string(wkt)},
		"bounds":     map[string]float64{"minx": 476000, "miny": 6294000, "maxx": 477000, "maxy": 6295000},
		"dimensions": "X, Y, Z",
	})
	require.NoError(t, err)

	lib := &fakeLibrary{quick: pointcloud.Metadata{"readers.copc": summary}}
	b := NewBuilder(nil, lib, &fakeReprojector{}, nil)

	item, err := b.CreateItem(context.Background(), fortMcMurray, ItemOptions{Quick: true})
	require.NoError(t, err)
	assert.Nil(t, item.Properties.Projection)
	assert.Equal(t, []string{stac.PointcloudExtension}, item.StacExtensions)
	assert.EqualValues(t, 12, item.Properties.Count)
}

func TestCreateItem_InvalidYear(t *testing.T) {
	lib := &fakeLibrary{full: pointcloud.Metadata{
		"readers.las": json.RawMessage(`{"count":1,"spatialreference":"EPSG:2994","creation_year":0,"creation_doy":0}`),
	}}
	b := NewBuilder(nil, lib, &fakeReprojector{}, nil)

	_, err := b.CreateItem(context.Background(), "a.las", ItemOptions{})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCreateItem_EmptySpatialReference(t *testing.T) {
	lib := &fakeLibrary{full: pointcloud.Metadata{
		"readers.las": json.RawMessage(`{"count":1,"spatialreference":"","creation_year":2020,"creation_doy":1}`),
	}}
	b := NewBuilder(nil, lib, &fakeReprojector{}, nil)

	_, err := b.CreateItem(context.Background(), "a.las", ItemOptions{})
	assert.ErrorIs(t, err, crs.ErrEmpty)
}

func TestCreateCollection(t *testing.T) {
	b := NewBuilder(metadata.NewLoader(nil, nil), nil, nil, nil)

	c, err := b.CreateCollection(context.Background(), filepath.Join("..", "metadata", "testdata", "result.json"))
	require.NoError(t, err)

	assert.Equal(t, "nrcan-canelevation", c.ID)
	assert.Equal(t, "Lidar Point Clouds - CanElevation Series", c.Title)
	assert.Equal(t, "ca-ogl-lgo", c.License)
	assert.Equal(t, Defaults().Keywords(), c.Keywords)

	require.Len(t, c.Providers, 1)
	p := c.Providers[0]
	assert.Equal(t, "Natural Resources Canada | Ressources naturelles Canada", p.Name)
	assert.Equal(t, []string{"host", "licensor", "processor", "producer"}, p.Roles)
	assert.Equal(t, Defaults().ProviderURL(), p.URL)

	require.Len(t, c.Extent.Spatial.BBox, 1)
	assert.Equal(t, []float64{-141.003, 41.6755, -52.6174, 83.1139}, c.Extent.Spatial.BBox[0])
	require.Len(t, c.Extent.Temporal.Interval, 1)
	assert.Equal(t, time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), c.Extent.Temporal.Interval[0][0].Time)
	assert.Nil(t, c.Extent.Temporal.Interval[0][1])

	require.Len(t, c.Links, 1)
	assert.Equal(t, stac.Link{Rel: "license", Href: "https://open.canada.ca/en/open-government-licence-canada", Title: "Open Government Licence - Canada"}, c.Links[0])
}

type staticMetadata struct {
	ds      *metadata.Dataset
	err     error
	locator string
}

func (s *staticMetadata) Load(_ context.Context, locator string) (*metadata.Dataset, error) {
	s.locator = locator
	return s.ds, s.err
}

func TestCreateCollection_DefaultLocatorAndEnd(t *testing.T) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	src := &staticMetadata{ds: &metadata.Dataset{
		Title: "t", Description: "d", Provider: "p", LicenseID: "l",
		Start: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), End: &end,
	}}
	b := NewBuilder(src, nil, nil, nil)

	c, err := b.CreateCollection(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Defaults().MetadataURL(), src.locator)
	require.NotNil(t, c.Extent.Temporal.Interval[0][1])
	assert.Equal(t, end, c.Extent.Temporal.Interval[0][1].Time)

	src.err = metadata.ErrFetch
	_, err = b.CreateCollection(context.Background(), "x")
	assert.ErrorIs(t, err, metadata.ErrFetch)
}

func TestLoadProviders_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadProviders(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":"x"}`), 0o644))
	_, err = LoadProviders(bad)
	assert.Error(t, err)

	unnamed := filepath.Join(dir, "unnamed.json")
	require.NoError(t, os.WriteFile(unnamed, []byte(`[{"roles":["host"]}]`), 0o644))
	_, err = LoadProviders(unnamed)
	assert.ErrorIs(t, err, errProviderName)
}
