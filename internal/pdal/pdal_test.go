package pdal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"canelevation/internal/config"
	"canelevation/internal/pdal/pdaltest"
	"canelevation/internal/pointcloud"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*Client, *pdaltest.Fake) {
	t.Helper()
	fake := pdaltest.Install(t)
	return New(config.PDALConfig{Binary: fake.Binary, Timeout: time.Minute}, nil), fake
}

func TestClient_Execute(t *testing.T) {
	c, fake := newClient(t)
	reader := pointcloud.Reader{Href: "autzen_trim.las"}

	exec, err := c.Execute(context.Background(), pointcloud.NewPipeline(reader, pointcloud.HeadFilter(0)))
	require.NoError(t, err)

	assert.JSONEq(t, `["autzen_trim.las",{"type":"filters.head","count":0}]`, fake.LastPipeline())
	key, err := exec.Metadata.ReaderKey()
	require.NoError(t, err)
	assert.Equal(t, "readers.las", key)

	h, err := exec.Metadata.FullHeader()
	require.NoError(t, err)
	assert.EqualValues(t, 110000, h.Count)
	assert.Equal(t, 2015, h.CreationYear)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0], "pipeline --stdin --metadata "))
}

func TestClient_ExecuteStatsEnvelope(t *testing.T) {
	c, _ := newClient(t)

	exec, err := c.Execute(context.Background(),
		pointcloud.NewPipeline(pointcloud.Reader{Href: "autzen_trim.las"}, pointcloud.StatsFilter()))
	require.NoError(t, err)

	stats, err := exec.Metadata.Statistics()
	require.NoError(t, err)
	assert.Len(t, stats, 4)
	assert.Equal(t, "Intensity", stats[3].Name)
}

func TestDecodeStages(t *testing.T) {
	bare, err := decodeStages([]byte(`{"readers.las":{"count":1}}`))
	require.NoError(t, err)
	assert.Contains(t, bare, "readers.las")

	_, err = decodeStages([]byte(`not json`))
	assert.Error(t, err)

	_, err = decodeStages([]byte(`{"stages":[1,2]}`))
	assert.Error(t, err)
}

func TestClient_Schema(t *testing.T) {
	c, fake := newClient(t)

	dims, err := c.Schema(context.Background(), pointcloud.Reader{Href: "x.laz", Type: "readers.copc"})
	require.NoError(t, err)
	require.Len(t, dims, 16)
	assert.Equal(t, pointcloud.Dimension{Name: "X", Size: 8, Type: "floating"}, dims[0])
	assert.Equal(t, []string{"info --schema --driver readers.copc x.laz"}, fake.Calls())
}

func TestClient_QuickInfo(t *testing.T) {
	c, fake := newClient(t)

	meta, err := c.QuickInfo(context.Background(), pointcloud.Reader{Href: "autzen_trim.las"})
	require.NoError(t, err)
	h, err := meta.QuickHeader()
	require.NoError(t, err)
	assert.EqualValues(t, 110000, h.NumPoints)
	assert.Len(t, h.DimensionNames(), 16)
	assert.Equal(t, []string{"info --summary autzen_trim.las"}, fake.Calls())
}

func TestClient_QuickInfoInfersReader(t *testing.T) {
	c, fake := newClient(t)
	fake.SetFixture(pdaltest.Summary, []byte(`{"summary":{"num_points":3}}`))

	meta, err := c.QuickInfo(context.Background(), pointcloud.Reader{Href: "tile.copc.laz"})
	require.NoError(t, err)
	assert.Contains(t, meta, "readers.copc")

	fake.SetFixture(pdaltest.Summary, []byte(`{"reader":"readers.las"}`))
	_, err = c.QuickInfo(context.Background(), pointcloud.Reader{Href: "tile.las"})
	assert.Error(t, err)
}

func TestClient_Version(t *testing.T) {
	c, _ := newClient(t)
	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.6.3", v)
}

func TestClient_Failure(t *testing.T) {
	c, fake := newClient(t)
	fake.Fail("Unable to open stream for 'missing.las'")

	_, err := c.Schema(context.Background(), pointcloud.Reader{Href: "missing.las"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to open stream")
}

func TestClient_NotInstalled(t *testing.T) {
	c := New(config.PDALConfig{Binary: filepath.Join(t.TempDir(), "no-pdal")}, nil)
	_, err := c.Version(context.Background())
	assert.True(t, errors.Is(err, ErrNotInstalled), "got %v", err)
}
