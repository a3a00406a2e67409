package reproject

import (
	"testing"

	"canelevation/internal/crs"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, def string) *crs.CRS {
	t.Helper()
	c, err := crs.Parse(def)
	require.NoError(t, err)
	return c
}

func TestBoundToGeographic_Identity(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-123.1, 44.0}, Max: orb.Point{-123.0, 44.1}}

	poly, err := New().BoundToGeographic(mustParse(t, "EPSG:4326"), b)
	require.NoError(t, err)
	require.Len(t, poly, 1)
	require.Len(t, poly[0], 5)

	got := Round(poly, 6).Bound()
	assert.InDelta(t, -123.1, got.Min[0], 1e-9)
	assert.InDelta(t, 44.0, got.Min[1], 1e-9)
	assert.InDelta(t, -123.0, got.Max[0], 1e-9)
	assert.InDelta(t, 44.1, got.Max[1], 1e-9)
}

func TestBoundToGeographic_WebMercator(t *testing.T) {
	// One degree square east of the origin in EPSG:3857 metres.
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{111319.490793, 111325.142866}}

	poly, err := New().BoundToGeographic(mustParse(t, "EPSG:3857"), b)
	require.NoError(t, err)

	got := poly.Bound()
	assert.InDelta(t, 0.0, got.Min[0], 1e-6)
	assert.InDelta(t, 0.0, got.Min[1], 1e-6)
	assert.InDelta(t, 1.0, got.Max[0], 1e-6)
	assert.InDelta(t, 1.0, got.Max[1], 1e-6)
}

func TestBoundToGeographic_BadCRS(t *testing.T) {
	c := mustParse(t, "EPSG:999999")
	_, err := New().BoundToGeographic(c, orb.Bound{})
	assert.ErrorIs(t, err, ErrTransform)
}

func TestRound(t *testing.T) {
	poly := orb.Polygon{{{1.23456789, -9.87654321}, {0.0000004, 0.0000006}}}
	got := Round(poly, 6)
	assert.Equal(t, orb.Point{1.234568, -9.876543}, got[0][0])
	assert.Equal(t, orb.Point{0, 0.000001}, got[0][1])
	assert.Equal(t, 1.23456789, poly[0][0][0], "input must not be modified")
}
