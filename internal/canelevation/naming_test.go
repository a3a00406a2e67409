package canelevation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemID(t *testing.T) {
	tests := []struct {
		href, id, encoding string
	}{
		{"autzen_trim.las", "autzen_trim", "las"},
		{"/data/tiles/x.copc.laz", "x", "laz"},
		{"https://ftp-maps-canada-ca.s3.amazonaws.com/pub/elevation/AB_FortMcMurray2018_20180518_NAD83CSRS_UTMZ12_1km_E4760_N62940_CQL1_CLASS.copc.laz",
			"AB_FortMcMurray2018_20180518_NAD83CSRS_UTMZ12_1km_E4760_N62940_CQL1_CLASS", "laz"},
		{"https://host/a/b.laz?token=abc.def", "b", "laz"},
		{"noext", "noext", ""},
	}
	for _, tt := range tests {
		id, enc := ItemID(tt.href)
		assert.Equal(t, tt.id, id, tt.href)
		assert.Equal(t, tt.encoding, enc, tt.href)
	}
}

func TestCampaign(t *testing.T) {
	assert.Equal(t, "AB_FortMcMurray2018_2018",
		Campaign("AB_FortMcMurray2018_20180518_NAD83CSRS_UTMZ12_1km_E4760_N62940_CQL1_CLASS"))
	assert.Equal(t, "NS_Halifax_2019", Campaign("NS_Halifax_2019"))
	assert.Equal(t, UnknownCampaign, Campaign("autzen_trim"))
	assert.Equal(t, UnknownCampaign, Campaign("ab_lower_2019"))
}

func TestQuickDate(t *testing.T) {
	assert.Equal(t, time.Date(2018, 5, 18, 0, 0, 0, 0, time.UTC),
		QuickDate("AB_FortMcMurray2018_20180518_NAD83CSRS"))
	assert.Equal(t, QuickModeDate(), QuickDate("autzen_trim"))
	assert.Equal(t, QuickModeDate(), QuickDate("tile_99999999"), "not a calendar date")
	assert.Equal(t, time.Date(1901, 1, 1, 0, 0, 0, 0, time.UTC), QuickModeDate())
}

func TestHeaderDate(t *testing.T) {
	got, err := HeaderDate(2015, 253)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 9, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = HeaderDate(2020, 366)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = HeaderDate(2015, 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2014, 12, 31, 0, 0, 0, 0, time.UTC), got)

	_, err = HeaderDate(0, 12)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "nrcan-canelevation", d.CollectionID())
	assert.Equal(t, "7069387e-9986-4297-9f55-0288e9676947", d.OpenCanadaID())
	assert.Equal(t, "https://open.canada.ca/data/api/action/package_show?id=7069387e-9986-4297-9f55-0288e9676947", d.MetadataURL())
	assert.Equal(t, "https://open.canada.ca/data/en/dataset/7069387e-9986-4297-9f55-0288e9676947", d.ProviderURL())

	kw := d.Keywords()
	require.Len(t, kw, 8)
	kw[0] = "changed"
	assert.Equal(t, "Point Cloud", Defaults().Keywords()[0])
}
