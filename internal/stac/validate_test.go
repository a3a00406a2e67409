package stac

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// schemaTransport serves the trimmed schemas in testdata/schemas.
type schemaTransport struct {
	mu    sync.Mutex
	calls map[string]int
}

var schemaFiles = map[string]string{
	"https://schemas.stacspec.org/v1.0.0/collection-spec/json-schema/collection.json": "collection.json",
	"https://schemas.stacspec.org/v1.0.0/item-spec/json-schema/item.json":             "item.json",
	PointcloudExtension: "pointcloud.json",
	ProjectionExtension: "projection.json",
}

func (s *schemaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	s.mu.Lock()
	s.calls[url]++
	s.mu.Unlock()

	name, ok := schemaFiles[url]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Request:    req,
		}, nil
	}
	data, err := os.ReadFile(filepath.Join("testdata", "schemas", path.Base(name)))
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(data)),
		Request:    req,
	}, nil
}

func newTestValidator() (*Validator, *schemaTransport) {
	tr := &schemaTransport{calls: map[string]int{}}
	return NewValidator(&http.Client{Transport: tr}, nil), tr
}

func TestValidator_Collection(t *testing.T) {
	v, tr := newTestValidator()
	_, doc, err := testCollection().Encode(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, v.Validate(context.Background(), doc))
	require.NoError(t, v.Validate(context.Background(), doc))
	assert.Equal(t, 1, tr.calls["https://schemas.stacspec.org/v1.0.0/collection-spec/json-schema/collection.json"])
}

func TestValidator_Item(t *testing.T) {
	v, tr := newTestValidator()
	i := testItem("a.las")
	i.SetProjection(&Projection{EPSG: 2994})
	_, doc, err := i.Encode(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, v.Validate(context.Background(), doc))
	assert.Equal(t, 1, tr.calls[PointcloudExtension])
	assert.Equal(t, 1, tr.calls[ProjectionExtension])
}

func TestValidator_Failures(t *testing.T) {
	v, _ := newTestValidator()
	ctx := context.Background()

	i := testItem("a.las")
	i.Properties.Pointcloud.Schemas = nil
	_, doc, err := i.Encode(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, v.Validate(ctx, doc), ErrValidation)

	c := testCollection()
	c.Extent.Spatial.BBox = [][]float64{{1, 2}}
	_, doc, err = c.Encode(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, v.Validate(ctx, doc), ErrValidation)

	assert.ErrorIs(t, v.Validate(ctx, []byte(`{"type":"Catalog"}`)), ErrValidation)
	assert.ErrorIs(t, v.Validate(ctx, []byte(`[1]`)), ErrValidation)
	assert.ErrorIs(t, v.Validate(ctx, []byte(`{`)), ErrValidation)
}

func TestValidator_UnknownExtension(t *testing.T) {
	v, _ := newTestValidator()
	i := testItem("a.las")
	i.StacExtensions = append(i.StacExtensions, "https://example.com/missing/schema.json")
	_, doc, err := i.Encode(t.TempDir())
	require.NoError(t, err)

	err = v.Validate(context.Background(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing/schema.json")
}
