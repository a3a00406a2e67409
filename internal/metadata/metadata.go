// Package metadata reads CanElevation dataset metadata from the Open Canada
// CKAN API or from a local JSON file.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"canelevation/internal/logger"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrFetch is returned when the metadata endpoint cannot be read.
var ErrFetch = errors.New("metadata: fetch failed")

// MissingKeyError reports a required key absent from the metadata.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("metadata: missing required key %q", e.Key)
}

// Dataset is the dataset-level metadata a collection is built from.
type Dataset struct {
	Title        string
	Description  string
	Provider     string
	LicenseID    string
	LicenseTitle string
	LicenseURL   string
	Start        time.Time
	End          *time.Time // nil while capture is ongoing
	BBox         orb.Bound
}

// Loader reads dataset metadata from a file path or URL.
type Loader struct {
	client *http.Client
	log    *logger.Logger
}

// NewLoader creates a loader using client for remote locators.
func NewLoader(client *http.Client, log *logger.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Loader{client: client, log: log}
}

// Load reads the metadata at locator. An existing regular file holds the
// bare CKAN result object; anything else is fetched and its "result"
// member is used.
func (l *Loader) Load(ctx context.Context, locator string) (*Dataset, error) {
	if fi, err := os.Stat(locator); err == nil && fi.Mode().IsRegular() {
		l.log.Debug("reading metadata file", "path", locator)
		data, err := os.ReadFile(locator)
		if err != nil {
			return nil, fmt.Errorf("metadata: read %s: %w", locator, err)
		}
		return Parse(data)
	}

	l.log.Debug("fetching metadata", "url", locator)
	data, err := l.fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("metadata: decode response: %w", err)
	}
	result, ok := envelope["result"]
	if !ok || isNull(result) {
		return nil, &MissingKeyError{Key: "result"}
	}
	return Parse(result)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	return data, nil
}

// Parse maps a bare CKAN package result object to a Dataset.
func Parse(data []byte) (*Dataset, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("metadata: decode: %w", err)
	}

	var (
		ds  Dataset
		err error
	)
	fields := []struct {
		key string
		dst *string
	}{
		{"title", &ds.Title},
		{"notes", &ds.Description},
		{"organization.title", &ds.Provider},
		{"license_id", &ds.LicenseID},
		{"license_title", &ds.LicenseTitle},
		{"license_url", &ds.LicenseURL},
	}
	for _, f := range fields {
		if *f.dst, err = requiredString(raw, f.key); err != nil {
			return nil, err
		}
	}

	start, err := requiredString(raw, "time_period_coverage_start")
	if err != nil {
		return nil, err
	}
	if ds.Start, err = ParseTime(start); err != nil {
		return nil, fmt.Errorf("metadata: time_period_coverage_start: %w", err)
	}

	if end, ok, err := optionalString(raw, "time_period_coverage_end"); err != nil {
		return nil, err
	} else if ok && end != "" {
		t, err := ParseTime(end)
		if err != nil {
			return nil, fmt.Errorf("metadata: time_period_coverage_end: %w", err)
		}
		ds.End = &t
	}

	spatial, ok := raw["spatial"]
	if !ok || isNull(spatial) {
		return nil, &MissingKeyError{Key: "spatial"}
	}
	if ds.BBox, err = parseSpatial(spatial); err != nil {
		return nil, err
	}

	return &ds, nil
}

// requiredString resolves a dotted key path to a string value.
func requiredString(raw map[string]json.RawMessage, key string) (string, error) {
	s, ok, err := optionalString(raw, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &MissingKeyError{Key: key}
	}
	return s, nil
}

func optionalString(raw map[string]json.RawMessage, key string) (string, bool, error) {
	parts := strings.Split(key, ".")
	obj := raw
	for i, part := range parts {
		v, ok := obj[part]
		if !ok || isNull(v) {
			return "", false, nil
		}
		if i == len(parts)-1 {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return "", false, fmt.Errorf("metadata: %s is not a string", key)
			}
			return s, true, nil
		}
		obj = nil
		if err := json.Unmarshal(v, &obj); err != nil {
			return "", false, fmt.Errorf("metadata: %s is not an object", strings.Join(parts[:i+1], "."))
		}
	}
	return "", false, nil
}

// parseSpatial accepts the GeoJSON geometry either as an encoded string,
// which is how CKAN stores it, or as an inline object.
func parseSpatial(v json.RawMessage) (orb.Bound, error) {
	body := []byte(v)
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		body = []byte(s)
	}

	g, err := geojson.UnmarshalGeometry(body)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("metadata: spatial: %w", err)
	}
	if g.Geometry() == nil {
		return orb.Bound{}, errors.New("metadata: spatial: empty geometry")
	}
	return g.Geometry().Bound(), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a metadata timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}
