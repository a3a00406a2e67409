package canelevation

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"canelevation/internal/stac"
)

// ErrInvalidDate is returned when header date fields are unusable.
var ErrInvalidDate = errors.New("canelevation: invalid acquisition date")

var (
	campaignPattern = regexp.MustCompile(`([A-Z]{2}_\w+_\d{4})`)
	datePattern     = regexp.MustCompile(`\d{8}`)
)

// ItemID derives the item id and encoding from href. The id is the base
// name with its extension stripped twice so "x.copc.laz" becomes "x"; the
// encoding is the final extension without the dot.
func ItemID(href string) (id, encoding string) {
	base := baseName(href)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	id = strings.TrimSuffix(stem, path.Ext(stem))
	return id, strings.TrimPrefix(ext, ".")
}

func baseName(href string) string {
	if stac.IsRemote(href) {
		if u, err := url.Parse(href); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(href)
}

// Campaign extracts the campaign tag (province, project, year) from an
// item id, or returns UnknownCampaign.
func Campaign(id string) string {
	if m := campaignPattern.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return UnknownCampaign
}

// QuickDate reads the first 8-digit run of id as YYYYMMDD. Ids without one,
// or whose digits are not a calendar date, get QuickModeDate.
func QuickDate(id string) time.Time {
	m := datePattern.FindString(id)
	if m == "" {
		return QuickModeDate()
	}
	t, err := time.Parse("20060102", m)
	if err != nil {
		return QuickModeDate()
	}
	return t
}

// HeaderDate returns January 1 of year plus doy-1 days. A zero day of year
// lands on December 31 of the previous year.
func HeaderDate(year, doy int) (time.Time, error) {
	if year <= 0 {
		return time.Time{}, fmt.Errorf("%w: creation year %d", ErrInvalidDate, year)
	}
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1), nil
}
