// Package canelevation builds STAC Collections and Items for the NRCan
// CanElevation point-cloud series.
package canelevation

import (
	"slices"
	"time"
)

// CampaignProperty is the item property holding the acquisition campaign.
const CampaignProperty = "canelevation:campaign"

// UnknownCampaign is used when no campaign can be read from the identifier.
const UnknownCampaign = "XXX"

// Catalog holds the fixed identifiers of the CanElevation series. It is
// created by Defaults and has no setters.
type Catalog struct {
	openCanadaID string
	collectionID string
	keywords     []string
}

var defaults = Catalog{
	openCanadaID: "7069387e-9986-4297-9f55-0288e9676947",
	collectionID: "nrcan-canelevation",
	keywords: []string{
		"Point Cloud",
		"North America",
		"Canada",
		"Remote Sensing",
		"LiDAR",
		"CanElevation",
		"NRCAN",
		"Open Canada",
	},
}

// Defaults returns the CanElevation catalog constants.
func Defaults() Catalog {
	return defaults
}

// OpenCanadaID is the dataset id on open.canada.ca.
func (c Catalog) OpenCanadaID() string { return c.openCanadaID }

// CollectionID is the STAC collection id.
func (c Catalog) CollectionID() string { return c.collectionID }

// MetadataURL is the CKAN package_show endpoint for the dataset.
func (c Catalog) MetadataURL() string {
	return "https://open.canada.ca/data/api/action/package_show?id=" + c.openCanadaID
}

// ProviderURL is the public landing page of the dataset.
func (c Catalog) ProviderURL() string {
	return "https://open.canada.ca/data/en/dataset/" + c.openCanadaID
}

// Keywords returns a copy of the collection keywords.
func (c Catalog) Keywords() []string {
	return slices.Clone(c.keywords)
}

// QuickModeDate is the acquisition date used when a quick-mode identifier
// carries no usable date.
func QuickModeDate() time.Time {
	return time.Date(1901, 1, 1, 0, 0, 0, 0, time.UTC)
}
