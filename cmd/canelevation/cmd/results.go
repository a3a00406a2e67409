package cmd

import (
	"strconv"

	"canelevation/internal/cli/output"
)

// writeResult describes a STAC document written to disk.
type writeResult struct {
	Kind       string   `json:"kind" yaml:"kind"`
	RecordID   string   `json:"id" yaml:"id"`
	Path       string   `json:"path" yaml:"path"`
	Validated  bool     `json:"validated" yaml:"validated"`
	Extensions []string `json:"stac_extensions,omitempty" yaml:"stac_extensions,omitempty"`
}

// ID implements output.Identifiable.
func (r writeResult) ID() string {
	return r.Path
}

// TableData implements output.Tabular.
func (r writeResult) TableData() *output.Table {
	t := output.NewKeyValueTable().
		AddPair("Kind", r.Kind).
		AddPair("ID", r.RecordID).
		AddPair("Path", r.Path).
		AddPair("Validated", strconv.FormatBool(r.Validated))
	for _, ext := range r.Extensions {
		t.AddPair("Extension", ext)
	}
	return t
}
