// Package crs parses coordinate reference system definitions reported by
// point-cloud readers and identifies their EPSG code.
package crs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when the definition is blank.
	ErrEmpty = errors.New("crs: empty definition")

	// ErrInvalid is returned when the definition cannot be parsed.
	ErrInvalid = errors.New("crs: invalid definition")

	// ErrUnresolvable is returned when no EPSG code can be identified.
	ErrUnresolvable = errors.New("crs: no EPSG code")
)

// Kind is the syntax of a CRS definition.
type Kind int

const (
	KindCode Kind = iota
	KindWKT
	KindPROJJSON
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindWKT:
		return "wkt"
	case KindPROJJSON:
		return "projjson"
	default:
		return "unknown"
	}
}

// CRS is a parsed coordinate reference system definition.
type CRS struct {
	definition string
	kind       Kind
	name       string
	epsg       int
}

// Parse accepts "EPSG:n", WKT1, WKT2 or PROJJSON text.
func Parse(def string) (*CRS, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return nil, ErrEmpty
	}

	c := &CRS{definition: def}
	switch {
	case hasAuthorityPrefix(def):
		code, err := parseCode(def)
		if err != nil {
			return nil, err
		}
		c.kind = KindCode
		c.epsg = code
	case strings.HasPrefix(def, "{"):
		c.kind = KindPROJJSON
		if err := c.parsePROJJSON(); err != nil {
			return nil, err
		}
	default:
		c.kind = KindWKT
		root, err := parseWKT(def)
		if err != nil {
			return nil, err
		}
		c.name = root.name()
		c.epsg = root.epsg()
	}

	return c, nil
}

// Definition returns the source text the CRS was parsed from.
func (c *CRS) Definition() string { return c.definition }

// Kind returns the syntax of the source text.
func (c *CRS) Kind() Kind { return c.kind }

// Name returns the CRS name when the definition carries one.
func (c *CRS) Name() string { return c.name }

// EPSG returns the EPSG code of the root CRS.
func (c *CRS) EPSG() (int, error) {
	if c.epsg == 0 {
		return 0, ErrUnresolvable
	}
	return c.epsg, nil
}

// WKT returns the definition when it is WKT text, else "".
func (c *CRS) WKT() string {
	if c.kind == KindWKT {
		return c.definition
	}
	return ""
}

func (c *CRS) String() string {
	if c.epsg != 0 {
		return fmt.Sprintf("EPSG:%d", c.epsg)
	}
	if c.name != "" {
		return c.name
	}
	return c.kind.String()
}

func hasAuthorityPrefix(def string) bool {
	return len(def) > 5 && strings.EqualFold(def[:5], "EPSG:")
}

func parseCode(def string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(def[5:]))
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("%w: EPSG code %q", ErrInvalid, def)
	}
	return code, nil
}

type projjsonID struct {
	Authority string          `json:"authority"`
	Code      json.RawMessage `json:"code"`
}

func (c *CRS) parsePROJJSON() error {
	var doc struct {
		Name string      `json:"name"`
		ID   *projjsonID `json:"id"`
	}
	if err := json.Unmarshal([]byte(c.definition), &doc); err != nil {
		return fmt.Errorf("%w: PROJJSON: %v", ErrInvalid, err)
	}
	c.name = doc.Name
	if doc.ID != nil && strings.EqualFold(doc.ID.Authority, "EPSG") {
		c.epsg = atoiLoose(strings.Trim(string(doc.ID.Code), `"`))
	}
	return nil
}

func atoiLoose(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
