// Package reproject transforms native bounding boxes to geographic
// coordinates through PROJ.
package reproject

import (
	"errors"
	"fmt"
	"math"

	"canelevation/internal/crs"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-proj/v10"
)

// Geographic is the target CRS of every reprojection.
const Geographic = "EPSG:4326"

// ErrTransform is returned when PROJ cannot build or apply a transformation.
var ErrTransform = errors.New("reproject: transform failed")

// Proj reprojects with the PROJ library.
type Proj struct{}

// New returns a PROJ-backed reprojector.
func New() *Proj {
	return &Proj{}
}

// BoundToGeographic reprojects the corners of b from src to EPSG:4326 and
// returns the closed polygon in longitude/latitude order.
func (p *Proj) BoundToGeographic(src *crs.CRS, b orb.Bound) (orb.Polygon, error) {
	pj, err := proj.NewCRSToCRS(src.Definition(), Geographic, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s to %s: %v", ErrTransform, src, Geographic, err)
	}
	defer pj.Destroy()

	norm, err := pj.NormalizeForVisualization()
	if err != nil {
		return nil, fmt.Errorf("%w: normalize axis order: %v", ErrTransform, err)
	}
	defer norm.Destroy()

	ring := b.ToRing()
	out := make(orb.Ring, len(ring))
	for i, pt := range ring {
		c, err := norm.Forward(proj.NewCoord(pt[0], pt[1], 0, 0))
		if err != nil {
			return nil, fmt.Errorf("%w: point %v: %v", ErrTransform, pt, err)
		}
		if math.IsInf(c[0], 0) || math.IsInf(c[1], 0) || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
			return nil, fmt.Errorf("%w: point %v is outside the source domain", ErrTransform, pt)
		}
		out[i] = orb.Point{c[0], c[1]}
	}

	return orb.Polygon{out}, nil
}

// Round rounds every coordinate of poly to the given number of decimals.
func Round(poly orb.Polygon, decimals int) orb.Polygon {
	scale := math.Pow(10, float64(decimals))
	out := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			r[j] = orb.Point{
				math.Round(pt[0]*scale) / scale,
				math.Round(pt[1]*scale) / scale,
			}
		}
		out[i] = r
	}
	return out
}
