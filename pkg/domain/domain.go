// Package domain describes the regions plants may be placed in.
//
// Every shape is a closed region: a point lying exactly on any boundary,
// including the edge of a hole, counts as inside. Shapes are built through
// their New* constructors or Build, which validate parameters first, so an
// invalid Domain value is never observable.
package domain

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// Kind identifies a shape variant. The numeric value doubles as the
// selector id shown to users.
type Kind int

const (
	KindCircle Kind = iota + 1
	KindRectangle
	KindSquare
	KindEllipse
	KindRightTriangle
	KindFrame
	KindAnnulus
)

// String returns the registry name of the kind
func (k Kind) String() string {
	if t, ok := lookupKind(k); ok {
		return t.Name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// BoundingBox is an axis aligned rectangle anchored at its minimum corner
type BoundingBox struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the right edge
func (b BoundingBox) MaxX() float64 { return b.MinX + b.Width }

// MaxY returns the top edge
func (b BoundingBox) MaxY() float64 { return b.MinY + b.Height }

// Contains reports whether (x, y) lies in the closed box
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX() && y >= b.MinY && y <= b.MaxY()
}

// Domain is the closed set of shapes genes must lie within. The interface is
// sealed; the seven variants in this package are its only implementations.
type Domain interface {
	// Kind returns the variant
	Kind() Kind
	// IsPointOutside reports whether (x, y) violates the boundary
	IsPointOutside(x, y float64) bool
	// BoundingBox returns the smallest axis aligned box containing the shape
	BoundingBox() BoundingBox
	// Params returns the construction parameters keyed by registry name
	Params() map[string]float64

	sealed()
}

// Sampler is implemented by shapes that fill too little of their bounding
// box for rejection sampling. Sample draws a point uniformly from the shape;
// float rounding may still land it just outside, so callers re-check.
type Sampler interface {
	Sample(rng *rand.Rand) (x, y float64)
}

// IsValidIndividual reports whether every gene center of ind lies inside d.
// It stops at the first violation.
func IsValidIndividual(d Domain, ind genome.Individual) bool {
	for i := 0; i < ind.Len(); i++ {
		g := ind.Gene(i)
		if d.IsPointOutside(g.X, g.Y) {
			return false
		}
	}
	return true
}

// CountOutside returns how many gene centers of ind lie outside d
func CountOutside(d Domain, ind genome.Individual) int {
	n := 0
	for i := 0; i < ind.Len(); i++ {
		g := ind.Gene(i)
		if d.IsPointOutside(g.X, g.Y) {
			n++
		}
	}
	return n
}

// Describe renders a domain with its parameters in registry order
func Describe(d Domain) string {
	t, ok := lookupKind(d.Kind())
	if !ok {
		return d.Kind().String()
	}
	params := d.Params()
	s := t.Label + " ("
	for i, name := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%g", name, params[name])
	}
	return s + ")"
}

func checkPositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidDimension, name, v)
	}
	return nil
}
