package domain

import (
	"fmt"
	"math"
	"math/rand"
)

// Parameter names used by the registry and by Params
const (
	ParamRadius      = "radius"
	ParamWidth       = "width"
	ParamHeight      = "height"
	ParamSide        = "side"
	ParamSemiAxisX   = "semi_axis_x"
	ParamSemiAxisY   = "semi_axis_y"
	ParamBase        = "base"
	ParamInnerWidth  = "inner_width"
	ParamInnerHeight = "inner_height"
	ParamOuterWidth  = "outer_width"
	ParamOuterHeight = "outer_height"
	ParamInnerRadius = "inner_radius"
	ParamOuterRadius = "outer_radius"
)

// Circle is a disc of the given radius centered at the origin
type Circle struct {
	radius float64
}

// NewCircle validates radius and builds a circle
func NewCircle(radius float64) (Circle, error) {
	if err := checkPositive(ParamRadius, radius); err != nil {
		return Circle{}, err
	}
	return Circle{radius: radius}, nil
}

func (c Circle) Kind() Kind { return KindCircle }

func (c Circle) IsPointOutside(x, y float64) bool {
	return x*x+y*y > c.radius*c.radius
}

func (c Circle) BoundingBox() BoundingBox {
	return BoundingBox{MinX: -c.radius, MinY: -c.radius, Width: 2 * c.radius, Height: 2 * c.radius}
}

func (c Circle) Params() map[string]float64 {
	return map[string]float64{ParamRadius: c.radius}
}

func (Circle) sealed() {}

// Rectangle is centered at the origin with sides parallel to the axes
type Rectangle struct {
	width, height float64
}

// NewRectangle validates both sides and builds a rectangle
func NewRectangle(width, height float64) (Rectangle, error) {
	if err := checkPositive(ParamWidth, width); err != nil {
		return Rectangle{}, err
	}
	if err := checkPositive(ParamHeight, height); err != nil {
		return Rectangle{}, err
	}
	return Rectangle{width: width, height: height}, nil
}

func (r Rectangle) Kind() Kind { return KindRectangle }

func (r Rectangle) IsPointOutside(x, y float64) bool {
	return outsideCenteredRect(x, y, r.width, r.height)
}

func (r Rectangle) BoundingBox() BoundingBox {
	return centeredBox(r.width, r.height)
}

func (r Rectangle) Params() map[string]float64 {
	return map[string]float64{ParamWidth: r.width, ParamHeight: r.height}
}

func (Rectangle) sealed() {}

// Square is a rectangle with equal sides
type Square struct {
	side float64
}

// NewSquare validates side and builds a square
func NewSquare(side float64) (Square, error) {
	if err := checkPositive(ParamSide, side); err != nil {
		return Square{}, err
	}
	return Square{side: side}, nil
}

func (s Square) Kind() Kind { return KindSquare }

func (s Square) IsPointOutside(x, y float64) bool {
	return outsideCenteredRect(x, y, s.side, s.side)
}

func (s Square) BoundingBox() BoundingBox {
	return centeredBox(s.side, s.side)
}

func (s Square) Params() map[string]float64 {
	return map[string]float64{ParamSide: s.side}
}

func (Square) sealed() {}

// Ellipse is centered at the origin with semi axes a (along x) and b (along y)
type Ellipse struct {
	a, b float64
}

// NewEllipse validates both semi axes and builds an ellipse
func NewEllipse(a, b float64) (Ellipse, error) {
	if err := checkPositive(ParamSemiAxisX, a); err != nil {
		return Ellipse{}, err
	}
	if err := checkPositive(ParamSemiAxisY, b); err != nil {
		return Ellipse{}, err
	}
	return Ellipse{a: a, b: b}, nil
}

func (e Ellipse) Kind() Kind { return KindEllipse }

func (e Ellipse) IsPointOutside(x, y float64) bool {
	nx := x / e.a
	ny := y / e.b
	return nx*nx+ny*ny > 1
}

func (e Ellipse) BoundingBox() BoundingBox {
	return BoundingBox{MinX: -e.a, MinY: -e.b, Width: 2 * e.a, Height: 2 * e.b}
}

func (e Ellipse) Params() map[string]float64 {
	return map[string]float64{ParamSemiAxisX: e.a, ParamSemiAxisY: e.b}
}

func (Ellipse) sealed() {}

// RightTriangle has its right angle at the origin and legs along the
// positive x and y axes
type RightTriangle struct {
	base, height float64
}

// NewRightTriangle validates both legs and builds a triangle
func NewRightTriangle(base, height float64) (RightTriangle, error) {
	if err := checkPositive(ParamBase, base); err != nil {
		return RightTriangle{}, err
	}
	if err := checkPositive(ParamHeight, height); err != nil {
		return RightTriangle{}, err
	}
	return RightTriangle{base: base, height: height}, nil
}

func (t RightTriangle) Kind() Kind { return KindRightTriangle }

func (t RightTriangle) IsPointOutside(x, y float64) bool {
	if x < 0 || y < 0 {
		return true
	}
	// x/b + y/h > 1 rewritten without division so the hypotenuse itself
	// compares exactly.
	return x*t.height+y*t.base > t.base*t.height
}

func (t RightTriangle) BoundingBox() BoundingBox {
	return BoundingBox{MinX: 0, MinY: 0, Width: t.base, Height: t.height}
}

func (t RightTriangle) Params() map[string]float64 {
	return map[string]float64{ParamBase: t.base, ParamHeight: t.height}
}

func (RightTriangle) sealed() {}

// Frame is a hollow rectangle: the band between an outer rectangle and a
// smaller inner one, both centered at the origin
type Frame struct {
	innerW, innerH, outerW, outerH float64
}

// NewFrame validates all four sides and that the hole fits strictly inside
func NewFrame(innerW, innerH, outerW, outerH float64) (Frame, error) {
	for _, p := range []struct {
		name string
		v    float64
	}{
		{ParamInnerWidth, innerW},
		{ParamInnerHeight, innerH},
		{ParamOuterWidth, outerW},
		{ParamOuterHeight, outerH},
	} {
		if err := checkPositive(p.name, p.v); err != nil {
			return Frame{}, err
		}
	}
	if innerW >= outerW {
		return Frame{}, fmt.Errorf("%w: inner_width %v must be less than outer_width %v", ErrInvalidRelation, innerW, outerW)
	}
	if innerH >= outerH {
		return Frame{}, fmt.Errorf("%w: inner_height %v must be less than outer_height %v", ErrInvalidRelation, innerH, outerH)
	}
	return Frame{innerW: innerW, innerH: innerH, outerW: outerW, outerH: outerH}, nil
}

func (f Frame) Kind() Kind { return KindFrame }

func (f Frame) IsPointOutside(x, y float64) bool {
	if outsideCenteredRect(x, y, f.outerW, f.outerH) {
		return true
	}
	// strictly inside the hole
	return abs(x) < f.innerW/2 && abs(y) < f.innerH/2
}

func (f Frame) BoundingBox() BoundingBox {
	return centeredBox(f.outerW, f.outerH)
}

func (f Frame) Params() map[string]float64 {
	return map[string]float64{
		ParamInnerWidth:  f.innerW,
		ParamInnerHeight: f.innerH,
		ParamOuterWidth:  f.outerW,
		ParamOuterHeight: f.outerH,
	}
}

// Sample picks one of the four bands around the hole in proportion to its
// area, then a point uniformly within it
func (f Frame) Sample(rng *rand.Rand) (float64, float64) {
	horizontal := f.outerW * (f.outerH - f.innerH) / 2
	vertical := (f.outerW - f.innerW) / 2 * f.innerH

	side := 1.0
	if rng.Intn(2) == 0 {
		side = -1
	}
	if rng.Float64()*(horizontal+vertical) < horizontal {
		// top or bottom band, full outer width
		x := (rng.Float64() - 0.5) * f.outerW
		y := f.innerH/2 + rng.Float64()*(f.outerH-f.innerH)/2
		return x, side * y
	}
	// left or right band, between the top and bottom bands
	x := f.innerW/2 + rng.Float64()*(f.outerW-f.innerW)/2
	y := (rng.Float64() - 0.5) * f.innerH
	return side * x, y
}

func (Frame) sealed() {}

// Annulus is the ring between two concentric circles centered at the origin
type Annulus struct {
	inner, outer float64
}

// NewAnnulus validates 0 < inner < outer and builds a ring
func NewAnnulus(inner, outer float64) (Annulus, error) {
	if err := checkPositive(ParamInnerRadius, inner); err != nil {
		return Annulus{}, err
	}
	if err := checkPositive(ParamOuterRadius, outer); err != nil {
		return Annulus{}, err
	}
	if inner >= outer {
		return Annulus{}, fmt.Errorf("%w: inner_radius %v must be less than outer_radius %v", ErrInvalidRelation, inner, outer)
	}
	return Annulus{inner: inner, outer: outer}, nil
}

func (a Annulus) Kind() Kind { return KindAnnulus }

func (a Annulus) IsPointOutside(x, y float64) bool {
	d2 := x*x + y*y
	return d2 > a.outer*a.outer || d2 < a.inner*a.inner
}

func (a Annulus) BoundingBox() BoundingBox {
	return BoundingBox{MinX: -a.outer, MinY: -a.outer, Width: 2 * a.outer, Height: 2 * a.outer}
}

func (a Annulus) Params() map[string]float64 {
	return map[string]float64{ParamInnerRadius: a.inner, ParamOuterRadius: a.outer}
}

// Sample draws a point uniformly over the ring area
func (a Annulus) Sample(rng *rand.Rand) (float64, float64) {
	theta := 2 * math.Pi * rng.Float64()
	r := math.Sqrt(a.inner*a.inner + rng.Float64()*(a.outer*a.outer-a.inner*a.inner))
	return r * math.Cos(theta), r * math.Sin(theta)
}

func (Annulus) sealed() {}

func outsideCenteredRect(x, y, w, h float64) bool {
	return abs(x) > w/2 || abs(y) > h/2
}

func centeredBox(w, h float64) BoundingBox {
	return BoundingBox{MinX: -w / 2, MinY: -h / 2, Width: w, Height: h}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
