package genome

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRadius is returned when a point is built with a non-positive radius
var ErrInvalidRadius = errors.New("genome: radius must be positive")

// ErrUnknownPlantType is returned for plant types outside PlantTypes
var ErrUnknownPlantType = errors.New("genome: unknown plant type")

// PlantType classifies the plant a gene represents
type PlantType string

const (
	PlantTree        PlantType = "tree"
	PlantShrub       PlantType = "shrub"
	PlantFlower      PlantType = "flower"
	PlantVegetable   PlantType = "vegetable"
	PlantHerb        PlantType = "herb"
	PlantGroundCover PlantType = "ground_cover"
)

// PlantTypes lists every known plant type in display order
func PlantTypes() []PlantType {
	return []PlantType{PlantTree, PlantShrub, PlantFlower, PlantVegetable, PlantHerb, PlantGroundCover}
}

// Valid reports whether p is one of the known plant types
func (p PlantType) Valid() bool {
	for _, known := range PlantTypes() {
		if p == known {
			return true
		}
	}
	return false
}

// Point is one gene: the position of a plant together with its footprint
// radius and the inventory metadata it was assigned.
//
// Points are plain values. Copying a Point copies everything it holds, so
// no two individuals can ever share one.
type Point struct {
	X           float64   `json:"x" yaml:"x"`
	Y           float64   `json:"y" yaml:"y"`
	Radius      float64   `json:"radius" yaml:"radius"`
	PlantType   PlantType `json:"plant_type" yaml:"plant_type"`
	VarietyID   int       `json:"variety_id" yaml:"variety_id"`
	VarietyName string    `json:"variety_name" yaml:"variety_name"`
}

// NewPoint builds a point and enforces radius > 0 and a known plant type
func NewPoint(x, y, radius float64, plantType PlantType, varietyID int, varietyName string) (Point, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Point{}, fmt.Errorf("%w: got %v", ErrInvalidRadius, radius)
	}
	if !plantType.Valid() {
		return Point{}, fmt.Errorf("%w: %q", ErrUnknownPlantType, plantType)
	}
	return Point{
		X:           x,
		Y:           y,
		Radius:      radius,
		PlantType:   plantType,
		VarietyID:   varietyID,
		VarietyName: varietyName,
	}, nil
}

// WithPosition returns a copy of p moved to (x, y). Radius and plant
// metadata are kept.
func (p Point) WithPosition(x, y float64) Point {
	p.X = x
	p.Y = y
	return p
}

// String returns a compact human readable form
func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f) r=%.3f %s#%d", p.X, p.Y, p.Radius, p.PlantType, p.VarietyID)
}

// Distance returns the euclidean distance between the centers of a and b
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistanceSquared returns the squared euclidean distance between the
// centers of a and b
func DistanceSquared(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
