package inventory

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/ishanwen-byte/plantevolve-go/pkg/genome"
)

// ErrEmptyInventory is returned when no varieties are configured
var ErrEmptyInventory = errors.New("inventory: at least one variety is required")

// ErrQuantityMismatch is returned when a fixed genome size disagrees with the
// total quantity on hand
var ErrQuantityMismatch = errors.New("inventory: genome size does not match total quantity")

// Variety is one stock line: a plant variety, its footprint radius and how
// many of it to place. Weight is only used when no quantities are given.
type Variety struct {
	PlantType   genome.PlantType `yaml:"plant_type" json:"plant_type"`
	VarietyID   int              `yaml:"variety_id" json:"variety_id"`
	VarietyName string           `yaml:"variety_name" json:"variety_name"`
	Radius      float64          `yaml:"radius" json:"radius"`
	Quantity    int              `yaml:"quantity" json:"quantity"`
	Weight      float64          `yaml:"weight" json:"weight"`
}

// Slot is the metadata template of one gene position. Positions are filled
// in by the population generator and by mutation.
type Slot struct {
	Radius      float64
	PlantType   genome.PlantType
	VarietyID   int
	VarietyName string
}

// Point builds the gene for this slot at (x, y)
func (s Slot) Point(x, y float64) genome.Point {
	return genome.Point{
		X:           x,
		Y:           y,
		Radius:      s.Radius,
		PlantType:   s.PlantType,
		VarietyID:   s.VarietyID,
		VarietyName: s.VarietyName,
	}
}

// Gene is the template point of a variety, checked the same way as any
// gene: positive radius and a known plant type
func (v Variety) Gene() (genome.Point, error) {
	return genome.NewPoint(0, 0, v.Radius, v.PlantType, v.VarietyID, v.VarietyName)
}

// Inventory holds the varieties available for one run
type Inventory struct {
	varieties []Variety
	weights   []float64
}

// New validates the varieties and normalizes their weights
func New(varieties []Variety) (*Inventory, error) {
	if len(varieties) == 0 {
		return nil, ErrEmptyInventory
	}

	inv := &Inventory{
		varieties: make([]Variety, len(varieties)),
		weights:   make([]float64, len(varieties)),
	}
	copy(inv.varieties, varieties)

	var totalWeight float64
	for i, v := range varieties {
		if _, err := v.Gene(); err != nil {
			return nil, fmt.Errorf("variety %d (%s): %w", v.VarietyID, v.VarietyName, err)
		}
		if v.Quantity < 0 {
			return nil, fmt.Errorf("variety %d (%s): quantity must not be negative", v.VarietyID, v.VarietyName)
		}
		if v.Weight < 0 {
			return nil, fmt.Errorf("variety %d (%s): weight must not be negative", v.VarietyID, v.VarietyName)
		}
		inv.weights[i] = v.Weight
		totalWeight += v.Weight
	}

	if totalWeight > 0 {
		for i := range inv.weights {
			inv.weights[i] /= totalWeight
		}
	} else {
		equal := 1.0 / float64(len(varieties))
		for i := range inv.weights {
			inv.weights[i] = equal
		}
	}

	return inv, nil
}

// Varieties returns a copy of the configured varieties
func (inv *Inventory) Varieties() []Variety {
	out := make([]Variety, len(inv.varieties))
	copy(out, inv.varieties)
	return out
}

// TotalQuantity sums the quantities of all varieties
func (inv *Inventory) TotalQuantity() int {
	total := 0
	for _, v := range inv.varieties {
		total += v.Quantity
	}
	return total
}

// GenomeSize resolves the genome length for a run. A requested size of 0
// means "derive from quantities".
func (inv *Inventory) GenomeSize(requested int) (int, error) {
	total := inv.TotalQuantity()
	switch {
	case total > 0 && requested == 0:
		return total, nil
	case total > 0 && requested != total:
		return 0, fmt.Errorf("%w: genome size %d, quantity %d", ErrQuantityMismatch, requested, total)
	case requested <= 0:
		return 0, fmt.Errorf("genome size must be positive, got %d", requested)
	}
	return requested, nil
}

// Assign produces the slot layout of a genome of size n. With quantities
// the slots follow inventory order; otherwise each slot draws a variety by
// weight.
func (inv *Inventory) Assign(n int, rng *rand.Rand) ([]Slot, error) {
	size, err := inv.GenomeSize(n)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, 0, size)
	if inv.TotalQuantity() > 0 {
		for _, v := range inv.varieties {
			for k := 0; k < v.Quantity; k++ {
				slots = append(slots, slotFor(v))
			}
		}
		return slots, nil
	}

	for len(slots) < size {
		slots = append(slots, slotFor(inv.varieties[inv.pick(rng)]))
	}
	return slots, nil
}

// pick selects a variety index based on weights
func (inv *Inventory) pick(rng *rand.Rand) int {
	r := rng.Float64()
	cumulative := 0.0
	for i, w := range inv.weights {
		cumulative += w
		if r <= cumulative {
			return i
		}
	}
	// rounding left r above the last cumulative value
	return len(inv.weights) - 1
}

func slotFor(v Variety) Slot {
	return Slot{
		Radius:      v.Radius,
		PlantType:   v.PlantType,
		VarietyID:   v.VarietyID,
		VarietyName: v.VarietyName,
	}
}
