package genome

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Individual is one candidate layout: an ordered, fixed-length sequence of
// points. It owns its backing slice; every constructor and accessor copies so
// that operators working on one individual never affect another.
type Individual struct {
	genes []Point
}

// NewIndividual builds an individual holding a private copy of points
func NewIndividual(points []Point) Individual {
	genes := make([]Point, len(points))
	copy(genes, points)
	return Individual{genes: genes}
}

// Len returns the genome size
func (ind Individual) Len() int {
	return len(ind.genes)
}

// Gene returns the point at index i
func (ind Individual) Gene(i int) Point {
	return ind.genes[i]
}

// SetGene replaces the point at index i in place
func (ind *Individual) SetGene(i int, p Point) {
	ind.genes[i] = p
}

// Genes returns a copy of the gene sequence
func (ind Individual) Genes() []Point {
	out := make([]Point, len(ind.genes))
	copy(out, ind.genes)
	return out
}

// Clone returns a deep copy
func (ind Individual) Clone() Individual {
	return NewIndividual(ind.genes)
}

// Equal reports whether both individuals hold the same genes in the same order
func (ind Individual) Equal(other Individual) bool {
	if len(ind.genes) != len(other.genes) {
		return false
	}
	for i := range ind.genes {
		if ind.genes[i] != other.genes[i] {
			return false
		}
	}
	return true
}

// String lists the genes one per line
func (ind Individual) String() string {
	var b strings.Builder
	for i, g := range ind.genes {
		fmt.Fprintf(&b, "%3d: %s\n", i, g)
	}
	return b.String()
}

// MarshalJSON encodes the individual as its gene array
func (ind Individual) MarshalJSON() ([]byte, error) {
	if ind.genes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ind.genes)
}

// UnmarshalJSON decodes a gene array
func (ind *Individual) UnmarshalJSON(data []byte) error {
	var genes []Point
	if err := json.Unmarshal(data, &genes); err != nil {
		return err
	}
	ind.genes = genes
	return nil
}
