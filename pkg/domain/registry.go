package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DomainType is the static description of one shape variant: the selector
// id shown to users, a display label and the ordered parameter names a
// caller must supply.
type DomainType struct {
	ID     int      `json:"id" yaml:"id"`
	Kind   Kind     `json:"-" yaml:"-"`
	Name   string   `json:"name" yaml:"name"`
	Label  string   `json:"label" yaml:"label"`
	Params []string `json:"params" yaml:"params"`

	build func(p map[string]float64) (Domain, error)
}

// registry is read only after package initialization
var registry = []DomainType{
	{
		ID: int(KindCircle), Kind: KindCircle, Name: "circle", Label: "Circle",
		Params: []string{ParamRadius},
		build: func(p map[string]float64) (Domain, error) {
			return NewCircle(p[ParamRadius])
		},
	},
	{
		ID: int(KindRectangle), Kind: KindRectangle, Name: "rectangle", Label: "Rectangle",
		Params: []string{ParamWidth, ParamHeight},
		build: func(p map[string]float64) (Domain, error) {
			return NewRectangle(p[ParamWidth], p[ParamHeight])
		},
	},
	{
		ID: int(KindSquare), Kind: KindSquare, Name: "square", Label: "Square",
		Params: []string{ParamSide},
		build: func(p map[string]float64) (Domain, error) {
			return NewSquare(p[ParamSide])
		},
	},
	{
		ID: int(KindEllipse), Kind: KindEllipse, Name: "ellipse", Label: "Ellipse",
		Params: []string{ParamSemiAxisX, ParamSemiAxisY},
		build: func(p map[string]float64) (Domain, error) {
			return NewEllipse(p[ParamSemiAxisX], p[ParamSemiAxisY])
		},
	},
	{
		ID: int(KindRightTriangle), Kind: KindRightTriangle, Name: "right_triangle", Label: "Right triangle",
		Params: []string{ParamBase, ParamHeight},
		build: func(p map[string]float64) (Domain, error) {
			return NewRightTriangle(p[ParamBase], p[ParamHeight])
		},
	},
	{
		ID: int(KindFrame), Kind: KindFrame, Name: "frame", Label: "Rectangular frame",
		Params: []string{ParamInnerWidth, ParamInnerHeight, ParamOuterWidth, ParamOuterHeight},
		build: func(p map[string]float64) (Domain, error) {
			return NewFrame(p[ParamInnerWidth], p[ParamInnerHeight], p[ParamOuterWidth], p[ParamOuterHeight])
		},
	},
	{
		ID: int(KindAnnulus), Kind: KindAnnulus, Name: "annulus", Label: "Annulus",
		Params: []string{ParamInnerRadius, ParamOuterRadius},
		build: func(p map[string]float64) (Domain, error) {
			return NewAnnulus(p[ParamInnerRadius], p[ParamOuterRadius])
		},
	},
}

// Types returns every registered domain type ordered by selector id
func Types() []DomainType {
	out := make([]DomainType, len(registry))
	copy(out, registry)
	for i := range out {
		out[i].Params = append([]string(nil), out[i].Params...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Names returns the registered type names ordered by selector id
func Names() []string {
	types := Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names
}

// Lookup resolves a type by name (case insensitive) or by its numeric
// selector id given as a string
func Lookup(name string) (DomainType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, err := strconv.Atoi(key); err == nil {
		return LookupID(id)
	}
	for _, t := range registry {
		if t.Name == key {
			return t, nil
		}
	}
	return DomainType{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDomainType, name, strings.Join(Names(), ", "))
}

// LookupID resolves a type by selector id
func LookupID(id int) (DomainType, error) {
	if t, ok := lookupKind(Kind(id)); ok {
		return t, nil
	}
	return DomainType{}, fmt.Errorf("%w: id %d", ErrUnknownDomainType, id)
}

func lookupKind(k Kind) (DomainType, bool) {
	for _, t := range registry {
		if t.Kind == k {
			return t, true
		}
	}
	return DomainType{}, false
}

// Validate checks that params holds every required name. Extra names are
// ignored. All missing names are reported together.
func (t DomainType) Validate(params map[string]float64) error {
	var missing []string
	for _, name := range t.Params {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w for %s: %s", ErrMissingParameter, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// New validates params and constructs the domain
func (t DomainType) New(params map[string]float64) (Domain, error) {
	if err := t.Validate(params); err != nil {
		return nil, err
	}
	d, err := t.build(params)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", t.Name, err)
	}
	return d, nil
}

// Build looks up the type by name or id and constructs a domain from params
func Build(name string, params map[string]float64) (Domain, error) {
	t, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return t.New(params)
}
