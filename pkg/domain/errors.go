package domain

import "errors"

// ErrInvalidDimension indicates a non-positive or non-finite shape dimension.
// Check with errors.Is.
var ErrInvalidDimension = errors.New("domain: dimension must be positive")

// ErrInvalidRelation indicates parameters that are individually fine but do
// not fit together, e.g. an annulus whose inner radius is not smaller than its
// outer radius.
var ErrInvalidRelation = errors.New("domain: invalid parameter relation")

// ErrMissingParameter indicates that a parameter map lacks a required name.
var ErrMissingParameter = errors.New("domain: missing required parameter")

// ErrUnknownDomainType indicates an unregistered type name or selector id.
var ErrUnknownDomainType = errors.New("domain: unknown domain type")
