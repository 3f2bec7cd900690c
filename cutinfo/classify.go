package cutinfo

import (
	"fmt"
	"math"

	"github.com/notargets/gocut/domain"
	"github.com/notargets/gocut/levelset"
	"github.com/notargets/gocut/types"
)

// signPattern records which signs the nodal values of one level set take on
// an element or facet.
type signPattern uint8

const (
	hasNeg signPattern = 1 << iota
	hasPos
	hasZero
)

// patternOf classifies values with the tie-break eps taken relative to the
// largest magnitude among them.
func patternOf(values []float64, eps float64) (sp signPattern) {
	var maxAbs float64
	for _, v := range values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	tol := eps * maxAbs
	for _, v := range values {
		switch {
		case v < -tol:
			sp |= hasNeg
		case v > tol:
			sp |= hasPos
		default:
			sp |= hasZero
		}
	}
	return
}

func (sp signPattern) merge(o signPattern) signPattern { return sp | o }

// contributes reports whether the region of tag can have positive measure
func (sp signPattern) contributes(tag domain.Tag) bool {
	switch tag {
	case domain.NEG:
		return sp&(hasNeg|hasZero) != 0
	case domain.POS:
		return sp&(hasPos|hasZero) != 0
	}
	// The interface needs a sign change or a touching zero
	return sp&hasZero != 0 || sp&(hasNeg|hasPos) == hasNeg|hasPos
}

// isOfType reports whether the entity lies entirely in the region of tag
// (zeros allowed) or, for IF, is cut.
func (sp signPattern) isOfType(tag domain.Tag) bool {
	switch tag {
	case domain.NEG:
		return sp&hasNeg != 0 && sp&hasPos == 0
	case domain.POS:
		return sp&hasPos != 0 && sp&hasNeg == 0
	}
	return sp&(hasNeg|hasPos) == hasNeg|hasPos
}

// domainTag is the single type of the entity w.r.t. one level set, ties
// going to NEG
func (sp signPattern) domainTag() domain.Tag {
	switch {
	case sp&(hasNeg|hasPos) == hasNeg|hasPos:
		return domain.IF
	case sp&hasPos == 0:
		return domain.NEG
	}
	return domain.POS
}

func matchAny(patterns []signPattern, ds domain.Set, test func(signPattern, domain.Tag) bool) bool {
	for _, spec := range ds.Specs() {
		ok := true
		for i, tag := range spec {
			if !test(patterns[i], tag) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func patternsOf(values [][]float64, ds domain.Set, eps float64) ([]signPattern, error) {
	if ds.IsEmpty() {
		return nil, fmt.Errorf("%w: empty domain set", types.ErrInvalidDomainSpec)
	}
	if ds.Len() != len(values) {
		return nil, fmt.Errorf("%w: tuples of length %d for %d level sets",
			types.ErrInvalidDomainSpec, ds.Len(), len(values))
	}
	patterns := make([]signPattern, len(values))
	for i, v := range values {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: level set %d has no nodal values", types.ErrInvalidLevelSet, i)
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%w: level set %d has value %v", types.ErrInvalidLevelSet, i, x)
			}
		}
		patterns[i] = patternOf(v, eps)
	}
	return patterns, nil
}

func fieldValues(fields []levelset.Field) [][]float64 {
	values := make([][]float64, len(fields))
	for i, f := range fields {
		values[i] = f.Values
	}
	return values
}

// ClassifyElement reports whether the element can have a nonzero measure in
// ds. A tuple is excluded only when some level set is strictly of the wrong
// sign at every node.
func ClassifyElement(fields []levelset.Field, ds domain.Set, eps float64) (bool, error) {
	patterns, err := patternsOf(fieldValues(fields), ds, eps)
	if err != nil {
		return false, err
	}
	return matchAny(patterns, ds, signPattern.contributes), nil
}

// ElementIsOfType reports whether, for some tuple of ds, every level set is
// entirely on its side or, for IF, changes sign on the element.
func ElementIsOfType(fields []levelset.Field, ds domain.Set, eps float64) (bool, error) {
	patterns, err := patternsOf(fieldValues(fields), ds, eps)
	if err != nil {
		return false, err
	}
	return matchAny(patterns, ds, signPattern.isOfType), nil
}

// ClassifyFacet applies the element rule to the nodal values on one facet,
// facetValues[levelset][facetNode].
func ClassifyFacet(facetValues [][]float64, ds domain.Set, eps float64) (bool, error) {
	patterns, err := patternsOf(facetValues, ds, eps)
	if err != nil {
		return false, err
	}
	return matchAny(patterns, ds, signPattern.contributes), nil
}

// FacetIsOfType is ElementIsOfType on facet nodal values
func FacetIsOfType(facetValues [][]float64, ds domain.Set, eps float64) (bool, error) {
	patterns, err := patternsOf(facetValues, ds, eps)
	if err != nil {
		return false, err
	}
	return matchAny(patterns, ds, signPattern.isOfType), nil
}
