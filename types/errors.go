package types

import "errors"

// Error kinds surfaced by the classifier and the quadrature builder. Callers
// match them with errors.Is; the wrapping error carries the element index.
var (
	ErrDegenerateGeometry = errors.New("degenerate element geometry")
	ErrInvalidDomainSpec  = errors.New("invalid domain specification")
	ErrInvalidLevelSet    = errors.New("invalid level set field")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
