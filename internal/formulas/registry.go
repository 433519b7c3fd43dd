package formulas

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormula is returned for a formula name outside the registry.
var ErrUnknownFormula = errors.New("unknown spherical formula")

// DefaultFormulaName is used when the caller does not pick a formula.
const DefaultFormulaName = "haigis"

// ByName resolves a formula identifier to an implementation. An empty name
// resolves to the default.
func ByName(name string) (Spherical, error) {
	switch strings.ToLower(name) {
	case "", "haigis":
		return Haigis{}, nil
	case "srkt", "srk/t":
		return SRKT{}, nil
	case "cooke", "cooke-k6", "k6":
		return NewCookeK6(), nil
	default:
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormula, name, strings.Join(Names(), ", "))
	}
}

// Names lists the accepted formula identifiers.
func Names() []string {
	return []string{"haigis", "srkt", "cooke"}
}
