package taper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Species selects a row in every coefficient table. Southern and northern
// refer to stands growing south or north of latitude 60°N.
type Species int

const (
	SouthernPine Species = iota
	NorthernPine
	SouthernSpruce
	NorthernSpruce
)

// numberOfSpecies is the row count of the per-species tables.
const numberOfSpecies = 4

// ErrUnknownSpecies is returned by ParseSpecies for unrecognized names.
var ErrUnknownSpecies = errors.New("unknown species")

var speciesNames = [numberOfSpecies]string{
	"southern-pine",
	"northern-pine",
	"southern-spruce",
	"northern-spruce",
}

// AllSpecies returns every species in table order.
func AllSpecies() []Species {
	return []Species{SouthernPine, NorthernPine, SouthernSpruce, NorthernSpruce}
}

// row returns the table row for s. Any value outside the enumeration is a
// programming error and panics.
func (s Species) row() int {
	switch s {
	case SouthernPine:
		return 0
	case NorthernPine:
		return 1
	case SouthernSpruce:
		return 2
	case NorthernSpruce:
		return 3
	}
	panic(fmt.Sprintf("taper: invalid species %d", int(s)))
}

// Valid reports whether s is one of the four defined species.
func (s Species) Valid() bool {
	return s >= SouthernPine && s <= NorthernSpruce
}

func (s Species) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Species(%d)", int(s))
	}
	return speciesNames[s.row()]
}

// IsPine reports whether s is one of the pine rows.
func (s Species) IsPine() bool {
	return s == SouthernPine || s == NorthernPine
}

// ParseSpecies converts a name such as "southern-pine" or "Northern Spruce"
// into a Species. Matching is case-insensitive and treats spaces and
// underscores as hyphens.
func ParseSpecies(name string) (Species, error) {
	norm := normalizeSpeciesName(name)
	for _, s := range AllSpecies() {
		if speciesNames[s.row()] == norm {
			return s, nil
		}
	}
	if suggestion, ok := closestSpeciesName(norm); ok {
		return 0, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownSpecies, name, suggestion)
	}
	return 0, fmt.Errorf("%w %q: must be one of %s", ErrUnknownSpecies, name, strings.Join(speciesNames[:], ", "))
}

func normalizeSpeciesName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("_", "-", " ", "-").Replace(name)
	return name
}

// maxSuggestionDistance bounds how far a typo may be from a known name
// before ParseSpecies stops suggesting it.
const maxSuggestionDistance = 3

func closestSpeciesName(norm string) (string, bool) {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, candidate := range speciesNames {
		dist := levenshtein.ComputeDistance(norm, candidate)
		if dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best, best != ""
}
