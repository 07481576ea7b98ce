package taper

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is wrapped by every Params.Validate failure.
var ErrInvalidParams = errors.New("invalid tree parameters")

// Params are the four inputs of the taper model.
type Params struct {
	Species             Species
	HeightM             float64 // basal-area weighted mean height
	DiameterUnderBarkCM float64 // diameter of mean basal area, under bark
	FormFactor          float64 // stem volume / cylinder volume
}

// Validate rejects inputs for which the model has no physical meaning,
// including those whose derived root swell would not end below the top.
func (p Params) Validate() error {
	if !p.Species.Valid() {
		return fmt.Errorf("%w: species %d out of range", ErrInvalidParams, int(p.Species))
	}
	if !(p.HeightM > 0) || math.IsInf(p.HeightM, 0) {
		return fmt.Errorf("%w: height %g m must be positive", ErrInvalidParams, p.HeightM)
	}
	if p.HeightM <= BreastHeightM {
		return fmt.Errorf("%w: height %g m must exceed breast height (%g m)", ErrInvalidParams, p.HeightM, BreastHeightM)
	}
	if !(p.DiameterUnderBarkCM > 0) || math.IsInf(p.DiameterUnderBarkCM, 0) {
		return fmt.Errorf("%w: diameter %g cm must be positive", ErrInvalidParams, p.DiameterUnderBarkCM)
	}
	if !(p.FormFactor > 0 && p.FormFactor < 1) {
		return fmt.Errorf("%w: form factor %g must be in (0,1)", ErrInvalidParams, p.FormFactor)
	}

	fq := FormQuotient(p.Species, p.FormFactor, p.HeightM, p.DiameterUnderBarkCM)
	if !(fq < 1) {
		return fmt.Errorf("%w: form quotient %.4f must be below 1", ErrInvalidParams, fq)
	}
	rs := RootSwellHeightShare(p.Species, fq)
	if !(rs > 0 && rs < StartOfTopShare) {
		return fmt.Errorf("%w: root swell ends at %.3f of height, must be in (0,%g)", ErrInvalidParams, rs, StartOfTopShare)
	}
	return nil
}
