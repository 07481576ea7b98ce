package taper

import "math"

// volumeIntervals is the number of Simpson intervals used by Volume. Must
// be even.
const volumeIntervals = 64

// MaxProfilePoints bounds the number of samples Profile will produce.
const MaxProfilePoints = 1_000_000

// ProfilePoint is one sample of the taper curve.
type ProfilePoint struct {
	HeightM    float64 `json:"height_m"`
	DiameterCM float64 `json:"diameter_cm"`
}

// Profile samples the diameter from the ground to the tip every stepM
// meters. The last point is always the tip. A non-positive or NaN step, or
// one so small that the curve would need more than MaxProfilePoints
// samples, returns nil.
func (c *Calculator) Profile(stepM float64) []ProfilePoint {
	if !(stepM > 0) || !(c.heightM > 0) || math.IsInf(c.heightM, 0) {
		return nil
	}
	steps := math.Ceil(c.heightM / stepM)
	if !(steps < MaxProfilePoints) {
		return nil
	}
	n := int(steps)
	points := make([]ProfilePoint, 0, n+1)
	for i := 0; i < n; i++ {
		h := float64(i) * stepM
		points = append(points, ProfilePoint{HeightM: h, DiameterCM: c.DiameterAtHeight(h)})
	}
	return append(points, ProfilePoint{HeightM: c.heightM, DiameterCM: c.DiameterAtHeight(c.heightM)})
}

// Volume returns the stem volume under bark (m³) between two heights,
// integrating the cross-section area with Simpson's rule. Heights are
// clamped to the stem and may be given in either order.
func (c *Calculator) Volume(fromM, toM float64) float64 {
	if fromM > toM {
		fromM, toM = toM, fromM
	}
	fromM = clamp(fromM, 0, c.heightM)
	toM = clamp(toM, 0, c.heightM)
	if !(toM > fromM) {
		return 0
	}

	step := (toM - fromM) / volumeIntervals
	sum := c.area(fromM) + c.area(toM)
	for i := 1; i < volumeIntervals; i++ {
		w := 2.0
		if i%2 == 1 {
			w = 4.0
		}
		sum += w * c.area(fromM+float64(i)*step)
	}
	return sum * step / 3
}

// area returns the cross-section area (m²) at heightM.
func (c *Calculator) area(heightM float64) float64 {
	r := c.DiameterAtHeight(heightM) / 200
	return math.Pi * sqr(r)
}

func sqr(v float64) float64 { return v * v }
