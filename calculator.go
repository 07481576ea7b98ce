package taper

import "math"

const (
	// StartOfTopShare separates the middle stem from the top.
	StartOfTopShare = 0.6

	// BreastHeightM is the height at which the reference diameter is measured.
	BreastHeightM = 1.3

	alfa    = 10000.0
	invAlfa = 1.0 / alfa
)

// Region identifies one of the three stem regions.
type Region int

const (
	RegionRootSwell Region = iota
	RegionMiddleStem
	RegionTop
)

func (r Region) String() string {
	switch r {
	case RegionRootSwell:
		return "root-swell"
	case RegionMiddleStem:
		return "middle-stem"
	case RegionTop:
		return "top"
	}
	return "unknown"
}

// Calculator evaluates the taper curve of one tree (or one stand's mean
// tree). All derived constants are computed by New and never change, so a
// Calculator may be shared between goroutines.
type Calculator struct {
	species             Species
	heightM             float64
	diameterUnderBarkCM float64
	formFactor          float64

	formQuotient float64
	formClass    int
	k            StemFormConstants
	quota        float64
	invQuota     float64

	rootSwellShare float64

	// Unrounded diameters at the two boundary shares.
	rootSwellBoundaryCM float64
	topBoundaryCM       float64

	// Boundary diameters rounded to whole centimeters; these select the
	// region when inverting.
	diameterAtEndOfRootSwell float64
	diameterAtStartOfTop     float64
}

// New derives the model constants for a tree. It never fails: implausible
// inputs (non-positive height or diameter, form factor outside (0,1))
// produce NaN or infinite results from the queries. Use NewFromParams to
// validate first.
func New(s Species, heightM, diameterUnderBarkCM, formFactor float64) *Calculator {
	c := &Calculator{
		species:             s,
		heightM:             heightM,
		diameterUnderBarkCM: diameterUnderBarkCM,
		formFactor:          formFactor,
	}

	// Order matters: each step reads fields set by the previous ones.
	c.formQuotient = FormQuotient(s, formFactor, heightM, diameterUnderBarkCM)
	c.formClass = FormClass(c.formQuotient)
	c.k = LookupStemFormConstants(s, c.formQuotient)
	c.quota = (100 - c.k.RootQ*math.Log10(1+alfa*BreastHeightM/heightM)) / diameterUnderBarkCM
	c.invQuota = 1 / c.quota
	c.rootSwellShare = RootSwellHeightShare(s, c.formQuotient)

	c.rootSwellBoundaryCM = c.equationAt(c.rootSwellShare)
	c.topBoundaryCM = c.equationAt(StartOfTopShare)
	c.diameterAtEndOfRootSwell = math.Round(c.rootSwellBoundaryCM)
	c.diameterAtStartOfTop = math.Round(c.topBoundaryCM)

	return c
}

// NewFromParams validates p and returns its Calculator.
func NewFromParams(p Params) (*Calculator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return New(p.Species, p.HeightM, p.DiameterUnderBarkCM, p.FormFactor), nil
}

// Params returns the construction inputs.
func (c *Calculator) Params() Params {
	return Params{
		Species:             c.species,
		HeightM:             c.heightM,
		DiameterUnderBarkCM: c.diameterUnderBarkCM,
		FormFactor:          c.formFactor,
	}
}

func (c *Calculator) Species() Species                     { return c.species }
func (c *Calculator) HeightM() float64                     { return c.heightM }
func (c *Calculator) DiameterUnderBarkCM() float64         { return c.diameterUnderBarkCM }
func (c *Calculator) FormFactor() float64                  { return c.formFactor }
func (c *Calculator) FormQuotient() float64                { return c.formQuotient }
func (c *Calculator) FormClass() int                       { return c.formClass }
func (c *Calculator) StemFormConstants() StemFormConstants { return c.k }
func (c *Calculator) RootSwellShare() float64              { return c.rootSwellShare }

// DiameterAtEndOfRootSwell is the diameter (cm, rounded) where the root
// swell meets the middle stem.
func (c *Calculator) DiameterAtEndOfRootSwell() float64 { return c.diameterAtEndOfRootSwell }

// DiameterAtStartOfTop is the diameter (cm, rounded) at StartOfTopShare.
func (c *Calculator) DiameterAtStartOfTop() float64 { return c.diameterAtStartOfTop }

// RegionAtShare reports which region's forward equation serves a height
// share. A share exactly on a boundary belongs to the region above it, so
// the root-swell share is the first share of the middle stem and
// StartOfTopShare the first of the top. Shares outside [0,1] are reported
// as the nearest end region.
func (c *Calculator) RegionAtShare(share float64) Region {
	switch {
	case share >= StartOfTopShare:
		return RegionTop
	case share >= c.rootSwellShare:
		return RegionMiddleStem
	}
	return RegionRootSwell
}

// DiameterAtHeightShare returns the diameter under bark (cm) at the given
// share of total height. ok is false when share is outside [0,1].
func (c *Calculator) DiameterAtHeightShare(share float64) (diameterCM float64, ok bool) {
	if !(0 <= share && share <= 1) {
		return 0, false
	}
	switch share {
	case c.rootSwellShare:
		return c.rootSwellBoundaryCM, true
	case StartOfTopShare:
		return c.topBoundaryCM, true
	}
	return c.equationAt(share), true
}

// equationAt evaluates the forward equation of the region containing share.
func (c *Calculator) equationAt(share float64) float64 {
	switch c.RegionAtShare(share) {
	case RegionTop:
		return c.k.R * math.Log10(1+(1-share)*c.k.Gamma) * c.invQuota
	case RegionMiddleStem:
		return c.k.StemQ * math.Log10(1+(1-share)*c.k.Beta) * c.invQuota
	}
	return (100 - c.k.RootQ*math.Log10(1+alfa*share)) * c.invQuota
}

// DiameterAtHeight returns the diameter under bark (cm) at heightM meters
// above ground. Heights below the ground or above the tip are clamped to the
// stem, so the tip and above yield 0.
func (c *Calculator) DiameterAtHeight(heightM float64) float64 {
	share := safeDiv(heightM, c.heightM)
	if math.IsNaN(share) {
		return math.NaN()
	}
	d, _ := c.DiameterAtHeightShare(clamp(share, 0, 1))
	return d
}

// HeightShareAtDiameter returns the share of total height (0..1) where the
// stem has the given diameter under bark (cm). Results are clamped to the
// region selected by the diameter; diameters larger than the stump yield 0
// and non-positive diameters yield 1.
func (c *Calculator) HeightShareAtDiameter(diameterCM float64) float64 {
	if diameterCM <= c.diameterAtStartOfTop {
		if diameterCM == c.diameterAtStartOfTop {
			return StartOfTopShare
		}
		share := 1 - (math.Pow(10, diameterCM*c.quota/c.k.R)-1)/c.k.Gamma
		return clamp(share, StartOfTopShare, 1)
	}

	if diameterCM <= c.diameterAtEndOfRootSwell {
		if diameterCM == c.diameterAtEndOfRootSwell {
			return c.rootSwellShare
		}
		share := 1 - (math.Pow(10, diameterCM*c.quota/c.k.StemQ)-1)/c.k.Beta
		return clamp(share, c.rootSwellShare, StartOfTopShare)
	}

	share := (math.Pow(10, (100-diameterCM*c.quota)/c.k.RootQ) - 1) * invAlfa
	return clamp(share, 0, c.rootSwellShare)
}

// RegionAtDiameter reports which region's inverse equation serves a
// diameter. It compares against the rounded boundary diameters the same way
// HeightShareAtDiameter does, so a diameter equal to a boundary belongs to
// the region above it.
func (c *Calculator) RegionAtDiameter(diameterCM float64) Region {
	switch {
	case diameterCM <= c.diameterAtStartOfTop:
		return RegionTop
	case diameterCM <= c.diameterAtEndOfRootSwell:
		return RegionMiddleStem
	}
	return RegionRootSwell
}

// HeightAtDiameter returns the height (m) where the stem has the given
// diameter under bark (cm).
func (c *Calculator) HeightAtDiameter(diameterCM float64) float64 {
	return c.HeightShareAtDiameter(diameterCM) * c.heightM
}

// safeDiv returns n when d is zero instead of dividing.
func safeDiv(n, d float64) float64 {
	if d == 0 {
		return n
	}
	return n / d
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// Summary is a snapshot of a Calculator's inputs and derived constants.
type Summary struct {
	Species                  string            `json:"species"`
	HeightM                  float64           `json:"height_m"`
	DiameterUnderBarkCM      float64           `json:"diameter_under_bark_cm"`
	FormFactor               float64           `json:"form_factor"`
	FormQuotient             float64           `json:"form_quotient"`
	FormClass                int               `json:"form_class"`
	StemFormConstants        StemFormConstants `json:"stem_form_constants"`
	RootSwellShare           float64           `json:"root_swell_share"`
	DiameterAtEndOfRootSwell float64           `json:"diameter_at_end_of_root_swell_cm"`
	DiameterAtStartOfTop     float64           `json:"diameter_at_start_of_top_cm"`
}

// Summary returns the inputs and derived constants of c.
func (c *Calculator) Summary() Summary {
	return Summary{
		Species:                  c.species.String(),
		HeightM:                  c.heightM,
		DiameterUnderBarkCM:      c.diameterUnderBarkCM,
		FormFactor:               c.formFactor,
		FormQuotient:             c.formQuotient,
		FormClass:                c.formClass,
		StemFormConstants:        c.k,
		RootSwellShare:           c.rootSwellShare,
		DiameterAtEndOfRootSwell: c.diameterAtEndOfRootSwell,
		DiameterAtStartOfTop:     c.diameterAtStartOfTop,
	}
}
