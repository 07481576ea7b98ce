package taper

import "math"

// FormQuotient returns the dimensionless form quotient of a tree with the
// given form factor, height (m) and diameter under bark (cm). Inputs are not
// validated.
func FormQuotient(s Species, formFactor, heightM, diameterUnderBarkCM float64) float64 {
	k := formQuotientTable[s.row()]
	return k.a + k.b*heightM - k.c*diameterUnderBarkCM + k.f*formFactor
}

// RootSwellHeightShare returns the share of total height (0..1) where the
// root swell ends. A form quotient of 1 yields +Inf.
func RootSwellHeightShare(s Species, formQuotient float64) float64 {
	k := rootSwellTable[s.row()]
	return k.a / math.Pow(1-formQuotient, k.b)
}

// FormClass buckets a form quotient into one of the NumberOfFormClasses
// tabulated classes. Buckets are 0.05 wide starting at 0.475; quotients
// outside the table fall into the nearest edge class.
func FormClass(formQuotient float64) int {
	bucket := math.Floor((formQuotient - 0.475) / 0.05)
	if math.IsNaN(bucket) || bucket < 1 {
		bucket = 1
	}
	if bucket > NumberOfFormClasses {
		bucket = NumberOfFormClasses
	}
	return int(bucket) - 1
}

// LookupStemFormConstants returns a copy of the tabulated coefficients for
// the species and the form class of formQuotient.
func LookupStemFormConstants(s Species, formQuotient float64) StemFormConstants {
	return stemFormTable[s.row()*NumberOfFormClasses+FormClass(formQuotient)]
}
