package taper

// StemFormConstants holds the coefficients of the three taper equations for
// one species and form class.
type StemFormConstants struct {
	Beta  float64 `json:"beta"`   // middle stem curvature (β)
	Gamma float64 `json:"gamma"`  // top curvature (γ)
	RootQ float64 `json:"root_q"` // root swell scale (q)
	StemQ float64 `json:"stem_q"` // middle stem scale (Q)
	R     float64 `json:"r"`      // top scale (R)
}

// NumberOfFormClasses is the number of tabulated form classes per species,
// labeled 52.5%, 57.5%, ..., 82.5%.
const NumberOfFormClasses = 7

// stemFormTable is indexed by species row * NumberOfFormClasses + form class.
var stemFormTable = [numberOfSpecies * NumberOfFormClasses]StemFormConstants{
	// southern pine
	{0.620, 0.8409, 15.970, 285.280, 183.440},
	{0.620, 0.3694, 14.948, 285.280, 458.590},
	{1.594, 0.4251, 14.214, 147.440, 463.070},
	{3.240, 1.5290, 13.646, 98.601, 171.700},
	{6.320, 3.9740, 13.240, 71.915, 95.286},
	{13.070, 5.5100, 12.951, 54.050, 84.904},
	{33.502, 6.4450, 12.755, 39.982, 83.659},

	// northern pine
	{0.620, 1.513, 14.233, 311.680, 123.910},
	{0.620, 1.228, 13.321, 311.680, 172.850},
	{1.594, 1.506, 12.657, 160.290, 167.680},
	{3.240, 2.493, 12.177, 106.670, 128.160},
	{6.320, 4.488, 11.880, 77.416, 94.947},
	{13.056, 6.602, 11.759, 57.767, 81.725},
	{32.307, 7.594, 11.753, 42.808, 80.776},

	// southern spruce
	{0.620, 0.892, 15.765, 287.440, 174.400},
	{0.620, 0.923, 14.818, 287.440, 202.650},
	{1.594, 1.093, 14.032, 148.970, 202.510},
	{3.240, 2.164, 13.479, 99.532, 132.690},
	{6.320, 3.324, 13.040, 72.736, 108.430},
	{13.059, 4.463, 12.775, 54.618, 97.490},
	{33.208, 5.586, 12.578, 40.509, 91.770},

	// northern spruce
	{0.620, 1.671, 16.104, 286.360, 103.060},
	{0.620, 1.422, 14.883, 286.360, 140.910},
	{1.594, 1.976, 13.784, 151.040, 127.890},
	{3.240, 2.906, 12.906, 102.700, 110.680},
	{6.320, 3.759, 12.099, 76.543, 105.150},
	{13.056, 4.026, 11.321, 59.096, 112.590},
	{32.012, 3.595, 10.540, 45.754, 134.760},
}

// rootSwellCoefficients parameterize n = a / (1 - formQuotient)^b.
type rootSwellCoefficients struct {
	a, b float64
}

var rootSwellTable = [numberOfSpecies]rootSwellCoefficients{
	{0.06873, 0.8},
	{0.05270, 0.9},
	{0.06731, 0.8},
	{0.08631, 0.5},
}

// formQuotientCoefficients parameterize n = a + b*h - c*d + f*formFactor.
type formQuotientCoefficients struct {
	a, b, c, f float64
}

var formQuotientTable = [numberOfSpecies]formQuotientCoefficients{
	{0.372, 0.008742, 0.003263, 0.4929},
	{0.293, 0.006690, 0.001384, 0.6348},
	{0.209, 0.008590, 0.003157, 0.7385},
	{0.239, 0.010460, 0.004407, 0.6532},
}
